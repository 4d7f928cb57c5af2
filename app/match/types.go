package match

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	StatusNone     = ""
	StatusHalfTime = "MT"
	StatusFinished = "TER"
)

// Record is one row of the live listing, validated at the adapter boundary.
type Record struct {
	Key      string
	Eq1      string
	Eq2      string
	Score    string // normalized
	Status   string
	Minute   string
	URL      string
	SourceID string
}

// FinishedRecord is one row of the finished listing.
type FinishedRecord struct {
	SourceID string
	Eq1      string
	Eq2      string
	Score    string
	Status   string
	URL      string
}

// Detail is the latest goal found on a match detail page. Either field may be empty.
type Detail struct {
	Scorer string
	Minute string
}

// NewRecord builds a live record from raw listing values.
func NewRecord(eq1, eq2, rawScore, minute, url, sourceID string) Record {
	eq1 = CleanTeamName(eq1)
	eq2 = CleanTeamName(eq2)
	minute = strings.TrimSpace(minute)

	return Record{
		Key:      Key(eq1, eq2),
		Eq1:      eq1,
		Eq2:      eq2,
		Score:    NormalizeScore(rawScore),
		Status:   DeriveStatus(minute),
		Minute:   minute,
		URL:      url,
		SourceID: sourceID,
	}
}

// CleanTeamName applies NFC normalization and collapses whitespace so the same
// team scraped twice always yields the same key.
func CleanTeamName(name string) string {
	return strings.Join(strings.Fields(norm.NFC.String(name)), " ")
}

func Key(eq1, eq2 string) string {
	return CleanTeamName(eq1) + " vs " + CleanTeamName(eq2)
}

// DeriveStatus maps the listing clock text to a status marker.
// "mt" is checked before "ter" so that "Mi-temps" never reads as finished.
func DeriveStatus(minute string) string {
	lower := strings.ToLower(minute)
	switch {
	case strings.Contains(lower, "mi-temps"), strings.Contains(lower, "mt"):
		return StatusHalfTime
	case strings.Contains(lower, "ter"):
		return StatusFinished
	default:
		return StatusNone
	}
}

// IsLiveClock reports whether the clock text shows a running minute, e.g. "67'".
func IsLiveClock(minute string) bool {
	return strings.Contains(minute, "'")
}

func IsFinished(status string) bool {
	return strings.Contains(strings.ToUpper(status), StatusFinished)
}
