package match

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// SummaryHash is a stable hash over the sorted "{key}:{score}" pairs of lines.
func SummaryHash(lines []SummaryLine) string {
	entries := make([]string, 0, len(lines))
	for _, l := range lines {
		entries = append(entries, l.Key+":"+l.Score)
	}
	sort.Strings(entries)

	sum := sha256.Sum256([]byte(strings.Join(entries, "\n")))
	return hex.EncodeToString(sum[:])
}
