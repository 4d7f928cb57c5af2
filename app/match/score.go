package match

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var ErrMalformedScore = errors.New("malformed score")

var (
	scoreDigits   = regexp.MustCompile(`\d+`)
	canonicalForm = regexp.MustCompile(`^(\d+) - (\d+)$`)
)

type Score struct {
	Home int
	Away int
}

func (s Score) String() string {
	return fmt.Sprintf("%d - %d", s.Home, s.Away)
}

// NormalizeScore renders the first two integers of raw as "A - B".
// Text without two integers is returned trimmed and unchanged.
func NormalizeScore(raw string) string {
	nums := scoreDigits.FindAllString(raw, 2)
	if len(nums) < 2 {
		return strings.TrimSpace(raw)
	}

	home, errHome := strconv.Atoi(nums[0])
	away, errAway := strconv.Atoi(nums[1])
	if errHome != nil || errAway != nil {
		return strings.TrimSpace(raw)
	}

	return Score{Home: home, Away: away}.String()
}

// ParseScore only accepts the canonical form produced by NormalizeScore.
func ParseScore(s string) (Score, bool) {
	m := canonicalForm.FindStringSubmatch(s)
	if m == nil {
		return Score{}, false
	}

	home, err := strconv.Atoi(m[1])
	if err != nil {
		return Score{}, false
	}
	away, err := strconv.Atoi(m[2])
	if err != nil {
		return Score{}, false
	}

	return Score{Home: home, Away: away}, true
}
