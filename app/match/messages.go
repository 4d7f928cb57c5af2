package match

import (
	"fmt"
	"sort"
	"strings"
)

type StatLine struct {
	Title string
	Home  string
	Away  string
}

type SummaryLine struct {
	Key    string
	Eq1    string
	Eq2    string
	Score  string
	Status string
	Minute string
}

func scoreLine(eq1, score, eq2 string) string {
	return fmt.Sprintf("%s %s %s", eq1, score, eq2)
}

func KickoffMessage(r Record) string {
	return fmt.Sprintf("⏱️ %s\n%s", r.Minute, scoreLine(r.Eq1, r.Score, r.Eq2))
}

func HalfTimeMessage(r Record, stats string) string {
	return withStats(fmt.Sprintf("⏸️ Mi-temps\n%s", scoreLine(r.Eq1, r.Score, r.Eq2)), stats)
}

func DisallowedMessage(r Record, team string) string {
	return fmt.Sprintf("❌ BUT REFUSÉ pour %s après consultation de la VAR.\n\nLe score revient à %s",
		team, scoreLine(r.Eq1, r.Score, r.Eq2))
}

// GoalMessage uses the detail page scorer and minute when present, else the listing minute.
func GoalMessage(r Record, team string, detail Detail) string {
	headline := fmt.Sprintf("🚀 Buuuut de %s !", team)
	if name, ok := ScorerName(detail.Scorer); ok {
		headline = fmt.Sprintf("🚀 Buuuut de %s (%s) !", name, team)
	}

	minute := r.Minute
	if detail.Minute != "" {
		minute = detail.Minute
	}

	return fmt.Sprintf("%s\n⏱️ %s\n%s", headline, minute, scoreLine(r.Eq1, r.Score, r.Eq2))
}

// ScorerName cleans the raw scorer cell. "(csc)" style cells carry no name,
// and an annotated name such as "Mbappé (p)" becomes "Mbappé 🔥".
func ScorerName(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "", strings.HasPrefix(raw, "("):
		return "", false
	case strings.Contains(raw, "("):
		name := strings.TrimSpace(raw[:strings.Index(raw, "(")])
		return name + " 🔥", true
	default:
		return raw, true
	}
}

func FinishedMessage(f FinishedRecord, penalties, stats string) string {
	msg := fmt.Sprintf("🔚 Terminé\n%s", scoreLine(f.Eq1, f.Score, f.Eq2))
	if penalties != "" {
		msg += "\nTirs au but : " + penalties
	}
	return withStats(msg, stats)
}

// FormatStats renders one "📊 title : v1 - v2" line per distinct title, keeping page order.
func FormatStats(lines []StatLine) string {
	seen := make(map[string]bool, len(lines))
	var out []string
	for _, l := range lines {
		if l.Title == "" || seen[l.Title] {
			continue
		}
		seen[l.Title] = true
		out = append(out, fmt.Sprintf("📊 %s : %s - %s", l.Title, l.Home, l.Away))
	}
	return strings.Join(out, "\n")
}

// SummaryMessage lists in-progress matches sorted by key.
func SummaryMessage(lines []SummaryLine) string {
	sorted := make([]SummaryLine, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	var b strings.Builder
	b.WriteString("📊 Scores en direct :\n")
	for _, l := range sorted {
		line := scoreLine(l.Eq1, l.Score, l.Eq2)
		switch {
		case l.Status == StatusHalfTime:
			line += " (MT)"
		case IsLiveClock(l.Minute):
			line += fmt.Sprintf(" (%s)", l.Minute)
		}
		b.WriteString("\n◉ ")
		b.WriteString(line)
	}
	return b.String()
}

func NewsMessage(title, content string) string {
	return fmt.Sprintf("🚨 **ACTU FOOT** 🚨\n\n**%s**\n\n%s", title, content)
}

func withStats(msg, stats string) string {
	if stats == "" {
		return msg
	}
	return msg + "\n\n" + stats
}
