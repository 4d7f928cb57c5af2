package match

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeScore(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"1 - 0", "1 - 0"},
		{"1:0", "1 - 0"},
		{" 2  -  3 ", "2 - 3"},
		{"10:9", "10 - 9"},
		{"1\n-\n1", "1 - 1"},
		{"garbage", "garbage"},
		{"  - ", "-"},
		{"", ""},
		{"3", "3"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeScore(tt.raw))
		})
	}

	assert.Equal(t, NormalizeScore("1 - 0"), NormalizeScore("1:0"))
}

func TestParseScore(t *testing.T) {
	s, ok := ParseScore("2 - 1")
	require.True(t, ok)
	assert.Equal(t, Score{Home: 2, Away: 1}, s)

	for _, bad := range []string{"garbage", "2-1", "", "-", "2 - "} {
		_, ok := ParseScore(bad)
		assert.False(t, ok, bad)
	}
}

func TestDeriveStatus(t *testing.T) {
	assert.Equal(t, StatusHalfTime, DeriveStatus("Mi-temps"))
	assert.Equal(t, StatusHalfTime, DeriveStatus("MT"))
	assert.Equal(t, StatusFinished, DeriveStatus("Ter"))
	assert.Equal(t, StatusNone, DeriveStatus("67'"))
	assert.Equal(t, StatusNone, DeriveStatus("20:45"))
}

func TestKeyNormalizesNames(t *testing.T) {
	composed := "N\u00eemes"
	decomposed := "Ni\u0302mes"

	assert.Equal(t, composed+" vs OM", Key("  "+composed+" ", "OM"))
	assert.Equal(t, Key(composed, "Paris  FC"), Key(decomposed, "Paris FC"))
}

func TestNewRecord(t *testing.T) {
	r := NewRecord(" PSG ", "OM", "2:1", " 55' ", "https://example.com/m/1", "")
	assert.Equal(t, "PSG vs OM", r.Key)
	assert.Equal(t, "2 - 1", r.Score)
	assert.Equal(t, "55'", r.Minute)
	assert.Equal(t, StatusNone, r.Status)
}

func rec(score, status, minute string) Record {
	return Record{Key: "PSG vs OM", Eq1: "PSG", Eq2: "OM", Score: score, Status: status, Minute: minute}
}

func TestDeriveNewMatch(t *testing.T) {
	events, err := Derive(nil, rec("0 - 0", "", "20:45"))
	require.NoError(t, err)
	assert.Empty(t, events, "no clock marker means baseline only")

	events, err = Derive(nil, rec("-", "", "12'"))
	require.NoError(t, err)
	assert.Empty(t, events, "placeholder score is never announced")

	events, err = Derive(nil, rec("0 - 0", "", "3'"))
	require.NoError(t, err)
	assert.Equal(t, []Event{{Kind: EventKickoff}}, events)
}

func TestDeriveGoal(t *testing.T) {
	prev := rec("0 - 0", "", "10'")
	events, err := Derive(&prev, rec("1 - 0", "", "12'"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventGoal, events[0].Kind)
	assert.Equal(t, Home, events[0].Side)
	assert.True(t, events[0].Enrich)
	assert.Equal(t, "PSG", events[0].Team(rec("1 - 0", "", "")))
}

func TestDeriveVARReversal(t *testing.T) {
	prev := rec("1 - 0", "", "10'")
	events, err := Derive(&prev, rec("0 - 0", "", "14'"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventDisallowed, events[0].Kind)
	assert.Equal(t, Home, events[0].Side)
}

func TestDeriveDoubleIncrement(t *testing.T) {
	prev := rec("0 - 0", "", "10'")
	events, err := Derive(&prev, rec("1 - 1", "", "14'"))
	require.NoError(t, err)
	require.Len(t, events, 2)
	for _, e := range events {
		assert.Equal(t, EventGoal, e.Kind)
		assert.False(t, e.Enrich)
	}
	assert.Equal(t, Home, events[0].Side)
	assert.Equal(t, Away, events[1].Side)
}

func TestDeriveCorrectionWithGoal(t *testing.T) {
	prev := rec("1 - 0", "", "10'")
	events, err := Derive(&prev, rec("0 - 1", "", "14'"))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, Event{Kind: EventDisallowed, Side: Home}, events[0])
	assert.Equal(t, Event{Kind: EventGoal, Side: Away, Enrich: true}, events[1])
}

func TestDeriveHalfTimeOnlyOnce(t *testing.T) {
	prev := rec("1 - 0", "", "45'")
	events, err := Derive(&prev, rec("1 - 0", "MT", "Mi-temps"))
	require.NoError(t, err)
	assert.Equal(t, []Event{{Kind: EventHalfTime}}, events)

	prev = rec("1 - 0", "MT", "Mi-temps")
	events, err = Derive(&prev, rec("1 - 0", "MT", "Mi-temps"))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestDeriveMalformedScore(t *testing.T) {
	prev := rec("garbage", "", "10'")
	events, err := Derive(&prev, rec("1 - 0", "", "12'"))
	assert.Empty(t, events)
	assert.True(t, errors.Is(err, ErrMalformedScore))
}

func TestGoalMessage(t *testing.T) {
	r := rec("1 - 0", "", "12'")

	assert.Equal(t, "🚀 Buuuut de PSG !\n⏱️ 12'\nPSG 1 - 0 OM", GoalMessage(r, "PSG", Detail{}))
	assert.Equal(t, "🚀 Buuuut de Mbappé 🔥 (PSG) !\n⏱️ 11'\nPSG 1 - 0 OM",
		GoalMessage(r, "PSG", Detail{Scorer: "Mbappé (p)", Minute: "11'"}))
	assert.Equal(t, "🚀 Buuuut de Dembélé (PSG) !\n⏱️ 12'\nPSG 1 - 0 OM",
		GoalMessage(r, "PSG", Detail{Scorer: "Dembélé"}))
	assert.Equal(t, "🚀 Buuuut de PSG !\n⏱️ 12'\nPSG 1 - 0 OM",
		GoalMessage(r, "PSG", Detail{Scorer: "(csc)"}))
}

func TestOtherMessages(t *testing.T) {
	r := rec("1 - 0", "MT", "Mi-temps")

	assert.Equal(t, "⏱️ 3'\nPSG 0 - 0 OM", KickoffMessage(rec("0 - 0", "", "3'")))
	assert.Equal(t, "⏸️ Mi-temps\nPSG 1 - 0 OM", HalfTimeMessage(r, ""))
	assert.Equal(t, "⏸️ Mi-temps\nPSG 1 - 0 OM\n\n📊 Possession : 60% - 40%",
		HalfTimeMessage(r, FormatStats([]StatLine{{Title: "Possession", Home: "60%", Away: "40%"}})))
	assert.Equal(t, "❌ BUT REFUSÉ pour OM après consultation de la VAR.\n\nLe score revient à PSG 1 - 0 OM",
		DisallowedMessage(r, "OM"))
	assert.Equal(t, "🚨 **ACTU FOOT** 🚨\n\n**Titre**\n\nTexte", NewsMessage("Titre", "Texte"))

	f := FinishedRecord{SourceID: "1", Eq1: "PSG", Eq2: "OM", Score: "1 - 1"}
	assert.Equal(t, "🔚 Terminé\nPSG 1 - 1 OM", FinishedMessage(f, "", ""))
	assert.Equal(t, "🔚 Terminé\nPSG 1 - 1 OM\nTirs au but : 5-4\n\n📊 Tirs : 10 - 8",
		FinishedMessage(f, "5-4", "📊 Tirs : 10 - 8"))
}

func TestFormatStatsSkipsDuplicateTitles(t *testing.T) {
	out := FormatStats([]StatLine{
		{Title: "Possession", Home: "55%", Away: "45%"},
		{Title: "Tirs", Home: "7", Away: "3"},
		{Title: "Possession", Home: "50%", Away: "50%"},
	})
	assert.Equal(t, "📊 Possession : 55% - 45%\n📊 Tirs : 7 - 3", out)
	assert.Empty(t, FormatStats(nil))
}

func TestSummaryMessageAndHash(t *testing.T) {
	lines := []SummaryLine{
		{Key: "Lyon vs Nice", Eq1: "Lyon", Eq2: "Nice", Score: "0 - 0", Minute: "20:45"},
		{Key: "PSG vs OM", Eq1: "PSG", Eq2: "OM", Score: "1 - 0", Status: StatusHalfTime, Minute: "Mi-temps"},
		{Key: "Brest vs Lens", Eq1: "Brest", Eq2: "Lens", Score: "2 - 2", Minute: "78'"},
	}

	assert.Equal(t,
		"📊 Scores en direct :\n\n◉ Brest 2 - 2 Lens (78')\n◉ Lyon 0 - 0 Nice\n◉ PSG 1 - 0 OM (MT)",
		SummaryMessage(lines))

	reordered := []SummaryLine{lines[2], lines[0], lines[1]}
	assert.Equal(t, SummaryHash(lines), SummaryHash(reordered))

	// Minute changes alone do not change the hash
	lines[2].Minute = "80'"
	assert.Equal(t, SummaryHash(reordered), SummaryHash(lines))

	lines[2].Score = "3 - 2"
	assert.NotEqual(t, SummaryHash(reordered), SummaryHash(lines))
}
