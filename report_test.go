package main

import (
	"strings"
	"testing"
	"time"

	"github.com/quietpawn/deckforge/models"
	"github.com/stretchr/testify/assert"
)

func TestRenderMeter(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  string
	}{
		{name: "empty", value: 0, want: "[░░░░░░░░░░░░░░░░░░░░] 0%"},
		{name: "eighty percent", value: 0.8, want: "[████████████████░░░░] 80%"},
		{name: "full", value: 1, want: "[████████████████████] 100%"},
		{name: "clamped below", value: -0.5, want: "[░░░░░░░░░░░░░░░░░░░░] 0%"},
		{name: "clamped above", value: 1.5, want: "[████████████████████] 100%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renderMeter(tt.value, 20))
		})
	}
}

func TestRenderStars(t *testing.T) {
	assert.Equal(t, "☆☆☆☆☆", renderStars(0))
	assert.Equal(t, "★★★☆☆", renderStars(3))
	assert.Equal(t, "★★★★★", renderStars(5))
	assert.Equal(t, "☆☆☆☆☆", renderStars(-1))
	assert.Equal(t, "★★★★★", renderStars(9))
}

func TestFamilyTitle(t *testing.T) {
	assert.Equal(t, "Sicilian Defence", familyTitle("sicilian_defence"))
	assert.Equal(t, "Dutch", familyTitle("dutch"))
	assert.Equal(t, "Réti Opening", familyTitle("réti_opening"))
	assert.Equal(t, "", familyTitle(""))
}

func TestRenderTableAlignment(t *testing.T) {
	table := renderTable(
		[]string{"Family", "Lines"},
		[][]string{
			{"Dutch", "12"},
			{"Caro Kann", "3"},
		},
	)

	lines := strings.Split(table, "\n")
	assert.Len(t, lines, 4)

	// Every row has the same width
	for _, line := range lines[1:] {
		assert.Equal(t, len([]rune(lines[0])), len([]rune(line)), "line %q", line)
	}

	// First column left-aligned, second right-aligned
	assert.Equal(t, "| Dutch     |    12 |", lines[2])
	assert.Equal(t, "| Caro Kann |     3 |", lines[3])
}

func TestRenderCoverageReport(t *testing.T) {
	deck := &models.DeckRecord{
		ID:        "deck-1",
		Band:      models.Band{Label: "1400_1500", MinRating: 1400, MaxRating: 1500},
		Size:      812,
		Skipped:   3,
		CreatedAt: time.Now(),
	}
	coverage := &models.CoverageReport{
		TrancheThemeCount: 40,
		DeckThemeCount:    32,
		CoverageRatio:     0.8,
		ThemeFrequency: []models.ThemeCount{
			{Theme: "fork", Count: 120},
			{Theme: "pin", Count: 44},
		},
	}

	out := RenderCoverageReport(deck, coverage)

	assert.Contains(t, out, "band 1400_1500")
	assert.Contains(t, out, "- Selected puzzles: 812")
	assert.Contains(t, out, "- Skipped during normalization: 3")
	assert.Contains(t, out, "- Unique themes covered: 32")
	assert.Contains(t, out, "- Distinct themes in tranche: 40")
	assert.Contains(t, out, "80%")
	assert.Contains(t, out, "* fork: 120 puzzles")
	assert.Contains(t, out, "* pin: 44 puzzles")
	assert.NotContains(t, out, "* ...", "short histograms are shown whole")
}

func TestRenderCoverageReportTruncatesLongHistogram(t *testing.T) {
	deck := &models.DeckRecord{ID: "deck-2", Band: models.Band{Label: "1800plus"}}
	coverage := &models.CoverageReport{CoverageRatio: 1}
	for i := 0; i < 12; i++ {
		coverage.ThemeFrequency = append(coverage.ThemeFrequency, models.ThemeCount{
			Theme: string(rune('a' + i)),
			Count: 12 - i,
		})
	}

	out := RenderCoverageReport(deck, coverage)

	assert.Contains(t, out, "* ...")
	assert.Contains(t, out, "* a: 12 puzzles")
	assert.Contains(t, out, "* l: 1 puzzles")
	assert.NotContains(t, out, "* f:", "middle entries are elided")
}

func TestRenderRepertoireReport(t *testing.T) {
	report := &models.RepertoireReport{
		TotalLines:      12,
		TotalFamilies:   2,
		WhiteLines:      8,
		BlackLines:      4,
		MaxDepth:        10,
		AverageStars:    2.5,
		MainlineRatio:   0.4,
		ColorBalance:    0.5,
		DepthAttainment: 1,
		Families: []models.FamilyReport{
			{
				Family: "dutch", Variations: 2, WhiteLines: 2, Mainlines: 0, MaxDepth: 2,
				Stars: 1, Gap: models.GapBalance,
				Recommendation: "dutch: rebalance colors (2 white / 0 black lines)",
			},
			{
				Family: "queens_gambit", Variations: 10, WhiteLines: 6, BlackLines: 4,
				Mainlines: 4, MaxDepth: 10, Stars: 5,
			},
		},
	}

	out := RenderRepertoireReport(report)

	assert.Contains(t, out, "OPENING REPERTOIRE ANALYSIS")
	assert.Contains(t, out, "Total lines: 12 across 2 families")
	assert.Contains(t, out, "White 8 | Black 4")
	assert.Contains(t, out, "Dutch")
	assert.Contains(t, out, "Queens Gambit")
	assert.Contains(t, out, "★☆☆☆☆")
	assert.Contains(t, out, "★★★★★")
	assert.Contains(t, out, "RECOMMENDATIONS")
	assert.Contains(t, out, "1. dutch: rebalance colors")
}

func TestRenderRepertoireReportNoRecommendations(t *testing.T) {
	report := &models.RepertoireReport{
		TotalFamilies: 1,
		Families: []models.FamilyReport{
			{Family: "caro_kann", Variations: 8, Stars: 4},
		},
	}

	out := RenderRepertoireReport(report)
	assert.NotContains(t, out, "RECOMMENDATIONS")
}
