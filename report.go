package main

import (
	"fmt"
	"strings"

	"github.com/quietpawn/deckforge/models"
)

const reportRule = "--------------------------------------------------------------------------------"

// renderMeter draws a fixed-width progress bar for a value in [0, 1],
// e.g. "[████████████████░░░░] 80%".
func renderMeter(value float64, width int) string {
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	level := int(value * float64(width))
	meter := strings.Repeat("█", level) + strings.Repeat("░", width-level)
	return fmt.Sprintf("[%s] %.0f%%", meter, value*100)
}

// renderStars draws a 0-5 rating as filled and empty stars.
func renderStars(stars int) string {
	if stars < 0 {
		stars = 0
	}
	if stars > 5 {
		stars = 5
	}
	return strings.Repeat("★", stars) + strings.Repeat("☆", 5-stars)
}

// renderTable lays out rows under headers with per-column widths sized
// to the longest cell. The first column is left-aligned, the rest right.
func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len([]rune(h))
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len([]rune(cell)) > widths[i] {
				widths[i] = len([]rune(cell))
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("|")
		for i := range headers {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			pad := widths[i] - len([]rune(cell))
			if i == 0 {
				b.WriteString(" " + cell + strings.Repeat(" ", pad) + " |")
			} else {
				b.WriteString(" " + strings.Repeat(" ", pad) + cell + " |")
			}
		}
		b.WriteString("\n")
	}

	writeRow(headers)
	b.WriteString(":")
	for i := range headers {
		b.WriteString(strings.Repeat("-", widths[i]+2) + ":")
	}
	b.WriteString("\n")
	for _, row := range rows {
		writeRow(row)
	}

	return strings.TrimRight(b.String(), "\n")
}

// RenderCoverageReport renders a deck's coverage report as console
// text: deck size, theme counts, a coverage meter, and the most and
// least represented themes.
func RenderCoverageReport(deck *models.DeckRecord, coverage *models.CoverageReport) string {
	var lines []string
	lines = append(lines,
		fmt.Sprintf("Theme coverage for band %s (deck %s):", deck.Band.Label, deck.ID),
		fmt.Sprintf("- Selected puzzles: %d", deck.Size),
		fmt.Sprintf("- Skipped during normalization: %d", deck.Skipped),
		fmt.Sprintf("- Unique themes covered: %d", coverage.DeckThemeCount),
		fmt.Sprintf("- Distinct themes in tranche: %d", coverage.TrancheThemeCount),
		fmt.Sprintf("- Thematic coverage: %s", renderMeter(coverage.CoverageRatio, 20)),
	)

	freq := coverage.ThemeFrequency
	if len(freq) > 0 {
		head, tail := freq, []models.ThemeCount(nil)
		// Long histograms show the five most and five least represented
		if len(freq) > 10 {
			head = freq[:5]
			tail = freq[len(freq)-5:]
		}
		for _, tc := range head {
			lines = append(lines, fmt.Sprintf("  * %s: %d puzzles", tc.Theme, tc.Count))
		}
		if tail != nil {
			lines = append(lines, "  * ...")
			for _, tc := range tail {
				lines = append(lines, fmt.Sprintf("  * %s: %d puzzles", tc.Theme, tc.Count))
			}
		}
	}

	lines = append(lines, reportRule)
	return strings.Join(lines, "\n") + "\n"
}

// familyTitle turns a snake_case family key into a display name,
// "sicilian_defence" becoming "Sicilian Defence".
func familyTitle(family string) string {
	words := strings.Split(family, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		r := []rune(word)
		words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
	}
	return strings.Join(words, " ")
}

// RenderRepertoireReport renders the repertoire analysis as console
// text: global gauges, a per-family table ranked weakest first, and the
// gap recommendations.
func RenderRepertoireReport(report *models.RepertoireReport) string {
	var lines []string
	lines = append(lines,
		"OPENING REPERTOIRE ANALYSIS",
		reportRule,
		fmt.Sprintf(" * Total lines: %d across %d families", report.TotalLines, report.TotalFamilies),
		fmt.Sprintf(" * Color distribution: White %d | Black %d", report.WhiteLines, report.BlackLines),
		"",
		" * Color balance:     "+renderMeter(report.ColorBalance, 20),
		" * Depth attainment:  "+renderMeter(report.DepthAttainment, 20),
		" * Mainline share:    "+renderMeter(report.MainlineRatio, 20),
		fmt.Sprintf(" * Average rating:    %.1f stars", report.AverageStars),
		"",
		"FAMILY BREAKDOWN",
		reportRule,
	)

	headers := []string{"Family", "Lines", "White", "Black", "Mainlines", "Depth", "Rating"}
	rows := make([][]string, 0, len(report.Families))
	for _, fr := range report.Families {
		rows = append(rows, []string{
			familyTitle(fr.Family),
			fmt.Sprintf("%d", fr.Variations),
			fmt.Sprintf("%d", fr.WhiteLines),
			fmt.Sprintf("%d", fr.BlackLines),
			fmt.Sprintf("%d", fr.Mainlines),
			fmt.Sprintf("%d", fr.MaxDepth),
			renderStars(fr.Stars),
		})
	}
	lines = append(lines, renderTable(headers, rows))

	var recs []string
	for _, fr := range report.Families {
		if fr.Recommendation != "" {
			recs = append(recs, fr.Recommendation)
		}
	}
	if len(recs) > 0 {
		lines = append(lines, "", "RECOMMENDATIONS", reportRule)
		for i, rec := range recs {
			lines = append(lines, fmt.Sprintf(" %d. %s", i+1, rec))
		}
	}

	return strings.Join(lines, "\n") + "\n"
}
