package models

import "sort"

// CoverageFor quantifies how completely a sampled deck covers its
// source tranche's thematic space. It is read-only: neither the tranche
// nor the deck is mutated or filtered.
//
// The ratio denominator is guarded with max(|tranche themes|, 1) so an
// empty tranche reports a well-defined ratio of 1.0.
func CoverageFor(tranche []Puzzle, deck SampledDeck) CoverageReport {
	trancheThemes := themeSet(tranche)

	deckThemes := make(map[string]struct{})
	frequency := make(map[string]int)
	for _, p := range deck.Puzzles() {
		for _, theme := range ThemeLabels(p) {
			deckThemes[theme] = struct{}{}
			frequency[theme]++
		}
	}

	histogram := make([]ThemeCount, 0, len(frequency))
	for theme, count := range frequency {
		histogram = append(histogram, ThemeCount{Theme: theme, Count: count})
	}
	sort.Slice(histogram, func(a, b int) bool {
		if histogram[a].Count != histogram[b].Count {
			return histogram[a].Count > histogram[b].Count
		}
		return histogram[a].Theme < histogram[b].Theme
	})

	// An empty tranche has nothing left uncovered, so its ratio is 1.0
	// by definition rather than 0/0.
	ratio := 1.0
	if len(trancheThemes) > 0 {
		ratio = float64(len(deckThemes)) / float64(len(trancheThemes))
	}

	return CoverageReport{
		TrancheThemes:     sortedKeys(trancheThemes),
		DeckThemes:        sortedKeys(deckThemes),
		TrancheThemeCount: len(trancheThemes),
		DeckThemeCount:    len(deckThemes),
		CoverageRatio:     ratio,
		ThemeFrequency:    histogram,
	}
}
