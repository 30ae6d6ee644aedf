package models

import (
	"fmt"
	"sort"
)

// SamplerConfig holds the tunable parameters of the thematic sampler.
// All parameters are explicit so a deck build is reproducible from its
// recorded configuration; there are no hidden globals.
type SamplerConfig struct {
	// TargetPerTheme caps how many puzzles any single theme may
	// contribute during the primary pass.
	TargetPerTheme int `json:"targetPerTheme"`

	// PopularityThreshold is the minimum popularity for a puzzle to be
	// eligible in the primary pass. The rare-theme complement ignores
	// it so every theme present in a tranche can be covered.
	PopularityThreshold int `json:"popularityThreshold"`

	// MinDeckSize is the minimum total deck volume. When the first two
	// passes fall short, the highest-popularity remaining puzzles are
	// appended until the floor is met or the tranche is exhausted.
	MinDeckSize int `json:"minDeckSize"`
}

// DefaultSamplerConfig returns the parameters used for the published
// training decks: at most 20 puzzles per theme, popularity 90 cutoff,
// 700-card floor.
func DefaultSamplerConfig() SamplerConfig {
	return SamplerConfig{
		TargetPerTheme:      20,
		PopularityThreshold: 90,
		MinDeckSize:         700,
	}
}

// Validate rejects configurations that cannot produce a meaningful
// deck. It is checked eagerly, before any tranche is processed.
func (c SamplerConfig) Validate() error {
	if c.TargetPerTheme <= 0 {
		return fmt.Errorf("sampler config: targetPerTheme must be positive, got %d", c.TargetPerTheme)
	}
	if c.MinDeckSize < 0 {
		return fmt.Errorf("sampler config: minDeckSize must not be negative, got %d", c.MinDeckSize)
	}
	if c.PopularityThreshold < -100 || c.PopularityThreshold > 100 {
		return fmt.Errorf("sampler config: popularityThreshold must be in [-100, 100], got %d", c.PopularityThreshold)
	}
	return nil
}

// SampleByThemes selects a deck from one rating tranche, maximizing the
// number of distinct themes represented while favoring high-popularity
// puzzles and keeping any single theme from dominating.
//
// The selection runs three passes over the tranche:
//
//  1. Primary: puzzles are grouped by theme (a puzzle with N labels
//     participates in N groups). Each group is walked in popularity
//     order and contributes up to TargetPerTheme puzzles whose
//     popularity meets PopularityThreshold. A puzzle already selected
//     via one theme is not re-added via another.
//  2. Rare-theme complement: every theme present in the tranche but
//     absent from the running selection pulls in its single most
//     popular puzzle, threshold ignored. After this pass every theme
//     with at least one puzzle in the tranche appears in the deck.
//  3. Volume floor: if the selection is still smaller than MinDeckSize,
//     the highest-popularity unselected puzzles are appended until the
//     floor is met or the tranche is exhausted.
//
// Output order is insertion order across the passes. For fixed input
// and configuration the result is fully deterministic: groups are
// visited in sorted theme order, and popularity ties break by puzzle ID
// ascending. An empty tranche yields an empty deck; a tranche smaller
// than MinDeckSize yields the whole tranche.
func SampleByThemes(tranche []Puzzle, cfg SamplerConfig) (SampledDeck, error) {
	if err := cfg.Validate(); err != nil {
		return SampledDeck{}, err
	}

	index := themeIndex(tranche)
	themes := make([]string, 0, len(index))
	for theme, members := range index {
		themes = append(themes, theme)
		sort.Slice(members, func(a, b int) bool {
			return morePopular(tranche[members[a]], tranche[members[b]])
		})
	}
	sort.Strings(themes)

	var deck SampledDeck
	selected := make(map[string]bool, len(tranche))
	add := func(p Puzzle, reason SelectionReason) {
		selected[p.ID] = true
		deck.Selected = append(deck.Selected, SelectedPuzzle{Puzzle: p, Reason: reason})
	}

	// Pass 1: capped per-theme selection above the popularity threshold.
	// A theme with fewer eligible puzzles than the cap contributes all
	// of them; there is no padding here.
	for _, theme := range themes {
		taken := 0
		for _, i := range index[theme] {
			if taken >= cfg.TargetPerTheme {
				break
			}
			p := tranche[i]
			if p.Popularity < cfg.PopularityThreshold {
				break // members are popularity-sorted
			}
			if selected[p.ID] {
				// Already picked via another theme; it still covers
				// this theme but does not consume the cap.
				continue
			}
			add(p, SelectionPrimary)
			taken++
		}
	}

	// Pass 2: cover every tranche theme the selection missed. Covered
	// themes are tracked incrementally because one complement puzzle
	// can cover several rare themes at once.
	covered := themeSet(deck.Puzzles())
	for _, theme := range themes {
		if _, ok := covered[theme]; ok {
			continue
		}
		// An uncovered theme cannot have a selected member, so the
		// group's most popular puzzle is always a fresh pick.
		p := tranche[index[theme][0]]
		add(p, SelectionComplement)
		for _, t := range ThemeLabels(p) {
			covered[t] = struct{}{}
		}
	}

	// Pass 3: popularity-ranked fill up to the volume floor.
	if deck.Len() < cfg.MinDeckSize {
		rest := make([]Puzzle, 0, len(tranche)-deck.Len())
		for _, p := range tranche {
			if !selected[p.ID] {
				rest = append(rest, p)
			}
		}
		sort.Slice(rest, func(a, b int) bool { return morePopular(rest[a], rest[b]) })
		for _, p := range rest {
			if deck.Len() >= cfg.MinDeckSize {
				break
			}
			add(p, SelectionFill)
		}
	}

	return deck, nil
}

// morePopular orders puzzles by popularity descending, with puzzle ID
// ascending as the deterministic tie-break.
func morePopular(a, b Puzzle) bool {
	if a.Popularity != b.Popularity {
		return a.Popularity > b.Popularity
	}
	return a.ID < b.ID
}
