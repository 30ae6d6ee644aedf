// Package models defines the core data types and selection algorithms for
// deckforge, a tool that curates the Lichess puzzle corpus into balanced
// training decks and analyzes opening repertoires for coverage gaps.
package models

import (
	"fmt"
	"time"
)

// Puzzle is a single record from the Lichess puzzle database.
// Puzzles are immutable once loaded; every pipeline stage reads them
// without modification.
type Puzzle struct {
	// ID is the Lichess puzzle identifier (e.g., "00sHx").
	ID string `json:"id"`

	// FEN is the position *before* the opponent's forcing move.
	// The position the solver actually faces is obtained by applying
	// the first ply of Moves (see Normalize).
	FEN string `json:"fen"`

	// Moves is the ply sequence in UCI notation. The first ply is the
	// opponent's move; the remainder is the solution. A well-formed
	// puzzle has at least two plies.
	Moves []string `json:"moves"`

	// Rating is the estimated puzzle difficulty (ELO scale).
	Rating int `json:"rating"`

	// Popularity is the community quality vote in [-100, 100].
	Popularity int `json:"popularity"`

	// Themes are tactical theme labels (e.g., "fork", "backRankMate").
	// The vocabulary is open; new labels appear with new database dumps.
	Themes []string `json:"themes"`

	// OpeningTags are opening-family labels. Often empty for puzzles
	// arising from middlegame or endgame positions.
	OpeningTags []string `json:"openingTags"`
}

// SelectionReason records which sampler pass picked a puzzle.
type SelectionReason string

const (
	// SelectionPrimary marks a high-popularity pick from the capped
	// per-theme pass.
	SelectionPrimary SelectionReason = "primary"

	// SelectionComplement marks a puzzle pulled in to cover a theme
	// that the primary pass left without representation.
	SelectionComplement SelectionReason = "complement"

	// SelectionFill marks a popularity-ranked puzzle appended to reach
	// the minimum deck size.
	SelectionFill SelectionReason = "fill"
)

// SelectedPuzzle is a puzzle chosen for a deck, tagged with the pass
// that selected it.
type SelectedPuzzle struct {
	Puzzle Puzzle          `json:"puzzle"`
	Reason SelectionReason `json:"reason"`
}

// SampledDeck is the ordered selection produced by SampleByThemes for
// one rating tranche. Order is insertion order across the three sampler
// passes; IDs are unique within a deck.
type SampledDeck struct {
	Selected []SelectedPuzzle `json:"selected"`
}

// Len returns the number of selected puzzles.
func (d SampledDeck) Len() int { return len(d.Selected) }

// Puzzles returns the selected puzzles without their selection reasons.
func (d SampledDeck) Puzzles() []Puzzle {
	out := make([]Puzzle, len(d.Selected))
	for i, s := range d.Selected {
		out[i] = s.Puzzle
	}
	return out
}

// NormalizedCard is the solvable form of a selected puzzle: the position
// after the opponent's forcing move plus the solution restated in
// standard algebraic notation. Created once at assembly time and
// immutable thereafter.
type NormalizedCard struct {
	// SolveFEN is the position after applying the first ply of the
	// original move sequence.
	SolveFEN string `json:"solveFen"`

	// SolutionSAN is the remaining plies in standard algebraic
	// notation, computed against the live position (disambiguation,
	// captures, check and mate suffixes included).
	SolutionSAN []string `json:"solutionSan"`

	// Puzzle carries the original metadata through unchanged.
	Puzzle Puzzle `json:"puzzle"`
}

// CardRecord is the external card shape handed to the packaging
// collaborator. DisplayTheme is an opaque presentation hint: this core
// passes it through and never interprets it.
type CardRecord struct {
	ID                string          `json:"id"`
	PuzzleID          string          `json:"puzzleId"`
	SolveFEN          string          `json:"solveFen"`
	SolutionSAN       []string        `json:"solutionSan"`
	ThemesAndOpenings []string        `json:"themesAndOpenings"`
	Rating            int             `json:"rating"`
	Popularity        int             `json:"popularity"`
	DisplayTheme      string          `json:"displayTheme,omitempty"`
	Reason            SelectionReason `json:"reason"`
}

// SkippedPuzzle is a per-record diagnostic for a puzzle excluded from a
// deck build. Skips never abort the tranche; they are returned alongside
// the best-effort output.
type SkippedPuzzle struct {
	PuzzleID string `json:"puzzleId"`
	Reason   string `json:"reason"`
}

// ThemeCount is one entry of a theme frequency histogram.
type ThemeCount struct {
	Theme string `json:"theme"`
	Count int    `json:"count"`
}

// CoverageReport quantifies how completely a sampled deck covers the
// thematic space of its source tranche.
type CoverageReport struct {
	// TrancheThemes is the sorted set of themes present anywhere in the
	// tranche; DeckThemes is the same over the deck.
	TrancheThemes []string `json:"trancheThemes"`
	DeckThemes    []string `json:"deckThemes"`

	TrancheThemeCount int `json:"trancheThemeCount"`
	DeckThemeCount    int `json:"deckThemeCount"`

	// CoverageRatio is |DeckThemes| / max(|TrancheThemes|, 1), so an
	// empty tranche reports 1.0 rather than dividing by zero.
	CoverageRatio float64 `json:"coverageRatio"`

	// ThemeFrequency counts puzzles per theme within the deck, most
	// frequent first (ties broken by theme name).
	ThemeFrequency []ThemeCount `json:"themeFrequency"`
}

// Band is a rating tranche boundary. MinRating is inclusive, MaxRating
// exclusive. The open-ended top band uses NoUpperBound.
type Band struct {
	Label     string `json:"label"`
	MinRating int    `json:"minRating"`
	MaxRating int    `json:"maxRating"`
}

// NoUpperBound marks a band with no rating ceiling.
const NoUpperBound = 1<<31 - 1

// DefaultBands returns the rating partition used for deck builds:
// everything below 1000, 100-point bands up to 1800, then 1800 and
// above. Bands partition the corpus; no puzzle falls in two bands.
func DefaultBands() []Band {
	bands := []Band{{Label: "1000minus", MinRating: 0, MaxRating: 1000}}
	for lo := 1000; lo < 1800; lo += 100 {
		bands = append(bands, Band{
			Label:     fmt.Sprintf("%d_%d", lo, lo+100),
			MinRating: lo,
			MaxRating: lo + 100,
		})
	}
	return append(bands, Band{Label: "1800plus", MinRating: 1800, MaxRating: NoUpperBound})
}

// DeckRecord is the stored summary of one built deck.
type DeckRecord struct {
	// ID is the unique deck identifier (UUID).
	ID string `json:"id"`

	// Band identifies the rating tranche this deck was built from.
	Band Band `json:"band"`

	// Size is the number of cards in the deck.
	Size int `json:"size"`

	// Skipped is the number of puzzles excluded during normalization.
	Skipped int `json:"skipped"`

	// Sampler is the configuration the deck was built with, recorded
	// so every run is reproducible from its stored parameters.
	Sampler SamplerConfig `json:"sampler"`

	// CreatedAt is when the deck was built.
	CreatedAt time.Time `json:"createdAt"`
}
