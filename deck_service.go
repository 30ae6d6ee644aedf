package main

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quietpawn/deckforge/models"
)

// BuildRequest represents the incoming request for building decks.
type BuildRequest struct {
	// Bands restricts the build to the named rating bands. Empty means
	// every default band.
	Bands []string `json:"bands,omitempty"`

	// Sampler overrides the stored sampling defaults when present.
	Sampler *models.SamplerConfig `json:"sampler,omitempty"`
}

// DeckBuildResult is the outcome of building one rating band.
type DeckBuildResult struct {
	Deck     *models.DeckRecord     `json:"deck,omitempty"`
	Coverage *models.CoverageReport `json:"coverage,omitempty"`
	Skipped  []models.SkippedPuzzle `json:"skipped,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

// DeckBuilder turns corpus tranches into persisted decks.
type DeckBuilder struct {
	storage models.Storage
	sink    *CoverageSink
}

// NewDeckBuilder creates a DeckBuilder. The sink may be nil, in which
// case coverage rows are not exported.
func NewDeckBuilder(storage models.Storage, sink *CoverageSink) *DeckBuilder {
	return &DeckBuilder{storage: storage, sink: sink}
}

// resolveBands maps requested band labels onto the default partition.
// An empty request selects every band; unknown labels are an error.
func resolveBands(requested []string) ([]models.Band, error) {
	all := models.DefaultBands()
	if len(requested) == 0 {
		return all, nil
	}

	byLabel := make(map[string]models.Band, len(all))
	for _, band := range all {
		byLabel[band.Label] = band
	}

	bands := make([]models.Band, 0, len(requested))
	for _, label := range requested {
		band, ok := byLabel[label]
		if !ok {
			return nil, fmt.Errorf("unknown rating band %q", label)
		}
		bands = append(bands, band)
	}
	return bands, nil
}

// resolveSampler returns the request's sampler config or the defaults,
// validated either way so a bad config fails before any tranche work.
func resolveSampler(override *models.SamplerConfig) (models.SamplerConfig, error) {
	cfg := models.DefaultSamplerConfig()
	if override != nil {
		cfg = *override
	}
	if err := cfg.Validate(); err != nil {
		return models.SamplerConfig{}, err
	}
	return cfg, nil
}

// BuildAll builds one deck per requested band, each band in its own
// goroutine. Results come back in request order; a failed band carries
// its error in the slot instead of aborting the others.
func (b *DeckBuilder) BuildAll(req *BuildRequest) ([]DeckBuildResult, error) {
	bands, err := resolveBands(req.Bands)
	if err != nil {
		return nil, err
	}
	cfg, err := resolveSampler(req.Sampler)
	if err != nil {
		return nil, err
	}

	results := make([]DeckBuildResult, len(bands))
	var wg sync.WaitGroup
	for i, band := range bands {
		wg.Add(1)
		go func(slot int, band models.Band) {
			defer wg.Done()
			result, err := b.BuildBand(band, cfg)
			if err != nil {
				log.Printf("Failed to build deck for band %s: %v", band.Label, err)
				results[slot] = DeckBuildResult{Error: err.Error()}
				return
			}
			results[slot] = *result
		}(i, band)
	}
	wg.Wait()

	return results, nil
}

// BuildBand samples one rating tranche, normalizes the selection into
// cards, and persists the deck with its coverage report. Puzzles that
// fail normalization are skipped and reported, never fatal.
func (b *DeckBuilder) BuildBand(band models.Band, cfg models.SamplerConfig) (*DeckBuildResult, error) {
	tranche, err := b.storage.TranchePuzzles(band)
	if err != nil {
		return nil, fmt.Errorf("failed to load tranche %s: %w", band.Label, err)
	}
	log.Printf("Band %s: %d puzzles in tranche", band.Label, len(tranche))

	sampled, err := models.SampleByThemes(tranche, cfg)
	if err != nil {
		return nil, fmt.Errorf("sampling failed for band %s: %w", band.Label, err)
	}

	cards, surviving, skipped := assembleCards(sampled)
	if len(skipped) > 0 {
		log.Printf("Band %s: skipped %d puzzle(s) during normalization", band.Label, len(skipped))
	}

	coverage := models.CoverageFor(tranche, surviving)

	deck := &models.DeckRecord{
		ID:        generateID(),
		Band:      band,
		Size:      len(cards),
		Skipped:   len(skipped),
		Sampler:   cfg,
		CreatedAt: time.Now(),
	}

	if err := b.storage.SaveDeck(deck, cards, coverage); err != nil {
		return nil, fmt.Errorf("failed to save deck for band %s: %w", band.Label, err)
	}

	if err := b.sink.Record(deck, coverage); err != nil {
		// Analytics export is best-effort
		log.Printf("Failed to export coverage row for band %s: %v", band.Label, err)
	}

	log.Printf("Band %s: built deck %s with %d cards (coverage %.1f%%)",
		band.Label, deck.ID, deck.Size, coverage.CoverageRatio*100)

	return &DeckBuildResult{Deck: deck, Coverage: &coverage, Skipped: skipped}, nil
}

// assembleCards normalizes each selected puzzle into a card. Failures
// are collected per puzzle; the surviving deck excludes them so the
// coverage report describes what was actually kept.
func assembleCards(sampled models.SampledDeck) ([]models.CardRecord, models.SampledDeck, []models.SkippedPuzzle) {
	var cards []models.CardRecord
	var surviving models.SampledDeck
	var skipped []models.SkippedPuzzle

	for _, sel := range sampled.Selected {
		normalized, err := models.NormalizeCard(sel.Puzzle)
		if err != nil {
			skipped = append(skipped, models.SkippedPuzzle{
				PuzzleID: sel.Puzzle.ID,
				Reason:   err.Error(),
			})
			continue
		}

		// DisplayTheme stays empty here; it is a presentation hint owned
		// by the packaging side and only carried through.
		cards = append(cards, models.CardRecord{
			ID:                uuid.New().String(),
			PuzzleID:          sel.Puzzle.ID,
			SolveFEN:          normalized.SolveFEN,
			SolutionSAN:       normalized.SolutionSAN,
			ThemesAndOpenings: models.UnifiedTags(sel.Puzzle),
			Rating:            sel.Puzzle.Rating,
			Popularity:        sel.Puzzle.Popularity,
			Reason:            sel.Reason,
		})
		surviving.Selected = append(surviving.Selected, sel)
	}

	return cards, surviving, skipped
}
