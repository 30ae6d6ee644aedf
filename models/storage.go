package models

// Storage defines the persistence layer for deckforge.
//
// It holds the imported puzzle corpus, the decks built from it, their
// normalized cards, and the per-tranche coverage reports. The primary
// implementation is DuckDBStorage, which keeps everything in a local
// DuckDB file.
//
// The interface is organized into three categories:
//   - Corpus: ImportCorpus, CorpusCount, TranchePuzzles
//   - Decks:  SaveDeck, ListDecks, GetDeck, DeckCards
//   - Reports: DeckCoverage
//
// Thread Safety: implementations should be safe for concurrent use;
// deck builds write from one goroutine per tranche.
type Storage interface {
	// ImportCorpus loads the decompressed Lichess puzzle CSV at path
	// into the corpus table, replacing any previous import. Returns
	// the number of rows imported.
	ImportCorpus(path string) (int64, error)

	// CorpusCount returns the number of puzzles currently imported.
	CorpusCount() (int64, error)

	// TranchePuzzles returns every corpus puzzle whose rating falls in
	// the band (MinRating inclusive, MaxRating exclusive), ordered by
	// puzzle ID so tranche contents are deterministic.
	TranchePuzzles(band Band) ([]Puzzle, error)

	// SaveDeck persists a built deck together with its cards and its
	// coverage report in one transaction. A previous deck for the same
	// band is replaced.
	SaveDeck(deck *DeckRecord, cards []CardRecord, coverage CoverageReport) error

	// ListDecks returns all deck summaries, newest first.
	ListDecks() ([]*DeckRecord, error)

	// GetDeck retrieves a deck summary by its ID.
	//
	// Returns the deck and true if found, nil and false otherwise.
	GetDeck(id string) (*DeckRecord, bool)

	// DeckCards returns a deck's cards in deck order.
	DeckCards(deckID string) ([]CardRecord, error)

	// DeckCoverage retrieves the stored coverage report for a deck.
	//
	// Returns the report and true if found, nil and false otherwise.
	DeckCoverage(deckID string) (*CoverageReport, bool)

	// Close releases any resources held by the storage.
	//
	// After Close is called, the storage should not be used.
	Close() error
}
