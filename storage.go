package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/google/uuid"
	"github.com/quietpawn/deckforge/models"
)

type DuckDBStorage struct {
	db *sql.DB
}

func NewDuckDBStorage(dbPath string) (*DuckDBStorage, error) {
	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}

	storage := &DuckDBStorage{db: db}
	if err := storage.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	// Run migrations
	if err := RunMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return storage, nil
}

func (s *DuckDBStorage) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS puzzles (
			id VARCHAR PRIMARY KEY,
			fen VARCHAR NOT NULL,
			moves VARCHAR NOT NULL,
			rating INTEGER NOT NULL,
			popularity INTEGER NOT NULL,
			themes VARCHAR,
			opening_tags VARCHAR
		);

		CREATE TABLE IF NOT EXISTS decks (
			id VARCHAR PRIMARY KEY,
			band_label VARCHAR NOT NULL,
			min_rating INTEGER NOT NULL,
			max_rating INTEGER NOT NULL,
			size INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			sampler TEXT,
			created_at TIMESTAMP NOT NULL
		);

		CREATE TABLE IF NOT EXISTS deck_cards (
			id VARCHAR PRIMARY KEY,
			deck_id VARCHAR NOT NULL,
			position INTEGER NOT NULL,
			puzzle_id VARCHAR NOT NULL,
			solve_fen VARCHAR NOT NULL,
			solution_san VARCHAR NOT NULL,
			tags VARCHAR,
			rating INTEGER NOT NULL,
			popularity INTEGER NOT NULL,
			reason VARCHAR NOT NULL,
			FOREIGN KEY (deck_id) REFERENCES decks(id)
		);

		CREATE TABLE IF NOT EXISTS coverage_reports (
			deck_id VARCHAR PRIMARY KEY,
			report TEXT NOT NULL
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// ImportCorpus replaces the puzzles table with the contents of the
// decompressed Lichess CSV at path, reading it directly through DuckDB's
// CSV scanner instead of row-by-row inserts.
func (s *DuckDBStorage) ImportCorpus(path string) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM puzzles"); err != nil {
		return 0, fmt.Errorf("failed to clear corpus: %w", err)
	}

	// The path goes into the SQL text as a string literal; read_csv does
	// not accept bound parameters for its source.
	escaped := strings.ReplaceAll(path, "'", "''")
	importSQL := fmt.Sprintf(`
		INSERT INTO puzzles (id, fen, moves, rating, popularity, themes, opening_tags)
		SELECT PuzzleId, FEN, Moves, Rating, Popularity, COALESCE(Themes, ''), COALESCE(OpeningTags, '')
		FROM read_csv('%s', header = true)
	`, escaped)

	result, err := tx.Exec(importSQL)
	if err != nil {
		return 0, fmt.Errorf("failed to import corpus from %s: %w", path, err)
	}

	imported, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return imported, nil
}

func (s *DuckDBStorage) CorpusCount() (int64, error) {
	var count int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM puzzles").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count corpus: %w", err)
	}
	return count, nil
}

func (s *DuckDBStorage) TranchePuzzles(band models.Band) ([]models.Puzzle, error) {
	rows, err := s.db.Query(`
		SELECT id, fen, moves, rating, popularity, COALESCE(themes, ''), COALESCE(opening_tags, '')
		FROM puzzles
		WHERE rating >= ? AND rating < ?
		ORDER BY id ASC
	`, band.MinRating, band.MaxRating)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var puzzles []models.Puzzle
	for rows.Next() {
		var p models.Puzzle
		var moves, themes, openings string
		if err := rows.Scan(&p.ID, &p.FEN, &moves, &p.Rating, &p.Popularity, &themes, &openings); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		// The Lichess dump stores these fields space-separated.
		p.Moves = strings.Fields(moves)
		p.Themes = strings.Fields(themes)
		p.OpeningTags = strings.Fields(openings)
		puzzles = append(puzzles, p)
	}

	return puzzles, rows.Err()
}

func (s *DuckDBStorage) SaveDeck(deck *models.DeckRecord, cards []models.CardRecord, coverage models.CoverageReport) error {
	samplerJSON, err := json.Marshal(deck.Sampler)
	if err != nil {
		return fmt.Errorf("failed to marshal sampler config: %w", err)
	}

	coverageJSON, err := json.Marshal(coverage)
	if err != nil {
		return fmt.Errorf("failed to marshal coverage report: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Rebuilding a band replaces its previous deck
	_, err = tx.Exec(`
		DELETE FROM coverage_reports
		WHERE deck_id IN (SELECT id FROM decks WHERE band_label = ?)
	`, deck.Band.Label)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`
		DELETE FROM deck_cards
		WHERE deck_id IN (SELECT id FROM decks WHERE band_label = ?)
	`, deck.Band.Label)
	if err != nil {
		return err
	}
	if _, err = tx.Exec("DELETE FROM decks WHERE band_label = ?", deck.Band.Label); err != nil {
		return err
	}

	_, err = tx.Exec(
		`INSERT INTO decks (id, band_label, min_rating, max_rating, size, skipped, sampler, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		deck.ID, deck.Band.Label, deck.Band.MinRating, deck.Band.MaxRating,
		deck.Size, deck.Skipped, string(samplerJSON), deck.CreatedAt,
	)
	if err != nil {
		return err
	}

	for i, card := range cards {
		_, err = tx.Exec(
			`INSERT INTO deck_cards (id, deck_id, position, puzzle_id, solve_fen, solution_san, tags, rating, popularity, display_theme, reason)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			card.ID, deck.ID, i, card.PuzzleID, card.SolveFEN,
			strings.Join(card.SolutionSAN, " "), strings.Join(card.ThemesAndOpenings, " "),
			card.Rating, card.Popularity, nullString(card.DisplayTheme), string(card.Reason),
		)
		if err != nil {
			return fmt.Errorf("failed to insert card %s: %w", card.ID, err)
		}
	}

	_, err = tx.Exec(
		"INSERT INTO coverage_reports (deck_id, report) VALUES (?, ?)",
		deck.ID, string(coverageJSON),
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (s *DuckDBStorage) ListDecks() ([]*models.DeckRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, band_label, min_rating, max_rating, size, skipped, COALESCE(sampler, '{}'), created_at
		FROM decks
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var decks []*models.DeckRecord
	for rows.Next() {
		deck, err := scanDeck(rows.Scan)
		if err != nil {
			return nil, err
		}
		decks = append(decks, deck)
	}

	return decks, rows.Err()
}

func (s *DuckDBStorage) GetDeck(id string) (*models.DeckRecord, bool) {
	row := s.db.QueryRow(
		"SELECT id, band_label, min_rating, max_rating, size, skipped, COALESCE(sampler, '{}'), created_at FROM decks WHERE id = ?",
		id,
	)
	deck, err := scanDeck(row.Scan)
	if err != nil {
		return nil, false
	}
	return deck, true
}

func scanDeck(scan func(...interface{}) error) (*models.DeckRecord, error) {
	var d models.DeckRecord
	var samplerJSON string
	if err := scan(&d.ID, &d.Band.Label, &d.Band.MinRating, &d.Band.MaxRating,
		&d.Size, &d.Skipped, &samplerJSON, &d.CreatedAt); err != nil {
		return nil, err
	}

	d.Sampler = models.DefaultSamplerConfig()
	if samplerJSON != "" && samplerJSON != "{}" {
		if err := json.Unmarshal([]byte(samplerJSON), &d.Sampler); err != nil {
			fmt.Printf("Warning: failed to unmarshal sampler config for deck %s: %v\n", d.ID, err)
		}
	}

	return &d, nil
}

func (s *DuckDBStorage) DeckCards(deckID string) ([]models.CardRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, puzzle_id, solve_fen, solution_san, COALESCE(tags, ''), rating, popularity, COALESCE(display_theme, ''), reason
		FROM deck_cards
		WHERE deck_id = ?
		ORDER BY position ASC
	`, deckID)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var cards []models.CardRecord
	for rows.Next() {
		var c models.CardRecord
		var san, tags, reason string
		if err := rows.Scan(&c.ID, &c.PuzzleID, &c.SolveFEN, &san, &tags, &c.Rating, &c.Popularity, &c.DisplayTheme, &reason); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		c.SolutionSAN = strings.Fields(san)
		c.ThemesAndOpenings = strings.Fields(tags)
		c.Reason = models.SelectionReason(reason)
		cards = append(cards, c)
	}

	return cards, rows.Err()
}

func (s *DuckDBStorage) DeckCoverage(deckID string) (*models.CoverageReport, bool) {
	var reportJSON string
	err := s.db.QueryRow(
		"SELECT report FROM coverage_reports WHERE deck_id = ?",
		deckID,
	).Scan(&reportJSON)
	if err != nil {
		return nil, false
	}

	var report models.CoverageReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		fmt.Printf("Warning: failed to unmarshal coverage report for deck %s: %v\n", deckID, err)
		return nil, false
	}

	return &report, true
}

func (s *DuckDBStorage) Close() error {
	return s.db.Close()
}

// Helper functions
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func generateID() string {
	return uuid.New().String()
}

var _ models.Storage = (*DuckDBStorage)(nil)
