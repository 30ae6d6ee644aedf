package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/quietpawn/deckforge/models"
)

// Server handles HTTP requests and coordinates between storage, the
// deck builder, and the analytics sink.
type Server struct {
	storage models.Storage
	builder *DeckBuilder
	sink    *CoverageSink
}

func NewServer(storage models.Storage, builder *DeckBuilder, sink *CoverageSink) *Server {
	return &Server{
		storage: storage,
		builder: builder,
		sink:    sink,
	}
}

func (s *Server) handleImportCorpus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Path == "" {
		http.Error(w, "path required", http.StatusBadRequest)
		return
	}

	imported, err := s.storage.ImportCorpus(req.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	log.Printf("Imported %d puzzles from %s", imported, req.Path)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"imported": imported,
	})
}

func (s *Server) handleCorpusStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.storage.CorpusCount()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"puzzles": count,
		"bands":   models.DefaultBands(),
	})
}

func (s *Server) handleBuildDecks(w http.ResponseWriter, r *http.Request) {
	var req BuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	results, err := s.builder.BuildAll(&req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"results": results,
	})
}

func (s *Server) handleListDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := s.storage.ListDecks()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(decks)
}

func (s *Server) handleGetDeck(w http.ResponseWriter, r *http.Request) {
	deckID := chi.URLParam(r, "deckId")

	deck, exists := s.storage.GetDeck(deckID)
	if !exists {
		http.Error(w, "deck not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(deck)
}

func (s *Server) handleDeckCards(w http.ResponseWriter, r *http.Request) {
	deckID := chi.URLParam(r, "deckId")

	if _, exists := s.storage.GetDeck(deckID); !exists {
		http.Error(w, "deck not found", http.StatusNotFound)
		return
	}

	cards, err := s.storage.DeckCards(deckID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cards)
}

func (s *Server) handleDeckCardsCSV(w http.ResponseWriter, r *http.Request) {
	deckID := chi.URLParam(r, "deckId")

	deck, exists := s.storage.GetDeck(deckID)
	if !exists {
		http.Error(w, "deck not found", http.StatusNotFound)
		return
	}

	cards, err := s.storage.DeckCards(deckID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="deck_%s.csv"`, deck.Band.Label))
	if err := WriteCardsCSV(w, cards); err != nil {
		log.Printf("Failed to stream CSV for deck %s: %v", deckID, err)
	}
}

func (s *Server) handleDeckCoverage(w http.ResponseWriter, r *http.Request) {
	deckID := chi.URLParam(r, "deckId")

	coverage, exists := s.storage.DeckCoverage(deckID)
	if !exists {
		http.Error(w, "coverage report not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(coverage)
}

func (s *Server) handleDeckCoverageText(w http.ResponseWriter, r *http.Request) {
	deckID := chi.URLParam(r, "deckId")

	deck, exists := s.storage.GetDeck(deckID)
	if !exists {
		http.Error(w, "deck not found", http.StatusNotFound)
		return
	}
	coverage, exists := s.storage.DeckCoverage(deckID)
	if !exists {
		http.Error(w, "coverage report not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, RenderCoverageReport(deck, coverage))
}

// RepertoireRequest represents the incoming repertoire analysis request.
type RepertoireRequest struct {
	Families []models.OpeningLine   `json:"families"`
	Config   *models.AnalyzerConfig `json:"config,omitempty"`
}

func (s *Server) analyzeRepertoire(w http.ResponseWriter, r *http.Request) (*models.RepertoireReport, bool) {
	var req RepertoireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	cfg := models.DefaultAnalyzerConfig()
	if req.Config != nil {
		cfg = *req.Config
	}

	report, err := models.AnalyzeRepertoire(req.Families, cfg)
	if err != nil {
		var verr *models.RepertoireValidationError
		if errors.As(err, &verr) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":      "repertoire validation failed",
				"violations": verr.Violations,
			})
			return nil, false
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	return report, true
}

func (s *Server) handleRepertoireReport(w http.ResponseWriter, r *http.Request) {
	report, ok := s.analyzeRepertoire(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

func (s *Server) handleRepertoireReportText(w http.ResponseWriter, r *http.Request) {
	report, ok := s.analyzeRepertoire(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, RenderRepertoireReport(report))
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"timestamp": time.Now().Unix(),
	}

	count, err := s.storage.CorpusCount()
	response["storage"] = err == nil
	if err == nil {
		response["puzzles"] = count
	}

	if s.sink == nil {
		response["analytics"] = "disabled"
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.sink.Ping(ctx); err != nil {
			response["analytics"] = "unreachable"
			log.Printf("ClickHouse ping failed: %v", err)
		} else {
			response["analytics"] = "connected"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func maskPassword(password string) string {
	if password == "" {
		return "<empty>"
	}
	if len(password) <= 2 {
		return password
	}
	return string(password[0]) + strings.Repeat("*", len(password)-2) + string(password[len(password)-1])
}

// connectClickHouse opens the optional analytics connection. Returns
// nil when CLICKHOUSE_HOST is unset; a failed ping only warns, since
// deck building works without the export.
func connectClickHouse() driver.Conn {
	chHost := os.Getenv("CLICKHOUSE_HOST")
	if chHost == "" {
		log.Println("CLICKHOUSE_HOST not set, analytics export disabled")
		return nil
	}

	chUser := os.Getenv("CLICKHOUSE_USER")
	chPassword := os.Getenv("CLICKHOUSE_PASSWORD")
	chDatabase := os.Getenv("CLICKHOUSE_DATABASE")
	if chUser == "" {
		chUser = "default"
	}
	if chDatabase == "" {
		chDatabase = "default"
	}

	// Secure connection on port 9440 or when CLICKHOUSE_SECURE=true
	useSecure := strings.Contains(chHost, ":9440") || os.Getenv("CLICKHOUSE_SECURE") == "true"

	log.Println("=== ClickHouse Connection Details ===")
	log.Printf("Host: %s", chHost)
	log.Printf("Database: %s", chDatabase)
	log.Printf("User: %s", chUser)
	log.Printf("Password: %s", maskPassword(chPassword))
	log.Printf("Secure: %v", useSecure)
	log.Println("=====================================")

	options := &clickhouse.Options{
		Addr: []string{chHost},
		Auth: clickhouse.Auth{
			Database: chDatabase,
			Username: chUser,
			Password: chPassword,
		},
		ClientInfo: clickhouse.ClientInfo{
			Products: []struct {
				Name    string
				Version string
			}{
				{Name: "deckforge", Version: "1.0"},
			},
		},
		Debug: false,
		Settings: clickhouse.Settings{
			"send_logs_level": "none",
		},
	}
	if useSecure {
		options.TLS = &tls.Config{
			InsecureSkipVerify: true,
		}
		log.Printf("Using secure connection to ClickHouse (TLS enabled, accepting invalid certificates)")
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		log.Printf("Warning: failed to connect to ClickHouse: %v", err)
		return nil
	}

	if err := conn.Ping(context.Background()); err != nil {
		log.Printf("Warning: ClickHouse ping failed: %v", err)
	} else {
		log.Println("Successfully connected to ClickHouse")
	}

	return conn
}

func main() {
	// Initialize DuckDB storage
	dbPath := os.Getenv("DUCKDB_PATH")
	if dbPath == "" {
		dbPath = "./deckforge.db"
	}
	storage, err := NewDuckDBStorage(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer storage.Close()
	log.Printf("DuckDB storage initialized at: %s", dbPath)

	// Seed the corpus from PUZZLE_CSV on first run
	if csvPath := os.Getenv("PUZZLE_CSV"); csvPath != "" {
		count, err := storage.CorpusCount()
		if err != nil {
			log.Fatalf("Failed to check corpus: %v", err)
		}
		if count == 0 {
			imported, err := storage.ImportCorpus(csvPath)
			if err != nil {
				log.Fatalf("Failed to import corpus from %s: %v", csvPath, err)
			}
			log.Printf("Imported %d puzzles from %s", imported, csvPath)
		} else {
			log.Printf("Corpus already holds %d puzzles, skipping PUZZLE_CSV import", count)
		}
	}

	// Optional analytics export
	sink := NewCoverageSink(connectClickHouse())
	if err := sink.EnsureSchema(context.Background()); err != nil {
		log.Printf("Warning: failed to ensure analytics schema: %v", err)
	}

	builder := NewDeckBuilder(storage, sink)
	server := NewServer(storage, builder, sink)

	// Setup chi router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Corpus
		r.Post("/corpus/import", server.handleImportCorpus)
		r.Get("/corpus", server.handleCorpusStatus)

		// Decks
		r.Post("/decks/build", server.handleBuildDecks)
		r.Get("/decks", server.handleListDecks)
		r.Route("/decks/{deckId}", func(r chi.Router) {
			r.Get("/", server.handleGetDeck)
			r.Get("/cards", server.handleDeckCards)
			r.Get("/cards.csv", server.handleDeckCardsCSV)
			r.Get("/coverage", server.handleDeckCoverage)
			r.Get("/coverage.txt", server.handleDeckCoverageText)
		})

		// Repertoire analysis
		r.Post("/repertoire/report", server.handleRepertoireReport)
		r.Post("/repertoire/report.txt", server.handleRepertoireReportText)

		r.Get("/server/ping", server.handlePing)
	})

	// Static files
	r.Handle("/*", http.FileServer(http.Dir("./static")))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Starting server on http://localhost:%s", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
