package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/quietpawn/deckforge/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCardsCSV(t *testing.T) {
	cards := []models.CardRecord{
		{
			ID:                "card-1",
			PuzzleID:          "00sHx",
			SolveFEN:          "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
			SolutionSAN:       []string{"e5", "Nf3"},
			ThemesAndOpenings: []string{"opening", "kings_pawn"},
			Rating:            1320,
			Popularity:        95,
			DisplayTheme:      "opening",
			Reason:            models.SelectionPrimary,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCardsCSV(&buf, cards))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, cardCSVHeader, lines[0])
	assert.Equal(t,
		"card-1,00sHx,rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1,e5 Nf3,1320,95,opening kings_pawn,opening,primary",
		lines[1])
}

func TestWriteCardsCSVSanitizesCommas(t *testing.T) {
	cards := []models.CardRecord{
		{
			ID:           "card-2",
			PuzzleID:     "p2",
			SolveFEN:     "8/8/8/8/8/8/8/8 w - - 0 1",
			DisplayTheme: "mate, back rank",
			Reason:       models.SelectionFill,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCardsCSV(&buf, cards))

	out := buf.String()
	assert.Contains(t, out, "mate; back rank")
	// Each data row keeps exactly the header's column count
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		assert.Equal(t, strings.Count(cardCSVHeader, ",")+1, strings.Count(line, ",")+1)
	}
}

func TestWriteCardsCSVEmptyDeck(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCardsCSV(&buf, nil))
	assert.Equal(t, cardCSVHeader+"\n", buf.String())
}
