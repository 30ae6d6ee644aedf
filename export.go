package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/quietpawn/deckforge/models"
)

// cardCSVHeader is the fixed column layout of a deck export.
const cardCSVHeader = "CardId,PuzzleId,SolveFEN,SolutionSAN,Rating,Popularity,Tags,DisplayTheme,Reason"

// WriteCardsCSV writes a deck's cards as CSV. Commas inside a value are
// replaced with semicolons instead of quoting, so the output stays
// trivially splittable for downstream spaced-repetition importers.
func WriteCardsCSV(w io.Writer, cards []models.CardRecord) error {
	if _, err := fmt.Fprintln(w, cardCSVHeader); err != nil {
		return err
	}

	for _, card := range cards {
		vals := []string{
			card.ID,
			card.PuzzleID,
			card.SolveFEN,
			strings.Join(card.SolutionSAN, " "),
			strconv.Itoa(card.Rating),
			strconv.Itoa(card.Popularity),
			strings.Join(card.ThemesAndOpenings, " "),
			card.DisplayTheme,
			string(card.Reason),
		}
		for i, v := range vals {
			vals[i] = strings.ReplaceAll(v, ",", ";")
		}
		if _, err := fmt.Fprintln(w, strings.Join(vals, ",")); err != nil {
			return err
		}
	}

	return nil
}
