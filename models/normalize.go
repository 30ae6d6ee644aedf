package models

import (
	"fmt"

	"github.com/notnil/chess"
)

// MalformedInputError reports a puzzle record that cannot be processed:
// a move list shorter than two plies, an unparseable FEN, or a move
// string that is not valid UCI. The record is excluded from further
// processing and surfaced to the caller as a diagnostic.
type MalformedInputError struct {
	PuzzleID string
	Detail   string
}

func (e *MalformedInputError) Error() string {
	if e.PuzzleID == "" {
		return fmt.Sprintf("malformed input: %s", e.Detail)
	}
	return fmt.Sprintf("malformed input for puzzle %s: %s", e.PuzzleID, e.Detail)
}

// InvalidMoveError reports a syntactically valid move that is illegal
// in the position reached so far. The offending puzzle is excluded from
// the deck; the rest of the batch proceeds.
type InvalidMoveError struct {
	PuzzleID string
	Ply      int
	Move     string
	FEN      string
}

func (e *InvalidMoveError) Error() string {
	return fmt.Sprintf("invalid move %q at ply %d in position %q", e.Move, e.Ply, e.FEN)
}

// Normalize converts a puzzle's pre-move representation into the
// position actually presented to the solver plus a readable solution.
//
// The first ply of moves (the opponent's forcing move) is applied to
// the position described by fen, producing solveFEN. The remaining
// plies are restated in standard algebraic notation, each encoded
// against the position reached so far. Disambiguation, capture marks,
// and check/mate suffixes depend on the full board state, not just the
// coordinates.
//
// Normalize is pure: it has no side effects and the same inputs always
// produce the same outputs.
func Normalize(fen string, moves []string) (solveFEN string, solutionSAN []string, err error) {
	if len(moves) < 2 {
		return "", nil, &MalformedInputError{
			Detail: fmt.Sprintf("need at least 2 plies (one to apply, one to solve), got %d", len(moves)),
		}
	}

	fenOpt, err := chess.FEN(fen)
	if err != nil {
		return "", nil, &MalformedInputError{Detail: fmt.Sprintf("unparseable FEN %q: %v", fen, err)}
	}
	game := chess.NewGame(fenOpt)

	uci := chess.UCINotation{}
	san := chess.AlgebraicNotation{}

	for ply, raw := range moves {
		pos := game.Position()
		move, decodeErr := uci.Decode(pos, raw)
		if decodeErr != nil {
			return "", nil, &MalformedInputError{
				Detail: fmt.Sprintf("unparseable move %q at ply %d: %v", raw, ply, decodeErr),
			}
		}
		// The decoded move carries no Check tag; the generated legal
		// moves do, and SAN needs it for the + and # suffixes. An
		// illegal move stays as decoded and is rejected below.
		for _, vm := range pos.ValidMoves() {
			if vm.S1() == move.S1() && vm.S2() == move.S2() && vm.Promo() == move.Promo() {
				move = vm
				break
			}
		}
		// SAN must be encoded before the move is played; notation is
		// relative to the position the move is made from.
		var encoded string
		if ply > 0 {
			encoded = san.Encode(pos, move)
		}
		if moveErr := game.Move(move); moveErr != nil {
			return "", nil, &InvalidMoveError{Ply: ply, Move: raw, FEN: pos.String()}
		}
		if ply == 0 {
			solveFEN = game.Position().String()
		} else {
			solutionSAN = append(solutionSAN, encoded)
		}
	}

	return solveFEN, solutionSAN, nil
}

// NormalizeCard normalizes a selected puzzle into its card form,
// carrying the original metadata through unchanged. Errors are tagged
// with the puzzle ID for diagnostics.
func NormalizeCard(p Puzzle) (NormalizedCard, error) {
	solveFEN, solutionSAN, err := Normalize(p.FEN, p.Moves)
	if err != nil {
		switch e := err.(type) {
		case *MalformedInputError:
			e.PuzzleID = p.ID
		case *InvalidMoveError:
			e.PuzzleID = p.ID
		}
		return NormalizedCard{}, err
	}
	return NormalizedCard{
		SolveFEN:    solveFEN,
		SolutionSAN: solutionSAN,
		Puzzle:      p,
	}, nil
}
