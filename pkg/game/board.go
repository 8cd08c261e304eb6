// Package game keeps the state of an Othello game being played: the board
// with the colour to move, the history used for undo and redo, and the
// players (humans or bots) behind each colour.
package game

import (
	"fmt"

	"github.com/lk16/swap/internal/othello"
	"github.com/lk16/swap/internal/positionid"
)

// Color is a side of the board.
type Color int

const (
	Black Color = iota
	White
)

// Opponent returns the other colour.
func (c Color) Opponent() Color { return 1 - c }

func (c Color) String() string {
	switch c {
	case Black:
		return "black"
	case White:
		return "white"
	}
	return fmt.Sprintf("Color(%d)", int(c))
}

// MarshalText encodes the colour by name.
func (c Color) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// Board is a position together with the colour to move. Boards are values:
// every method returns a new one.
type Board struct {
	Position othello.Position
	Turn     Color
}

// NewBoard returns the standard starting board, black to move.
func NewBoard() Board {
	return Board{Position: othello.Start(), Turn: Black}
}

// Black returns the squares holding black discs.
func (b Board) Black() uint64 {
	if b.Turn == Black {
		return b.Position.Player
	}
	return b.Position.Opponent
}

// White returns the squares holding white discs.
func (b Board) White() uint64 {
	if b.Turn == White {
		return b.Position.Player
	}
	return b.Position.Opponent
}

// Moves returns the legal moves of the side to move.
func (b Board) Moves() uint64 { return b.Position.Moves() }

// Play applies a move of the side to move.
func (b Board) Play(sq othello.Square) (Board, error) {
	p, err := b.Position.TryPlay(sq)
	if err != nil {
		return b, err
	}
	return Board{Position: p, Turn: b.Turn.Opponent()}, nil
}

// Pass hands the turn to the other colour.
func (b Board) Pass() Board {
	return Board{Position: b.Position.Pass(), Turn: b.Turn.Opponent()}
}

// HasToPass reports whether the side to move has no move while the game
// goes on.
func (b Board) HasToPass() bool {
	return !b.Position.HasMoves() && b.Position.OpponentHasMoves()
}

// IsGameOver reports whether neither side can move.
func (b Board) IsGameOver() bool { return b.Position.IsTerminal() }

// Score returns black discs minus white discs with the empties given to
// the winner when the game is over.
func (b Board) Score() int {
	s := b.Position.DiscDifferential()
	if b.IsGameOver() {
		s = b.Position.FinalScore()
	}
	if b.Turn == White {
		s = -s
	}
	return s
}

func (b Board) String() string {
	return positionid.FormatBoard(b.Position, b.Turn == Black)
}
