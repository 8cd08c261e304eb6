package othello

import (
	"errors"
	"fmt"
	"strings"
)

// Square is a board index in 0..63 (a1 = 0, h1 = 7, a8 = 56, h8 = 63),
// or one of the pseudo moves Pass and NoMove.
type Square int8

const (
	// Pass is played when the side to move has no legal move
	Pass Square = 64
	// NoMove marks the absence of a move, e.g. when the game is over
	NoMove Square = 65
)

// Corner squares
const (
	A1 Square = 0
	H1 Square = 7
	A8 Square = 56
	H8 Square = 63
)

// ErrInvalidSquare is returned when a square name cannot be parsed
var ErrInvalidSquare = errors.New("invalid square")

// Bit returns the bitboard with only this square set.
// Pass and NoMove map to the empty set.
func (s Square) Bit() uint64 {
	if s < 0 || s >= 64 {
		return 0
	}
	return 1 << uint(s)
}

// Valid reports whether the square is on the board.
func (s Square) Valid() bool {
	return s >= 0 && s < 64
}

// Col returns the file index, 0 for a and 7 for h.
func (s Square) Col() int { return int(s) & 7 }

// Row returns the rank index, 0 for rank 1 and 7 for rank 8.
func (s Square) Row() int { return int(s) >> 3 }

func (s Square) String() string {
	switch {
	case s == Pass:
		return "ps"
	case s == NoMove:
		return "--"
	case !s.Valid():
		return "??"
	}
	return string([]byte{byte('a' + s.Col()), byte('1' + s.Row())})
}

// ParseSquare parses a square name like "d3" (case-insensitive) or "ps" for a pass.
func ParseSquare(name string) (Square, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "ps" || name == "pass" {
		return Pass, nil
	}
	if len(name) != 2 {
		return NoMove, fmt.Errorf("%w: %q", ErrInvalidSquare, name)
	}
	col := int(name[0]) - 'a'
	row := int(name[1]) - '1'
	if col < 0 || col > 7 || row < 0 || row > 7 {
		return NoMove, fmt.Errorf("%w: %q", ErrInvalidSquare, name)
	}
	return Square(row*8 + col), nil
}

// MarshalText encodes the square by name.
func (s Square) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes a square name; "--" decodes to NoMove.
func (s *Square) UnmarshalText(b []byte) error {
	if string(b) == "--" {
		*s = NoMove
		return nil
	}
	sq, err := ParseSquare(string(b))
	if err != nil {
		return err
	}
	*s = sq
	return nil
}

// Squares returns the squares of a bitboard in increasing index order.
func Squares(b uint64) []Square {
	out := make([]Square, 0, popcount(b))
	for b != 0 {
		out = append(out, firstSquare(b))
		b &= b - 1
	}
	return out
}

// QuadrantID maps a square to the bit of its board quadrant. XOR-ing the ids
// of all empty squares gives the parity of the empty regions.
var QuadrantID = [66]uint32{
	1, 1, 1, 1, 2, 2, 2, 2,
	1, 1, 1, 1, 2, 2, 2, 2,
	1, 1, 1, 1, 2, 2, 2, 2,
	1, 1, 1, 1, 2, 2, 2, 2,
	4, 4, 4, 4, 8, 8, 8, 8,
	4, 4, 4, 4, 8, 8, 8, 8,
	4, 4, 4, 4, 8, 8, 8, 8,
	4, 4, 4, 4, 8, 8, 8, 8,
	0, 0,
}

// SquareValue is a static preference used to break ties in move ordering.
var SquareValue = [64]int{
	18, 4, 16, 12, 12, 16, 4, 18,
	4, 2, 6, 8, 8, 6, 2, 4,
	16, 6, 14, 10, 10, 14, 6, 16,
	12, 8, 10, 0, 0, 10, 8, 12,
	12, 8, 10, 0, 0, 10, 8, 12,
	16, 6, 14, 10, 10, 14, 6, 16,
	4, 2, 6, 8, 8, 6, 2, 4,
	18, 4, 16, 12, 12, 16, 4, 18,
}

// PresortedSquares lists all squares from usually best to usually worst:
// corners, then the rings around the centre, X squares and the centre last.
var PresortedSquares = [64]Square{
	0, 56, 7, 63,
	26, 34, 19, 43, 20, 44, 29, 37,
	18, 42, 21, 45,
	16, 40, 2, 58, 5, 61, 23, 47,
	24, 32, 3, 59, 4, 60, 31, 39,
	25, 33, 11, 51, 12, 52, 30, 38,
	17, 41, 10, 50, 13, 53, 22, 46,
	8, 48, 1, 57, 6, 62, 15, 55,
	9, 49, 14, 54,
	27, 28, 35, 36,
}

// Neighbour holds the king-move neighbourhood of every square.
// A legal move always touches at least one opponent disc in it.
var Neighbour [66]uint64

func init() {
	for sq := 0; sq < 64; sq++ {
		col, row := sq&7, sq>>3
		var m uint64
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				c, r := col+dx, row+dy
				if c >= 0 && c < 8 && r >= 0 && r < 8 {
					m |= 1 << uint(r*8+c)
				}
			}
		}
		Neighbour[sq] = m
	}
}

// Parity returns the XOR of QuadrantID over the given empty squares.
func Parity(empties uint64) uint32 {
	var p uint32
	for empties != 0 {
		p ^= QuadrantID[firstSquare(empties)]
		empties &= empties - 1
	}
	return p
}
