// Package positionid implements text encodings of Othello positions.
//
// Three forms are supported:
//
//   - board strings in the FFO test-suite layout: 64 squares a1..h8 using
//     'X' (black), 'O' (white) and '-' (empty), then the side to move;
//   - 32 hex digits, player bitboard first;
//   - a 22-character base64 position ID of the two bitboards.
//
// Positions are always relative to the side to move, so the board string and
// the colour of that side travel together.
package positionid

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lk16/swap/internal/othello"
)

const (
	// PositionIDLength is the length of a position ID string
	PositionIDLength = 22
	// BoardLength is the number of square characters in a board string
	BoardLength = 64
)

// Base64 alphabet used for position ID encoding
const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// ErrInvalidBoard is returned when a board string, hex string or ID cannot be decoded
var ErrInvalidBoard = errors.New("invalid board")

// ParseBoard decodes a board string. Square characters are 'X' or '*' for
// black, 'O' for white and '-' or '.' for empty; whitespace between squares is
// ignored. The side to move follows the squares and defaults to black.
// The returned position is seen from the side to move.
func ParseBoard(s string) (p othello.Position, blackToMove bool, err error) {
	var black, white uint64
	sq := 0
	i := 0
	for ; i < len(s) && sq < BoardLength; i++ {
		switch c := s[i]; c {
		case 'X', 'x', '*':
			black |= 1 << uint(sq)
		case 'O', 'o':
			white |= 1 << uint(sq)
		case '-', '.':
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return p, false, fmt.Errorf("%w: unexpected %q at offset %d", ErrInvalidBoard, c, i)
		}
		sq++
	}
	if sq != BoardLength {
		return p, false, fmt.Errorf("%w: %d squares, want %d", ErrInvalidBoard, sq, BoardLength)
	}

	blackToMove = true
	switch side := strings.TrimSpace(s[i:]); strings.ToUpper(side) {
	case "", "X", "*", "B", "BLACK":
	case "O", "W", "WHITE":
		blackToMove = false
	default:
		return p, false, fmt.Errorf("%w: unknown side to move %q", ErrInvalidBoard, side)
	}

	if blackToMove {
		return othello.Position{Player: black, Opponent: white}, true, nil
	}
	return othello.Position{Player: white, Opponent: black}, false, nil
}

// FormatBoard encodes a position as a board string followed by the side to move.
func FormatBoard(p othello.Position, blackToMove bool) string {
	black, white, side := p.Player, p.Opponent, byte('X')
	if !blackToMove {
		black, white, side = p.Opponent, p.Player, 'O'
	}

	buf := make([]byte, 0, BoardLength+2)
	for sq := 0; sq < BoardLength; sq++ {
		bit := uint64(1) << uint(sq)
		switch {
		case black&bit != 0:
			buf = append(buf, 'X')
		case white&bit != 0:
			buf = append(buf, 'O')
		default:
			buf = append(buf, '-')
		}
	}
	return string(append(buf, ' ', side))
}

// Hex encodes a position as 32 hex digits, player bitboard first.
func Hex(p othello.Position) string {
	return fmt.Sprintf("%016x%016x", p.Player, p.Opponent)
}

// ParseHex decodes the output of Hex.
func ParseHex(s string) (othello.Position, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if len(s) != 32 {
		return othello.Position{}, fmt.Errorf("%w: hex length %d, want 32", ErrInvalidBoard, len(s))
	}
	player, err := strconv.ParseUint(s[:16], 16, 64)
	if err != nil {
		return othello.Position{}, fmt.Errorf("%w: %v", ErrInvalidBoard, err)
	}
	opponent, err := strconv.ParseUint(s[16:], 16, 64)
	if err != nil {
		return othello.Position{}, fmt.Errorf("%w: %v", ErrInvalidBoard, err)
	}
	return checked(player, opponent)
}

// positionKey returns the 16 bytes encoded by a position ID.
func positionKey(p othello.Position) [16]byte {
	var key [16]byte
	binary.BigEndian.PutUint64(key[:8], p.Player)
	binary.BigEndian.PutUint64(key[8:], p.Opponent)
	return key
}

// PositionID generates a base64 position ID string from a position
func PositionID(p othello.Position) string {
	key := positionKey(p)
	result := make([]byte, PositionIDLength)
	puch := key[:]

	for i := 0; i < 5; i++ {
		result[i*4] = base64Chars[puch[0]>>2]
		result[i*4+1] = base64Chars[((puch[0]&0x03)<<4)|(puch[1]>>4)]
		result[i*4+2] = base64Chars[((puch[1]&0x0F)<<2)|(puch[2]>>6)]
		result[i*4+3] = base64Chars[puch[2]&0x3F]
		puch = puch[3:]
	}

	result[20] = base64Chars[puch[0]>>2]
	result[21] = base64Chars[(puch[0]&0x03)<<4]

	return string(result)
}

// base64Decode decodes a base64 character to its value
func base64Decode(ch byte) uint8 {
	if ch >= 'A' && ch <= 'Z' {
		return ch - 'A'
	}
	if ch >= 'a' && ch <= 'z' {
		return ch - 'a' + 26
	}
	if ch >= '0' && ch <= '9' {
		return ch - '0' + 52
	}
	if ch == '+' {
		return 62
	}
	if ch == '/' {
		return 63
	}
	return 255
}

// FromPositionID decodes a base64 position ID string to a position
func FromPositionID(posID string) (othello.Position, error) {
	if len(posID) != PositionIDLength {
		return othello.Position{}, fmt.Errorf("%w: ID length %d, want %d", ErrInvalidBoard, len(posID), PositionIDLength)
	}

	var ach [PositionIDLength]uint8
	for i := 0; i < PositionIDLength; i++ {
		ach[i] = base64Decode(posID[i])
		if ach[i] == 255 {
			return othello.Position{}, fmt.Errorf("%w: bad ID character %q", ErrInvalidBoard, posID[i])
		}
	}
	// The last character only carries two bits.
	if ach[21]&0x0F != 0 {
		return othello.Position{}, fmt.Errorf("%w: non-canonical ID", ErrInvalidBoard)
	}

	var key [16]byte
	pch := ach[:]
	for i := 0; i < 5; i++ {
		key[i*3] = (pch[0] << 2) | (pch[1] >> 4)
		key[i*3+1] = (pch[1] << 4) | (pch[2] >> 2)
		key[i*3+2] = (pch[2] << 6) | pch[3]
		pch = pch[4:]
	}
	key[15] = (pch[0] << 2) | (pch[1] >> 4)

	return checked(binary.BigEndian.Uint64(key[:8]), binary.BigEndian.Uint64(key[8:]))
}

func checked(player, opponent uint64) (othello.Position, error) {
	p, err := othello.NewPosition(player, opponent)
	if err != nil {
		return othello.Position{}, fmt.Errorf("%w: %v", ErrInvalidBoard, err)
	}
	return p, nil
}
