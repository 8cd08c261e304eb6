// Package othello implements bitboard Othello positions: move generation,
// move application, disc stability and final scoring.
//
// A Position is always seen from the side to move. Applying a move returns a
// new Position in which the roles are swapped.
package othello

import (
	"errors"
	"fmt"
	"strings"
)

// Score limits in disc units
const (
	ScoreMin = -64
	ScoreMax = 64
)

// ErrIllegalMove is returned by TryPlay for moves that flip nothing
var ErrIllegalMove = errors.New("illegal move")

// Position holds the discs of the side to move and of its opponent.
type Position struct {
	Player   uint64
	Opponent uint64
}

// Start returns the standard starting position with black to move.
func Start() Position {
	return Position{
		Player:   0x0000000810000000,
		Opponent: 0x0000001008000000,
	}
}

// NewPosition builds a position and reports overlapping disc sets.
func NewPosition(player, opponent uint64) (Position, error) {
	if player&opponent != 0 {
		return Position{}, fmt.Errorf("player and opponent discs overlap at %016x", player&opponent)
	}
	return Position{Player: player, Opponent: opponent}, nil
}

// Empties returns the set of empty squares.
func (p Position) Empties() uint64 { return ^(p.Player | p.Opponent) }

// CountEmpty returns the number of empty squares.
func (p Position) CountEmpty() int { return popcount(p.Empties()) }

// CountPlayer returns the number of discs of the side to move.
func (p Position) CountPlayer() int { return popcount(p.Player) }

// CountOpponent returns the number of discs of the opponent.
func (p Position) CountOpponent() int { return popcount(p.Opponent) }

// Moves returns the legal moves of the side to move. Zero means it must pass.
func (p Position) Moves() uint64 { return findMoves(p.Player, p.Opponent) }

// OpponentMoves returns the legal moves the opponent would have.
func (p Position) OpponentMoves() uint64 { return findMoves(p.Opponent, p.Player) }

// LegalMoves lists the legal moves in increasing square order.
func (p Position) LegalMoves() []Square { return Squares(p.Moves()) }

// HasMoves reports whether the side to move has a legal move.
func (p Position) HasMoves() bool { return p.Moves() != 0 }

// OpponentHasMoves reports whether the opponent has a legal move.
func (p Position) OpponentHasMoves() bool { return p.OpponentMoves() != 0 }

// IsTerminal reports whether neither side can move.
func (p Position) IsTerminal() bool {
	return !p.HasMoves() && !p.OpponentHasMoves()
}

// IsLegal reports whether sq is a legal move.
func (p Position) IsLegal(sq Square) bool {
	return sq.Valid() && p.Moves()&sq.Bit() != 0
}

// Flips returns the discs flipped by playing sq. It does not check that sq is empty.
func (p Position) Flips(sq Square) uint64 {
	return flips(sq, p.Player, p.Opponent)
}

// Play applies a legal move. Playing an illegal move is a programming error and panics.
func (p Position) Play(sq Square) Position {
	if !sq.Valid() || p.Empties()&sq.Bit() == 0 {
		panic(fmt.Sprintf("othello: move %v on occupied or invalid square", sq))
	}
	f := p.Flips(sq)
	if f == 0 {
		panic(fmt.Sprintf("othello: illegal move %v", sq))
	}
	return p.apply(sq, f)
}

// TryPlay applies sq, returning ErrIllegalMove instead of panicking.
func (p Position) TryPlay(sq Square) (Position, error) {
	if !sq.Valid() || p.Empties()&sq.Bit() == 0 {
		return p, fmt.Errorf("%w: %v", ErrIllegalMove, sq)
	}
	f := p.Flips(sq)
	if f == 0 {
		return p, fmt.Errorf("%w: %v", ErrIllegalMove, sq)
	}
	return p.apply(sq, f), nil
}

// PlayFlips applies a move whose flips are already known.
func (p Position) PlayFlips(sq Square, f uint64) Position {
	return p.apply(sq, f)
}

func (p Position) apply(sq Square, f uint64) Position {
	return Position{
		Player:   p.Opponent &^ f,
		Opponent: p.Player | f | sq.Bit(),
	}
}

// Pass returns the position with the turn handed to the opponent.
func (p Position) Pass() Position {
	return Position{Player: p.Opponent, Opponent: p.Player}
}

// Children returns all positions reachable with one legal move.
func (p Position) Children() []Position {
	moves := p.Moves()
	out := make([]Position, 0, popcount(moves))
	for moves != 0 {
		sq := firstSquare(moves)
		out = append(out, p.apply(sq, p.Flips(sq)))
		moves &= moves - 1
	}
	return out
}

// DiscDifferential returns player discs minus opponent discs.
func (p Position) DiscDifferential() int {
	return popcount(p.Player) - popcount(p.Opponent)
}

// FinalScore scores a finished game, giving the empty squares to the winner.
func (p Position) FinalScore() int {
	return p.FinalScoreWithEmpty(p.CountEmpty())
}

// FinalScoreWithEmpty scores a finished game with n empty squares.
func (p Position) FinalScoreWithEmpty(n int) int {
	player := popcount(p.Player)
	opponent := 64 - n - player
	switch {
	case player > opponent:
		return 64 - 2*opponent
	case player < opponent:
		return 2*player - 64
	}
	return 0
}

// PotentialMobility counts empty squares next to opponent discs, corners twice.
func (p Position) PotentialMobility() int {
	return WeightedCount(potentialMoves(p.Player, p.Opponent))
}

// WeightedMobility counts legal moves, corners twice.
func (p Position) WeightedMobility() int {
	return WeightedCount(p.Moves())
}

// Frontier returns the discs of the side to move that touch an empty square.
func (p Position) Frontier() uint64 {
	return p.Player & adjacent(p.Empties())
}

func (p Position) String() string {
	var sb strings.Builder
	moves := p.Moves()
	sb.WriteString("  a b c d e f g h\n")
	for row := 0; row < 8; row++ {
		fmt.Fprintf(&sb, "%d", row+1)
		for col := 0; col < 8; col++ {
			bit := uint64(1) << uint(row*8+col)
			switch {
			case p.Player&bit != 0:
				sb.WriteString(" X")
			case p.Opponent&bit != 0:
				sb.WriteString(" O")
			case moves&bit != 0:
				sb.WriteString(" .")
			default:
				sb.WriteString(" -")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
