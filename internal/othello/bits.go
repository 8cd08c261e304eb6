package othello

import (
	"math/bits"

	"golang.org/x/exp/constraints"
)

// Board masks
const (
	FileA   uint64 = 0x0101010101010101
	FileH   uint64 = 0x8080808080808080
	Rank1   uint64 = 0x00000000000000ff
	Rank8   uint64 = 0xff00000000000000
	Corners uint64 = 0x8100000000000081
	Edges   uint64 = FileA | FileH | Rank1 | Rank8

	notEdgeFiles uint64 = 0x7e7e7e7e7e7e7e7e
)

func popcount(b uint64) int { return bits.OnesCount64(b) }

func firstSquare(b uint64) Square { return Square(bits.TrailingZeros64(b)) }

// CountBits returns the number of set squares.
func CountBits(b uint64) int { return popcount(b) }

// WeightedCount counts set squares with corners counted twice.
func WeightedCount(b uint64) int {
	return popcount(b) + popcount(b&Corners)
}

// Clamp limits v to [lo, hi].
func Clamp[T constraints.Integer | constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// dirMoves finds moves along one axis in both shift directions.
func dirMoves(p, mask uint64, n uint) uint64 {
	f := mask & (p << n)
	f |= mask & (f << n)
	f |= mask & (f << n)
	f |= mask & (f << n)
	f |= mask & (f << n)
	f |= mask & (f << n)
	moves := f << n

	f = mask & (p >> n)
	f |= mask & (f >> n)
	f |= mask & (f >> n)
	f |= mask & (f >> n)
	f |= mask & (f >> n)
	f |= mask & (f >> n)
	return moves | f>>n
}

func findMoves(p, o uint64) uint64 {
	h := o & notEdgeFiles
	moves := dirMoves(p, h, 1) |
		dirMoves(p, o, 8) |
		dirMoves(p, h, 7) |
		dirMoves(p, h, 9)
	return moves &^ (p | o)
}

// rays[sq][d] holds the squares strictly beyond sq in direction d. Directions
// 0..3 increase the index, 4..7 decrease it.
var rays [64][8]uint64

var rayDirs = [8][2]int{
	{1, 0}, {0, 1}, {1, 1}, {-1, 1},
	{-1, 0}, {0, -1}, {-1, -1}, {1, -1},
}

func init() {
	for sq := 0; sq < 64; sq++ {
		for d, dir := range rayDirs {
			c, r := sq&7+dir[0], sq>>3+dir[1]
			for c >= 0 && c < 8 && r >= 0 && r < 8 {
				rays[sq][d] |= 1 << uint(r*8+c)
				c += dir[0]
				r += dir[1]
			}
		}
	}
}

// flips returns the opponent discs flipped when p plays on sq.
// The result is zero when the move is illegal.
func flips(sq Square, p, o uint64) uint64 {
	var f uint64
	r := &rays[sq]
	for d := 0; d < 4; d++ {
		blockers := r[d] &^ o
		if blockers == 0 {
			continue
		}
		first := blockers & -blockers
		if first&p != 0 {
			f |= r[d] & (first - 1)
		}
	}
	for d := 4; d < 8; d++ {
		blockers := r[d] &^ o
		if blockers == 0 {
			continue
		}
		first := uint64(1) << uint(63-bits.LeadingZeros64(blockers))
		if first&p != 0 {
			f |= r[d] &^ (first<<1 - 1)
		}
	}
	return f
}

// CountLastFlip returns how many discs are flipped when player plays the last
// empty square sq. All squares other than sq and player's discs belong to the
// opponent.
func CountLastFlip(sq Square, player uint64) int {
	o := ^player &^ sq.Bit()
	return popcount(flips(sq, player, o))
}

// adjacent returns every square next to a square of b.
func adjacent(b uint64) uint64 {
	return (b&^FileA)>>1 | (b&^FileH)<<1 |
		b>>8 | b<<8 |
		(b&^FileA)>>9 | (b&^FileH)<<9 |
		(b&^FileH)>>7 | (b&^FileA)<<7
}

// potentialMoves returns the empty squares adjacent to o.
func potentialMoves(p, o uint64) uint64 {
	return adjacent(o) &^ (p | o)
}
