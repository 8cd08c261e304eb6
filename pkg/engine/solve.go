package engine

import (
	"context"

	"github.com/lk16/swap/internal/eval"
	"github.com/lk16/swap/internal/othello"
)

// solve scores a finished game.
func (s *searcher) solve(p othello.Position) int {
	return p.FinalScore()
}

// paritySquares lists the empty squares of p, squares in quadrants with an
// odd number of empties first.
func paritySquares(p othello.Position, buf []othello.Square) []othello.Square {
	empties := p.Empties()
	odd := quadrantMasks[othello.Parity(empties)]
	buf = buf[:0]
	for _, set := range [2]uint64{empties & odd, empties &^ odd} {
		for ; set != 0; set &= set - 1 {
			buf = append(buf, firstSquare(set))
		}
	}
	return buf
}

// solveSmall routes null window solves of 2 to 4 empties.
func (s *searcher) solveSmall(p othello.Position, alpha, empties int) int {
	switch empties {
	case 4:
		return s.solve4(p, alpha)
	case 3:
		return s.solve3(p, alpha)
	case 2:
		return s.solve2(p, alpha)
	case 1:
		return s.solve1(p, firstSquare(p.Empties()))
	}
	return s.solve(p)
}

// solveN tries the empty squares of a position with n empties in parity
// order and solves each child with next.
func (s *searcher) solveN(p othello.Position, alpha, n int, next func(othello.Position, int) int, self func(othello.Position, int) int) int {
	s.countNode()
	beta := alpha + 1
	if score, ok := stabilityCutoffNWS(p, n, alpha); ok {
		return score
	}

	var buf [4]othello.Square
	best := -scoreInf
	for _, sq := range paritySquares(p, buf[:]) {
		if othello.Neighbour[sq]&p.Opponent == 0 {
			continue
		}
		f := p.Flips(sq)
		if f == 0 {
			continue
		}
		score := -next(p.PlayFlips(sq, f), -beta)
		if score > best {
			best = score
			if best >= beta {
				return best
			}
		}
	}
	if best != -scoreInf {
		return best
	}
	if p.OpponentHasMoves() {
		return -self(p.Pass(), -beta)
	}
	return s.solve(p)
}

// solve4 is the null window solver for 4 empties.
func (s *searcher) solve4(p othello.Position, alpha int) int {
	return s.solveN(p, alpha, 4, s.solve3, s.solve4)
}

// solve3 is the null window solver for 3 empties.
func (s *searcher) solve3(p othello.Position, alpha int) int {
	return s.solveN(p, alpha, 3, s.solve2, s.solve3)
}

// solve2 is the null window solver for 2 empties.
func (s *searcher) solve2(p othello.Position, alpha int) int {
	s.countNode()
	beta := alpha + 1
	empties := p.Empties()
	x1 := firstSquare(empties)
	x2 := firstSquare(empties &^ x1.Bit())

	best := -scoreInf
	if f := p.Flips(x1); f != 0 {
		best = -s.solve1(p.PlayFlips(x1, f), x2)
		if best >= beta {
			return best
		}
	}
	if f := p.Flips(x2); f != 0 {
		best = max(best, -s.solve1(p.PlayFlips(x2, f), x1))
	}
	if best != -scoreInf {
		return best
	}

	q := p.Pass()
	if q.Flips(x1) != 0 || q.Flips(x2) != 0 {
		return -s.solve2(q, -beta)
	}
	return s.solve(p)
}

// solve1 returns the exact score of a position whose only empty square is sq.
// The side to move plays it if it can, else the opponent does, else the
// square goes to the winner.
func (s *searcher) solve1(p othello.Position, sq othello.Square) int {
	s.countNode()
	diff := 2*p.CountPlayer() - 63
	if f := othello.CountLastFlip(sq, p.Player); f > 0 {
		return diff + 1 + 2*f
	}
	if f := othello.CountLastFlip(sq, p.Opponent); f > 0 {
		return diff - 1 - 2*f
	}
	if diff > 0 {
		return diff + 1
	}
	return diff - 1
}

// SolveExact returns the exact final score of p with perfect play, from
// the side to move. It uses private tables and no ProbCut, so it is meant
// for small endgames and verification.
func SolveExact(p othello.Position) int {
	t := Tables{
		Hash:    NewHashTable(1 << 16),
		PV:      NewHashTable(1 << 10),
		Shallow: NewHashTable(1 << 12),
	}
	s := newSearcher(t, eval.New(nil), newControl(context.Background(), 0))
	empties := p.CountEmpty()
	s.pvExtension = pvExtension(empties, empties)
	return s.value(p, ScoreMin, ScoreMax, empties, node{kind: PVNode})
}
