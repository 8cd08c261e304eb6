package engine

import "github.com/lk16/swap/internal/othello"

// quadrantMasks maps a set of QuadrantID bits to the squares they cover.
var quadrantMasks [16]uint64

func init() {
	for sq := othello.Square(0); sq < 64; sq++ {
		q := othello.QuadrantID[sq]
		for set := range quadrantMasks {
			if uint32(set)&q != 0 {
				quadrantMasks[set] |= sq.Bit()
			}
		}
	}
}

// nwsEndgame is the exact null window search. Stored entries always carry
// NoSelectivity and a depth equal to the empties.
func (s *searcher) nwsEndgame(p othello.Position, alpha int) int {
	empties := p.CountEmpty()
	if empties <= endgameShallowMax {
		return s.endgameShallow(p, alpha, empties)
	}
	if !s.running() {
		return alpha
	}
	s.countNode()
	beta := alpha + 1

	if score, ok := stabilityCutoffNWS(p, empties, alpha); ok {
		return score
	}
	hd, found := s.hash.Get(p)
	if found {
		if score, ok := transpositionCutoff(hd, empties, NoSelectivity, alpha); ok {
			return score
		}
	} else {
		hd = emptyHashData
	}

	moves := p.Moves()
	if moves == 0 {
		if p.OpponentHasMoves() {
			return -s.nwsEndgame(p.Pass(), -beta)
		}
		return s.solve(p)
	}

	start := s.nodes
	l := newMoveList(p, moves)
	if l.n > 1 {
		s.evaluateMoveList(p, &l, hd, alpha, 0)
		l.sort()
	}

	best, bestMove := -scoreInf, othello.NoMove
	for _, m := range l.all() {
		score := -s.nwsEndgame(p.PlayFlips(m.sq, m.flips), -beta)
		if score > best {
			best, bestMove = score, m.sq
			if best >= beta {
				break
			}
		}
	}

	if s.running() {
		s.hash.Store(StoreArgs{
			Position:    p,
			Depth:       empties,
			Selectivity: NoSelectivity,
			Cost:        cost(s.nodes - start),
			Alpha:       alpha,
			Beta:        beta,
			Score:       best,
			Move:        bestMove,
		})
	}
	return best
}

// endgameShallow solves positions with few empties without tables or move
// lists. Squares in quadrants with an odd number of empties are tried first.
func (s *searcher) endgameShallow(p othello.Position, alpha, empties int) int {
	switch empties {
	case 0:
		return s.solve(p)
	case 1:
		return s.solve1(p, firstSquare(p.Empties()))
	case 2, 3, 4:
		return s.solveSmall(p, alpha, empties)
	}
	s.countNode()
	beta := alpha + 1

	if score, ok := stabilityCutoffNWS(p, empties, alpha); ok {
		return score
	}

	emptySet := p.Empties()
	odd := quadrantMasks[othello.Parity(emptySet)]

	best := -scoreInf
	for _, set := range [2]uint64{emptySet & odd, emptySet &^ odd} {
		for ; set != 0; set &= set - 1 {
			sq := firstSquare(set)
			if othello.Neighbour[sq]&p.Opponent == 0 {
				continue
			}
			f := p.Flips(sq)
			if f == 0 {
				continue
			}
			child := p.PlayFlips(sq, f)
			var score int
			if empties == 5 {
				score = -s.solve4(child, -beta)
			} else {
				score = -s.endgameShallow(child, -beta, empties-1)
			}
			if score > best {
				best = score
				if best >= beta {
					return best
				}
			}
		}
	}

	if best == -scoreInf {
		if p.OpponentHasMoves() {
			return -s.endgameShallow(p.Pass(), -beta, empties)
		}
		return s.solve(p)
	}
	return best
}
