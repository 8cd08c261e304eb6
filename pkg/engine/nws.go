package engine

import (
	"math"

	"github.com/lk16/swap/internal/othello"
)

// nwsShallow is a null window search at low depth. It goes without ProbCut
// and ETC and stores into the given table.
func (s *searcher) nwsShallow(p othello.Position, alpha, depth int, table *HashTable) int {
	if depth <= 2 {
		return s.eval2(p, alpha, alpha+1)
	}
	s.countNode()
	beta := alpha + 1
	empties := p.CountEmpty()

	if score, ok := stabilityCutoffNWS(p, empties, alpha); ok {
		return score
	}
	hd, found := table.Get(p)
	if found {
		if score, ok := transpositionCutoff(hd, depth, s.selectivity, alpha); ok {
			return score
		}
	} else {
		hd = emptyHashData
	}

	moves := p.Moves()
	if moves == 0 {
		if p.OpponentHasMoves() {
			return -s.nwsShallow(p.Pass(), -beta, depth, table)
		}
		return s.solve(p)
	}

	start := s.nodes
	l := newMoveList(p, moves)
	if l.n > 1 {
		s.evaluateMoveList(p, &l, hd, alpha, depth)
		l.sort()
	}

	best, bestMove := -scoreInf, othello.NoMove
	for _, m := range l.all() {
		score := -s.nwsShallow(p.PlayFlips(m.sq, m.flips), -beta, depth-1, table)
		if score > best {
			best, bestMove = score, m.sq
			if best >= beta {
				break
			}
		}
	}

	if s.running() {
		table.Store(StoreArgs{
			Position:    p,
			Depth:       depth,
			Selectivity: s.selectivity,
			Cost:        cost(s.nodes - start),
			Alpha:       alpha,
			Beta:        beta,
			Score:       best,
			Move:        bestMove,
		})
	}
	return best
}

// nwsMidgame is the general null window search. It is reached for nodes too
// deep for the shallow search and too far from the end for the exact one.
func (s *searcher) nwsMidgame(p othello.Position, alpha, depth int, n node) int {
	if !s.running() {
		return alpha
	}
	s.countNode()
	beta := alpha + 1
	empties := p.CountEmpty()

	if score, ok := stabilityCutoffNWS(p, empties, alpha); ok {
		return score
	}
	hd, found := s.hash.Get(p)
	if !found {
		hd, found = s.shallow.Get(p)
	}
	if found {
		if score, ok := transpositionCutoff(hd, depth, s.selectivity, alpha); ok {
			return score
		}
	} else {
		hd = emptyHashData
	}

	moves := p.Moves()
	if moves == 0 {
		if p.OpponentHasMoves() {
			return -s.value(p.Pass(), -beta, -alpha, depth, n.pass())
		}
		return s.solve(p)
	}

	if score, ok := s.probcut(p, alpha, depth, n); ok {
		return score
	}

	start := s.nodes
	l := newMoveList(p, moves)
	if l.n > 1 {
		s.evaluateMoveList(p, &l, hd, alpha, depth+incSortDepth[n.kind])
		l.sort()
	}

	if depth > etcMinDepth {
		if score, ok := s.etc(p, &l, alpha, depth, empties); ok {
			return score
		}
	}

	best, bestMove := -scoreInf, othello.NoMove
	for _, m := range l.all() {
		score := -s.value(p.PlayFlips(m.sq, m.flips), -beta, -alpha, depth-1, n.child(n.kind.next()))
		if score > best {
			best, bestMove = score, m.sq
			if best >= beta {
				break
			}
		}
		if !s.running() {
			return alpha
		}
	}

	if s.running() {
		args := StoreArgs{
			Position:    p,
			Depth:       depth,
			Selectivity: s.selectivity,
			Cost:        cost(s.nodes - start),
			Alpha:       alpha,
			Beta:        beta,
			Score:       best,
			Move:        bestMove,
		}
		if n.height <= pvHashHeight {
			s.pv.Store(args)
		}
		s.hash.Store(args)
	}
	return best
}

// probcut predicts a fail high or fail low of a depth search from a
// shallower one. The cut is statistical: the confidence comes from the
// current selectivity and the evaluator's error model.
func (s *searcher) probcut(p othello.Position, alpha, depth int, n node) (int, bool) {
	if s.selectivity >= NoSelectivity || s.probcutLevel >= 2 {
		return 0, false
	}
	beta := alpha + 1
	empties := p.CountEmpty()
	t := selectivityTable[s.selectivity]

	pcDepth := probcutDepth(depth)
	pcError := t*s.eval.Sigma(empties, depth, pcDepth) + probcutRCD
	evalScore := s.eval0(p)
	evalError := t*0.5*(s.eval.Sigma(empties, depth, 0)+s.eval.Sigma(empties, depth, pcDepth)) + probcutRCD

	evalBeta := int(float64(beta) - evalError)
	pcBeta := int(float64(beta) + pcError)
	if evalScore >= evalBeta && pcBeta < ScoreMax {
		s.probcutLevel++
		score := s.value(p, pcBeta-1, pcBeta, pcDepth, node{n.height, CutNode})
		s.probcutLevel--
		if score >= pcBeta {
			return beta, true
		}
	}

	evalAlpha := int(float64(alpha) + evalError)
	pcAlpha := int(float64(alpha) - pcError)
	if evalScore < evalAlpha && pcAlpha > ScoreMin {
		s.probcutLevel++
		score := s.value(p, pcAlpha, pcAlpha+1, pcDepth, node{n.height, AllNode})
		s.probcutLevel--
		if score <= pcAlpha {
			return alpha, true
		}
	}
	return 0, false
}

// probcutDepth is the depth of the shallow search predicting a depth search.
func probcutDepth(depth int) int {
	pcDepth := 2*int(math.Floor(probcutD*float64(depth))) + depth&1
	if pcDepth == 0 {
		pcDepth = depth - 2
	}
	return pcDepth
}

// etc is enhanced transposition cutoff: a child whose stable discs or
// stored bound already refute it proves the parent fails high.
func (s *searcher) etc(p othello.Position, l *moveList, alpha, depth, empties int) (int, bool) {
	store := func(score int, sq othello.Square) {
		s.hash.Store(StoreArgs{
			Position:    p,
			Depth:       depth,
			Selectivity: s.selectivity,
			Alpha:       alpha,
			Beta:        alpha + 1,
			Score:       score,
			Move:        sq,
		})
	}

	for _, m := range l.all() {
		child := p.PlayFlips(m.sq, m.flips)
		if alpha <= -nwsStabilityThreshold[empties] {
			if score := 2*child.CountOpponentStable() - ScoreMax; score > alpha {
				store(score, m.sq)
				return score, true
			}
		}
		if hd, ok := s.hash.Get(child); ok && int(hd.Selectivity) >= s.selectivity && int(hd.Depth) >= depth-1 {
			if score := -int(hd.Upper); score > alpha {
				store(score, m.sq)
				return score, true
			}
		}
	}
	return 0, false
}
