package engine

import (
	"cmp"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/lk16/swap/internal/othello"
)

// pvsShallow is the full window search used to order moves of deep nodes.
// It reads and writes the shallow table only.
func (s *searcher) pvsShallow(p othello.Position, alpha, beta, depth int) int {
	if depth <= 2 {
		return s.eval2(p, alpha, beta)
	}
	s.countNode()
	empties := p.CountEmpty()

	score, cut, beta := stabilityCutoffPVS(p, empties, alpha, beta)
	if cut {
		return score
	}

	moves := p.Moves()
	if moves == 0 {
		if p.OpponentHasMoves() {
			return -s.pvsShallow(p.Pass(), -beta, -alpha, depth)
		}
		return s.solve(p)
	}

	start := s.nodes
	alpha0 := alpha
	l := newMoveList(p, moves)
	if l.n > 1 {
		hd, ok := s.shallow.Get(p)
		if !ok {
			hd = emptyHashData
		}
		s.evaluateMoveList(p, &l, hd, alpha, depth)
		l.sort()
	}

	best, bestMove := -scoreInf, othello.NoMove
	for i, m := range l.all() {
		child := p.PlayFlips(m.sq, m.flips)
		var score int
		if i == 0 {
			score = -s.pvsShallow(child, -beta, -alpha, depth-1)
		} else {
			score = -s.nwsShallow(child, -alpha-1, depth-1, s.shallow)
			if alpha < score && score < beta {
				score = -s.pvsShallow(child, -beta, -alpha, depth-1)
			}
		}
		if score > best {
			best, bestMove = score, m.sq
			if best >= beta {
				break
			}
			alpha = max(alpha, best)
		}
	}

	if s.running() {
		s.shallow.Store(StoreArgs{
			Position:    p,
			Depth:       depth,
			Selectivity: s.selectivity,
			Cost:        cost(s.nodes - start),
			Alpha:       alpha0,
			Beta:        beta,
			Score:       best,
			Move:        bestMove,
		})
	}
	return best
}

// pvsMidgame is the principal variation search: the first move gets the
// full window, later moves a null window probe and a re-search when the
// probe lands inside the window.
func (s *searcher) pvsMidgame(p othello.Position, alpha, beta, depth int, n node) int {
	if !s.running() {
		return alpha
	}
	s.countNode()
	empties := p.CountEmpty()
	alpha0 := alpha
	start := s.nodes

	best, bestMove := -scoreInf, othello.NoMove
	storeAlpha, storeBeta := alpha, beta

	moves := p.Moves()
	if moves == 0 {
		if p.OpponentHasMoves() {
			best, bestMove = -s.value(p.Pass(), -beta, -alpha, depth, n.pass()), othello.Pass
		} else {
			best = s.solve(p)
			storeAlpha, storeBeta = -scoreInf, scoreInf
		}
	} else {
		l := newMoveList(p, moves)
		if l.n > 1 {
			hd, ok := s.hashData(p)
			if !ok {
				hd = emptyHashData
			}
			s.evaluateMoveList(p, &l, hd, alpha, depth+incSortDepth[PVNode])
			l.sort()
		}

		for i, m := range l.all() {
			child := p.PlayFlips(m.sq, m.flips)
			var score int
			if i == 0 {
				score = -s.value(child, -beta, -alpha, depth-1, n.child(PVNode))
			} else {
				score = -s.value(child, -alpha-1, -alpha, depth-1, n.child(CutNode))
				if s.running() && alpha < score && score < beta {
					score = -s.value(child, -beta, -alpha, depth-1, n.child(PVNode))
				}
			}
			if !s.running() {
				return alpha0
			}
			if score > best {
				best, bestMove = score, m.sq
				if best >= beta {
					break
				}
				alpha = max(alpha, best)
			}
		}
	}

	if s.running() {
		sel := s.selectivity
		if empties <= depth && depth <= midgameToEndgame {
			sel = NoSelectivity
		}
		args := StoreArgs{
			Position:    p,
			Depth:       depth,
			Selectivity: sel,
			Cost:        cost(s.nodes - start),
			Alpha:       storeAlpha,
			Beta:        storeBeta,
			Score:       best,
			Move:        bestMove,
		}
		s.hash.Store(args)
		s.pv.Store(args)
	}
	return best
}

// routePVS searches a root child within the root window (alpha, beta) and
// returns its score from the root's point of view, clamped to the root's
// stability bound.
func (s *searcher) routePVS(child othello.Position, alpha, beta, depth int, n node) int {
	score := -s.value(child, -beta, -alpha, depth, n)
	return othello.Clamp(score, s.rootLower, s.rootUpper)
}

// pvsRoot searches the root position within (alpha, beta) and returns the
// tagged score and the best move. Root moves keep their order between
// calls: the best move first, then the others by score.
func (s *searcher) pvsRoot(p othello.Position, alpha, beta, depth int) (Outcome, othello.Square) {
	s.probcutLevel = 0
	alpha0 := alpha
	start := s.nodes
	root := node{kind: PVNode}

	best, bestMove := -scoreInf, othello.NoMove
	moves := s.root.all()
	switch {
	case len(moves) == 0 && p.OpponentHasMoves():
		best, bestMove = s.routePVS(p.Pass(), alpha, beta, depth, root.pass()), othello.Pass
	case len(moves) == 0:
		best = s.solve(p)
	default:
		for i := range moves {
			m := &moves[i]
			child := p.PlayFlips(m.sq, m.flips)
			var score int
			if i == 0 {
				score = s.routePVS(child, alpha, beta, depth-1, root.child(PVNode))
			} else if s.threads > 1 {
				break
			} else {
				score = s.routePVS(child, alpha, alpha+1, depth-1, root.child(CutNode))
				if s.running() && alpha < score && score < beta {
					score = s.routePVS(child, alpha, beta, depth-1, root.child(PVNode))
				}
			}
			if !s.running() {
				return classify(best, alpha0, beta), bestMove
			}
			m.score = score
			if score > best {
				best, bestMove = score, m.sq
				if best >= beta {
					break
				}
				alpha = max(alpha, best)
			}
		}
		if s.threads > 1 && best < beta && len(moves) > 1 {
			best, bestMove, alpha = s.splitRoot(p, moves, alpha, beta, depth, best, bestMove)
		}
	}

	if !s.running() {
		return classify(best, alpha0, beta), bestMove
	}

	slices.SortStableFunc(moves, func(a, b scoredMove) int {
		switch {
		case a.sq == bestMove:
			return -1
		case b.sq == bestMove:
			return 1
		}
		return cmp.Compare(b.score, a.score)
	})

	args := StoreArgs{
		Position:    p,
		Depth:       depth,
		Selectivity: s.selectivity,
		Cost:        cost(s.nodes - start),
		Alpha:       alpha0,
		Beta:        beta,
		Score:       best,
		Move:        bestMove,
	}
	s.hash.Store(args)
	s.pv.Store(args)
	return classify(best, alpha0, beta), bestMove
}

// splitRoot probes all root moves but the first concurrently with a null
// window at alpha, then re-searches the moves that failed high one by one
// with the window current at that point.
func (s *searcher) splitRoot(p othello.Position, moves []scoredMove, alpha, beta, depth, best int, bestMove othello.Square) (int, othello.Square, int) {
	if s.workers == nil {
		s.workers = make(chan *searcher, s.threads)
		for range s.threads {
			s.workers <- s.worker()
		}
	}

	probeAlpha := alpha
	probes := make([]int, len(moves))
	visited := make([]uint64, len(moves))
	var g errgroup.Group
	g.SetLimit(s.threads)
	for i := 1; i < len(moves); i++ {
		child := p.PlayFlips(moves[i].sq, moves[i].flips)
		g.Go(func() error {
			w := <-s.workers
			defer func() { s.workers <- w }()
			w.syncFrom(s)
			before := w.nodes
			probes[i] = w.routePVS(child, probeAlpha, probeAlpha+1, depth-1, node{height: 1, kind: CutNode})
			w.flush()
			visited[i] = w.nodes - before
			return nil
		})
	}
	_ = g.Wait()
	for _, n := range visited {
		s.nodes += n
	}

	for i := 1; i < len(moves) && s.running(); i++ {
		m := &moves[i]
		score := probes[i]
		if score > probeAlpha && alpha < beta {
			child := p.PlayFlips(m.sq, m.flips)
			score = s.routePVS(child, alpha, beta, depth-1, node{height: 1, kind: PVNode})
		}
		m.score = score
		if score > best {
			best, bestMove = score, m.sq
			if best >= beta {
				break
			}
			alpha = max(alpha, best)
		}
	}
	return best, bestMove, alpha
}

// syncFrom copies the per-iteration search settings of the root searcher.
func (s *searcher) syncFrom(root *searcher) {
	s.selectivity = root.selectivity
	s.pvExtension = root.pvExtension
	s.rootLower, s.rootUpper = root.rootLower, root.rootUpper
	s.probcutLevel = 0
}
