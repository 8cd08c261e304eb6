package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lk16/swap/internal/othello"
)

// Search errors
var (
	ErrInvalidPosition = errors.New("invalid position")
	ErrGameOver        = errors.New("game over")
)

// SearchOptions configures one search.
type SearchOptions struct {
	Level       int           // Playing level 0..60, used when Depth is 0 and Exact is false
	Depth       int           // Explicit depth (0 = use Level)
	Selectivity int           // Selectivity 0..5 used with Depth (5 = no ProbCut)
	Exact       bool          // Solve to the end without ProbCut
	MaxTime     time.Duration // Time budget (0 = unlimited)
	MaxNodes    uint64        // Node budget (0 = unlimited)

	// OnIteration is called after every completed iteration.
	OnIteration func(Iteration)
}

// DefaultSearchOptions returns options searching at DefaultLevel
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{Level: DefaultLevel, Selectivity: NoSelectivity}
}

// resolve returns the target depth and selectivity for a position with the
// given number of empties.
func (o SearchOptions) resolve(empties int) (depth, selectivity int) {
	switch {
	case o.Exact:
		return empties, NoSelectivity
	case o.Depth > 0:
		return min(o.Depth, empties), othello.Clamp(o.Selectivity, 0, NoSelectivity)
	}
	return LevelDepth(o.Level, empties)
}

// Iteration is the result of one completed iteration.
type Iteration struct {
	Move        othello.Square   `json:"move"`
	Score       int              `json:"score"`
	Bound       Bound            `json:"bound"`
	Depth       int              `json:"depth"`
	Selectivity int              `json:"selectivity"`
	Nodes       uint64           `json:"nodes"`
	Elapsed     time.Duration    `json:"elapsed"`
	PV          []othello.Square `json:"pv"`
}

// Probability returns the ProbCut confidence of the iteration in percent.
func (it Iteration) Probability() int {
	return selectivityPercent[othello.Clamp(it.Selectivity, 0, NoSelectivity)]
}

func (it Iteration) String() string {
	return fmt.Sprintf("depth %d@%d%% %s %+d (%s) nodes %d", it.Depth, it.Probability(), it.Move, it.Score, it.Bound, it.Nodes)
}

// SearchResult is the outcome of a search. Complete is false when the budget
// ran out before the configured depth was reached; the other fields then
// describe the last completed iteration.
type SearchResult struct {
	Iteration
	Complete bool `json:"complete"`
}

// Search finds the best move of p from the side to move. Running out of
// time or nodes, or cancellation of ctx, is not an error: the result of
// the last completed iteration is returned.
func (e *Engine) Search(ctx context.Context, p othello.Position, opts SearchOptions) (*SearchResult, error) {
	if p.Player&p.Opponent != 0 {
		return nil, fmt.Errorf("%w: overlapping discs", ErrInvalidPosition)
	}
	start := time.Now()
	if opts.MaxTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.MaxTime)
		defer cancel()
	}

	empties := p.CountEmpty()
	depth, selectivity := opts.resolve(empties)

	e.tables.NewSearch()
	ctrl := newControl(ctx, opts.MaxNodes)
	s := newSearcher(e.tables, e.eval, ctrl)
	s.threads = e.opts.Threads
	s.log = e.log

	var res *SearchResult
	if depth == 0 && !p.IsTerminal() {
		res = s.randomMove(p)
	} else {
		res = s.iterativeDeepening(p, depth, selectivity, start, opts.OnIteration)
	}
	s.flush()
	res.Nodes = ctrl.nodes.Load()
	res.Elapsed = time.Since(start)

	e.searches.Add(1)
	e.nodes.Add(res.Nodes)
	e.log.Debug().
		Str("move", res.Move.String()).
		Int("score", res.Score).
		Int("depth", res.Depth).
		Int("selectivity", res.Selectivity).
		Uint64("nodes", res.Nodes).
		Dur("elapsed", res.Elapsed).
		Bool("complete", res.Complete).
		Msg("search done")
	return res, nil
}

// BestMove returns the move Search would play at the given level.
func (e *Engine) BestMove(ctx context.Context, p othello.Position, level int) (othello.Square, error) {
	if p.IsTerminal() {
		return othello.NoMove, ErrGameOver
	}
	res, err := e.Search(ctx, p, SearchOptions{Level: level})
	if err != nil {
		return othello.NoMove, err
	}
	return res.Move, nil
}

// randomMove plays level 0: any legal move.
func (s *searcher) randomMove(p othello.Position) *SearchResult {
	return &SearchResult{
		Iteration: Iteration{
			Move:        othello.RandomMove(p, randSource{}),
			Score:       s.eval0(p),
			Selectivity: NoSelectivity,
		},
		Complete: true,
	}
}

func (s *searcher) iteration(p othello.Position, out Outcome, move othello.Square, depth int, start time.Time) Iteration {
	return Iteration{
		Move:        move,
		Score:       out.Score,
		Bound:       out.Bound,
		Depth:       depth,
		Selectivity: s.selectivity,
		Nodes:       s.ctrl.nodes.Load() + s.pending,
		Elapsed:     time.Since(start),
		PV:          s.principalVariation(p, move, out, depth),
	}
}

// iterativeDeepening searches one ply deeper per iteration up to depth,
// then, when the game is to be solved, repeats the solve with increasing
// selectivity up to the target.
func (s *searcher) iterativeDeepening(p othello.Position, depth, selectivity int, start time.Time, onIter func(Iteration)) *SearchResult {
	empties := p.CountEmpty()
	if p.IsTerminal() {
		return &SearchResult{
			Iteration: Iteration{
				Move:        othello.NoMove,
				Score:       s.solve(p),
				Depth:       empties,
				Selectivity: NoSelectivity,
			},
			Complete: true,
		}
	}

	s.rootLower, s.rootUpper = stabilityBound(p)
	s.root = newMoveList(p, p.Moves())

	solving := depth >= empties
	end := depth
	if solving {
		end = max(1, empties-iterativeMinEmpties+2)
	}

	first := 1
	s.selectivity = NoSelectivity
	if depth > 10 {
		s.selectivity = 0
	}
	score := othello.Clamp(s.eval0(p), s.rootLower, s.rootUpper)
	hd, found := s.hashData(p)
	if found && hd.Lower == hd.Upper {
		first = int(hd.Depth)
		s.selectivity = int(hd.Selectivity)
		score = int(hd.Lower)
	} else if !found {
		hd = emptyHashData
	}
	s.selectivity = min(s.selectivity, selectivity)
	if first < empties {
		first = min(first, end)
	}

	if s.root.n > 1 {
		s.evaluateMoveList(p, &s.root, hd, ScoreMin, 0)
		s.root.sort()
	}
	res := &SearchResult{Iteration: Iteration{Move: othello.Pass, Score: score}}
	if s.root.n > 0 {
		res.Move = s.root.moves[0].sq
	}

	record := func(out Outcome, move othello.Square, d int) {
		res.Iteration = s.iteration(p, out, move, d, start)
		score = out.Score
		s.log.Debug().Int("depth", d).Int("selectivity", s.selectivity).Int("score", score).Str("move", move.String()).Msg("iteration")
		if onIter != nil {
			onIter(res.Iteration)
		}
	}

	for d := first; d < end; d++ {
		s.pvExtension = pvExtension(d, empties)
		out, move, ok := s.aspiration(p, ScoreMin, ScoreMax, d, score)
		if !ok {
			return res
		}
		record(out, move, d)
		if abs(score) >= ScoreMax-1 && d > end-iterativeMinEmpties && solving {
			break
		}
	}

	final := end
	if solving {
		final = empties
	}
	s.pvExtension = pvExtension(final, empties)
	for s.selectivity <= selectivity {
		if final == empties && s.jumpToTarget(final, score) {
			s.selectivity = selectivity
		}
		out, move, ok := s.aspiration(p, ScoreMin, ScoreMax, final, score)
		if !ok {
			return res
		}
		record(out, move, final)
		s.selectivity++
	}
	s.selectivity = selectivity
	res.Complete = true
	return res
}

// jumpToTarget reports whether the remaining selectivity steps of a solve
// are cheap enough to skip.
func (s *searcher) jumpToTarget(depth, score int) bool {
	sel := s.selectivity
	return (depth < 21 && sel >= 1) ||
		(depth < 27 && sel >= 3) ||
		(depth < 30 && sel >= 4) ||
		(depth < 30 && sel >= 2) ||
		abs(score) >= ScoreMax
}

// aspiration searches the root with a window centred on the expected score,
// widening the failing side until the score falls inside. The result is
// tagged exact unless the search was interrupted.
func (s *searcher) aspiration(p othello.Position, alpha, beta, depth, score int) (Outcome, othello.Square, bool) {
	empties := p.CountEmpty()
	solving := isDepthSolving(depth, empties)
	if solving {
		// exact scores are even
		alpha -= alpha & 1
		beta += beta & 1
	}
	alpha = max(alpha, othello.Clamp(s.rootLower-2, ScoreMin, ScoreMax))
	beta = min(beta, othello.Clamp(s.rootUpper+2, ScoreMin, ScoreMax))
	score = othello.Clamp(score, alpha, beta)

	width := max(1, 10-depth)
	if width&1 == 1 && depth == empties {
		width++
	}

	for round := 0; round < 10; round++ {
		if beta-alpha <= 2*width {
			out, move := s.pvsRoot(p, alpha, beta, depth)
			return out, move, s.running()
		}

		left := max(1, round) * width
		right := left
		var out Outcome
		var move othello.Square
		var lo, hi int
		settled := false
	widen:
		for {
			lo = max(score-left, alpha)
			hi = min(score+right, beta)
			if lo >= hi {
				break
			}
			lo, hi = min(lo, ScoreMax-1), max(hi, ScoreMin+1)
			out, move = s.pvsRoot(p, lo, hi, depth)
			if !s.running() {
				return out, move, false
			}
			score = out.Score
			switch {
			case score <= lo && score > alpha && left > 0:
				left *= 2
				right = 0
			case score >= hi && score < beta && right > 0:
				left = 0
				right *= 2
			default:
				settled = true
				break widen
			}
		}
		if settled && (out.Bound == BoundExact || (out.Bound == BoundUpper && lo <= alpha) || (out.Bound == BoundLower && hi >= beta)) {
			out.Bound = classify(out.Score, alpha, beta).Bound
			return out, move, true
		}
	}

	out, move := s.pvsRoot(p, ScoreMin, ScoreMax, depth)
	return out, move, s.running()
}

// principalVariation rebuilds the best line from the pv and hash tables.
// A stored move is followed only while its entry is at least as deep and
// selective as expected and agrees with the score.
func (s *searcher) principalVariation(p othello.Position, move othello.Square, out Outcome, depth int) []othello.Square {
	if move == othello.NoMove {
		return nil
	}
	pv := []othello.Square{move}
	lower, upper := out.bounds()
	if move == othello.Pass {
		p = p.Pass()
	} else {
		p = p.Play(move)
		depth--
	}
	lower, upper = -upper, -lower

	for depth > 0 && len(pv) < 64 && !p.IsTerminal() {
		hd, ok := s.hashData(p)
		if !ok || int(hd.Depth) < depth || int(hd.Selectivity) < s.selectivity ||
			int(hd.Upper) > upper || int(hd.Lower) < lower {
			break
		}
		x := hd.Moves[0]
		switch {
		case x == othello.Pass && !p.HasMoves():
			p = p.Pass()
		case x.Valid() && p.IsLegal(x):
			p = p.Play(x)
			depth--
		default:
			return pv
		}
		pv = append(pv, x)
		lower, upper = -upper, -lower
	}
	return pv
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
