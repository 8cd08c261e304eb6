package engine

import "github.com/lk16/swap/internal/othello"

// strategy is the routine that searches one node.
type strategy uint8

const (
	strategySolve      strategy = iota // game decided: final score
	strategyEval0                      // static evaluation
	strategyEval1                      // one ply over static evaluations
	strategyEval2                      // two plies over static evaluations
	strategyNWSShallow                 // shallow null window search
	strategyNWSEndgame                 // exact null window search
	strategyNWSMidgame                 // null window search with ProbCut and ETC
	strategyPVSMidgame                 // principal variation search
)

var strategyNames = [...]string{
	"solve", "eval0", "eval1", "eval2", "nws_shallow", "nws_endgame", "nws_midgame", "pvs_midgame",
}

func (st strategy) String() string { return strategyNames[st] }

// selectStrategy picks the routine for a node from the window width, the
// remaining depth and the number of empties. It may extend the depth of
// principal variation nodes close to the end so they are solved.
func (s *searcher) selectStrategy(nullWindow bool, empties, depth int) (strategy, int) {
	if nullWindow {
		switch {
		case empties == 0:
			return strategySolve, 0
		case depth == 0:
			return strategyEval0, 0
		case depth == 1 && empties > 1:
			return strategyEval1, depth
		case depth == 2 && empties > 2:
			return strategyEval2, depth
		case depth <= 3 && depth < empties:
			return strategyNWSShallow, depth
		case empties <= depth && depth <= midgameToEndgame:
			return strategyNWSEndgame, empties
		}
		return strategyNWSMidgame, depth
	}

	if depth < empties && empties < s.pvExtension {
		depth = empties
	}
	switch {
	case empties == 0:
		return strategySolve, 0
	case depth == 0:
		return strategyEval0, 0
	case depth == 1 && empties > 1:
		return strategyEval1, depth
	case depth == 2 && empties > 2:
		return strategyEval2, depth
	}
	return strategyPVSMidgame, depth
}

// search returns the value of p searched to depth within (alpha, beta),
// tagged with how it relates to that window. It is the only entry point of
// the recursion: every node goes through selectStrategy.
func (s *searcher) search(p othello.Position, alpha, beta, depth int, n node) Outcome {
	empties := p.CountEmpty()
	st, depth := s.selectStrategy(beta-alpha == 1, empties, depth)

	var score int
	switch st {
	case strategySolve:
		score = s.solve(p)
	case strategyEval0:
		score = s.eval0(p)
	case strategyEval1:
		score = s.eval1(p, alpha, beta)
	case strategyEval2:
		score = s.eval2(p, alpha, beta)
	case strategyNWSShallow:
		score = s.nwsShallow(p, alpha, depth, s.hash)
	case strategyNWSEndgame:
		score = s.nwsEndgame(p, alpha)
	case strategyNWSMidgame:
		score = s.nwsMidgame(p, alpha, depth, n)
	case strategyPVSMidgame:
		score = s.pvsMidgame(p, alpha, beta, depth, n)
	}
	return classify(score, alpha, beta)
}

// value is search without the bound tag.
func (s *searcher) value(p othello.Position, alpha, beta, depth int, n node) int {
	return s.search(p, alpha, beta, depth, n).Score
}
