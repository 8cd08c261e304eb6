package engine

import (
	"cmp"
	"math/bits"
	"slices"

	"github.com/lk16/swap/internal/othello"
)

// maxMoves is the largest number of legal moves an Othello position can have
const maxMoves = 33

// Ordering weights
const (
	wipeoutValue   = 1 << 30
	firstHashMove  = 1 << 29
	secondHashMove = 1 << 28

	potentialMobilityWeight = 1 << 5
	stabilityWeight         = 1 << 11
	mobilityWeight          = 1 << 15
)

func firstSquare(b uint64) othello.Square { return othello.Square(bits.TrailingZeros64(b)) }

// scoredMove is a legal move with its flips and ordering score
type scoredMove struct {
	sq    othello.Square
	flips uint64
	score int
}

// moveList holds the legal moves of a position without allocating.
type moveList struct {
	moves [maxMoves]scoredMove
	n     int
}

func newMoveList(p othello.Position, moves uint64) moveList {
	var l moveList
	for ; moves != 0; moves &= moves - 1 {
		sq := firstSquare(moves)
		l.moves[l.n] = scoredMove{sq: sq, flips: p.Flips(sq)}
		l.n++
	}
	return l
}

func (l *moveList) all() []scoredMove { return l.moves[:l.n] }

// sort orders moves from best to worst, keeping square order among ties.
func (l *moveList) sort() {
	slices.SortStableFunc(l.moves[:l.n], func(a, b scoredMove) int {
		return cmp.Compare(b.score, a.score)
	})
}

// evaluateMoveList scores every move for ordering. Deep nodes get a shallow
// search per move, shallow ones cheap mobility and stability heuristics.
func (s *searcher) evaluateMoveList(p othello.Position, l *moveList, hd HashData, alpha, depth int) {
	empties := p.CountEmpty()

	minDepth := 9
	if empties <= 27 {
		minDepth += (30 - empties) / 3
	}
	sortDepth := -1
	if depth >= minDepth {
		sortDepth = (depth - midgameToEndgame) / 3
		if pd, ok := s.pv.Get(p); ok && int(pd.Upper) < alpha {
			sortDepth -= 2
		}
		if empties >= 27 {
			sortDepth++
		}
		sortDepth = othello.Clamp(sortDepth, 0, 6)
	}
	sortAlpha := max(ScoreMin, alpha-sortAlphaDelta)
	parity := othello.Parity(p.Empties())

	for i := range l.all() {
		m := &l.moves[i]
		m.score = s.evaluateMove(p, m, hd, sortAlpha, sortDepth, empties, parity)
	}
}

func (s *searcher) evaluateMove(p othello.Position, m *scoredMove, hd HashData, sortAlpha, sortDepth, empties int, parity uint32) int {
	switch {
	case m.flips == p.Opponent:
		return wipeoutValue
	case m.sq == hd.Moves[0]:
		return firstHashMove
	case m.sq == hd.Moves[1]:
		return secondHashMove
	}

	score := othello.SquareValue[m.sq]
	if parity&othello.QuadrantID[m.sq] != 0 {
		switch {
		case empties < 12:
			score += 8
		case empties < 21:
			score += 4
		case empties < 30:
			score += 2
		}
	}

	child := p.PlayFlips(m.sq, m.flips)
	score += (36 - child.PotentialMobility()) * potentialMobilityWeight
	score += (36 - child.WeightedMobility()) * mobilityWeight
	if sortDepth < 0 {
		return score + othello.CornerStability(child.Opponent)*stabilityWeight
	}
	score += othello.EdgeStability(child.Opponent, child.Player) * stabilityWeight

	saved := s.selectivity
	s.selectivity = NoSelectivity
	switch sortDepth {
	case 0:
		score += ((ScoreMax - s.eval0(child)) >> 2) * mobilityWeight
	case 1:
		score += ((ScoreMax - s.eval1(child, ScoreMin, -sortAlpha)) >> 1) * mobilityWeight
	case 2:
		score += ((ScoreMax - s.eval2(child, ScoreMin, -sortAlpha)) >> 1) * mobilityWeight
	default:
		score += (ScoreMax - s.pvsShallow(child, ScoreMin, -sortAlpha, sortDepth)) * mobilityWeight
		if _, ok := s.hash.Get(child); ok {
			score += mobilityWeight
		}
	}
	s.selectivity = saved
	return score
}
