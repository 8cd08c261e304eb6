package engine

import (
	"context"
	"testing"

	"lukechampine.com/frand"

	"github.com/lk16/swap/internal/eval"
	"github.com/lk16/swap/internal/othello"
)

func testRNG(seed byte) *frand.RNG {
	s := make([]byte, 32)
	s[0] = seed
	return frand.NewCustom(s, 1024, 12)
}

func newTestSearcher() *searcher {
	t := Tables{
		Hash:    NewHashTable(1 << 12),
		PV:      NewHashTable(1 << 8),
		Shallow: NewHashTable(1 << 10),
	}
	return newSearcher(t, eval.New(nil), newControl(context.Background(), 0))
}

// minimax is a plain alpha-beta solver used as the reference.
func minimax(p othello.Position, alpha, beta int) int {
	moves := p.Moves()
	if moves == 0 {
		if !p.OpponentHasMoves() {
			return p.FinalScore()
		}
		return -minimax(p.Pass(), -beta, -alpha)
	}
	best := -scoreInf
	for ; moves != 0; moves &= moves - 1 {
		score := -minimax(p.Play(firstSquare(moves)), -beta, -alpha)
		if score > best {
			best = score
			if best >= beta {
				break
			}
			alpha = max(alpha, best)
		}
	}
	return best
}

func exact(p othello.Position) int { return minimax(p, ScoreMin-1, ScoreMax+1) }

// endgamePositions returns up to count random positions with exactly n
// empties, including positions where the side to move must pass.
func endgamePositions(seed byte, n, count int) []othello.Position {
	rng := testRNG(seed)
	var out []othello.Position
	for tries := 0; len(out) < count && tries < 50*count; tries++ {
		p := othello.RandomPosition(rng, 60-n)
		if p.CountEmpty() != n {
			continue
		}
		if tries%5 == 0 {
			p = p.Pass()
		}
		out = append(out, p)
	}
	return out
}

// checkNullWindow verifies a fail-soft null window result against the
// true value of the position.
func checkNullWindow(t *testing.T, p othello.Position, alpha, got, want int) {
	t.Helper()
	if got <= alpha {
		if want > got {
			t.Errorf("%v\nalpha %d: fail low %d but value is %d", p, alpha, got, want)
		}
	} else if want < got {
		t.Errorf("%v\nalpha %d: fail high %d but value is %d", p, alpha, got, want)
	}
}

func TestSolve1(t *testing.T) {
	positions := endgamePositions(1, 1, 200)
	if len(positions) == 0 {
		t.Fatal("no positions generated")
	}
	s := newTestSearcher()
	for _, p := range positions {
		sq := firstSquare(p.Empties())
		if got, want := s.solve1(p, sq), exact(p); got != want {
			t.Errorf("%v\nsolve1 = %d, want %d", p, got, want)
		}
	}
}

func TestSmallSolversNullWindow(t *testing.T) {
	s := newTestSearcher()
	solvers := []struct {
		name    string
		empties int
		solve   func(othello.Position, int) int
	}{
		{"solve2", 2, s.solve2},
		{"solve3", 3, s.solve3},
		{"solve4", 4, s.solve4},
		{"endgameShallow5", 5, func(p othello.Position, alpha int) int { return s.endgameShallow(p, alpha, 5) }},
		{"endgameShallow7", 7, func(p othello.Position, alpha int) int { return s.endgameShallow(p, alpha, 7) }},
	}
	for i, tt := range solvers {
		t.Run(tt.name, func(t *testing.T) {
			for _, p := range endgamePositions(byte(10+i), tt.empties, 40) {
				want := exact(p)
				for _, alpha := range []int{-64, want - 3, want - 1, want, want + 2, 63} {
					alpha = othello.Clamp(alpha, ScoreMin, ScoreMax-1)
					checkNullWindow(t, p, alpha, tt.solve(p, alpha), want)
				}
			}
		})
	}
}

func TestNWSEndgame(t *testing.T) {
	s := newTestSearcher()
	for _, p := range endgamePositions(20, 10, 12) {
		want := exact(p)
		for _, alpha := range []int{want - 2, want - 1, want, want + 1} {
			alpha = othello.Clamp(alpha, ScoreMin, ScoreMax-1)
			checkNullWindow(t, p, alpha, s.nwsEndgame(p, alpha), want)
		}
	}
}

func TestSolveExact(t *testing.T) {
	for _, n := range []int{0, 3, 8, 11} {
		for _, p := range endgamePositions(byte(30+n), n, 6) {
			if got, want := SolveExact(p), exact(p); got != want {
				t.Errorf("%d empties: SolveExact = %d, want %d\n%v", n, got, want, p)
			}
		}
	}
}

func TestParitySquares(t *testing.T) {
	for _, p := range endgamePositions(40, 4, 30) {
		var buf [4]othello.Square
		sqs := paritySquares(p, buf[:])
		if len(sqs) != 4 {
			t.Fatalf("got %d squares, want 4", len(sqs))
		}
		var seen uint64
		for _, sq := range sqs {
			seen |= sq.Bit()
		}
		if seen != p.Empties() {
			t.Errorf("parity squares %v do not cover the empties", sqs)
		}

		odd := quadrantMasks[othello.Parity(p.Empties())]
		inOdd := true
		for _, sq := range sqs {
			if odd&sq.Bit() == 0 {
				inOdd = false
			} else if !inOdd {
				t.Errorf("odd quadrant square %v after an even one in %v", sq, sqs)
			}
		}
	}
}
