package engine

import (
	"context"
	"testing"

	"github.com/lk16/swap/internal/othello"
)

func TestAnalyzeExact(t *testing.T) {
	e := newTestEngine(t, 1)
	for _, p := range endgamePositions(110, 8, 6) {
		if p.IsTerminal() {
			continue
		}
		a, err := e.Analyze(context.Background(), p, SearchOptions{Exact: true})
		if err != nil {
			t.Fatalf("Analyze failed: %v", err)
		}
		if !a.Complete || a.Depth != 8 {
			t.Errorf("complete %v depth %d", a.Complete, a.Depth)
		}

		want := len(p.LegalMoves())
		if want == 0 {
			want = 1
		}
		if len(a.Moves) != want {
			t.Fatalf("got %d moves, want %d", len(a.Moves), want)
		}
		for i, ms := range a.Moves {
			child := p.Pass()
			if ms.Move != othello.Pass {
				child = p.Play(ms.Move)
			}
			if got := -exact(child); ms.Score != got || ms.Bound != BoundExact {
				t.Errorf("%v: %+d (%v), want exact %+d", ms.Move, ms.Score, ms.Bound, got)
			}
			if i > 0 && ms.Score > a.Moves[i-1].Score {
				t.Errorf("moves not sorted: %+d after %+d", ms.Score, a.Moves[i-1].Score)
			}
			if ms.PV[0] != ms.Move {
				t.Errorf("pv %v does not start with %v", ms.PV, ms.Move)
			}
		}
		if best := a.Best(); best.Score != exact(p) {
			t.Errorf("best %+d, want %+d", best.Score, exact(p))
		}
	}
}

func TestAnalyzeMidgame(t *testing.T) {
	e := newTestEngine(t, 1)
	p := othello.Start()
	for _, depth := range []int{1, 3} {
		a, err := e.Analyze(context.Background(), p, SearchOptions{Depth: depth, Selectivity: NoSelectivity})
		if err != nil {
			t.Fatalf("Analyze failed: %v", err)
		}
		if len(a.Moves) != 4 {
			t.Fatalf("depth %d: got %d moves, want 4", depth, len(a.Moves))
		}
		for _, ms := range a.Moves {
			if !p.IsLegal(ms.Move) {
				t.Errorf("illegal move %v", ms.Move)
			}
			if ms.Score < ScoreMin || ms.Score > ScoreMax {
				t.Errorf("%v scores %d", ms.Move, ms.Score)
			}
		}
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	e := newTestEngine(t, 1)
	a, err := e.Analyze(context.Background(), othello.Position{Player: 1}, DefaultSearchOptions())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(a.Moves) != 0 || a.Best().Move != othello.NoMove {
		t.Errorf("finished game analysis = %+v", a)
	}
	if _, err := e.Analyze(context.Background(), othello.Position{Player: 1, Opponent: 1}, DefaultSearchOptions()); err == nil {
		t.Error("expected an error for overlapping discs")
	}
}
