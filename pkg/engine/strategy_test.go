package engine

import "testing"

func TestSelectStrategy(t *testing.T) {
	tests := []struct {
		nullWindow     bool
		pvExtension    int
		empties, depth int
		want           strategy
		wantDepth      int
	}{
		{true, -1, 0, 5, strategySolve, 0},
		{true, -1, 20, 0, strategyEval0, 0},
		{true, -1, 20, 1, strategyEval1, 1},
		{true, -1, 1, 1, strategyNWSEndgame, 1},
		{true, -1, 20, 2, strategyEval2, 2},
		{true, -1, 20, 3, strategyNWSShallow, 3},
		{true, -1, 3, 3, strategyNWSEndgame, 3},
		{true, -1, 12, 14, strategyNWSEndgame, 12},
		{true, -1, 20, 10, strategyNWSMidgame, 10},
		{true, -1, 16, 16, strategyNWSMidgame, 16},
		{false, -1, 0, 3, strategySolve, 0},
		{false, -1, 20, 0, strategyEval0, 0},
		{false, -1, 20, 1, strategyEval1, 1},
		{false, -1, 20, 2, strategyEval2, 2},
		{false, -1, 2, 2, strategyPVSMidgame, 2},
		{false, -1, 20, 3, strategyPVSMidgame, 3},
		{false, 12, 10, 4, strategyPVSMidgame, 10},
		{false, 12, 12, 4, strategyPVSMidgame, 4},
		{false, 12, 11, 0, strategyPVSMidgame, 11},
	}
	for _, tt := range tests {
		s := newTestSearcher()
		s.pvExtension = tt.pvExtension
		got, depth := s.selectStrategy(tt.nullWindow, tt.empties, tt.depth)
		if got != tt.want || depth != tt.wantDepth {
			t.Errorf("selectStrategy(%v, %d, %d) with extension %d = %v@%d, want %v@%d",
				tt.nullWindow, tt.empties, tt.depth, tt.pvExtension, got, depth, tt.want, tt.wantDepth)
		}
	}
}

func TestStrategyString(t *testing.T) {
	if got := strategyNWSMidgame.String(); got != "nws_midgame" {
		t.Errorf("String() = %q", got)
	}
}
