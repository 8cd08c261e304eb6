package engine

import (
	"sync"
	"testing"

	"github.com/lk16/swap/internal/othello"
)

func testPos(i int) othello.Position {
	return othello.Position{Player: 1 << uint(i%30), Opponent: 1 << uint(30+i/30)}
}

func TestNewHashTableCapacity(t *testing.T) {
	tests := []struct {
		capacity int
		want     int
	}{
		{-3, 1},
		{0, 1},
		{1, 1},
		{3, 3},
		{4, 4},
		{5, 8},
		{1000, 1024},
		{1 << 16, 1 << 16},
	}
	for _, tt := range tests {
		if got := NewHashTable(tt.capacity).Capacity(); got != tt.want {
			t.Errorf("NewHashTable(%d).Capacity() = %d, want %d", tt.capacity, got, tt.want)
		}
	}
}

func TestHashTableCapacityOne(t *testing.T) {
	ht := NewHashTable(1)
	p1, p2 := testPos(1), testPos(2)

	ht.Store(StoreArgs{Position: p1, Depth: 3, Alpha: -1, Beta: 1, Score: 0, Move: 19})
	if _, ok := ht.Get(p1); !ok {
		t.Fatal("expected hit after store")
	}
	ht.Store(StoreArgs{Position: p2, Depth: 3, Alpha: -1, Beta: 1, Score: 0, Move: 19})
	if _, ok := ht.Get(p1); ok {
		t.Error("first entry should have been replaced")
	}
	if _, ok := ht.Get(p2); !ok {
		t.Error("expected hit for second entry")
	}
}

func TestHashTableStoreBounds(t *testing.T) {
	tests := []struct {
		name         string
		alpha, beta  int
		score        int
		lower, upper int8
		move         othello.Square
	}{
		{"exact", -10, 10, 4, 4, 4, 19},
		{"fail low", 5, 6, 2, -64, 2, othello.NoMove},
		{"fail high", 5, 6, 12, 12, 64, 19},
		{"lost", -64, -63, -64, -64, -64, 19},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ht := NewHashTable(16)
			p := testPos(3)
			ht.Store(StoreArgs{Position: p, Depth: 4, Selectivity: 2, Cost: 7, Alpha: tt.alpha, Beta: tt.beta, Score: tt.score, Move: 19})
			d, ok := ht.Get(p)
			if !ok {
				t.Fatal("miss after store")
			}
			if d.Lower != tt.lower || d.Upper != tt.upper {
				t.Errorf("bounds = [%d, %d], want [%d, %d]", d.Lower, d.Upper, tt.lower, tt.upper)
			}
			if d.Moves[0] != tt.move {
				t.Errorf("move = %v, want %v", d.Moves[0], tt.move)
			}
			if d.Depth != 4 || d.Selectivity != 2 || d.Cost != 7 {
				t.Errorf("depth/selectivity/cost = %d/%d/%d", d.Depth, d.Selectivity, d.Cost)
			}
		})
	}
}

func TestHashTableUpdate(t *testing.T) {
	ht := NewHashTable(16)
	p := testPos(4)
	d3, c4 := othello.Square(19), othello.Square(26)

	ht.Store(StoreArgs{Position: p, Depth: 5, Alpha: 0, Beta: 1, Score: 3, Move: d3})
	ht.Store(StoreArgs{Position: p, Depth: 5, Alpha: 10, Beta: 11, Score: 8, Move: c4})
	d, _ := ht.Get(p)
	if d.Lower != 3 || d.Upper != 8 {
		t.Errorf("bounds = [%d, %d], want [3, 8]", d.Lower, d.Upper)
	}
	if d.Moves != [2]othello.Square{d3, othello.NoMove} {
		t.Errorf("moves = %v, a fail low must not replace the move", d.Moves)
	}

	ht.Store(StoreArgs{Position: p, Depth: 5, Cost: 9, Alpha: 4, Beta: 5, Score: 5, Move: c4})
	d, _ = ht.Get(p)
	if d.Lower != 5 || d.Upper != 8 {
		t.Errorf("bounds = [%d, %d], want [5, 8]", d.Lower, d.Upper)
	}
	if d.Moves != [2]othello.Square{c4, d3} {
		t.Errorf("moves = %v, want [c4 d3]", d.Moves)
	}
	if d.Cost != 9 {
		t.Errorf("cost = %d, want 9", d.Cost)
	}
}

func TestHashTableUpgradeAndShallowStore(t *testing.T) {
	ht := NewHashTable(16)
	p := testPos(5)

	ht.Store(StoreArgs{Position: p, Depth: 5, Alpha: -10, Beta: 10, Score: 3, Move: 19})
	ht.Store(StoreArgs{Position: p, Depth: 7, Alpha: 1, Beta: 2, Score: 2, Move: 26})
	d, _ := ht.Get(p)
	if d.Depth != 7 || d.Lower != 2 || d.Upper != 64 {
		t.Errorf("after upgrade depth %d bounds [%d, %d], want depth 7 [2, 64]", d.Depth, d.Lower, d.Upper)
	}

	ht.Store(StoreArgs{Position: p, Depth: 3, Alpha: -10, Beta: 10, Score: -5, Move: 37})
	d, _ = ht.Get(p)
	if d.Depth != 7 || d.Lower != 2 || d.Upper != 64 {
		t.Errorf("shallow store changed bounds: depth %d [%d, %d]", d.Depth, d.Lower, d.Upper)
	}
	if d.Moves[0] != 37 || d.Moves[1] != 26 {
		t.Errorf("moves = %v, want move hint refreshed", d.Moves)
	}

	ht.Store(StoreArgs{Position: p, Depth: 7, Selectivity: 3, Alpha: -10, Beta: 10, Score: 6, Move: 26})
	d, _ = ht.Get(p)
	if d.Selectivity != 3 || d.Lower != 6 || d.Upper != 6 {
		t.Errorf("more selective store: selectivity %d [%d, %d]", d.Selectivity, d.Lower, d.Upper)
	}
}

func TestHashTableInconsistentBoundsReset(t *testing.T) {
	ht := NewHashTable(16)
	p := testPos(6)

	ht.Store(StoreArgs{Position: p, Depth: 5, Alpha: 0, Beta: 1, Score: 3, Move: 19})
	ht.Store(StoreArgs{Position: p, Depth: 5, Alpha: 0, Beta: 1, Score: -2, Move: 26})
	d, _ := ht.Get(p)
	if d.Lower != -64 || d.Upper != -2 {
		t.Errorf("bounds = [%d, %d], want [-64, -2]", d.Lower, d.Upper)
	}
}

func TestHashTableReplacement(t *testing.T) {
	ht := NewHashTable(4)
	for i := 0; i < 4; i++ {
		ht.Store(StoreArgs{Position: testPos(i), Depth: 10 + i, Score: 0, Alpha: -1, Beta: 1})
	}
	for i := 0; i < 4; i++ {
		if _, ok := ht.Get(testPos(i)); !ok {
			t.Fatalf("entry %d missing from a non-full bucket", i)
		}
	}

	ht.Store(StoreArgs{Position: testPos(4), Depth: 1, Score: 0, Alpha: -1, Beta: 1})
	if _, ok := ht.Get(testPos(0)); ok {
		t.Error("shallowest entry should have been evicted")
	}

	ht.NewSearch()
	ht.Get(testPos(1))
	ht.Get(testPos(4))
	ht.Store(StoreArgs{Position: testPos(5), Depth: 1, Score: 0, Alpha: -1, Beta: 1})
	if _, ok := ht.Get(testPos(1)); !ok {
		t.Error("entry refreshed in the current search was evicted")
	}
	if _, ok := ht.Get(testPos(2)); ok {
		t.Error("oldest shallowest entry should have been evicted")
	}
}

func TestHashTableClear(t *testing.T) {
	ht := NewHashTable(64)
	p := testPos(7)
	ht.Store(StoreArgs{Position: p, Depth: 2, Alpha: -1, Beta: 1, Score: 0})
	ht.Get(p)

	ht.Clear()
	if _, ok := ht.Get(p); ok {
		t.Error("entry survived Clear")
	}
	if s := ht.Stats(); s.Stores != 0 || s.Hits != 0 || s.Lookups != 1 {
		t.Errorf("stats after clear = %+v", s)
	}
}

func TestHashTableDateWraps(t *testing.T) {
	ht := NewHashTable(64)
	p := testPos(8)
	ht.Store(StoreArgs{Position: p, Depth: 2, Alpha: -1, Beta: 1, Score: 0})
	for i := 0; i < maxDate; i++ {
		ht.NewSearch()
	}
	if _, ok := ht.Get(p); ok {
		t.Error("table should be wiped when the date runs out")
	}
	if d := ht.currentDate(); d == 0 || d >= maxDate {
		t.Errorf("date = %d after wrap", d)
	}
}

func TestHashTableConcurrent(t *testing.T) {
	ht := NewHashTable(1 << 10)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 2000; i++ {
				p := testPos(i % 600)
				if i%3 == 0 {
					ht.Get(p)
					continue
				}
				ht.Store(StoreArgs{Position: p, Depth: i % 20, Alpha: -1, Beta: 1, Score: g - 4, Move: othello.Square(i % 64)})
			}
		}(g)
	}
	wg.Wait()

	if s := ht.Stats(); s.Lookups == 0 || s.Stores == 0 {
		t.Errorf("stats = %+v", s)
	}
}

func TestTableStatsHitRate(t *testing.T) {
	if got := (TableStats{}).HitRate(); got != 0 {
		t.Errorf("HitRate of empty stats = %v", got)
	}
	if got := (TableStats{Lookups: 4, Hits: 1}).HitRate(); got != 25 {
		t.Errorf("HitRate = %v, want 25", got)
	}
}
