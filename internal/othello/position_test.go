package othello

import (
	"errors"
	"math/bits"
	"strings"
	"testing"

	"lukechampine.com/frand"
)

func testRNG(seed byte) *frand.RNG {
	s := make([]byte, 32)
	s[0] = seed
	return frand.NewCustom(s, 1024, 12)
}

func TestStartPosition(t *testing.T) {
	p := Start()

	if p.CountPlayer() != 2 || p.CountOpponent() != 2 {
		t.Fatalf("start discs = %d/%d, want 2/2", p.CountPlayer(), p.CountOpponent())
	}
	if p.CountEmpty() != 60 {
		t.Errorf("start empties = %d, want 60", p.CountEmpty())
	}

	want := map[string]bool{"d3": true, "c4": true, "f5": true, "e6": true}
	moves := p.LegalMoves()
	if len(moves) != len(want) {
		t.Fatalf("got %d moves %v, want 4", len(moves), moves)
	}
	for _, m := range moves {
		if !want[m.String()] {
			t.Errorf("unexpected first move %v", m)
		}
		if f := p.Flips(m); bits.OnesCount64(f) != 1 {
			t.Errorf("move %v flips %d discs, want 1", m, bits.OnesCount64(f))
		}

		child := p.Play(m)
		// After the move the roles are swapped: Opponent is black.
		if child.CountOpponent() != 4 {
			t.Errorf("after %v black has %d discs, want 4", m, child.CountOpponent())
		}
		if child.CountPlayer() != 1 {
			t.Errorf("after %v white has %d discs, want 1", m, child.CountPlayer())
		}
	}
}

func TestLegalMovesFlipAndGrow(t *testing.T) {
	rng := testRNG(1)
	for game := 0; game < 50; game++ {
		p := Start()
		for !p.IsTerminal() {
			if !p.HasMoves() {
				p = p.Pass()
				continue
			}
			discs := bits.OnesCount64(p.Player | p.Opponent)
			for _, m := range p.LegalMoves() {
				if p.Flips(m) == 0 {
					t.Fatalf("legal move %v flips nothing\n%v", m, p)
				}
				child := p.Play(m)
				if child.Player&child.Opponent != 0 {
					t.Fatalf("move %v produced overlapping discs", m)
				}
				if got := bits.OnesCount64(child.Player | child.Opponent); got != discs+1 {
					t.Fatalf("move %v: disc count %d, want %d", m, got, discs+1)
				}
			}
			p = p.Play(RandomMove(p, rng))
		}
	}
}

func TestMovesMatchFlips(t *testing.T) {
	rng := testRNG(2)
	for i := 0; i < 200; i++ {
		p := RandomPosition(rng, rng.Intn(58))
		moves := p.Moves()
		for sq := Square(0); sq < 64; sq++ {
			if p.Empties()&sq.Bit() == 0 {
				continue
			}
			legal := moves&sq.Bit() != 0
			if flipped := p.Flips(sq) != 0; flipped != legal {
				t.Fatalf("square %v: move bit %v, flips %v\n%v", sq, legal, flipped, p)
			}
		}
	}
}

func TestPlayIllegalPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for illegal move")
		}
	}()
	Start().Play(A1)
}

func TestTryPlay(t *testing.T) {
	p := Start()
	if _, err := p.TryPlay(A1); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("TryPlay(a1) error = %v, want ErrIllegalMove", err)
	}
	sq, _ := ParseSquare("d3")
	if _, err := p.TryPlay(sq); err != nil {
		t.Errorf("TryPlay(d3) error = %v", err)
	}
}

func TestFullBoardIsTerminal(t *testing.T) {
	full := Position{Player: 0xffffffffff000000, Opponent: 0x0000000000ffffff}

	if !full.IsTerminal() {
		t.Fatal("full board is not terminal")
	}
	if full.CountEmpty() != 0 {
		t.Fatalf("full board has %d empties", full.CountEmpty())
	}
	if got, want := full.FinalScore(), full.DiscDifferential(); got != want {
		t.Errorf("FinalScore = %d, want differential %d", got, want)
	}
}

func TestFinalScoreWithEmpty(t *testing.T) {
	tests := []struct {
		name     string
		player   int
		opponent int
		want     int
	}{
		{"win", 40, 20, 40 + 4 - 20},
		{"loss", 10, 50, 10 - 50 - 4},
		{"draw", 30, 30, 0},
		{"wipeout", 13, 0, 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Position
			for i := 0; i < tt.player; i++ {
				p.Player |= 1 << uint(i)
			}
			for i := 0; i < tt.opponent; i++ {
				p.Opponent |= 1 << uint(63-i)
			}
			if got := p.FinalScore(); got != tt.want {
				t.Errorf("FinalScore() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCountLastFlip(t *testing.T) {
	rng := testRNG(3)
	for i := 0; i < 300; i++ {
		p := RandomPosition(rng, 59)
		if p.CountEmpty() != 1 {
			continue
		}
		sq := firstSquare(p.Empties())
		if got, want := CountLastFlip(sq, p.Player), CountBits(p.Flips(sq)); got != want {
			t.Fatalf("CountLastFlip(%v) = %d, want %d", sq, got, want)
		}
		if got, want := CountLastFlip(sq, p.Opponent), CountBits(p.Pass().Flips(sq)); got != want {
			t.Fatalf("CountLastFlip(%v) for opponent = %d, want %d", sq, got, want)
		}
	}
}

func TestStableDiscsNeverFlip(t *testing.T) {
	rng := testRNG(4)
	for game := 0; game < 200; game++ {
		p := RandomPosition(rng, 20+rng.Intn(38))
		stable := p.StableDiscs()
		oppStable := p.OpponentStableDiscs()

		swapped := false
		for !p.IsTerminal() {
			if p.HasMoves() {
				p = p.Play(RandomMove(p, rng))
			} else {
				p = p.Pass()
			}
			swapped = !swapped

			mine, theirs := p.Player, p.Opponent
			if swapped {
				mine, theirs = theirs, mine
			}
			if stable&^mine != 0 {
				t.Fatalf("stable discs %016x were flipped", stable&^mine)
			}
			if oppStable&^theirs != 0 {
				t.Fatalf("opponent stable discs %016x were flipped", oppStable&^theirs)
			}
		}
	}
}

func TestStableCorners(t *testing.T) {
	p := Position{Player: A1.Bit() | H8.Bit() | 0x2, Opponent: 0x4}
	s := p.StableDiscs()
	if s&A1.Bit() == 0 || s&H8.Bit() == 0 {
		t.Errorf("corners not stable: %016x", s)
	}
	if s&0x2 == 0 {
		t.Errorf("b1 next to own corner a1 should be stable: %016x", s)
	}
	if CornerStability(p.Player) != 3 {
		t.Errorf("CornerStability = %d, want 3", CornerStability(p.Player))
	}
}

func TestParseSquare(t *testing.T) {
	tests := []struct {
		in      string
		want    Square
		wantErr bool
	}{
		{"a1", A1, false},
		{"H8", H8, false},
		{"d3", 19, false},
		{"ps", Pass, false},
		{"i9", NoMove, true},
		{"", NoMove, true},
	}
	for _, tt := range tests {
		got, err := ParseSquare(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSquare(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSquare(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if !tt.wantErr && got.Valid() && !strings.EqualFold(got.String(), tt.in) {
			t.Errorf("String() = %q, want %q", got.String(), tt.in)
		}
	}
}

func TestNeighbourAndParity(t *testing.T) {
	if Neighbour[A1] != 0x0302 {
		t.Errorf("Neighbour[a1] = %x, want 302", Neighbour[A1])
	}
	if got := bits.OnesCount64(Neighbour[27]); got != 8 {
		t.Errorf("d4 has %d neighbours, want 8", got)
	}
	if Parity(A1.Bit()|H8.Bit()) != 1|8 {
		t.Errorf("Parity(a1,h8) = %d", Parity(A1.Bit()|H8.Bit()))
	}
	if Parity(A1.Bit()|0x2) != 0 {
		t.Errorf("two squares in one quadrant should cancel")
	}
}

func TestClamp(t *testing.T) {
	if Clamp(70, ScoreMin, ScoreMax) != 64 || Clamp(-70, ScoreMin, ScoreMax) != -64 || Clamp(3, -1, 5) != 3 {
		t.Error("Clamp returned wrong values")
	}
	if Clamp(1.5, 0.0, 1.0) != 1.0 {
		t.Error("Clamp float")
	}
}
