package othello

// lineMasks lists every full row, column and diagonal per axis.
// Diagonals of length one are corners and never matter.
var lineMasks [4][]uint64

func init() {
	for i := 0; i < 8; i++ {
		lineMasks[0] = append(lineMasks[0], Rank1<<uint(8*i))
		lineMasks[1] = append(lineMasks[1], FileA<<uint(i))
	}
	// a1-h8 direction (+9) and h1-a8 direction (+7)
	for start := 0; start < 64; start++ {
		col, row := start&7, start>>3
		if col == 0 || row == 0 {
			lineMasks[2] = append(lineMasks[2], walk(col, row, 1, 1))
		}
		if col == 7 || row == 0 {
			lineMasks[3] = append(lineMasks[3], walk(col, row, -1, 1))
		}
	}
}

func walk(col, row, dx, dy int) uint64 {
	var m uint64
	for col >= 0 && col < 8 && row >= 0 && row < 8 {
		m |= 1 << uint(row*8+col)
		col += dx
		row += dy
	}
	return m
}

// fullLines returns, per axis, the squares whose whole line on that axis is occupied.
func fullLines(occupied uint64) (h, v, d9, d7 uint64) {
	var out [4]uint64
	for axis, masks := range lineMasks {
		for _, m := range masks {
			if occupied&m == m {
				out[axis] |= m
			}
		}
	}
	return out[0], out[1], out[2], out[3]
}

// stableDiscs returns discs of p that can never be flipped again.
//
// A disc is stable when on each axis its line is full, or the neighbour on one
// side along the axis is the board edge or another stable disc of p. Starting
// from the empty set and growing to a fixpoint keeps the result sound.
func stableDiscs(p, o uint64) uint64 {
	fh, fv, fd9, fd7 := fullLines(p | o)
	var stable uint64
	for {
		h := fh | FileA | FileH | (stable<<1)&^FileA | (stable>>1)&^FileH
		v := fv | Rank1 | Rank8 | stable<<8 | stable>>8
		d9 := fd9 | Edges | (stable<<9)&^FileA | (stable>>9)&^FileH
		d7 := fd7 | Edges | (stable<<7)&^FileH | (stable>>7)&^FileA
		next := p & h & v & d9 & d7
		if next == stable {
			return stable
		}
		stable = next
	}
}

// StableDiscs returns the stable discs of the side to move.
func (p Position) StableDiscs() uint64 { return stableDiscs(p.Player, p.Opponent) }

// OpponentStableDiscs returns the stable discs of the opponent.
func (p Position) OpponentStableDiscs() uint64 { return stableDiscs(p.Opponent, p.Player) }

// CountStable counts the stable discs of the side to move.
func (p Position) CountStable() int { return popcount(p.StableDiscs()) }

// CountOpponentStable counts the stable discs of the opponent.
func (p Position) CountOpponentStable() int { return popcount(p.OpponentStableDiscs()) }

// CornerStability counts the player's corners and the edge discs glued to them.
func CornerStability(player uint64) int {
	stable := ((0x0100000000000001&player)<<1 |
		(0x8000000000000080&player)>>1 |
		(0x0000000000000081&player)<<8 |
		(0x8100000000000000&player)>>8 |
		Corners) & player
	return popcount(stable)
}

// EdgeStability counts the player's stable discs on the board edges.
func EdgeStability(player, opponent uint64) int {
	return popcount(stableDiscs(player, opponent) & Edges)
}
