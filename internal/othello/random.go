package othello

// Intn is the random source used to pick moves, satisfied by *frand.RNG.
type Intn interface {
	Intn(n int) int
}

// RandomMove picks a uniformly random legal move, or Pass when there is none.
func RandomMove(p Position, rng Intn) Square {
	moves := p.Moves()
	if moves == 0 {
		return Pass
	}
	n := rng.Intn(popcount(moves))
	for ; n > 0; n-- {
		moves &= moves - 1
	}
	return firstSquare(moves)
}

// RandomPosition plays random moves from the start position until the given
// number of discs has been placed or the game ends. Passes do not count.
func RandomPosition(rng Intn, plies int) Position {
	p := Start()
	for placed := 0; placed < plies; {
		if p.IsTerminal() {
			break
		}
		sq := RandomMove(p, rng)
		if sq == Pass {
			p = p.Pass()
			continue
		}
		p = p.Play(sq)
		placed++
	}
	return p
}

// RandomWithEmpties returns a random reachable position with exactly n empty
// squares where the side to move has a legal move. It retries until one is found
// and falls back to the closest attempt.
func RandomWithEmpties(rng Intn, n int) Position {
	var best Position
	for attempt := 0; attempt < 64; attempt++ {
		p := RandomPosition(rng, 60-n)
		if !p.HasMoves() && p.OpponentHasMoves() {
			p = p.Pass()
		}
		if p.CountEmpty() == n && p.HasMoves() {
			return p
		}
		best = p
	}
	return best
}
