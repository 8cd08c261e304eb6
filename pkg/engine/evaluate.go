package engine

import (
	"github.com/lk16/swap/internal/eval"
	"github.com/lk16/swap/internal/othello"
)

// eval0 is the static evaluation.
func (s *searcher) eval0(p othello.Position) int {
	s.countNode()
	return s.eval.Score(p)
}

// eval1 is a one ply search over static evaluations. A move that wipes out
// the opponent scores 64.
func (s *searcher) eval1(p othello.Position, alpha, beta int) int {
	moves := p.Moves()
	if moves == 0 {
		if p.OpponentHasMoves() {
			return -s.eval1(p.Pass(), -beta, -alpha)
		}
		return s.solve(p)
	}

	beta = min(beta, eval.MaxScore)
	best := -scoreInf
	for ; moves != 0; moves &= moves - 1 {
		sq := firstSquare(moves)
		f := p.Flips(sq)
		if f == p.Opponent {
			return ScoreMax
		}
		score := -s.eval0(p.PlayFlips(sq, f))
		if score > best {
			best = score
			if best >= beta {
				break
			}
		}
	}
	return othello.Clamp(best, eval.MinScore, eval.MaxScore)
}

// eval2 is a two ply search over static evaluations.
func (s *searcher) eval2(p othello.Position, alpha, beta int) int {
	s.countNode()
	moves := p.Moves()
	if moves == 0 {
		if p.OpponentHasMoves() {
			return -s.eval2(p.Pass(), -beta, -alpha)
		}
		return s.solve(p)
	}

	best := -scoreInf
	for ; moves != 0; moves &= moves - 1 {
		sq := firstSquare(moves)
		score := -s.eval1(p.Play(sq), -beta, -alpha)
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

// stabilityCutoffNWS proves a fail low when the opponent's stable discs
// already cap the score at or below alpha.
func stabilityCutoffNWS(p othello.Position, empties, alpha int) (int, bool) {
	if alpha >= nwsStabilityThreshold[empties] {
		score := ScoreMax - 2*p.CountOpponentStable()
		if score <= alpha {
			return score, true
		}
	}
	return 0, false
}

// stabilityCutoffPVS is the full window version. When no cutoff is proven
// it may still lower beta to the stability bound.
func stabilityCutoffPVS(p othello.Position, empties, alpha, beta int) (score int, cut bool, newBeta int) {
	if beta >= pvsStabilityThreshold[empties] {
		score := ScoreMax - 2*p.CountOpponentStable()
		if score <= alpha {
			return score, true, beta
		}
		if score < beta {
			return 0, false, score
		}
	}
	return 0, false, beta
}

// transpositionCutoff returns a stored bound that settles the null window
// search at alpha.
func transpositionCutoff(d HashData, depth, selectivity, alpha int) (int, bool) {
	if int(d.Selectivity) >= selectivity && int(d.Depth) >= depth {
		if alpha < int(d.Lower) {
			return int(d.Lower), true
		}
		if alpha >= int(d.Upper) {
			return int(d.Upper), true
		}
	}
	return 0, false
}
