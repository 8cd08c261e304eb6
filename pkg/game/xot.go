package game

import (
	"fmt"

	"github.com/lk16/swap/internal/eval"
	"github.com/lk16/swap/internal/othello"
)

const (
	xotPlies        = 8
	xotMaxImbalance = 6
	xotAttempts     = 200
)

var xotEval = eval.New(nil)

// NewXOTBoard returns a random opening: eight random plies from the start,
// redrawn until the evaluation is close to even.
func NewXOTBoard() Board {
	return xotBoard(frandSource{}, xotEval)
}

func xotBoard(rng othello.Intn, ev *eval.Evaluator) Board {
	var b Board
	for range xotAttempts {
		b = NewBoard()
		for ply := 0; ply < xotPlies && !b.IsGameOver(); ply++ {
			if b.HasToPass() {
				b = b.Pass()
			}
			next, err := b.Play(othello.RandomMove(b.Position, rng))
			if err != nil {
				panic(fmt.Sprintf("xot opening: %v", err))
			}
			b = next
		}
		if !b.Position.HasMoves() {
			continue
		}
		if s := ev.Score(b.Position); s >= -xotMaxImbalance && s <= xotMaxImbalance {
			return b
		}
	}
	return b
}
