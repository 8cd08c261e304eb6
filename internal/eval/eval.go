// Package eval implements the static evaluation of Othello positions: a
// linear model over a small feature vector with one weight vector per game
// phase, and the error model used by ProbCut.
//
// Scores are in discs from the point of view of the side to move.
package eval

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/lk16/swap/internal/othello"
)

// Static scores never claim a proven result.
const (
	MinScore = -63
	MaxScore = 63
)

// Evaluator scores positions with a fixed set of weights. It is safe for
// concurrent use.
type Evaluator struct {
	weights *Weights
}

// New creates an evaluator. A nil weights value selects DefaultWeights.
func New(w *Weights) *Evaluator {
	if w == nil {
		w = DefaultWeights()
	}
	return &Evaluator{weights: w}
}

// Weights returns the weights in use.
func (e *Evaluator) Weights() *Weights { return e.weights }

// Raw returns the unrounded model output.
func (e *Evaluator) Raw(p othello.Position) float64 {
	var f [NumFeatures]float64
	Features(p, &f)
	return floats.Dot(f[:], e.weights.Phases[Phase(p.CountEmpty())][:])
}

// Score returns the rounded evaluation clamped to [MinScore, MaxScore].
func (e *Evaluator) Score(p othello.Position) int {
	return othello.Clamp(int(math.Round(e.Raw(p))), MinScore, MaxScore)
}

// Sigma returns the expected ProbCut error for the configured model.
func (e *Evaluator) Sigma(empties, depth, probcutDepth int) float64 {
	return e.weights.Sigma.Sigma(empties, depth, probcutDepth)
}
