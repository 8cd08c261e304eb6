package eval

import (
	"math/bits"

	"github.com/lk16/swap/internal/othello"
)

// Feature indices of the input vector
const (
	FeatureBias = iota
	FeatureMobility
	FeaturePotentialMobility
	FeatureCorners
	FeatureXSquares
	FeatureCSquares
	FeatureStable
	FeatureFrontier
	FeatureDiscs
	FeatureSquares
	FeatureParity

	NumFeatures
)

// NumPhases is the number of game phases with their own weight vector
const NumPhases = 4

// FeatureNames lists the features in vector order, used in weights dumps.
var FeatureNames = [NumFeatures]string{
	"bias", "mobility", "potential_mobility", "corners", "x_squares",
	"c_squares", "stable", "frontier", "discs", "squares", "parity",
}

// xSquares maps each corner to its diagonal neighbour, cSquares to its edge neighbours.
var (
	cornerList = [4]othello.Square{othello.A1, othello.H1, othello.A8, othello.H8}
	xSquares   = [4]uint64{1 << 9, 1 << 14, 1 << 49, 1 << 54}
	cSquares   = [4]uint64{
		1<<1 | 1<<8,
		1<<6 | 1<<15,
		1<<48 | 1<<57,
		1<<55 | 1<<62,
	}
)

// squareWeights scores occupying a square; only the difference between both
// sides enters the model.
var squareWeights = [64]float64{
	20, -3, 11, 8, 8, 11, -3, 20,
	-3, -7, -4, 1, 1, -4, -7, -3,
	11, -4, 2, 2, 2, 2, -4, 11,
	8, 1, 2, -3, -3, 2, 1, 8,
	8, 1, 2, -3, -3, 2, 1, 8,
	11, -4, 2, 2, 2, 2, -4, 11,
	-3, -7, -4, 1, 1, -4, -7, -3,
	20, -3, 11, 8, 8, 11, -3, 20,
}

// Phase returns the weight phase for a number of empty squares.
func Phase(empties int) int {
	switch {
	case empties > 45:
		return 0
	case empties > 30:
		return 1
	case empties > 15:
		return 2
	}
	return 3
}

func dangerSquares(own uint64, empties uint64) (x, c int) {
	for i, corner := range cornerList {
		if empties&corner.Bit() == 0 {
			continue
		}
		x += othello.CountBits(own & xSquares[i])
		c += othello.CountBits(own & cSquares[i])
	}
	return x, c
}

func squareSum(b uint64) float64 {
	var s float64
	for b != 0 {
		s += squareWeights[bits.TrailingZeros64(b)]
		b &= b - 1
	}
	return s
}

// Features fills out with the feature vector of p, from the side to move.
// Every feature except bias and parity is antisymmetric under a pass.
func Features(p othello.Position, out *[NumFeatures]float64) {
	empties := p.Empties()
	opp := p.Pass()

	myX, myC := dangerSquares(p.Player, empties)
	opX, opC := dangerSquares(p.Opponent, empties)

	out[FeatureBias] = 1
	out[FeatureMobility] = float64(p.WeightedMobility() - opp.WeightedMobility())
	out[FeaturePotentialMobility] = float64(p.PotentialMobility() - opp.PotentialMobility())
	out[FeatureCorners] = float64(othello.CountBits(p.Player&othello.Corners) - othello.CountBits(p.Opponent&othello.Corners))
	out[FeatureXSquares] = float64(myX - opX)
	out[FeatureCSquares] = float64(myC - opC)
	out[FeatureStable] = float64(p.CountStable() - p.CountOpponentStable())
	out[FeatureFrontier] = float64(othello.CountBits(p.Frontier()) - othello.CountBits(opp.Frontier()))
	out[FeatureDiscs] = float64(p.DiscDifferential())
	out[FeatureSquares] = squareSum(p.Player) - squareSum(p.Opponent)

	// With an odd number of empties the side to move plays last.
	if p.CountEmpty()&1 == 1 {
		out[FeatureParity] = 1
	} else {
		out[FeatureParity] = -1
	}
}
