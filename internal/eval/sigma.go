package eval

// SigmaModel predicts the standard deviation, in discs, of the error made by
// a shallow search of probcutDepth when estimating a search of depth:
//
//	x = Empties*n + Depth*d + ProbcutDepth*pd
//	sigma = Square*x*x + Linear*x + Constant
type SigmaModel struct {
	Empties      float64
	Depth        float64
	ProbcutDepth float64
	Square       float64
	Linear       float64
	Constant     float64
}

// DefaultSigma returns coefficients fitted on edax's pattern evaluation.
func DefaultSigma() SigmaModel {
	return SigmaModel{
		Empties:      -0.10026799,
		Depth:        0.31027733,
		ProbcutDepth: -0.57772603,
		Square:       0.07585621,
		Linear:       1.16492647,
		Constant:     5.4171698,
	}
}

// Sigma evaluates the model.
func (s SigmaModel) Sigma(empties, depth, probcutDepth int) float64 {
	x := s.Empties*float64(empties) + s.Depth*float64(depth) + s.ProbcutDepth*float64(probcutDepth)
	return s.Square*x*x + s.Linear*x + s.Constant
}

func (s SigmaModel) array() [6]float64 {
	return [6]float64{s.Empties, s.Depth, s.ProbcutDepth, s.Square, s.Linear, s.Constant}
}

func sigmaFromArray(a [6]float64) SigmaModel {
	return SigmaModel{a[0], a[1], a[2], a[3], a[4], a[5]}
}
