package engine

import "fmt"

// Bound tells how a score relates to the true value of a position.
type Bound uint8

const (
	// BoundExact means the score is the value of the position
	BoundExact Bound = iota
	// BoundLower means the value is at least the score (fail high)
	BoundLower
	// BoundUpper means the value is at most the score (fail low)
	BoundUpper
)

func (b Bound) String() string {
	switch b {
	case BoundExact:
		return "exact"
	case BoundLower:
		return "lower"
	case BoundUpper:
		return "upper"
	}
	return fmt.Sprintf("Bound(%d)", uint8(b))
}

// MarshalText encodes the bound by name.
func (b Bound) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

// Outcome is a search score tagged with its bound type.
type Outcome struct {
	Score int
	Bound Bound
}

// Negate returns the outcome from the other side's point of view.
// Lower and upper bounds swap.
func (o Outcome) Negate() Outcome {
	b := o.Bound
	switch b {
	case BoundLower:
		b = BoundUpper
	case BoundUpper:
		b = BoundLower
	}
	return Outcome{Score: -o.Score, Bound: b}
}

// classify tags a fail-soft score searched with the window (alpha, beta).
// Scores at the edge of the score range cannot be exceeded and are exact.
func classify(score, alpha, beta int) Outcome {
	switch {
	case score <= alpha && score > ScoreMin:
		return Outcome{score, BoundUpper}
	case score >= beta && score < ScoreMax:
		return Outcome{score, BoundLower}
	}
	return Outcome{score, BoundExact}
}

// bounds returns the interval of values an outcome allows.
func (o Outcome) bounds() (lower, upper int) {
	switch o.Bound {
	case BoundLower:
		return o.Score, ScoreMax
	case BoundUpper:
		return ScoreMin, o.Score
	}
	return o.Score, o.Score
}
