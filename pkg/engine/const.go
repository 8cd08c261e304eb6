package engine

// Score limits, in discs
const (
	ScoreMin = -64
	ScoreMax = 64
	scoreInf = 127
)

// Selectivity levels index selectivityTable. NoSelectivity disables ProbCut.
const NoSelectivity = 5

// selectivityTable holds the ProbCut confidence multiplier per level.
var selectivityTable = [NoSelectivity + 1]float64{1.1, 1.5, 2.0, 2.6, 3.3, 999}

// Selectivity percentages reported to users, per level.
var selectivityPercent = [NoSelectivity + 1]int{73, 87, 95, 98, 99, 100}

const (
	iterativeMinEmpties = 10
	sortAlphaDelta      = 8
	midgameToEndgame    = 15
	pvHashHeight        = 5
	etcMinDepth         = 5
	shallowSearchDepth  = 7
	endgameShallowMax   = 7

	probcutD   = 0.25
	probcutRCD = 0.5

	// stopCheckInterval is the number of nodes between budget checks
	stopCheckInterval = 1024
)

// NodeKind is the expected type of a node in the principal variation search.
type NodeKind uint8

const (
	PVNode NodeKind = iota
	CutNode
	AllNode
)

func (k NodeKind) String() string {
	switch k {
	case PVNode:
		return "pv"
	case CutNode:
		return "cut"
	case AllNode:
		return "all"
	}
	return "unknown"
}

// next returns the expected kind of the children of a node of kind k.
func (k NodeKind) next() NodeKind {
	return [...]NodeKind{CutNode, AllNode, CutNode}[k]
}

// incSortDepth adjusts the move ordering depth by node kind.
var incSortDepth = [3]int{0, -2, -3}

// pvsStabilityThreshold and nwsStabilityThreshold index by empties; above
// the threshold a stability cutoff is attempted.
var pvsStabilityThreshold = [64]int{
	99, 99, 99, 99, -2, 0, 2, 4,
	6, 8, 12, 14, 16, 18, 20, 22,
	24, 26, 28, 30, 32, 34, 36, 38,
	40, 40, 42, 42, 44, 44, 46, 46,
	48, 48, 50, 50, 52, 52, 54, 54,
	56, 56, 58, 58, 60, 60, 62, 62,
	99, 99, 99, 99, 99, 99, 99, 99,
	99, 99, 99, 99, 99, 99, 99, 99,
}

var nwsStabilityThreshold = [64]int{
	99, 99, 99, 99, 6, 8, 10, 12,
	14, 16, 20, 22, 24, 26, 28, 30,
	32, 34, 36, 38, 40, 42, 44, 46,
	48, 48, 50, 50, 52, 52, 54, 54,
	56, 56, 58, 58, 60, 60, 62, 62,
	64, 64, 64, 64, 64, 64, 64, 64,
	99, 99, 99, 99, 99, 99, 99, 99,
	99, 99, 99, 99, 99, 99, 99, 99,
}
