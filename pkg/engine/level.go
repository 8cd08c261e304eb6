package engine

// MaxLevel is the strongest level; it always solves the game exactly.
const MaxLevel = 60

// DefaultLevel is the level used when none is configured
const DefaultLevel = 21

// LevelDepth maps a playing level and the number of empty squares to a
// search depth and selectivity. Low levels search a fixed depth and solve
// the last 2*level empties; from level 11 on, positions close enough to the
// end are solved with ProbCut selectivity that tightens as fewer squares
// remain. Levels outside 0..60 are clamped.
func LevelDepth(level, empties int) (depth, selectivity int) {
	level = max(0, min(level, MaxLevel))
	type step struct{ empties, selectivity int }
	solve := func(steps ...step) (int, int) {
		for _, s := range steps {
			if empties <= s.empties {
				return empties, s.selectivity
			}
		}
		return level, 0
	}

	switch {
	case level == 0:
		return 0, NoSelectivity
	case level <= 10:
		if empties <= 2*level {
			return empties, NoSelectivity
		}
		return level, NoSelectivity
	case level <= 12:
		return solve(step{21, 5}, step{24, 3})
	case level <= 18:
		return solve(step{21, 5}, step{24, 3}, step{27, 1})
	case level <= 21:
		return solve(step{24, 5}, step{27, 3}, step{30, 1})
	case level <= 24:
		return solve(step{24, 5}, step{27, 4}, step{30, 2}, step{33, 0})
	case level <= 27:
		return solve(step{27, 5}, step{30, 3}, step{33, 1})
	case level <= 31:
		return solve(step{30, 5}, step{33, 3}, step{36, 1})
	case level <= 33:
		return solve(step{30, 5}, step{33, 4}, step{36, 2}, step{39, 0})
	case level <= 35:
		return solve(step{30, 5}, step{33, 4}, step{36, 3}, step{39, 1})
	case level < MaxLevel:
		l := level
		return solve(step{l - 6, 5}, step{l - 3, 4}, step{l, 3}, step{l + 3, 2}, step{l + 6, 1}, step{l + 9, 0})
	}
	return empties, NoSelectivity
}

// isDepthSolving reports whether a search of depth with empties remaining is
// extended to the end of the game by the PV extension.
func isDepthSolving(depth, empties int) bool {
	return depth >= empties ||
		(depth > 9 && depth <= 12 && depth+8 >= empties) ||
		(depth > 12 && depth <= 18 && depth+10 >= empties) ||
		(depth > 18 && depth <= 24 && depth+12 >= empties) ||
		(depth > 24 && depth+14 >= empties)
}

// pvExtension returns the number of empties below which principal variation
// nodes are searched to the end, or -1 when there is no extension.
func pvExtension(depth, empties int) int {
	switch {
	case depth >= empties || depth <= 9:
		return -1
	case depth <= 12:
		return 10
	case depth <= 18:
		return 12
	case depth <= 24:
		return 14
	}
	return 16
}
