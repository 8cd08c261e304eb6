package engine

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/lk16/swap/internal/othello"
)

// MoveScore is a root move with the score of the position it leads to.
type MoveScore struct {
	Move  othello.Square   `json:"move"`
	Score int              `json:"score"`
	Bound Bound            `json:"bound"`
	PV    []othello.Square `json:"pv"`
}

// Analysis contains every legal move ranked best first
type Analysis struct {
	Moves       []MoveScore   `json:"moves"`
	Depth       int           `json:"depth"`
	Selectivity int           `json:"selectivity"`
	Nodes       uint64        `json:"nodes"`
	Elapsed     time.Duration `json:"elapsed"`
	Complete    bool          `json:"complete"`
}

// Best returns the highest ranked move, or NoMove when there is none.
func (a *Analysis) Best() MoveScore {
	if len(a.Moves) == 0 {
		return MoveScore{Move: othello.NoMove}
	}
	return a.Moves[0]
}

// Analyze scores every legal move of p with a full window search of the
// resulting position at the configured depth minus one.
func (e *Engine) Analyze(ctx context.Context, p othello.Position, opts SearchOptions) (*Analysis, error) {
	if p.Player&p.Opponent != 0 {
		return nil, ErrInvalidPosition
	}
	start := time.Now()
	if opts.MaxTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.MaxTime)
		defer cancel()
	}
	empties := p.CountEmpty()
	depth, selectivity := opts.resolve(empties)

	a := &Analysis{Depth: depth, Selectivity: selectivity, Complete: true}
	moves := p.LegalMoves()
	if len(moves) == 0 && p.OpponentHasMoves() {
		moves = []othello.Square{othello.Pass}
	}
	for _, sq := range moves {
		child, d := p.Pass(), depth+1
		if sq != othello.Pass {
			child, d = p.Play(sq), depth
		}
		ms := MoveScore{Move: sq, PV: []othello.Square{sq}}

		var childOpts SearchOptions
		switch {
		case d >= empties:
			childOpts = SearchOptions{Exact: selectivity == NoSelectivity, Depth: empties, Selectivity: selectivity}
		case d <= 1:
			if child.IsTerminal() {
				ms.Score = -child.FinalScore()
			} else {
				ms.Score = -e.eval.Score(child)
			}
			a.Moves = append(a.Moves, ms)
			continue
		default:
			childOpts = SearchOptions{Depth: d - 1, Selectivity: selectivity}
		}
		childOpts.MaxNodes = opts.MaxNodes

		res, err := e.Search(ctx, child, childOpts)
		if err != nil {
			return nil, err
		}
		out := Outcome{res.Score, res.Bound}.Negate()
		ms.Score, ms.Bound = out.Score, out.Bound
		if res.Move != othello.NoMove {
			ms.PV = append(ms.PV, res.PV...)
		}
		a.Moves = append(a.Moves, ms)
		a.Nodes += res.Nodes
		a.Complete = a.Complete && res.Complete
	}

	slices.SortStableFunc(a.Moves, func(x, y MoveScore) int {
		return cmp.Compare(y.Score, x.Score)
	})
	a.Elapsed = time.Since(start)
	return a, nil
}
