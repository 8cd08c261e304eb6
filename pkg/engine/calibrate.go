package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"lukechampine.com/frand"

	"github.com/lk16/swap/internal/eval"
	"github.com/lk16/swap/internal/othello"
)

// ErrTooFewSamples is returned when a calibration has not enough data to fit
var ErrTooFewSamples = errors.New("too few calibration samples")

// CalibrateOptions controls a ProbCut calibration run
type CalibrateOptions struct {
	Positions  int    // Positions per empties count (default 32)
	MinEmpties int    // Fewest empties sampled (default 20)
	MaxEmpties int    // Most empties sampled (default 44)
	Step       int    // Empties step (default 4)
	Depths     []int  // Deep search depths (default 3..8)
	Workers    int    // Parallel workers (0 = GOMAXPROCS)
	Seed       uint64 // Position generator seed

	// OnProgress is called after each position with the number done so far.
	OnProgress func(done, total int)
}

// DefaultCalibrateOptions returns sensible defaults
func DefaultCalibrateOptions() CalibrateOptions {
	return CalibrateOptions{
		Positions:  32,
		MinEmpties: 20,
		MaxEmpties: 44,
		Step:       4,
		Depths:     []int{3, 4, 5, 6, 7, 8},
	}
}

// SigmaSample summarises the error of shallow searches predicting deep ones
// for one (empties, depth, probcut depth) triple.
type SigmaSample struct {
	Empties      int     `json:"empties"`
	Depth        int     `json:"depth"`
	ProbcutDepth int     `json:"probcut_depth"`
	Count        int     `json:"count"`
	Mean         float64 `json:"mean"`    // Mean of deep - shallow
	StdDev       float64 `json:"std_dev"` // Standard deviation of deep - shallow

	// Linear fit deep ~ Intercept + Slope*shallow
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// Calibration is the result of a calibration run
type Calibration struct {
	Samples []SigmaSample   `json:"samples"`
	Sigma   eval.SigmaModel `json:"sigma"`
}

type pairKey struct{ empties, depth, pcDepth int }

type pairScores struct{ shallow, deep []float64 }

// Calibrate measures how well shallow searches predict deep ones on random
// positions and fits the sigma model ProbCut relies on. Searches run without
// ProbCut so the measured errors are those of the evaluation alone.
func Calibrate(ctx context.Context, e *Engine, opts CalibrateOptions) (*Calibration, error) {
	def := DefaultCalibrateOptions()
	if opts.Positions <= 0 {
		opts.Positions = def.Positions
	}
	if opts.MinEmpties <= 0 {
		opts.MinEmpties = def.MinEmpties
	}
	if opts.MaxEmpties < opts.MinEmpties {
		opts.MaxEmpties = max(def.MaxEmpties, opts.MinEmpties)
	}
	if opts.Step <= 0 {
		opts.Step = def.Step
	}
	if len(opts.Depths) == 0 {
		opts.Depths = def.Depths
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}

	seed := make([]byte, 32)
	for i := range 8 {
		seed[i] = byte(opts.Seed >> (8 * i))
	}
	rng := frand.NewCustom(seed, 1024, 12)
	var positions []othello.Position
	for n := opts.MinEmpties; n <= opts.MaxEmpties; n += opts.Step {
		for range opts.Positions {
			positions = append(positions, othello.RandomWithEmpties(rng, n))
		}
	}

	var (
		mu    sync.Mutex
		pairs = make(map[pairKey]*pairScores)
		done  int
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for _, p := range positions {
		g.Go(func() error {
			scores, err := calibratePosition(ctx, e, p, opts.Depths)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for k, s := range scores {
				ps := pairs[k]
				if ps == nil {
					ps = &pairScores{}
					pairs[k] = ps
				}
				ps.shallow = append(ps.shallow, s[0])
				ps.deep = append(ps.deep, s[1])
			}
			done++
			if opts.OnProgress != nil {
				opts.OnProgress(done, len(positions))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("calibration search: %w", err)
	}

	c := &Calibration{}
	for k, ps := range pairs {
		if len(ps.deep) < 2 {
			continue
		}
		residuals := make([]float64, len(ps.deep))
		for i := range residuals {
			residuals[i] = ps.deep[i] - ps.shallow[i]
		}
		mean, std := stat.MeanStdDev(residuals, nil)
		intercept, slope := stat.LinearRegression(ps.shallow, ps.deep, nil, false)
		c.Samples = append(c.Samples, SigmaSample{
			Empties:      k.empties,
			Depth:        k.depth,
			ProbcutDepth: k.pcDepth,
			Count:        len(residuals),
			Mean:         mean,
			StdDev:       std,
			Slope:        slope,
			Intercept:    intercept,
		})
	}
	slices.SortFunc(c.Samples, func(a, b SigmaSample) int {
		if a.Empties != b.Empties {
			return a.Empties - b.Empties
		}
		if a.Depth != b.Depth {
			return a.Depth - b.Depth
		}
		return a.ProbcutDepth - b.ProbcutDepth
	})

	sigma, err := fitSigma(c.Samples)
	if err != nil {
		return c, err
	}
	c.Sigma = sigma
	return c, nil
}

// calibratePosition returns (shallow, deep) score pairs of one position for
// every deep depth: the shallow score comes from the ProbCut depth and from
// the static evaluation.
func calibratePosition(ctx context.Context, e *Engine, p othello.Position, depths []int) (map[pairKey][2]float64, error) {
	empties := p.CountEmpty()
	cache := map[int]int{0: e.eval.Score(p)}
	scoreAt := func(depth int) (int, error) {
		if s, ok := cache[depth]; ok {
			return s, nil
		}
		res, err := e.Search(ctx, p, SearchOptions{Depth: depth, Selectivity: NoSelectivity})
		if err != nil {
			return 0, err
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		cache[depth] = res.Score
		return res.Score, nil
	}

	out := make(map[pairKey][2]float64)
	for _, d := range depths {
		if d >= empties {
			continue
		}
		deep, err := scoreAt(d)
		if err != nil {
			return nil, err
		}
		for _, pd := range []int{0, probcutDepth(d)} {
			if pd < 0 {
				continue
			}
			shallow, err := scoreAt(pd)
			if err != nil {
				return nil, err
			}
			out[pairKey{empties, d, pd}] = [2]float64{float64(shallow), float64(deep)}
		}
	}
	return out, nil
}

// fitSigma fits sigma = c + a*empties + b*depth + k*probcutDepth by least
// squares. The result maps onto the sigma model with a linear term only.
func fitSigma(samples []SigmaSample) (eval.SigmaModel, error) {
	if len(samples) < 4 {
		return eval.SigmaModel{}, fmt.Errorf("%w: %d groups", ErrTooFewSamples, len(samples))
	}
	a := mat.NewDense(len(samples), 4, nil)
	b := mat.NewVecDense(len(samples), nil)
	for i, s := range samples {
		a.SetRow(i, []float64{1, float64(s.Empties), float64(s.Depth), float64(s.ProbcutDepth)})
		b.SetVec(i, s.StdDev)
	}

	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return eval.SigmaModel{}, fmt.Errorf("fitting sigma model: %w", err)
	}
	return eval.SigmaModel{
		Empties:      x.AtVec(1),
		Depth:        x.AtVec(2),
		ProbcutDepth: x.AtVec(3),
		Linear:       1,
		Constant:     x.AtVec(0),
	}, nil
}
