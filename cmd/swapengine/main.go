// swapengine - an Othello search engine on the command line
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/profile"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"github.com/lk16/swap/internal/eval"
	"github.com/lk16/swap/internal/othello"
	"github.com/lk16/swap/internal/positionid"
	"github.com/lk16/swap/pkg/engine"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch command {
	case "search":
		err = cmdSearch(ctx, args, false)
	case "solve":
		err = cmdSearch(ctx, args, true)
	case "moves":
		err = cmdMoves(args)
	case "analyze":
		err = cmdAnalyze(ctx, args)
	case "bench":
		err = cmdBench(ctx, args)
	case "calibrate":
		err = cmdCalibrate(ctx, args)
	case "version":
		fmt.Printf("swapengine v%s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`swapengine - Othello search engine

Usage: swapengine <command> [options]

Commands:
  search     Search a position at a level or depth
  solve      Solve a position exactly
  moves      List the legal moves of a position
  analyze    Score every legal move
  bench      Search random positions and report speed
  calibrate  Fit the ProbCut error model and write a weights file
  version    Print the version

Use "swapengine <command> -h" for command-specific help.

Positions:
  A board string (64 squares of X, O or -, then the side to move),
  32 hex digits (player bitboard first) or a 22 character position ID.
  The start position is used when none is given.`)
}

// common holds the flags shared by every engine command.
type common struct {
	weights  string
	hashSize int
	threads  int
	logLevel string
	profile  string
}

func addCommon(fs *flag.FlagSet) *common {
	c := &common{}
	fs.StringVar(&c.weights, "weights", "", "Path to a weights file (default: built-in)")
	fs.IntVar(&c.hashSize, "hash-size", engine.DefaultHashSize, "Hash table entries")
	fs.IntVar(&c.threads, "threads", 1, "Root split workers (negative = all CPUs)")
	fs.StringVar(&c.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	fs.StringVar(&c.profile, "profile", "", "Write a cpu or mem profile to the current directory")
	return c
}

// start configures logging and profiling and builds the engine. The returned
// function stops the profiler.
func (c *common) start() (*engine.Engine, func(), error) {
	level, err := zerolog.ParseLevel(c.logLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q", c.logLevel)
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

	stop := func() {}
	switch c.profile {
	case "":
	case "cpu":
		stop = profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop
	case "mem":
		stop = profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop
	default:
		return nil, nil, fmt.Errorf("unknown profile %q, want cpu or mem", c.profile)
	}

	opts := engine.DefaultEngineOptions()
	opts.WeightsFile = c.weights
	opts.HashSize = c.hashSize
	opts.Threads = c.threads
	opts.Logger = &log.Logger
	e, err := engine.NewEngine(opts)
	if err != nil {
		stop()
		return nil, nil, fmt.Errorf("failed to create engine: %w", err)
	}
	return e, stop, nil
}

// parsePosition accepts a board string, hex digits or a position ID.
func parsePosition(s string) (othello.Position, bool, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return othello.Start(), true, nil
	case len(s) == positionid.PositionIDLength:
		p, err := positionid.FromPositionID(s)
		return p, true, err
	case len(strings.TrimPrefix(s, "0x")) == 32:
		p, err := positionid.ParseHex(s)
		return p, true, err
	}
	return positionid.ParseBoard(s)
}

func positionArg(fs *flag.FlagSet, flagValue string) string {
	if flagValue == "" && fs.NArg() > 0 {
		return strings.Join(fs.Args(), " ")
	}
	return flagValue
}

func printPosition(p othello.Position, blackToMove bool) {
	fmt.Println(p)
	fmt.Printf("Board:   %s\n", positionid.FormatBoard(p, blackToMove))
	fmt.Printf("Hex:     %s\n", positionid.Hex(p))
	fmt.Printf("ID:      %s\n", positionid.PositionID(p))
	fmt.Printf("Empties: %d\n\n", p.CountEmpty())
}

func searchFlags(fs *flag.FlagSet) (level, depth, selectivity *int, maxTime *time.Duration, maxNodes *uint64) {
	level = fs.Int("level", engine.DefaultLevel, "Playing level 0-60")
	depth = fs.Int("depth", 0, "Explicit depth (overrides level)")
	selectivity = fs.Int("selectivity", engine.NoSelectivity, "Selectivity 0-5 used with -depth")
	maxTime = fs.Duration("time", 0, "Time budget (0 = unlimited)")
	maxNodes = fs.Uint64("nodes", 0, "Node budget (0 = unlimited)")
	return
}

func cmdSearch(ctx context.Context, args []string, exact bool) error {
	name := "search"
	if exact {
		name = "solve"
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	c := addCommon(fs)
	posFlag := fs.String("p", "", "Position")
	level, depth, selectivity, maxTime, maxNodes := searchFlags(fs)
	fs.Parse(args)

	p, blackToMove, err := parsePosition(positionArg(fs, *posFlag))
	if err != nil {
		return err
	}
	e, stop, err := c.start()
	if err != nil {
		return err
	}
	defer stop()

	printPosition(p, blackToMove)
	opts := engine.SearchOptions{
		Level:       *level,
		Depth:       *depth,
		Selectivity: *selectivity,
		Exact:       exact,
		MaxTime:     *maxTime,
		MaxNodes:    *maxNodes,
		OnIteration: func(it engine.Iteration) {
			fmt.Printf("  %s  %v\n", it, it.Elapsed.Round(time.Millisecond))
		},
	}
	res, err := e.Search(ctx, p, opts)
	if err != nil {
		return err
	}

	pv := make([]string, len(res.PV))
	for i, sq := range res.PV {
		pv[i] = sq.String()
	}
	fmt.Println()
	fmt.Printf("Best move: %s\n", res.Move)
	fmt.Printf("Score:     %+d (%s)\n", res.Score, res.Bound)
	fmt.Printf("Depth:     %d@%d%%\n", res.Depth, res.Probability())
	fmt.Printf("PV:        %s\n", strings.Join(pv, " "))
	fmt.Printf("Nodes:     %d (%.0f n/s)\n", res.Nodes, nodesPerSecond(res.Nodes, res.Elapsed))
	fmt.Printf("Time:      %v\n", res.Elapsed.Round(time.Millisecond))
	if !res.Complete {
		fmt.Println("Search stopped before completion")
	}
	return nil
}

func nodesPerSecond(nodes uint64, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(nodes) / d.Seconds()
}

func cmdMoves(args []string) error {
	fs := flag.NewFlagSet("moves", flag.ExitOnError)
	posFlag := fs.String("p", "", "Position")
	fs.Parse(args)

	p, blackToMove, err := parsePosition(positionArg(fs, *posFlag))
	if err != nil {
		return err
	}
	printPosition(p, blackToMove)

	moves := p.LegalMoves()
	switch {
	case p.IsTerminal():
		fmt.Printf("Game over, final score %+d\n", p.FinalScore())
	case len(moves) == 0:
		fmt.Println("No legal moves: pass")
	default:
		for _, sq := range moves {
			fmt.Printf("  %s flips %d\n", sq, othello.CountBits(p.Flips(sq)))
		}
	}
	return nil
}

func cmdAnalyze(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	c := addCommon(fs)
	posFlag := fs.String("p", "", "Position")
	level, depth, selectivity, maxTime, maxNodes := searchFlags(fs)
	exact := fs.Bool("exact", false, "Solve every move exactly")
	fs.Parse(args)

	p, blackToMove, err := parsePosition(positionArg(fs, *posFlag))
	if err != nil {
		return err
	}
	e, stop, err := c.start()
	if err != nil {
		return err
	}
	defer stop()

	printPosition(p, blackToMove)
	a, err := e.Analyze(ctx, p, engine.SearchOptions{
		Level:       *level,
		Depth:       *depth,
		Selectivity: *selectivity,
		Exact:       *exact,
		MaxTime:     *maxTime,
		MaxNodes:    *maxNodes,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%-4s %6s  %-6s %s\n", "Move", "Score", "Bound", "PV")
	for _, m := range a.Moves {
		pv := make([]string, len(m.PV))
		for i, sq := range m.PV {
			pv[i] = sq.String()
		}
		fmt.Printf("%-4s %+6d  %-6s %s\n", m.Move, m.Score, m.Bound, strings.Join(pv, " "))
	}
	fmt.Printf("\nDepth %d@%d%%, %d nodes in %v\n", a.Depth, engine.Iteration{Selectivity: a.Selectivity}.Probability(), a.Nodes, a.Elapsed.Round(time.Millisecond))
	if !a.Complete {
		fmt.Println("Analysis stopped before completion")
	}
	return nil
}

func cmdBench(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	c := addCommon(fs)
	positions := fs.Int("positions", 16, "Number of random positions")
	empties := fs.Int("empties", 24, "Empty squares per position")
	level := fs.Int("level", 12, "Playing level")
	workers := fs.Int("workers", 1, "Engines searching in parallel")
	seed := fs.Uint64("seed", 1, "Position generator seed")
	fs.Parse(args)

	if *workers < 1 {
		return errors.New("workers must be positive")
	}
	first, stop, err := c.start()
	if err != nil {
		return err
	}
	defer stop()

	engines := []*engine.Engine{first}
	for len(engines) < *workers {
		e, err := engine.NewEngine(first.Options())
		if err != nil {
			return err
		}
		engines = append(engines, e)
	}

	seedBytes := make([]byte, 32)
	for i := range 8 {
		seedBytes[i] = byte(*seed >> (8 * i))
	}
	rng := frand.NewCustom(seedBytes, 1024, 12)
	pos := make([]othello.Position, *positions)
	for i := range pos {
		pos[i] = othello.RandomWithEmpties(rng, *empties)
	}

	var nodes atomic.Uint64
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for w, e := range engines {
		g.Go(func() error {
			for i := w; i < len(pos); i += len(engines) {
				res, err := e.Search(gctx, pos[i], engine.SearchOptions{Level: *level})
				if err != nil {
					return fmt.Errorf("position %d: %w", i, err)
				}
				nodes.Add(res.Nodes)
				log.Info().Int("position", i).Str("move", res.Move.String()).Int("score", res.Score).Uint64("nodes", res.Nodes).Msg("searched")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	elapsed := time.Since(start)
	fmt.Printf("Positions: %d at %d empties, level %d, %d workers\n", *positions, *empties, *level, *workers)
	fmt.Printf("Nodes:     %d\n", nodes.Load())
	fmt.Printf("Time:      %v\n", elapsed.Round(time.Millisecond))
	fmt.Printf("Speed:     %.0f n/s\n", nodesPerSecond(nodes.Load(), elapsed))
	return nil
}

func cmdCalibrate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("calibrate", flag.ExitOnError)
	c := addCommon(fs)
	def := engine.DefaultCalibrateOptions()
	positions := fs.Int("positions", def.Positions, "Positions per empties count")
	minEmpties := fs.Int("min-empties", def.MinEmpties, "Fewest empties sampled")
	maxEmpties := fs.Int("max-empties", def.MaxEmpties, "Most empties sampled")
	step := fs.Int("step", def.Step, "Empties step")
	maxDepth := fs.Int("max-depth", def.Depths[len(def.Depths)-1], "Deepest search sampled")
	workers := fs.Int("workers", 0, "Parallel workers (0 = all CPUs)")
	seed := fs.Uint64("seed", 1, "Position generator seed")
	out := fs.String("out", "", "Write weights with the fitted model to this file")
	fs.Parse(args)

	e, stop, err := c.start()
	if err != nil {
		return err
	}
	defer stop()

	var depths []int
	for d := 3; d <= *maxDepth; d++ {
		depths = append(depths, d)
	}
	cal, err := engine.Calibrate(ctx, e, engine.CalibrateOptions{
		Positions:  *positions,
		MinEmpties: *minEmpties,
		MaxEmpties: *maxEmpties,
		Step:       *step,
		Depths:     depths,
		Workers:    *workers,
		Seed:       *seed,
		OnProgress: func(done, total int) {
			fmt.Fprintf(os.Stderr, "\rcalibrating %d/%d", done, total)
			if done == total {
				fmt.Fprintln(os.Stderr)
			}
		},
	})
	if err != nil {
		return err
	}

	fmt.Printf("%7s %5s %7s %6s %8s %8s\n", "Empties", "Depth", "ProbCut", "Count", "Mean", "StdDev")
	for _, s := range cal.Samples {
		fmt.Printf("%7d %5d %7d %6d %8.3f %8.3f\n", s.Empties, s.Depth, s.ProbcutDepth, s.Count, s.Mean, s.StdDev)
	}
	fmt.Printf("\nSigma model: %+v\n", cal.Sigma)

	if *out == "" {
		return nil
	}
	w := *e.Evaluator().Weights()
	w.Sigma = cal.Sigma
	if err := eval.SaveWeights(*out, &w); err != nil {
		return err
	}
	fmt.Printf("Weights written to %s\n", *out)
	return nil
}
