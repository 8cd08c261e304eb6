// Package engine implements Othello search: the transposition tables, move
// ordering, null window and principal variation searches, the exact endgame
// solver and the iterative deepening controller driving them.
package engine

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/rs/zerolog"
	"lukechampine.com/frand"

	"github.com/lk16/swap/internal/eval"
)

// Engine owns an evaluator and the transposition tables shared by its
// searches. Searches may run concurrently.
type Engine struct {
	opts   EngineOptions
	eval   *eval.Evaluator
	tables Tables
	log    zerolog.Logger

	// Statistics
	searches atomic.Uint64
	nodes    atomic.Uint64
}

// EngineOptions configures the engine
type EngineOptions struct {
	WeightsFile string          // Path to a binary weights file (empty = built-in weights)
	Weights     *eval.Weights   // Weights to use instead of a file
	HashSize    int             // Main table entries (0 = DefaultHashSize)
	PVSize      int             // PV table entries (0 = DefaultPVSize)
	ShallowSize int             // Shallow table entries (0 = DefaultShallowSize)
	Threads     int             // Root split workers (0 or 1 = sequential, negative = GOMAXPROCS)
	Logger      *zerolog.Logger // Receives per-search debug lines (nil = silent)
}

// DefaultEngineOptions returns sensible defaults
func DefaultEngineOptions() EngineOptions {
	return EngineOptions{
		HashSize:    DefaultHashSize,
		PVSize:      DefaultPVSize,
		ShallowSize: DefaultShallowSize,
		Threads:     1,
	}
}

// NewEngine creates a new engine with the given options
func NewEngine(opts EngineOptions) (*Engine, error) {
	weights := opts.Weights
	if opts.WeightsFile != "" {
		w, err := eval.LoadWeights(opts.WeightsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load weights: %w", err)
		}
		weights = w
	}

	if opts.HashSize <= 0 {
		opts.HashSize = DefaultHashSize
	}
	if opts.PVSize <= 0 {
		opts.PVSize = DefaultPVSize
	}
	if opts.ShallowSize <= 0 {
		opts.ShallowSize = DefaultShallowSize
	}
	switch {
	case opts.Threads < 0:
		opts.Threads = runtime.GOMAXPROCS(0)
	case opts.Threads == 0:
		opts.Threads = 1
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "engine").Logger()
	}

	return &Engine{
		opts: opts,
		eval: eval.New(weights),
		log:  logger,
		tables: Tables{
			Hash:    NewHashTable(opts.HashSize),
			PV:      NewHashTable(opts.PVSize),
			Shallow: NewHashTable(opts.ShallowSize),
		},
	}, nil
}

// Evaluator returns the static evaluator
func (e *Engine) Evaluator() *eval.Evaluator { return e.eval }

// Options returns the options the engine was created with, after defaults
func (e *Engine) Options() EngineOptions { return e.opts }

// ClearTables forgets everything learnt by earlier searches
func (e *Engine) ClearTables() { e.tables.Clear() }

// Stats are engine usage counters
type Stats struct {
	Searches uint64     `json:"searches"`
	Nodes    uint64     `json:"nodes"`
	Hash     TableStats `json:"hash"`
	PV       TableStats `json:"pv"`
	Shallow  TableStats `json:"shallow"`
}

// Stats returns engine statistics
func (e *Engine) Stats() Stats {
	return Stats{
		Searches: e.searches.Load(),
		Nodes:    e.nodes.Load(),
		Hash:     e.tables.Hash.Stats(),
		PV:       e.tables.PV.Stats(),
		Shallow:  e.tables.Shallow.Stats(),
	}
}

// randSource draws from frand's global generator.
type randSource struct{}

func (randSource) Intn(n int) int { return frand.Intn(n) }
