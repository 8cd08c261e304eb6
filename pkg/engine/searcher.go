package engine

import (
	"context"
	"math/bits"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/lk16/swap/internal/eval"
	"github.com/lk16/swap/internal/othello"
)

// Tables are the transposition tables shared by all searches of an engine.
type Tables struct {
	Hash    *HashTable
	PV      *HashTable
	Shallow *HashTable
}

// NewSearch ages every table.
func (t Tables) NewSearch() {
	t.Hash.NewSearch()
	t.PV.NewSearch()
	t.Shallow.NewSearch()
}

// Clear empties every table.
func (t Tables) Clear() {
	t.Hash.Clear()
	t.PV.Clear()
	t.Shallow.Clear()
}

// control is the budget of one search, shared by all its searchers.
type control struct {
	ctx      context.Context
	maxNodes uint64
	nodes    atomic.Uint64
	stopped  atomic.Bool
}

func newControl(ctx context.Context, maxNodes uint64) *control {
	return &control{ctx: ctx, maxNodes: maxNodes}
}

// add accounts for n visited nodes and checks the budget.
func (c *control) add(n uint64) {
	total := c.nodes.Add(n)
	if c.maxNodes > 0 && total >= c.maxNodes {
		c.stopped.Store(true)
		return
	}
	if c.ctx.Err() != nil {
		c.stopped.Store(true)
	}
}

// node describes where a position sits in the search tree.
type node struct {
	height int
	kind   NodeKind
}

func (n node) child(kind NodeKind) node { return node{height: n.height + 1, kind: kind} }

// pass keeps the expected kind sequence going through a pass.
func (n node) pass() node { return n.child(n.kind.next()) }

// searcher runs the recursive search for one goroutine. The tables are
// handed in explicitly; only hash and pv may be shared between searchers.
type searcher struct {
	hash    *HashTable
	pv      *HashTable
	shallow *HashTable
	eval    *eval.Evaluator
	ctrl    *control
	log     zerolog.Logger

	selectivity  int
	probcutLevel int
	pvExtension  int
	threads      int

	// root stability bound, used to clamp root child scores
	rootLower int
	rootUpper int

	nodes   uint64 // visited by this searcher
	pending uint64 // not yet reported to ctrl

	root    moveList       // root moves in search order
	workers chan *searcher // idle root split workers
}

func newSearcher(t Tables, ev *eval.Evaluator, ctrl *control) *searcher {
	return &searcher{
		hash:        t.Hash,
		pv:          t.PV,
		shallow:     t.Shallow,
		eval:        ev,
		ctrl:        ctrl,
		log:         zerolog.Nop(),
		selectivity: NoSelectivity,
		pvExtension: -1,
		threads:     1,
		rootLower:   ScoreMin,
		rootUpper:   ScoreMax,
	}
}

// worker returns a searcher for a parallel root split. It shares the
// budget and the hash and pv tables, and owns a fresh shallow table.
func (s *searcher) worker() *searcher {
	w := *s
	w.shallow = NewHashTable(s.shallow.Capacity())
	w.nodes, w.pending = 0, 0
	w.threads = 1
	w.workers = nil
	return &w
}

func (s *searcher) countNode() {
	s.nodes++
	s.pending++
	if s.pending >= stopCheckInterval {
		s.flush()
	}
}

// flush reports pending nodes to the shared budget.
func (s *searcher) flush() {
	s.ctrl.add(s.pending)
	s.pending = 0
}

func (s *searcher) running() bool { return !s.ctrl.stopped.Load() }

// cost converts a node count into the table's log scale.
func cost(nodes uint64) int {
	if nodes == 0 {
		return 0
	}
	return bits.Len64(nodes) - 1
}

// stabilityBound returns the score interval guaranteed by stable discs.
func stabilityBound(p othello.Position) (lower, upper int) {
	return 2*p.CountStable() - ScoreMax, ScoreMax - 2*p.CountOpponentStable()
}

// hashData looks p up in the pv table, then the hash table.
func (s *searcher) hashData(p othello.Position) (HashData, bool) {
	if d, ok := s.pv.Get(p); ok {
		return d, true
	}
	return s.hash.Get(p)
}
