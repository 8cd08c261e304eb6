package game

import (
	"context"
	"errors"
	"fmt"
	"math/bits"

	"lukechampine.com/frand"

	"github.com/lk16/swap/internal/othello"
	"github.com/lk16/swap/pkg/engine"
)

// Player errors
var (
	ErrUnknownPlayer = errors.New("unknown player")
	ErrNoMoves       = errors.New("no legal moves")
)

// Player names accepted by NewPlayer
const (
	Human   = "human"
	Random  = "random"
	Squared = "squared"
	Edax    = "edax"
)

// PlayerNames lists every known player in display order.
var PlayerNames = []string{Human, Random, Squared, Edax}

// Player picks moves for one colour. Humans are represented by a nil Player.
type Player interface {
	Name() string
	Move(ctx context.Context, b Board) (othello.Square, error)
}

// PlayerConfig holds what bots need to be built.
type PlayerConfig struct {
	Engine       *engine.Engine // Required by edax
	Level        int            // Edax level (0 = engine.DefaultLevel)
	SquaredDepth int            // Squared search depth (0 = 6)
	Rand         othello.Intn   // Random source (nil = frand)
}

// NewPlayer builds the player called name. It returns a nil Player for
// humans.
func NewPlayer(name string, cfg PlayerConfig) (Player, error) {
	rng := cfg.Rand
	if rng == nil {
		rng = frandSource{}
	}
	switch name {
	case Human:
		return nil, nil
	case Random:
		return &RandomPlayer{rng: rng}, nil
	case Squared:
		depth := cfg.SquaredDepth
		if depth <= 0 {
			depth = 6
		}
		return &SquaredPlayer{Depth: depth}, nil
	case Edax:
		if cfg.Engine == nil {
			return nil, fmt.Errorf("%w: %s needs an engine", ErrUnknownPlayer, name)
		}
		level := cfg.Level
		if level <= 0 {
			level = engine.DefaultLevel
		}
		return &EdaxPlayer{Engine: cfg.Engine, Level: level}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPlayer, name)
}

type frandSource struct{}

func (frandSource) Intn(n int) int { return frand.Intn(n) }

// RandomPlayer plays a uniformly random legal move.
type RandomPlayer struct {
	rng othello.Intn
}

func (*RandomPlayer) Name() string { return Random }

// Move picks a random legal move.
func (r *RandomPlayer) Move(_ context.Context, b Board) (othello.Square, error) {
	if !b.Position.HasMoves() {
		return othello.NoMove, ErrNoMoves
	}
	return othello.RandomMove(b.Position, r.rng), nil
}

// SquaredPlayer is a small fixed depth alpha-beta bot valuing corners and
// mobility.
type SquaredPlayer struct {
	Depth int
}

func (*SquaredPlayer) Name() string { return Squared }

const (
	cornerMask     = 0x8100000000000081
	squaredWinBase = 1000
)

// Move searches all legal moves to the configured depth.
func (s *SquaredPlayer) Move(ctx context.Context, b Board) (othello.Square, error) {
	moves := b.Position.Moves()
	switch {
	case moves == 0:
		return othello.NoMove, ErrNoMoves
	case bits.OnesCount64(moves) == 1:
		return othello.Square(bits.TrailingZeros64(moves)), nil
	}

	best, bestScore := othello.NoMove, -1<<30
	for ; moves != 0; moves &= moves - 1 {
		if err := ctx.Err(); err != nil {
			return othello.NoMove, err
		}
		sq := othello.Square(bits.TrailingZeros64(moves))
		score := -squaredNegamax(b.Position.Play(sq), s.Depth-1, -1<<30, 1<<30)
		if score > bestScore {
			best, bestScore = sq, score
		}
	}
	return best, nil
}

func squaredHeuristic(p othello.Position) int {
	corners := bits.OnesCount64(p.Player&cornerMask) - bits.OnesCount64(p.Opponent&cornerMask)
	mobility := bits.OnesCount64(p.Moves()) - bits.OnesCount64(p.OpponentMoves())
	return 3*corners + mobility
}

func squaredNegamax(p othello.Position, depth, alpha, beta int) int {
	moves := p.Moves()
	if moves == 0 {
		if !p.OpponentHasMoves() {
			// finished games outrank any heuristic value
			return squaredWinBase * p.FinalScore()
		}
		if depth == 0 {
			return squaredHeuristic(p)
		}
		return -squaredNegamax(p.Pass(), depth-1, -beta, -alpha)
	}
	if depth == 0 {
		return squaredHeuristic(p)
	}

	best := -1 << 30
	for ; moves != 0; moves &= moves - 1 {
		score := -squaredNegamax(p.Play(othello.Square(bits.TrailingZeros64(moves))), depth-1, -beta, -alpha)
		best = max(best, score)
		alpha = max(alpha, score)
		if alpha >= beta {
			break
		}
	}
	return best
}

// EdaxPlayer asks the search engine for its best move at a level.
type EdaxPlayer struct {
	Engine *engine.Engine
	Level  int
}

func (*EdaxPlayer) Name() string { return Edax }

// Move runs an engine search.
func (e *EdaxPlayer) Move(ctx context.Context, b Board) (othello.Square, error) {
	if !b.Position.HasMoves() {
		return othello.NoMove, ErrNoMoves
	}
	return e.Engine.BestMove(ctx, b.Position, e.Level)
}
