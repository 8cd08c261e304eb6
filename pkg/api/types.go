// Package api serves the engine over HTTP: JSON endpoints for move
// generation, search and analysis, a server-sent event stream of search
// iterations, and the websocket game session protocol.
package api

import (
	"time"

	"github.com/samber/lo"

	"github.com/lk16/swap/internal/othello"
	"github.com/lk16/swap/pkg/engine"
)

// PositionRequest names a position in any of the positionid encodings: a
// board string, 32 hex digits or a position ID.
type PositionRequest struct {
	Position string `json:"position"`
}

// SearchRequest is the request body for search and analysis.
type SearchRequest struct {
	Position    string `json:"position"`              // Board string, hex or position ID
	Level       int    `json:"level,omitempty"`       // Level 1..60 (0 = server default)
	Depth       int    `json:"depth,omitempty"`       // Explicit depth, overrides level
	Selectivity *int   `json:"selectivity,omitempty"` // 0..5 with depth (default 5)
	Exact       bool   `json:"exact,omitempty"`       // Solve exactly to the end
	MaxTimeMs   int    `json:"max_time_ms,omitempty"` // Time budget, capped by the server
	MaxNodes    uint64 `json:"max_nodes,omitempty"`   // Node budget (0 = unlimited)
}

// MovesResponse lists the legal moves of a position.
type MovesResponse struct {
	Position string   `json:"position"`  // Hex encoding of the position
	Moves    []string `json:"moves"`     // Legal moves
	Pass     bool     `json:"pass"`      // The side to move has to pass
	GameOver bool     `json:"game_over"` // Neither side can move
	Empties  int      `json:"empties"`
}

// SearchResponse is the response for a search.
type SearchResponse struct {
	Move        string   `json:"move"`
	Score       int      `json:"score"`
	Bound       string   `json:"bound"`
	Depth       int      `json:"depth"`
	Selectivity int      `json:"selectivity"`
	Probability int      `json:"probability"` // ProbCut confidence in percent
	Nodes       uint64   `json:"nodes"`
	ElapsedMs   int64    `json:"elapsed_ms"`
	PV          []string `json:"pv"`
	Complete    bool     `json:"complete"`
}

// MoveScoreResponse is one ranked move of an analysis.
type MoveScoreResponse struct {
	Move  string   `json:"move"`
	Score int      `json:"score"`
	Bound string   `json:"bound"`
	PV    []string `json:"pv"`
}

// AnalyzeResponse is the response for an analysis.
type AnalyzeResponse struct {
	Moves       []MoveScoreResponse `json:"moves"`
	Depth       int                 `json:"depth"`
	Selectivity int                 `json:"selectivity"`
	Nodes       uint64              `json:"nodes"`
	ElapsedMs   int64               `json:"elapsed_ms"`
	Complete    bool                `json:"complete"`
}

// ErrorResponse is returned when an error occurs.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// HealthResponse is the response for health check.
type HealthResponse struct {
	Status  string     `json:"status"`
	Version string     `json:"version"`
	Ready   bool       `json:"ready"`
	Pool    *PoolStats `json:"pool,omitempty"`
}

// StatsResponse reports engine and pool counters.
type StatsResponse struct {
	Engine engine.Stats `json:"engine"`
	Pool   PoolStats    `json:"pool"`
}

// CacheResponse is the response for DELETE /api/cache.
type CacheResponse struct {
	Cleared bool `json:"cleared"`
}

// StateMessage is the board state pushed to websocket clients.
type StateMessage struct {
	Black []int  `json:"black"`
	White []int  `json:"white"`
	Moves []int  `json:"moves"`
	Turn  string `json:"turn"`
}

func squareNames(sqs []othello.Square) []string {
	return lo.Map(sqs, func(sq othello.Square, _ int) string { return sq.String() })
}

func squareIndices(b uint64) []int {
	return lo.Map(othello.Squares(b), func(sq othello.Square, _ int) int { return int(sq) })
}

func millis(d time.Duration) int64 { return d.Milliseconds() }

func searchResponse(r *engine.SearchResult) SearchResponse {
	return SearchResponse{
		Move:        r.Move.String(),
		Score:       r.Score,
		Bound:       r.Bound.String(),
		Depth:       r.Depth,
		Selectivity: r.Selectivity,
		Probability: r.Probability(),
		Nodes:       r.Nodes,
		ElapsedMs:   millis(r.Elapsed),
		PV:          squareNames(r.PV),
		Complete:    r.Complete,
	}
}

func iterationResponse(it engine.Iteration) SearchResponse {
	return searchResponse(&engine.SearchResult{Iteration: it})
}

func analyzeResponse(a *engine.Analysis) AnalyzeResponse {
	return AnalyzeResponse{
		Moves: lo.Map(a.Moves, func(m engine.MoveScore, _ int) MoveScoreResponse {
			return MoveScoreResponse{Move: m.Move.String(), Score: m.Score, Bound: m.Bound.String(), PV: squareNames(m.PV)}
		}),
		Depth:       a.Depth,
		Selectivity: a.Selectivity,
		Nodes:       a.Nodes,
		ElapsedMs:   millis(a.Elapsed),
		Complete:    a.Complete,
	}
}
