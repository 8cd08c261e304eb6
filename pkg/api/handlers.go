package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lk16/swap/internal/othello"
	"github.com/lk16/swap/internal/positionid"
	"github.com/lk16/swap/pkg/engine"
)

// Handlers holds the HTTP handlers and engine reference.
type Handlers struct {
	engine        *engine.Engine
	version       string
	pool          *WorkerPool
	level         int
	maxSearchTime time.Duration
	queueTimeout  time.Duration
}

// NewHandlers creates a new Handlers instance without a worker pool.
func NewHandlers(e *engine.Engine, version string) *Handlers {
	return NewHandlersWithPool(e, version, nil)
}

// NewHandlersWithPool creates a new Handlers instance with a worker pool.
func NewHandlersWithPool(e *engine.Engine, version string, pool *WorkerPool) *Handlers {
	return &Handlers{
		engine:  e,
		version: version,
		pool:    pool,
		level:   engine.DefaultLevel,
	}
}

// WithLimits sets the level used when a request names none and the cap on
// search time (0 = none).
func (h *Handlers) WithLimits(level int, maxSearchTime time.Duration) *Handlers {
	if level > 0 {
		h.level = level
	}
	h.maxSearchTime = maxSearchTime
	return h
}

// WithQueueTimeout bounds how long a search waits for a free slot (0 = as
// long as the request lives).
func (h *Handlers) WithQueueTimeout(d time.Duration) *Handlers {
	h.queueTimeout = d
	return h
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, msg string, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: msg,
		Code:  code,
	})
}

// parsePosition accepts a position ID, 32 hex digits or a board string.
func parsePosition(s string) (othello.Position, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return othello.Position{}, errors.New("position is required")
	case len(s) == positionid.PositionIDLength:
		return positionid.FromPositionID(s)
	case len(strings.TrimPrefix(s, "0x")) == 32:
		return positionid.ParseHex(s)
	}
	p, _, err := positionid.ParseBoard(s)
	return p, err
}

func (h *Handlers) searchOptions(req *SearchRequest) (engine.SearchOptions, error) {
	opts := engine.SearchOptions{
		Level:       req.Level,
		Depth:       req.Depth,
		Selectivity: engine.NoSelectivity,
		Exact:       req.Exact,
		MaxTime:     h.maxSearchTime,
		MaxNodes:    req.MaxNodes,
	}
	if opts.Level == 0 {
		opts.Level = h.level
	}
	if opts.Level < 0 || opts.Level > engine.MaxLevel {
		return opts, fmt.Errorf("level must be 1-%d", engine.MaxLevel)
	}
	if opts.Depth < 0 || opts.Depth > 60 {
		return opts, errors.New("depth must be 0-60")
	}
	if req.Selectivity != nil {
		if *req.Selectivity < 0 || *req.Selectivity > engine.NoSelectivity {
			return opts, fmt.Errorf("selectivity must be 0-%d", engine.NoSelectivity)
		}
		opts.Selectivity = *req.Selectivity
	}
	if req.MaxTimeMs > 0 {
		d := time.Duration(req.MaxTimeMs) * time.Millisecond
		if opts.MaxTime == 0 || d < opts.MaxTime {
			opts.MaxTime = d
		}
	}
	return opts, nil
}

// decodeSearch reads a search request body and resolves it.
func (h *Handlers) decodeSearch(w http.ResponseWriter, r *http.Request) (othello.Position, engine.SearchOptions, bool) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", "INVALID_JSON")
		return othello.Position{}, engine.SearchOptions{}, false
	}
	p, err := parsePosition(req.Position)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_POSITION")
		return p, engine.SearchOptions{}, false
	}
	opts, err := h.searchOptions(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_OPTIONS")
		return p, opts, false
	}
	return p, opts, true
}

// waitSlow takes a search slot. When all are busy it queues for at most
// queueTimeout.
func (h *Handlers) waitSlow(ctx context.Context) error {
	if h.pool.TryAcquireSlow() {
		return nil
	}
	if h.queueTimeout > 0 {
		return h.pool.AcquireSlowWithTimeout(ctx, h.queueTimeout)
	}
	return h.pool.AcquireSlow(ctx)
}

func (h *Handlers) acquireSlow(w http.ResponseWriter, r *http.Request) bool {
	if h.pool == nil {
		return true
	}
	if err := h.waitSlow(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "server busy", "SERVER_BUSY")
		return false
	}
	return true
}

func (h *Handlers) releaseSlow() {
	if h.pool != nil {
		h.pool.ReleaseSlow()
	}
}

func searchStatus(err error) (int, string) {
	if errors.Is(err, engine.ErrInvalidPosition) {
		return http.StatusBadRequest, "INVALID_POSITION"
	}
	return http.StatusInternalServerError, "SEARCH_ERROR"
}

// Health handles GET /api/health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Version: h.version,
		Ready:   h.engine != nil,
	}
	if h.pool != nil {
		stats := h.pool.Stats()
		resp.Pool = &stats
	}
	writeJSON(w, http.StatusOK, resp)
}

// Stats handles GET /api/stats
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{Engine: h.engine.Stats()}
	if h.pool != nil {
		resp.Pool = h.pool.Stats()
	}
	writeJSON(w, http.StatusOK, resp)
}

// Moves handles POST /api/moves
func (h *Handlers) Moves(w http.ResponseWriter, r *http.Request) {
	// move listing never queues
	if h.pool != nil {
		if !h.pool.TryAcquireFast() {
			writeError(w, http.StatusServiceUnavailable, "server busy", "SERVER_BUSY")
			return
		}
		defer h.pool.ReleaseFast()
	}

	var req PositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", "INVALID_JSON")
		return
	}
	p, err := parsePosition(req.Position)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_POSITION")
		return
	}

	writeJSON(w, http.StatusOK, MovesResponse{
		Position: positionid.Hex(p),
		Moves:    squareNames(p.LegalMoves()),
		Pass:     !p.HasMoves() && p.OpponentHasMoves(),
		GameOver: p.IsTerminal(),
		Empties:  p.CountEmpty(),
	})
}

// Search handles POST /api/search
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	if !h.acquireSlow(w, r) {
		return
	}
	defer h.releaseSlow()

	p, opts, ok := h.decodeSearch(w, r)
	if !ok {
		return
	}
	res, err := h.engine.Search(r.Context(), p, opts)
	if err != nil {
		status, code := searchStatus(err)
		writeError(w, status, err.Error(), code)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse(res))
}

// Analyze handles POST /api/analyze
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	if !h.acquireSlow(w, r) {
		return
	}
	defer h.releaseSlow()

	p, opts, ok := h.decodeSearch(w, r)
	if !ok {
		return
	}
	a, err := h.engine.Analyze(r.Context(), p, opts)
	if err != nil {
		status, code := searchStatus(err)
		writeError(w, status, err.Error(), code)
		return
	}
	writeJSON(w, http.StatusOK, analyzeResponse(a))
}

// ClearCache handles DELETE /api/cache
func (h *Handlers) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.engine.ClearTables()
	writeJSON(w, http.StatusOK, CacheResponse{Cleared: true})
}
