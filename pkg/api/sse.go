package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/lk16/swap/pkg/engine"
)

// SearchSSE streams the iterations of a search as Server-Sent Events: one
// "iteration" event per completed depth, then "result" and "done".
// GET /api/search/stream?position=...&level=...&depth=...&exact=...
func (h *Handlers) SearchSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeSSEError(w, "streaming not supported")
		return
	}

	query := r.URL.Query()
	req := SearchRequest{
		Position:  query.Get("position"),
		Level:     parseIntParam(query.Get("level"), 0),
		Depth:     parseIntParam(query.Get("depth"), 0),
		MaxTimeMs: parseIntParam(query.Get("max_time_ms"), 0),
		Exact:     query.Get("exact") == "true" || query.Get("exact") == "1",
	}
	if s := query.Get("selectivity"); s != "" {
		sel := parseIntParam(s, -1)
		req.Selectivity = &sel
	}

	p, err := parsePosition(req.Position)
	if err != nil {
		writeSSEError(w, "invalid position: "+err.Error())
		return
	}
	opts, err := h.searchOptions(&req)
	if err != nil {
		writeSSEError(w, err.Error())
		return
	}

	if h.pool != nil {
		if err := h.waitSlow(r.Context()); err != nil {
			writeSSEError(w, "server busy")
			return
		}
		defer h.pool.ReleaseSlow()
	}

	var mu sync.Mutex
	opts.OnIteration = func(it engine.Iteration) {
		mu.Lock()
		defer mu.Unlock()
		writeSSEEvent(w, "iteration", iterationResponse(it))
		flusher.Flush()
	}

	res, err := h.engine.Search(r.Context(), p, opts)
	mu.Lock()
	defer mu.Unlock()
	if err != nil {
		writeSSEError(w, "search failed: "+err.Error())
		return
	}
	writeSSEEvent(w, "result", searchResponse(res))
	writeSSEEvent(w, "done", nil)
	flusher.Flush()
}

// writeSSEEvent writes a Server-Sent Event to the response.
func writeSSEEvent(w http.ResponseWriter, event string, data any) {
	fmt.Fprintf(w, "event: %s\n", event)
	if data != nil {
		jsonData, _ := json.Marshal(data)
		fmt.Fprintf(w, "data: %s\n", jsonData)
	}
	fmt.Fprintf(w, "\n")
}

// writeSSEError writes an error event and closes the stream.
func writeSSEError(w http.ResponseWriter, message string) {
	writeSSEEvent(w, "error", ErrorResponse{Error: message})
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

// parseIntParam parses an integer from a string with a default value.
func parseIntParam(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return val
}
