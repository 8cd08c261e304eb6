package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"lukechampine.com/frand"

	"github.com/lk16/swap/internal/othello"
	"github.com/lk16/swap/internal/positionid"
	"github.com/lk16/swap/pkg/engine"
)

// getTestEngine returns an engine with small tables
func getTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	eng, err := engine.NewEngine(engine.EngineOptions{HashSize: 1 << 14, PVSize: 1 << 10, ShallowSize: 1 << 12})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return eng
}

func postJSON(t *testing.T, handler http.HandlerFunc, body any) *http.Response {
	t.Helper()
	var data []byte
	if s, ok := body.(string); ok {
		data = []byte(s)
	} else {
		data, _ = json.Marshal(body)
	}
	req := httptest.NewRequest("POST", "/", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w.Result()
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	return v
}

var startHex = positionid.Hex(othello.Start())

func TestHealthHandler(t *testing.T) {
	h := NewHandlers(nil, "test-version")

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest("GET", "/api/health", nil))

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Health status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	health := decode[HealthResponse](t, resp)
	if health.Status != "ok" || health.Version != "test-version" {
		t.Errorf("health = %+v", health)
	}
	if health.Ready || health.Pool != nil {
		t.Error("expected not ready and no pool without engine")
	}

	h = NewHandlersWithPool(getTestEngine(t), "1.0.0", NewWorkerPool(DefaultPoolConfig()))
	w = httptest.NewRecorder()
	h.Health(w, httptest.NewRequest("GET", "/api/health", nil))
	health = decode[HealthResponse](t, w.Result())
	if !health.Ready || health.Pool == nil {
		t.Errorf("health = %+v, want ready with pool", health)
	}
}

func TestParsePosition(t *testing.T) {
	start := othello.Start()
	tests := []struct {
		name    string
		input   string
		want    othello.Position
		wantErr bool
	}{
		{"board string", positionid.FormatBoard(start, true), start, false},
		{"hex", startHex, start, false},
		{"hex with prefix", "0x" + startHex, start, false},
		{"position id", positionid.PositionID(start), start, false},
		{"empty", "", othello.Position{}, true},
		{"garbage", "not a position", othello.Position{}, true},
		{"overlapping discs", strings.Repeat("f", 32), othello.Position{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePosition(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parsePosition(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parsePosition(%q) = %v", tt.input, got)
			}
		})
	}
}

func TestMovesHandler(t *testing.T) {
	h := NewHandlers(getTestEngine(t), "1.0.0")

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantMoves  []string
		wantPass   bool
		wantOver   bool
	}{
		{"start", PositionRequest{Position: startHex}, http.StatusOK, []string{"d3", "c4", "f5", "e6"}, false, false},
		{"pass", PositionRequest{Position: positionid.Hex(othello.Position{Player: 0x8, Opponent: 0x7})}, http.StatusOK, []string{}, true, false},
		{"game over", PositionRequest{Position: positionid.Hex(othello.Position{Player: 0x1})}, http.StatusOK, []string{}, false, true},
		{"missing position", PositionRequest{}, http.StatusBadRequest, nil, false, false},
		{"invalid json", "not json", http.StatusBadRequest, nil, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, h.Moves, tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("Status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				if e := decode[ErrorResponse](t, resp); e.Error == "" || e.Code == "" {
					t.Errorf("error response = %+v", e)
				}
				return
			}
			got := decode[MovesResponse](t, resp)
			if strings.Join(got.Moves, ",") != strings.Join(tt.wantMoves, ",") {
				t.Errorf("moves = %v, want %v", got.Moves, tt.wantMoves)
			}
			if got.Pass != tt.wantPass || got.GameOver != tt.wantOver {
				t.Errorf("pass %v game over %v", got.Pass, got.GameOver)
			}
		})
	}
}

func TestSearchHandler(t *testing.T) {
	h := NewHandlers(getTestEngine(t), "1.0.0")

	resp := postJSON(t, h.Search, SearchRequest{Position: startHex, Depth: 4})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Status = %d", resp.StatusCode)
	}
	got := decode[SearchResponse](t, resp)
	legal := map[string]bool{"d3": true, "c4": true, "f5": true, "e6": true}
	if !legal[got.Move] {
		t.Errorf("move = %q, not legal at the start", got.Move)
	}
	if got.Depth != 4 || !got.Complete || len(got.PV) == 0 || got.PV[0] != got.Move {
		t.Errorf("result = %+v", got)
	}

	rng := frand.NewCustom(make([]byte, 32), 1024, 12)
	p := othello.RandomWithEmpties(rng, 10)
	resp = postJSON(t, h.Search, SearchRequest{Position: positionid.Hex(p), Exact: true})
	got = decode[SearchResponse](t, resp)
	if want := engine.SolveExact(p); got.Score != want || got.Bound != "exact" {
		t.Errorf("exact score = %d (%s), want %d", got.Score, got.Bound, want)
	}
}

func TestSearchHandlerErrors(t *testing.T) {
	h := NewHandlers(getTestEngine(t), "1.0.0")
	badSel := 9

	tests := []struct {
		name     string
		body     any
		wantCode string
	}{
		{"invalid json", "{", "INVALID_JSON"},
		{"invalid position", SearchRequest{Position: "xyz"}, "INVALID_POSITION"},
		{"level too high", SearchRequest{Position: startHex, Level: 99}, "INVALID_OPTIONS"},
		{"negative depth", SearchRequest{Position: startHex, Depth: -1}, "INVALID_OPTIONS"},
		{"bad selectivity", SearchRequest{Position: startHex, Depth: 2, Selectivity: &badSel}, "INVALID_OPTIONS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, h.Search, tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("Status = %d, want 400", resp.StatusCode)
			}
			if e := decode[ErrorResponse](t, resp); e.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", e.Code, tt.wantCode)
			}
		})
	}
}

func TestSearchOptionsLimits(t *testing.T) {
	h := NewHandlers(nil, "1.0.0").WithLimits(10, time.Second)

	tests := []struct {
		name      string
		req       SearchRequest
		wantLevel int
		wantTime  time.Duration
		wantSel   int
	}{
		{"defaults", SearchRequest{}, 10, time.Second, engine.NoSelectivity},
		{"shorter time", SearchRequest{MaxTimeMs: 200}, 10, 200 * time.Millisecond, engine.NoSelectivity},
		{"capped time", SearchRequest{MaxTimeMs: 5000}, 10, time.Second, engine.NoSelectivity},
		{"explicit level", SearchRequest{Level: 3, Selectivity: new(int)}, 3, time.Second, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := h.searchOptions(&tt.req)
			if err != nil {
				t.Fatalf("searchOptions failed: %v", err)
			}
			if opts.Level != tt.wantLevel || opts.MaxTime != tt.wantTime || opts.Selectivity != tt.wantSel {
				t.Errorf("options = %+v", opts)
			}
		})
	}
}

func TestAnalyzeHandler(t *testing.T) {
	h := NewHandlers(getTestEngine(t), "1.0.0")

	resp := postJSON(t, h.Analyze, SearchRequest{Position: startHex, Depth: 2})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Status = %d", resp.StatusCode)
	}
	got := decode[AnalyzeResponse](t, resp)
	if len(got.Moves) != 4 {
		t.Fatalf("analysis has %d moves, want 4", len(got.Moves))
	}
	for i := 1; i < len(got.Moves); i++ {
		if got.Moves[i].Score > got.Moves[i-1].Score {
			t.Errorf("moves not sorted: %+v", got.Moves)
		}
	}
}

func TestSearchHandlerBusy(t *testing.T) {
	pool := NewWorkerPool(PoolConfig{MaxFastWorkers: 1, MaxSlowWorkers: 1})
	h := NewHandlersWithPool(getTestEngine(t), "1.0.0", pool)
	if !pool.TryAcquireSlow() {
		t.Fatal("could not fill the pool")
	}
	defer pool.ReleaseSlow()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	body, _ := json.Marshal(SearchRequest{Position: startHex, Depth: 2})
	req := httptest.NewRequest("POST", "/api/search", bytes.NewReader(body)).WithContext(ctx)
	w := httptest.NewRecorder()
	h.Search(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want 503", w.Code)
	}
}

func TestSearchHandlerQueueTimeout(t *testing.T) {
	pool := NewWorkerPool(PoolConfig{MaxFastWorkers: 1, MaxSlowWorkers: 1})
	h := NewHandlersWithPool(getTestEngine(t), "1.0.0", pool).WithQueueTimeout(20 * time.Millisecond)
	if !pool.TryAcquireSlow() {
		t.Fatal("could not fill the pool")
	}

	start := time.Now()
	resp := postJSON(t, h.Search, SearchRequest{Position: startHex, Depth: 2})
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want 503", resp.StatusCode)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("busy answer took %v", elapsed)
	}

	pool.ReleaseSlow()
	if resp := postJSON(t, h.Search, SearchRequest{Position: startHex, Depth: 2}); resp.StatusCode != http.StatusOK {
		t.Errorf("Status = %d after the slot was freed", resp.StatusCode)
	}
	if st := pool.Stats(); st.ActiveSlow != 0 || st.QueuedSlow != 0 {
		t.Errorf("pool stats = %+v", st)
	}
}

func TestMovesHandlerBusy(t *testing.T) {
	pool := NewWorkerPool(PoolConfig{MaxFastWorkers: 1, MaxSlowWorkers: 1})
	h := NewHandlersWithPool(getTestEngine(t), "1.0.0", pool)
	if !pool.TryAcquireFast() {
		t.Fatal("could not fill the pool")
	}
	defer pool.ReleaseFast()

	resp := postJSON(t, h.Moves, PositionRequest{Position: startHex})
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want 503", resp.StatusCode)
	}
}

func TestServerRoutes(t *testing.T) {
	srv := NewServer(getTestEngine(t), DefaultConfig(), "test")
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/search", "application/json", strings.NewReader(`{"position":"`+startHex+`","depth":3}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search status = %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/api/stats")
	if err != nil {
		t.Fatal(err)
	}
	stats := decode[StatsResponse](t, resp)
	resp.Body.Close()
	if stats.Engine.Searches < 1 || stats.Pool.TotalSlow != 1 {
		t.Errorf("stats = %+v", stats)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/cache", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	if cleared := decode[CacheResponse](t, resp); !cleared.Cleared {
		t.Error("cache not cleared")
	}
	resp.Body.Close()

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/health", http.StatusOK},
		{http.MethodOptions, "/api/search", http.StatusOK},
		{http.MethodPost, "/api/health", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/unknown", http.StatusNotFound},
	}
	for _, tt := range tests {
		req, _ := http.NewRequest(tt.method, ts.URL+tt.path, nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != tt.want {
			t.Errorf("%s %s = %d, want %d", tt.method, tt.path, resp.StatusCode, tt.want)
		}
		if tt.path == "/api/health" && tt.method == http.MethodGet && resp.Header.Get("Access-Control-Allow-Origin") != "*" {
			t.Error("missing CORS header")
		}
	}
}

func TestSearchSSE(t *testing.T) {
	srv := NewServer(getTestEngine(t), DefaultConfig(), "test")
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/search/stream?depth=3&position=" + url.QueryEscape(startHex))
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	stream := string(body)
	for _, event := range []string{"event: iteration", "event: result", "event: done"} {
		if !strings.Contains(stream, event) {
			t.Errorf("stream lacks %q:\n%s", event, stream)
		}
	}
	if strings.Index(stream, "event: iteration") > strings.Index(stream, "event: result") {
		t.Error("result sent before iterations")
	}

	resp, err = http.Get(ts.URL + "/api/search/stream")
	if err != nil {
		t.Fatal(err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "event: error") {
		t.Errorf("missing position: stream = %s", body)
	}
}

func TestParseIntParam(t *testing.T) {
	tests := []struct {
		in   string
		def  int
		want int
	}{
		{"", 7, 7},
		{"12", 7, 12},
		{"-3", 7, -3},
		{"x1", 7, 7},
	}
	for _, tt := range tests {
		if got := parseIntParam(tt.in, tt.def); got != tt.want {
			t.Errorf("parseIntParam(%q, %d) = %d, want %d", tt.in, tt.def, got, tt.want)
		}
	}
}
