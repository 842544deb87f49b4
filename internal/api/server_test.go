package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loot-tracker/internal/ledger"
	"loot-tracker/internal/loot"
	"loot-tracker/internal/tracker"
	"loot-tracker/pkg/logger"
)

type fakeControl struct {
	mu       sync.Mutex
	state    tracker.State
	mode     loot.Mode
	snap     ledger.Snapshot
	startErr error
	resets   int
	updates  chan ledger.Snapshot
}

func newFakeControl() *fakeControl {
	return &fakeControl{
		snap: ledger.Snapshot{
			"Black Stone": {ID: 1, Name: "Black Stone", Amount: 3, UnitPrice: 200_000},
			"Silver":      {ID: 2, Name: "Silver", Amount: 5000, UnitPrice: 1},
		},
		updates: make(chan ledger.Snapshot, 1),
	}
}

func (f *fakeControl) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	if f.state == tracker.Started {
		return tracker.ErrAlreadyStarted
	}
	f.state = tracker.Started
	return nil
}

func (f *fakeControl) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != tracker.Started {
		return tracker.ErrNotStarted
	}
	f.state = tracker.Stopped
	return nil
}

func (f *fakeControl) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	f.snap = ledger.Snapshot{}
}

func (f *fakeControl) SetMode(mode loot.Mode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mode = mode
}

func (f *fakeControl) Status() tracker.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return tracker.Status{State: f.state, Mode: f.mode}
}

func (f *fakeControl) Snapshot() ledger.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeControl) Subscribe(ctx context.Context) <-chan ledger.Snapshot {
	return f.updates
}

func (f *fakeControl) History() []ledger.HistoryEntry {
	return []ledger.HistoryEntry{{Event: loot.Event{Name: "Black Stone", Amount: 3, Hour: 12, Minute: 5}}}
}

func setupTestServer(t *testing.T) (*Server, *fakeControl) {
	gin.SetMode(gin.TestMode)
	ctl := newFakeControl()
	return NewServer("", ctl, logger.Nop()), ctl
}

func performRequest(h http.Handler, method, path string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestLootSortedWithTotal(t *testing.T) {
	s, _ := setupTestServer(t)

	rec := performRequest(s.Handler(), http.MethodGet, "/api/loot", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view lootView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Items, 2)
	assert.Equal(t, "Black Stone", view.Items[0].Name)
	assert.Equal(t, "600.00K", view.Items[0].Value)
	assert.Equal(t, uint64(605_000), view.Raw)
	assert.Equal(t, "605.00K", view.Total)
}

func TestSessionLifecycle(t *testing.T) {
	s, _ := setupTestServer(t)
	h := s.Handler()

	rec := performRequest(h, http.MethodPost, "/api/session/stop", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = performRequest(h, http.MethodPost, "/api/session/start", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"started"`)

	rec = performRequest(h, http.MethodPost, "/api/session/start", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = performRequest(h, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"started"`)

	rec = performRequest(h, http.MethodPost, "/api/session/stop", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"stopped"`)
}

func TestStartFailure(t *testing.T) {
	s, ctl := setupTestServer(t)
	ctl.startErr = errors.New("window not found")

	rec := performRequest(s.Handler(), http.MethodPost, "/api/session/start", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "window not found")
}

func TestResetClearsLoot(t *testing.T) {
	s, ctl := setupTestServer(t)

	rec := performRequest(s.Handler(), http.MethodPost, "/api/session/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, ctl.resets)
	assert.Contains(t, rec.Body.String(), `"items":[]`)
}

func TestSetMode(t *testing.T) {
	s, ctl := setupTestServer(t)
	h := s.Handler()

	rec := performRequest(h, http.MethodPut, "/api/mode", strings.NewReader(`{"mode":"drop"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, loot.DropLog, ctl.mode)
	assert.Contains(t, rec.Body.String(), `"mode":"drop"`)

	rec = performRequest(h, http.MethodPut, "/api/mode", strings.NewReader(`{"mode":"party"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = performRequest(h, http.MethodPut, "/api/mode", strings.NewReader(`{}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistory(t *testing.T) {
	s, _ := setupTestServer(t)

	rec := performRequest(s.Handler(), http.MethodGet, "/api/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Black Stone"`)
}

func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var event, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if event != "" {
				return event, data
			}
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimPrefix(line, "event:")
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimPrefix(line, "data:")
		}
	}
}

func TestStreamPushesUpdates(t *testing.T) {
	s, ctl := setupTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/loot/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	r := bufio.NewReader(resp.Body)
	event, data := readEvent(t, r)
	assert.Equal(t, "loot", event)
	assert.Contains(t, data, `"total":"605.00K"`)

	ctl.updates <- ledger.Snapshot{"Silver": {ID: 2, Name: "Silver", Amount: 7, UnitPrice: 1}}

	event, data = readEvent(t, r)
	assert.Equal(t, "loot", event)
	var view lootView
	require.NoError(t, json.NewDecoder(bytes.NewBufferString(data)).Decode(&view))
	assert.Equal(t, uint64(7), view.Raw)
}
