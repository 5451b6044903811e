package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sadopc/breathr/internal/pacer"
	"github.com/sadopc/breathr/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Add(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	clock *fakeClock
	sched *pacer.ManualScheduler
	store *store.Store
	mgr   *Manager
	srv   *Server
	logs  *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	f := &fixture{
		clock: &fakeClock{now: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)},
		sched: pacer.NewManualScheduler(),
		store: st,
		logs:  logs,
	}
	f.mgr = NewManager(WithScheduler(f.sched), WithClock(f.clock), WithRecorder(st), WithLogger(log))
	f.srv = New(f.mgr, pacer.Config{PhaseDurationSeconds: 1, TotalDurationMinutes: 1, Theme: "ocean", SoundType: "none"}, log)
	f.srv.streamInterval = time.Millisecond
	return f
}

// advance moves the clock and fires one tick.
func (f *fixture) advance(d time.Duration) {
	f.clock.Add(d)
	f.sched.Fire()
}

func (f *fixture) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, Snapshot) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.srv.Routes().ServeHTTP(rec, req)

	var snap Snapshot
	if rec.Code < 300 && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	}
	return rec, snap
}

func TestCreateSessionDefaults(t *testing.T) {
	f := newFixture(t)
	rec, snap := f.do(t, http.MethodPost, "/sessions", "")

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, snap.ID)
	assert.True(t, snap.Active)
	assert.Equal(t, "Prepare", snap.Phase)
	assert.Equal(t, 3, snap.Countdown)
	assert.Nil(t, snap.Trace)
	assert.Equal(t, 1, snap.Config.PhaseDurationSeconds)
	assert.Equal(t, 1, f.sched.Len())
}

func TestCreateSessionWithConfig(t *testing.T) {
	f := newFixture(t)
	rec, snap := f.do(t, http.MethodPost, "/sessions",
		`{"phase_duration_seconds": 5, "total_duration_minutes": 2, "theme": "forest"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 5, snap.Config.PhaseDurationSeconds)
	assert.Equal(t, 2, snap.Config.TotalDurationMinutes)
	assert.Equal(t, "forest", snap.Config.Theme)
	assert.Equal(t, "none", snap.Config.SoundType, "unset fields keep defaults")
}

func TestCreateSessionInvalid(t *testing.T) {
	f := newFixture(t)

	rec, _ := f.do(t, http.MethodPost, "/sessions", `{"phase_duration_seconds": 0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "phase_duration_seconds")

	rec, _ = f.do(t, http.MethodPost, "/sessions", `{"total_duration_minutes": 9223372036854775}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "total_duration_minutes")

	rec, _ = f.do(t, http.MethodPost, "/sessions", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, 0, f.sched.Len(), "nothing should be armed")
}

func TestGetSession(t *testing.T) {
	f := newFixture(t)
	_, created := f.do(t, http.MethodPost, "/sessions", "")

	f.advance(3500 * time.Millisecond)
	rec, snap := f.do(t, http.MethodGet, "/sessions/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Inhale", snap.Phase)
	assert.Equal(t, "Breathe in", snap.Label)
	assert.InDelta(t, 50, snap.PhaseProgress, 1e-9)
	assert.Equal(t, int64(3500), snap.ElapsedMS)
	require.NotNil(t, snap.Trace)
	assert.InDelta(t, 0, snap.Trace.X, 1e-9)
	assert.InDelta(t, -1, snap.Trace.Y, 1e-9)
}

func TestGetSessionNotFound(t *testing.T) {
	f := newFixture(t)
	rec, _ := f.do(t, http.MethodGet, "/sessions/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPauseResume(t *testing.T) {
	f := newFixture(t)
	_, created := f.do(t, http.MethodPost, "/sessions", "")
	path := "/sessions/" + created.ID

	rec, snap := f.do(t, http.MethodPost, path+"/pause", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, snap.Paused)

	rec, _ = f.do(t, http.MethodPost, path+"/pause", "")
	assert.Equal(t, http.StatusConflict, rec.Code, "double pause")

	f.advance(10 * time.Second)
	_, snap = f.do(t, http.MethodGet, path, "")
	assert.Equal(t, int64(0), snap.ElapsedMS, "paused session must not advance")

	rec, snap = f.do(t, http.MethodPost, path+"/resume", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, snap.Paused)
}

func TestStopRecordsPartialSession(t *testing.T) {
	f := newFixture(t)
	_, created := f.do(t, http.MethodPost, "/sessions", "")

	f.advance(20 * time.Second)
	rec, snap := f.do(t, http.MethodPost, "/sessions/"+created.ID+"/stop", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, snap.Active)
	assert.Equal(t, 0, f.sched.Len())

	saved, err := f.store.GetSession(created.ID)
	require.NoError(t, err)
	assert.False(t, saved.Completed)
	assert.Equal(t, int64(20), saved.ElapsedSeconds)

	// Stopping again is harmless.
	rec, _ = f.do(t, http.MethodPost, "/sessions/"+created.ID+"/stop", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = f.do(t, http.MethodPost, "/sessions/"+created.ID+"/resume", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCompletionRecordsSession(t *testing.T) {
	f := newFixture(t)
	_, created := f.do(t, http.MethodPost, "/sessions", "")

	f.advance(time.Minute)
	_, snap := f.do(t, http.MethodGet, "/sessions/"+created.ID, "")
	assert.True(t, snap.Complete)
	assert.True(t, snap.Active, "still inside the grace period")

	f.advance(pacer.CompletionGrace)
	_, snap = f.do(t, http.MethodGet, "/sessions/"+created.ID, "")
	assert.False(t, snap.Active)
	assert.Equal(t, float64(100), snap.TotalProgress)

	saved, err := f.store.GetSession(created.ID)
	require.NoError(t, err)
	assert.True(t, saved.Completed)
	assert.Equal(t, int64(60), saved.ElapsedSeconds)
}

func TestStreamEventsEndsWithFinalState(t *testing.T) {
	f := newFixture(t)
	_, created := f.do(t, http.MethodPost, "/sessions", "")
	f.advance(5 * time.Second)
	f.mgr.Stop(created.ID)

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+created.ID+"/events", nil)
	rec := httptest.NewRecorder()
	f.srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "event: end\ndata: "), body)

	line := strings.TrimPrefix(strings.Split(body, "\n")[1], "data: ")
	var snap Snapshot
	require.NoError(t, json.Unmarshal([]byte(line), &snap))
	assert.Equal(t, int64(5000), snap.ElapsedMS)
}

func TestStreamEventsWhileRunning(t *testing.T) {
	f := newFixture(t)
	_, created := f.do(t, http.MethodPost, "/sessions", "")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/sessions/"+created.ID+"/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	f.srv.Routes().ServeHTTP(rec, req)

	events := 0
	sc := bufio.NewScanner(strings.NewReader(rec.Body.String()))
	for sc.Scan() {
		if sc.Text() == "event: state" {
			events++
		}
	}
	assert.Greater(t, events, 1, "expected repeated state events")
}

func TestStreamEventsNotFound(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/sessions/missing/events", nil)
	rec := httptest.NewRecorder()
	f.srv.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestsAreLogged(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodGet, "/sessions/nope", "")

	entries := f.logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, int64(http.StatusNotFound), fields["status"])
}

func TestManagerPrune(t *testing.T) {
	f := newFixture(t)
	id, err := f.mgr.Start(pacer.Config{PhaseDurationSeconds: 1, TotalDurationMinutes: 1})
	require.NoError(t, err)
	require.NoError(t, f.mgr.Stop(id))

	f.clock.Add(2 * time.Hour)
	_, err = f.mgr.Start(pacer.Config{PhaseDurationSeconds: 1, TotalDurationMinutes: 1})
	require.NoError(t, err)

	assert.Equal(t, 1, f.mgr.Len())
	_, err = f.mgr.Snapshot(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManagerClose(t *testing.T) {
	f := newFixture(t)
	a, _ := f.mgr.Start(pacer.Config{PhaseDurationSeconds: 1, TotalDurationMinutes: 1})
	b, _ := f.mgr.Start(pacer.Config{PhaseDurationSeconds: 1, TotalDurationMinutes: 1})
	f.advance(2 * time.Second)

	f.mgr.Close()
	assert.Equal(t, 0, f.sched.Len())
	for _, id := range []string{a, b} {
		snap, err := f.mgr.Snapshot(id)
		require.NoError(t, err)
		assert.False(t, snap.Active)
	}
}

func TestRunShutsDown(t *testing.T) {
	defer goleak.VerifyNone(t)

	mgr := NewManager(WithScheduler(pacer.NewManualScheduler()))
	srv := New(mgr, pacer.DefaultConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
