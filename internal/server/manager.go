package server

import (
	"errors"
	"sync"
	"time"

	"github.com/sadopc/breathr/internal/pacer"
	"github.com/sadopc/breathr/internal/store"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNotRunning      = errors.New("session is not running")
)

// retention is how long a finished session stays readable.
const retention = time.Hour

// Recorder persists finished sessions. *store.Store satisfies it.
type Recorder interface {
	SaveSession(store.BreathingSession) (*store.BreathingSession, error)
}

// Snapshot is the JSON view of a session.
type Snapshot struct {
	ID            string       `json:"id"`
	Config        pacer.Config `json:"config"`
	Phase         string       `json:"phase"`
	Label         string       `json:"label"`
	PhaseProgress float64      `json:"phase_progress"`
	Countdown     int          `json:"countdown"`
	Cycles        int          `json:"cycles"`
	TotalProgress float64      `json:"total_progress"`
	ElapsedMS     int64        `json:"elapsed_ms"`
	Active        bool         `json:"active"`
	Paused        bool         `json:"paused"`
	Complete      bool         `json:"complete"`
	Trace         *pacer.Point `json:"trace,omitempty"`
}

// Manager owns the sessions served over HTTP.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*pacer.Session

	sched pacer.Scheduler
	clock pacer.Clock
	rec   Recorder
	log   *zap.Logger
}

type Option func(*Manager)

func WithScheduler(s pacer.Scheduler) Option {
	return func(m *Manager) { m.sched = s }
}

func WithClock(c pacer.Clock) Option {
	return func(m *Manager) {
		if c != nil {
			m.clock = c
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.rec = r }
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// NewManager runs sessions on a TickerScheduler unless another scheduler is
// given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*pacer.Session),
		sched:    pacer.NewTickerScheduler(),
		clock:    pacer.SystemClock{},
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start begins a new session and returns its id.
func (m *Manager) Start(cfg pacer.Config) (string, error) {
	s := pacer.New(m.sched, pacer.WithClock(m.clock), pacer.WithLogger(m.log))
	s.OnComplete(m.record)
	if err := s.Start(cfg); err != nil {
		return "", err
	}
	id := s.Summary().ID

	m.mu.Lock()
	m.prune(m.clock.Now())
	m.sessions[id] = s
	m.mu.Unlock()
	return id, nil
}

func (m *Manager) get(id string) (*pacer.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *Manager) Snapshot(id string) (Snapshot, error) {
	s, err := m.get(id)
	if err != nil {
		return Snapshot{}, err
	}
	return snapshot(id, s), nil
}

func (m *Manager) Pause(id string) error {
	s, err := m.get(id)
	if err != nil {
		return err
	}
	if !s.Pause() {
		return ErrNotRunning
	}
	return nil
}

func (m *Manager) Resume(id string) error {
	s, err := m.get(id)
	if err != nil {
		return err
	}
	if !s.Resume() {
		return ErrNotRunning
	}
	return nil
}

// Stop ends a running session and records its partial result. Stopping a
// finished session does nothing.
func (m *Manager) Stop(id string) error {
	s, err := m.get(id)
	if err != nil {
		return err
	}
	if !s.State().Active {
		return nil
	}
	s.Stop()
	m.record(s.Summary())
	return nil
}

// Close stops every running session.
func (m *Manager) Close() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.Stop(id)
	}
}

// Len reports how many sessions are tracked.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) record(sum pacer.Summary) {
	if m.rec == nil {
		return
	}
	if _, err := m.rec.SaveSession(store.FromSummary(sum, m.clock.Now())); err != nil {
		m.log.Error("record session", zap.String("session", sum.ID), zap.Error(err))
	}
}

// prune drops sessions that finished more than retention ago. Callers hold mu.
func (m *Manager) prune(now time.Time) {
	for id, s := range m.sessions {
		if s.State().Active {
			continue
		}
		sum := s.Summary()
		if now.Sub(sum.StartedAt) > sum.Config.TotalDuration()+retention {
			delete(m.sessions, id)
		}
	}
}

func snapshot(id string, s *pacer.Session) Snapshot {
	st := s.State()
	snap := Snapshot{
		ID:            id,
		Config:        s.Config(),
		Phase:         st.Phase.String(),
		Label:         st.Phase.Label(),
		PhaseProgress: st.PhaseProgress,
		Countdown:     st.Countdown,
		Cycles:        st.Cycles,
		TotalProgress: st.TotalProgress,
		ElapsedMS:     st.Elapsed.Milliseconds(),
		Active:        st.Active,
		Paused:        st.Paused,
		Complete:      st.Complete,
	}
	if p, ok := s.Trace(1); ok {
		snap.Trace = &p
	}
	return snap
}
