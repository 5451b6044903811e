package pacer

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is a read-only snapshot of a session.
type State struct {
	Phase         Phase
	PhaseProgress float64
	Countdown     int
	Cycles        int
	TotalProgress float64
	Elapsed       time.Duration
	Active        bool
	Paused        bool
	Complete      bool
}

// Summary describes a finished or stopped session.
type Summary struct {
	ID        string
	Config    Config
	StartedAt time.Time
	Elapsed   time.Duration
	Cycles    int
	Completed bool
}

type Option func(*Session)

func WithClock(c Clock) Option {
	return func(s *Session) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// Session owns one breathing session: its phase machine, both progress
// projections, the shared time source and the scheduler subscription that
// drives them. All fields are guarded by mu.
type Session struct {
	mu    sync.Mutex
	sched Scheduler
	clock Clock
	log   *zap.Logger

	cfg       Config
	id        string
	startedAt time.Time
	started   bool

	src        timeSource
	machine    phaseMachine
	phaseClk   phaseClock
	sessionClk sessionClock
	elapsed    time.Duration

	active   bool
	complete bool
	fired    bool
	cancel   CancelFunc

	onComplete func(Summary)
}

// New creates an idle session. A nil scheduler is allowed: sessions started
// on it stay armed but never advance on their own.
func New(sched Scheduler, opts ...Option) *Session {
	s := &Session{
		sched: sched,
		clock: SystemClock{},
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnComplete registers fn to run once per session, CompletionGrace after
// total progress reaches 100%.
func (s *Session) OnComplete(fn func(Summary)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onComplete = fn
}

// Start validates cfg, resets all state and subscribes to the scheduler.
// A running session is stopped first. Configuration errors are returned
// before anything is armed; an unavailable timer is logged, not returned.
func (s *Session) Start(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if s.active {
		s.deactivate(now)
	}

	s.cfg = cfg
	s.id = uuid.NewString()
	s.startedAt = now
	s.started = true
	s.machine = newPhaseMachine(cfg.PhaseDurationSeconds)
	s.phaseClk = phaseClock{}
	s.sessionClk = sessionClock{total: cfg.TotalDuration()}
	s.elapsed = 0
	s.complete = false
	s.fired = false
	s.src.begin(now)
	s.active = true

	log := s.log.With(zap.String("session", s.id))
	log.Info("session started",
		zap.Int("phase_seconds", cfg.PhaseDurationSeconds),
		zap.Int("total_minutes", cfg.TotalDurationMinutes),
		zap.String("theme", cfg.Theme),
		zap.String("sound", cfg.SoundType),
	)

	if s.sched == nil {
		log.Warn("no scheduler; session will not advance", zap.Error(ErrTimerUnavailable))
		return nil
	}
	cancel, err := s.sched.Every(TickInterval, s.Advance)
	if err != nil {
		log.Warn("periodic timer unavailable; session will not advance", zap.Error(err))
		return nil
	}
	s.cancel = cancel
	return nil
}

// Stop cancels the subscription and any pending completion, leaving the
// last state readable. Stopping an inactive session does nothing.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.deactivate(s.clock.Now())
	s.log.Info("session stopped",
		zap.String("session", s.id),
		zap.Duration("elapsed", s.elapsed),
		zap.Int("cycles", s.machine.cycles),
	)
}

// Reset stops the session and returns it to the zero state.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		s.deactivate(s.clock.Now())
	}
	s.cfg = Config{}
	s.id = ""
	s.startedAt = time.Time{}
	s.started = false
	s.machine = phaseMachine{}
	s.phaseClk = phaseClock{}
	s.sessionClk = sessionClock{}
	s.elapsed = 0
	s.complete = false
	s.fired = false
	s.src.clear()
}

// Pause freezes the shared time source, which suspends the phase clock and
// the session clock in the same step.
func (s *Session) Pause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pause()
}

func (s *Session) pause() bool {
	if !s.active {
		return false
	}
	now := s.clock.Now()
	s.sync(now)
	if !s.src.pause(now) {
		return false
	}
	s.log.Debug("session paused", zap.String("session", s.id), zap.Duration("elapsed", s.elapsed))
	return true
}

func (s *Session) Resume() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resume()
}

func (s *Session) resume() bool {
	if !s.active || !s.src.resume(s.clock.Now()) {
		return false
	}
	s.log.Debug("session resumed", zap.String("session", s.id))
	return true
}

// TogglePause checks and flips the pause state under one lock hold.
func (s *Session) TogglePause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.src.paused {
		s.resume()
		return
	}
	s.pause()
}

// Advance is the periodic callback. It reads the clock once, brings both
// projections up to date and fires the completion callback when its grace
// period has passed. Hosts driving their own frames may call it directly.
func (s *Session) Advance() {
	s.mu.Lock()
	if !s.active || s.src.paused {
		s.mu.Unlock()
		return
	}
	now := s.clock.Now()
	s.sync(now)

	var (
		fire    func(Summary)
		summary Summary
	)
	if s.complete && !s.fired && s.src.elapsed(now) >= s.sessionClk.total+CompletionGrace {
		s.fired = true
		s.deactivate(now)
		fire = s.onComplete
		summary = s.summary()
		s.log.Info("session complete",
			zap.String("session", s.id),
			zap.Int("cycles", s.machine.cycles),
		)
	}
	s.mu.Unlock()

	if fire != nil {
		fire(summary)
	}
}

// sync projects the time source onto both clocks. Elapsed time is capped at
// the session length, so the phase machine halts where the session ends.
func (s *Session) sync(now time.Time) {
	if s.complete {
		return
	}
	elapsed := s.src.elapsed(now)
	if total := s.sessionClk.total; elapsed > total {
		elapsed = total
	}
	if elapsed < s.elapsed {
		elapsed = s.elapsed
	}
	s.elapsed = elapsed

	from := s.machine.phase
	if s.phaseClk.sync(elapsed, &s.machine) {
		s.log.Debug("phase changed",
			zap.String("session", s.id),
			zap.Stringer("from", from),
			zap.Stringer("to", s.machine.phase),
			zap.Int("cycles", s.machine.cycles),
		)
	}
	s.sessionClk.sync(elapsed)
	if s.sessionClk.done() {
		s.complete = true
		s.log.Debug("session duration reached", zap.String("session", s.id))
	}
}

func (s *Session) deactivate(now time.Time) {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.src.pause(now)
	s.active = false
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return State{}
	}
	return State{
		Phase:         s.machine.phase,
		PhaseProgress: s.machine.progress(),
		Countdown:     s.machine.countdown(),
		Cycles:        s.machine.cycles,
		TotalProgress: s.sessionClk.progress,
		Elapsed:       s.elapsed,
		Active:        s.active,
		Paused:        s.active && s.src.paused,
		Complete:      s.complete,
	}
}

// Trace returns the indicator position for the current state on a box of
// the given half size. It reports false while no trace is visible.
func (s *Session) Trace(half float64) (Point, bool) {
	st := s.State()
	if !st.Active && !st.Complete {
		return Point{}, false
	}
	return TracePosition(st.Phase, st.PhaseProgress, half)
}

// Summary returns the record of the current or last session.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary()
}

func (s *Session) summary() Summary {
	return Summary{
		ID:        s.id,
		Config:    s.cfg,
		StartedAt: s.startedAt,
		Elapsed:   s.elapsed,
		Cycles:    s.machine.cycles,
		Completed: s.complete,
	}
}

func (s *Session) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}
