package pacer

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrTimerUnavailable is returned by a Scheduler that cannot provide a
// periodic callback. Sessions treat it as a degraded no-op.
var ErrTimerUnavailable = errors.New("pacer: periodic timer unavailable")

// CancelFunc stops a subscription. Calling it more than once is harmless.
type CancelFunc func()

// Scheduler runs fn every interval until the returned CancelFunc is called.
type Scheduler interface {
	Every(interval time.Duration, fn func()) (CancelFunc, error)
}

// TickerScheduler runs each subscription on its own goroutine backed by a
// time.Ticker.
type TickerScheduler struct{}

func NewTickerScheduler() *TickerScheduler {
	return &TickerScheduler{}
}

// Every starts the ticker goroutine. The returned CancelFunc does not wait
// for the goroutine, so it may be called from inside fn. After cancel no
// further fn call starts and the goroutine exits on its next select.
func (s *TickerScheduler) Every(interval time.Duration, fn func()) (CancelFunc, error) {
	if interval <= 0 || fn == nil {
		return nil, ErrTimerUnavailable
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if ctx.Err() != nil {
					return
				}
				fn()
			case <-ctx.Done():
				return
			}
		}
	}()
	return CancelFunc(cancel), nil
}

// ManualScheduler hands control of the cadence to its owner: callbacks run
// only when Fire is called. The TUI fires it from its tick message, which
// keeps every callback on the bubbletea update loop.
type ManualScheduler struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func()
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{subs: make(map[int]func())}
}

func (s *ManualScheduler) Every(_ time.Duration, fn func()) (CancelFunc, error) {
	if fn == nil {
		return nil, ErrTimerUnavailable
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}, nil
}

// Fire runs every live callback once, in subscription order.
func (s *ManualScheduler) Fire() {
	s.mu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Len reports the number of live subscriptions.
func (s *ManualScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
