// Package pacer implements the box-breathing pacer: a cyclic phase state
// machine driven by one monotonic time source, with a tick-quantized phase
// projection, a continuous session projection and a perimeter trace mapper.
package pacer

import (
	"fmt"
	"time"
)

// Phase is one stage of the breathing cycle.
type Phase int

const (
	PhasePrepare Phase = iota
	PhaseInhale
	PhaseHold1
	PhaseExhale
	PhaseHold2
)

const (
	// TickInterval is the nominal cadence of the phase clock.
	TickInterval   = 100 * time.Millisecond
	TicksPerSecond = int(time.Second / TickInterval)

	// PrepareSeconds is the fixed length of the one-time lead-in phase.
	PrepareSeconds = 3

	// CompletionGrace delays the completion callback after the session
	// duration is reached.
	CompletionGrace = 500 * time.Millisecond
)

var phaseNames = map[Phase]string{
	PhasePrepare: "Prepare",
	PhaseInhale:  "Inhale",
	PhaseHold1:   "Hold1",
	PhaseExhale:  "Exhale",
	PhaseHold2:   "Hold2",
}

var phaseLabels = map[Phase]string{
	PhasePrepare: "Get ready",
	PhaseInhale:  "Breathe in",
	PhaseHold1:   "Hold",
	PhaseExhale:  "Breathe out",
	PhaseHold2:   "Hold",
}

type transition struct {
	to             Phase
	completesCycle bool
}

// transitions is the full phase graph. Nothing leads back to Prepare.
var transitions = map[Phase]transition{
	PhasePrepare: {to: PhaseInhale},
	PhaseInhale:  {to: PhaseHold1},
	PhaseHold1:   {to: PhaseExhale},
	PhaseExhale:  {to: PhaseHold2},
	PhaseHold2:   {to: PhaseInhale, completesCycle: true},
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Label is the human-facing instruction for the phase.
func (p Phase) Label() string {
	if l, ok := phaseLabels[p]; ok {
		return l
	}
	return p.String()
}

// Next returns the phase that follows p.
func (p Phase) Next() Phase {
	return transitions[p].to
}
