package pacer

// phaseMachine walks the transition table. Progress is kept as a whole
// number of ticks so a phase of d seconds always ends after exactly
// d*TicksPerSecond ticks, with no floating point residue.
type phaseMachine struct {
	phaseSeconds int

	phase  Phase
	ticks  int
	cycles int
}

func newPhaseMachine(phaseSeconds int) phaseMachine {
	return phaseMachine{
		phaseSeconds: phaseSeconds,
		phase:        PhasePrepare,
	}
}

func (m phaseMachine) duration() int {
	if m.phase == PhasePrepare {
		return PrepareSeconds
	}
	return m.phaseSeconds
}

func (m phaseMachine) ticksPerPhase() int {
	return m.duration() * TicksPerSecond
}

// tick applies one tick and reports whether the phase changed.
func (m *phaseMachine) tick() bool {
	m.ticks++
	if m.ticks < m.ticksPerPhase() {
		return false
	}
	m.advance()
	return true
}

func (m *phaseMachine) advance() {
	t := transitions[m.phase]
	if t.completesCycle {
		m.cycles++
	}
	m.phase = t.to
	m.ticks = 0
}

func (m phaseMachine) progress() float64 {
	per := m.ticksPerPhase()
	if per <= 0 {
		return 0
	}
	return float64(m.ticks) * 100 / float64(per)
}

// countdown is ceil((100-progress) / (100/duration)), i.e. the whole seconds
// left in the phase rounded up.
func (m phaseMachine) countdown() int {
	remaining := m.ticksPerPhase() - m.ticks
	if remaining <= 0 {
		return 0
	}
	return (remaining + TicksPerSecond - 1) / TicksPerSecond
}
