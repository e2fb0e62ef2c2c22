package phase

import (
	"errors"
	"fmt"
)

// ErrNoExercise is returned when a session is started without a named exercise.
var ErrNoExercise = errors.New("no exercise")

// Exercise identifies what is being timed.
type Exercise struct {
	Name           string
	IsBodyweight   bool
	IsNegativeOnly bool
	// NegativeSeconds replaces the eccentric length for negative-only sets. Zero keeps the global value.
	NegativeSeconds int
}

// Reason explains why a transition happened.
type Reason int

const (
	ReasonStart Reason = iota
	ReasonExpired
	ReasonSkipped
	ReasonReset
	ReasonRest
	ReasonWorkoutDone
)

func (r Reason) String() string {
	switch r {
	case ReasonStart:
		return "start"
	case ReasonExpired:
		return "expired"
	case ReasonSkipped:
		return "skipped"
	case ReasonReset:
		return "reset"
	case ReasonRest:
		return "rest"
	case ReasonWorkoutDone:
		return "workout-done"
	default:
		return "unknown"
	}
}

// Transition describes entering a phase. Generation increases on every entry so
// deferred work keyed to an older generation can be discarded.
type Transition struct {
	From       Phase
	To         Phase
	Reason     Reason
	Duration   int
	Generation uint64
	// Exercise is the active exercise after the transition, nil once the workout is over.
	Exercise *Exercise
}

// State is a point-in-time copy of the machine.
type State struct {
	Phase      Phase
	Remaining  int
	Duration   int
	Running    bool
	Paused     bool
	Exercise   *Exercise
	Generation uint64
}

// Active reports whether an exercise is loaded.
func (s State) Active() bool {
	return s.Exercise != nil
}

// Machine is the phase state machine. It is not safe for concurrent use; the
// session controller serializes access.
type Machine struct {
	durations Durations
	exercise  *Exercise
	next      *Exercise

	phase     Phase
	remaining int
	running   bool
	paused    bool
	gen       uint64
}

// NewMachine returns an idle machine.
func NewMachine() *Machine {
	return &Machine{durations: DefaultDurations()}
}

// Start loads ex at Prep and starts the countdown.
func (m *Machine) Start(ex Exercise, d Durations) (Transition, error) {
	if ex.Name == "" {
		return Transition{}, ErrNoExercise
	}

	if err := d.Validate(); err != nil {
		return Transition{}, err
	}

	if ex.NegativeSeconds < 0 {
		return Transition{}, fmt.Errorf("%w: negative-only length for %s is negative", ErrInvalidDurations, ex.Name)
	}

	from := m.phase
	m.durations = d.Clone()
	m.exercise = &ex
	m.next = nil
	m.running = true
	m.paused = false
	m.enter(Prep)

	return m.transition(from, ReasonStart), nil
}

// Tick consumes one second. Transitions are returned in the order they occurred;
// zero-length phases are passed through on the same tick.
func (m *Machine) Tick() []Transition {
	if m.exercise == nil || !m.running || m.phase == Complete {
		return nil
	}

	if m.remaining > 0 {
		m.remaining--
		if m.remaining > 0 {
			return nil
		}
	}

	return m.expire(ReasonExpired)
}

// Skip ends the current phase as if its time had run out. Skipping Complete is a no-op.
func (m *Machine) Skip() []Transition {
	if m.exercise == nil || m.phase == Complete {
		return nil
	}

	return m.expire(ReasonSkipped)
}

// Pause stops the countdown. Returns false when there was nothing to pause.
func (m *Machine) Pause() bool {
	if m.exercise == nil || m.paused || !m.running {
		return false
	}

	m.running = false
	m.paused = true

	return true
}

// Resume restarts a paused countdown.
func (m *Machine) Resume() bool {
	if m.exercise == nil || !m.paused {
		return false
	}

	m.running = true
	m.paused = false

	return true
}

// Reset reloads the current phase length without changing phase.
func (m *Machine) Reset() (Transition, bool) {
	if m.exercise == nil || m.phase == Complete {
		return Transition{}, false
	}

	m.enter(m.phase)

	return m.transition(m.phase, ReasonReset), true
}

// StartRest moves to Rest. When rest ends, next (if any) starts at Prep; a nil
// next ends the workout.
func (m *Machine) StartRest(next *Exercise) (Transition, bool) {
	if m.exercise == nil {
		return Transition{}, false
	}

	from := m.phase
	m.next = nil
	if next != nil {
		n := *next
		m.next = &n
	}

	m.running = true
	m.paused = false
	m.enter(Rest)

	return m.transition(from, ReasonRest), true
}

// Stop discards the exercise and returns to idle.
func (m *Machine) Stop() bool {
	wasActive := m.exercise != nil
	m.idle()

	return wasActive
}

// State returns a copy of the current state.
func (m *Machine) State() State {
	st := State{
		Phase:      m.phase,
		Remaining:  m.remaining,
		Duration:   m.durationOf(m.phase),
		Running:    m.running,
		Paused:     m.paused,
		Generation: m.gen,
	}

	if m.exercise != nil {
		ex := *m.exercise
		st.Exercise = &ex
		return st
	}

	st.Duration = 0

	return st
}

// Durations returns a copy of the active duration table.
func (m *Machine) Durations() Durations {
	return m.durations.Clone()
}

// DurationOf returns the effective length of p for the loaded exercise.
func (m *Machine) DurationOf(p Phase) int {
	return m.durationOf(p)
}

func (m *Machine) durationOf(p Phase) int {
	if p == Eccentric && m.exercise != nil && m.exercise.IsNegativeOnly && m.exercise.NegativeSeconds > 0 {
		return m.exercise.NegativeSeconds
	}

	return m.durations.Of(p)
}

func (m *Machine) expire(reason Reason) []Transition {
	var out []Transition

	for {
		out = append(out, m.advance(reason))

		if m.exercise == nil || m.phase == Complete || m.remaining > 0 {
			return out
		}

		reason = ReasonExpired
	}
}

func (m *Machine) advance(reason Reason) Transition {
	from := m.phase

	switch from {
	case Prep:
		m.enter(Positioning)
	case Positioning:
		m.enter(Eccentric)
	case Eccentric:
		if m.exercise.IsNegativeOnly {
			m.enter(Complete)
		} else {
			m.enter(Concentric)
		}
	case Concentric:
		m.enter(FinalEccentric)
	case FinalEccentric:
		m.enter(Complete)
	case Rest:
		if m.next == nil {
			m.idle()
			return m.transition(from, ReasonWorkoutDone)
		}

		m.exercise = m.next
		m.next = nil
		m.enter(Prep)
	case Complete:
	}

	return m.transition(from, reason)
}

func (m *Machine) enter(p Phase) {
	m.phase = p
	m.remaining = m.durationOf(p)
	m.gen++

	if p == Complete {
		m.running = false
		m.paused = false
	}
}

func (m *Machine) idle() {
	m.exercise = nil
	m.next = nil
	m.phase = Prep
	m.remaining = 0
	m.running = false
	m.paused = false
	m.gen++
}

func (m *Machine) transition(from Phase, reason Reason) Transition {
	t := Transition{
		From:       from,
		To:         m.phase,
		Reason:     reason,
		Duration:   m.durationOf(m.phase),
		Generation: m.gen,
	}

	if m.exercise != nil {
		ex := *m.exercise
		t.Exercise = &ex
	} else {
		t.Duration = 0
	}

	return t
}
