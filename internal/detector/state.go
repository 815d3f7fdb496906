package detector

import (
	"github.com/oshokin/monitor-switcher/internal/domain/machine"
)

// State is the in-memory switch state owned by StateMachine.
type State struct {
	// LastScore is the score observed on the previous tick.
	LastScore machine.Score
	// Current is the machine believed to be driving the KM switch.
	Current machine.ID
}

// StateMachine applies the presence transition rule once per poll tick.
// It is not safe for concurrent use; the poll loop is its only caller.
type StateMachine struct {
	state  State
	primed bool
}

// Option configures a StateMachine.
type Option func(*StateMachine)

// WithInitial overrides the starting machine. Home is used otherwise.
func WithInitial(id machine.ID) Option {
	return func(m *StateMachine) {
		m.state.Current = id
	}
}

// WithBaseline sets the initial last score so the first Observe compares
// against it instead of priming.
func WithBaseline(score machine.Score) Option {
	return func(m *StateMachine) {
		m.state.LastScore = score
		m.primed = true
	}
}

// New creates a state machine that starts on the home machine.
func New(opts ...Option) *StateMachine {
	m := &StateMachine{
		state: State{
			Current: machine.Home,
		},
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Prime records the baseline score without evaluating a transition.
func (m *StateMachine) Prime(score machine.Score) {
	m.state.LastScore = score
	m.primed = true
}

// Primed reports whether a baseline score has been recorded.
func (m *StateMachine) Primed() bool {
	return m.primed
}

// Observe feeds one score. It returns the newly activated machine and true when
// the score moved and the implied machine differs from the current one.
func (m *StateMachine) Observe(score machine.Score) (machine.ID, bool) {
	if !m.primed {
		m.Prime(score)

		return m.state.Current, false
	}

	if score == m.state.LastScore {
		return m.state.Current, false
	}

	candidate := machine.Work
	if score > m.state.LastScore {
		candidate = machine.Home
	}

	m.state.LastScore = score

	if candidate == m.state.Current {
		return m.state.Current, false
	}

	m.state.Current = candidate

	return candidate, true
}

// State returns a copy of the current state.
func (m *StateMachine) State() State {
	return m.state
}
