package detector

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/monitor-switcher/internal/domain/machine"
)

// feed runs every score through the machine and collects the activations.
func feed(m *StateMachine, scores ...machine.Score) []machine.ID {
	var events []machine.ID

	for _, score := range scores {
		if id, ok := m.Observe(score); ok {
			events = append(events, id)
		}
	}

	return events
}

// TestObserve_Scenarios covers the score sequences the switch relies on.
func TestObserve_Scenarios(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		initial machine.ID
		scores  []machine.Score
		want    []machine.ID
	}{
		{
			name:    "flat scores never activate",
			initial: machine.Home,
			scores:  []machine.Score{5, 5, 5},
		},
		{
			name:    "decrease from home activates work",
			initial: machine.Home,
			scores:  []machine.Score{5, 4},
			want:    []machine.ID{machine.Work},
		},
		{
			name:    "increase from work activates home",
			initial: machine.Work,
			scores:  []machine.Score{4, 5},
			want:    []machine.ID{machine.Home},
		},
		{
			name:    "repeated score between transitions is ignored",
			initial: machine.Home,
			scores:  []machine.Score{5, 4, 4, 5},
			want:    []machine.ID{machine.Work, machine.Home},
		},
		{
			name:    "increase while already home does nothing",
			initial: machine.Home,
			scores:  []machine.Score{3, 5, 7},
		},
		{
			name:    "single unit change is enough",
			initial: machine.Home,
			scores:  []machine.Score{1, 0, 1},
			want:    []machine.ID{machine.Work, machine.Home},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			m := New(WithInitial(tc.initial))
			require.Equal(t, tc.want, feed(m, tc.scores...))
		})
	}
}

// TestObserve_KnownLimitation_ConsecutiveDecreases documents that a second drop
// cannot be told apart from "still on work": it must neither re-emit nor flip.
func TestObserve_KnownLimitation_ConsecutiveDecreases(t *testing.T) {
	t.Parallel()

	m := New()

	require.Equal(t, []machine.ID{machine.Work}, feed(m, 5, 4, 3))
	require.Equal(t, State{LastScore: 3, Current: machine.Work}, m.State())
}

// TestObserve_KnownLimitation_DirectionMapping documents the fixed mapping:
// any reappearance is read as "back to home", even a transient device reset.
func TestObserve_KnownLimitation_DirectionMapping(t *testing.T) {
	t.Parallel()

	m := New()

	// A brief reset of the home devices reads as work then home.
	require.Equal(t, []machine.ID{machine.Work, machine.Home}, feed(m, 3, 0, 3))
}

// TestObserve_UpdatesLastScoreWithoutTransition verifies the score baseline
// moves even when the candidate equals the current machine.
func TestObserve_UpdatesLastScoreWithoutTransition(t *testing.T) {
	t.Parallel()

	m := New()

	_, ok := m.Observe(2)
	require.False(t, ok)

	_, ok = m.Observe(6)
	require.False(t, ok)
	require.Equal(t, machine.Score(6), m.State().LastScore)

	id, ok := m.Observe(5)
	require.True(t, ok)
	require.Equal(t, machine.Work, id)
}

// TestNew_Defaults checks the home start and the baseline options.
func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	m := New()
	require.Equal(t, machine.Home, m.State().Current)
	require.False(t, m.Primed())

	// The first observation primes without activating.
	_, ok := m.Observe(0)
	require.False(t, ok)
	require.True(t, m.Primed())

	m = New(WithBaseline(5))
	require.True(t, m.Primed())

	id, ok := m.Observe(4)
	require.True(t, ok)
	require.Equal(t, machine.Work, id)
}
