package machine

import (
	"errors"
	"fmt"
	"strings"
)

// ID identifies one of the two machines sharing the monitor and the KM switch.
type ID int

const (
	// Home is the machine this process runs on. It is the initial assumption.
	Home ID = iota
	// Work is the other machine behind the KM switch.
	Work
)

// ErrUnknownMachine is returned when a machine name is neither "home" nor "work".
var ErrUnknownMachine = errors.New("unknown machine")

// All returns both machines in a stable order.
func All() []ID {
	return []ID{Home, Work}
}

// Parse converts a machine name to an ID. Matching is case-insensitive.
func Parse(s string) (ID, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "home":
		return Home, nil
	case "work":
		return Work, nil
	default:
		return Home, fmt.Errorf("%q: %w", s, ErrUnknownMachine)
	}
}

// String returns the lowercase machine name.
func (id ID) String() string {
	switch id {
	case Home:
		return "home"
	case Work:
		return "work"
	default:
		return fmt.Sprintf("machine(%d)", int(id))
	}
}

// Other returns the opposite machine.
func (id ID) Other() ID {
	if id == Home {
		return Work
	}

	return Home
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	if id != Home && id != Work {
		return nil, fmt.Errorf("marshal %s: %w", id, ErrUnknownMachine)
	}

	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}

	*id = parsed

	return nil
}

// Score is a presence score: a proxy count of input devices that look attached
// to this machine. Only its change between two samples carries meaning.
type Score int

// Mapping resolves a machine to the configured monitor input name.
type Mapping map[ID]string

// Input returns the input name configured for the machine.
func (m Mapping) Input(id ID) (string, bool) {
	name, ok := m[id]
	if !ok || name == "" {
		return "", false
	}

	return name, true
}

// Outcome is the result of one switch attempt.
type Outcome struct {
	// Err is the classified failure when Success is false.
	Err error
	// Machine is the machine the switch was requested for.
	Machine ID
	// Input is the resolved input name, empty if it could not be resolved.
	Input string
	// Success reports whether the monitor accepted the input change.
	Success bool
}

// Status describes a running switcher process.
type Status struct {
	// LastOutcome is the most recent switch attempt, nil before the first one.
	LastOutcome *Outcome
	// Input is the monitor's current input name, empty if it could not be read.
	Input string
	// Current is the machine the presence heuristic considers active.
	Current ID
	// LastScore is the most recent presence score.
	LastScore Score
	// Failures counts consecutive failed poll ticks.
	Failures int
}
