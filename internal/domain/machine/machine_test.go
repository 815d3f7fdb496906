package machine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestParse verifies known names, case folding and rejection of unknown names.
func TestParse(t *testing.T) {
	t.Parallel()

	id, err := Parse("home")
	require.NoError(t, err)
	require.Equal(t, Home, id)

	id, err = Parse(" WORK ")
	require.NoError(t, err)
	require.Equal(t, Work, id)

	_, err = Parse("laptop")
	require.ErrorIs(t, err, ErrUnknownMachine)
}

// TestIDText checks the text round trip used by YAML and the control API.
func TestIDText(t *testing.T) {
	t.Parallel()

	for _, id := range All() {
		text, err := id.MarshalText()
		require.NoError(t, err)

		var parsed ID
		require.NoError(t, parsed.UnmarshalText(text))
		require.Equal(t, id, parsed)
	}

	_, err := ID(7).MarshalText()
	require.ErrorIs(t, err, ErrUnknownMachine)
	require.Equal(t, "machine(7)", ID(7).String())
}

// TestOther verifies the two machines mirror each other.
func TestOther(t *testing.T) {
	t.Parallel()

	require.Equal(t, Work, Home.Other())
	require.Equal(t, Home, Work.Other())
}

// TestMappingInput ensures empty and missing entries are reported as unresolved.
func TestMappingInput(t *testing.T) {
	t.Parallel()

	m := Mapping{Home: "HDMI-1", Work: ""}

	name, ok := m.Input(Home)
	require.True(t, ok)
	require.Equal(t, "HDMI-1", name)

	_, ok = m.Input(Work)
	require.False(t, ok)

	_, ok = Mapping(nil).Input(Home)
	require.False(t, ok)
}
