package ddc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

var errTestBackend = errors.New("backend failure")

// fakeMonitor records the scoped calls made through Use.
type fakeMonitor struct {
	openErr  error
	closeErr error
	opened   int
	closed   int
}

func (f *fakeMonitor) Open(context.Context) error {
	f.opened++

	return f.openErr
}

func (f *fakeMonitor) Close() error {
	f.closed++

	return f.closeErr
}

func (f *fakeMonitor) SetInputSource(context.Context, InputSource) error { return nil }

func (f *fakeMonitor) InputSource(context.Context) (InputSource, error) { return InputHDMI1, nil }

// TestUse_ReleasesOnError ensures Close runs even when the scoped function fails.
func TestUse_ReleasesOnError(t *testing.T) {
	t.Parallel()

	m := new(fakeMonitor)

	err := Use(context.Background(), m, func(Monitor) error {
		return errTestBackend
	})

	require.ErrorIs(t, err, errTestBackend)
	require.Equal(t, 1, m.opened)
	require.Equal(t, 1, m.closed)
}

// TestUse_JoinsCloseError verifies close failures are reported alongside success.
func TestUse_JoinsCloseError(t *testing.T) {
	t.Parallel()

	m := &fakeMonitor{closeErr: errTestBackend}

	err := Use(context.Background(), m, func(Monitor) error { return nil })
	require.ErrorIs(t, err, errTestBackend)
}

// TestUse_OpenFailure skips the function and Close when Open fails.
func TestUse_OpenFailure(t *testing.T) {
	t.Parallel()

	m := &fakeMonitor{openErr: errTestBackend}
	called := false

	err := Use(context.Background(), m, func(Monitor) error {
		called = true

		return nil
	})

	require.ErrorIs(t, err, errTestBackend)
	require.False(t, called)
	require.Zero(t, m.closed)

	require.ErrorIs(t, Use(context.Background(), nil, func(Monitor) error { return nil }), ErrNoMonitor)
}

// TestVCPError_Unwrap checks errors.As and errors.Is both see through VCPError.
func TestVCPError_Unwrap(t *testing.T) {
	t.Parallel()

	var err error = &VCPError{Op: "setvcp", Feature: FeatureInputSource, Err: errTestBackend}

	var vcpErr *VCPError
	require.ErrorAs(t, err, &vcpErr)
	require.ErrorIs(t, err, errTestBackend)
	require.Contains(t, err.Error(), "0x60")
}

// TestParseInputSource covers the supported names and the unknown-input error.
func TestParseInputSource(t *testing.T) {
	t.Parallel()

	source, err := ParseInputSource("hdmi-2")
	require.NoError(t, err)
	require.Equal(t, InputHDMI2, source)

	source, err = ParseInputSource("DisplayPort-1")
	require.NoError(t, err)
	require.Equal(t, InputSource(0x0F), source)

	_, err = ParseInputSource("USB-C")
	require.ErrorIs(t, err, ErrUnknownInput)

	for _, name := range InputNames() {
		source, err = ParseInputSource(name)
		require.NoError(t, err)
		require.Equal(t, name, source.String())
	}

	require.Equal(t, "0x1b", InputSource(0x1B).String())
}
