//go:build !windows

package ddc

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// defaultDDCUtilBinary is looked up in PATH.
const defaultDDCUtilBinary = "ddcutil"

// runFunc executes a command and returns its standard output.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// DDCUtil drives monitors through the ddcutil command line tool.
type DDCUtil struct {
	run     runFunc
	binary  string
	timeout time.Duration
}

// DDCUtilOption configures DDCUtil.
type DDCUtilOption func(*DDCUtil)

// WithBinary overrides the ddcutil executable path.
func WithBinary(path string) DDCUtilOption {
	return func(d *DDCUtil) {
		if path != "" {
			d.binary = path
		}
	}
}

// withRunner replaces command execution, used by tests.
func withRunner(run runFunc) DDCUtilOption {
	return func(d *DDCUtil) {
		d.run = run
	}
}

// NewSystemController returns the platform controller. Every ddcutil call is
// bounded by timeout.
//
//nolint:ireturn // Platform constructors share one signature.
func NewSystemController(timeout time.Duration, opts ...DDCUtilOption) Controller {
	return NewDDCUtil(timeout, opts...)
}

// NewDDCUtil creates a ddcutil backed controller.
func NewDDCUtil(timeout time.Duration, opts ...DDCUtilOption) *DDCUtil {
	d := &DDCUtil{
		run:     runCommand,
		binary:  defaultDDCUtilBinary,
		timeout: timeout,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Connect verifies that ddcutil sees a display at the index.
//
//nolint:ireturn // Controller contract.
func (d *DDCUtil) Connect(ctx context.Context, index int) (Monitor, error) {
	if index < 0 {
		return nil, fmt.Errorf("index %d: %w", index, ErrNoMonitor)
	}

	out, err := d.exec(ctx, "detect", "--terse")
	if err != nil {
		return nil, fmt.Errorf("detect displays: %w", err)
	}

	displays := parseDisplays(out)
	if index >= len(displays) {
		return nil, fmt.Errorf("index %d of %d displays: %w", index, len(displays), ErrNoMonitor)
	}

	return &ddcutilMonitor{
		ctl:     d,
		display: displays[index],
	}, nil
}

// exec runs ddcutil with the controller timeout applied.
func (d *DDCUtil) exec(ctx context.Context, args ...string) ([]byte, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	out, err := d.run(ctx, d.binary, args...)
	if err != nil && ctx.Err() != nil {
		// A killed ddcutil exits non-zero; that status says nothing about the monitor.
		return out, fmt.Errorf("%w (%v)", ctx.Err(), err) //nolint:errorlint // Drop the exit status from the chain.
	}

	return out, err
}

// ddcutilMonitor addresses one display by its ddcutil display number.
type ddcutilMonitor struct {
	ctl     *DDCUtil
	display int
	open    bool
}

// Open marks the monitor usable. ddcutil opens the bus per command.
func (m *ddcutilMonitor) Open(context.Context) error {
	m.open = true

	return nil
}

// Close ends the scoped use.
func (m *ddcutilMonitor) Close() error {
	m.open = false

	return nil
}

// SetInputSource writes VCP 0x60.
func (m *ddcutilMonitor) SetInputSource(ctx context.Context, source InputSource) error {
	if !m.open {
		return ErrNotOpen
	}

	_, err := m.ctl.exec(ctx,
		"--display", strconv.Itoa(m.display),
		"setvcp", fmt.Sprintf("%02x", FeatureInputSource), fmt.Sprintf("0x%02x", uint16(source)))
	if err != nil {
		return commandError("setvcp", err)
	}

	return nil
}

// InputSource reads VCP 0x60.
func (m *ddcutilMonitor) InputSource(ctx context.Context) (InputSource, error) {
	if !m.open {
		return 0, ErrNotOpen
	}

	out, err := m.ctl.exec(ctx,
		"--display", strconv.Itoa(m.display),
		"--terse", "getvcp", fmt.Sprintf("%02x", FeatureInputSource))
	if err != nil {
		return 0, commandError("getvcp", err)
	}

	return parseInputSource(out)
}

// commandError classifies a failed ddcutil run. A missing binary or a timeout
// is a generic failure; a non-zero exit is the monitor rejecting the command.
func commandError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return &VCPError{
		Op:      op,
		Feature: FeatureInputSource,
		Err:     err,
	}
}

// parseDisplays reads display numbers from `ddcutil detect --terse` output.
// Invalid displays are listed as "Invalid display" and skipped.
func parseDisplays(out []byte) []int {
	var displays []int

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 || fields[0] != "Display" {
			continue
		}

		number, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}

		displays = append(displays, number)
	}

	return displays
}

// errUnexpectedOutput is returned when getvcp output cannot be parsed.
var errUnexpectedOutput = errors.New("unexpected ddcutil output")

// parseInputSource parses terse getvcp output such as "VCP 60 SNC x11".
func parseInputSource(out []byte) (InputSource, error) {
	fields := strings.Fields(string(out))
	if len(fields) < 4 || fields[0] != "VCP" {
		return 0, fmt.Errorf("%q: %w", strings.TrimSpace(string(out)), errUnexpectedOutput)
	}

	value, err := strconv.ParseUint(strings.TrimPrefix(fields[3], "x"), 16, 16)
	if err != nil {
		return 0, fmt.Errorf("parse value %q: %w", fields[3], err)
	}

	return InputSource(value), nil
}

// runCommand executes the command and keeps stderr in the error message.
func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%w: %s", err, msg)
		}

		return out, err
	}

	return out, nil
}
