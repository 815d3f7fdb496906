package ddc

import (
	"fmt"
	"strings"
)

// InputSource is a VCP 0x60 value.
type InputSource uint16

// Input source codes from the MCCS standard.
const (
	InputVGA1  InputSource = 0x01
	InputDVI1  InputSource = 0x03
	InputDVI2  InputSource = 0x04
	InputDP1   InputSource = 0x0F
	InputDP2   InputSource = 0x10
	InputHDMI1 InputSource = 0x11
	InputHDMI2 InputSource = 0x12
)

// inputNames lists the supported names in display order.
//
//nolint:gochecknoglobals // Static lookup table.
var inputNames = []struct {
	name   string
	source InputSource
}{
	{"HDMI-1", InputHDMI1},
	{"HDMI-2", InputHDMI2},
	{"DisplayPort-1", InputDP1},
	{"DisplayPort-2", InputDP2},
	{"DVI-1", InputDVI1},
	{"DVI-2", InputDVI2},
	{"VGA-1", InputVGA1},
}

// InputNames returns the supported input names.
func InputNames() []string {
	names := make([]string, 0, len(inputNames))
	for _, in := range inputNames {
		names = append(names, in.name)
	}

	return names
}

// ParseInputSource resolves an input name such as "HDMI-1".
// Matching ignores case.
func ParseInputSource(name string) (InputSource, error) {
	trimmed := strings.TrimSpace(name)
	for _, in := range inputNames {
		if strings.EqualFold(in.name, trimmed) {
			return in.source, nil
		}
	}

	return 0, fmt.Errorf("%q: %w", name, ErrUnknownInput)
}

// Name returns the configured name for the code, if it is a supported one.
func (s InputSource) Name() (string, bool) {
	for _, in := range inputNames {
		if in.source == s {
			return in.name, true
		}
	}

	return "", false
}

// String implements fmt.Stringer.
func (s InputSource) String() string {
	if name, ok := s.Name(); ok {
		return name
	}

	return fmt.Sprintf("0x%02x", uint16(s))
}
