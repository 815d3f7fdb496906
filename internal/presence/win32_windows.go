//go:build windows

package presence

import (
	"context"
	"fmt"

	"golang.org/x/sys/windows"
)

const (
	// smCMouseButtons is SM_CMOUSEBUTTONS for GetSystemMetrics.
	smCMouseButtons = 43

	vkShift   = 0x10
	vkControl = 0x11
	vkMenu    = 0x12
)

//nolint:gochecknoglobals // Lazy DLL bindings are process wide.
var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	procGetSystemMetrics = user32.NewProc("GetSystemMetrics")
	procGetKeyState      = user32.NewProc("GetKeyState")
)

// Win32Probe counts mouse buttons via GetSystemMetrics and adds
// keyboardWeight when GetKeyState can be queried for the modifier keys.
type Win32Probe struct{}

// NewSystemProbe returns the probe for this platform.
//
//nolint:ireturn // Platform constructors share one signature.
func NewSystemProbe() Probe {
	return new(Win32Probe)
}

// Count implements Probe.
func (Win32Probe) Count(context.Context) (int, error) {
	if err := procGetSystemMetrics.Find(); err != nil {
		return 0, fmt.Errorf("find GetSystemMetrics: %w", err)
	}

	buttons, _, _ := procGetSystemMetrics.Call(smCMouseButtons)
	count := int(buttons)

	if procGetKeyState.Find() == nil {
		for _, vk := range []uintptr{vkShift, vkControl, vkMenu} {
			_, _, _ = procGetKeyState.Call(vk)
		}

		count += keyboardWeight
	}

	return count, nil
}
