//go:build windows

package ddc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

//nolint:gochecknoglobals // Lazy DLL bindings are process wide.
var (
	user32 = windows.NewLazySystemDLL("user32.dll")
	dxva2  = windows.NewLazySystemDLL("dxva2.dll")

	procEnumDisplayMonitors                     = user32.NewProc("EnumDisplayMonitors")
	procGetNumberOfPhysicalMonitorsFromHMONITOR = dxva2.NewProc("GetNumberOfPhysicalMonitorsFromHMONITOR")
	procGetPhysicalMonitorsFromHMONITOR         = dxva2.NewProc("GetPhysicalMonitorsFromHMONITOR")
	procDestroyPhysicalMonitor                  = dxva2.NewProc("DestroyPhysicalMonitor")
	procSetVCPFeature                           = dxva2.NewProc("SetVCPFeature")
	procGetVCPFeatureAndVCPFeatureReply         = dxva2.NewProc("GetVCPFeatureAndVCPFeatureReply")

	// enumMu guards enumResult while EnumDisplayMonitors runs the callback.
	enumMu       sync.Mutex
	enumResult   []uintptr
	enumCallback = windows.NewCallback(func(hmonitor, _, _, _ uintptr) uintptr {
		enumResult = append(enumResult, hmonitor)

		return 1
	})
)

// physicalMonitor mirrors PHYSICAL_MONITOR.
type physicalMonitor struct {
	handle      windows.Handle
	description [128]uint16
}

// DXVA2 drives monitors through the Windows monitor configuration API.
// The calls block inside the driver, so each one is bounded by timeout.
type DXVA2 struct {
	timeout time.Duration
}

// NewSystemController returns the platform controller. Every dxva2 call is
// bounded by timeout.
//
//nolint:ireturn // Platform constructors share one signature.
func NewSystemController(timeout time.Duration) Controller {
	return &DXVA2{timeout: timeout}
}

// Connect locates the physical monitor at the index across all display handles.
//
//nolint:ireturn // Controller contract.
func (d *DXVA2) Connect(ctx context.Context, index int) (Monitor, error) {
	if index < 0 {
		return nil, fmt.Errorf("index %d: %w", index, ErrNoMonitor)
	}

	var monitor *dxva2Monitor

	err := bounded(ctx, d.timeout, "locate monitor", func() error {
		var locateErr error

		monitor, locateErr = locate(index)

		return locateErr
	}, nil)
	if err != nil {
		return nil, err
	}

	monitor.timeout = d.timeout

	return monitor, nil
}

// locate walks the display handles until it reaches the physical monitor at index.
func locate(index int) (*dxva2Monitor, error) {
	displays, err := enumDisplayMonitors()
	if err != nil {
		return nil, err
	}

	remaining := index

	for _, hmonitor := range displays {
		var count uint32

		r1, _, callErr := procGetNumberOfPhysicalMonitorsFromHMONITOR.Call(hmonitor, uintptr(unsafe.Pointer(&count)))
		if r1 == 0 {
			return nil, fmt.Errorf("count physical monitors: %w", callErr)
		}

		if remaining < int(count) {
			return &dxva2Monitor{
				hmonitor: hmonitor,
				count:    count,
				position: uint32(remaining),
			}, nil
		}

		remaining -= int(count)
	}

	return nil, fmt.Errorf("index %d: %w", index, ErrNoMonitor)
}

// enumDisplayMonitors returns the HMONITOR of every display.
func enumDisplayMonitors() ([]uintptr, error) {
	enumMu.Lock()
	defer enumMu.Unlock()

	enumResult = nil

	r1, _, err := procEnumDisplayMonitors.Call(0, 0, enumCallback, 0)
	if r1 == 0 {
		return nil, fmt.Errorf("enum display monitors: %w", err)
	}

	displays := enumResult
	enumResult = nil

	return displays, nil
}

// dxva2Monitor holds a physical monitor handle while open.
type dxva2Monitor struct {
	physical []physicalMonitor
	hmonitor uintptr
	timeout  time.Duration
	count    uint32
	position uint32
}

// Open acquires the physical monitor handles for the display. Handles acquired
// after the wait gave up are destroyed right away.
func (m *dxva2Monitor) Open(ctx context.Context) error {
	physical := make([]physicalMonitor, m.count)

	err := bounded(ctx, m.timeout, "get physical monitors", func() error {
		r1, _, callErr := procGetPhysicalMonitorsFromHMONITOR.Call(
			m.hmonitor, uintptr(m.count), uintptr(unsafe.Pointer(&physical[0])))
		if r1 == 0 {
			return fmt.Errorf("get physical monitors: %w", callErr)
		}

		return nil
	}, func() {
		_ = destroyPhysical(physical)
	})
	if err != nil {
		return err
	}

	m.physical = physical

	return nil
}

// Close releases every physical handle acquired by Open.
func (m *dxva2Monitor) Close() error {
	err := destroyPhysical(m.physical)
	m.physical = nil

	return err
}

// destroyPhysical releases the handles.
func destroyPhysical(physical []physicalMonitor) error {
	var errs []error

	for _, p := range physical {
		r1, _, err := procDestroyPhysicalMonitor.Call(uintptr(p.handle))
		if r1 == 0 {
			errs = append(errs, fmt.Errorf("destroy physical monitor: %w", err))
		}
	}

	return errors.Join(errs...)
}

// handle returns the physical handle of this monitor.
func (m *dxva2Monitor) handle() (windows.Handle, error) {
	if int(m.position) >= len(m.physical) {
		return 0, ErrNotOpen
	}

	return m.physical[m.position].handle, nil
}

// SetInputSource writes VCP 0x60.
func (m *dxva2Monitor) SetInputSource(ctx context.Context, source InputSource) error {
	h, err := m.handle()
	if err != nil {
		return err
	}

	return bounded(ctx, m.timeout, "setvcp", func() error {
		r1, _, callErr := procSetVCPFeature.Call(uintptr(h), uintptr(FeatureInputSource), uintptr(source))
		if r1 == 0 {
			return &VCPError{Op: "setvcp", Feature: FeatureInputSource, Err: callErr}
		}

		return nil
	}, nil)
}

// InputSource reads VCP 0x60.
func (m *dxva2Monitor) InputSource(ctx context.Context) (InputSource, error) {
	h, err := m.handle()
	if err != nil {
		return 0, err
	}

	var current, maximum uint32

	err = bounded(ctx, m.timeout, "getvcp", func() error {
		r1, _, callErr := procGetVCPFeatureAndVCPFeatureReply.Call(
			uintptr(h),
			uintptr(FeatureInputSource),
			0,
			uintptr(unsafe.Pointer(&current)),
			uintptr(unsafe.Pointer(&maximum)),
		)
		if r1 == 0 {
			return &VCPError{Op: "getvcp", Feature: FeatureInputSource, Err: callErr}
		}

		return nil
	}, nil)
	if err != nil {
		return 0, err
	}

	// Some monitors report extra flags in the high byte.
	return InputSource(current & 0xFF), nil
}
