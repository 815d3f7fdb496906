//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"errors"
	"testing"

	"github.com/mitchellh/go-ps"
	"github.com/stretchr/testify/require"
)

// fakeProcess implements ps.Process.
type fakeProcess struct {
	pid        int
	executable string
}

func (p fakeProcess) Pid() int { return p.pid }

func (p fakeProcess) PPid() int { return 1 }

func (p fakeProcess) Executable() string { return p.executable }

func listOf(processes ...fakeProcess) processLister {
	return func() ([]ps.Process, error) {
		result := make([]ps.Process, 0, len(processes))
		for _, process := range processes {
			result = append(result, process)
		}

		return result, nil
	}
}

// TestFindOtherInstances checks only other processes with our executable name are reported.
func TestFindOtherInstances(t *testing.T) {
	t.Parallel()

	list := listOf(
		fakeProcess{pid: 1, executable: "init"},
		fakeProcess{pid: 10, executable: "monitor-switch"},
		fakeProcess{pid: 20, executable: "monitor-switch"},
		fakeProcess{pid: 30, executable: "bash"},
	)

	pids, err := findOtherInstances(list, 10)
	require.NoError(t, err)
	require.Equal(t, []int{20}, pids)

	pids, err = findOtherInstances(list, 99)
	require.NoError(t, err)
	require.Empty(t, pids)
}

// TestFindOtherInstances_ListError wraps lister failures.
func TestFindOtherInstances_ListError(t *testing.T) {
	t.Parallel()

	errList := errors.New("permission denied")

	_, err := findOtherInstances(func() ([]ps.Process, error) { return nil, errList }, 1)
	require.ErrorIs(t, err, errList)
}

// TestFindOtherInstances_Live runs against the real process table.
func TestFindOtherInstances_Live(t *testing.T) {
	t.Parallel()

	_, err := FindOtherInstances()
	require.NoError(t, err)
}
