//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"fmt"
	"os"

	"github.com/mitchellh/go-ps"
)

// processLister lists running processes; ps.Processes in production.
type processLister func() ([]ps.Process, error)

// FindOtherInstances returns the PIDs of other processes running the same
// executable as the current one.
func FindOtherInstances() ([]int, error) {
	return findOtherInstances(ps.Processes, os.Getpid())
}

func findOtherInstances(list processLister, selfPID int) ([]int, error) {
	processList, err := list()
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	// Compare against our own entry so both names carry the same platform
	// truncation and extension.
	var executable string

	for _, process := range processList {
		if process.Pid() == selfPID {
			executable = process.Executable()

			break
		}
	}

	if executable == "" {
		return nil, nil
	}

	var pids []int

	for _, process := range processList {
		if process.Pid() == selfPID || process.Executable() != executable {
			continue
		}

		pids = append(pids, process.Pid())
	}

	return pids, nil
}
