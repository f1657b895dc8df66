package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertUnitRan checks the captured logs for the completion record of unit.
func AssertUnitRan(t *testing.T, result *HarnessResult, unit string) {
	t.Helper()
	require.True(t, unitFinished(result.LogOutput, unit),
		"expected log output for unit '%s' was not found in logs", unit)
}

// AssertUnitSkipped checks that unit never completed.
func AssertUnitSkipped(t *testing.T, result *HarnessResult, unit string) {
	t.Helper()
	require.False(t, unitFinished(result.LogOutput, unit),
		"unit '%s' was not expected to run", unit)
}

func unitFinished(logs, unit string) bool {
	for _, line := range strings.Split(logs, "\n") {
		if strings.Contains(line, "Finished unit") && strings.Contains(line, "unit="+unit+" ") {
			return true
		}
	}
	return false
}
