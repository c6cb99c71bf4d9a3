package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/dqgrid/internal/component"
)

// AssertResult checks the published result of a component by name.
func AssertResult(t *testing.T, result *HarnessResult, name string, want component.Result) {
	t.Helper()
	require.NoError(t, result.Err, "run returned an unexpected error")
	require.NotNil(t, result.Report)
	got, ok := result.Report.Results[name]
	require.True(t, ok, "no result published for component %q", name)
	assert.Equal(t, want, got, "result of component %q", name)
}

// AssertNoResult checks that a component published nothing.
func AssertNoResult(t *testing.T, result *HarnessResult, name string) {
	t.Helper()
	require.NotNil(t, result.Report)
	assert.NotContains(t, result.Report.Results, name)
}

// AssertReportedError checks that some component error mentions substr.
func AssertReportedError(t *testing.T, result *HarnessResult, substr string) {
	t.Helper()
	require.NotNil(t, result.Report)
	for _, e := range result.Report.Errors {
		if strings.Contains(e, substr) {
			return
		}
	}
	t.Errorf("no reported error contains %q; errors: %v", substr, result.Report.Errors)
}
