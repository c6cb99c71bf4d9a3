// Package testutil provides the harness and shared modules used by the
// integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/dqgrid/internal/app"
	"github.com/vk/dqgrid/internal/builtin"
	"github.com/vk/dqgrid/internal/hcl"
	"github.com/vk/dqgrid/internal/registry"
)

// SafeBuffer captures log output; it is shared with the app package tests.
type SafeBuffer = app.SafeBuffer

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Report    *app.Report
	Err       error
	App       *app.App
}

// RunIntegrationTest runs the files as one job with default settings. The
// built-in module is always registered; modules add test components.
func RunIntegrationTest(t *testing.T, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithConfig(context.Background(), t, files, app.Config{}, modules...)
}

// RunIntegrationTestWithConfig runs the files as one job. JobPath and
// logging settings of cfg are filled in by the harness.
func RunIntegrationTestWithConfig(ctx context.Context, t *testing.T, files map[string]string, cfg app.Config, modules ...registry.Module) *HarnessResult {
	t.Helper()

	// Test files use relative paths such as "jobs/a.hcl", which creates
	// the subdirectory structure within the temporary root.
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}

	cfg.JobPath = root
	cfg.LogLevel = "debug"
	cfg.LogFormat = "text"

	logBuffer := &SafeBuffer{}
	mods := append([]registry.Module{builtin.Module{}}, modules...)

	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		testApp = app.NewApp(logBuffer, &cfg, hcl.NewLoader(), mods...)
	}()
	if panicErr != nil {
		return &HarnessResult{
			LogOutput: logBuffer.String(),
			Err:       fmt.Errorf("application startup panicked | %v", panicErr),
		}
	}

	report, runErr := testApp.Run(ctx)

	if os.Getenv("DQGRID_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Report:    report,
		Err:       runErr,
		App:       testApp,
	}
}
