package integration_tests

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vk/dqgrid/internal/app"
	"github.com/vk/dqgrid/internal/builtin"
	"github.com/vk/dqgrid/internal/testutil"
)

func numbersCSV(n int) string {
	var b strings.Builder
	b.WriteString("n\n")
	for i := range n {
		fmt.Fprintf(&b, "%d\n", i)
	}
	return b.String()
}

func sleeperJob(descriptor, name string) string {
	return fmt.Sprintf(`
		source "csv" "numbers" {
			path = "numbers.csv"
			column "n" {
				type = number
			}
		}
		component %q %q {
			tables = ["numbers"]
		}
	`, descriptor, name)
}

// TestConcurrency_ConcurrentConsumersOverlap validates that rows are handed
// to a concurrent component while earlier rows are still being consumed.
func TestConcurrency_ConcurrentConsumersOverlap(t *testing.T) {
	t.Parallel()

	module := testutil.NewMockSleeperModule(20 * time.Millisecond)
	files := map[string]string{"job.hcl": sleeperJob("sleeper", "parallel"), "numbers.csv": numbersCSV(24)}

	result := testutil.RunIntegrationTestWithConfig(t.Context(), t, files, app.Config{Workers: 4}, module)

	testutil.AssertResult(t, result, "parallel", builtin.Count(24))
	assert.Greater(t, module.MaxInFlight("parallel"), int64(1))
	assert.LessOrEqual(t, module.MaxInFlight("parallel"), int64(5), "at most the workers plus the caller run at once")
}

// TestConcurrency_SerialConsumersNeverOverlap validates that a serial
// component sees one call at a time even with a wide runner.
func TestConcurrency_SerialConsumersNeverOverlap(t *testing.T) {
	t.Parallel()

	module := testutil.NewMockSleeperModule(time.Millisecond)
	files := map[string]string{"job.hcl": sleeperJob("serial_sleeper", "one_at_a_time"), "numbers.csv": numbersCSV(24)}

	result := testutil.RunIntegrationTestWithConfig(t.Context(), t, files, app.Config{Workers: 4}, module)

	testutil.AssertResult(t, result, "one_at_a_time", builtin.Count(24))
	assert.Equal(t, int64(1), module.MaxInFlight("one_at_a_time"))
}

// TestConcurrency_SingleWorkerCompletes validates that a width-one runner
// with a tiny queue still processes every row through caller-runs.
func TestConcurrency_SingleWorkerCompletes(t *testing.T) {
	t.Parallel()

	module := testutil.NewMockSleeperModule(time.Millisecond)
	files := map[string]string{"job.hcl": sleeperJob("sleeper", "parallel"), "numbers.csv": numbersCSV(50)}

	result := testutil.RunIntegrationTestWithConfig(t.Context(), t, files, app.Config{Workers: 1, QueueSize: 1}, module)

	testutil.AssertResult(t, result, "parallel", builtin.Count(50))
}
