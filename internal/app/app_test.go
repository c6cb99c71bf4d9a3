package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/dqgrid/internal/builtin"
	"github.com/vk/dqgrid/internal/component"
	"github.com/vk/dqgrid/internal/config"
	"github.com/vk/dqgrid/internal/listener"
	"github.com/vk/dqgrid/internal/registry"
)

const ordersJob = `
name = "orders"

engine {
  workers           = 2
  progress_interval = 2
}

source "csv" "orders" {
  path = "orders.csv"
  column "customer" {
    type = string
  }
  column "amount" {
    type = number
  }
}

component "not_null" "has_customer" {
  inputs = ["orders.customer"]
}

component "value_distribution" "customers" {
  inputs   = ["orders.customer"]
  requires = "has_customer.VALID"
}

component "sum" "revenue" {
  inputs = ["orders.amount"]
}

component "row_count" "rows" {
  tables = ["orders"]
}
`

const ordersCSV = "customer,amount\nacme,10\nglobex,5\nacme,2.5\n,7\n"

func writeJob(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestRun_ReportsResults(t *testing.T) {
	dir := writeJob(t, map[string]string{"job.hcl": ordersJob, "orders.csv": ordersCSV})

	for name, partitions := range map[string]int{"local": 0, "partitioned": 3} {
		t.Run(name, func(t *testing.T) {
			a, logs := SetupAppTest(t, &Config{JobPath: dir, Partitions: partitions})

			rep, err := a.Run(context.Background())
			require.NoError(t, err)
			require.True(t, rep.Successful, "%v", rep.Errors)

			assert.NotEmpty(t, rep.RunID)
			assert.Equal(t, "orders", rep.Job)
			assert.Equal(t, builtin.Distribution{"acme": 2, "globex": 1}, rep.Results["customers"])
			assert.Equal(t, builtin.SumResult(24.5), rep.Results["revenue"])
			assert.Equal(t, builtin.Count(4), rep.Results["rows"])
			assert.NotContains(t, rep.Results, "has_customer")

			assert.Equal(t, listener.StateSucceeded, rep.Progress.State)
			assert.Equal(t, int64(4), rep.Progress.Rows["orders"], "partition row counts add up")
			assert.Contains(t, logs.String(), rep.RunID)
		})
	}
}

func TestRun_SQLiteStorage(t *testing.T) {
	dir := writeJob(t, map[string]string{"job.hcl": ordersJob, "orders.csv": ordersCSV})
	a, _ := SetupAppTest(t, &Config{
		JobPath:     dir,
		Storage:     "sqlite",
		StoragePath: filepath.Join(t.TempDir(), "dq.db"),
	})

	rep, err := a.Run(context.Background())
	require.NoError(t, err)
	require.True(t, rep.Successful, "%v", rep.Errors)
	assert.Equal(t, builtin.Distribution{"acme": 2, "globex": 1}, rep.Results["customers"])
}

func TestRun_ComponentErrorsMakeRunUnsuccessful(t *testing.T) {
	job := `
source "csv" "t" {
  path = "t.csv"
  column "v" {}
}
component "number_range" "range" {
  inputs = ["t.v"]
}
component "row_count" "rows" {
  tables = ["t"]
}
`
	dir := writeJob(t, map[string]string{"job.hcl": job, "t.csv": "v\n1\nabc\n3\n"})

	t.Run("continue", func(t *testing.T) {
		a, _ := SetupAppTest(t, &Config{JobPath: dir, Workers: 1})
		rep, err := a.Run(context.Background())
		require.NoError(t, err)
		assert.False(t, rep.Successful)
		require.NotEmpty(t, rep.Errors)
		for _, e := range rep.Errors {
			assert.Contains(t, e, "value is not a number")
		}
		assert.Equal(t, builtin.Count(3), rep.Results["rows"])
	})

	t.Run("fail fast", func(t *testing.T) {
		a, _ := SetupAppTest(t, &Config{JobPath: dir, Workers: 1, FailFast: true})
		rep, err := a.Run(context.Background())
		require.NoError(t, err)
		assert.False(t, rep.Successful)
		assert.Equal(t, listener.StateFailed, rep.Progress.State)
	})
}

func TestRun_SetupErrors(t *testing.T) {
	t.Run("load", func(t *testing.T) {
		dir := writeJob(t, map[string]string{"job.hcl": `source "csv" {`})
		a, _ := SetupAppTest(t, &Config{JobPath: dir})
		_, err := a.Run(context.Background())
		require.ErrorContains(t, err, "failed to load job")
	})

	t.Run("build", func(t *testing.T) {
		dir := writeJob(t, map[string]string{"job.hcl": `component "nope" "x" {}`})
		a, _ := SetupAppTest(t, &Config{JobPath: dir})
		_, err := a.Run(context.Background())
		require.ErrorContains(t, err, "failed to build job")
	})

	t.Run("storage", func(t *testing.T) {
		dir := writeJob(t, map[string]string{"job.hcl": ordersJob, "orders.csv": ordersCSV})
		a, _ := SetupAppTest(t, &Config{JobPath: dir, Storage: "redis"})
		_, err := a.Run(context.Background())
		require.ErrorContains(t, err, `unknown storage kind "redis"`)
	})
}

func TestEngineSettings(t *testing.T) {
	file := config.Engine{Workers: 3, QueueSize: 7, Storage: "sqlite", StoragePath: "file.db"}

	a := &App{config: &Config{}}
	got := a.engineSettings(file)
	assert.Equal(t, 3, got.Workers)
	assert.Equal(t, 7, got.QueueSize)
	assert.Equal(t, int64(1000), got.ProgressInterval)
	assert.Equal(t, "sqlite", got.Storage)
	assert.Equal(t, "file.db", got.StoragePath)

	a = &App{config: &Config{Workers: 9, Storage: "memory", Partitions: 2}}
	got = a.engineSettings(file)
	assert.Equal(t, 9, got.Workers)
	assert.Equal(t, "memory", got.Storage)
	assert.Empty(t, got.StoragePath)
	assert.Equal(t, 2, got.Partitions)

	got = (&App{config: &Config{}}).engineSettings(config.Engine{})
	assert.Positive(t, got.Workers)
	assert.Equal(t, "memory", got.Storage)
}

func TestNewConfig(t *testing.T) {
	_, err := NewConfig(Config{})
	require.Error(t, err)

	_, err = NewConfig(Config{JobPath: "x", Workers: -1})
	require.Error(t, err)

	_, err = NewConfig(Config{JobPath: "x", StatusPort: 70000})
	require.Error(t, err)

	cfg, err := NewConfig(Config{JobPath: "x", Workers: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Workers)
}

type badModule struct{}

func (badModule) Register(r *registry.Registry) {
	r.Register(&component.Descriptor{
		Name: "bad",
		Kind: component.KindAnalyzer,
		New: func(context.Context, component.Provided) (component.Component, error) {
			return nil, nil
		},
		NewConfig: func() any { return struct{}{} },
	})
}

func TestNewApp_PanicsOnInvalidRegistry(t *testing.T) {
	assert.Panics(t, func() {
		NewApp(&bytes.Buffer{}, &Config{JobPath: "x"}, nil, badModule{})
	})
}

func TestStatusRouter(t *testing.T) {
	a, _ := SetupAppTest(t, &Config{JobPath: "x"})
	srv := httptest.NewServer(a.statusRouter())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/progress")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var snap listener.ProgressSnapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, listener.StatePending, snap.State)

	resp, err = http.Post(srv.URL+"/health", "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, &Report{
		RunID:      "01J",
		Job:        "orders",
		Successful: true,
		Results:    map[string]component.Result{"rows": builtin.Count(4)},
	}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "orders", decoded["job"])
	assert.Equal(t, map[string]any{"rows": 4.0}, decoded["results"])
	assert.NotContains(t, decoded, "errors")
}
