package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keilerkonzept/graphperf/internal/logging"
	"github.com/keilerkonzept/graphperf/internal/report"
)

func execute(t *testing.T, args ...string) (*app, string, error) {
	t.Helper()
	t.Cleanup(func() { _, _ = logging.Configure(logging.Config{}) })

	a := newApp()
	root := newRootCmd(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return a, out.String(), err
}

func TestReplayCommandPrintsReport(t *testing.T) {
	_, out, err := execute(t, "replay", "testdata/zoom.yaml", "--log-level", "error")
	require.NoError(t, err)

	assert.Contains(t, out, "PERFORMANCE REPORT")
	assert.Contains(t, out, "Node Count: 50")
	assert.Contains(t, out, "  Zoom Operations: 16")
	assert.Contains(t, out, "  Node Clicks: 1")
	assert.Contains(t, out, "  "+report.VerdictZoomConcern)
}

func TestReplayCommandJSON(t *testing.T) {
	_, out, err := execute(t, "replay", "testdata/zoom.yaml", "--json", "--log-level", "error")
	require.NoError(t, err)

	var r report.Report
	require.NoError(t, sonic.Unmarshal([]byte(out), &r))
	assert.Equal(t, 50, r.NodeCount)
	assert.Equal(t, 16, r.Interactions.Zooms)
	assert.Equal(t, 18, r.Interactions.Total)
	assert.Len(t, r.Activities, 5)
	assert.Contains(t, r.Verdicts, report.VerdictZoomConcern)
}

func TestReplayCommandErrors(t *testing.T) {
	_, _, err := execute(t, "replay")
	assert.Error(t, err)

	_, _, err = execute(t, "replay", "testdata/missing.yaml", "--log-level", "error")
	assert.ErrorContains(t, err, "read scenario")

	_, _, err = execute(t, "replay", "testdata/zoom.yaml", "--hot-decay", "2")
	assert.ErrorContains(t, err, "--hot-decay must be in [0,1]")
}

func TestConfigLayering(t *testing.T) {
	t.Setenv("GRAPHPERF_EDGES", "77")

	a, _, err := execute(t,
		"replay", "testdata/zoom.yaml",
		"--config", "testdata/graphperf.yaml",
		"--hot-k", "2",
		"--log-level", "error",
	)
	require.NoError(t, err)

	assert.Equal(t, 1200, a.cfg.Nodes, "config file")
	assert.Equal(t, 77, a.cfg.Edges, "environment beats config file")
	assert.Equal(t, 2, a.cfg.HotK, "flag beats config file")
	assert.Equal(t, "error", a.cfg.Log.Level, "flag beats config file")
	assert.Equal(t, 20000.0, a.cfg.Spread, "default")
}

func TestWriteReports(t *testing.T) {
	dir := t.TempDir()
	r := report.Build(report.Input{NodeCount: 7})
	textPath := filepath.Join(dir, "report.txt")
	jsonPath := filepath.Join(dir, "report.json")

	require.NoError(t, writeReports(r, r.String(), textPath, jsonPath))

	text, err := os.ReadFile(textPath)
	require.NoError(t, err)
	assert.Equal(t, r.String()+"\n", string(text))

	var decoded report.Report
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	require.NoError(t, sonic.Unmarshal(data, &decoded))
	assert.Equal(t, 7, decoded.NodeCount)
	assert.Equal(t, r.Verdicts, decoded.Verdicts)

	require.NoError(t, writeReports(r, "", "", ""))
}

func TestHotNodeOptions(t *testing.T) {
	a := newApp()
	assert.Equal(t, 5, a.hotNodeOptions().K)
	a.cfg.HotK = 0
	assert.Zero(t, a.hotNodeOptions())
}
