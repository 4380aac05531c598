package replay

import (
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keilerkonzept/graphperf/internal/activity"
	"github.com/keilerkonzept/graphperf/internal/session"
)

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

func mustParse(t *testing.T, doc string) *Scenario {
	t.Helper()
	sc, err := ParseScenario(strings.NewReader(doc))
	require.NoError(t, err)
	return sc
}

func TestParseScenarioDefaults(t *testing.T) {
	sc := mustParse(t, "duration: 2s\n")
	assert.Equal(t, 60.0, sc.FPS)
	assert.Equal(t, 20000.0, sc.Spread)
	assert.Equal(t, 2*time.Second, sc.Duration)
	assert.Empty(t, sc.Events)
}

func TestParseScenarioErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown field", "duration: 1s\nfsp: 3\n", "decode"},
		{"no duration", "nodes: 3\n", "duration must be > 0"},
		{"bad fps", "duration: 1s\nfps: 0\n", "fps must be > 0"},
		{"unknown activity", "duration: 1s\nfps_by_activity: {HOVERING: 3}\n", "unknown activity"},
		{"unknown event", "duration: 1s\nevents: [{at: 1s, type: hover}]\n", "unknown type"},
		{"node press without node", "duration: 1s\nevents: [{at: 1s, type: node_press}]\n", "needs a node"},
		{"repeat without every", "duration: 1s\nevents: [{at: 1s, type: move, repeat: 2}]\n", "repeat needs every"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario(strings.NewReader(tt.doc))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestExpandRepeats(t *testing.T) {
	sc := mustParse(t, `
duration: 1s
events:
  - {at: 100ms, type: move, x: 1, y: 2, repeat: 2, every: 10ms, step_x: 3}
`)
	got := sc.expand()
	require.Len(t, got, 3)
	assert.Equal(t, 120*time.Millisecond, got[2].At)
	assert.Equal(t, 7.0, got[2].X)
	assert.Equal(t, 2.0, got[2].Y)
}

func TestIdleSessionAtSixtyFPS(t *testing.T) {
	sc := mustParse(t, "nodes: 10\nedges: 4\nduration: 2500ms\n")

	res, err := Run(sc, Options{}, quietLog())
	require.NoError(t, err)

	assert.Equal(t, 2500*time.Millisecond, res.Elapsed)
	assert.Equal(t, 2, res.Report.Frames.Samples)
	assert.InDelta(t, 60.0, res.Report.Frames.Avg, 1e-6)
	assert.Equal(t, 2, res.Report.Activities[activity.Idle].Samples)
	assert.Contains(t, res.Text, "  Samples Collected: 2")
	assert.Contains(t, res.Text, "  Average Memory: 0.00MB", "memory disabled without readings")
	assert.Len(t, res.Order, 10)
}

func TestEndEventStopsEarly(t *testing.T) {
	sc := mustParse(t, `
nodes: 3
duration: 10s
events:
  - {at: 1500ms, type: end}
  - {at: 2s, type: wheel, delta: -100}
`)
	res, err := Run(sc, Options{}, quietLog())
	require.NoError(t, err)

	assert.Equal(t, 1500*time.Millisecond, res.Elapsed)
	assert.Equal(t, 1.5, res.Report.DurationSeconds)
	assert.Equal(t, 0, res.Report.Interactions.Zooms)
	assert.True(t, res.Live.Ended)
}

func TestScriptedSession(t *testing.T) {
	sc, err := LoadScenario("testdata/session.yaml")
	require.NoError(t, err)

	opts := Options{RecentWindow: 32, HotNodes: session.DefaultHotNodeOptions()}
	res, err := Run(sc, opts, quietLog())
	require.NoError(t, err)

	assert.Equal(t, activity.Counters{Pans: 1, Zooms: 11, NodeClicks: 1, DragSessions: 2}, res.Live.Counters)
	assert.Equal(t, 15, res.Report.Interactions.Total)
	assert.Equal(t, 201, res.Report.NodeCount)
	assert.Equal(t, 105.0, res.Live.Camera.X)
	assert.Greater(t, res.Live.Camera.Scale, 1.0)

	zoom := res.Report.Activities[activity.Zooming]
	require.GreaterOrEqual(t, zoom.Samples, 1)
	assert.Less(t, zoom.AvgFPS, 60.0)
	assert.Greater(t, zoom.AvgFPS, 24.0)

	assert.Equal(t, 44.0, res.Report.Memory.Peak)
	assert.Equal(t, 40.0, res.Report.Memory.Min)
	assert.Greater(t, res.Report.Render.Samples, 2)

	require.NotEmpty(t, res.Live.HotNodes)
	ids := []string{}
	for _, h := range res.Live.HotNodes {
		ids = append(ids, h.ID)
	}
	assert.ElementsMatch(t, []string{"5", "6"}, ids)

	again, err := Run(sc, opts, quietLog())
	require.NoError(t, err)
	assert.Equal(t, res.Report.Frames, again.Report.Frames)
	assert.Equal(t, res.Live.Counters, again.Live.Counters)
	assert.Equal(t, res.Order, again.Order)
	for _, a := range activity.All {
		assert.Equal(t, res.Report.Activities[a].Samples, again.Report.Activities[a].Samples, a.String())
		assert.Equal(t, res.Report.Activities[a].AvgFPS, again.Report.Activities[a].AvgFPS, a.String())
	}
}
