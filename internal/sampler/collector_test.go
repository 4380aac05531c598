package sampler

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keilerkonzept/graphperf/internal/activity"
)

type fixedSource struct{ a activity.Activity }

func (s *fixedSource) Current() activity.Activity { return s.a }

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func at(msec float64) time.Time {
	return t0.Add(time.Duration(msec * float64(time.Millisecond)))
}

// frames calls Frame n times, evenly spaced over span starting after from.
func frames(c *Collector, from time.Time, n int, span time.Duration) time.Time {
	var now time.Time
	for i := 1; i <= n; i++ {
		now = from.Add(time.Duration(i) * span / time.Duration(n))
		c.Frame(now)
	}
	return now
}

func TestFPSBucket(t *testing.T) {
	src := &fixedSource{a: activity.Idle}
	c := New(src, nil, 16)
	c.Start(t0)

	for i := 1; i < 60; i++ {
		c.Frame(t0.Add(time.Duration(i) * time.Second / 60))
	}
	require.Empty(t, c.Data().FPS, "bucket closes only at 1000ms")

	c.Frame(t0.Add(time.Second))
	d := c.Data()
	require.Len(t, d.FPS, 1)
	assert.InDelta(t, 60.0, d.FPS[0], 0.01)
	assert.Equal(t, d.FPS, d.Buckets[activity.Idle].FPS)
	assert.Len(t, d.FrameTimes, 60)
	assert.InDelta(t, 1000.0/60, d.FrameTimes[0], 0.001)
}

func TestFPSExactSixty(t *testing.T) {
	c := New(&fixedSource{}, nil, 16)
	c.Start(t0)
	frames(c, t0, 60, time.Second)

	require.Len(t, c.Data().FPS, 1)
	assert.Equal(t, "60.00", fmt.Sprintf("%.2f", c.Data().FPS[0]))
}

func TestAttributionIsolation(t *testing.T) {
	src := &fixedSource{a: activity.Panning}
	mem := MemoryFunc(func() float64 { return 42 })
	c := New(src, mem, 16)
	c.Start(t0)
	frames(c, t0, 30, time.Second)

	d := c.Data()
	require.Len(t, d.FPS, 1)
	for _, a := range activity.All {
		if a == activity.Panning {
			assert.Equal(t, d.FPS, d.Buckets[a].FPS)
			assert.Equal(t, []float64{42}, d.Buckets[a].Mem)
			continue
		}
		assert.Empty(t, d.Buckets[a].FPS, a.String())
		assert.Empty(t, d.Buckets[a].Mem, a.String())
	}
	assert.Empty(t, d.Memory, "frame-time memory goes only to the activity bucket")
}

func TestSuspendedFrameIgnored(t *testing.T) {
	c := New(&fixedSource{}, nil, 16)
	c.Start(t0)

	c.Frame(at(0))    // dt = 0
	c.Frame(at(16))   // real frame
	c.Frame(at(5000)) // suspended tab
	d := c.Data()
	assert.Equal(t, []float64{16}, d.FrameTimes)
	require.Len(t, d.FPS, 1, "the bucket still closes")
	assert.InDelta(t, 3*1000.0/5000, d.FPS[0], 1e-9)
}

func TestMemoryTick(t *testing.T) {
	v := 10.0
	c := New(&fixedSource{a: activity.Zooming}, MemoryFunc(func() float64 { v++; return v }), 16)
	c.Start(t0)

	c.MemoryTick(at(1000))
	c.MemoryTick(at(2000))
	d := c.Data()
	assert.Equal(t, []float64{11, 12}, d.Memory)
	assert.Empty(t, d.Buckets[activity.Zooming].Mem, "interval memory is not attributed")

	live := c.Live()
	assert.True(t, live.HasMemory)
	assert.Equal(t, 12.0, live.MemoryMB)
}

func TestNoMemoryReader(t *testing.T) {
	c := New(&fixedSource{}, nil, 16)
	c.Start(t0)
	c.MemoryTick(at(1000))
	frames(c, t0, 10, time.Second)

	d := c.Data()
	assert.Empty(t, d.Memory)
	assert.Empty(t, d.Buckets[activity.Idle].Mem)
	assert.False(t, c.Live().HasMemory)
}

func TestRenderProbeAttributedAtCompletion(t *testing.T) {
	src := &fixedSource{a: activity.Dragging}
	c := New(src, nil, 16)
	c.Start(t0)

	c.BeginRender(at(5))
	assert.Equal(t, 1, c.PendingRenders())
	src.a = activity.Selecting
	c.Frame(at(12))

	d := c.Data()
	assert.Empty(t, d.Buckets[activity.Dragging].Render)
	require.Equal(t, []float64{7}, d.Buckets[activity.Selecting].Render)
	assert.Equal(t, RenderStats{Count: 1, Sum: 7, Max: 7}, d.Render)
	assert.Equal(t, 0, c.PendingRenders())

	c.RecordRender(3 * time.Millisecond)
	assert.Equal(t, 3.0, c.Live().RecentRender.Last)
	assert.Equal(t, 7.0, c.Live().RecentRender.Max)
	assert.InDelta(t, 5.0, c.Live().Render.Avg(), 1e-9)
}

func TestStopFreezesBuffers(t *testing.T) {
	c := New(&fixedSource{}, MemoryFunc(func() float64 { return 1 }), 16)
	c.Start(t0)
	c.BeginRender(at(1))
	c.Stop()

	frames(c, t0, 120, 2*time.Second)
	c.MemoryTick(at(1000))
	c.BeginRender(at(2000))
	c.RecordRender(time.Millisecond)

	d := c.Data()
	assert.Empty(t, d.FPS)
	assert.Empty(t, d.FrameTimes)
	assert.Empty(t, d.Memory)
	assert.Zero(t, d.Render.Count)
	assert.True(t, c.Stopped())
	assert.False(t, c.Running())
}

func TestCallbacksBeforeStartAreIgnored(t *testing.T) {
	c := New(&fixedSource{}, nil, 16)
	c.Frame(at(10))
	c.BeginRender(at(10))
	assert.Empty(t, c.Data().FrameTimes)
	assert.Zero(t, c.PendingRenders())
}

func TestFPSHistory(t *testing.T) {
	c := New(&fixedSource{}, nil, 16)
	c.Start(t0)
	for i := 1; i <= 5; i++ {
		c.Frame(at(float64(i) * 1000))
	}
	assert.Len(t, c.FPSHistory(3), 3)
	assert.Len(t, c.FPSHistory(10), 5)
	assert.Nil(t, c.FPSHistory(0))
}

func TestWindow(t *testing.T) {
	w := newWindow(3)
	assert.Equal(t, WindowStats{}, w.snapshot())
	for _, v := range []float64{1, 2, 3, 10} {
		w.add(v)
	}
	s := w.snapshot()
	assert.Equal(t, 10.0, s.Last)
	assert.Equal(t, 10.0, s.Max)
	assert.InDelta(t, 5.0, s.Avg, 1e-9)
	assert.Equal(t, 3, s.N)
}
