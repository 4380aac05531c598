// Package sampler collects frame rate, memory and render latency samples and
// attributes each one to the activity that is current when it is captured.
package sampler

import (
	"time"

	"github.com/keilerkonzept/graphperf/internal/activity"
)

const (
	// bucketSpan is how much frame time is folded into one fps sample.
	bucketSpan = 1000.0 // ms
	// maxFrameGap is the largest frame delta still counted as a real frame;
	// anything longer means the loop was suspended.
	maxFrameGap = 1000.0 // ms
)

// Source tells the collector which activity is current.
type Source interface {
	Current() activity.Activity
}

// Bucket holds the samples attributed to one activity.
type Bucket struct {
	FPS    []float64 `json:"fps"`
	Mem    []float64 `json:"mem"`
	Render []float64 `json:"render"`
}

// RenderStats is the running render latency accumulator, in milliseconds.
type RenderStats struct {
	Count int     `json:"count"`
	Sum   float64 `json:"sum"`
	Max   float64 `json:"max"`
}

func (r RenderStats) Avg() float64 {
	if r.Count == 0 {
		return 0
	}
	return r.Sum / float64(r.Count)
}

// Data is everything the collector accumulated. Slices are shared with the
// collector; read them only after Stop.
type Data struct {
	FPS        []float64
	FrameTimes []float64
	Memory     []float64
	Render     RenderStats
	Buckets    [activity.Count]Bucket
}

// Live is the readout for on-screen display.
type Live struct {
	Activity     activity.Activity
	FPS          float64
	MemoryMB     float64
	HasMemory    bool
	Render       RenderStats
	RecentRender WindowStats
	FPSSamples   int
}

// Collector owns every sample buffer of a session. It is driven by three
// callbacks from a single event loop: Frame on every display refresh,
// MemoryTick on a fixed interval, and BeginRender whenever an interaction
// triggers a visual update.
type Collector struct {
	src Source
	mem MemoryReader

	started bool
	stopped bool

	lastFrame      time.Time
	lastBucket     time.Time
	framesInBucket int

	fps        []float64
	frameTimes []float64
	memory     []float64
	render     RenderStats
	buckets    [activity.Count]Bucket

	pending []time.Time
	recent  *window

	lastFPS float64
	lastMem float64
	hasMem  bool
}

// New creates a collector. mem may be nil. recentWindow sizes the live
// render readout.
func New(src Source, mem MemoryReader, recentWindow int) *Collector {
	return &Collector{
		src:    src,
		mem:    mem,
		recent: newWindow(recentWindow),
	}
}

// Start anchors the frame and bucket clocks.
func (c *Collector) Start(now time.Time) {
	if c.started || c.stopped {
		return
	}
	c.started = true
	c.lastFrame = now
	c.lastBucket = now
}

// Stop ends both cadences. Every later callback is a no-op, so late frames
// or timers cannot touch the buffers once a report is being built.
func (c *Collector) Stop() {
	c.stopped = true
	c.pending = nil
}

func (c *Collector) Stopped() bool { return c.stopped }

// Running reports whether callbacks are currently being accepted.
func (c *Collector) Running() bool { return c.started && !c.stopped }

// Frame is the per-refresh callback.
func (c *Collector) Frame(now time.Time) {
	if !c.Running() {
		return
	}
	c.completeRenders(now)

	dt := ms(now.Sub(c.lastFrame))
	c.lastFrame = now
	if dt > 0 && dt < maxFrameGap {
		c.frameTimes = append(c.frameTimes, dt)
	}

	c.framesInBucket++
	elapsed := ms(now.Sub(c.lastBucket))
	if elapsed < bucketSpan {
		return
	}
	fps := float64(c.framesInBucket) * 1000 / elapsed
	c.fps = append(c.fps, fps)
	c.lastFPS = fps

	b := &c.buckets[c.src.Current()]
	b.FPS = append(b.FPS, fps)
	if c.mem != nil {
		b.Mem = append(b.Mem, c.mem.UsedMB())
	}

	c.framesInBucket = 0
	c.lastBucket = now
}

// MemoryTick is the fixed-interval callback. It feeds only the session-wide
// memory series and is not gated by activity.
func (c *Collector) MemoryTick(time.Time) {
	if !c.Running() || c.mem == nil {
		return
	}
	v := c.mem.UsedMB()
	c.memory = append(c.memory, v)
	c.lastMem = v
	c.hasMem = true
}

// BeginRender starts a render latency probe. It completes on the next Frame
// and is attributed to whatever activity is current then.
func (c *Collector) BeginRender(now time.Time) {
	if !c.Running() {
		return
	}
	c.pending = append(c.pending, now)
}

// RecordRender adds an already measured render duration, attributed to the
// current activity.
func (c *Collector) RecordRender(d time.Duration) {
	if c.stopped {
		return
	}
	c.addRender(ms(d))
}

// PendingRenders is the number of probes waiting for the next frame.
func (c *Collector) PendingRenders() int { return len(c.pending) }

func (c *Collector) completeRenders(now time.Time) {
	for _, start := range c.pending {
		c.addRender(ms(now.Sub(start)))
	}
	c.pending = c.pending[:0]
}

func (c *Collector) addRender(d float64) {
	c.render.Count++
	c.render.Sum += d
	if d > c.render.Max {
		c.render.Max = d
	}
	b := &c.buckets[c.src.Current()]
	b.Render = append(b.Render, d)
	c.recent.add(d)
}

func (c *Collector) Data() Data {
	return Data{
		FPS:        c.fps,
		FrameTimes: c.frameTimes,
		Memory:     c.memory,
		Render:     c.render,
		Buckets:    c.buckets,
	}
}

func (c *Collector) Live() Live {
	return Live{
		Activity:     c.src.Current(),
		FPS:          c.lastFPS,
		MemoryMB:     c.lastMem,
		HasMemory:    c.hasMem,
		Render:       c.render,
		RecentRender: c.recent.snapshot(),
		FPSSamples:   len(c.fps),
	}
}

// FPSHistory returns up to n of the most recent fps samples, oldest first.
func (c *Collector) FPSHistory(n int) []float64 {
	if n <= 0 || len(c.fps) == 0 {
		return nil
	}
	from := max(0, len(c.fps)-n)
	out := make([]float64, len(c.fps)-from)
	copy(out, c.fps[from:])
	return out
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
