package session

import (
	"time"

	"github.com/keilerkonzept/topk"
	"github.com/keilerkonzept/topk/heap"
	"github.com/keilerkonzept/topk/sliding"
)

// HotNodeOptions sizes the sliding top-K sketch of pressed nodes.
type HotNodeOptions struct {
	K            int
	Window       time.Duration
	Tick         time.Duration
	Width        int
	Depth        int
	Decay        float64
	DecayLUTSize int
}

func DefaultHotNodeOptions() HotNodeOptions {
	return HotNodeOptions{
		K:            5,
		Window:       30 * time.Second,
		Tick:         time.Second,
		Width:        1024,
		Depth:        3,
		Decay:        0.9,
		DecayLUTSize: 8192,
	}
}

// HotNode is a frequently pressed node. History holds its press counts per
// tick over the window, oldest first.
type HotNode struct {
	ID      string   `json:"id"`
	Count   uint32   `json:"count"`
	History []uint32 `json:"history,omitempty"`
}

// hotNodes tracks which nodes were pressed most within the recent window.
// A nil *hotNodes is valid and tracks nothing.
type hotNodes struct {
	tick   time.Duration
	sketch *sliding.Sketch
	last   time.Time
}

func newHotNodes(o HotNodeOptions) *hotNodes {
	if o.K < 1 || o.Tick <= 0 || o.Window < o.Tick || o.DecayLUTSize < 1 {
		return nil
	}
	return &hotNodes{
		tick: o.Tick,
		sketch: sliding.New(o.K, int(o.Window/o.Tick),
			sliding.WithWidth(o.Width),
			sliding.WithDepth(o.Depth),
			sliding.WithDecay(float32(o.Decay)),
			sliding.WithDecayLUTSize(o.DecayLUTSize),
		),
	}
}

// advance moves the window forward by the whole ticks elapsed since the
// last call.
func (h *hotNodes) advance(now time.Time) {
	if h == nil {
		return
	}
	now = now.Truncate(h.tick)
	if h.last.IsZero() {
		h.last = now
		return
	}
	if ticks := int(now.Sub(h.last) / h.tick); ticks > 0 {
		h.sketch.Ticks(ticks)
		h.last = now
	}
}

func (h *hotNodes) observe(id string, now time.Time) {
	if h == nil {
		return
	}
	h.advance(now)
	h.sketch.Incr(id)
}

func (h *hotNodes) top() []HotNode {
	if h == nil {
		return nil
	}
	items := h.sketch.SortedSlice()
	out := make([]HotNode, 0, len(items))
	for _, it := range items {
		if it.Count == 0 {
			continue
		}
		out = append(out, HotNode{ID: it.Item, Count: it.Count, History: h.history(it)})
	}
	return out
}

// history reads the per-tick counts of item from the sketch buckets that
// still carry its fingerprint, taking the max across rows.
func (h *hotNodes) history(item heap.Item) []uint32 {
	s := h.sketch
	var rows []int
	for k := 0; k < s.Depth; k++ {
		idx := topk.BucketIndex(item.Item, k, s.Width)
		if b := s.Buckets[idx]; b.Fingerprint == item.Fingerprint && len(b.Counts) > 0 {
			rows = append(rows, idx)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	n := len(s.Buckets[rows[0]].Counts)
	series := make([]uint32, n)
	for j := 0; j < n; j++ {
		var c uint32
		for _, idx := range rows {
			b := s.Buckets[idx]
			c = max(c, b.Counts[(int(b.First)+j)%len(b.Counts)])
		}
		series[n-1-j] = c
	}
	return series
}
