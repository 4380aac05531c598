// Package session is the instrumentation coordinator. A Session owns the
// graph, the activity machine, every sample buffer and the interaction
// counters, and exposes explicit entry points for the input/render loop.
//
// A Session is not safe for concurrent use. All entry points must be called
// from one event loop; the interleaving of frames, timers and input events
// is whatever that loop delivers.
package session

import (
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/keilerkonzept/graphperf/internal/activity"
	"github.com/keilerkonzept/graphperf/internal/graph"
	"github.com/keilerkonzept/graphperf/internal/report"
	"github.com/keilerkonzept/graphperf/internal/sampler"
)

type Options struct {
	Nodes  int
	Edges  int
	Spread float64
	// Seed fixes the random topology. Zero picks a time based seed.
	Seed uint64
	// Memory may be nil when memory usage cannot be read.
	Memory       sampler.MemoryReader
	RecentWindow int
	HotNodes     HotNodeOptions
}

// Live is the at-any-time readout for display.
type Live struct {
	sampler.Live
	Camera    activity.Camera
	Counters  activity.Counters
	Nodes     int
	Edges     int
	OrderCost time.Duration
	HotNodes  []HotNode
	Ended     bool
}

type Session struct {
	log *logrus.Entry

	opts      Options
	store     *graph.Store
	order     graph.OrderCache
	machine   *activity.Machine
	collector *sampler.Collector
	hot       *hotNodes
	load      graph.LoadTimings

	start time.Time
	ended bool
	final report.Report
	text  string

	observers []func(Live)
	reporters []func(string)
}

func New(opts Options, log *logrus.Entry) *Session {
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	m := activity.NewMachine()
	return &Session{
		log:       log,
		opts:      opts,
		store:     graph.New(opts.Spread, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))),
		machine:   m,
		collector: sampler.New(m, opts.Memory, opts.RecentWindow),
		hot:       newHotNodes(opts.HotNodes),
	}
}

// Start opens the session: it generates the topology, computes the initial
// order and starts both sampling cadences.
func (s *Session) Start(now time.Time) {
	s.start = now
	s.collector.Start(now)
	if s.opts.Memory == nil {
		s.log.Debug("Memory reader unavailable, memory sampling disabled.")
	}

	s.load = graph.Generate(s.store, s.opts.Nodes, s.opts.Edges)
	s.log.WithFields(logrus.Fields{
		"nodes":     s.store.Len(),
		"edges":     len(s.store.Edges()),
		"query":     s.load.Query,
		"transform": s.load.Transform,
	}).Debug("Topology generated.")

	s.refreshOrder()
	s.notify()
}

// refreshOrder recomputes the order after a mutation and books the compute
// time as a render sample of the current activity.
func (s *Session) refreshOrder() {
	_, didFull := s.order.Refresh(s.store)
	if !didFull {
		return
	}
	s.collector.RecordRender(s.order.LastCost())
	s.log.WithFields(logrus.Fields{
		"nodes": s.store.Len(),
		"cost":  s.order.LastCost(),
	}).Debug("Topological order recomputed.")
}

// BackgroundPress starts a pan when the press hit the background surface.
func (s *Session) BackgroundPress(x, y float64, onBackground bool) {
	if s.ended {
		return
	}
	if s.machine.BackgroundPress(x, y, onBackground) {
		s.notify()
	}
}

func (s *Session) NodePress(id string, x, y float64, now time.Time) {
	if s.ended {
		return
	}
	s.machine.NodePress(id, x, y)
	s.hot.observe(id, now)
	s.notify()
}

func (s *Session) PointerMove(x, y float64, now time.Time) {
	if s.ended {
		return
	}
	mo := s.machine.PointerMove(x, y)
	switch mo.Kind {
	case activity.MotionPan:
		s.collector.BeginRender(now)
	case activity.MotionNode:
		s.store.MoveNode(mo.NodeID, mo.DX, mo.DY)
		s.collector.BeginRender(now)
	default:
		return
	}
	s.notify()
}

// PointerUp ends the current gesture. The returned Deferred, when
// scheduled, must be delivered back through Revert.
func (s *Session) PointerUp(now time.Time) activity.Deferred {
	if s.ended {
		return activity.Deferred{}
	}
	rel := s.machine.PointerUp()
	if rel.Clicked {
		s.collector.BeginRender(now)
	}
	s.notify()
	return rel.Revert
}

// Wheel zooms. The returned Deferred must be delivered back through Revert.
func (s *Session) Wheel(deltaY float64, now time.Time) activity.Deferred {
	if s.ended {
		return activity.Deferred{}
	}
	d := s.machine.Wheel(deltaY)
	s.collector.BeginRender(now)
	s.notify()
	return d
}

func (s *Session) Revert(token uint64) {
	if s.ended {
		return
	}
	if s.machine.Revert(token) {
		s.notify()
	}
}

func (s *Session) Frame(now time.Time) {
	if s.ended {
		return
	}
	s.collector.Frame(now)
	s.notify()
}

func (s *Session) MemoryTick(now time.Time) {
	if s.ended {
		return
	}
	s.collector.MemoryTick(now)
	s.hot.advance(now)
	s.notify()
}

// AddNode appends a node linked to a random node of the current order and
// recomputes the order.
func (s *Session) AddNode(now time.Time) string {
	if s.ended {
		return ""
	}
	target := "1"
	if order, _ := s.order.Refresh(s.store); len(order) > 0 {
		target = order[s.store.Intn(len(order))]
	}
	id := s.store.AddNode()
	s.store.AddEdge(id, target)
	s.refreshOrder()
	s.collector.BeginRender(now)
	s.notify()
	return id
}

func (s *Session) ResetView() {
	s.machine.ResetCamera()
	s.notify()
}

// Order returns the topological order of the current topology. Callers must
// not modify it.
func (s *Session) Order() []string {
	order, _ := s.order.Refresh(s.store)
	return order
}

// Graph exposes the store for drawing. Callers must treat it as read-only
// apart from what the Session itself does.
func (s *Session) Graph() *graph.Store { return s.store }

func (s *Session) Current() activity.Activity { return s.machine.Current() }

func (s *Session) Ended() bool { return s.ended }

// FPSHistory returns up to n recent fps samples for plotting.
func (s *Session) FPSHistory(n int) []float64 { return s.collector.FPSHistory(n) }

func (s *Session) Snapshot() Live {
	return Live{
		Live:      s.collector.Live(),
		Camera:    s.machine.Camera(),
		Counters:  s.machine.Counters(),
		Nodes:     s.store.Len(),
		Edges:     len(s.store.Edges()),
		OrderCost: s.order.LastCost(),
		HotNodes:  s.hot.top(),
		Ended:     s.ended,
	}
}

// Subscribe registers fn to be called with a fresh snapshot after every
// state change.
func (s *Session) Subscribe(fn func(Live)) {
	s.observers = append(s.observers, fn)
}

// OnReport registers fn to receive the final report text once.
func (s *Session) OnReport(fn func(string)) {
	s.reporters = append(s.reporters, fn)
}

func (s *Session) notify() {
	if len(s.observers) == 0 {
		return
	}
	live := s.Snapshot()
	for _, fn := range s.observers {
		fn(live)
	}
}

// EndSession stops both sampling cadences, builds the report and hands it
// to report subscribers. Later calls return the same text and change
// nothing.
func (s *Session) EndSession(now time.Time) string {
	if s.ended {
		return s.text
	}
	s.ended = true
	s.collector.Stop()

	s.final = report.Build(report.Input{
		Duration:  now.Sub(s.start),
		NodeCount: s.store.Len(),
		Load:      s.load,
		Samples:   s.collector.Data(),
		Counters:  s.machine.Counters(),
	})
	s.text = s.final.String()

	s.log.WithFields(logrus.Fields{
		"duration":    now.Sub(s.start),
		"fps_samples": s.final.Frames.Samples,
		"verdicts":    len(s.final.Verdicts),
	}).Info("Session ended.")

	for _, fn := range s.reporters {
		fn(s.text)
	}
	s.notify()
	return s.text
}

// Teardown flushes the report if the session was never ended explicitly.
func (s *Session) Teardown(now time.Time) string {
	if !s.ended {
		s.log.Debug("Teardown before explicit end, flushing report.")
	}
	return s.EndSession(now)
}

// Report returns the structured report once the session has ended.
func (s *Session) Report() (report.Report, bool) {
	return s.final, s.ended
}
