package replay

import (
	"container/heap"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/keilerkonzept/graphperf/internal/activity"
	"github.com/keilerkonzept/graphperf/internal/report"
	"github.com/keilerkonzept/graphperf/internal/sampler"
	"github.com/keilerkonzept/graphperf/internal/session"
)

// Epoch is the virtual wall time a replay starts at.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type taskKind int

const (
	taskFrame taskKind = iota
	taskMemory
	taskRevert
	taskEvent
	taskEnd
)

type task struct {
	at    time.Duration
	seq   uint64
	kind  taskKind
	token uint64
	event Event
}

// queue orders tasks by due time, then by scheduling order.
type queue []task

func (q queue) Len() int { return len(q) }
func (q queue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}
func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *queue) Push(x any) { *q = append(*q, x.(task)) }
func (q *queue) Pop() any {
	old := *q
	t := old[len(old)-1]
	*q = old[:len(old)-1]
	return t
}

// Result is the outcome of a replay.
type Result struct {
	Report  report.Report
	Text    string
	Live    session.Live
	Order   []string
	Elapsed time.Duration
	// Frames is the number of frame callbacks delivered.
	Frames int
}

type runner struct {
	sc   *Scenario
	s    *session.Session
	q    queue
	seq  uint64
	now  time.Duration
	done bool

	// frameClock is the due time of the next frame in fractional
	// nanoseconds, so rounding does not drift across frames.
	frameClock float64
	frames     int
}

// Options tunes the session a scenario runs against.
type Options struct {
	RecentWindow   int
	HotNodes       session.HotNodeOptions
	MemoryInterval time.Duration
}

// Run replays sc to completion on a virtual clock. Frames, memory ticks,
// deferred reverts and scripted events are delivered in due-time order;
// ties run in the order they were scheduled.
func Run(sc *Scenario, opts Options, log *logrus.Entry) (Result, error) {
	if err := sc.validate(); err != nil {
		return Result{}, err
	}
	if opts.MemoryInterval <= 0 {
		opts.MemoryInterval = time.Second
	}

	var mem sampler.MemoryReader
	if len(sc.MemoryMB) > 0 {
		i := 0
		mem = sampler.MemoryFunc(func() float64 {
			v := sc.MemoryMB[i%len(sc.MemoryMB)]
			i++
			return v
		})
	}

	r := &runner{
		sc: sc,
		s: session.New(session.Options{
			Nodes:        sc.Nodes,
			Edges:        sc.Edges,
			Spread:       sc.Spread,
			Seed:         max(sc.Seed, 1),
			Memory:       mem,
			RecentWindow: opts.RecentWindow,
			HotNodes:     opts.HotNodes,
		}, log),
	}
	log.WithFields(logrus.Fields{
		"scenario": sc.Name,
		"events":   len(sc.Events),
		"duration": sc.Duration,
	}).Info("Replaying scenario.")

	r.s.Start(Epoch)
	r.nextFrame(activity.Idle)
	r.push(task{at: opts.MemoryInterval, kind: taskMemory})
	for _, ev := range sc.expand() {
		r.push(task{at: ev.At, kind: taskEvent, event: ev})
	}
	r.push(task{at: sc.Duration, kind: taskEnd})

	for !r.done && r.q.Len() > 0 {
		t := heap.Pop(&r.q).(task)
		r.now = t.at
		r.step(t, opts.MemoryInterval)
	}

	text := r.s.EndSession(r.wall())
	rep, _ := r.s.Report()
	return Result{
		Report:  rep,
		Text:    text,
		Live:    r.s.Snapshot(),
		Order:   r.s.Order(),
		Elapsed: r.now,
		Frames:  r.frames,
	}, nil
}

func (r *runner) wall() time.Time { return Epoch.Add(r.now) }

func (r *runner) push(t task) {
	r.seq++
	t.seq = r.seq
	heap.Push(&r.q, t)
}

// nextFrame schedules the frame after the current one at the refresh rate
// of a.
func (r *runner) nextFrame(a activity.Activity) {
	r.frameClock += r.sc.frameStep(a)
	r.push(task{at: time.Duration(math.Round(r.frameClock)), kind: taskFrame})
}

func (r *runner) scheduleRevert(d activity.Deferred) {
	if d.Scheduled() {
		r.push(task{at: r.now + d.After, kind: taskRevert, token: d.Token})
	}
}

func (r *runner) step(t task, memoryInterval time.Duration) {
	now := r.wall()
	switch t.kind {
	case taskFrame:
		r.s.Frame(now)
		r.frames++
		r.nextFrame(r.s.Current())
	case taskMemory:
		r.s.MemoryTick(now)
		r.push(task{at: r.now + memoryInterval, kind: taskMemory})
	case taskRevert:
		r.s.Revert(t.token)
	case taskEvent:
		r.apply(t.event, now)
	case taskEnd:
		r.end(now)
	}
}

func (r *runner) apply(ev Event, now time.Time) {
	switch ev.Type {
	case EventPress:
		r.s.BackgroundPress(ev.X, ev.Y, true)
	case EventNodePress:
		r.s.NodePress(ev.Node, ev.X, ev.Y, now)
	case EventMove:
		r.s.PointerMove(ev.X, ev.Y, now)
	case EventRelease:
		r.scheduleRevert(r.s.PointerUp(now))
	case EventWheel:
		r.scheduleRevert(r.s.Wheel(ev.Delta, now))
	case EventAddNode:
		r.s.AddNode(now)
	case EventResetView:
		r.s.ResetView()
	case EventEnd:
		r.end(now)
	}
}

func (r *runner) end(now time.Time) {
	r.s.EndSession(now)
	r.done = true
}
