package activity

import "time"

const (
	// ZoomSettle is the quiet period after the last wheel event before the
	// machine returns to Idle.
	ZoomSettle = 300 * time.Millisecond
	// SelectSettle is how long a click stays in Selecting.
	SelectSettle = 150 * time.Millisecond
)

// Deferred is a revert-to-Idle the caller must schedule After from now and
// deliver back through Machine.Revert. A newer Deferred, or any event that
// changes the activity, cancels older ones: their tokens stop matching.
type Deferred struct {
	Token uint64
	After time.Duration
}

// Scheduled reports whether there is anything to schedule.
func (d Deferred) Scheduled() bool { return d.Token != 0 }

type gesture int

const (
	gestureNone gesture = iota
	gesturePan
	gestureNode
)

type MotionKind int

const (
	MotionNone MotionKind = iota
	MotionPan
	MotionNode
)

// Motion describes what a pointer move did. For MotionPan DX/DY are the
// screen-space camera shift; for MotionNode they are the graph-space node
// shift.
type Motion struct {
	Kind   MotionKind
	NodeID string
	DX, DY float64
}

// Release describes what a pointer release did.
type Release struct {
	// Clicked is set when a node press ended without movement and was
	// reclassified as a selection.
	Clicked bool
	NodeID  string
	Revert  Deferred
}

// Machine is the single-owner activity state. It is not safe for concurrent
// use; all calls are expected from one event loop.
type Machine struct {
	current  Activity
	counters Counters
	cam      Camera

	gesture      gesture
	lastX, lastY float64
	nodeID       string
	moved        bool

	pending   uint64
	lastToken uint64
}

func NewMachine() *Machine {
	return &Machine{cam: DefaultCamera()}
}

func (m *Machine) Current() Activity  { return m.current }
func (m *Machine) Counters() Counters { return m.counters }
func (m *Machine) Camera() Camera     { return m.cam }

func (m *Machine) ResetCamera() { m.cam = DefaultCamera() }

// BackgroundPress starts a pan. Presses that did not land on the background
// surface itself are ignored.
func (m *Machine) BackgroundPress(x, y float64, onBackground bool) bool {
	if !onBackground {
		return false
	}
	m.set(Panning)
	m.counters.Pans++
	m.gesture = gesturePan
	m.lastX, m.lastY = x, y
	return true
}

// NodePress enters Dragging right away, before it is known whether the
// pointer will move. A release without movement turns it into a click.
func (m *Machine) NodePress(id string, x, y float64) {
	m.set(Dragging)
	m.counters.DragSessions++
	m.gesture = gestureNode
	m.nodeID = id
	m.moved = false
	m.lastX, m.lastY = x, y
}

func (m *Machine) PointerMove(x, y float64) Motion {
	dx, dy := x-m.lastX, y-m.lastY
	switch m.gesture {
	case gesturePan:
		m.lastX, m.lastY = x, y
		m.cam.pan(dx, dy)
		return Motion{Kind: MotionPan, DX: dx, DY: dy}
	case gestureNode:
		m.lastX, m.lastY = x, y
		m.moved = true
		gx, gy := m.cam.ToGraph(dx, dy)
		return Motion{Kind: MotionNode, NodeID: m.nodeID, DX: gx, DY: gy}
	}
	return Motion{}
}

func (m *Machine) PointerUp() Release {
	g := m.gesture
	m.gesture = gestureNone
	switch g {
	case gesturePan:
		m.set(Idle)
	case gestureNode:
		id := m.nodeID
		m.nodeID = ""
		if m.moved {
			m.set(Idle)
			return Release{NodeID: id}
		}
		m.set(Selecting)
		m.counters.NodeClicks++
		return Release{Clicked: true, NodeID: id, Revert: m.schedule(SelectSettle)}
	}
	return Release{}
}

// Wheel zooms and enters Zooming. Each call supersedes the previous pending
// revert, so Idle only returns after ZoomSettle of wheel silence.
func (m *Machine) Wheel(deltaY float64) Deferred {
	m.set(Zooming)
	m.counters.Zooms++
	m.cam.zoom(deltaY)
	return m.schedule(ZoomSettle)
}

// Revert applies a deferred return to Idle if token is still the latest one
// issued. Stale tokens are ignored.
func (m *Machine) Revert(token uint64) bool {
	if token == 0 || token != m.pending {
		return false
	}
	m.pending = 0
	m.current = Idle
	return true
}

// set changes the current activity and cancels any pending revert.
func (m *Machine) set(a Activity) {
	m.pending = 0
	m.current = a
}

func (m *Machine) schedule(after time.Duration) Deferred {
	m.lastToken++
	m.pending = m.lastToken
	return Deferred{Token: m.pending, After: after}
}
