// Package activity classifies the user's current interaction with the graph
// view. Exactly one Activity is current at any time.
package activity

import (
	"fmt"
	"strings"
)

type Activity int

const (
	Idle Activity = iota
	Panning
	Zooming
	Dragging
	Selecting
)

// All lists every activity in report order.
var All = [...]Activity{Idle, Panning, Zooming, Dragging, Selecting}

// Count is the number of activities.
const Count = len(All)

func (a Activity) String() string {
	switch a {
	case Idle:
		return "IDLE"
	case Panning:
		return "PANNING"
	case Zooming:
		return "ZOOMING"
	case Dragging:
		return "DRAGGING"
	case Selecting:
		return "SELECTING"
	}
	return fmt.Sprintf("Activity(%d)", int(a))
}

// Parse is the inverse of String. It is case-insensitive.
func Parse(s string) (Activity, bool) {
	for _, a := range All {
		if strings.EqualFold(a.String(), s) {
			return a, true
		}
	}
	return Idle, false
}

// Counters are monotonic interaction totals for a session.
type Counters struct {
	Pans         int `json:"pans"`
	Zooms        int `json:"zooms"`
	NodeClicks   int `json:"node_clicks"`
	DragSessions int `json:"drag_sessions"`
}

func (c Counters) Total() int {
	return c.Pans + c.Zooms + c.NodeClicks + c.DragSessions
}
