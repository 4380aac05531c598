// Package replay drives a session from a scripted scenario on a virtual
// clock, so a whole interaction session can be reproduced without a
// terminal.
package replay

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/keilerkonzept/graphperf/internal/activity"
)

// Event types. Presses and moves use X and Y, wheel uses Delta and
// node_press also names the Node.
const (
	EventPress     = "press"
	EventNodePress = "node_press"
	EventMove      = "move"
	EventRelease   = "release"
	EventWheel     = "wheel"
	EventAddNode   = "add_node"
	EventResetView = "reset_view"
	EventEnd       = "end"
)

var eventTypes = []string{
	EventPress, EventNodePress, EventMove, EventRelease,
	EventWheel, EventAddNode, EventResetView, EventEnd,
}

type Event struct {
	At    time.Duration `yaml:"at"`
	Type  string        `yaml:"type"`
	X     float64       `yaml:"x"`
	Y     float64       `yaml:"y"`
	Delta float64       `yaml:"delta"`
	Node  string        `yaml:"node"`

	// Repeat fires the event this many extra times, Every apart. StepX and
	// StepY are added to X and Y on every repetition.
	Repeat int           `yaml:"repeat"`
	Every  time.Duration `yaml:"every"`
	StepX  float64       `yaml:"step_x"`
	StepY  float64       `yaml:"step_y"`
}

// Scenario describes one scripted session.
type Scenario struct {
	Name   string  `yaml:"name"`
	Nodes  int     `yaml:"nodes"`
	Edges  int     `yaml:"edges"`
	Spread float64 `yaml:"spread"`
	Seed   uint64  `yaml:"seed"`

	// FPS is the display refresh rate. FPSByActivity overrides it while an
	// activity is current, keyed by activity name.
	FPS           float64            `yaml:"fps"`
	FPSByActivity map[string]float64 `yaml:"fps_by_activity"`

	// MemoryMB is replayed in a loop, one value per reading. Empty disables
	// memory sampling.
	MemoryMB []float64 `yaml:"memory_mb"`

	Duration time.Duration `yaml:"duration"`
	Events   []Event       `yaml:"events"`

	fpsBy [activity.Count]float64
}

// LoadScenario reads and validates the scenario file at path.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	sc, err := ParseScenario(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return sc, nil
}

// ParseScenario decodes a YAML scenario, fills defaults and validates it.
func ParseScenario(r io.Reader) (*Scenario, error) {
	sc := &Scenario{Spread: 20000, FPS: 60}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(sc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

func (sc *Scenario) validate() error {
	if sc.Nodes < 0 || sc.Edges < 0 {
		return fmt.Errorf("nodes and edges must be >= 0")
	}
	if sc.Spread <= 0 {
		return fmt.Errorf("spread must be > 0")
	}
	if sc.FPS <= 0 {
		return fmt.Errorf("fps must be > 0")
	}
	if sc.Duration <= 0 {
		return fmt.Errorf("duration must be > 0")
	}
	for _, a := range activity.All {
		sc.fpsBy[a] = sc.FPS
	}
	for name, fps := range sc.FPSByActivity {
		a, ok := activity.Parse(name)
		if !ok {
			return fmt.Errorf("fps_by_activity: unknown activity %q", name)
		}
		if fps <= 0 {
			return fmt.Errorf("fps_by_activity[%s] must be > 0", name)
		}
		sc.fpsBy[a] = fps
	}
	for i, ev := range sc.Events {
		if !slices.Contains(eventTypes, ev.Type) {
			return fmt.Errorf("events[%d]: unknown type %q", i, ev.Type)
		}
		if ev.At < 0 {
			return fmt.Errorf("events[%d]: at must be >= 0", i)
		}
		if ev.Type == EventNodePress && ev.Node == "" {
			return fmt.Errorf("events[%d]: node_press needs a node", i)
		}
		if ev.Repeat < 0 || (ev.Repeat > 0 && ev.Every <= 0) {
			return fmt.Errorf("events[%d]: repeat needs every > 0", i)
		}
	}
	return nil
}

// frameStep is the virtual time between frames while a is current, in
// nanoseconds.
func (sc *Scenario) frameStep(a activity.Activity) float64 {
	return float64(time.Second) / sc.fpsBy[a]
}

// expand flattens repeated events into single occurrences.
func (sc *Scenario) expand() []Event {
	var out []Event
	for _, ev := range sc.Events {
		for i := 0; i <= ev.Repeat; i++ {
			e := ev
			e.At = ev.At + time.Duration(i)*ev.Every
			e.X = ev.X + float64(i)*ev.StepX
			e.Y = ev.Y + float64(i)*ev.StepY
			e.Repeat = 0
			out = append(out, e)
		}
	}
	return out
}
