// Package report turns a finished session's samples into statistics,
// verdicts and the fixed-layout text report.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/keilerkonzept/graphperf/internal/activity"
	"github.com/keilerkonzept/graphperf/internal/graph"
	"github.com/keilerkonzept/graphperf/internal/sampler"
)

const (
	// baselineFPS is the refresh rate frame drops are measured against.
	baselineFPS = 60.0

	excellentFPS        = 50.0
	excellentMaxDrops   = 5.0
	acceptableFPS       = 30.0
	memoryEfficientMB   = 80.0
	idleConcernFPS      = 40.0
	zoomConcernFPS      = 30.0
	highDropPercent     = 15.0
	moderateDropPercent = 7.0
)

const (
	VerdictExcellent       = "EXCELLENT - Suitable for production use"
	VerdictAcceptable      = "ACCEPTABLE - May need optimization for some users"
	VerdictPoor            = "POOR - Optimization required"
	VerdictMemoryEfficient = "MEMORY EFFICIENT - Low memory footprint"
	VerdictIdleConcern     = "IDLE PERFORMANCE - Consider reducing background processing"
	VerdictZoomConcern     = "ZOOM PERFORMANCE - Consider level-of-detail rendering"
)

const rule = "============================================================"

// Input is everything a report is computed from.
type Input struct {
	Duration  time.Duration
	NodeCount int
	Load      graph.LoadTimings
	Samples   sampler.Data
	Counters  activity.Counters
}

type FrameStats struct {
	Avg          float64 `json:"avg"`
	Median       float64 `json:"median"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Samples      int     `json:"samples"`
	DropPercent  float64 `json:"drop_percent"`
	AvgFrameTime float64 `json:"avg_frame_time_ms"`
	Excellent    float64 `json:"excellent_percent"`
	Good         float64 `json:"good_percent"`
	Poor         float64 `json:"poor_percent"`
}

type MemoryStats struct {
	Avg    float64 `json:"avg_mb"`
	Peak   float64 `json:"peak_mb"`
	Min    float64 `json:"min_mb"`
	Growth float64 `json:"growth_mb"`
}

type RenderStats struct {
	Avg     float64 `json:"avg_ms"`
	Max     float64 `json:"max_ms"`
	Samples int     `json:"samples"`
}

type ActivityStats struct {
	Activity  string  `json:"activity"`
	Samples   int     `json:"samples"`
	AvgFPS    float64 `json:"avg_fps"`
	MinFPS    float64 `json:"min_fps"`
	MaxFPS    float64 `json:"max_fps"`
	AvgMemory float64 `json:"avg_memory_mb"`
	AvgRender float64 `json:"avg_render_ms"`
}

type Interactions struct {
	activity.Counters
	Total     int     `json:"total"`
	PerMinute float64 `json:"per_minute"`
}

// Report is the immutable result of a session.
type Report struct {
	DurationSeconds float64         `json:"duration_seconds"`
	NodeCount       int             `json:"node_count"`
	QueryMs         float64         `json:"query_ms"`
	TransformMs     float64         `json:"transform_ms"`
	LoadMs          float64         `json:"load_ms"`
	Frames          FrameStats      `json:"frames"`
	Memory          MemoryStats     `json:"memory"`
	Render          RenderStats     `json:"render"`
	Interactions    Interactions    `json:"interactions"`
	Activities      []ActivityStats `json:"activities"`
	Verdicts        []string        `json:"verdicts"`
}

// Build computes every statistic and verdict.
func Build(in Input) Report {
	d := in.Samples
	r := Report{
		DurationSeconds: in.Duration.Seconds(),
		NodeCount:       in.NodeCount,
		QueryMs:         toMs(in.Load.Query),
		TransformMs:     toMs(in.Load.Transform),
		LoadMs:          toMs(in.Load.Total),
	}

	drops := make([]float64, len(d.FPS))
	for i, f := range d.FPS {
		drops[i] = max(0, 1-f/baselineFPS)
	}
	r.Frames = FrameStats{
		Avg:          avg(d.FPS),
		Median:       median(d.FPS),
		Min:          minOf(d.FPS),
		Max:          maxOf(d.FPS),
		Samples:      len(d.FPS),
		DropPercent:  avg(drops) * 100,
		AvgFrameTime: avg(d.FrameTimes),
		Excellent:    share(d.FPS, func(f float64) bool { return f >= 60 }),
		Good:         share(d.FPS, func(f float64) bool { return f >= 30 && f < 60 }),
		Poor:         share(d.FPS, func(f float64) bool { return f < 30 }),
	}

	r.Memory = MemoryStats{
		Avg:  avg(d.Memory),
		Peak: maxOf(d.Memory),
		Min:  minOf(d.Memory),
	}
	r.Memory.Growth = r.Memory.Peak - r.Memory.Min

	r.Render = RenderStats{
		Avg:     d.Render.Avg(),
		Max:     d.Render.Max,
		Samples: d.Render.Count,
	}

	r.Interactions = Interactions{Counters: in.Counters, Total: in.Counters.Total()}
	if minutes := in.Duration.Minutes(); minutes > 0 {
		r.Interactions.PerMinute = float64(r.Interactions.Total) / minutes
	}

	for _, a := range activity.All {
		b := d.Buckets[a]
		st := ActivityStats{
			Activity:  a.String(),
			Samples:   len(b.FPS),
			AvgFPS:    avg(b.FPS),
			MinFPS:    minOf(b.FPS),
			MaxFPS:    maxOf(b.FPS),
			AvgMemory: r.Memory.Avg,
			AvgRender: r.Render.Avg,
		}
		if len(b.Mem) > 0 {
			st.AvgMemory = avg(b.Mem)
		}
		if len(b.Render) > 0 {
			st.AvgRender = avg(b.Render)
		}
		r.Activities = append(r.Activities, st)
	}
	r.Verdicts = r.verdicts()
	return r
}

func (r Report) verdicts() []string {
	var v []string
	switch {
	case r.Frames.Avg >= excellentFPS && r.Frames.DropPercent < excellentMaxDrops:
		v = append(v, VerdictExcellent)
	case r.Frames.Avg >= acceptableFPS:
		v = append(v, VerdictAcceptable)
	default:
		v = append(v, VerdictPoor)
	}
	if r.Memory.Peak <= memoryEfficientMB {
		v = append(v, VerdictMemoryEfficient)
	}
	if r.Frames.Avg < idleConcernFPS {
		v = append(v, VerdictIdleConcern)
	}
	if z := r.Activities[activity.Zooming]; z.Samples > 0 && z.AvgFPS < zoomConcernFPS {
		v = append(v, VerdictZoomConcern)
	}
	return v
}

func (r Report) dropSeverity() string {
	switch {
	case r.Frames.DropPercent > highDropPercent:
		return "HIGH FRAME DROPS - Severe performance issues detected"
	case r.Frames.DropPercent > moderateDropPercent:
		return "MODERATE FRAME DROPS - Noticeable performance impact"
	}
	return "LOW FRAME DROPS - Minor performance impact"
}

func activityLine(s ActivityStats) string {
	fps := "No data collected"
	if s.Samples > 0 {
		fps = fmt.Sprintf("%s FPS (%s-%s)", fmt2(s.AvgFPS), fmt2(s.MinFPS), fmt2(s.MaxFPS))
	}
	return fmt.Sprintf("  %-8s: %s | %d samples | Avg Memory: %sMB | Avg Render: %sms",
		s.Activity, fps, s.Samples, fmt2(s.AvgMemory), fmt2(s.AvgRender))
}

// String renders the text report. Section order and labels are stable.
func (r Report) String() string {
	f := r.Frames
	in := r.Interactions
	lines := []string{
		rule,
		"PERFORMANCE REPORT",
		rule,
		"Session Duration: " + fmt2(r.DurationSeconds) + "s",
		"Node Count: " + humanize.Comma(int64(r.NodeCount)),
		"",
		"DATABASE PERFORMANCE:",
		"  Query Time: " + fmt2(r.QueryMs) + "ms",
		"  Transform Time: " + fmt2(r.TransformMs) + "ms",
		"  Total Load Time: " + fmt2(r.LoadMs) + "ms",
		"",
		"FRAME RATE ANALYSIS:",
		"  Average FPS: " + fmt2(f.Avg),
		"  Median FPS: " + fmt2(f.Median),
		"  Min FPS: " + fmt2(f.Min),
		"  Max FPS: " + fmt2(f.Max),
		fmt.Sprintf("  Samples Collected: %d", f.Samples),
		"  Average Frame Drops: " + fmt2(f.DropPercent) + "%",
		"  Average Render Time: " + fmt2(f.AvgFrameTime) + "ms",
		"  Excellent (≥60 FPS): " + fmt2(f.Excellent) + "%",
		"  Good (30-59 FPS): " + fmt2(f.Good) + "%",
		"  Poor (<30 FPS): " + fmt2(f.Poor) + "%",
		"  " + r.dropSeverity(),
		"",
		"MEMORY USAGE ANALYSIS:",
		"  Average Memory: " + fmt2(r.Memory.Avg) + "MB",
		"  Peak Memory: " + fmt2(r.Memory.Peak) + "MB",
		"  Min Memory: " + fmt2(r.Memory.Min) + "MB",
		"  Memory Growth: " + fmt2(r.Memory.Growth) + "MB",
		"",
		"RENDER PERFORMANCE:",
		"  Average Render Time: " + fmt2(r.Render.Avg) + "ms",
		"  Max Render Time: " + fmt2(r.Render.Max) + "ms",
		fmt.Sprintf("  Render Samples: %d", r.Render.Samples),
		"",
		"USER INTERACTIONS:",
		fmt.Sprintf("  Pan Operations: %d", in.Pans),
		fmt.Sprintf("  Zoom Operations: %d", in.Zooms),
		fmt.Sprintf("  Node Clicks: %d", in.NodeClicks),
		fmt.Sprintf("  Node Drag Sessions: %d", in.DragSessions),
		fmt.Sprintf("  Total Interactions: %d", in.Total),
		"  Interactions/Minute: " + fmt2(in.PerMinute),
		"",
		"PERFORMANCE BY ACTIVITY:",
	}
	for _, a := range r.Activities {
		lines = append(lines, activityLine(a))
	}
	lines = append(lines, "", "PERFORMANCE VERDICT:")
	for _, v := range r.Verdicts {
		lines = append(lines, "  "+v)
	}
	lines = append(lines, rule)
	return strings.Join(lines, "\n")
}

func toMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
