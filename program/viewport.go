package main

import (
	"math"
	"strings"

	styles "github.com/charmbracelet/lipgloss"

	"github.com/keilerkonzept/graphperf/internal/activity"
	"github.com/keilerkonzept/graphperf/internal/graph"
)

// A terminal cell stands for cellW x cellH pixels, so camera offsets and
// pointer deltas keep pixel semantics.
const (
	cellW = 8.0
	cellH = 16.0
)

type cellKind byte

const (
	cellEmpty cellKind = iota
	cellNode
	cellHot
	cellActive
)

// viewport is the terminal area the graph is drawn into.
type viewport struct {
	x0, y0 int // screen cell of the top-left corner
	w, h   int
}

func (v viewport) contains(col, row int) bool {
	return col >= v.x0 && col < v.x0+v.w && row >= v.y0 && row < v.y0+v.h
}

// toPixels converts a screen cell into surface pixel coordinates.
func (v viewport) toPixels(col, row int) (float64, float64) {
	return float64(col-v.x0) * cellW, float64(row-v.y0) * cellH
}

// project returns the surface cell a node is drawn in.
func project(cam activity.Camera, n graph.Node) (col, row int) {
	px := n.X*cam.Scale + cam.X
	py := n.Y*cam.Scale + cam.Y
	return int(math.Floor(px / cellW)), int(math.Floor(py / cellH))
}

// hitTest returns the node drawn in the given screen cell. When several
// share the cell the one closest to its center wins.
func hitTest(nodes []graph.Node, cam activity.Camera, v viewport, col, row int) (string, bool) {
	if !v.contains(col, row) {
		return "", false
	}
	c, r := col-v.x0, row-v.y0
	cx, cy := (float64(c)+0.5)*cellW, (float64(r)+0.5)*cellH

	best, bestDist := "", math.Inf(1)
	for _, n := range nodes {
		nc, nr := project(cam, n)
		if nc != c || nr != r {
			continue
		}
		dx := n.X*cam.Scale + cam.X - cx
		dy := n.Y*cam.Scale + cam.Y - cy
		if d := dx*dx + dy*dy; d < bestDist {
			best, bestDist = n.ID, d
		}
	}
	return best, best != ""
}

var (
	nodeFg   = styles.NewStyle().Foreground(borderColor)
	hotFg    = styles.NewStyle().Foreground(hotColor)
	activeFg = styles.NewStyle().Foreground(selectedColor).Bold(true)
)

// renderGraph draws every node that falls into the viewport. hot marks
// nodes to highlight and active the node under the pointer, if any.
func renderGraph(nodes []graph.Node, cam activity.Camera, v viewport, hot map[string]bool, active string) string {
	if v.w <= 0 || v.h <= 0 {
		return ""
	}
	grid := make([]cellKind, v.w*v.h)
	for _, n := range nodes {
		c, r := project(cam, n)
		if c < 0 || c >= v.w || r < 0 || r >= v.h {
			continue
		}
		k := cellNode
		switch {
		case n.ID == active:
			k = cellActive
		case hot[n.ID]:
			k = cellHot
		}
		grid[r*v.w+c] = max(grid[r*v.w+c], k)
	}

	var b strings.Builder
	for r := range v.h {
		if r > 0 {
			b.WriteByte('\n')
		}
		row := grid[r*v.w : (r+1)*v.w]
		for start := 0; start < len(row); {
			end := start + 1
			for end < len(row) && row[end] == row[start] {
				end++
			}
			b.WriteString(renderRun(row[start], end-start))
			start = end
		}
	}
	return b.String()
}

func renderRun(k cellKind, n int) string {
	switch k {
	case cellNode:
		return nodeFg.Render(strings.Repeat("•", n))
	case cellHot:
		return hotFg.Render(strings.Repeat("●", n))
	case cellActive:
		return activeFg.Render(strings.Repeat("◉", n))
	}
	return strings.Repeat(" ", n)
}

func computePaneWidths(totalWidth int, splitPercent int) (left, right int) {
	if totalWidth <= 1 {
		return 1, 1
	}
	left = totalWidth * splitPercent / 100
	left = min(max(left, 1), totalWidth-1)
	right = totalWidth - left

	// Keep panes readable when the terminal is wide enough.
	const minPane = 30
	if totalWidth >= minPane*2 {
		if left < minPane {
			left = minPane
			right = totalWidth - left
		}
		if right < minPane {
			right = minPane
			left = totalWidth - right
		}
	}
	return max(left, 1), max(right, 1)
}
