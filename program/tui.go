package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tui "github.com/charmbracelet/bubbletea"
	styles "github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
	plot "github.com/chriskim06/drawille-go"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/keilerkonzept/graphperf/internal/activity"
	"github.com/keilerkonzept/graphperf/internal/config"
	"github.com/keilerkonzept/graphperf/internal/logging"
	"github.com/keilerkonzept/graphperf/internal/session"
)

const (
	viewSplit = 65
	// wheelDelta is the wheel delta of one wheel notch.
	wheelDelta = 100.0
	// baselineFPS is drawn as a reference line under the fps plot.
	baselineFPS = 60.0
)

var (
	selectedColor = styles.AdaptiveColor{Light: "0", Dark: "9"}
	borderColor   = styles.AdaptiveColor{Light: "#555", Dark: "#555"}
	hotColor      = styles.AdaptiveColor{Light: "4", Dark: "11"}
	selectedFg    = styles.NewStyle().Foreground(selectedColor)
	borderFg      = styles.NewStyle().Foreground(borderColor)
	paneStyle     = styles.NewStyle().
			BorderStyle(styles.NormalBorder()).
			BorderForeground(borderColor)
)

var errNoTerminal = errors.New("the interactive view needs a terminal; use 'graphperf replay' for scripted sessions")

func (a *app) runTUI(cmd *cobra.Command, _ []string) error {
	if !term.IsTerminal(os.Stdout.Fd()) {
		return errNoTerminal
	}
	log := logging.NewLogger("tui")

	s := session.New(a.sessionOptions(), logging.NewLogger("session"))
	m := newModel(s, a.cfg)
	s.Start(time.Now())

	opts := []tui.ProgramOption{tui.WithMouseCellMotion()}
	if a.cfg.AltScreen {
		opts = append(opts, tui.WithAltScreen())
	}
	if _, err := tui.NewProgram(m, opts...).Run(); err != nil {
		return fmt.Errorf("run interface: %w", err)
	}

	text := s.Teardown(time.Now())
	r, _ := s.Report()
	log.WithFields(logrus.Fields{
		"nodes": r.NodeCount,
		"fps":   r.Frames.Avg,
	}).Info("Interface closed.")

	fmt.Fprintln(cmd.OutOrStdout(), text)
	reportOut, _ := cmd.Flags().GetString("report-out")
	summaryOut, _ := cmd.Flags().GetString("summary-out")
	return writeReports(r, text, reportOut, summaryOut)
}

type frameMsg time.Time

func frameTick(fps int) tui.Cmd {
	return tui.Tick(time.Second/time.Duration(fps), func(t time.Time) tui.Msg {
		return frameMsg(t)
	})
}

type memoryMsg time.Time

func memoryTick(interval time.Duration) tui.Cmd {
	return tui.Every(interval, func(t time.Time) tui.Msg {
		return memoryMsg(t)
	})
}

type plotMsg time.Time

func plotTick(fps int) tui.Cmd {
	return tui.Every(time.Second/time.Duration(fps), func(t time.Time) tui.Msg {
		return plotMsg(t)
	})
}

type revertMsg struct{ token uint64 }

// revertAfter delivers a deferred revert back to the session once due.
func revertAfter(d activity.Deferred) tui.Cmd {
	if !d.Scheduled() {
		return nil
	}
	return tui.Tick(d.After, func(time.Time) tui.Msg {
		return revertMsg{token: d.Token}
	})
}

type model struct {
	cfg config.Config
	s   *session.Session
	log *logrus.Entry

	width, height  int
	leftPaneWidth  int
	rightPaneWidth int
	graph          viewport

	live       session.Live
	report     string
	activeNode string

	help     help.Model
	plot     *plot.Canvas
	plotData [][]float64
}

func newModel(s *session.Session, cfg config.Config) *model {
	const (
		defaultWidth  = 80
		defaultHeight = 20
	)

	p := plot.NewCanvas(defaultWidth/3, defaultHeight/2)
	p.NumDataPoints = cfg.PlotPoints
	p.ShowAxis = false
	p.LineColors = plotColors()

	m := &model{
		cfg:      cfg,
		s:        s,
		log:      logging.NewLogger("tui"),
		help:     help.New(),
		plot:     &p,
		plotData: [][]float64{make([]float64, cfg.PlotPoints), make([]float64, cfg.PlotPoints)},
	}
	m.layout(defaultWidth, defaultHeight)
	s.Subscribe(func(l session.Live) { m.live = l })
	s.OnReport(func(text string) { m.report = text })
	return m
}

func plotColors() []plot.Color {
	if styles.DefaultRenderer().HasDarkBackground() {
		return []plot.Color{plot.DimGray, plot.Red}
	}
	return []plot.Color{plot.LightGray, plot.Black}
}

func (m *model) Init() tui.Cmd {
	return tui.Batch(
		frameTick(m.cfg.RefreshFPS),
		memoryTick(m.cfg.MemoryInterval),
		plotTick(m.cfg.PlotFPS),
	)
}

func (m *model) Update(msg tui.Msg) (tui.Model, tui.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		if m.s.Ended() {
			return m, nil
		}
		m.s.Frame(time.Time(msg))
		return m, frameTick(m.cfg.RefreshFPS)
	case memoryMsg:
		if m.s.Ended() {
			return m, nil
		}
		m.s.MemoryTick(time.Time(msg))
		return m, memoryTick(m.cfg.MemoryInterval)
	case plotMsg:
		m.updatePlot()
		if m.s.Ended() {
			return m, nil
		}
		return m, plotTick(m.cfg.PlotFPS)
	case revertMsg:
		m.s.Revert(msg.token)
		return m, nil
	case tui.WindowSizeMsg:
		m.layout(msg.Width, msg.Height)
		return m, nil
	case tui.MouseMsg:
		return m, m.handleMouse(msg, time.Now())
	case tui.KeyMsg:
		now := time.Now()
		switch {
		case key.Matches(msg, keys.Quit):
			m.s.Teardown(now)
			return m, tui.Quit
		case key.Matches(msg, keys.End):
			m.s.EndSession(now)
			m.updatePlot()
			return m, nil
		case key.Matches(msg, keys.AddNode):
			if id := m.s.AddNode(now); id != "" {
				m.log.WithField("node", id).Debug("Node added.")
			}
			return m, nil
		case key.Matches(msg, keys.Reset):
			m.s.ResetView()
			return m, nil
		case key.Matches(msg, keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.layout(m.width, m.height)
			return m, nil
		}
	}
	return m, nil
}

// handleMouse translates terminal mouse events into session pointer events.
// Cell coordinates become surface pixels so pans and drags move by pixels.
func (m *model) handleMouse(msg tui.MouseMsg, now time.Time) tui.Cmd {
	px, py := m.graph.toPixels(msg.X, msg.Y)
	switch msg.Action {
	case tui.MouseActionPress:
		switch msg.Button {
		case tui.MouseButtonWheelUp:
			return revertAfter(m.s.Wheel(-wheelDelta, now))
		case tui.MouseButtonWheelDown:
			return revertAfter(m.s.Wheel(wheelDelta, now))
		case tui.MouseButtonLeft:
			if id, ok := hitTest(m.s.Graph().Nodes(), m.live.Camera, m.graph, msg.X, msg.Y); ok {
				m.activeNode = id
				m.s.NodePress(id, px, py, now)
				return nil
			}
			m.s.BackgroundPress(px, py, m.graph.contains(msg.X, msg.Y))
		}
	case tui.MouseActionMotion:
		m.s.PointerMove(px, py, now)
	case tui.MouseActionRelease:
		m.activeNode = ""
		return revertAfter(m.s.PointerUp(now))
	}
	return nil
}

func (m *model) layout(width, height int) {
	m.width, m.height = width, height
	m.leftPaneWidth, m.rightPaneWidth = computePaneWidths(width, viewSplit)

	helpLines := 1
	if m.help.ShowAll {
		helpLines = 2
	}
	available := max(3, height-helpLines)
	// inside the left pane border
	m.graph = viewport{x0: 1, y0: 1, w: max(1, m.leftPaneWidth-2), h: max(1, available-2)}

	plotHeight := max(1, available-len(m.statsLines())-3)
	plotWidth := max(1, m.rightPaneWidth-2)
	p := plot.NewCanvas(plotWidth, plotHeight)
	p.NumDataPoints = m.plot.NumDataPoints
	p.ShowAxis = m.plot.ShowAxis
	p.LineColors = m.plot.LineColors
	m.plot = &p
	m.help.Width = width
}

func (m *model) updatePlot() {
	history := m.s.FPSHistory(m.cfg.PlotPoints)
	series, baseline := m.plotData[1], m.plotData[0]
	pad := len(series) - len(history)
	for i := range series {
		baseline[i] = baselineFPS
		switch {
		case i >= pad:
			series[i] = history[i-pad]
		case len(history) > 0:
			series[i] = history[0]
		default:
			series[i] = 0
		}
	}
	m.plot.Fill(m.plotData)
}

func (m *model) View() string {
	left := m.graphPane()
	right := m.statsPane()
	view := styles.JoinHorizontal(styles.Top, left, right)
	return styles.JoinVertical(styles.Left, view, m.help.View(keys))
}

func (m *model) graphPane() string {
	style := paneStyle.Width(m.graph.w).Height(m.graph.h)
	if m.report != "" {
		lines := strings.Split(m.report, "\n")
		if len(lines) > m.graph.h {
			lines = lines[:m.graph.h]
		}
		return style.Render(strings.Join(lines, "\n"))
	}
	hot := make(map[string]bool, len(m.live.HotNodes))
	for _, h := range m.live.HotNodes {
		hot[h.ID] = true
	}
	return style.Render(renderGraph(m.s.Graph().Nodes(), m.live.Camera, m.graph, hot, m.activeNode))
}

func (m *model) statsPane() string {
	stats := strings.Join(m.statsLines(), "\n")
	plotView := m.plot.String()
	label := borderFg.Render(fmt.Sprintf("fps, last %d samples", m.cfg.PlotPoints))
	return styles.JoinVertical(styles.Left,
		stats,
		paneStyle.Render(styles.JoinVertical(styles.Top, plotView, label)),
	)
}

func (m *model) statsLines() []string {
	l := m.live
	title := "LIVE (" + selectedFg.Render(l.Activity.String()) + ")"
	if l.Ended {
		title = "SESSION ENDED (q to quit)"
	}
	mem := "n/a"
	if l.HasMemory {
		mem = fmt.Sprintf("%.2f MB", l.MemoryMB)
	}
	c := l.Counters
	lines := []string{
		title,
		fmt.Sprintf("fps: %.2f (%d samples)", l.FPS, l.FPSSamples),
		"memory: " + mem,
		fmt.Sprintf("render: avg %s max %s (%d)", formatMs(l.Render.Avg()), formatMs(l.Render.Max), l.Render.Count),
		fmt.Sprintf("recent render: last %s avg %s", formatMs(l.RecentRender.Last), formatMs(l.RecentRender.Avg)),
		fmt.Sprintf("graph: %s nodes, %s edges", humanize.Comma(int64(l.Nodes)), humanize.Comma(int64(l.Edges))),
		"sort: " + formatMetricDuration(l.OrderCost),
		fmt.Sprintf("camera: %.0f,%.0f x%.2f", l.Camera.X, l.Camera.Y, l.Camera.Scale),
		fmt.Sprintf("pans %d  zooms %d  clicks %d  drags %d", c.Pans, c.Zooms, c.NodeClicks, c.DragSessions),
	}
	if m.cfg.HotK > 0 {
		lines = append(lines, "hot nodes:")
		for i := range m.cfg.HotK {
			if i < len(l.HotNodes) {
				h := l.HotNodes[i]
				lines = append(lines, fmt.Sprintf("  %-6s %3d %s", h.ID, h.Count, sparkline(h.History, 12)))
			} else {
				lines = append(lines, "  -")
			}
		}
	}
	return lines
}

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// sparkline renders the last n values of series scaled to its maximum.
func sparkline(series []uint32, n int) string {
	if len(series) > n {
		series = series[len(series)-n:]
	}
	var top uint32
	for _, v := range series {
		top = max(top, v)
	}
	var b strings.Builder
	for _, v := range series {
		if top == 0 {
			b.WriteRune(sparkRunes[0])
			continue
		}
		b.WriteRune(sparkRunes[int(v)*(len(sparkRunes)-1)/int(top)])
	}
	return hotFg.Render(b.String())
}

func formatMs(ms float64) string {
	return fmt.Sprintf("%.2fms", ms)
}

func formatMetricDuration(d time.Duration) string {
	if d <= 0 {
		return "0.000ms"
	}
	return fmt.Sprintf("%.3fms", float64(d)/float64(time.Millisecond))
}
