package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/keilerkonzept/graphperf/internal/config"
	"github.com/keilerkonzept/graphperf/internal/logging"
	"github.com/keilerkonzept/graphperf/internal/sampler"
	"github.com/keilerkonzept/graphperf/internal/session"
)

// app is the state shared by every command: the layered configuration and
// the log file to release on exit.
type app struct {
	cfg        config.Config
	configPath string
	envFiles   []string
	logCloser  io.Closer
}

func main() {
	if err := newRootCmd(newApp()).Execute(); err != nil {
		os.Exit(1)
	}
}

func newApp() *app {
	return &app{cfg: config.Default()}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "graphperf",
		Short: "Interaction performance instrumentation for a large graph view",
		Long: `graphperf shows a large random directed graph in the terminal, classifies
what you are doing with it (panning, zooming, dragging, selecting) and samples
frame rate, memory and render latency per activity. Ending the session prints
a performance report with verdicts.

Examples:
  # interactive session with the default 50,000 node graph
  graphperf

  # smaller graph, debug logs to a file
  graphperf --nodes 5000 --log-level debug --log-file graphperf.log

  # scripted session on a virtual clock
  graphperf replay scenario.yaml --json
`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.logCloser != nil {
				return a.logCloser.Close()
			}
			return nil
		},
		RunE: a.runTUI,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "Path to a YAML config file")
	pf.StringSliceVar(&a.envFiles, "env-file", nil, "Load environment from these files (default .env)")
	pf.StringVar(&a.cfg.Log.Level, "log-level", a.cfg.Log.Level, "Log level (debug, info, warn, error)")
	pf.StringVar(&a.cfg.Log.Format, "log-format", a.cfg.Log.Format, "Log format (text, simple, json)")
	pf.StringVar(&a.cfg.Log.File, "log-file", a.cfg.Log.File, "Write logs to this file instead of stderr")
	pf.IntVar(&a.cfg.StatsWindow, "stats-window", a.cfg.StatsWindow, "Number of recent render samples kept for the live readout")
	pf.DurationVar(&a.cfg.MemoryInterval, "memory-interval", a.cfg.MemoryInterval, "Interval between memory readings")
	pf.IntVar(&a.cfg.HotK, "hot-k", a.cfg.HotK, "Track the top K most pressed nodes (0 disables)")
	pf.IntVar(&a.cfg.HotWidth, "hot-width", a.cfg.HotWidth, "Hot node sketch width")
	pf.IntVar(&a.cfg.HotDepth, "hot-depth", a.cfg.HotDepth, "Hot node sketch depth")
	pf.Float64Var(&a.cfg.HotDecay, "hot-decay", a.cfg.HotDecay, "Hot node counter decay probability on collisions")
	pf.IntVar(&a.cfg.HotDecayLUTSize, "hot-decay-lut-size", a.cfg.HotDecayLUTSize, "Hot node sketch decay look-up table size")
	pf.DurationVar(&a.cfg.HotTick, "hot-tick", a.cfg.HotTick, "Hot node window tick size")
	pf.DurationVar(&a.cfg.HotWindow, "hot-window", a.cfg.HotWindow, "Hot node window size")

	f := root.Flags()
	f.IntVar(&a.cfg.Nodes, "nodes", a.cfg.Nodes, "Number of generated nodes")
	f.IntVar(&a.cfg.Edges, "edges", a.cfg.Edges, "Number of generated edges")
	f.Float64Var(&a.cfg.Spread, "spread", a.cfg.Spread, "Node positions are uniform in [0, spread)")
	f.Uint64Var(&a.cfg.Seed, "seed", a.cfg.Seed, "Topology seed (0 = random)")
	f.IntVar(&a.cfg.RefreshFPS, "refresh-fps", a.cfg.RefreshFPS, "Frame callback rate (frames per second)")
	f.BoolVar(&a.cfg.Memory, "memory", a.cfg.Memory, "Sample Go heap usage")
	f.IntVar(&a.cfg.PlotFPS, "plot-fps", a.cfg.PlotFPS, "FPS plot refresh rate (frames per second)")
	f.IntVar(&a.cfg.PlotPoints, "plot-points", a.cfg.PlotPoints, "Number of fps samples shown in the plot")
	f.BoolVar(&a.cfg.AltScreen, "alt-screen", a.cfg.AltScreen, "Use the terminal alternate screen buffer (recommended inside IDE terminals)")
	f.String("report-out", "", "Also write the final text report to this file")
	f.String("summary-out", "", "Also write the final report as JSON to this file")

	root.AddCommand(newReplayCmd(a))
	return root
}

// setup layers the configuration: defaults < config file < .env and
// environment < flags given on the command line. It then validates the
// result and configures logging.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	changed := map[string]string{}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "config", "env-file", "report-out", "summary-out", "json":
			return
		}
		changed[f.Name] = f.Value.String()
	})

	loaded, err := config.Load(a.configPath, a.envFiles...)
	if err != nil {
		return err
	}
	a.cfg = loaded
	for name, value := range changed {
		if err := cmd.Flags().Set(name, value); err != nil {
			return fmt.Errorf("--%s: %w", name, err)
		}
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	// The TUI owns the terminal, so its logs go to a file unless one was
	// given.
	logCfg := a.cfg.Log
	if cmd.Name() == "graphperf" && logCfg.File == "" {
		logCfg.File = defaultLogFile(time.Now())
	}
	closer, err := logging.Configure(logCfg)
	if err != nil {
		return err
	}
	a.logCloser = closer

	logging.NewLogger("cli").WithFields(logrus.Fields{
		"command": cmd.Name(),
		"config":  a.configPath,
		"nodes":   a.cfg.Nodes,
		"edges":   a.cfg.Edges,
	}).Debug("Configuration loaded.")
	return nil
}

func defaultLogFile(now time.Time) string {
	return filepath.Join(".graphperf", "logs", fmt.Sprintf("graphperf-%s.log", now.Format("2006-01-02")))
}

func (a *app) hotNodeOptions() session.HotNodeOptions {
	if a.cfg.HotK == 0 {
		return session.HotNodeOptions{}
	}
	return session.HotNodeOptions{
		K:            a.cfg.HotK,
		Window:       a.cfg.HotWindow,
		Tick:         a.cfg.HotTick,
		Width:        a.cfg.HotWidth,
		Depth:        a.cfg.HotDepth,
		Decay:        a.cfg.HotDecay,
		DecayLUTSize: a.cfg.HotDecayLUTSize,
	}
}

func (a *app) sessionOptions() session.Options {
	var mem sampler.MemoryReader
	if a.cfg.Memory {
		mem = sampler.RuntimeMemory{}
	}
	return session.Options{
		Nodes:        a.cfg.Nodes,
		Edges:        a.cfg.Edges,
		Spread:       a.cfg.Spread,
		Seed:         a.cfg.Seed,
		Memory:       mem,
		RecentWindow: a.cfg.StatsWindow,
		HotNodes:     a.hotNodeOptions(),
	}
}
