// Package config holds the graphperf settings. Values are layered: built-in
// defaults, then an optional YAML file, then .env and GRAPHPERF_* environment
// variables. Command-line flags are applied on top by the caller, followed
// by Validate.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/keilerkonzept/graphperf/internal/logging"
)

const envPrefix = "GRAPHPERF_"

type Config struct {
	// graph
	Nodes  int     `yaml:"nodes"`
	Edges  int     `yaml:"edges"`
	Spread float64 `yaml:"spread"`
	Seed   uint64  `yaml:"seed"`

	// sampling
	RefreshFPS     int           `yaml:"refresh_fps"`
	MemoryInterval time.Duration `yaml:"memory_interval"`
	Memory         bool          `yaml:"memory"`
	StatsWindow    int           `yaml:"stats_window"`

	// hot nodes sketch
	HotK            int           `yaml:"hot_k"`
	HotWidth        int           `yaml:"hot_width"`
	HotDepth        int           `yaml:"hot_depth"`
	HotDecay        float64       `yaml:"hot_decay"`
	HotDecayLUTSize int           `yaml:"hot_decay_lut_size"`
	HotTick         time.Duration `yaml:"hot_tick"`
	HotWindow       time.Duration `yaml:"hot_window"`

	// render
	PlotFPS    int  `yaml:"plot_fps"`
	PlotPoints int  `yaml:"plot_points"`
	AltScreen  bool `yaml:"alt_screen"`

	Log logging.Config `yaml:"log"`
}

func Default() Config {
	return Config{
		Nodes:  50000,
		Edges:  2000,
		Spread: 20000,

		RefreshFPS:     60,
		MemoryInterval: time.Second,
		Memory:         true,
		StatsWindow:    256,

		HotK:            5,
		HotWidth:        1024,
		HotDepth:        3,
		HotDecay:        0.9,
		HotDecayLUTSize: 8192,
		HotTick:         time.Second,
		HotWindow:       30 * time.Second,

		PlotFPS:    4,
		PlotPoints: 120,
		AltScreen:  true,

		Log: logging.Config{Level: "info", Format: "text"},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty), the given .env files (".env" when none are given; missing
// files are ignored) and the process environment.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := decodeYAML(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load env file: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	vars := []struct {
		name string
		set  func(string) error
	}{
		{"NODES", intVar(&c.Nodes)},
		{"EDGES", intVar(&c.Edges)},
		{"SPREAD", floatVar(&c.Spread)},
		{"SEED", func(v string) (err error) { c.Seed, err = strconv.ParseUint(v, 10, 64); return }},
		{"REFRESH_FPS", intVar(&c.RefreshFPS)},
		{"MEMORY", boolVar(&c.Memory)},
		{"STATS_WINDOW", intVar(&c.StatsWindow)},
		{"HOT_K", intVar(&c.HotK)},
		{"HOT_WINDOW", durationVar(&c.HotWindow)},
		{"PLOT_FPS", intVar(&c.PlotFPS)},
		{"ALT_SCREEN", boolVar(&c.AltScreen)},
		{"LOG_LEVEL", stringVar(&c.Log.Level)},
		{"LOG_FORMAT", stringVar(&c.Log.Format)},
		{"LOG_FILE", stringVar(&c.Log.File)},
	}
	for _, v := range vars {
		s, ok := lookup(envPrefix + v.name)
		if !ok || s == "" {
			continue
		}
		if err := v.set(s); err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, v.name, err)
		}
	}
	return nil
}

func intVar(p *int) func(string) error {
	return func(s string) (err error) { *p, err = strconv.Atoi(s); return }
}

func floatVar(p *float64) func(string) error {
	return func(s string) (err error) { *p, err = strconv.ParseFloat(s, 64); return }
}

func boolVar(p *bool) func(string) error {
	return func(s string) (err error) { *p, err = strconv.ParseBool(s); return }
}

func durationVar(p *time.Duration) func(string) error {
	return func(s string) (err error) { *p, err = time.ParseDuration(s); return }
}

func stringVar(p *string) func(string) error {
	return func(s string) error { *p = s; return nil }
}

// Validate checks ranges and normalizes soft limits. Messages name the
// command-line flag of the offending setting.
func (c *Config) Validate() error {
	if c.Nodes < 0 {
		return fmt.Errorf("--nodes must be >= 0")
	}
	if c.Edges < 0 {
		return fmt.Errorf("--edges must be >= 0")
	}
	if c.Spread <= 0 {
		return fmt.Errorf("--spread must be > 0")
	}
	if c.RefreshFPS < 1 {
		return fmt.Errorf("--refresh-fps must be >= 1")
	}
	if c.MemoryInterval <= 0 {
		return fmt.Errorf("--memory-interval must be > 0")
	}
	if c.PlotFPS < 1 {
		return fmt.Errorf("--plot-fps must be >= 1")
	}
	if c.PlotPoints < 2 {
		return fmt.Errorf("--plot-points must be >= 2")
	}
	if c.HotK < 0 {
		return fmt.Errorf("--hot-k must be >= 0")
	}
	if c.HotK > 0 {
		if c.HotWidth < 1 {
			return fmt.Errorf("--hot-width must be >= 1")
		}
		if c.HotDepth < 1 {
			return fmt.Errorf("--hot-depth must be >= 1")
		}
		if c.HotDecay < 0 || c.HotDecay > 1 {
			return fmt.Errorf("--hot-decay must be in [0,1]")
		}
		if c.HotDecayLUTSize < 1 {
			return fmt.Errorf("--hot-decay-lut-size must be >= 1")
		}
		if c.HotTick <= 0 {
			return fmt.Errorf("--hot-tick must be > 0")
		}
		if c.HotWindow < c.HotTick {
			return fmt.Errorf("--hot-window must be >= --hot-tick")
		}
		if c.HotWindow%c.HotTick != 0 {
			return fmt.Errorf("--hot-window must be a multiple of --hot-tick (got window=%s tick=%s)", c.HotWindow, c.HotTick)
		}
	}
	if c.StatsWindow < 16 {
		c.StatsWindow = 16
	}
	return nil
}
