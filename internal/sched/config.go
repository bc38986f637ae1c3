package sched

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	yaml "github.com/goccy/go-yaml"

	"slicesched/internal/logx"
)

const (
	defaultSliceMS         = 16
	defaultIdleSettleTurns = 5
	minIdleSettleTurns     = 5
	defaultTickMS          = 1
)

// PrioritySpec is a priority as written in YAML: a name or a number.
type PrioritySpec string

// UnmarshalYAML accepts both quoted and bare scalars.
func (p *PrioritySpec) UnmarshalYAML(b []byte) error {
	*p = PrioritySpec(strings.Trim(strings.TrimSpace(string(b)), `"'`))
	return nil
}

// JobSpec describes one workload entry for the ticksched driver.
type JobSpec struct {
	Name     string       `yaml:"name"`
	Priority PrioritySpec `yaml:"priority"` // name or 1..5
	Scope    string       `yaml:"scope"`    // coalescing scope label, empty = clean task
	WorkMS   int          `yaml:"work_ms"`  // simulated busy time per run
	Repeat   int          `yaml:"repeat"`   // number of submissions
	Sync     bool         `yaml:"sync"`     // use RunSynchronously instead of scheduling
}

// Config mirrors config.yml
type Config struct {
	SliceMS         int         `yaml:"slice_ms"`          // 16 (by default)
	IdleSettleTurns int         `yaml:"idle_settle_turns"` // 5 (by default, also the minimum)
	TickMS          int         `yaml:"tick_ms"`           // 1 (by default), simulated clock step
	Log             logx.Config `yaml:"log"`
	Workload        []JobSpec   `yaml:"workload"`
}

// SliceWidth returns the time budget of one burst.
func (c Config) SliceWidth() time.Duration {
	return time.Duration(c.SliceMS) * time.Millisecond
}

// If the config file is not found, we use default values
func DefaultConfig() Config {
	return Config{
		SliceMS:         defaultSliceMS,
		IdleSettleTurns: defaultIdleSettleTurns,
		TickMS:          defaultTickMS,
		Log: logx.Config{
			Level:   "info",
			Console: true,
		},
	}
}

// Load reads YAML and overrides defaults; empty path or a missing file
// yields the defaults only.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse config %q: %w", path, err)
	}

	cfg.sanitize()
	return cfg, nil
}

// sanity clamps
func (c *Config) sanitize() {
	if c.SliceMS <= 0 {
		c.SliceMS = defaultSliceMS
	}
	if c.IdleSettleTurns < minIdleSettleTurns {
		c.IdleSettleTurns = minIdleSettleTurns
	}
	if c.TickMS <= 0 {
		c.TickMS = defaultTickMS
	}
	for i := range c.Workload {
		if c.Workload[i].Repeat <= 0 {
			c.Workload[i].Repeat = 1
		}
		if c.Workload[i].WorkMS < 0 {
			c.Workload[i].WorkMS = 0
		}
	}
}
