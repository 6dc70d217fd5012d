// Package config provides configuration loading and access for the arena simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalidConfig is returned when a loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// Visibility modes for the per-frame stepper.
const (
	VisibilitySequential = "sequential" // each agent sees peers already moved this frame
	VisibilitySnapshot   = "snapshot"   // all agents scan against start-of-frame poses
)

// Spawn strategies.
const (
	SpawnPartitioned = "partitioned"
	SpawnRejection   = "rejection"
)

// Config holds all simulation configuration parameters.
type Config struct {
	Arena      ArenaConfig      `yaml:"arena"`
	Agent      AgentConfig      `yaml:"agent"`
	Navigation NavigationConfig `yaml:"navigation"`
	Spawn      SpawnConfig      `yaml:"spawn"`
	Simulation SimulationConfig `yaml:"simulation"`
	Output     OutputConfig     `yaml:"output"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ArenaConfig describes the static arena: the field, its wall frame and the blocks on it.
type ArenaConfig struct {
	Width         float64       `yaml:"width"`
	Height        float64       `yaml:"height"`
	WallThickness float64       `yaml:"wall_thickness"`
	WallHeight    float64       `yaml:"wall_height"`
	Blocks        []BlockConfig `yaml:"blocks"`
}

// BlockConfig places one rectangular block. X/Y is the block centre.
type BlockConfig struct {
	ID     string  `yaml:"id"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Width  float64 `yaml:"width"`  // extent along local x
	Depth  float64 `yaml:"depth"`  // extent along local y
	Height float64 `yaml:"height"` // vertical extent
	YawDeg float64 `yaml:"yaw_deg"`
}

// AgentConfig holds the agent roster and body dimensions.
type AgentConfig struct {
	IDs    []string `yaml:"ids"`
	Width  float64  `yaml:"width"`  // body extent across the forward axis
	Length float64  `yaml:"length"` // body extent along the forward axis
	Height float64  `yaml:"height"`
}

// NavigationConfig holds the reactive controller tunables.
type NavigationConfig struct {
	MinSpeed            float64 `yaml:"min_speed"`
	MaxSpeed            float64 `yaml:"max_speed"`
	SpeedDelta          float64 `yaml:"speed_delta"`
	SpeedIncrementDelta float64 `yaml:"speed_increment_delta"` // 0 = speed_delta
	SpeedDecrementDelta float64 `yaml:"speed_decrement_delta"` // 0 = speed_delta

	MinScan            float64 `yaml:"min_scan"`
	MaxScan            float64 `yaml:"max_scan"`
	ScanIncrementDelta float64 `yaml:"scan_increment_delta"`
	ScanDecrementDelta float64 `yaml:"scan_decrement_delta"`

	RotationDeltaDeg float64 `yaml:"rotation_delta_deg"`

	DiscSegments int     `yaml:"disc_segments"`
	DiscHeight   float64 `yaml:"disc_height"` // disc centre above the agent's base z
	DiscDepth    float64 `yaml:"disc_depth"`  // disc thickness

	IncludePeers bool   `yaml:"include_peers"`
	Visibility   string `yaml:"visibility"`
}

// SpawnConfig holds pre-simulation placement parameters.
type SpawnConfig struct {
	Strategy    string     `yaml:"strategy"`
	RegionsX    int        `yaml:"regions_x"`
	RegionsY    int        `yaml:"regions_y"`
	RangeX      [2]float64 `yaml:"range_x"`
	RangeY      [2]float64 `yaml:"range_y"`
	RangeZ      [2]float64 `yaml:"range_z"`
	MaxAttempts int        `yaml:"max_attempts"`
}

// SimulationConfig holds dataset-level run parameters.
type SimulationConfig struct {
	Runs    int   `yaml:"runs"`
	Frames  int   `yaml:"frames"`
	Seed    int64 `yaml:"seed"`
	Workers int   `yaml:"workers"`
}

// OutputConfig selects label sinks.
type OutputConfig struct {
	Dir    string `yaml:"dir"`
	JSON   bool   `yaml:"json"`
	CSV    bool   `yaml:"csv"`
	SQLite bool   `yaml:"sqlite"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	LogStats            bool `yaml:"log_stats"`
	PerfCollectorWindow int  `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	RotationDelta       float64 // radians
	SpeedIncrementDelta float64
	SpeedDecrementDelta float64
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize computes derived values and validates the result. Callers that
// mutate a loaded Config (CLI overrides, tests) must call it again.
func (c *Config) Finalize() error {
	c.computeDerived()
	return c.Validate()
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	nav := &c.Navigation
	c.Derived.RotationDelta = nav.RotationDeltaDeg * math.Pi / 180

	c.Derived.SpeedIncrementDelta = nav.SpeedIncrementDelta
	if c.Derived.SpeedIncrementDelta == 0 {
		c.Derived.SpeedIncrementDelta = nav.SpeedDelta
	}
	c.Derived.SpeedDecrementDelta = nav.SpeedDecrementDelta
	if c.Derived.SpeedDecrementDelta == 0 {
		c.Derived.SpeedDecrementDelta = nav.SpeedDelta
	}

	if nav.Visibility == "" {
		nav.Visibility = VisibilitySequential
	}
	if c.Spawn.Strategy == "" {
		c.Spawn.Strategy = SpawnPartitioned
	}
	if c.Simulation.Workers < 1 {
		c.Simulation.Workers = 1
	}
}

// Validate reports the first out-of-range parameter, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	nav := c.Navigation
	switch {
	case nav.MinSpeed < 0:
		return invalid("navigation.min_speed must be >= 0, got %v", nav.MinSpeed)
	case nav.MinSpeed > nav.MaxSpeed:
		return invalid("navigation.min_speed (%v) > max_speed (%v)", nav.MinSpeed, nav.MaxSpeed)
	case c.Derived.SpeedIncrementDelta <= 0 || c.Derived.SpeedDecrementDelta <= 0:
		return invalid("navigation speed deltas must be > 0")
	case nav.MinScan <= 0:
		return invalid("navigation.min_scan must be > 0, got %v", nav.MinScan)
	case nav.MinScan > nav.MaxScan:
		return invalid("navigation.min_scan (%v) > max_scan (%v)", nav.MinScan, nav.MaxScan)
	case nav.ScanIncrementDelta <= 0 || nav.ScanDecrementDelta <= 0:
		return invalid("navigation scan deltas must be > 0")
	case nav.RotationDeltaDeg <= 0 || nav.RotationDeltaDeg >= 180:
		return invalid("navigation.rotation_delta_deg must be in (0, 180), got %v", nav.RotationDeltaDeg)
	case nav.DiscSegments < 3:
		return invalid("navigation.disc_segments must be >= 3, got %d", nav.DiscSegments)
	case nav.DiscDepth <= 0:
		return invalid("navigation.disc_depth must be > 0, got %v", nav.DiscDepth)
	case nav.Visibility != VisibilitySequential && nav.Visibility != VisibilitySnapshot:
		return invalid("navigation.visibility %q is not one of %q, %q", nav.Visibility, VisibilitySequential, VisibilitySnapshot)
	}

	a := c.Arena
	if a.Width <= 0 || a.Height <= 0 {
		return invalid("arena dimensions must be > 0, got %vx%v", a.Width, a.Height)
	}
	if a.WallThickness < 0 || a.WallHeight < 0 {
		return invalid("arena wall thickness and height must be >= 0")
	}
	for i, b := range a.Blocks {
		if b.ID == "" {
			return invalid("arena.blocks[%d] has no id", i)
		}
	}

	ag := c.Agent
	if len(ag.IDs) == 0 {
		return invalid("agent.ids must not be empty")
	}
	if ag.Width <= 0 || ag.Length <= 0 || ag.Height <= 0 {
		return invalid("agent body dimensions must be > 0")
	}
	// The disc rides with the agent, so it must lie within the agent's own
	// vertical extent for peers spawned at the same height to meet it.
	if nav.DiscHeight-nav.DiscDepth/2 < 0 || nav.DiscHeight+nav.DiscDepth/2 > ag.Height {
		return invalid("navigation.disc_height %v must keep the disc within the agent body (0, %v)", nav.DiscHeight, ag.Height)
	}

	s := c.Spawn
	if s.MaxAttempts < 1 {
		return invalid("spawn.max_attempts must be >= 1, got %d", s.MaxAttempts)
	}
	switch s.Strategy {
	case SpawnPartitioned:
		if s.RegionsX < 1 || s.RegionsY < 1 {
			return invalid("spawn regions must be >= 1, got %dx%d", s.RegionsX, s.RegionsY)
		}
		if s.RegionsX*s.RegionsY < len(ag.IDs) {
			return invalid("spawn has %d regions for %d agents", s.RegionsX*s.RegionsY, len(ag.IDs))
		}
	case SpawnRejection:
		for _, r := range [][2]float64{s.RangeX, s.RangeY, s.RangeZ} {
			if r[0] > r[1] {
				return invalid("spawn range %v is inverted", r)
			}
		}
	default:
		return invalid("spawn.strategy %q is not one of %q, %q", s.Strategy, SpawnPartitioned, SpawnRejection)
	}

	if c.Simulation.Runs < 1 || c.Simulation.Frames < 0 {
		return invalid("simulation needs runs >= 1 and frames >= 0, got %d/%d", c.Simulation.Runs, c.Simulation.Frames)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
