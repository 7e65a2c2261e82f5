// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrOutOfRange is returned when a configuration value falls outside its allowed range.
var ErrOutOfRange = errors.New("config value out of range")

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	World      WorldConfig      `yaml:"world"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Energy     EnergyConfig     `yaml:"energy"`
	Mutation   MutationConfig   `yaml:"mutation"`
	Population PopulationConfig `yaml:"population"`
	Render     RenderConfig     `yaml:"render"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds the bounded simulation rectangle.
type WorldConfig struct {
	Width  float64 `yaml:"width"`  // 0 = use screen width
	Height float64 `yaml:"height"` // 0 = use screen height
}

// PhysicsConfig holds movement and attraction parameters.
type PhysicsConfig struct {
	AttractionRadius  float64 `yaml:"attraction_radius"`  // Pull applies below this distance
	BreedingRadius    float64 `yaml:"breeding_radius"`    // Pairs closer than this may breed
	AttractionImpulse float64 `yaml:"attraction_impulse"` // Per-tick pull before semantic gravity scaling
	MaxSpeed          float64 `yaml:"max_speed"`          // 0 = unlimited
	InitialSpeed      float64 `yaml:"initial_speed"`      // Max random speed for seeds and offspring
	GridCellSize      float64 `yaml:"grid_cell_size"`     // 0 = attraction radius
}

// EnergyConfig holds the energy economy.
type EnergyConfig struct {
	InitialEnergy  float64 `yaml:"initial_energy"`  // "Full" energy for seeds and offspring
	BaseMetabolism float64 `yaml:"base_metabolism"` // Drain per tick, > 0
	BreedingCost   float64 `yaml:"breeding_cost"`   // Debited from each parent on success
}

// MutationConfig holds breeding and Mutation Service parameters.
type MutationConfig struct {
	Rate              float64      `yaml:"rate"`             // Breeding probability gate, [0,1]
	SemanticGravity   float64      `yaml:"semantic_gravity"` // Attraction strength, [0,2]
	TimeoutSec        float64      `yaml:"timeout_sec"`      // Per-call bound on the Mutation Service
	MaxInFlight       int          `yaml:"max_in_flight"`    // 0 = unlimited
	CancelOnStop      bool         `yaml:"cancel_on_stop"`
	RequestsPerSecond float64      `yaml:"requests_per_second"` // 0 = no rate limit
	Burst             int          `yaml:"burst"`
	Provider          string       `yaml:"provider"` // splice | openai
	OpenAI            OpenAIConfig `yaml:"openai"`
}

// OpenAIConfig holds the OpenAI-backed Mutation Service settings.
type OpenAIConfig struct {
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	APIKeyFile  string  `yaml:"api_key_file"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// PopulationConfig holds seeding parameters.
type PopulationConfig struct {
	Seeds       []string `yaml:"seeds"`
	ReseedBelow int      `yaml:"reseed_below"` // 0 = never reseed
	ReseedCount int      `yaml:"reseed_count"`
}

// RenderConfig holds Render Sink settings.
type RenderConfig struct {
	FontPath string `yaml:"font_path"`
	FontSize int    `yaml:"font_size"`
	WSAddr   string `yaml:"ws_addr"` // empty = websocket sink disabled
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow int    `yaml:"stats_window"` // ticks per stats window
	PerfWindow  int    `yaml:"perf_window"`
	MetricsAddr string `yaml:"metrics_addr"` // empty = metrics endpoint disabled
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	WorldW       float64       // Effective world width
	WorldH       float64       // Effective world height
	GridCellSize float64       // Effective spatial grid cell size
	Timeout      time.Duration // Mutation.TimeoutSec as a duration
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

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Parse(nil)
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return Parse(data)
}

// Parse applies the YAML overrides in data on top of the embedded defaults,
// validates the result and computes derived values.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Unmarshal into same struct - only overwrites fields present in data
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	// World dimensions default to screen size if not specified
	c.Derived.WorldW = c.World.Width
	if c.Derived.WorldW == 0 {
		c.Derived.WorldW = float64(c.Screen.Width)
	}
	c.Derived.WorldH = c.World.Height
	if c.Derived.WorldH == 0 {
		c.Derived.WorldH = float64(c.Screen.Height)
	}

	c.Derived.GridCellSize = c.Physics.GridCellSize
	if c.Derived.GridCellSize <= 0 {
		c.Derived.GridCellSize = c.Physics.AttractionRadius
	}

	c.Derived.Timeout = time.Duration(c.Mutation.TimeoutSec * float64(time.Second))
}

// Validate rejects out-of-range values. Errors wrap ErrOutOfRange.
func (c *Config) Validate() error {
	if err := CheckMutationRate(c.Mutation.Rate); err != nil {
		return err
	}
	if err := CheckSemanticGravity(c.Mutation.SemanticGravity); err != nil {
		return err
	}
	if c.Derived.WorldW <= 0 || c.Derived.WorldH <= 0 {
		return fmt.Errorf("world size %gx%g: %w", c.Derived.WorldW, c.Derived.WorldH, ErrOutOfRange)
	}
	if c.Physics.AttractionRadius <= 0 {
		return fmt.Errorf("physics.attraction_radius %g must be > 0: %w", c.Physics.AttractionRadius, ErrOutOfRange)
	}
	if c.Physics.BreedingRadius <= 0 || c.Physics.BreedingRadius > c.Physics.AttractionRadius {
		return fmt.Errorf("physics.breeding_radius %g must be in (0, attraction_radius]: %w", c.Physics.BreedingRadius, ErrOutOfRange)
	}
	if c.Physics.AttractionImpulse < 0 || c.Physics.MaxSpeed < 0 || c.Physics.InitialSpeed < 0 {
		return fmt.Errorf("physics impulse and speeds must be >= 0: %w", ErrOutOfRange)
	}
	if c.Energy.InitialEnergy <= 0 {
		return fmt.Errorf("energy.initial_energy %g must be > 0: %w", c.Energy.InitialEnergy, ErrOutOfRange)
	}
	if c.Energy.BaseMetabolism <= 0 {
		return fmt.Errorf("energy.base_metabolism %g must be > 0: %w", c.Energy.BaseMetabolism, ErrOutOfRange)
	}
	if c.Energy.BreedingCost < 0 {
		return fmt.Errorf("energy.breeding_cost %g must be >= 0: %w", c.Energy.BreedingCost, ErrOutOfRange)
	}
	if c.Mutation.TimeoutSec <= 0 {
		return fmt.Errorf("mutation.timeout_sec %g must be > 0: %w", c.Mutation.TimeoutSec, ErrOutOfRange)
	}
	if c.Mutation.MaxInFlight < 0 || c.Mutation.RequestsPerSecond < 0 || c.Mutation.Burst < 0 {
		return fmt.Errorf("mutation limits must be >= 0: %w", ErrOutOfRange)
	}
	switch c.Mutation.Provider {
	case "splice", "openai":
	default:
		return fmt.Errorf("mutation.provider %q must be splice or openai: %w", c.Mutation.Provider, ErrOutOfRange)
	}
	if c.Population.ReseedBelow < 0 || c.Population.ReseedCount < 0 {
		return fmt.Errorf("population reseed values must be >= 0: %w", ErrOutOfRange)
	}
	if c.Population.ReseedBelow > 0 && c.Population.ReseedCount == 0 {
		return fmt.Errorf("population.reseed_below %d needs reseed_count > 0: %w", c.Population.ReseedBelow, ErrOutOfRange)
	}
	if c.Telemetry.StatsWindow < 1 {
		return fmt.Errorf("telemetry.stats_window %d must be >= 1: %w", c.Telemetry.StatsWindow, ErrOutOfRange)
	}
	return nil
}

// CheckMutationRate validates a breeding probability gate.
func CheckMutationRate(v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("mutation.rate %g not in [0,1]: %w", v, ErrOutOfRange)
	}
	return nil
}

// CheckSemanticGravity validates an attraction strength.
func CheckSemanticGravity(v float64) error {
	if v < 0 || v > 2 {
		return fmt.Errorf("mutation.semantic_gravity %g not in [0,2]: %w", v, ErrOutOfRange)
	}
	return nil
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
