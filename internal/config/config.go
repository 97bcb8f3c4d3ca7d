package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/takosim/internal/heat"
	"github.com/san-kum/takosim/internal/input"
	"github.com/san-kum/takosim/internal/lifecycle"
	"github.com/san-kum/takosim/internal/logger"
	"github.com/san-kum/takosim/internal/shaping"
	"github.com/san-kum/takosim/internal/sim"
	"github.com/san-kum/takosim/internal/softbody"
)

const (
	DefaultResolution = 32
	DefaultRadius     = 1.0
	DefaultSeed       = 1
	DefaultShaper     = "reference"
)

const (
	SourceSynthetic = "synthetic"
	SourceScript    = "script"
	// SourceSteady spins at exactly the shaping target.
	SourceSteady = "steady"
	// SourceIdle leaves the ball untouched on the pan.
	SourceIdle = "idle"
)

var Sources = []string{SourceSynthetic, SourceScript, SourceSteady, SourceIdle}

var (
	ErrInvalid      = errors.New("config: invalid")
	ErrUnknownParam = errors.New("config: unknown parameter")
)

type Config struct {
	Session   SessionConfig        `yaml:"session"`
	Run       sim.Config           `yaml:"run"`
	Solver    softbody.Params      `yaml:"solver"`
	Heat      heat.Params          `yaml:"heat"`
	Shaping   shaping.Params       `yaml:"shaping"`
	Lifecycle lifecycle.PhaseRules `yaml:"lifecycle"`
	Input     InputConfig          `yaml:"input"`
	Logging   LoggingConfig        `yaml:"logging"`
}

type SessionConfig struct {
	Shaper     string     `yaml:"shaper"`
	Resolution int        `yaml:"resolution"`
	Radius     float64    `yaml:"radius"`
	Seed       uint64     `yaml:"seed"`
	Gravity    [3]float64 `yaml:"gravity"`
}

type InputConfig struct {
	// Source is one of Sources.
	Source    string          `yaml:"source"`
	Script    string          `yaml:"script"`
	Synthetic input.Synthetic `yaml:"synthetic"`
	// Smooth runs the angular velocity through a Kalman filter.
	Smooth  bool    `yaml:"smooth"`
	KalmanQ float64 `yaml:"kalman_q"`
	KalmanR float64 `yaml:"kalman_r"`
}

type LoggingConfig struct {
	Level string            `yaml:"level"`
	File  logger.FileConfig `yaml:"file"`
}

func DefaultConfig() *Config {
	return &Config{
		Session: SessionConfig{
			Shaper:     DefaultShaper,
			Resolution: DefaultResolution,
			Radius:     DefaultRadius,
			Seed:       DefaultSeed,
			Gravity:    [3]float64{0, -9.81, 0},
		},
		Run:       sim.DefaultConfig(),
		Solver:    softbody.DefaultParams(),
		Heat:      heat.DefaultParams(),
		Shaping:   shaping.DefaultParams(),
		Lifecycle: lifecycle.DefaultPhaseRules(),
		Input: InputConfig{
			Source:    SourceSynthetic,
			Synthetic: input.DefaultSynthetic(),
			KalmanQ:   input.DefaultKalmanQ,
			KalmanR:   input.DefaultKalmanR,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

func (c *Config) Validate() error {
	switch {
	case c.Run.Dt <= 0:
		return fmt.Errorf("%w: run.dt must be positive", ErrInvalid)
	case c.Run.Duration < 0:
		return fmt.Errorf("%w: run.duration must be non-negative", ErrInvalid)
	case !slices.Contains(Sources, c.Input.Source):
		return fmt.Errorf("%w: unknown input source %q", ErrInvalid, c.Input.Source)
	case c.Input.Source == SourceScript && c.Input.Script == "":
		return fmt.Errorf("%w: input.script is required for the script source", ErrInvalid)
	}
	if err := c.SessionOptions().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// SessionOptions maps the config onto session options. Sinks and the logger
// are left for the caller.
func (c *Config) SessionOptions() sim.Options {
	opts := sim.DefaultOptions()
	opts.Resolution = c.Session.Resolution
	opts.Radius = c.Session.Radius
	opts.Seed = c.Session.Seed
	opts.Gravity = c.Session.Gravity
	opts.Shaper = c.Session.Shaper
	opts.Shaping = c.Shaping
	opts.Solver = c.Solver
	opts.Heat = c.Heat
	opts.Phases = c.Lifecycle
	return opts
}

// Provider builds the configured input source. seed overrides the synthetic
// seed when non-zero.
func (c *Config) Provider(seed uint64) (input.Provider, error) {
	var p input.Provider
	syn := c.Input.Synthetic
	switch c.Input.Source {
	case SourceScript:
		s, err := input.LoadScript(c.Input.Script)
		if err != nil {
			return nil, err
		}
		p = s.Provider()
	case SourceSteady:
		f := input.Still(syn.PanTemperature)
		f.AngularVelocity = mgl64.Vec3{0, c.Shaping.TargetGyroMag, 0}
		p = input.Constant(f, syn.Duration)
	case SourceIdle:
		p = input.Constant(input.Still(syn.PanTemperature), syn.Duration)
	default:
		if seed != 0 {
			syn.Seed = seed
		}
		p = syn.Provider()
	}
	if c.Input.Smooth {
		p = input.NewKalman(p, c.Input.KalmanQ, c.Input.KalmanR)
	}
	return p, nil
}

// Params lists the names accepted by SetParam.
var Params = []string{"cadence", "noise", "pan_temperature", "kp", "ki", "kd", "target", "stiffness", "damping", "mass"}

// SetParam sets a tunable value by name, for sweeps and grid searches.
func (c *Config) SetParam(name string, v float64) error {
	switch name {
	case "cadence":
		c.Input.Synthetic.Cadence = v
	case "noise":
		c.Input.Synthetic.Noise = v
	case "pan_temperature":
		c.Input.Synthetic.PanTemperature = v
	case "kp":
		c.Shaping.Kp = v
	case "ki":
		c.Shaping.Ki = v
	case "kd":
		c.Shaping.Kd = v
	case "target":
		c.Shaping.TargetGyroMag = v
	case "stiffness":
		c.Solver.Stiffness = v
	case "damping":
		c.Solver.Damping = v
	case "mass":
		c.Solver.Mass = v
	default:
		return fmt.Errorf("%w: %s", ErrUnknownParam, name)
	}
	return nil
}
