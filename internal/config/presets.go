package config

import "sort"

// Preset is a named scenario runnable without a config file.
type Preset struct {
	Description string
	apply       func(*Config)
}

var presets = map[string]Preset{
	"gentle": {"steady cadence with light jitter", func(c *Config) {
		c.Input.Synthetic.Cadence = 6
		c.Input.Synthetic.Noise = 0.3
	}},
	"master": {"near-perfect cadence, smoothed input", func(c *Config) {
		c.Input.Synthetic.Cadence = 6
		c.Input.Synthetic.Noise = 0.05
		c.Input.Synthetic.Drift = 0
		c.Input.Synthetic.Wander = 2
		c.Input.Smooth = true
	}},
	"neglect": {"barely turned, never shaped", func(c *Config) {
		c.Input.Synthetic.Cadence = 0.5
		c.Input.Synthetic.Noise = 0.1
		c.Input.Synthetic.Drift = 0
		c.Input.Synthetic.JiggleEvery = 0
		c.Input.Synthetic.Duration = 90
		c.Run.Duration = 90
	}},
	"burnt": {"hot pan and sluggish turning", func(c *Config) {
		c.Input.Synthetic.Cadence = 2.6
		c.Input.Synthetic.Noise = 0.2
		c.Input.Synthetic.PanTemperature = 320
		c.Input.Synthetic.Duration = 180
		c.Run.Duration = 180
	}},
}

// GetPreset builds the named preset on top of the defaults, or returns nil.
func GetPreset(name string) *Config {
	p, ok := presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	p.apply(cfg)
	return cfg
}

func DescribePreset(name string) string {
	return presets[name].Description
}

func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
