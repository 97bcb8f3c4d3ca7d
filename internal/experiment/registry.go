package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/takosim/internal/config"
	"github.com/san-kum/takosim/internal/metrics"
	"github.com/san-kum/takosim/internal/shaping"
	"github.com/san-kum/takosim/internal/sim"
)

// Registry names the pluggable parts a CLI user can pick from.
type Registry struct {
	metrics map[string]func(*config.Config) sim.Metric
}

func NewRegistry() *Registry {
	r := &Registry{
		metrics: make(map[string]func(*config.Config) sim.Metric),
	}

	r.metrics["control_effort"] = func(*config.Config) sim.Metric { return metrics.NewControlEffort() }
	r.metrics["stability"] = func(c *config.Config) sim.Metric { return metrics.NewStability(c.Shaping.TargetGyroMag, 1.0) }
	r.metrics["strain"] = func(c *config.Config) sim.Metric { return metrics.NewStrain(c.Solver.Stiffness) }
	r.metrics["peak_deformation"] = func(*config.Config) sim.Metric { return metrics.NewPeakDeformation() }
	r.metrics["max_combo"] = func(*config.Config) sim.Metric { return metrics.NewMaxCombo() }
	r.metrics["perfect_time"] = func(*config.Config) sim.Metric { return metrics.NewPerfectTime() }

	return r
}

func (r *Registry) GetMetric(name string, cfg *config.Config) (sim.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(cfg), nil
}

func (r *Registry) ListMetrics() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListShapers() []string { return shaping.Names() }

func (r *Registry) ListSources() []string { return config.Sources }

// DefaultMetrics builds a fresh instance of every registered metric.
func (r *Registry) DefaultMetrics(cfg *config.Config) []sim.Metric {
	out := make([]sim.Metric, 0, len(r.metrics))
	for _, name := range r.ListMetrics() {
		out = append(out, r.metrics[name](cfg))
	}
	return out
}
