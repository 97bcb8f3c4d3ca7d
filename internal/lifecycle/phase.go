package lifecycle

// PhaseRules are the thresholds a PhaseDeriver applies.
type PhaseRules struct {
	// PourRate fills the pour timer per second while Raw; full at 1.
	PourRate float64 `yaml:"pour_rate" json:"pour_rate"`
	// TurnBelow is the shaping progress under which Cooking asks to turn.
	TurnBelow float64 `yaml:"turn_below" json:"turn_below"`
	// FinishAt is the shaping progress at or under which Turned asks to serve.
	FinishAt float64 `yaml:"finish_at" json:"finish_at"`
}

func DefaultPhaseRules() PhaseRules {
	return PhaseRules{
		PourRate:  0.5,
		TurnBelow: 0.5,
		FinishAt:  0,
	}
}

// PhaseDeriver produces the phase signal when input does not supply one.
type PhaseDeriver struct {
	rules PhaseRules
	pour  float64
}

func NewPhaseDeriver(rules PhaseRules) *PhaseDeriver {
	return &PhaseDeriver{rules: rules}
}

// Update returns the phase requested by the current state and shaping
// progress. A state that is not ready yields its own phase.
func (d *PhaseDeriver) Update(dt float64, state State, progress float64) int {
	switch state {
	case Raw:
		if dt > 0 {
			d.pour += dt * d.rules.PourRate
		}
		if d.pour >= 1 {
			d.pour = 1
			return Cooking.Phase()
		}
	case Cooking:
		if progress < d.rules.TurnBelow {
			return Turned.Phase()
		}
	case Turned:
		if progress <= d.rules.FinishAt {
			return Finished.Phase()
		}
	}
	return state.Phase()
}

// Pour returns the pour timer fill in [0, 1].
func (d *PhaseDeriver) Pour() float64 { return d.pour }

func (d *PhaseDeriver) Reset() { d.pour = 0 }

// SetPour restores the pour timer from a snapshot.
func (d *PhaseDeriver) SetPour(v float64) { d.pour = v }
