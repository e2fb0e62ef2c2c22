// Package phase implements the timed rep cycle of a single exercise.
package phase

// Phase is one timed segment of an exercise.
type Phase int

const (
	Prep Phase = iota
	Positioning
	Eccentric
	Concentric
	FinalEccentric
	Complete
	Rest
)

// All lists every phase in table order.
func All() []Phase {
	return []Phase{Prep, Positioning, Eccentric, Concentric, FinalEccentric, Complete, Rest}
}

func (p Phase) String() string {
	switch p {
	case Prep:
		return "Prep"
	case Positioning:
		return "Positioning"
	case Eccentric:
		return "Eccentric"
	case Concentric:
		return "Concentric"
	case FinalEccentric:
		return "FinalEccentric"
	case Complete:
		return "Complete"
	case Rest:
		return "Rest"
	default:
		return "Unknown"
	}
}

// DisplayName is the short label shown to the lifter.
func (p Phase) DisplayName() string {
	switch p {
	case Prep:
		return "Get Ready"
	case Positioning:
		return "Position"
	case Eccentric:
		return "Lower"
	case Concentric:
		return "Push"
	case FinalEccentric:
		return "Final Negative"
	case Complete:
		return "Complete"
	case Rest:
		return "Rest"
	default:
		return p.String()
	}
}

// CueName is the audio cue announced when the phase begins.
func (p Phase) CueName() string {
	switch p {
	case Prep:
		return "phase_get_ready"
	case Positioning:
		return "phase_position"
	case Eccentric:
		return "phase_eccentric"
	case Concentric:
		return "phase_concentric"
	case FinalEccentric:
		return "phase_final_eccentric"
	case Complete:
		return "phase_complete"
	case Rest:
		return "phase_rest"
	default:
		return ""
	}
}

// IsWork reports whether the phase is one of the three loaded phases.
func (p Phase) IsWork() bool {
	return p == Eccentric || p == Concentric || p == FinalEccentric
}

// IsTimed reports whether the phase counts down on its own.
func (p Phase) IsTimed() bool {
	return p != Complete
}

// ParsePhase maps a phase name (as produced by String) back to a Phase.
func ParsePhase(name string) (Phase, bool) {
	for _, p := range All() {
		if p.String() == name {
			return p, true
		}
	}

	return 0, false
}
