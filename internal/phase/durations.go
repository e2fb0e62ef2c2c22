package phase

import (
	"errors"
	"fmt"
)

// ErrInvalidDurations is returned when a duration table cannot drive a session.
var ErrInvalidDurations = errors.New("invalid phase durations")

// Durations maps each timed phase to its length in seconds.
type Durations map[Phase]int

// DefaultDurations returns the stock protocol lengths.
func DefaultDurations() Durations {
	return Durations{
		Prep:           10,
		Positioning:    5,
		Eccentric:      30,
		Concentric:     20,
		FinalEccentric: 40,
		Rest:           90,
	}
}

// Of returns the configured seconds for p. Complete is always zero.
func (d Durations) Of(p Phase) int {
	if p == Complete {
		return 0
	}

	return d[p]
}

// Clone returns an independent copy.
func (d Durations) Clone() Durations {
	out := make(Durations, len(d))
	for k, v := range d {
		out[k] = v
	}

	return out
}

// WithDefaults returns a copy with missing phases filled from DefaultDurations.
func (d Durations) WithDefaults() Durations {
	out := DefaultDurations()
	for k, v := range d {
		out[k] = v
	}

	return out
}

// Validate rejects negative lengths and zero-length work or rest phases.
// Prep and Positioning may be zero; they are passed through on the tick that reaches them.
func (d Durations) Validate() error {
	for _, p := range All() {
		if p == Complete {
			continue
		}

		secs, ok := d[p]
		if !ok {
			return fmt.Errorf("%w: missing %s", ErrInvalidDurations, p)
		}

		if secs < 0 {
			return fmt.Errorf("%w: %s is negative (%d)", ErrInvalidDurations, p, secs)
		}

		if secs == 0 && (p.IsWork() || p == Rest) {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidDurations, p)
		}
	}

	return nil
}
