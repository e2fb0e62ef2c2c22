// Package routine loads workout definitions from YAML.
package routine

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alkime/onerep/internal/phase"
	"github.com/alkime/onerep/internal/session"
)

// ErrUnknownRoutine is returned by Builtin for a name with no stock routine.
var ErrUnknownRoutine = errors.New("unknown routine")

// Routine is a workout definition as written in a routine file.
type Routine struct {
	Name      string     `yaml:"name"`
	Durations Durations  `yaml:"durations,omitempty"`
	Exercises []Exercise `yaml:"exercises"`
}

// Exercise is one routine entry.
type Exercise struct {
	Name            string   `yaml:"name"`
	Aliases         []string `yaml:"aliases,omitempty"`
	Weight          int      `yaml:"weight,omitempty"`
	Bodyweight      bool     `yaml:"bodyweight,omitempty"`
	NegativeOnly    bool     `yaml:"negative_only,omitempty"`
	NegativeSeconds int      `yaml:"negative_seconds,omitempty"`
}

// Durations overrides phase lengths in seconds. Unset fields keep the base value.
type Durations struct {
	Prep           *int `yaml:"prep,omitempty"`
	Positioning    *int `yaml:"positioning,omitempty"`
	Eccentric      *int `yaml:"eccentric,omitempty"`
	Concentric     *int `yaml:"concentric,omitempty"`
	FinalEccentric *int `yaml:"final_eccentric,omitempty"`
	Rest           *int `yaml:"rest,omitempty"`
}

// Apply returns base with the overrides applied.
func (d Durations) Apply(base phase.Durations) phase.Durations {
	out := base.Clone()

	for p, v := range map[phase.Phase]*int{
		phase.Prep:           d.Prep,
		phase.Positioning:    d.Positioning,
		phase.Eccentric:      d.Eccentric,
		phase.Concentric:     d.Concentric,
		phase.FinalEccentric: d.FinalEccentric,
		phase.Rest:           d.Rest,
	} {
		if v != nil {
			out[p] = *v
		}
	}

	return out
}

// Load reads a routine file.
func Load(path string) (Routine, error) {
	f, err := os.Open(path) //nolint:gosec // user-supplied routine file
	if err != nil {
		return Routine{}, fmt.Errorf("failed to open routine: %w", err)
	}
	defer f.Close()

	r, err := Parse(f)
	if err != nil {
		return Routine{}, fmt.Errorf("failed to load routine %s: %w", path, err)
	}

	return r, nil
}

// Parse decodes and validates a routine. Unknown fields are rejected.
func Parse(rd io.Reader) (Routine, error) {
	dec := yaml.NewDecoder(rd)
	dec.KnownFields(true)

	var r Routine
	if err := dec.Decode(&r); err != nil {
		return Routine{}, fmt.Errorf("failed to parse routine: %w", err)
	}

	if err := r.Validate(); err != nil {
		return Routine{}, err
	}

	return r, nil
}

// Encode writes r as YAML.
func (r Routine) Encode(w io.Writer) error {
	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode routine: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode routine: %w", err)
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write routine: %w", err)
	}

	return nil
}

// Validate checks the routine can run with the default durations.
func (r Routine) Validate() error {
	if err := r.Workout().Validate(); err != nil {
		return fmt.Errorf("invalid routine: %w", err)
	}

	if err := r.Durations.Apply(phase.DefaultDurations()).Validate(); err != nil {
		return fmt.Errorf("invalid routine: %w", err)
	}

	return nil
}

// Workout converts the routine to a session workout.
func (r Routine) Workout() session.Workout {
	w := session.Workout{Name: r.Name, Entries: make([]session.Entry, len(r.Exercises))}

	for i, e := range r.Exercises {
		w.Entries[i] = session.Entry{
			Exercise: phase.Exercise{
				Name:            strings.TrimSpace(e.Name),
				IsBodyweight:    e.Bodyweight,
				IsNegativeOnly:  e.NegativeOnly,
				NegativeSeconds: e.NegativeSeconds,
			},
			Aliases: slices.Clone(e.Aliases),
			Weight:  e.Weight,
		}
	}

	return w
}

var builtins = map[string]Routine{
	"a": {
		Name: "Workout A",
		Exercises: exercises(
			"Leg Press", "Pulldown", "Chest Press", "Overhead Press",
			"Seated Row", "Leg Curl", "Bicep Curl", "Tricep Extension",
		),
	},
	"b": {
		Name: "Workout B",
		Exercises: exercises(
			"Leg Extension", "Cable Row", "Incline Press", "Lateral Raise",
			"Calf Raise", "Preacher Curl", "Tricep Pushdown", "Ab Machine",
		),
	},
}

func exercises(names ...string) []Exercise {
	out := make([]Exercise, len(names))
	for i, n := range names {
		out[i] = Exercise{Name: n}
	}

	return out
}

// Builtin returns a stock routine by name ("a" or "b").
func Builtin(name string) (Routine, error) {
	r, ok := builtins[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Routine{}, fmt.Errorf("%w: %s", ErrUnknownRoutine, name)
	}

	r.Exercises = slices.Clone(r.Exercises)

	return r, nil
}

// Default returns Workout A.
func Default() Routine {
	r, _ := Builtin("a")
	return r
}

// BuiltinNames lists the stock routines.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}

	slices.Sort(names)

	return names
}
