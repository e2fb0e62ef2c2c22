package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alkime/onerep/internal/command"
	"github.com/alkime/onerep/internal/phase"
)

var (
	// ErrEmptyWorkout is returned when a workout has no exercises.
	ErrEmptyWorkout = errors.New("workout has no exercises")
	// ErrExerciseNotFound is returned when a name matches no workout exercise.
	ErrExerciseNotFound = errors.New("exercise not found")
)

// Entry is one exercise in a workout and its progress.
type Entry struct {
	Exercise       phase.Exercise
	Aliases        []string
	Weight         int
	ReachedFailure bool
	Completed      bool
	Logged         bool
}

// Workout is an ordered list of exercises.
type Workout struct {
	Name    string
	Entries []Entry
}

// Validate rejects empty workouts, unnamed or duplicate exercises, and
// negative per-exercise lengths.
func (w Workout) Validate() error {
	if len(w.Entries) == 0 {
		return ErrEmptyWorkout
	}

	seen := make(map[string]bool, len(w.Entries))

	for i, e := range w.Entries {
		name := strings.TrimSpace(e.Exercise.Name)
		if name == "" {
			return fmt.Errorf("exercise %d: %w", i+1, phase.ErrNoExercise)
		}

		key := strings.ToLower(name)
		if seen[key] {
			return fmt.Errorf("duplicate exercise %q", name)
		}

		seen[key] = true

		if e.Exercise.NegativeSeconds < 0 {
			return fmt.Errorf("%w: negative-only length for %s is negative", phase.ErrInvalidDurations, name)
		}
	}

	return nil
}

// Clone returns a deep copy.
func (w Workout) Clone() Workout {
	out := Workout{Name: w.Name, Entries: make([]Entry, len(w.Entries))}

	for i, e := range w.Entries {
		e.Aliases = append([]string(nil), e.Aliases...)
		out.Entries[i] = e
	}

	return out
}

// Vocabulary builds the alias vocabulary for the workout's exercises.
func (w Workout) Vocabulary() (*command.Vocabulary, error) {
	entries := make([]command.Entry, len(w.Entries))
	for i, e := range w.Entries {
		entries[i] = command.Entry{Name: e.Exercise.Name, Aliases: e.Aliases}
	}

	v, err := command.NewVocabulary(entries, command.BuiltinAliases())
	if err != nil {
		return nil, fmt.Errorf("failed to build vocabulary: %w", err)
	}

	return v, nil
}

// Find resolves a spoken exercise name: a case-insensitive exact match first,
// then the first exercise whose name contains, or is contained in, name.
func (w Workout) Find(name string) (int, error) {
	q := strings.ToLower(strings.TrimSpace(name))
	if q == "" {
		return -1, ErrExerciseNotFound
	}

	for i, e := range w.Entries {
		if strings.ToLower(e.Exercise.Name) == q {
			return i, nil
		}
	}

	for i, e := range w.Entries {
		n := strings.ToLower(e.Exercise.Name)
		if strings.Contains(n, q) || strings.Contains(q, n) {
			return i, nil
		}
	}

	return -1, fmt.Errorf("%w: %s", ErrExerciseNotFound, name)
}

// Next returns the first incomplete exercise after current, wrapping to the
// start. With no current exercise the search starts at the top.
func (w Workout) Next(current int) (int, bool) {
	n := len(w.Entries)
	if n == 0 {
		return -1, false
	}

	if current < 0 || current >= n {
		for i, e := range w.Entries {
			if !e.Completed {
				return i, true
			}
		}

		return -1, false
	}

	for step := 1; step < n; step++ {
		i := (current + step) % n
		if !w.Entries[i].Completed {
			return i, true
		}
	}

	return -1, false
}

// CompletedCount returns how many exercises are complete.
func (w Workout) CompletedCount() int {
	count := 0

	for _, e := range w.Entries {
		if e.Completed {
			count++
		}
	}

	return count
}

// SeedWeights fills each entry's weight from the last logged set. Entries
// that already carry a weight are left alone.
func (w *Workout) SeedWeights(ctx context.Context, h WeightHistory) error {
	for i := range w.Entries {
		e := &w.Entries[i]
		if e.Weight != 0 {
			continue
		}

		weight, ok, err := h.LastWeight(ctx, e.Exercise.Name)
		if err != nil {
			return fmt.Errorf("failed to load last weight for %s: %w", e.Exercise.Name, err)
		}

		if ok {
			e.Weight = weight
		}
	}

	return nil
}
