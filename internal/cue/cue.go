// Package cue decides which audio prompts accompany a phase and when they play.
//
// The planning functions are pure; Scheduler turns a plan into timed calls on
// a Player and guarantees that nothing planned for an earlier phase entry
// plays after a later one.
package cue

import (
	"fmt"
	"strings"
	"time"

	"github.com/alkime/onerep/internal/phase"
)

// Cue names outside the per-phase and numeric sets.
const (
	Rest30          = "rest_30_sec"
	RestGetReady    = "rest_get_ready"
	WorkoutBegin    = "workout_begin"
	WorkoutComplete = "workout_complete"
)

// EncouragementDelay is how long after the phase cue the opening encouragement plays.
const EncouragementDelay = 500 * time.Millisecond

// Encouragement thresholds in seconds of phase length.
const (
	maxSilentPhase   = 7
	minMidpointPhase = 16
)

// DefaultEncouragement lists the stock encouragement cues.
func DefaultEncouragement() []string {
	return []string{
		"enc_doing_great",
		"enc_keep_going",
		"enc_almost_there",
		"enc_stay_strong",
		"enc_push_through",
		"enc_you_got_this",
		"enc_excellent_form",
		"enc_perfect",
		"enc_fantastic",
		"enc_thats_it",
		"enc_well_done",
		"enc_great_work",
		"enc_one_more",
		"enc_strong_finish",
	}
}

// Kind classifies a cue.
type Kind int

const (
	KindPhase Kind = iota
	KindEncouragement
	KindCountdown
	KindAnnouncement
)

func (k Kind) String() string {
	switch k {
	case KindPhase:
		return "phase"
	case KindEncouragement:
		return "encouragement"
	case KindCountdown:
		return "countdown"
	case KindAnnouncement:
		return "announcement"
	default:
		return "unknown"
	}
}

// Cue is one planned prompt. Delay is measured from phase entry.
type Cue struct {
	Name  string
	Kind  Kind
	Delay time.Duration
}

// Number returns the cue name for a spoken number.
func Number(n int) string {
	return fmt.Sprintf("num_%d", n)
}

// Exercise returns the announcement cue for an exercise name, e.g. "ex_leg_press".
func Exercise(name string) string {
	return "ex_" + strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// PlanEntry returns the cues for entering p with a phase length of duration
// seconds. pick chooses an encouragement cue and is called once per
// encouragement in the plan.
func PlanEntry(p phase.Phase, duration int, pick func() string) []Cue {
	plan := []Cue{{Name: p.CueName(), Kind: KindPhase}}

	if !p.IsWork() || duration <= maxSilentPhase || pick == nil {
		return plan
	}

	plan = append(plan, Cue{Name: pick(), Kind: KindEncouragement, Delay: EncouragementDelay})

	if duration >= minMidpointPhase {
		plan = append(plan, Cue{
			Name:  pick(),
			Kind:  KindEncouragement,
			Delay: time.Duration(duration) * time.Second / 2,
		})
	}

	return plan
}

// Countdown returns the cue for a remaining-seconds value reached by counting
// down in p. duration is the phase length; marks above it are never announced.
func Countdown(p phase.Phase, remaining, duration int) (string, bool) {
	if remaining <= 0 || remaining > duration {
		return "", false
	}

	if p == phase.Rest {
		switch {
		case remaining == 30:
			return Rest30, true
		case remaining == 20:
			return RestGetReady, true
		case remaining == 10 || remaining <= 5:
			return Number(remaining), true
		}

		return "", false
	}

	if !p.IsTimed() {
		return "", false
	}

	switch remaining {
	case 30, 20, 15, 10, 5, 4, 3, 2, 1:
		return Number(remaining), true
	}

	return "", false
}
