package session

import (
	"context"

	"github.com/alkime/onerep/internal/clock"
	"github.com/alkime/onerep/internal/phase"
	"github.com/alkime/onerep/internal/recognition"
)

// Clock drives the countdown. Stop must not block.
type Clock interface {
	Start(fn clock.TickFunc) uint64
	Stop()
}

// Cues plays the audio cues for the session.
type Cues interface {
	Enter(tr phase.Transition)
	Countdown(p phase.Phase, remaining, duration int)
	Announce(name string)
	Pause()
	Resume()
	Cancel()
}

// Listener captures and arbitrates one spoken utterance.
type Listener interface {
	Capture(ctx context.Context) (recognition.Outcome, error)
	Cancel()
}

// SetLog records completed sets.
type SetLog interface {
	RecordSet(ctx context.Context, exercise string, weight int, reachedFailure bool) error
}

// WeightHistory looks up the last logged weight for an exercise.
type WeightHistory interface {
	LastWeight(ctx context.Context, exercise string) (int, bool, error)
}

// Feedback speaks or displays a short confirmation. Say must not block.
type Feedback interface {
	Say(message string)
}
