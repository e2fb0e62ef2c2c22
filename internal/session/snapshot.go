package session

import (
	"fmt"
	"time"

	"github.com/alkime/onerep/internal/command"
	"github.com/alkime/onerep/internal/phase"
	"github.com/alkime/onerep/internal/recognition"
)

// Snapshot is a copy of the session state for display.
type Snapshot struct {
	Workout   string
	Phase     phase.Phase
	Remaining int
	Duration  int
	Running   bool
	Paused    bool
	Active    bool
	// Progress is the fraction of the current phase that has elapsed.
	Progress float64

	// Current indexes Entries, or is -1 with no exercise loaded.
	Current        int
	Exercise       string
	Next           string
	Entries        []Entry
	CompletedCount int
	Elapsed        time.Duration
	Finished       bool

	Listening   bool
	Heard       recognition.Outcome
	LastCommand command.Command
	Message     string
}

// Resting reports whether the session is in a rest period.
func (s Snapshot) Resting() bool {
	return s.Active && s.Phase == phase.Rest
}

// FormatElapsed renders d as m:ss.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	secs := int(d / time.Second)

	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func progress(st phase.State) float64 {
	if !st.Active() {
		return 0
	}

	if st.Duration <= 0 {
		return 1
	}

	return float64(st.Duration-st.Remaining) / float64(st.Duration)
}
