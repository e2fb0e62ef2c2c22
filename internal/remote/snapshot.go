package remote

import (
	"github.com/alkime/onerep/internal/command"
	"github.com/alkime/onerep/internal/session"
)

type entryJSON struct {
	Name           string `json:"name"`
	Weight         int    `json:"weight"`
	Bodyweight     bool   `json:"bodyweight"`
	NegativeOnly   bool   `json:"negative_only"`
	Completed      bool   `json:"completed"`
	Logged         bool   `json:"logged"`
	ReachedFailure bool   `json:"reached_failure"`
}

type heardJSON struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Kind       string  `json:"kind"`
}

// snapshotJSON is the wire form of session.Snapshot.
type snapshotJSON struct {
	Workout        string      `json:"workout"`
	Phase          string      `json:"phase"`
	PhaseName      string      `json:"phase_name"`
	Remaining      int         `json:"remaining"`
	Duration       int         `json:"duration"`
	Progress       float64     `json:"progress"`
	Running        bool        `json:"running"`
	Paused         bool        `json:"paused"`
	Active         bool        `json:"active"`
	Exercise       string      `json:"exercise,omitempty"`
	Next           string      `json:"next,omitempty"`
	Entries        []entryJSON `json:"entries"`
	CompletedCount int         `json:"completed_count"`
	Elapsed        string      `json:"elapsed"`
	ElapsedSeconds int         `json:"elapsed_seconds"`
	Finished       bool        `json:"finished"`
	Listening      bool        `json:"listening"`
	Heard          *heardJSON  `json:"heard,omitempty"`
	LastCommand    string      `json:"last_command,omitempty"`
	Message        string      `json:"message,omitempty"`
}

func toJSON(s session.Snapshot) snapshotJSON {
	out := snapshotJSON{
		Workout:        s.Workout,
		Remaining:      s.Remaining,
		Duration:       s.Duration,
		Progress:       s.Progress,
		Running:        s.Running,
		Paused:         s.Paused,
		Active:         s.Active,
		Exercise:       s.Exercise,
		Next:           s.Next,
		Entries:        make([]entryJSON, 0, len(s.Entries)),
		CompletedCount: s.CompletedCount,
		Elapsed:        session.FormatElapsed(s.Elapsed),
		ElapsedSeconds: int(s.Elapsed.Seconds()),
		Finished:       s.Finished,
		Listening:      s.Listening,
		Message:        s.Message,
	}

	if s.Active {
		out.Phase = s.Phase.String()
		out.PhaseName = s.Phase.DisplayName()
	}

	for _, e := range s.Entries {
		out.Entries = append(out.Entries, entryJSON{
			Name:           e.Exercise.Name,
			Weight:         e.Weight,
			Bodyweight:     e.Exercise.IsBodyweight,
			NegativeOnly:   e.Exercise.IsNegativeOnly,
			Completed:      e.Completed,
			Logged:         e.Logged,
			ReachedFailure: e.ReachedFailure,
		})
	}

	if s.Heard.Text != "" {
		out.Heard = &heardJSON{Text: s.Heard.Text, Confidence: s.Heard.Confidence, Kind: s.Heard.Kind.String()}
	}

	if s.LastCommand.Kind != command.Unknown || s.LastCommand.Raw != "" {
		out.LastCommand = s.LastCommand.String()
	}

	return out
}
