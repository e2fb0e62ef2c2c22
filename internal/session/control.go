package session

import "github.com/alkime/onerep/internal/command"

// Action is a manual control. Actions that have a voice equivalent are
// dispatched through the same path as the voice command.
type Action int

const (
	ActionStart Action = iota
	ActionNext
	ActionSkip
	ActionSkipRest
	ActionPause
	ActionResume
	ActionTogglePause
	ActionStop
	ActionDone
	ActionAnotherSet
	ActionLogWeight
	ActionReset
	ActionMarkFailure
)

var actionNames = map[Action]string{
	ActionStart:       "start",
	ActionNext:        "next",
	ActionSkip:        "skip",
	ActionSkipRest:    "skip-rest",
	ActionPause:       "pause",
	ActionResume:      "resume",
	ActionTogglePause: "toggle-pause",
	ActionStop:        "stop",
	ActionDone:        "done",
	ActionAnotherSet:  "another-set",
	ActionLogWeight:   "log-weight",
	ActionReset:       "reset",
	ActionMarkFailure: "mark-failure",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}

	return "unknown"
}

// ParseAction maps a name produced by String back to an Action.
func ParseAction(name string) (Action, bool) {
	for a, n := range actionNames {
		if n == name {
			return a, true
		}
	}

	return 0, false
}

// Control is a manual control. Exercise is read by ActionStart, Weight by
// ActionLogWeight and Failure by ActionMarkFailure.
type Control struct {
	Action   Action
	Exercise string
	Weight   int
	Failure  bool
}

var voiceEquivalent = map[Action]command.Kind{
	ActionStart:      command.StartExercise,
	ActionNext:       command.NextExercise,
	ActionSkip:       command.SkipPhase,
	ActionSkipRest:   command.SkipRest,
	ActionPause:      command.Pause,
	ActionResume:     command.Resume,
	ActionStop:       command.Stop,
	ActionDone:       command.Done,
	ActionAnotherSet: command.AnotherSet,
	ActionLogWeight:  command.LogWeight,
}

// Command returns the voice command with the same meaning, if there is one.
func (c Control) Command() (command.Command, bool) {
	kind, ok := voiceEquivalent[c.Action]
	if !ok {
		return command.Command{}, false
	}

	return command.Command{Kind: kind, Exercise: c.Exercise, Weight: c.Weight}, true
}
