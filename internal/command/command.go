// Package command turns a spoken transcript into one workout command.
package command

import "fmt"

// Kind identifies a command.
type Kind int

const (
	Unknown Kind = iota
	StartExercise
	NextExercise
	SkipPhase
	SkipRest
	Pause
	Resume
	Stop
	Done
	AnotherSet
	LogWeight
)

var kindNames = map[Kind]string{
	Unknown:       "unknown",
	StartExercise: "start-exercise",
	NextExercise:  "next-exercise",
	SkipPhase:     "skip-phase",
	SkipRest:      "skip-rest",
	Pause:         "pause",
	Resume:        "resume",
	Stop:          "stop",
	Done:          "done",
	AnotherSet:    "another-set",
	LogWeight:     "log-weight",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return "unknown"
}

// ParseKind maps a name produced by String back to a Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}

	return Unknown, false
}

// Command is a parsed voice command. Exercise is set for StartExercise,
// Weight for LogWeight, and Raw always carries the cleaned transcript.
type Command struct {
	Kind     Kind
	Exercise string
	Weight   int
	Raw      string
}

func (c Command) String() string {
	switch c.Kind {
	case StartExercise:
		return fmt.Sprintf("%s(%s)", c.Kind, c.Exercise)
	case LogWeight:
		return fmt.Sprintf("%s(%d)", c.Kind, c.Weight)
	case Unknown:
		return fmt.Sprintf("%s(%q)", c.Kind, c.Raw)
	default:
		return c.Kind.String()
	}
}
