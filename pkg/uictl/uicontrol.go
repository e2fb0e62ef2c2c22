// Package uictl defines read-only controls that UI components poll.
package uictl

import "golang.org/x/exp/constraints"

type Number interface {
	constraints.Integer | constraints.Float
}

// Levels is a control that reads the most recent window of samples.
type Levels[N Number] interface {
	Read() []N
}
