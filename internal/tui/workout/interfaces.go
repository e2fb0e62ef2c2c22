package workout

import (
	"context"

	"github.com/alkime/onerep/internal/command"
	"github.com/alkime/onerep/internal/session"
)

// Controls is the session the screen drives.
type Controls interface {
	ApplyManual(ctl session.Control) session.Snapshot
	Snapshot() session.Snapshot
}

// Listener captures one voice command.
type Listener interface {
	Listen(ctx context.Context) (command.Command, error)
}
