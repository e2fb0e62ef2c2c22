// Command coach runs a timed single-set workout with voice control.
package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
)

// CLI defines the coach command structure.
type CLI struct {
	// Default command (runs when no subcommand given)
	Session SessionCmd `cmd:"" default:"withargs" help:"Run a workout session in the terminal"`

	// Subcommands
	Parse   ParseCmd   `cmd:"" help:"Print the command a transcript parses to"`
	History HistoryCmd `cmd:"" help:"Show logged sets for an exercise"`
	Routine RoutineCmd `cmd:"" help:"Print a builtin routine as YAML"`
	Devices DevicesCmd `cmd:"" help:"List available audio capture devices"`
	Config  ConfigCmd  `cmd:"" help:"Manage configuration"`
}

func main() {
	// Text logger for one-shot commands; the session replaces it with a file logger.
	//nolint:exhaustruct // Using default values for other HandlerOptions fields
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))

	cli := &CLI{} //nolint:exhaustruct // Kong fills in command fields
	ctx := kong.Parse(cli,
		kong.Name("coach"),
		kong.Description("Voice-controlled timer for slow single-set strength training."),
		kong.UsageOnError(),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
	os.Exit(0)
}
