package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/alkime/onerep/internal/audio"
	"github.com/alkime/onerep/internal/command"
	"github.com/alkime/onerep/internal/keyring"
	"github.com/alkime/onerep/internal/routine"
)

// ParseCmd prints the command a transcript parses to.
type ParseCmd struct {
	Text    []string `arg:"" help:"Transcript, e.g. hey one rep start leg press"`
	Routine string   `flag:"" default:"a" help:"Routine whose exercises form the vocabulary"`
}

// Run executes the parse command.
func (c *ParseCmd) Run() error {
	r, err := loadRoutine(c.Routine)
	if err != nil {
		return err
	}

	vocab, err := r.Workout().Vocabulary()
	if err != nil {
		return err
	}

	text := strings.Join(c.Text, " ")
	if rest, ok := command.AfterWakeWord(text); ok {
		text = rest
	}

	cmd := command.NewParser(command.NewStore(vocab)).Parse(text)

	fmt.Printf("%s\n", cmd)

	return nil
}

// HistoryCmd shows logged sets for an exercise.
type HistoryCmd struct {
	Exercise []string `arg:"" help:"Exercise name"`
	Limit    int      `flag:"" default:"20" help:"Number of sets to show"`
	DBPath   string   `flag:"" env:"DB_PATH" help:"Set log database (default: working directory)"`
}

// Run executes the history command.
func (c *HistoryCmd) Run() error {
	store, err := openSetLog(c.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	name := strings.Join(c.Exercise, " ")

	sets, err := store.History(context.Background(), name, c.Limit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if len(sets) == 0 {
		fmt.Printf("No sets logged for %s\n", name)
		return nil
	}

	for _, s := range sets {
		weight := "bodyweight"
		if s.Weight > 0 {
			weight = fmt.Sprintf("%d lb", s.Weight)
		}

		line := fmt.Sprintf("%s  %-12s %s", s.LoggedAt.Local().Format(time.DateTime), s.Exercise, weight)
		if s.ReachedFailure {
			line += "  (failure)"
		}

		fmt.Println(line)
	}

	return nil
}

// RoutineCmd prints a builtin routine as YAML, a starting point for a custom one.
type RoutineCmd struct {
	Name string `arg:"" optional:"" default:"a" help:"Builtin routine name (a or b)"`
}

// Run executes the routine command.
func (c *RoutineCmd) Run() error {
	r, err := routine.Builtin(c.Name)
	if err != nil {
		return fmt.Errorf("%w (builtin routines: %v)", err, routine.BuiltinNames())
	}

	return r.Encode(os.Stdout)
}

// DevicesCmd lists available audio capture devices.
type DevicesCmd struct{}

// Run executes the devices command.
func (dcmd *DevicesCmd) Run() error {
	slog.Info("Enumerating audio devices...")

	devices, err := audio.EnumerateDevices(context.Background())
	if err != nil {
		return fmt.Errorf("failed to enumerate audio devices: %w", err)
	}

	for _, dev := range devices {
		slog.Info("Audio Device",
			"name", dev.Name,
			"isDefault", dev.IsDefault,
			"formatCount", dev.FormatCount,
			"formats", dev.Formats,
		)
	}

	return nil
}

// ConfigCmd groups configuration-related subcommands.
type ConfigCmd struct {
	SetKey   SetKeyCmd   `cmd:"" help:"Store an API key in system keychain"`
	ListKeys ListKeysCmd `cmd:"" name:"list-keys" help:"Show which API keys are configured"`
}

// SetKeyCmd stores an API key in the system keychain.
type SetKeyCmd struct {
	Service string `arg:"" enum:"openai" help:"Service name (openai)"`
	Secret  string `arg:"" help:"API key value"`
}

// Run executes the set-key command.
func (c *SetKeyCmd) Run() error {
	if strings.TrimSpace(c.Secret) == "" {
		return errors.New("API key cannot be empty")
	}

	apiKey, err := keyring.APIKeyFromServiceName(c.Service)
	if err != nil {
		return fmt.Errorf("invalid service: %w", err)
	}

	if err := keyring.Set(apiKey, c.Secret); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}

	fmt.Printf("%s API key stored in keychain\n", c.Service)

	return nil
}

// ListKeysCmd shows which API keys are configured.
type ListKeysCmd struct{}

// Run executes the list-keys command.
//
//nolint:unparam // error return required by Kong interface
func (c *ListKeysCmd) Run() error {
	allSet := true

	for _, apiKey := range keyring.AllAPIKeys() {
		if keyring.IsSet(apiKey) {
			fmt.Printf("%s: configured\n", apiKey.DisplayName())
		} else {
			fmt.Printf("%s: not set\n", apiKey.DisplayName())
			allSet = false
		}
	}

	if !allSet {
		fmt.Println("\nRun 'coach config set-key <service> <key>' to configure.")
	}

	return nil
}
