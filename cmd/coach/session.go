package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alkime/onerep/internal/audio"
	"github.com/alkime/onerep/internal/clock"
	"github.com/alkime/onerep/internal/command"
	"github.com/alkime/onerep/internal/config"
	"github.com/alkime/onerep/internal/cue"
	"github.com/alkime/onerep/internal/keyring"
	"github.com/alkime/onerep/internal/logger"
	"github.com/alkime/onerep/internal/playback"
	"github.com/alkime/onerep/internal/recognition"
	"github.com/alkime/onerep/internal/recognition/gspeech"
	"github.com/alkime/onerep/internal/recognition/whisper"
	"github.com/alkime/onerep/internal/remote"
	"github.com/alkime/onerep/internal/routine"
	"github.com/alkime/onerep/internal/session"
	"github.com/alkime/onerep/internal/setlog"
	"github.com/alkime/onerep/internal/tui/workout"
	"github.com/alkime/onerep/internal/workdir"
)

const snapshotBuffer = 16

// SessionCmd is the default command that runs a workout in the terminal.
type SessionCmd struct {
	Routine      string `arg:"" optional:"" default:"a" help:"Builtin routine (a or b) or path to a YAML routine"`
	Remote       string `flag:"" env:"REMOTE_ADDR" help:"Serve the remote control on this address, e.g. :8080"`
	CueDir       string `flag:"" env:"CUE_DIR" help:"Directory of mp3 cue files; without it cues are only logged"`
	MicDevice    string `flag:"" env:"MIC_DEVICE" help:"Capture device name (default: system default)"`
	NoVoice      bool   `flag:"" help:"Disable voice commands"`
	OpenAIAPIKey string `flag:"" env:"OPENAI_API_KEY" help:"OpenAI API key for Whisper fallback and spoken feedback"`
}

// Run executes the session command.
//
//nolint:funlen // CLI command with multiple setup steps
func (c *SessionCmd) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	c.override(cfg)

	// The terminal UI owns stdout.
	logDir, err := workdir.Prep(workdir.Logs)
	if err != nil {
		return fmt.Errorf("failed to prepare working directory: %w", err)
	}

	logFile, err := logger.OpenFile(logDir, "session.log")
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	log := logger.SetupLogger(cfg, logFile)

	r, err := loadRoutine(c.Routine)
	if err != nil {
		return err
	}

	w := r.Workout()
	durations := r.Durations.Apply(cfg.Durations())

	store, err := openSetLog(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := w.SeedWeights(ctx, store); err != nil {
		log.Warn("failed to seed weights from history", "error", err)
	}

	player, closePlayer := newCuePlayer(cfg)
	defer closePlayer()

	encouragement := cfg.Encouragement
	if len(encouragement) == 0 {
		encouragement = cue.DefaultEncouragement()
	}

	cues := cue.NewScheduler(player, cue.WithEncouragement(encouragement))

	apiKey := keyring.Resolve(cfg.OpenAIAPIKey, keyring.OpenAI)
	feedback, voice := newFeedback(cfg, apiKey, player)

	vocab := command.NewStore(nil)

	var (
		listener session.Listener
		mic      *audio.Microphone
	)

	if !c.NoVoice {
		var closeVoice func()

		listener, mic, closeVoice = newListener(ctx, cfg, apiKey, vocab)
		defer closeVoice()
	}

	ctrl, err := session.NewController(w, durations, session.Deps{
		Clock:      clock.New(),
		Cues:       cues,
		Listener:   listener,
		SetLog:     store,
		Feedback:   feedback,
		Vocabulary: vocab,
	})
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	updates := make(chan session.Snapshot, snapshotBuffer)
	if err := ctrl.Subscribe(updates); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	wg := sync.WaitGroup{}

	wg.Go(func() {
		if err := ctrl.Run(runCtx); err != nil {
			log.Error("session error", "error", err)
		}
	})

	if voice != nil {
		wg.Go(func() {
			if err := voice.Run(runCtx); err != nil {
				log.Error("spoken feedback error", "error", err)
			}
		})
	}

	if cfg.RemoteAddr != "" {
		srv := remote.New(cfg, log, ctrl)

		wg.Go(func() {
			if err := srv.Run(runCtx); err != nil {
				log.Error("remote control error", "error", err)
			}
		})
	}

	log.Info("Starting session",
		"routine", r.Name,
		"exercises", len(w.Entries),
		"voice", listener != nil,
		"remote", cfg.RemoteAddr,
	)

	opts := workout.Options{Listener: ctrl}
	if mic != nil {
		opts.Levels = mic
	}

	p := tea.NewProgram(workout.New(runCtx, ctrl, updates, opts), tea.WithAltScreen(), tea.WithContext(runCtx))

	_, err = p.Run()

	ctrl.Stop()
	cancel()
	wg.Wait()

	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run session UI: %w", err)
	}

	s := ctrl.Snapshot()
	fmt.Printf("%d/%d exercises in %s. bye!\n", s.CompletedCount, len(s.Entries), session.FormatElapsed(s.Elapsed))

	return nil
}

// override applies command-line flags over the environment.
func (c *SessionCmd) override(cfg *config.Config) {
	if c.Remote != "" {
		cfg.RemoteAddr = c.Remote
	}

	if c.CueDir != "" {
		cfg.CueDir = c.CueDir
	}

	if c.MicDevice != "" {
		cfg.MicDevice = c.MicDevice
	}

	if c.OpenAIAPIKey != "" {
		cfg.OpenAIAPIKey = c.OpenAIAPIKey
	}
}

// loadRoutine resolves a builtin name first, then a file path.
func loadRoutine(name string) (routine.Routine, error) {
	r, err := routine.Builtin(name)
	if err == nil {
		return r, nil
	}

	if _, statErr := os.Stat(name); statErr != nil {
		return routine.Routine{}, fmt.Errorf("%w (builtin routines: %v)", err, routine.BuiltinNames())
	}

	r, err = routine.Load(name)
	if err != nil {
		return routine.Routine{}, fmt.Errorf("failed to load routine: %w", err)
	}

	return r, nil
}

func openSetLog(path string) (*setlog.Store, error) {
	if path == "" {
		p, err := workdir.Path("sets.db")
		if err != nil {
			return nil, fmt.Errorf("failed to locate set log: %w", err)
		}

		path = p
	}

	store, err := setlog.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open set log: %w", err)
	}

	return store, nil
}

// newCuePlayer plays cues through the speaker when a cue directory is set
// and falls back to logging them.
func newCuePlayer(cfg *config.Config) (cue.Player, func()) {
	if cfg.CueDir == "" {
		slog.Info("no cue directory configured, cues will be logged")
		return &playback.LogPlayer{}, func() {}
	}

	p, err := playback.New(playback.Config{Dir: cfg.CueDir})
	if err != nil {
		slog.Warn("failed to start cue playback, cues will be logged", "error", err)
		return &playback.LogPlayer{}, func() {}
	}

	return p, p.Close
}

// voiceRunner is the background half of spoken feedback.
type voiceRunner interface {
	Run(ctx context.Context) error
}

// newFeedback speaks confirmations with OpenAI speech when a key and a
// speaker are available, and logs them otherwise.
func newFeedback(cfg *config.Config, apiKey string, player cue.Player) (session.Feedback, voiceRunner) {
	files, ok := player.(playback.FilePlayer)
	if !ok || apiKey == "" {
		return playback.LogVoice{}, nil
	}

	tts, err := playback.NewTTS(playback.TTSConfig{APIKey: apiKey, BaseURL: cfg.OpenAIBaseURL, Voice: cfg.TTSVoice})
	if err != nil {
		slog.Warn("spoken feedback disabled", "error", err)
		return playback.LogVoice{}, nil
	}

	dir, err := workdir.Prep(workdir.Voice)
	if err != nil {
		slog.Warn("spoken feedback disabled", "error", err)
		return playback.LogVoice{}, nil
	}

	v, err := playback.NewVoice(tts, files, dir)
	if err != nil {
		slog.Warn("spoken feedback disabled", "error", err)
		return playback.LogVoice{}, nil
	}

	return v, v
}

// newListener wires the microphone to both recognizers. Voice input is
// disabled, not fatal, when neither recognizer can be reached.
func newListener(
	ctx context.Context,
	cfg *config.Config,
	apiKey string,
	vocab *command.Store,
) (session.Listener, *audio.Microphone, func()) {
	nothing := func() {}

	devCfg := audio.DefaultDeviceConfig()
	devCfg.DeviceName = cfg.MicDevice

	mic, err := audio.NewMicrophone(devCfg)
	if err != nil {
		slog.Warn("voice input disabled", "error", err)
		return nil, nil, nothing
	}

	var (
		primary recognition.Engine
		closers []io.Closer
	)

	engine, err := gspeech.New(ctx, gspeech.Config{
		CredentialsFile: cfg.GoogleCredentials,
		LanguageCode:    cfg.SpeechLanguage,
		SampleRate:      devCfg.SampleRate,
		Hints:           vocab.Hints,
	})
	if err != nil {
		slog.Warn("streaming recognizer unavailable", "error", err)
	} else {
		primary = engine
		closers = append(closers, engine)
	}

	secondary := whisper.NewTranscriber(whisper.Config{
		APIKey:  apiKey,
		BaseURL: cfg.OpenAIBaseURL,
		Hints:   vocab.Hints,
	})

	if primary == nil && !secondary.Configured() {
		slog.Warn("voice input disabled: no recognizer configured")
		return nil, nil, nothing
	}

	utterances, err := workdir.Prep(workdir.Utterances)
	if err != nil {
		slog.Warn("utterance recording disabled", "error", err)
	}

	var recorder recognition.Recorder
	if utterances != "" {
		if rec, err := audio.NewUtteranceRecorder(utterances, audio.EncoderConfig{SampleRate: devCfg.SampleRate}); err == nil {
			recorder = rec
		} else {
			slog.Warn("utterance recording disabled", "error", err)
		}
	}

	arbiter, err := recognition.NewArbiter(recognition.Config{
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		CaptureCeiling:      cfg.CaptureCeiling,
		SecondaryTimeout:    cfg.SecondaryTimeout,
	}, mic, primary, secondary, recorder)
	if err != nil {
		slog.Warn("voice input disabled", "error", err)
		closeAll(closers)

		return nil, nil, nothing
	}

	return arbiter, mic, func() { closeAll(closers) }
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		if err := c.Close(); err != nil {
			slog.Warn("failed to close recognizer", "error", err)
		}
	}
}
