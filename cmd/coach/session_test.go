package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alkime/onerep/internal/config"
	"github.com/alkime/onerep/internal/routine"
)

func TestLoadRoutine(t *testing.T) {
	r, err := loadRoutine("B")
	require.NoError(t, err)
	assert.Equal(t, "Workout B", r.Name)

	path := filepath.Join(t.TempDir(), "mine.yaml")
	//nolint:gosec // Test file
	require.NoError(t, os.WriteFile(path, []byte("name: Mine\nexercises:\n  - name: Squat\n"), 0o644))

	r, err = loadRoutine(path)
	require.NoError(t, err)
	assert.Equal(t, "Mine", r.Name)
	require.Len(t, r.Exercises, 1)
	assert.Equal(t, "Squat", r.Exercises[0].Name)

	_, err = loadRoutine("c")
	require.ErrorIs(t, err, routine.ErrUnknownRoutine)
}

func TestSessionCmd_Override(t *testing.T) {
	cfg := &config.Config{RemoteAddr: ":9000", CueDir: "/env/cues"}

	cmd := &SessionCmd{Remote: ":8080", MicDevice: "USB Mic"}
	cmd.override(cfg)

	assert.Equal(t, ":8080", cfg.RemoteAddr)
	assert.Equal(t, "/env/cues", cfg.CueDir)
	assert.Equal(t, "USB Mic", cfg.MicDevice)
	assert.Empty(t, cfg.OpenAIAPIKey)
}

func TestNewCuePlayer_FallsBackToLog(t *testing.T) {
	player, closePlayer := newCuePlayer(&config.Config{})
	defer closePlayer()

	require.NoError(t, player.Play("phase_rest"))

	player, closePlayer = newCuePlayer(&config.Config{CueDir: filepath.Join(t.TempDir(), "missing")})
	defer closePlayer()

	require.NoError(t, player.Play("phase_rest"))
}
