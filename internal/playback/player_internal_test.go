package playback

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/faiface/beep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mutexLock struct {
	sync.Mutex
}

var testFormat = beep.Format{SampleRate: 8000, NumChannels: 2, Precision: 2}

func constant(v float64, n int) beep.Streamer {
	left := n

	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if left == 0 {
			return 0, false
		}

		k := min(left, len(samples))
		for i := range k {
			samples[i] = [2]float64{v, v}
		}

		left -= k

		return k, true
	})
}

func bufferOf(v float64, n int) *beep.Buffer {
	b := beep.NewBuffer(testFormat)
	b.Append(constant(v, n))

	return b
}

func testPlayer() *Player {
	return newPlayer(testFormat.SampleRate, &mutexLock{}, map[string]*beep.Buffer{
		"phase_rest": bufferOf(0.5, 100),
		"num_3":      bufferOf(-0.5, 100),
	})
}

func stream(p *Player, n int) [][2]float64 {
	samples := make([][2]float64, n)

	p.lock.Lock()
	defer p.lock.Unlock()

	p.queue.Stream(samples)

	return samples
}

func TestPlayer_PlaysInOrder(t *testing.T) {
	t.Parallel()

	p := testPlayer()
	require.NoError(t, p.Play("phase_rest"))
	require.NoError(t, p.Play("num_3"))
	assert.Equal(t, 2, p.Pending())

	samples := stream(p, 250)

	assert.InDelta(t, 0.5, samples[0][0], 1e-3)
	assert.InDelta(t, 0.5, samples[99][1], 1e-3)
	assert.InDelta(t, -0.5, samples[100][0], 1e-3)
	assert.InDelta(t, -0.5, samples[199][1], 1e-3)
	assert.Equal(t, [2]float64{}, samples[200], "silence once the queue is empty")
	assert.Equal(t, [2]float64{}, samples[249])
	assert.Zero(t, p.Pending())
}

func TestPlayer_StopAll(t *testing.T) {
	t.Parallel()

	p := testPlayer()
	require.NoError(t, p.Play("phase_rest"))
	require.NoError(t, p.Play("num_3"))

	stream(p, 10)
	p.StopAll()
	assert.Zero(t, p.Pending())

	samples := stream(p, 10)
	for _, s := range samples {
		assert.Equal(t, [2]float64{}, s)
	}
}

func TestPlayer_UnknownCue(t *testing.T) {
	t.Parallel()

	p := testPlayer()

	err := p.Play("encourage_almost_there")
	require.ErrorIs(t, err, ErrUnknownCue)
	assert.Zero(t, p.Pending())
	assert.Equal(t, []string{"num_3", "phase_rest"}, p.Cues())
}

func TestPlayer_PlayFileMissing(t *testing.T) {
	t.Parallel()

	p := testPlayer()

	err := p.PlayFile(filepath.Join(t.TempDir(), "say.mp3"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadDir_SkipsUnusableFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.mp3"), []byte("not audio"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.mp3"), 0o750))

	cues, err := loadDir(dir, testFormat.SampleRate)
	require.NoError(t, err)
	assert.Empty(t, cues)

	_, err = loadDir(filepath.Join(dir, "missing"), testFormat.SampleRate)
	require.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "cue.mp3")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	require.NoError(t, Config{Dir: dir}.WithDefaults().Validate())
	assert.Equal(t, DefaultSampleRate, Config{}.WithDefaults().SampleRate)

	require.Error(t, Config{}.WithDefaults().Validate())
	require.Error(t, Config{Dir: filepath.Join(dir, "missing")}.WithDefaults().Validate())
	require.Error(t, Config{Dir: file}.WithDefaults().Validate())
	require.Error(t, Config{Dir: dir, SampleRate: -1}.Validate())
}

func TestLogPlayer(t *testing.T) {
	t.Parallel()

	var l LogPlayer
	require.NoError(t, l.Play("phase_get_ready"))
	require.NoError(t, l.Play("num_5"))
	l.StopAll()

	assert.Equal(t, []string{"phase_get_ready", "num_5"}, l.Played())
}
