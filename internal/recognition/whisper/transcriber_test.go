package whisper_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alkime/onerep/internal/recognition/whisper"
)

type captured struct {
	mu       sync.Mutex
	path     string
	model    string
	language string
	prompt   string
	file     []byte
	auth     string
}

func newServer(t *testing.T, status int, body string) (*httptest.Server, *captured) {
	t.Helper()

	c := &captured{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		defer c.mu.Unlock()

		c.path = r.URL.Path
		c.auth = r.Header.Get("Authorization")

		if err := r.ParseMultipartForm(1 << 20); err == nil {
			c.model = r.FormValue("model")
			c.language = r.FormValue("language")
			c.prompt = r.FormValue("prompt")

			if f, _, err := r.FormFile("file"); err == nil {
				c.file, _ = io.ReadAll(f)
				_ = f.Close()
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv, c
}

func writeAudio(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "utterance.mp3")
	require.NoError(t, os.WriteFile(path, []byte("fake mp3 frames"), 0o600))

	return path
}

func TestTranscriber_NotConfigured(t *testing.T) {
	t.Parallel()

	tr := whisper.NewTranscriber(whisper.Config{})
	assert.False(t, tr.Configured())

	text, err := tr.Transcribe(context.Background(), "/does/not/matter.mp3")
	require.ErrorIs(t, err, whisper.ErrNotConfigured)
	assert.Empty(t, text)
}

func TestTranscriber_Transcribe(t *testing.T) {
	t.Parallel()

	srv, c := newServer(t, http.StatusOK, `{"text":" Start pulldown. "}`)

	tr := whisper.NewTranscriber(whisper.Config{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/",
		Hints:   func() []string { return []string{"pulldown", "skip rest"} },
	})
	require.True(t, tr.Configured())

	text, err := tr.Transcribe(context.Background(), writeAudio(t))
	require.NoError(t, err)
	assert.Equal(t, "Start pulldown.", text)

	c.mu.Lock()
	defer c.mu.Unlock()

	assert.Equal(t, "/audio/transcriptions", c.path)
	assert.Equal(t, "Bearer test-key", c.auth)
	assert.Equal(t, "whisper-1", c.model)
	assert.Equal(t, "en", c.language)
	assert.Contains(t, c.prompt, "pulldown, skip rest")
	assert.Equal(t, []byte("fake mp3 frames"), c.file)
}

func TestTranscriber_APIError(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t, http.StatusUnauthorized, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)

	tr := whisper.NewTranscriber(whisper.Config{APIKey: "wrong", BaseURL: srv.URL + "/"})

	text, err := tr.Transcribe(context.Background(), writeAudio(t))
	require.Error(t, err)
	assert.Empty(t, text)
}

func TestTranscriber_MissingFile(t *testing.T) {
	t.Parallel()

	tr := whisper.NewTranscriber(whisper.Config{APIKey: "k", BaseURL: "http://127.0.0.1:1/"})

	_, err := tr.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.mp3"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open audio file")
}
