package gspeech

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alkime/onerep/internal/recognition"
)

// fakeStream scripts the server side of a streaming call.
type fakeStream struct {
	speechpb.Speech_StreamingRecognizeClient

	mu         sync.Mutex
	sent       []*speechpb.StreamingRecognizeRequest
	closedSend bool
	sendErr    error

	responses chan *speechpb.StreamingRecognizeResponse
}

func newFakeStream() *fakeStream {
	return &fakeStream{responses: make(chan *speechpb.StreamingRecognizeResponse, 8)}
}

func (f *fakeStream) Send(req *speechpb.StreamingRecognizeRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sendErr != nil {
		return f.sendErr
	}

	f.sent = append(f.sent, req)

	return nil
}

func (f *fakeStream) CloseSend() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closedSend = true

	return nil
}

func (f *fakeStream) Recv() (*speechpb.StreamingRecognizeResponse, error) {
	resp, ok := <-f.responses
	if !ok {
		return nil, io.EOF
	}

	return resp, nil
}

func (f *fakeStream) snapshot() ([]*speechpb.StreamingRecognizeRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]*speechpb.StreamingRecognizeRequest(nil), f.sent...), f.closedSend
}

func result(text string, conf float32, final bool) *speechpb.StreamingRecognizeResponse {
	return &speechpb.StreamingRecognizeResponse{
		Results: []*speechpb.StreamingRecognitionResult{{
			Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: text, Confidence: conf}},
			IsFinal:      final,
		}},
	}
}

func collect(t *testing.T, out <-chan recognition.Result) []recognition.Result {
	t.Helper()

	var got []recognition.Result

	timeout := time.After(2 * time.Second)

	for {
		select {
		case r, ok := <-out:
			if !ok {
				return got
			}

			got = append(got, r)
		case <-timeout:
			t.Fatal("result channel was not closed")
		}
	}
}

func TestRecognize_RelaysResultsAndAudio(t *testing.T) {
	t.Parallel()

	stream := newFakeStream()
	e := newEngine(Config{Hints: func() []string { return []string{"leg press", "skip rest"} }},
		func(context.Context) (speechpb.Speech_StreamingRecognizeClient, error) { return stream, nil })

	audio := make(chan []byte, 2)
	audio <- []byte{1, 2}
	audio <- []byte{3, 4}
	close(audio)

	out, err := e.Recognize(context.Background(), audio)
	require.NoError(t, err)

	stream.responses <- result("start leg", 0, false)
	stream.responses <- &speechpb.StreamingRecognizeResponse{
		SpeechEventType: speechpb.StreamingRecognizeResponse_END_OF_SINGLE_UTTERANCE,
	}
	stream.responses <- result(" start leg press ", 0.87, true)
	close(stream.responses)

	got := collect(t, out)
	require.Len(t, got, 2)
	assert.Equal(t, "start leg", got[0].Text)
	assert.False(t, got[0].IsFinal)
	assert.Equal(t, "start leg press", got[1].Text)
	assert.InDelta(t, 0.87, got[1].Confidence, 1e-6)
	assert.True(t, got[1].IsFinal)

	require.Eventually(t, func() bool {
		_, closed := stream.snapshot()
		return closed
	}, time.Second, 5*time.Millisecond)

	sent, _ := stream.snapshot()
	require.NotEmpty(t, sent)

	cfg := sent[0].GetStreamingConfig()
	require.NotNil(t, cfg, "first request carries the config")
	assert.True(t, cfg.GetSingleUtterance())
	assert.True(t, cfg.GetInterimResults())
	assert.Equal(t, int32(16000), cfg.GetConfig().GetSampleRateHertz())
	assert.Equal(t, "en-US", cfg.GetConfig().GetLanguageCode())
	assert.Equal(t, []string{"leg press", "skip rest"}, cfg.GetConfig().GetSpeechContexts()[0].GetPhrases())
}

func TestRecognize_OpenFailure(t *testing.T) {
	t.Parallel()

	e := newEngine(Config{}, func(context.Context) (speechpb.Speech_StreamingRecognizeClient, error) {
		return nil, errors.New("permission denied")
	})

	_, err := e.Recognize(context.Background(), make(chan []byte))
	require.Error(t, err)
}

func TestRecognize_ConfigSendFailure(t *testing.T) {
	t.Parallel()

	stream := newFakeStream()
	stream.sendErr = errors.New("broken pipe")

	e := newEngine(Config{}, func(context.Context) (speechpb.Speech_StreamingRecognizeClient, error) { return stream, nil })

	_, err := e.Recognize(context.Background(), make(chan []byte))
	require.Error(t, err)
}

func TestToResult_SkipsEmptyInterim(t *testing.T) {
	t.Parallel()

	_, ok := toResult(&speechpb.StreamingRecognitionResult{})
	assert.False(t, ok)

	_, ok = toResult(result("", 0, false).GetResults()[0])
	assert.False(t, ok)

	r, ok := toResult(result("", 0, true).GetResults()[0])
	assert.True(t, ok)
	assert.True(t, r.IsFinal)
}
