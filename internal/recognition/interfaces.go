package recognition

import "context"

// Source is a push-based audio capture source producing raw S16LE PCM.
type Source interface {
	// Open starts capture. The returned channel is closed once capture stops,
	// either through Close or because ctx is done.
	Open(ctx context.Context) (<-chan []byte, error)
	Close() error
}

// Engine is a streaming recognizer. It reads audio until the channel is
// closed and must eventually emit a final result or close its output. Sends
// on the result channel must give up once ctx is done.
type Engine interface {
	Recognize(ctx context.Context, audio <-chan []byte) (<-chan Result, error)
}

// FileEngine transcribes a finished recording. An unconfigured engine always
// fails and is never called by the Arbiter.
type FileEngine interface {
	Configured() bool
	Transcribe(ctx context.Context, path string) (string, error)
}

// Recorder writes captured audio to a temporary file for resubmission.
type Recorder interface {
	Record(ctx context.Context, audio <-chan []byte) (Recording, error)
}

// Recording is an in-progress or finished utterance file.
type Recording interface {
	// Finish waits for the audio channel to drain and returns the file path.
	Finish() (string, error)
	// Discard removes the file.
	Discard() error
}
