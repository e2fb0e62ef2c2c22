// Package session ties the phase machine, clock, cues and voice commands into
// one workout session.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alkime/onerep/internal/command"
	"github.com/alkime/onerep/internal/cue"
	"github.com/alkime/onerep/internal/phase"
	"github.com/alkime/onerep/internal/recognition"
	"github.com/alkime/onerep/pkg/channels"
)

// ErrNoListener is returned by Listen when no voice input is configured.
var ErrNoListener = errors.New("voice input is not configured")

const drainTimeout = 2 * time.Second

// Deps are the controller's collaborators. Clock and Cues are required.
type Deps struct {
	Clock    Clock
	Cues     Cues
	Listener Listener
	SetLog   SetLog
	Feedback Feedback
	// Vocabulary is replaced with the workout's vocabulary; nil creates a private store.
	Vocabulary *command.Store
	Now        func() time.Time
}

type setRecord struct {
	exercise string
	weight   int
	failure  bool
}

// Controller is the single entry point for voice and manual input. All state
// changes, including clock ticks, are serialized on one mutex, so a voice
// command and a tick never interleave.
type Controller struct {
	clock    Clock
	cues     Cues
	listener Listener
	setlog   SetLog
	feedback Feedback
	vocab    *command.Store
	parser   *command.Parser
	now      func() time.Time

	broadcaster *channels.Broadcaster[Snapshot]
	// recorded wakes Run when unsent holds sets.
	recorded chan struct{}

	mu         sync.Mutex
	unsent     []setRecord
	machine    *phase.Machine
	durations  phase.Durations
	workout    Workout
	current    int
	restNext   int
	instance   uint64
	completed  uint64
	token      uint64
	cuesPaused bool
	started    time.Time
	finished   time.Time
	listening  bool
	heard      recognition.Outcome
	last       command.Command
	message    string
	running    bool
	updates    chan<- Snapshot
}

// NewController validates the workout and durations and returns an idle session.
func NewController(w Workout, d phase.Durations, deps Deps) (*Controller, error) {
	if deps.Clock == nil {
		return nil, errors.New("clock cannot be nil")
	}

	if deps.Cues == nil {
		return nil, errors.New("cues cannot be nil")
	}

	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session durations: %w", err)
	}

	now := deps.Now
	if now == nil {
		now = time.Now
	}

	vocab := deps.Vocabulary
	if vocab == nil {
		vocab = command.NewStore(nil)
	}

	c := &Controller{
		clock:       deps.Clock,
		cues:        deps.Cues,
		listener:    deps.Listener,
		setlog:      deps.SetLog,
		feedback:    deps.Feedback,
		vocab:       vocab,
		parser:      command.NewParser(vocab),
		now:         now,
		broadcaster: channels.NewBroadcaster[Snapshot](),
		recorded:    make(chan struct{}, 1),
		machine:     phase.NewMachine(),
		durations:   d.Clone(),
		current:     -1,
		restNext:    -1,
	}

	if err := c.LoadWorkout(w); err != nil {
		return nil, err
	}

	return c, nil
}

// LoadWorkout stops the session and replaces the workout and its vocabulary.
func (c *Controller) LoadWorkout(w Workout) error {
	if err := w.Validate(); err != nil {
		return fmt.Errorf("invalid workout: %w", err)
	}

	v, err := w.Vocabulary()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	c.workout = w.Clone()
	c.started, c.finished = time.Time{}, time.Time{}
	c.vocab.Replace(v)
	c.publishLocked()

	return nil
}

// Vocabulary returns the store the parser reads from.
func (c *Controller) Vocabulary() *command.Store {
	return c.vocab
}

// Parser returns the parser bound to the session vocabulary.
func (c *Controller) Parser() *command.Parser {
	return c.parser
}

// Subscribe registers ch for snapshots. It must be called before Run.
func (c *Controller) Subscribe(ch chan<- Snapshot) error {
	if err := c.broadcaster.Subscribe(ch); err != nil {
		return fmt.Errorf("failed to subscribe to session: %w", err)
	}

	return nil
}

// Run publishes snapshots to subscribers and writes completed sets to the set
// log until ctx is done. The session is stopped on return. Sets completed
// before Run starts are held and written once it does.
func (c *Controller) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errors.New("session already running")
	}

	c.running = true

	if len(c.broadcaster.Stats()) > 0 {
		updates, err := c.broadcaster.Run(ctx)
		if err != nil {
			c.running = false
			c.mu.Unlock()

			return fmt.Errorf("failed to start snapshot broadcaster: %w", err)
		}

		c.updates = updates
	}

	c.publishLocked()
	c.mu.Unlock()

	for {
		select {
		case <-c.recorded:
			c.writeUnsent(ctx)

		case <-ctx.Done():
			c.Stop()
			c.drain(ctx)

			c.mu.Lock()
			c.updates = nil
			c.running = false
			c.mu.Unlock()

			return nil
		}
	}
}

// Apply dispatches a parsed voice command.
func (c *Controller) Apply(cmd command.Command) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.last = cmd
	c.dispatchLocked(cmd)
	c.publishLocked()

	return c.snapshotLocked()
}

// ApplyManual dispatches a manual control. Controls with a voice equivalent
// take exactly the voice path.
func (c *Controller) ApplyManual(ctl Control) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cmd, ok := ctl.Command(); ok {
		c.last = cmd
		c.dispatchLocked(cmd)
	} else {
		switch ctl.Action { //nolint:exhaustive // voice-equivalent actions handled above
		case ActionTogglePause:
			if c.machine.State().Paused {
				c.resumeLocked()
			} else {
				c.pauseLocked()
			}
		case ActionReset:
			c.resetLocked()
		case ActionMarkFailure:
			if c.current >= 0 {
				c.workout.Entries[c.current].ReachedFailure = ctl.Failure
			}
		}
	}

	c.publishLocked()

	return c.snapshotLocked()
}

// Listen captures one utterance, parses it and applies the command.
func (c *Controller) Listen(ctx context.Context) (command.Command, error) {
	if c.listener == nil {
		return command.Command{}, ErrNoListener
	}

	c.mu.Lock()
	c.listening = true
	c.publishLocked()
	c.mu.Unlock()

	out, err := c.listener.Capture(ctx)

	c.mu.Lock()
	c.listening = false
	c.heard = out
	c.publishLocked()
	c.mu.Unlock()

	if err != nil {
		return command.Command{}, fmt.Errorf("failed to capture command: %w", err)
	}

	text := out.Text
	if rest, ok := command.AfterWakeWord(text); ok {
		text = rest
	}

	cmd := c.parser.Parse(text)
	c.Apply(cmd)

	return cmd, nil
}

// Stop halts the clock, then pending cues, then any capture in flight, and
// unloads the exercise. It is safe to call at any time.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	c.publishLocked()
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshotLocked()
}

func (c *Controller) dispatchLocked(cmd command.Command) {
	switch cmd.Kind {
	case command.StartExercise:
		i, err := c.workout.Find(cmd.Exercise)
		if err != nil {
			c.say("Exercise not found: " + cmd.Exercise)
			return
		}

		if c.startLocked(i) {
			c.say("Starting " + c.workout.Entries[i].Exercise.Name)
		}

	case command.NextExercise:
		i, ok := c.workout.Next(c.current)
		if !ok {
			c.say("No more exercises")
			return
		}

		if c.startLocked(i) {
			c.say("Next: " + c.workout.Entries[i].Exercise.Name)
		}

	case command.SkipPhase:
		if trs := c.machine.Skip(); len(trs) > 0 {
			c.say("Skipped")
			c.handleLocked(trs)
		}

	case command.SkipRest:
		st := c.machine.State()
		if !st.Active() || st.Phase != phase.Rest {
			return
		}

		c.say("Skipping rest")
		c.handleLocked(c.machine.Skip())

	case command.Pause:
		c.pauseLocked()

	case command.Resume:
		c.resumeLocked()

	case command.Stop:
		if c.stopLocked() {
			c.say("Workout stopped")
		}

	case command.Done:
		st := c.machine.State()
		if !st.Active() || st.Phase == phase.Rest {
			return
		}

		if c.completeLocked() {
			c.say("Exercise complete")
		}

	case command.AnotherSet:
		if c.current < 0 {
			return
		}

		if c.startLocked(c.current) {
			c.say("Starting another set")
		}

	case command.LogWeight:
		if c.current < 0 {
			c.say("No exercise selected")
			return
		}

		c.workout.Entries[c.current].Weight = cmd.Weight
		c.say(fmt.Sprintf("Logged %d pounds", cmd.Weight))

	case command.Unknown:
		if len(cmd.Raw) > 2 {
			c.say("Try again")
		}
	}
}

// startLocked loads entry i at Prep, whatever the session was doing.
func (c *Controller) startLocked(i int) bool {
	e := c.workout.Entries[i]

	tr, err := c.machine.Start(e.Exercise, c.durations)
	if err != nil {
		slog.Error("failed to start exercise", "exercise", e.Exercise.Name, "error", err)
		return false
	}

	first := c.started.IsZero() || !c.finished.IsZero()
	if first {
		c.started = c.now()
		c.finished = time.Time{}
	}

	c.current = i
	c.restNext = -1
	c.instance++

	c.resumeCuesLocked()
	c.cues.Enter(tr)

	if first {
		c.cues.Announce(cue.WorkoutBegin)
	}

	c.cues.Announce(cue.Exercise(e.Exercise.Name))
	c.restartClockLocked()

	slog.Info("exercise started", "exercise", e.Exercise.Name, "instance", c.instance)

	return true
}

// completeLocked marks the current exercise complete, queues it for the set
// log and starts rest. It runs at most once per started exercise, whether
// reached by the clock, by skipping or by a Done command.
func (c *Controller) completeLocked() bool {
	if c.current < 0 || c.completed == c.instance {
		return false
	}

	c.completed = c.instance

	e := &c.workout.Entries[c.current]
	e.Completed = true
	c.recordLocked(e)

	var next *phase.Exercise

	c.restNext = -1
	if i, ok := c.workout.Next(c.current); ok {
		ex := c.workout.Entries[i].Exercise
		next = &ex
		c.restNext = i
	}

	slog.Info("exercise complete",
		"exercise", e.Exercise.Name,
		"weight", e.Weight,
		"reachedFailure", e.ReachedFailure,
		"completed", c.workout.CompletedCount())

	tr, ok := c.machine.StartRest(next)
	if !ok {
		return true
	}

	c.resumeCuesLocked()
	c.cues.Enter(tr)
	c.restartClockLocked()

	return true
}

// handleLocked reacts to the transitions of one tick or skip. Only the last
// phase entered is announced; zero-length phases pass silently.
func (c *Controller) handleLocked(trs []phase.Transition) {
	if len(trs) == 0 {
		return
	}

	began := false

	for _, tr := range trs {
		if tr.From == phase.Rest && tr.Reason != phase.ReasonWorkoutDone {
			c.current = c.restNext
			c.restNext = -1
			c.instance++
			began = true
		}
	}

	last := trs[len(trs)-1]

	switch {
	case last.Reason == phase.ReasonWorkoutDone:
		c.finishLocked()

	case last.To == phase.Complete:
		c.completeLocked()

	default:
		c.cues.Enter(last)

		if began && last.Exercise != nil {
			c.cues.Announce(cue.Exercise(last.Exercise.Name))
			slog.Info("exercise started", "exercise", last.Exercise.Name, "instance", c.instance)
		}
	}
}

func (c *Controller) finishLocked() {
	c.stopClockLocked()
	c.cues.Cancel()
	c.cues.Announce(cue.WorkoutComplete)

	c.finished = c.now()
	c.current = -1
	c.restNext = -1

	slog.Info("workout complete",
		"workout", c.workout.Name,
		"completed", c.workout.CompletedCount(),
		"elapsed", FormatElapsed(c.finished.Sub(c.started)))

	c.say("Workout complete")
}

func (c *Controller) pauseLocked() {
	if !c.machine.Pause() {
		return
	}

	c.stopClockLocked()
	c.cues.Pause()
	c.cuesPaused = true
	c.say("Paused")
}

func (c *Controller) resumeLocked() {
	if !c.machine.Resume() {
		return
	}

	c.resumeCuesLocked()
	c.restartClockLocked()
	c.say("Resuming")
}

func (c *Controller) resetLocked() {
	tr, ok := c.machine.Reset()
	if !ok {
		return
	}

	c.cues.Enter(tr)

	if c.machine.State().Running {
		c.restartClockLocked()
	}

	c.say("Phase reset")
}

// stopLocked reports whether an exercise was loaded.
func (c *Controller) stopLocked() bool {
	active := c.machine.State().Active()

	c.stopClockLocked()
	c.cues.Cancel()
	c.cuesPaused = false

	if c.listener != nil {
		c.listener.Cancel()
	}

	c.machine.Stop()
	c.current = -1
	c.restNext = -1

	return active
}

func (c *Controller) resumeCuesLocked() {
	if c.cuesPaused {
		c.cues.Resume()
		c.cuesPaused = false
	}
}

func (c *Controller) restartClockLocked() {
	c.token = c.clock.Start(c.onClock)
}

func (c *Controller) stopClockLocked() {
	c.clock.Stop()
	c.token = 0
}

// onClock applies steps whole seconds. Ticks from a stopped or restarted
// clock run are ignored.
func (c *Controller) onClock(token uint64, steps int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if token == 0 || token != c.token {
		return
	}

	for range steps {
		// The second being counted is announced before it elapses, so a
		// 30 second phase says "30" on its first tick.
		if st := c.machine.State(); st.Running {
			c.cues.Countdown(st.Phase, st.Remaining, st.Duration)
		}

		trs := c.machine.Tick()
		if len(trs) == 0 {
			continue
		}

		c.handleLocked(trs)

		if token != c.token {
			break
		}
	}

	c.publishLocked()
}

func (c *Controller) recordLocked(e *Entry) {
	if c.setlog == nil {
		return
	}

	c.unsent = append(c.unsent, setRecord{exercise: e.Exercise.Name, weight: e.Weight, failure: e.ReachedFailure})
	e.Logged = true

	// A full channel already has a wakeup pending for this set.
	_ = channels.SendNonBlock(c.recorded, struct{}{})
}

// writeUnsent writes held sets outside the lock.
func (c *Controller) writeUnsent(ctx context.Context) {
	c.mu.Lock()
	recs := c.unsent
	c.unsent = nil
	c.mu.Unlock()

	for _, rec := range recs {
		c.write(ctx, rec)
	}
}

func (c *Controller) write(ctx context.Context, rec setRecord) {
	if err := c.setlog.RecordSet(ctx, rec.exercise, rec.weight, rec.failure); err != nil {
		slog.Error("failed to record set", "exercise", rec.exercise, "weight", rec.weight, "error", err)
	}
}

// drain writes sets still queued at shutdown.
func (c *Controller) drain(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
	defer cancel()

	c.writeUnsent(ctx)
}

func (c *Controller) say(message string) {
	c.message = message
	slog.Info("session feedback", "message", message)

	if c.feedback != nil {
		c.feedback.Say(message)
	}
}

func (c *Controller) publishLocked() {
	if c.updates == nil {
		return
	}

	if err := channels.SendNonBlock(c.updates, c.snapshotLocked()); err != nil {
		slog.Debug("dropped session snapshot", "error", err)
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	st := c.machine.State()

	s := Snapshot{
		Workout:        c.workout.Name,
		Phase:          st.Phase,
		Remaining:      st.Remaining,
		Duration:       st.Duration,
		Running:        st.Running,
		Paused:         st.Paused,
		Active:         st.Active(),
		Progress:       progress(st),
		Current:        c.current,
		Entries:        c.workout.Clone().Entries,
		CompletedCount: c.workout.CompletedCount(),
		Finished:       !c.finished.IsZero(),
		Listening:      c.listening,
		Heard:          c.heard,
		LastCommand:    c.last,
		Message:        c.message,
	}

	if st.Exercise != nil {
		s.Exercise = st.Exercise.Name
	}

	if st.Active() {
		if i, ok := c.workout.Next(c.current); ok {
			s.Next = c.workout.Entries[i].Exercise.Name
		}
	}

	if !c.started.IsZero() {
		end := c.finished
		if end.IsZero() {
			end = c.now()
		}

		s.Elapsed = end.Sub(c.started)
	}

	return s
}
