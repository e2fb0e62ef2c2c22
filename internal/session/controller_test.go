package session_test

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alkime/onerep/internal/clock"
	"github.com/alkime/onerep/internal/command"
	"github.com/alkime/onerep/internal/phase"
	"github.com/alkime/onerep/internal/recognition"
	"github.com/alkime/onerep/internal/session"
)

// eventLog is shared by the fakes so call order across collaborators can be asserted.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, fmt.Sprintf(format, args...))
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.events...)
}

func (l *eventLog) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = nil
}

func (l *eventLog) count(event string) int {
	n := 0

	for _, e := range l.all() {
		if e == event {
			n++
		}
	}

	return n
}

type fakeClock struct {
	log *eventLog

	mu      sync.Mutex
	fn      clock.TickFunc
	token   uint64
	running bool
}

func (c *fakeClock) Start(fn clock.TickFunc) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token++
	c.fn = fn
	c.running = true
	c.log.add("clock.start")

	return c.token
}

func (c *fakeClock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.running = false
	c.log.add("clock.stop")
}

func (c *fakeClock) current() (clock.TickFunc, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fn, c.token, c.running
}

// tick delivers n one-second ticks from the latest clock run.
func (c *fakeClock) tick(t *testing.T, n int) {
	t.Helper()

	for range n {
		fn, token, running := c.current()
		require.True(t, running, "clock is not running")
		fn(token, 1)
	}
}

type fakeCues struct {
	log *eventLog
}

func (f *fakeCues) Enter(tr phase.Transition) { f.log.add("enter:%s", tr.To) }

func (f *fakeCues) Countdown(p phase.Phase, remaining, _ int) {
	f.log.add("countdown:%s:%d", p, remaining)
}

func (f *fakeCues) Announce(name string) { f.log.add("announce:%s", name) }
func (f *fakeCues) Pause()               { f.log.add("cues.pause") }
func (f *fakeCues) Resume()              { f.log.add("cues.resume") }
func (f *fakeCues) Cancel()              { f.log.add("cues.cancel") }

type fakeListener struct {
	log     *eventLog
	outcome recognition.Outcome
	err     error
}

func (f *fakeListener) Capture(context.Context) (recognition.Outcome, error) {
	return f.outcome, f.err
}

func (f *fakeListener) Cancel() { f.log.add("listener.cancel") }

type loggedSet struct {
	exercise string
	weight   int
	failure  bool
}

type fakeSetLog struct {
	mu   sync.Mutex
	sets []loggedSet
}

func (f *fakeSetLog) RecordSet(_ context.Context, exercise string, weight int, failure bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sets = append(f.sets, loggedSet{exercise, weight, failure})

	return nil
}

func (f *fakeSetLog) recorded() []loggedSet {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]loggedSet(nil), f.sets...)
}

type fakeFeedback struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeFeedback) Say(message string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.messages = append(f.messages, message)
}

func (f *fakeFeedback) said() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.messages...)
}

type harness struct {
	c        *session.Controller
	log      *eventLog
	clock    *fakeClock
	listener *fakeListener
	setlog   *fakeSetLog
	feedback *fakeFeedback
}

func scenarioDurations() phase.Durations {
	return phase.Durations{
		phase.Prep:           5,
		phase.Positioning:    0,
		phase.Eccentric:      10,
		phase.Concentric:     10,
		phase.FinalEccentric: 10,
		phase.Rest:           90,
	}
}

func testWorkout() session.Workout {
	return session.Workout{
		Name: "Full Body",
		Entries: []session.Entry{
			{Exercise: phase.Exercise{Name: "Leg Press"}},
			{Exercise: phase.Exercise{Name: "Pulldown"}, Aliases: []string{"lat pulldown"}},
			{Exercise: phase.Exercise{Name: "Chest Press"}},
		},
	}
}

func newHarness(t *testing.T, w session.Workout) *harness {
	t.Helper()

	log := &eventLog{}
	h := &harness{
		log:      log,
		clock:    &fakeClock{log: log},
		listener: &fakeListener{log: log},
		setlog:   &fakeSetLog{},
		feedback: &fakeFeedback{},
	}

	c, err := session.NewController(w, scenarioDurations(), session.Deps{
		Clock:    h.clock,
		Cues:     &fakeCues{log: log},
		Listener: h.listener,
		SetLog:   h.setlog,
		Feedback: h.feedback,
	})
	require.NoError(t, err)

	h.c = c

	return h
}

// run starts the controller loop and stops it when the test ends.
func (h *harness) run(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- h.c.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
}

func (h *harness) start(t *testing.T, name string) session.Snapshot {
	t.Helper()

	s := h.c.ApplyManual(session.Control{Action: session.ActionStart, Exercise: name})
	require.True(t, s.Active, "exercise %s did not start", name)

	return s
}

func TestController_EndToEndScenario(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testWorkout())
	h.run(t)

	s := h.start(t, "Leg Press")
	assert.Equal(t, phase.Prep, s.Phase)
	assert.Equal(t, 5, s.Remaining)
	assert.Equal(t, 0, s.Current)
	assert.Equal(t, "Pulldown", s.Next)

	h.clock.tick(t, 34)

	s = h.c.Snapshot()
	assert.Equal(t, phase.FinalEccentric, s.Phase)
	assert.Equal(t, 1, s.Remaining)
	assert.False(t, s.Entries[0].Completed)

	h.clock.tick(t, 1)

	s = h.c.Snapshot()
	assert.Equal(t, phase.Rest, s.Phase, "completion starts rest immediately")
	assert.Equal(t, 90, s.Remaining)
	assert.True(t, s.Running)
	assert.True(t, s.Entries[0].Completed)
	assert.True(t, s.Entries[0].Logged)
	assert.Equal(t, 1, s.CompletedCount)

	require.Eventually(t, func() bool { return len(h.setlog.recorded()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, loggedSet{exercise: "Leg Press"}, h.setlog.recorded()[0])

	events := h.log.all()
	assert.NotContains(t, events, "enter:Positioning", "zero-length phases are not announced")
	assert.NotContains(t, events, "enter:Complete")
	assert.Equal(t, 1, h.log.count("enter:Eccentric"))
	assert.Equal(t, 1, h.log.count("enter:Rest"))
	assert.Contains(t, events, "announce:workout_begin")
	assert.Contains(t, events, "announce:ex_leg_press")
	assert.Contains(t, events, "countdown:Prep:5", "a phase announces its full length on the first tick")
	assert.Contains(t, events, "countdown:Prep:1")
	assert.Contains(t, events, "countdown:Eccentric:10")
	assert.Contains(t, events, "countdown:Concentric:10")
	assert.Contains(t, events, "countdown:FinalEccentric:10")
	assert.Contains(t, events, "countdown:FinalEccentric:1")
	assert.NotContains(t, events, "countdown:Prep:0")
	assert.Equal(t, 1, h.log.count("countdown:Eccentric:10"))
}

func TestController_RestStartsNextExercise(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testWorkout())
	h.start(t, "Leg Press")
	h.clock.tick(t, 35)

	h.log.reset()
	h.clock.tick(t, 60)
	assert.NotContains(t, h.log.all(), "countdown:Rest:30")
	h.clock.tick(t, 1)
	assert.Contains(t, h.log.all(), "countdown:Rest:30")

	h.clock.tick(t, 29)

	s := h.c.Snapshot()
	assert.Equal(t, phase.Prep, s.Phase)
	assert.Equal(t, 5, s.Remaining)
	assert.Equal(t, 1, s.Current)
	assert.Equal(t, "Pulldown", s.Exercise)
	assert.Equal(t, "Chest Press", s.Next)
	assert.Contains(t, h.log.all(), "announce:ex_pulldown")

	// The next exercise completes on its own.
	h.clock.tick(t, 35)

	s = h.c.Snapshot()
	assert.Equal(t, phase.Rest, s.Phase)
	assert.True(t, s.Entries[1].Completed)
	assert.Equal(t, 2, s.CompletedCount)
}

func TestController_CompletionRunsOncePerExercise(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testWorkout())
	h.run(t)

	h.start(t, "Leg Press")
	h.clock.tick(t, 34)

	// A tick from the same clock run races the Done command.
	staleFn, staleToken, _ := h.clock.current()

	s := h.c.Apply(command.Command{Kind: command.Done})
	assert.Equal(t, phase.Rest, s.Phase)
	assert.Equal(t, 90, s.Remaining)

	staleFn(staleToken, 1)

	s = h.c.Apply(command.Command{Kind: command.Done})
	assert.Equal(t, phase.Rest, s.Phase, "done while resting is ignored")
	assert.Equal(t, 90, s.Remaining)

	require.Eventually(t, func() bool { return len(h.setlog.recorded()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, h.setlog.recorded(), 1)
	assert.Equal(t, 1, h.log.count("enter:Rest"))
	assert.Len(t, filter(h.feedback.said(), "Exercise complete"), 1)
}

func TestController_SetsCompletedBeforeRunAreWritten(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testWorkout())

	// More completions than any fixed queue would hold.
	h.start(t, "Leg Press")

	for range 20 {
		h.c.Apply(command.Command{Kind: command.Done})
		h.c.Apply(command.Command{Kind: command.AnotherSet})
	}

	h.c.Apply(command.Command{Kind: command.Done})
	assert.Empty(t, h.setlog.recorded())

	h.run(t)

	require.Eventually(t, func() bool { return len(h.setlog.recorded()) == 21 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, h.setlog.recorded(), 21)
}

func TestController_AnotherSetLogsAgain(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testWorkout())
	h.run(t)

	h.start(t, "Leg Press")
	h.c.Apply(command.Command{Kind: command.LogWeight, Weight: 150})
	h.c.ApplyManual(session.Control{Action: session.ActionMarkFailure, Failure: true})
	h.c.Apply(command.Command{Kind: command.Done})

	s := h.c.Apply(command.Command{Kind: command.AnotherSet})
	assert.Equal(t, phase.Prep, s.Phase)
	assert.Equal(t, "Leg Press", s.Exercise)

	h.c.Apply(command.Command{Kind: command.Done})

	require.Eventually(t, func() bool { return len(h.setlog.recorded()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, loggedSet{"Leg Press", 150, true}, h.setlog.recorded()[0])
	assert.Equal(t, loggedSet{"Leg Press", 150, true}, h.setlog.recorded()[1])
	assert.Contains(t, h.feedback.said(), "Logged 150 pounds")
	assert.Contains(t, h.feedback.said(), "Starting another set")
}

func TestController_SkipInConcentric(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testWorkout())
	h.start(t, "Leg Press")
	h.clock.tick(t, 21)

	s := h.c.Snapshot()
	require.Equal(t, phase.Concentric, s.Phase)
	require.Equal(t, 4, s.Remaining)

	h.log.reset()

	s = h.c.Apply(command.Command{Kind: command.SkipPhase})
	assert.Equal(t, phase.FinalEccentric, s.Phase)
	assert.Equal(t, 10, s.Remaining)
	assert.Equal(t, []string{"enter:FinalEccentric"}, h.log.all())
	assert.Equal(t, "Skipped", s.Message)
}

func TestController_SkipFinalPhaseCompletes(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testWorkout())
	h.start(t, "Leg Press")

	for range 3 {
		h.c.ApplyManual(session.Control{Action: session.ActionSkip})
	}

	s := h.c.Snapshot()
	assert.Equal(t, phase.FinalEccentric, s.Phase)

	s = h.c.ApplyManual(session.Control{Action: session.ActionSkip})
	assert.Equal(t, phase.Rest, s.Phase)
	assert.True(t, s.Entries[0].Completed)
}

func TestController_NegativeOnlyCompletesAfterEccentric(t *testing.T) {
	t.Parallel()

	w := session.Workout{Entries: []session.Entry{
		{Exercise: phase.Exercise{Name: "Pull Up", IsNegativeOnly: true, NegativeSeconds: 60}},
	}}

	h := newHarness(t, w)
	s := h.start(t, "pull up")
	assert.Equal(t, "Pull Up", s.Exercise)

	h.clock.tick(t, 5)
	s = h.c.Snapshot()
	assert.Equal(t, phase.Eccentric, s.Phase)
	assert.Equal(t, 60, s.Remaining)

	h.clock.tick(t, 60)
	s = h.c.Snapshot()
	assert.Equal(t, phase.Rest, s.Phase)
	assert.Empty(t, s.Next)
}

func TestController_WorkoutComplete(t *testing.T) {
	t.Parallel()

	w := session.Workout{Entries: []session.Entry{{Exercise: phase.Exercise{Name: "Leg Press"}}}}
	h := newHarness(t, w)

	h.start(t, "Leg Press")
	h.c.Apply(command.Command{Kind: command.Done})

	s := h.c.Apply(command.Command{Kind: command.SkipRest})
	assert.False(t, s.Active)
	assert.True(t, s.Finished)
	assert.Equal(t, -1, s.Current)
	assert.Equal(t, 1, s.CompletedCount)
	assert.Equal(t, "Workout complete", s.Message)
	assert.Contains(t, h.log.all(), "announce:workout_complete")

	_, _, running := h.clock.current()
	assert.False(t, running)

	s = h.c.Apply(command.Command{Kind: command.NextExercise})
	assert.Equal(t, "No more exercises", s.Message)
}

func TestController_PauseResume(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testWorkout())
	h.start(t, "Leg Press")
	h.clock.tick(t, 2)

	staleFn, staleToken, _ := h.clock.current()

	s := h.c.Apply(command.Command{Kind: command.Pause})
	assert.True(t, s.Paused)
	assert.False(t, s.Running)
	assert.Equal(t, 3, s.Remaining)
	assert.Contains(t, h.log.all(), "cues.pause")

	staleFn(staleToken, 1)
	assert.Equal(t, 3, h.c.Snapshot().Remaining, "no ticks are applied while paused")

	s = h.c.Apply(command.Command{Kind: command.Pause})
	assert.True(t, s.Paused, "pausing twice is harmless")

	s = h.c.ApplyManual(session.Control{Action: session.ActionTogglePause})
	assert.True(t, s.Running)
	assert.Equal(t, "Resuming", s.Message)
	assert.Contains(t, h.log.all(), "cues.resume")

	h.clock.tick(t, 1)
	assert.Equal(t, 2, h.c.Snapshot().Remaining)
}

func TestController_DoneWhilePausedResumesForRest(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testWorkout())
	h.start(t, "Leg Press")
	h.c.Apply(command.Command{Kind: command.Pause})

	s := h.c.Apply(command.Command{Kind: command.Done})
	assert.Equal(t, phase.Rest, s.Phase)
	assert.True(t, s.Running)
	assert.False(t, s.Paused)

	events := h.log.all()
	require.Contains(t, events, "cues.resume")
	assert.Less(t, slices.Index(events, "cues.resume"), slices.Index(events, "enter:Rest"))
}

func TestController_StopOrder(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testWorkout())
	h.start(t, "Leg Press")
	h.clock.tick(t, 7)
	h.log.reset()

	s := h.c.Apply(command.Command{Kind: command.Stop})
	assert.False(t, s.Active)
	assert.Equal(t, -1, s.Current)
	assert.Equal(t, "Workout stopped", s.Message)
	assert.Equal(t, []string{"clock.stop", "cues.cancel", "listener.cancel"}, h.log.all())

	h.log.reset()
	s = h.c.Apply(command.Command{Kind: command.Stop})
	assert.False(t, s.Active)
	assert.Equal(t, []string{"clock.stop", "cues.cancel", "listener.cancel"}, h.log.all())
	assert.Equal(t, []string{"Workout stopped"}, filter(h.feedback.said(), "Workout stopped"))
}

func TestController_InvalidOperationsAreNoOps(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testWorkout())

	for _, kind := range []command.Kind{
		command.SkipPhase, command.SkipRest, command.Pause, command.Resume,
		command.Done, command.AnotherSet, command.Stop,
	} {
		s := h.c.Apply(command.Command{Kind: kind})
		assert.False(t, s.Active, kind.String())
	}

	for _, a := range []session.Action{session.ActionReset, session.ActionTogglePause, session.ActionMarkFailure} {
		s := h.c.ApplyManual(session.Control{Action: a})
		assert.False(t, s.Active, a.String())
	}

	assert.Empty(t, h.setlog.recorded())
	assert.Empty(t, filter(h.feedback.said(), "Skipped"))
}

func TestController_Feedback(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testWorkout())

	tests := []struct {
		cmd  command.Command
		want string
	}{
		{command.Command{Kind: command.StartExercise, Exercise: "Squat"}, "Exercise not found: Squat"},
		{command.Command{Kind: command.LogWeight, Weight: 90}, "No exercise selected"},
		{command.Command{Kind: command.StartExercise, Exercise: "pulldown"}, "Starting Pulldown"},
		{command.Command{Kind: command.NextExercise}, "Next: Chest Press"},
		{command.Command{Kind: command.NextExercise}, "Next: Leg Press"},
		{command.Command{Kind: command.Unknown, Raw: "banana"}, "Try again"},
	}

	for _, tt := range tests {
		s := h.c.Apply(tt.cmd)
		assert.Equal(t, tt.want, s.Message, tt.cmd.String())
	}

	before := len(h.feedback.said())
	h.c.Apply(command.Command{Kind: command.Unknown, Raw: "uh"})
	assert.Len(t, h.feedback.said(), before, "short noise gets no feedback")
}

func TestController_NextSkipsCompleted(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testWorkout())

	h.start(t, "Pulldown")
	h.c.Apply(command.Command{Kind: command.Done})

	s := h.c.Snapshot()
	assert.Equal(t, "Chest Press", s.Next)

	s = h.c.Apply(command.Command{Kind: command.NextExercise})
	assert.Equal(t, "Chest Press", s.Exercise)

	h.c.Apply(command.Command{Kind: command.Done})

	s = h.c.Apply(command.Command{Kind: command.NextExercise})
	assert.Equal(t, "Leg Press", s.Exercise, "next wraps to the first incomplete exercise")
	assert.Empty(t, s.Next)
}

func TestController_ResetReloadsPhase(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testWorkout())
	h.start(t, "Leg Press")
	h.clock.tick(t, 8)

	s := h.c.Snapshot()
	require.Equal(t, phase.Eccentric, s.Phase)
	require.Equal(t, 7, s.Remaining)

	s = h.c.ApplyManual(session.Control{Action: session.ActionReset})
	assert.Equal(t, phase.Eccentric, s.Phase)
	assert.Equal(t, 10, s.Remaining)
	assert.InDelta(t, 0, s.Progress, 1e-9)
}

func TestController_Listen(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testWorkout())
	h.listener.outcome = recognition.Outcome{Text: "Hey one rep, start lat pulldown please", Kind: recognition.KindPrimary, Confidence: 0.9}

	cmd, err := h.c.Listen(context.Background())
	require.NoError(t, err)
	assert.Equal(t, command.StartExercise, cmd.Kind)
	assert.Equal(t, "Pulldown", cmd.Exercise)

	s := h.c.Snapshot()
	assert.Equal(t, "Pulldown", s.Exercise)
	assert.False(t, s.Listening)
	assert.Equal(t, recognition.KindPrimary, s.Heard.Kind)
	assert.Equal(t, command.StartExercise, s.LastCommand.Kind)
}

func TestController_ListenUnavailable(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testWorkout())
	h.start(t, "Leg Press")
	h.listener.err = recognition.ErrUnavailable

	_, err := h.c.Listen(context.Background())
	require.ErrorIs(t, err, recognition.ErrUnavailable)

	s := h.c.Snapshot()
	assert.Equal(t, phase.Prep, s.Phase, "no command was dispatched")
	assert.Equal(t, command.StartExercise, s.LastCommand.Kind)
}

func TestController_ListenWithoutListener(t *testing.T) {
	t.Parallel()

	c, err := session.NewController(testWorkout(), scenarioDurations(), session.Deps{
		Clock: &fakeClock{log: &eventLog{}},
		Cues:  &fakeCues{log: &eventLog{}},
	})
	require.NoError(t, err)

	_, err = c.Listen(context.Background())
	require.ErrorIs(t, err, session.ErrNoListener)
}

func TestController_LoadWorkoutReplacesVocabulary(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testWorkout())
	h.start(t, "Leg Press")

	err := h.c.LoadWorkout(session.Workout{Name: "Legs", Entries: []session.Entry{
		{Exercise: phase.Exercise{Name: "Hack Squat"}, Aliases: []string{"hack"}},
	}})
	require.NoError(t, err)

	s := h.c.Snapshot()
	assert.False(t, s.Active, "loading a workout stops the session")
	assert.Equal(t, "Legs", s.Workout)

	cmd := h.c.Parser().Parse("let's do hack")
	assert.Equal(t, "Hack Squat", cmd.Exercise)
	assert.Contains(t, h.c.Vocabulary().Load().Names(), "Hack Squat")

	require.ErrorIs(t, h.c.LoadWorkout(session.Workout{}), session.ErrEmptyWorkout)
}

func TestController_Subscribe(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testWorkout())

	sub := make(chan session.Snapshot, 64)
	require.NoError(t, h.c.Subscribe(sub))
	require.Error(t, h.c.Subscribe(nil))

	h.run(t)

	h.start(t, "Chest Press")
	h.clock.tick(t, 1)

	seen := func(pred func(session.Snapshot) bool) bool {
		for {
			select {
			case s := <-sub:
				if pred(s) {
					return true
				}
			default:
				return false
			}
		}
	}

	require.Eventually(t, func() bool {
		return seen(func(s session.Snapshot) bool { return s.Exercise == "Chest Press" && s.Remaining == 4 })
	}, time.Second, 5*time.Millisecond)
}

func TestController_ProgressAndElapsed(t *testing.T) {
	t.Parallel()

	var (
		mu  sync.Mutex
		now = time.Date(2025, 1, 6, 7, 0, 0, 0, time.UTC)
	)

	log := &eventLog{}
	fc := &fakeClock{log: log}

	c, err := session.NewController(testWorkout(), scenarioDurations(), session.Deps{
		Clock: fc,
		Cues:  &fakeCues{log: log},
		Now: func() time.Time {
			mu.Lock()
			defer mu.Unlock()

			return now
		},
	})
	require.NoError(t, err)

	s := c.Snapshot()
	assert.Zero(t, s.Elapsed)
	assert.InDelta(t, 0, s.Progress, 1e-9)

	c.ApplyManual(session.Control{Action: session.ActionStart, Exercise: "Leg Press"})
	fc.tick(t, 2)

	mu.Lock()
	now = now.Add(75 * time.Second)
	mu.Unlock()

	s = c.Snapshot()
	assert.InDelta(t, 0.4, s.Progress, 1e-9)
	assert.Equal(t, "1:15", session.FormatElapsed(s.Elapsed))
}

func TestNewController_Validation(t *testing.T) {
	t.Parallel()

	log := &eventLog{}
	deps := session.Deps{Clock: &fakeClock{log: log}, Cues: &fakeCues{log: log}}

	_, err := session.NewController(session.Workout{}, scenarioDurations(), deps)
	require.ErrorIs(t, err, session.ErrEmptyWorkout)

	bad := scenarioDurations()
	bad[phase.Concentric] = 0
	_, err = session.NewController(testWorkout(), bad, deps)
	require.ErrorIs(t, err, phase.ErrInvalidDurations)

	_, err = session.NewController(testWorkout(), scenarioDurations(), session.Deps{Cues: deps.Cues})
	require.Error(t, err)

	_, err = session.NewController(testWorkout(), scenarioDurations(), session.Deps{Clock: deps.Clock})
	require.Error(t, err)
}

func filter(messages []string, want string) []string {
	var out []string

	for _, m := range messages {
		if m == want {
			out = append(out, m)
		}
	}

	return out
}
