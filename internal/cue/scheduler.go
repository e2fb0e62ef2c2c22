package cue

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/alkime/onerep/internal/phase"
)

// Player is the audio sink. Play must not block on playback.
type Player interface {
	Play(name string) error
	StopAll()
}

// Timer is a pending deferred call.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

type task struct {
	gen    uint64
	name   string
	due    time.Time
	left   time.Duration
	timer  Timer
	kind   Kind
	phase  phase.Phase
	paused bool
}

// Scheduler plays the cues planned for each phase entry. Deferred cues are
// keyed by the entry generation; entering a new phase cancels every pending
// cue and stops playback before the new phase cue is played.
type Scheduler struct {
	player Player
	pick   func() string
	after  AfterFunc
	now    func() time.Time

	mu      sync.Mutex
	gen     uint64
	pending map[*task]struct{}
	paused  bool
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithPicker sets the encouragement picker.
func WithPicker(pick func() string) SchedulerOption {
	return func(s *Scheduler) {
		s.pick = pick
	}
}

// WithEncouragement picks uniformly from names. An empty list disables encouragement.
func WithEncouragement(names []string) SchedulerOption {
	return func(s *Scheduler) {
		if len(names) == 0 {
			s.pick = nil
			return
		}

		list := append([]string(nil), names...)
		s.pick = func() string {
			return list[rand.IntN(len(list))] //nolint:gosec // cue variety, not security
		}
	}
}

// WithAfterFunc replaces the deferred-call primitive.
func WithAfterFunc(after AfterFunc) SchedulerOption {
	return func(s *Scheduler) {
		s.after = after
	}
}

// WithNow replaces the time source used to track paused delays.
func WithNow(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		s.now = now
	}
}

// NewScheduler returns a scheduler that plays through player.
func NewScheduler(player Player, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		player: player,
		after: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
		now:     time.Now,
		pending: make(map[*task]struct{}),
	}

	WithEncouragement(DefaultEncouragement())(s)

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Enter plays the cues for a phase transition.
func (s *Scheduler) Enter(tr phase.Transition) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked(tr.Generation)

	for _, c := range PlanEntry(tr.To, tr.Duration, s.pick) {
		if c.Delay == 0 {
			s.playLocked(c.Name, c.Kind)
			continue
		}

		s.scheduleLocked(&task{
			gen:   s.gen,
			name:  c.Name,
			kind:  c.Kind,
			phase: tr.To,
			left:  c.Delay,
		})
	}

	if s.paused {
		s.pauseLocked()
	}
}

// Countdown plays the countdown cue for remaining seconds in p, if any.
func (s *Scheduler) Countdown(p phase.Phase, remaining, duration int) {
	name, ok := Countdown(p, remaining, duration)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.playLocked(name, KindCountdown)
}

// Announce plays a one-off cue without disturbing pending cues.
func (s *Scheduler) Announce(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.playLocked(name, KindAnnouncement)
}

// Pause holds pending cues; Resume reschedules them with their remaining delay.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.paused = true
	s.pauseLocked()
}

// Resume releases cues held by Pause.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.paused = false

	for t := range s.pending {
		if t.paused {
			t.paused = false
			s.armLocked(t)
		}
	}
}

// Cancel drops every pending cue and stops playback.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.paused = false
	s.cancelLocked(s.gen + 1)
}

// Pending returns the number of deferred cues still waiting.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.pending)
}

func (s *Scheduler) cancelLocked(gen uint64) {
	for t := range s.pending {
		if t.timer != nil {
			t.timer.Stop()
		}
	}

	clear(s.pending)

	if gen > s.gen {
		s.gen = gen
	} else {
		s.gen++
	}

	s.player.StopAll()
}

func (s *Scheduler) scheduleLocked(t *task) {
	s.pending[t] = struct{}{}
	s.armLocked(t)
}

func (s *Scheduler) armLocked(t *task) {
	t.due = s.now().Add(t.left)
	t.timer = s.after(t.left, func() { s.fire(t) })
}

func (s *Scheduler) pauseLocked() {
	now := s.now()

	for t := range s.pending {
		if t.paused {
			continue
		}

		if t.timer != nil {
			t.timer.Stop()
		}

		t.left = max(t.due.Sub(now), 0)
		t.paused = true
	}
}

func (s *Scheduler) fire(t *task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pending[t]; !ok || t.gen != s.gen || t.paused {
		slog.Debug("dropped stale cue", "cue", t.name, "phase", t.phase.String(), "generation", t.gen, "current", s.gen)
		return
	}

	delete(s.pending, t)
	s.playLocked(t.name, t.kind)
}

func (s *Scheduler) playLocked(name string, kind Kind) {
	if name == "" {
		return
	}

	if err := s.player.Play(name); err != nil {
		slog.Warn("failed to play cue", "cue", name, "kind", kind.String(), "error", err)
		return
	}

	slog.Debug("cue played", "cue", name, "kind", kind.String(), "generation", s.gen)
}
