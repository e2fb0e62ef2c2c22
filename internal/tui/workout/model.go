// Package workout is the terminal screen for a running workout session.
package workout

import (
	"context"
	"errors"
	"strconv"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alkime/onerep/internal/command"
	"github.com/alkime/onerep/internal/recognition"
	"github.com/alkime/onerep/internal/session"
	"github.com/alkime/onerep/internal/tui/components/waveform"
	"github.com/alkime/onerep/pkg/uictl"
)

const (
	defaultWidth = 60
	waveHeight   = 2
	maxWeight    = 9999
)

// snapshotMsg carries a state change published by the session.
type snapshotMsg session.Snapshot

// updatesClosedMsg is sent when the session stops publishing.
type updatesClosedMsg struct{}

// listenDoneMsg is sent when a voice capture returns.
type listenDoneMsg struct {
	cmd command.Command
	err error
}

// Options are the optional collaborators of the screen.
type Options struct {
	// Listener enables push-to-talk. Without it the voice key only explains
	// that voice input is off.
	Listener Listener
	// Levels feeds the microphone strip shown while listening.
	Levels uictl.Levels[int16]
}

// Model shows the countdown for the current phase and maps keys to session
// controls. Session state arrives on the updates channel; the screen never
// advances the countdown itself.
type Model struct {
	ctx      context.Context
	controls Controls
	listener Listener
	updates  <-chan session.Snapshot

	keys    KeyMap
	help    help.Model
	bar     progress.Model
	spinner spinner.Model
	wave    waveform.Model
	weight  textinput.Model

	snap      session.Snapshot
	editing   bool
	listening bool
	status    string
	failed    bool
	width     int
}

// New returns the screen for controls. ctx bounds voice captures started
// from the screen.
func New(ctx context.Context, controls Controls, updates <-chan session.Snapshot, opts Options) Model {
	weight := textinput.New()
	weight.Placeholder = "pounds"
	weight.CharLimit = len(strconv.Itoa(maxWeight))
	weight.Prompt = "Weight: "

	return Model{
		ctx:      ctx,
		controls: controls,
		listener: opts.Listener,
		updates:  updates,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage(), progress.WithWidth(defaultWidth)),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		wave:     waveform.New(opts.Levels, defaultWidth, waveHeight),
		weight:   weight,
		snap:     controls.Snapshot(),
		width:    defaultWidth,
	}
}

func (m Model) Init() tea.Cmd {
	return m.waitForSnapshot()
}

func (m Model) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := teaMsg.(type) {
	case tea.WindowSizeMsg:
		m.width = max(msg.Width-4, 20)
		m.bar.Width = min(m.width, defaultWidth)
		m.wave = m.wave.SetWidth(min(m.width, defaultWidth))
		m.help.Width = msg.Width

		return m, nil

	case snapshotMsg:
		m.snap = session.Snapshot(msg)
		return m, m.waitForSnapshot()

	case updatesClosedMsg:
		return m, tea.Quit

	case listenDoneMsg:
		m.listening = false
		m.showListenResult(msg)
		m.snap = m.controls.Snapshot()

		return m, nil

	case spinner.TickMsg:
		if !m.listening {
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case waveform.TickMsg:
		if !m.listening {
			return m, nil
		}

		var cmd tea.Cmd
		m.wave, cmd = m.wave.Update(msg)

		return m, cmd

	case tea.KeyMsg:
		if m.editing {
			return m.updateWeight(msg)
		}

		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.apply(session.Control{Action: session.ActionStop})
		return m, tea.Quit
	case key.Matches(msg, m.keys.Start):
		m.startNumbered(msg.String())
	case key.Matches(msg, m.keys.Pause):
		m.apply(session.Control{Action: session.ActionTogglePause})
	case key.Matches(msg, m.keys.Skip):
		m.apply(session.Control{Action: session.ActionSkip})
	case key.Matches(msg, m.keys.SkipRest):
		m.apply(session.Control{Action: session.ActionSkipRest})
	case key.Matches(msg, m.keys.Next):
		m.apply(session.Control{Action: session.ActionNext})
	case key.Matches(msg, m.keys.Done):
		m.apply(session.Control{Action: session.ActionDone})
	case key.Matches(msg, m.keys.AnotherSet):
		m.apply(session.Control{Action: session.ActionAnotherSet})
	case key.Matches(msg, m.keys.Failure):
		if e, ok := m.current(); ok {
			m.apply(session.Control{Action: session.ActionMarkFailure, Failure: !e.ReachedFailure})
		}
	case key.Matches(msg, m.keys.Reset):
		m.apply(session.Control{Action: session.ActionReset})
	case key.Matches(msg, m.keys.Weight):
		if _, ok := m.current(); !ok {
			return m, nil
		}

		m.editing = true
		m.weight.SetValue("")

		return m, m.weight.Focus()
	case key.Matches(msg, m.keys.Listen):
		return m.startListening()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}

	return m, nil
}

func (m Model) updateWeight(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.editing = false
		m.weight.Blur()

		return m, nil
	case tea.KeyEnter:
		m.editing = false
		m.weight.Blur()

		w, err := strconv.Atoi(m.weight.Value())
		if err != nil || w < 0 || w > maxWeight {
			m.setStatus("Weight must be a whole number of pounds", true)
			return m, nil
		}

		m.apply(session.Control{Action: session.ActionLogWeight, Weight: w})

		return m, nil
	}

	var cmd tea.Cmd
	m.weight, cmd = m.weight.Update(msg)

	return m, cmd
}

func (m Model) startListening() (tea.Model, tea.Cmd) {
	if m.listener == nil {
		m.setStatus(session.ErrNoListener.Error(), true)
		return m, nil
	}

	if m.listening {
		return m, nil
	}

	m.listening = true
	m.status = ""

	return m, tea.Batch(m.listen(), m.spinner.Tick, m.wave.Init())
}

func (m Model) listen() tea.Cmd {
	ctx, listener := m.ctx, m.listener

	return func() tea.Msg {
		cmd, err := listener.Listen(ctx)
		return listenDoneMsg{cmd: cmd, err: err}
	}
}

func (m *Model) showListenResult(msg listenDoneMsg) {
	switch {
	case errors.Is(msg.err, recognition.ErrUnavailable):
		m.setStatus("Didn't catch that", true)
	case errors.Is(msg.err, recognition.ErrBusy):
		m.setStatus("Already listening", true)
	case errors.Is(msg.err, context.Canceled):
		m.setStatus("", false)
	case msg.err != nil:
		m.setStatus(msg.err.Error(), true)
	case msg.cmd.Kind == command.Unknown:
		m.setStatus("Unrecognized command: "+msg.cmd.Raw, true)
	default:
		m.setStatus("Command: "+msg.cmd.String(), false)
	}
}

func (m *Model) startNumbered(digit string) {
	n, err := strconv.Atoi(digit)
	if err != nil || n < 1 || n > len(m.snap.Entries) {
		return
	}

	m.apply(session.Control{Action: session.ActionStart, Exercise: m.snap.Entries[n-1].Exercise.Name})
}

func (m *Model) apply(ctl session.Control) {
	m.snap = m.controls.ApplyManual(ctl)
	m.status = ""
}

func (m *Model) setStatus(s string, failed bool) {
	m.status = s
	m.failed = failed
}

func (m Model) current() (session.Entry, bool) {
	if m.snap.Current < 0 || m.snap.Current >= len(m.snap.Entries) {
		return session.Entry{}, false
	}

	return m.snap.Entries[m.snap.Current], true
}

func (m Model) waitForSnapshot() tea.Cmd {
	if m.updates == nil {
		return nil
	}

	updates := m.updates

	return func() tea.Msg {
		s, ok := <-updates
		if !ok {
			return updatesClosedMsg{}
		}

		return snapshotMsg(s)
	}
}

// Snapshot returns the state the screen is showing.
func (m Model) Snapshot() session.Snapshot {
	return m.snap
}
