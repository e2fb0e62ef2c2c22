// Package waveform renders recent microphone amplitude as a strip of bars,
// so the lifter can see the mic is hearing them while a command is captured.
package waveform

import (
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alkime/onerep/internal/tui/style"
	"github.com/alkime/onerep/pkg/uictl"
)

// Eighth-block glyphs, index 0 is empty and 8 is a full cell.
const glyphs = " ▁▂▃▄▅▆▇█"

const (
	cellSteps    = 8
	maxAmplitude = math.MaxInt16
	frameRate    = 50 * time.Millisecond
)

// TickMsg triggers a redraw.
type TickMsg struct{}

// Model draws samples from a Levels source, oldest on the left.
type Model struct {
	levels uictl.Levels[int16]
	width  int
	height int
}

// New returns a waveform width columns wide and height rows tall.
func New(levels uictl.Levels[int16], width, height int) Model {
	return Model{levels: levels, width: max(width, 1), height: max(height, 1)}
}

// SetWidth resizes the strip.
func (m Model) SetWidth(width int) Model {
	m.width = max(width, 1)
	return m
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if _, ok := msg.(TickMsg); ok {
		return m, tick()
	}

	return m, nil
}

func (m Model) View() string {
	var samples []int16
	if m.levels != nil {
		samples = m.levels.Read()
	}

	if len(samples) == 0 {
		return m.baseline()
	}

	cols := columns(samples, m.width, m.height*cellSteps)
	glyph := []rune(glyphs)
	rows := make([]string, m.height)

	for row := range m.height {
		floor := (m.height - 1 - row) * cellSteps

		var sb strings.Builder
		for _, level := range cols {
			sb.WriteRune(glyph[min(max(level-floor, 0), cellSteps)])
		}

		rows[row] = style.Progress.Render(sb.String())
	}

	return strings.Join(rows, "\n")
}

func (m Model) baseline() string {
	rows := make([]string, m.height)
	for row := range m.height {
		fill := " "
		if row == m.height-1 {
			fill = "▁"
		}

		rows[row] = style.Muted.Render(strings.Repeat(fill, m.width))
	}

	return strings.Join(rows, "\n")
}

func tick() tea.Cmd {
	return tea.Tick(frameRate, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// columns buckets samples into width peaks scaled to 0..top. The square root
// keeps quiet speech visible.
func columns(samples []int16, width, top int) []int {
	cols := make([]int, width)
	bucket := max(1, len(samples)/width)

	for col := range cols {
		start := col * bucket
		if start >= len(samples) {
			break
		}

		p := peak(samples[start:min(start+bucket, len(samples))])
		cols[col] = min(int(math.Sqrt(float64(p)/maxAmplitude)*float64(top)), top)
	}

	return cols
}

func peak(samples []int16) int {
	p := 0
	for _, s := range samples {
		p = max(p, abs(int(s)))
	}

	return min(p, maxAmplitude)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}

	return v
}
