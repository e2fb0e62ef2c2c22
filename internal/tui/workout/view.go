package workout

import (
	"fmt"
	"strings"
	"time"

	"github.com/alkime/onerep/internal/session"
	"github.com/alkime/onerep/internal/tui/style"
)

func (m Model) View() string {
	sections := []string{
		m.header(),
		m.exercises(),
		m.countdown(),
	}

	if line := m.heard(); line != "" {
		sections = append(sections, line)
	}

	if m.listening {
		sections = append(sections, m.spinner.View()+" Listening...", m.wave.View())
	}

	if m.editing {
		sections = append(sections, m.weight.View())
	}

	if m.status != "" {
		st := style.Success
		if m.failed {
			st = style.Error
		}

		sections = append(sections, st.Render(m.status))
	}

	sections = append(sections, m.help.View(m.keys))

	return strings.Join(sections, "\n\n") + "\n"
}

func (m Model) header() string {
	name := m.snap.Workout
	if name == "" {
		name = "Workout"
	}

	stats := fmt.Sprintf("%d/%d done  %s", m.snap.CompletedCount, len(m.snap.Entries), session.FormatElapsed(m.snap.Elapsed))

	return style.Title.Render(name) + "  " + style.Subtitle.Render(stats)
}

func (m Model) exercises() string {
	lines := make([]string, 0, len(m.snap.Entries))

	for i, e := range m.snap.Entries {
		marker := style.Muted.Render("·")

		switch {
		case i == m.snap.Current:
			marker = style.Bullet.Render("▶")
		case e.Completed:
			marker = style.Success.Render("✓")
		}

		line := fmt.Sprintf("%s %d. %s", marker, i+1, e.Exercise.Name)
		if detail := entryDetail(e); detail != "" {
			line += "  " + style.Muted.Render(detail)
		}

		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

func entryDetail(e session.Entry) string {
	var parts []string

	switch {
	case e.Exercise.IsBodyweight:
		parts = append(parts, "bodyweight")
	case e.Weight > 0:
		parts = append(parts, fmt.Sprintf("%d lb", e.Weight))
	}

	if e.Exercise.IsNegativeOnly {
		parts = append(parts, "negative only")
	}

	if e.ReachedFailure {
		parts = append(parts, "failure")
	}

	return strings.Join(parts, ", ")
}

func (m Model) countdown() string {
	s := m.snap

	var body string

	switch {
	case s.Finished && !s.Active:
		body = style.Success.Render("Workout complete") + "\n" +
			style.Subtitle.Render(fmt.Sprintf("%d exercises in %s", s.CompletedCount, session.FormatElapsed(s.Elapsed)))
	case !s.Active:
		body = style.Subtitle.Render("Press 1-9 to start an exercise, or v and say \"start leg press\"")
	default:
		title := style.Phase(s.Phase).Render(strings.ToUpper(s.Phase.DisplayName()))
		if s.Paused {
			title += "  " + style.Warning.Render("PAUSED")
		}

		remaining := style.Countdown.Render(session.FormatElapsed(time.Duration(s.Remaining) * time.Second))

		lines := []string{
			title + "  " + remaining,
			m.bar.ViewAs(s.Progress),
		}

		if s.Resting() && s.Next != "" {
			lines = append(lines, style.Label.Render("Next:")+" "+s.Next)
		} else if s.Exercise != "" {
			lines = append(lines, style.Label.Render("Exercise:")+" "+s.Exercise)
		}

		body = strings.Join(lines, "\n")
	}

	if s.Message != "" {
		body += "\n" + style.Muted.Render(s.Message)
	}

	return style.Panel.Width(m.bar.Width + 4).Render(body)
}

func (m Model) heard() string {
	h := m.snap.Heard
	if h.Text == "" {
		return ""
	}

	return style.Label.Render("Heard:") + " " + fmt.Sprintf("%q", h.Text) +
		style.Muted.Render(fmt.Sprintf("  (%s, %.0f%%)", h.Kind, h.Confidence*100))
}
