package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/voicebox/tts"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/truncate"
)

func (m model) historyView() string {
	var b strings.Builder

	b.WriteString(dimStyle.Render("History"))
	b.WriteString("\n")

	if len(m.state.History) == 0 {
		b.WriteString(dimStyle.Render("  Nothing spoken yet."))
		b.WriteString("\n")
		return b.String()
	}

	for _, e := range m.state.History {
		selected := m.focus == focusHistory && e.ID == m.selectedID
		b.WriteString(m.historyLine(e, selected))
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) historyLine(e tts.HistoryEntry, selected bool) string {
	cursor := "  "
	style := entryStyle
	if selected {
		cursor = "> "
		style = selectedStyle
	}

	meta := fmt.Sprintf("%s · %.1fs", m.formatTime(e.CreatedAt), e.Waveform.Duration().Seconds())

	// Leave room for the cursor, the metadata and a gap.
	room := m.width - lipgloss.Width(cursor) - lipgloss.Width(meta) - 2
	if room < 10 {
		room = 10
	}
	text := strings.Join(strings.Fields(e.Text), " ")
	text = truncate.StringWithTail(text, uint(room), ellipsis) //nolint:gosec

	return cursor + style.Render(text) + "  " + dimStyle.Render(meta)
}

func (m model) formatTime(t time.Time) string {
	if m.cfg.AbsoluteTimes {
		return t.Format(m.cfg.TimeFormat)
	}
	return humanize.Time(t)
}
