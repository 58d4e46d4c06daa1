// Package ui provides the terminal interface for voicebox.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/voicebox/tts"
)

const (
	statusMessageTimeout = time.Second * 3 // how long to show notices like "copied!"
	ellipsis             = "…"
	defaultWidth         = 80
)

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

// Session is the part of the synthesis controller the interface drives.
type Session interface {
	Submit(ctx context.Context, text string) (*tts.Request, error)
	Replay(id uint64) error
	State() tts.State
	Changes() <-chan struct{}
}

// NewProgram returns a new Tea program.
func NewProgram(cfg Config, session Session) *tea.Program {
	log.Debug("Starting voicebox", "alt_screen", !cfg.NoAltScreen)

	var opts []tea.ProgramOption
	if !cfg.NoAltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	return tea.NewProgram(newModel(cfg, session), opts...)
}

type (
	stateChangedMsg  struct{ state tts.State }
	submittedMsg     struct{ err error }
	replayedMsg      struct{ err error }
	copiedMsg        struct{ err error }
	noticeTimeoutMsg struct{ seq int }
)

// focus is the area receiving key presses.
type focus int

const (
	focusInput focus = iota
	focusHistory
)

func (f focus) String() string {
	return map[focus]string{
		focusInput:   "input",
		focusHistory: "history",
	}[f]
}

type model struct {
	cfg     Config
	session Session
	width   int

	input    textinput.Model
	spinner  spinner.Model
	spinning bool
	focus    focus

	// Latest snapshot of the session.
	state tts.State

	// ID of the highlighted history entry.
	selectedID uint64

	// Transient message shown under the status line.
	notice      string
	noticeIsErr bool
	noticeSeq   int
}

func newModel(cfg Config, session Session) model {
	ti := textinput.New()
	ti.Placeholder = cfg.Placeholder
	ti.CharLimit = cfg.CharLimit
	ti.Prompt = "> "
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = activeStyle

	m := model{
		cfg:     cfg,
		session: session,
		width:   defaultWidth,
		input:   ti,
		spinner: sp,
	}
	m.applyState(session.State())
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForChange(m.session))
}

// waitForChange blocks until the session reports a change.
func waitForChange(s Session) tea.Cmd {
	return func() tea.Msg {
		<-s.Changes()
		return stateChangedMsg{state: s.State()}
	}
}

func submitCmd(s Session, text string) tea.Cmd {
	return func() tea.Msg {
		_, err := s.Submit(context.Background(), text)
		return submittedMsg{err: err}
	}
}

func replayCmd(s Session, id uint64) tea.Cmd {
	return func() tea.Msg {
		return replayedMsg{err: s.Replay(id)}
	}
}

func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{err: writeClipboard(text)}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Ctrl+C always quits no matter where in the application you are.
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.focus == focusHistory {
			return m.updateHistory(msg)
		}
		return m.updateInput(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(10, msg.Width-4)

	case stateChangedMsg:
		m.applyState(msg.state)
		cmds = append(cmds, waitForChange(m.session))
		if m.state.Busy && !m.spinning {
			m.spinning = true
			cmds = append(cmds, m.spinner.Tick)
		}

	case spinner.TickMsg:
		if !m.state.Busy {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case submittedMsg:
		switch {
		case msg.err == nil:
			m.input.Reset()
		case errors.Is(msg.err, tts.ErrBusy):
			cmds = append(cmds, m.setNotice("Still working on the last request", true))
		default:
			cmds = append(cmds, m.setNotice(tts.Describe(msg.err), true))
		}

	case replayedMsg:
		// Render failures show up in the session's error line.
		if msg.err != nil && !tts.IsRender(msg.err) {
			cmds = append(cmds, m.setNotice(tts.Describe(msg.err), true))
		}

	case copiedMsg:
		if msg.err != nil {
			log.Warn("Copy to clipboard failed", "error", msg.err)
			cmds = append(cmds, m.setNotice("Copy failed: "+msg.err.Error(), true))
		} else {
			cmds = append(cmds, m.setNotice("Copied to clipboard", false))
		}

	case noticeTimeoutMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
	}

	return m, tea.Batch(cmds...)
}

func (m model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, tea.Quit

	case "enter":
		text := m.input.Value()
		if strings.TrimSpace(text) == "" {
			cmd := m.setNotice(tts.Describe(tts.ErrEmptyText), true)
			return m, cmd
		}
		return m, submitCmd(m.session, text)

	case "tab", "down":
		if len(m.state.History) > 0 {
			m.focus = focusHistory
			m.input.Blur()
			if m.selectedIndex() < 0 {
				m.selectedID = m.state.History[0].ID
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) updateHistory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	idx := m.selectedIndex()

	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "tab", "esc", "i":
		m.focus = focusInput
		cmd := m.input.Focus()
		return m, cmd

	case "up", "k":
		if idx <= 0 {
			m.focus = focusInput
			cmd := m.input.Focus()
			return m, cmd
		}
		m.selectedID = m.state.History[idx-1].ID

	case "down", "j":
		if idx >= 0 && idx < len(m.state.History)-1 {
			m.selectedID = m.state.History[idx+1].ID
		}

	case "enter", " ":
		if idx >= 0 {
			return m, replayCmd(m.session, m.selectedID)
		}

	case "c", "y":
		if idx >= 0 {
			return m, copyCmd(m.state.History[idx].Text)
		}
	}
	return m, nil
}

// applyState stores a snapshot and keeps the selection on a live entry.
func (m *model) applyState(s tts.State) {
	m.state = s
	if len(s.History) == 0 {
		m.selectedID = 0
		if m.focus == focusHistory {
			m.focus = focusInput
			m.input.Focus()
		}
		return
	}
	if m.selectedIndex() < 0 {
		m.selectedID = s.History[0].ID
	}
}

func (m model) selectedIndex() int {
	for i, e := range m.state.History {
		if e.ID == m.selectedID {
			return i
		}
	}
	return -1
}

func (m *model) setNotice(text string, isErr bool) tea.Cmd {
	m.noticeSeq++
	m.notice = text
	m.noticeIsErr = isErr
	seq := m.noticeSeq
	return tea.Tick(statusMessageTimeout, func(time.Time) tea.Msg {
		return noticeTimeoutMsg{seq: seq}
	})
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("voicebox"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(m.statusView())
	b.WriteString("\n")
	if m.notice != "" {
		if m.noticeIsErr {
			b.WriteString(errorStyle.Render(m.notice))
		} else {
			b.WriteString(noticeStyle.Render(m.notice))
		}
	}
	b.WriteString("\n\n")
	b.WriteString(m.historyView())
	b.WriteString(helpStyle.Render(m.helpView()))
	b.WriteString("\n")

	return b.String()
}

func (m model) statusView() string {
	s := m.state

	if s.LastError != "" {
		return errorStyle.Render("Error: " + s.LastError)
	}

	switch s.Status {
	case tts.StatusDispatching:
		text := "Synthesizing"
		if s.InFlight != nil {
			text += fmt.Sprintf(" %q", tts.Preview(s.InFlight.Text, 40))
		}
		return m.spinner.View() + " " + activeStyle.Render(text+ellipsis)
	case tts.StatusReplaying:
		return activeStyle.Render("Replaying" + ellipsis)
	case tts.StatusPlayed:
		return playedStyle.Render("Played")
	case tts.StatusFailed:
		return errorStyle.Render("Failed")
	default:
		return statusStyle.Render("Ready")
	}
}

func (m model) helpView() string {
	if m.focus == focusHistory {
		return "↑/↓ select • enter replay • c copy • tab edit • q quit"
	}
	if len(m.state.History) > 0 {
		return "enter speak • tab history • esc quit"
	}
	return "enter speak • esc quit"
}
