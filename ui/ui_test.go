package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dgnsrekt/voicebox/tts"
)

// fakeSession records calls made by the model.
type fakeSession struct {
	state     tts.State
	changes   chan struct{}
	submitted []string
	submitErr error
	replayed  []uint64
	replayErr error
}

func newFakeSession(history ...tts.HistoryEntry) *fakeSession {
	return &fakeSession{
		state:   tts.State{History: history},
		changes: make(chan struct{}, 1),
	}
}

func (f *fakeSession) Submit(_ context.Context, text string) (*tts.Request, error) {
	f.submitted = append(f.submitted, text)
	return nil, f.submitErr
}

func (f *fakeSession) Replay(id uint64) error {
	f.replayed = append(f.replayed, id)
	return f.replayErr
}

func (f *fakeSession) State() tts.State         { return f.state }
func (f *fakeSession) Changes() <-chan struct{} { return f.changes }

func entry(id uint64, text string) tts.HistoryEntry {
	return tts.HistoryEntry{
		ID:        id,
		Text:      text,
		Waveform:  tts.Waveform{Samples: make([]float32, 16000), SampleRate: 16000},
		CreatedAt: time.Now().Add(-time.Minute),
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return nm, cmd
}

func TestEnterSubmitsText(t *testing.T) {
	s := newFakeSession()
	m := newModel(DefaultConfig(), s)
	m.input.SetValue("hello there")

	m, cmd := update(t, m, key("enter"))
	if cmd == nil {
		t.Fatal("expected submit command")
	}
	msg := cmd()
	if len(s.submitted) != 1 || s.submitted[0] != "hello there" {
		t.Fatalf("submitted = %v", s.submitted)
	}

	m, _ = update(t, m, msg)
	if m.input.Value() != "" {
		t.Errorf("input should be cleared after submit, got %q", m.input.Value())
	}
}

func TestEnterBlankDoesNotSubmit(t *testing.T) {
	s := newFakeSession()
	m := newModel(DefaultConfig(), s)
	m.input.SetValue("   ")

	m, _ = update(t, m, key("enter"))
	if len(s.submitted) != 0 {
		t.Errorf("blank text should not be submitted")
	}
	if m.notice != tts.ErrEmptyText.Error() {
		t.Errorf("notice = %q", m.notice)
	}
	if s.state.LastError != "" {
		t.Errorf("validation should not set the session error")
	}
}

func TestBusySubmitKeepsInput(t *testing.T) {
	s := newFakeSession()
	s.submitErr = tts.ErrBusy
	m := newModel(DefaultConfig(), s)
	m.input.SetValue("again")

	m, cmd := update(t, m, key("enter"))
	m, _ = update(t, m, cmd())

	if m.input.Value() != "again" {
		t.Errorf("input = %q, want it kept", m.input.Value())
	}
	if !m.noticeIsErr || m.notice == "" {
		t.Errorf("expected a busy notice, got %q", m.notice)
	}
}

func TestHistoryNavigationAndReplay(t *testing.T) {
	s := newFakeSession(entry(3, "third"), entry(2, "second"), entry(1, "first"))
	m := newModel(DefaultConfig(), s)

	m, _ = update(t, m, key("tab"))
	if m.focus != focusHistory {
		t.Fatalf("focus = %s, want history", m.focus)
	}
	if m.selectedID != 3 {
		t.Fatalf("selected = %d, want newest entry", m.selectedID)
	}

	m, _ = update(t, m, key("down"))
	m, _ = update(t, m, key("j"))
	m, _ = update(t, m, key("j")) // stays on the last entry
	if m.selectedID != 1 {
		t.Fatalf("selected = %d, want 1", m.selectedID)
	}

	m, _ = update(t, m, key("k"))
	_, cmd := update(t, m, key("enter"))
	if cmd == nil {
		t.Fatal("expected replay command")
	}
	if msg, ok := cmd().(replayedMsg); !ok || msg.err != nil {
		t.Fatalf("unexpected replay result %#v", msg)
	}
	if len(s.replayed) != 1 || s.replayed[0] != 2 {
		t.Errorf("replayed = %v, want [2]", s.replayed)
	}
}

func TestUpFromTopReturnsToInput(t *testing.T) {
	s := newFakeSession(entry(1, "only"))
	m := newModel(DefaultConfig(), s)

	m, _ = update(t, m, key("tab"))
	m, _ = update(t, m, key("up"))
	if m.focus != focusInput {
		t.Errorf("focus = %s, want input", m.focus)
	}
	if !m.input.Focused() {
		t.Error("input should be focused")
	}
}

func TestTabWithoutHistoryStaysOnInput(t *testing.T) {
	m := newModel(DefaultConfig(), newFakeSession())

	m, _ = update(t, m, key("tab"))
	if m.focus != focusInput {
		t.Errorf("focus = %s, want input", m.focus)
	}
}

func TestReplayBusyShowsNotice(t *testing.T) {
	s := newFakeSession(entry(1, "only"))
	s.replayErr = tts.ErrBusy
	m := newModel(DefaultConfig(), s)

	m, _ = update(t, m, key("tab"))
	m, cmd := update(t, m, key("enter"))
	m, _ = update(t, m, cmd())
	if m.notice != tts.ErrBusy.Error() {
		t.Errorf("notice = %q", m.notice)
	}
}

func TestCopyEntry(t *testing.T) {
	var copied string
	orig := writeClipboard
	writeClipboard = func(text string) error {
		copied = text
		return nil
	}
	defer func() { writeClipboard = orig }()

	s := newFakeSession(entry(7, "copy me"))
	m := newModel(DefaultConfig(), s)

	m, _ = update(t, m, key("tab"))
	m, cmd := update(t, m, key("c"))
	if cmd == nil {
		t.Fatal("expected copy command")
	}
	m, _ = update(t, m, cmd())
	if copied != "copy me" {
		t.Errorf("copied = %q", copied)
	}
	if m.notice != "Copied to clipboard" {
		t.Errorf("notice = %q", m.notice)
	}

	m, _ = update(t, m, copiedMsg{err: errors.New("no clipboard")})
	if !strings.Contains(m.notice, "no clipboard") {
		t.Errorf("notice = %q", m.notice)
	}
}

func TestStateChangeKeepsSelection(t *testing.T) {
	s := newFakeSession(entry(2, "b"), entry(1, "a"))
	m := newModel(DefaultConfig(), s)
	m, _ = update(t, m, key("tab"))
	m, _ = update(t, m, key("down"))

	// A new entry arrives at the front.
	next := tts.State{History: []tts.HistoryEntry{entry(3, "c"), entry(2, "b"), entry(1, "a")}}
	m, cmd := update(t, m, stateChangedMsg{state: next})
	if cmd == nil {
		t.Error("expected the model to keep listening for changes")
	}
	if m.selectedID != 1 {
		t.Errorf("selected = %d, want 1", m.selectedID)
	}

	// The selected entry is evicted.
	next = tts.State{History: []tts.HistoryEntry{entry(4, "d"), entry(3, "c")}}
	m, _ = update(t, m, stateChangedMsg{state: next})
	if m.selectedID != 4 {
		t.Errorf("selected = %d, want 4", m.selectedID)
	}
}

func TestNoticeTimeout(t *testing.T) {
	m := newModel(DefaultConfig(), newFakeSession())
	m.input.SetValue("")
	m, _ = update(t, m, key("enter"))
	seq := m.noticeSeq

	m, _ = update(t, m, noticeTimeoutMsg{seq: seq - 1})
	if m.notice == "" {
		t.Fatal("stale timeout cleared the notice")
	}
	m, _ = update(t, m, noticeTimeoutMsg{seq: seq})
	if m.notice != "" {
		t.Errorf("notice = %q, want cleared", m.notice)
	}
}

func TestStatusView(t *testing.T) {
	tests := []struct {
		name  string
		state tts.State
		want  string
	}{
		{"idle", tts.State{}, "Ready"},
		{"dispatching", tts.State{Busy: true, Status: tts.StatusDispatching, InFlight: &tts.RequestInfo{Text: "hello"}}, `Synthesizing "hello"`},
		{"played", tts.State{Status: tts.StatusPlayed}, "Played"},
		{"replaying", tts.State{Status: tts.StatusReplaying}, "Replaying"},
		{"error", tts.State{Status: tts.StatusFailed, LastError: "engine down"}, "Error: engine down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newModel(DefaultConfig(), newFakeSession())
			m.state = tt.state
			if got := m.statusView(); !strings.Contains(got, tt.want) {
				t.Errorf("statusView() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestHistoryView(t *testing.T) {
	m := newModel(DefaultConfig(), newFakeSession())
	if !strings.Contains(m.historyView(), "Nothing spoken yet") {
		t.Error("empty history placeholder missing")
	}

	long := strings.Repeat("word ", 50)
	m = newModel(DefaultConfig(), newFakeSession(entry(1, long)))
	m.width = 60
	view := m.historyView()
	if !strings.Contains(view, "minute ago") {
		t.Errorf("expected a relative time in %q", view)
	}
	if !strings.Contains(view, ellipsis) {
		t.Errorf("expected long text to be truncated in %q", view)
	}

	cfg := DefaultConfig()
	cfg.AbsoluteTimes = true
	cfg.TimeFormat = "2006"
	m = newModel(cfg, newFakeSession(entry(1, "short")))
	if !strings.Contains(m.historyView(), time.Now().Format("2006")) {
		t.Error("expected an absolute timestamp")
	}
}

func TestCtrlCQuits(t *testing.T) {
	m := newModel(DefaultConfig(), newFakeSession())
	_, cmd := update(t, m, key("ctrl+c"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should quit")
	}
}
