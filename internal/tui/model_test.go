package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"chatterm/internal/api"
	"chatterm/internal/chat"
	"chatterm/internal/config"
	"chatterm/internal/conversation"
	"chatterm/internal/reveal"

	tea "github.com/charmbracelet/bubbletea"
)

// mockAPI implements api.ChatAPI for testing.
type mockAPI struct {
	thought string
	answer  string
	err     error // if set, Chat returns this error
}

func (m *mockAPI) Chat(ctx context.Context, message string) (*api.ChatResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &api.ChatResponse{Response: &api.ChatBody{
		InternalThought: []string{m.thought},
		Output:          []string{m.answer},
	}}, nil
}

var _ api.ChatAPI = (*mockAPI)(nil)

func newTestModel(t *testing.T, client api.ChatAPI) model {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	c := chat.New(conversation.NewStore(), client,
		chat.WithScheduler(reveal.New(time.Millisecond)),
		chat.WithAnswerDelay(time.Millisecond),
	)
	m := initialModel(ctx, cancel, c, config.Default(""), "test", "notty")
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(model)
}

func pressEnter(m model, value string) (model, tea.Cmd) {
	m.input.SetValue(value)
	result, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return result.(model), cmd
}

// collectMsgs runs cmd and flattens batches. Only use it on commands that
// do not sleep.
func collectMsgs(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collectMsgs(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func settledFrom(t *testing.T, cmd tea.Cmd) sendSettledMsg {
	t.Helper()
	for _, msg := range collectMsgs(cmd) {
		if s, ok := msg.(sendSettledMsg); ok {
			return s
		}
	}
	t.Fatal("no sendSettledMsg produced")
	return sendSettledMsg{}
}

func TestMatchCommands(t *testing.T) {
	tests := []struct {
		prefix string
		want   []string
	}{
		{"/", []string{"/config", "/help", "/quit"}},
		{"/h", []string{"/help"}},
		{"/C", []string{"/config"}},
		{"/q", []string{"/quit"}},
		{"/x", nil},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			got := matchCommands(tt.prefix)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d matches, want %d", len(got), len(tt.want))
			}
			for i, c := range got {
				if c.name != tt.want[i] {
					t.Errorf("match[%d] = %q, want %q", i, c.name, tt.want[i])
				}
			}
		})
	}
}

func TestDispatchCommand(t *testing.T) {
	tests := []struct {
		input      string
		wantNotice string
	}{
		{"/help", "/config"},
		{"/h", "Shortcuts"},
		{"/config", config.DefaultEndpoint},
		{"/unknown", "Unknown command: /unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m := newTestModel(t, &mockAPI{})
			result, _ := m.dispatchCommand(tt.input)
			rm := result.(model)
			if !strings.Contains(rm.notice, tt.wantNotice) {
				t.Errorf("notice = %q, want it to contain %q", rm.notice, tt.wantNotice)
			}
		})
	}
}

func TestDispatchInput(t *testing.T) {
	t.Run("question mark shows help", func(t *testing.T) {
		m := newTestModel(t, &mockAPI{})
		result, _ := m.dispatchInput("?")
		if !strings.Contains(result.(model).notice, "Shortcuts") {
			t.Error("expected help notice")
		}
	})

	t.Run("quit cancels session", func(t *testing.T) {
		m := newTestModel(t, &mockAPI{})
		_, cmd := m.dispatchInput("/quit")
		if cmd == nil {
			t.Fatal("expected quit cmd")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
		if m.ctx.Err() == nil {
			t.Error("session context should be cancelled on quit")
		}
	})

	t.Run("plain text starts a send", func(t *testing.T) {
		m := newTestModel(t, &mockAPI{thought: "t", answer: "a"})
		result, cmd := m.dispatchInput("hello")
		rm := result.(model)
		if rm.pending != 1 {
			t.Errorf("pending = %d, want 1", rm.pending)
		}
		if cmd == nil {
			t.Error("expected send cmd")
		}
	})

	t.Run("send without controller shows error", func(t *testing.T) {
		m := newTestModel(t, &mockAPI{})
		m.controller = nil
		result, cmd := m.dispatchInput("hello")
		rm := result.(model)
		if cmd != nil {
			t.Error("expected no cmd")
		}
		if !strings.Contains(rm.notice, "No chat endpoint") {
			t.Errorf("notice = %q", rm.notice)
		}
	})
}

func TestEnterLocksInputUntilSettled(t *testing.T) {
	m := newTestModel(t, &mockAPI{thought: "t", answer: "a"})

	m, cmd := pressEnter(m, "hello")
	if cmd == nil {
		t.Fatal("expected send cmd")
	}
	if m.pending != 1 || !m.busy() {
		t.Fatalf("pending = %d, busy = %v; want 1, true", m.pending, m.busy())
	}
	if m.input.Value() != "" {
		t.Errorf("input = %q, want cleared", m.input.Value())
	}

	// A second Enter before the first send settles is dropped.
	m2, cmd2 := pressEnter(m, "again")
	if cmd2 != nil {
		t.Error("second Enter should not produce a cmd while busy")
	}
	if m2.pending != 1 {
		t.Errorf("pending = %d, want 1", m2.pending)
	}

	settled := settledFrom(t, cmd)
	if settled.err != nil {
		t.Fatalf("unexpected error: %v", settled.err)
	}
	settled.action.Wait()

	result, _ := m2.Update(settled)
	rm := result.(model)
	if rm.pending != 0 || rm.busy() {
		t.Errorf("pending = %d, busy = %v; want 0, false", rm.pending, rm.busy())
	}
	if got := rm.store.Len(); got != 3 {
		t.Errorf("store has %d records, want 3", got)
	}
}

func TestEnterIgnoresBlankInput(t *testing.T) {
	for _, in := range []string{"", "   ", "\t"} {
		m := newTestModel(t, &mockAPI{})
		m, cmd := pressEnter(m, in)
		if cmd != nil {
			t.Errorf("%q: expected no cmd", in)
		}
		if m.pending != 0 {
			t.Errorf("%q: pending = %d, want 0", in, m.pending)
		}
		if m.store.Len() != 0 {
			t.Errorf("%q: store has %d records, want 0", in, m.store.Len())
		}
	}
}

func TestAltEnterDoesNotSend(t *testing.T) {
	m := newTestModel(t, &mockAPI{})
	m.input.SetValue("hello")
	result, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter, Alt: true})
	rm := result.(model)
	if cmd != nil || rm.pending != 0 {
		t.Error("Alt+Enter should not send")
	}
	if rm.input.Value() != "hello" {
		t.Errorf("input = %q, want it kept", rm.input.Value())
	}
}

func TestSendSettledShowsError(t *testing.T) {
	m := newTestModel(t, &mockAPI{})
	m.pending = 1
	result, _ := m.Update(sendSettledMsg{err: chat.ErrEmptyInput})
	rm := result.(model)
	if rm.pending != 0 {
		t.Errorf("pending = %d, want 0", rm.pending)
	}
	if !strings.Contains(rm.notice, chat.ErrEmptyInput.Error()) {
		t.Errorf("notice = %q", rm.notice)
	}
}

func TestConversationChangedRendersRecords(t *testing.T) {
	m := newTestModel(t, &mockAPI{thought: "checking the sky", answer: "It is sunny today"})

	settled := settledFrom(t, sendCmd(m.ctx, m.controller, "what is the weather"))
	settled.action.Wait()

	result, cmd := m.Update(conversationChangedMsg{})
	rm := result.(model)
	if cmd == nil {
		t.Error("expected the change watcher to be re-armed")
	}

	view := rm.View()
	for _, want := range []string{"what is the weather", "checking the sky", "It is sunny today"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestFailedSendRendersFailureText(t *testing.T) {
	m := newTestModel(t, &mockAPI{err: errors.New("connection refused")})

	settled := settledFrom(t, sendCmd(m.ctx, m.controller, "hello"))
	settled.action.Wait()
	if settled.action.Err() == nil {
		t.Error("expected the action to carry the request error")
	}

	result, _ := m.Update(conversationChangedMsg{})
	view := result.(model).View()
	if !strings.Contains(view, chat.FailureText) {
		t.Errorf("view missing failure text:\n%s", view)
	}
}

func TestViewShowsSpinnerWhileBusy(t *testing.T) {
	m := newTestModel(t, &mockAPI{})
	if strings.Contains(m.View(), thinkingStatus) {
		t.Error("idle view should not show the thinking status")
	}
	m.pending = 1
	if !strings.Contains(m.View(), thinkingStatus) {
		t.Error("busy view should show the thinking status")
	}
}

func TestWelcomeShownWhenEmpty(t *testing.T) {
	m := newTestModel(t, &mockAPI{})
	view := m.View()
	if !strings.Contains(view, "chatterm") || !strings.Contains(view, config.DefaultEndpoint) {
		t.Errorf("expected welcome screen:\n%s", view)
	}
}

func TestHistoryNavigation(t *testing.T) {
	m := newTestModel(t, &mockAPI{})
	m.history = []string{"first", "second"}
	m.input.SetValue("draft")

	up := func(m model) model {
		r, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})
		return r.(model)
	}
	down := func(m model) model {
		r, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
		return r.(model)
	}

	m = up(m)
	if m.input.Value() != "second" {
		t.Errorf("after Up = %q, want second", m.input.Value())
	}
	m = up(m)
	if m.input.Value() != "first" {
		t.Errorf("after Up Up = %q, want first", m.input.Value())
	}
	m = up(m)
	if m.input.Value() != "first" {
		t.Errorf("Up at top = %q, want first", m.input.Value())
	}
	m = down(m)
	if m.input.Value() != "second" {
		t.Errorf("after Down = %q, want second", m.input.Value())
	}
	m = down(m)
	if m.input.Value() != "draft" {
		t.Errorf("leaving history = %q, want draft restored", m.input.Value())
	}
}

func TestEnterRecordsHistory(t *testing.T) {
	m := newTestModel(t, &mockAPI{})
	m, _ = pressEnter(m, "/help")
	m, _ = pressEnter(m, "/help")
	m, _ = pressEnter(m, "/config")
	if len(m.history) != 2 {
		t.Fatalf("history = %v, want 2 entries", m.history)
	}
	if m.history[1] != "/config" {
		t.Errorf("last history entry = %q", m.history[1])
	}
}

func TestEscClosesNoticeBeforeQuitting(t *testing.T) {
	m := newTestModel(t, &mockAPI{})
	m.notice = "something"

	result, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	rm := result.(model)
	if cmd != nil {
		t.Error("first Esc should only close the notice")
	}
	if rm.notice != "" {
		t.Errorf("notice = %q, want cleared", rm.notice)
	}

	_, cmd = rm.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("second Esc should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestCommandMenuOpensOnSlash(t *testing.T) {
	m := newTestModel(t, &mockAPI{})
	result, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	rm := result.(model)
	if !rm.cmdMenuOpen {
		t.Fatal("menu should open after typing /")
	}
	if !strings.Contains(rm.View(), "/config") {
		t.Error("menu should list commands")
	}

	result, _ = rm.Update(tea.KeyMsg{Type: tea.KeyTab})
	rm = result.(model)
	if rm.input.Value() != "/config" {
		t.Errorf("Tab selected %q, want /config", rm.input.Value())
	}
}
