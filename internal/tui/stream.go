package tui

import (
	"context"

	"chatterm/internal/chat"
	"chatterm/internal/conversation"

	tea "github.com/charmbracelet/bubbletea"
)

// ─── Messages delivered to Bubble Tea ───────────────────────────────────────

// conversationChangedMsg reports that the store was mutated at least once
// since the previous message.
type conversationChangedMsg struct{}

// sendSettledMsg is returned once the network call of a send has settled.
// The reveal may still be running.
type sendSettledMsg struct {
	action *chat.Action
	err    error
}

// ─── Commands ───────────────────────────────────────────────────────────────
//
// waitForChange reads one notification from the store and returns it as a
// message. Update issues another waitForChange after each one, so there is
// always exactly one reader.

func waitForChange(store *conversation.Store) tea.Cmd {
	ch := store.Changes()
	return func() tea.Msg {
		<-ch
		return conversationChangedMsg{}
	}
}

// sendCmd runs one send action. Controller.Send blocks only until the
// network call settles, so the message arrives while the reveal continues.
func sendCmd(ctx context.Context, c *chat.Controller, input string) tea.Cmd {
	return func() tea.Msg {
		a, err := c.Send(ctx, input)
		return sendSettledMsg{action: a, err: err}
	}
}
