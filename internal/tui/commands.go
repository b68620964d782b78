package tui

import (
	"fmt"
	"strings"

	"chatterm/internal/config"

	tea "github.com/charmbracelet/bubbletea"
)

// ─── Input dispatcher ───────────────────────────────────────────────────────

// dispatchInput routes a submitted line. raw is the input as typed; commands
// are matched on the trimmed form, messages are sent as typed.
func (m model) dispatchInput(raw string) (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(raw)
	if input == "?" {
		return m.cmdHelp()
	}
	if strings.HasPrefix(input, "/") {
		return m.dispatchCommand(input)
	}
	return m.cmdSend(raw)
}

func (m model) dispatchCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	switch cmd := strings.ToLower(parts[0]); cmd {
	case "/help", "/h":
		return m.cmdHelp()
	case "/config":
		return m.cmdConfig()
	case "/quit", "/exit", "/q":
		return m.quit()
	default:
		m.notice = errorMsgStyle.Render(fmt.Sprintf("  ✗ Unknown command: %s. Type /help", cmd))
		return m, nil
	}
}

// ─── send ───────────────────────────────────────────────────────────────────

func (m model) cmdSend(raw string) (tea.Model, tea.Cmd) {
	if m.controller == nil {
		m.notice = errorMsgStyle.Render("  ✗ No chat endpoint configured. Run: chatterm set endpoint <url>")
		return m, nil
	}
	m.notice = ""
	m.pending++
	return m, tea.Batch(sendCmd(m.ctx, m.controller, raw), m.spinner.Tick)
}

// ─── /help ──────────────────────────────────────────────────────────────────

func (m model) cmdHelp() (tea.Model, tea.Cmd) {
	lines := []string{
		dimStyle.Render("  Shortcuts:"),
		"  " + pad(hintKeyStyle.Render("Enter"), 24) + dimStyle.Render("Send the message"),
		"  " + pad(hintKeyStyle.Render("↑ / ↓"), 24) + dimStyle.Render("Browse input history"),
		"  " + pad(hintKeyStyle.Render("PgUp / PgDn"), 24) + dimStyle.Render("Scroll the conversation"),
		"  " + pad(hintKeyStyle.Render("/config"), 24) + dimStyle.Render("Show current configuration"),
		"  " + pad(hintKeyStyle.Render("/help"), 24) + dimStyle.Render("Show this help"),
		"  " + pad(hintKeyStyle.Render("/quit"), 24) + dimStyle.Render("Exit chatterm"),
		dimStyle.Render("  Esc closes this panel."),
	}
	m.notice = strings.Join(lines, "\n")
	return m, nil
}

// ─── /config ────────────────────────────────────────────────────────────────

func (m model) cmdConfig() (tea.Model, tea.Cmd) {
	if m.cfg == nil {
		m.notice = warnMsgStyle.Render("  ! No configuration loaded.")
		return m, nil
	}
	c := m.cfg
	logFile := c.LogFile
	if logFile == "" {
		logFile = "(disabled)"
	}
	targeting := c.Targeting
	if targeting == "" {
		targeting = config.TargetingRecord
	}

	lines := []string{
		dimStyle.Render("  Configuration:"),
		"  " + pad("Profile:", 18) + config.ProfileName(c.Profile),
		"  " + pad("Endpoint:", 18) + c.Endpoint,
		"  " + pad("Reveal interval:", 18) + c.RevealInterval().String(),
		"  " + pad("Answer delay:", 18) + c.AnswerDelay().String(),
		"  " + pad("Timeout:", 18) + c.Timeout().String(),
		"  " + pad("Targeting:", 18) + targeting,
		"  " + pad("Log file:", 18) + logFile,
	}
	m.notice = strings.Join(lines, "\n")
	return m, nil
}
