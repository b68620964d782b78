package tui

import (
	"context"
	"strings"

	"chatterm/internal/chat"
	"chatterm/internal/config"
	"chatterm/internal/conversation"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ─── Slash command registry ─────────────────────────────────────────────────

type slashCmd struct {
	name string
	desc string
}

var slashCommands = []slashCmd{
	{"/config", "Show current configuration"},
	{"/help", "Show all commands"},
	{"/quit", "Exit chatterm"},
}

const (
	inputPlaceholder = "Send a message or type /help..."
	thinkingStatus   = "The assistant is thinking..."
	maxHistory       = 1000
)

// ─── Model ──────────────────────────────────────────────────────────────────

type model struct {
	width  int
	height int

	// Bubble Tea components
	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model
	renderer *conversationRenderer

	// App state
	ctx        context.Context
	cancel     context.CancelFunc
	controller *chat.Controller
	store      *conversation.Store
	cfg        *config.Config
	version    string

	// pending counts sends started here whose network call has not
	// settled. It is raised on Enter, before the controller sees the send,
	// so a second Enter cannot slip through.
	pending int

	// notice is a transient message shown above the input (help, config,
	// errors). Cleared on the next send.
	notice string

	// UI state
	ready        bool
	cmdMenuIdx   int
	cmdMenuOpen  bool
	lastInputVal string

	// Command history
	history      []string
	historyIdx   int
	historySaved string
}

func initialModel(ctx context.Context, cancel context.CancelFunc, controller *chat.Controller, cfg *config.Config, version, style string) model {
	ti := textinput.New()
	ti.Placeholder = inputPlaceholder
	ti.Focus()
	ti.CharLimit = 4096
	ti.Prompt = "❯ "
	ti.PromptStyle = promptSymbol
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(colorOrange)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorOrange)

	vp := viewport.New(80, 20)
	vp.SetContent("")

	store := conversation.NewStore()
	if controller != nil {
		store = controller.Store()
	}

	return model{
		input:      ti,
		spinner:    sp,
		viewport:   vp,
		renderer:   newConversationRenderer(style, 80),
		ctx:        ctx,
		cancel:     cancel,
		controller: controller,
		store:      store,
		cfg:        cfg,
		version:    version,
		history:    make([]string, 0),
		historyIdx: -1,
	}
}

// busy is true while any send is waiting on the network.
func (m model) busy() bool {
	return m.pending > 0 || (m.controller != nil && m.controller.Busy())
}

// ─── Init ───────────────────────────────────────────────────────────────────

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		waitForChange(m.store),
	)
}

// ─── Update ─────────────────────────────────────────────────────────────────

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = m.width - 6
		m.renderer.resize(m.width)
		m.ready = true
		m.refresh()
		m.layout()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m.quit()

		case tea.KeyEsc:
			if m.cmdMenuOpen {
				m.cmdMenuOpen = false
				m.cmdMenuIdx = 0
				m.layout()
				return m, nil
			}
			if m.notice != "" {
				m.notice = ""
				m.layout()
				return m, nil
			}
			return m.quit()

		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd

		case tea.KeyUp:
			if m.cmdMenuOpen {
				matches := matchCommands(m.input.Value())
				if len(matches) > 0 {
					m.cmdMenuIdx--
					if m.cmdMenuIdx < 0 {
						m.cmdMenuIdx = len(matches) - 1
					}
					return m, nil
				}
			} else if len(m.history) > 0 && !m.busy() {
				if m.historyIdx == -1 {
					m.historySaved = m.input.Value()
					m.historyIdx = len(m.history) - 1
				} else {
					m.historyIdx--
					if m.historyIdx < 0 {
						m.historyIdx = 0
					}
				}
				m.input.SetValue(m.history[m.historyIdx])
				m.input.CursorEnd()
				return m, nil
			}

		case tea.KeyDown:
			if m.cmdMenuOpen {
				matches := matchCommands(m.input.Value())
				if len(matches) > 0 {
					m.cmdMenuIdx++
					if m.cmdMenuIdx >= len(matches) {
						m.cmdMenuIdx = 0
					}
					return m, nil
				}
			} else if m.historyIdx != -1 {
				m.historyIdx++
				if m.historyIdx >= len(m.history) {
					m.historyIdx = -1
					m.input.SetValue(m.historySaved)
					m.historySaved = ""
				} else {
					m.input.SetValue(m.history[m.historyIdx])
				}
				m.input.CursorEnd()
				return m, nil
			}

		case tea.KeyTab:
			if m.cmdMenuOpen {
				matches := matchCommands(m.input.Value())
				if len(matches) > 0 {
					idx := m.cmdMenuIdx
					if idx < 0 || idx >= len(matches) {
						idx = 0
					}
					m.input.SetValue(matches[idx].name)
					m.input.CursorEnd()
					m.cmdMenuOpen = false
					m.cmdMenuIdx = 0
					m.layout()
				}
				return m, nil
			}

		case tea.KeyEnter:
			// Alt+Enter is a modified Enter and never sends.
			if msg.Alt {
				return m, nil
			}
			if m.busy() {
				return m, nil
			}

			if m.cmdMenuOpen && m.cmdMenuIdx >= 0 {
				matches := matchCommands(m.input.Value())
				if m.cmdMenuIdx < len(matches) && matches[m.cmdMenuIdx].name != strings.TrimSpace(m.input.Value()) {
					m.input.SetValue(matches[m.cmdMenuIdx].name)
					m.input.CursorEnd()
					m.cmdMenuOpen = false
					m.cmdMenuIdx = 0
					m.layout()
					return m, nil
				}
			}

			raw := m.input.Value()
			value := strings.TrimSpace(raw)
			if value == "" {
				return m, nil
			}

			if len(m.history) == 0 || m.history[len(m.history)-1] != value {
				m.history = append(m.history, value)
				if len(m.history) > maxHistory {
					m.history = m.history[len(m.history)-maxHistory:]
				}
			}
			m.historyIdx = -1
			m.historySaved = ""

			m.input.SetValue("")
			m.lastInputVal = ""
			m.cmdMenuOpen = false
			m.cmdMenuIdx = 0

			next, cmd := m.dispatchInput(raw)
			nm := next.(model)
			nm.layout()
			return nm, cmd
		}

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	// ── Conversation messages ─────────────────────────────────────────
	case conversationChangedMsg:
		m.refresh()
		return m, waitForChange(m.store)

	case sendSettledMsg:
		if m.pending > 0 {
			m.pending--
		}
		if msg.err != nil {
			m.notice = errorMsgStyle.Render("  ✗ " + msg.err.Error())
		}
		if !m.busy() {
			m.input.Focus()
		}
		m.layout()
		return m, textinput.Blink
	}

	// Update sub-components
	var cmd tea.Cmd

	if !m.busy() {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.spinner, cmd = m.spinner.Update(msg)
	cmds = append(cmds, cmd)

	newVal := m.input.Value()
	if newVal != m.lastInputVal {
		m.lastInputVal = newVal
		if m.historyIdx != -1 {
			if m.historyIdx < len(m.history) && m.history[m.historyIdx] != newVal {
				m.historyIdx = -1
				m.historySaved = ""
			}
		}
		m.cmdMenuOpen = strings.HasPrefix(newVal, "/")
		m.cmdMenuIdx = 0
		m.layout()
	}

	return m, tea.Batch(cmds...)
}

func (m model) quit() (tea.Model, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
	}
	return m, tea.Quit
}

// refresh re-renders the conversation into the viewport and scrolls to the
// newest record.
func (m *model) refresh() {
	records := m.store.Snapshot()
	if len(records) == 0 {
		m.viewport.SetContent(renderWelcome(m.version, endpointStr(m.cfg), profileStr(m.cfg)))
		return
	}
	m.viewport.SetContent(m.renderer.render(records))
	m.viewport.GotoBottom()
}

// layout gives the viewport whatever height the footer leaves over.
func (m *model) layout() {
	if !m.ready {
		return
	}
	m.viewport.Width = m.width
	h := m.height - lipgloss.Height(m.footer())
	if h < 1 {
		h = 1
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.Height = h
	if atBottom {
		m.viewport.GotoBottom()
	}
}

// ─── View ───────────────────────────────────────────────────────────────────

func (m model) View() string {
	if !m.ready {
		return ""
	}
	return m.viewport.View() + "\n" + m.footer()
}

func (m model) footer() string {
	var s strings.Builder

	if m.notice != "" {
		s.WriteString(m.notice)
		s.WriteString("\n")
	}

	if m.busy() {
		s.WriteString(m.spinner.View() + " " + statusStyle.Render(thinkingStatus))
	} else {
		s.WriteString(m.input.View())
	}
	s.WriteString("\n")

	sepWidth := min(m.width, 80)
	if sepWidth < 20 {
		sepWidth = 20
	}
	s.WriteString(separatorStyle.Render(strings.Repeat("─", sepWidth)))
	s.WriteString("\n")

	s.WriteString(m.renderHints())

	return s.String()
}

// ─── Hint bar ───────────────────────────────────────────────────────────────

func (m model) renderHints() string {
	if m.busy() {
		return hintBarStyle.Render("  PgUp/PgDn scroll   Ctrl+C quit")
	}

	if m.cmdMenuOpen {
		matches := matchCommands(m.input.Value())
		if len(matches) > 0 {
			return m.renderCommandMenu(matches)
		}
	}

	return hintBarStyle.Render("  ? for help   PgUp/PgDn scroll")
}

// renderCommandMenu renders a vertical list of matching commands.
func (m model) renderCommandMenu(matches []slashCmd) string {
	maxLen := 0
	for _, c := range matches {
		if len(c.name) > maxLen {
			maxLen = len(c.name)
		}
	}

	var lines []string
	for i, c := range matches {
		padded := pad(c.name, maxLen)
		var line string
		if i == m.cmdMenuIdx {
			line = "  " + cmdSelectedNameStyle.Render(padded) + "  " + cmdSelectedDescStyle.Render(c.desc)
		} else {
			line = "  " + cmdNameStyle.Render(padded) + "  " + cmdDescStyle.Render(c.desc)
		}
		lines = append(lines, line)
	}

	lines = append(lines, hintBarStyle.Render("  ↑↓ navigate  Tab/Enter select"))

	return strings.Join(lines, "\n")
}

// matchCommands returns all slash commands matching a prefix.
func matchCommands(prefix string) []slashCmd {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "/" {
		return slashCommands
	}
	var matches []slashCmd
	for _, c := range slashCommands {
		if strings.HasPrefix(c.name, prefix) {
			matches = append(matches, c)
		}
	}
	return matches
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func pad(s string, w int) string {
	for len(s) < w {
		s += " "
	}
	return s
}

func endpointStr(cfg *config.Config) string {
	if cfg == nil {
		return ""
	}
	return cfg.Endpoint
}

func profileStr(cfg *config.Config) string {
	if cfg == nil {
		return config.ProfileName("")
	}
	return config.ProfileName(cfg.Profile)
}
