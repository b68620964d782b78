package tui

import (
	"fmt"
	"strings"

	"chatterm/internal/chat"
	"chatterm/internal/conversation"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// ─── Welcome Screen ─────────────────────────────────────────────────────────

func renderWelcome(version, endpoint, profile string) string {
	titleLine := logoMarkStyle.Render("◆ ") + logoTitleStyle.Render("chatterm") + " " + versionStyle.Render("v"+version)

	endpointDisplay := runewidth.Truncate(endpoint, 48, "...")
	if endpointDisplay == "" {
		endpointDisplay = "no endpoint"
	}
	infoLine := welcomeInfoLabel.Render(fmt.Sprintf("%s · profile %s", endpointDisplay, profile))
	hintLine := welcomeHintStyle.Render("Type a message and press Enter. /help lists commands.")

	return fmt.Sprintf("\n%s\n%s\n\n%s\n", titleLine, infoLine, hintLine)
}

// ─── Conversation ───────────────────────────────────────────────────────────

const thinkingText = "Thinking..."

// conversationRenderer turns a snapshot into viewport content. Finalized
// records never change, so their output is cached by record id until the
// width changes.
type conversationRenderer struct {
	style    string
	width    int
	markdown *glamour.TermRenderer
	thoughts *glamour.TermRenderer
	cache    map[int]string
}

// newConversationRenderer builds a renderer for a glamour standard style
// ("dark", "light", "notty", ...).
func newConversationRenderer(style string, width int) *conversationRenderer {
	r := &conversationRenderer{style: style}
	r.resize(width)
	return r
}

// resize rebuilds the markdown renderers for a new wrap width.
func (r *conversationRenderer) resize(width int) {
	if width < 20 {
		width = 20
	}
	if width == r.width && r.markdown != nil {
		return
	}
	r.width = width
	r.cache = make(map[int]string)

	wrap := width - 4
	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.style),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		md = nil
	}
	r.markdown = md

	// Thoughts are dimmed as a whole, so they render without glamour colors.
	th, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("notty"),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		th = nil
	}
	r.thoughts = th
}

// render returns the full viewport content for records.
func (r *conversationRenderer) render(records []conversation.Record) string {
	// A send whose answer is final no longer needs a thinking indicator,
	// even if its thought placeholder was never filled.
	answered := make(map[uint64]bool)
	for _, rec := range records {
		if rec.Role == conversation.RoleAssistant && rec.Finalized {
			answered[rec.Seq] = true
		}
	}

	var blocks []string
	for _, rec := range records {
		if rec.Role == conversation.RoleAssistantInternal && rec.Content == "" && answered[rec.Seq] {
			continue
		}
		if block := r.renderRecord(rec); block != "" {
			blocks = append(blocks, block)
		}
	}
	return strings.Join(blocks, "\n\n")
}

func (r *conversationRenderer) renderRecord(rec conversation.Record) string {
	if rec.Finalized {
		if cached, ok := r.cache[rec.ID]; ok {
			return cached
		}
	}

	var out string
	switch rec.Role {
	case conversation.RoleUser:
		out = userLabelStyle.Render("❯ "+rec.Role.DisplayName()) + "\n" + r.wrap(rec.Content)

	case conversation.RoleAssistantInternal:
		label := thoughtLabelStyle.Render("  " + rec.Role.DisplayName())
		switch {
		case rec.Content == "":
			out = label + "\n" + thoughtBodyStyle.Render(r.wrap(thinkingText))
		case rec.Finalized:
			out = label + "\n" + thoughtBodyStyle.Render(r.markdownWith(r.thoughts, rec.Content))
		default:
			out = label + "\n" + thoughtBodyStyle.Render(r.wrap(rec.Content))
		}

	case conversation.RoleAssistant:
		if rec.Content == "" {
			return ""
		}
		label := assistantLabelStyle.Render("  " + rec.Role.DisplayName())
		switch {
		case rec.Finalized && rec.Content == chat.FailureText:
			out = label + "\n" + failureStyle.Render(r.wrap(rec.Content))
		case rec.Finalized:
			out = label + "\n" + r.markdownWith(r.markdown, rec.Content)
		default:
			// Partial markdown is shown as plain text until the reveal ends.
			out = label + "\n" + r.wrap(rec.Content)
		}
	}

	if rec.Finalized {
		r.cache[rec.ID] = out
	}
	return out
}

func (r *conversationRenderer) markdownWith(tr *glamour.TermRenderer, content string) string {
	if tr == nil {
		return r.wrap(content)
	}
	rendered, err := tr.Render(content)
	if err != nil {
		return r.wrap(content)
	}
	return strings.TrimRight(rendered, "\n")
}

// wrap indents plain text to line up with glamour's left margin.
func (r *conversationRenderer) wrap(s string) string {
	return lipgloss.NewStyle().
		Width(r.width - 2).
		PaddingLeft(2).
		Render(s)
}
