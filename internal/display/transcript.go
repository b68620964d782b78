package display

import (
	"fmt"
	"io"
	"strings"

	"chatterm/internal/conversation"

	"github.com/charmbracelet/glamour"
)

// Transcript prints conversation records to a plain writer as they finalize.
// A record is printed only once every record before it has been printed, so
// output order always matches conversation order.
type Transcript struct {
	out  io.Writer
	md   *glamour.TermRenderer
	next int
}

// NewTranscript writes to out. When markdown is true, assistant answers are
// rendered through glamour; otherwise they are printed verbatim.
func NewTranscript(out io.Writer, markdown bool) *Transcript {
	t := &Transcript{out: out}
	if markdown {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)
		if err == nil {
			t.md = r
		}
	}
	return t
}

// Flush prints every newly finalized record at the head of records and
// returns how many it printed. An empty thought whose answer is already
// final is skipped.
func (t *Transcript) Flush(records []conversation.Record) int {
	n := 0
	for t.next < len(records) {
		rec := records[t.next]
		switch {
		case rec.Finalized:
			t.print(rec)
			n++
		case skippable(rec, records[t.next+1:]):
		default:
			return n
		}
		t.next++
	}
	return n
}

func skippable(rec conversation.Record, rest []conversation.Record) bool {
	if rec.Role != conversation.RoleAssistantInternal || rec.Content != "" {
		return false
	}
	for _, r := range rest {
		if r.Seq == rec.Seq && r.Role == conversation.RoleAssistant {
			return r.Finalized
		}
	}
	return false
}

// Printed is the number of records consumed so far, skipped ones included.
func (t *Transcript) Printed() int { return t.next }

func (t *Transcript) print(rec conversation.Record) {
	fmt.Fprintln(t.out, RoleLabel(string(rec.Role)))

	body := rec.Content
	switch rec.Role {
	case conversation.RoleAssistant:
		if t.md != nil {
			if rendered, err := t.md.Render(body); err == nil {
				fmt.Fprintln(t.out, strings.TrimRight(rendered, "\n"))
				fmt.Fprintln(t.out)
				return
			}
		}
	case conversation.RoleAssistantInternal:
		if t.md != nil {
			body = Dim + body + Reset
		}
	}

	for _, line := range strings.Split(body, "\n") {
		fmt.Fprintf(t.out, "  %s\n", line)
	}
	fmt.Fprintln(t.out)
}
