package display

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	Dim     = "\033[2m"
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
	Gray    = "\033[90m"
)

func Header(text string) {
	fmt.Printf("\n%s%s%s\n", Bold+Cyan, text, Reset)
	fmt.Println(strings.Repeat("─", min(len(text)+4, 80)))
}

func Success(text string) {
	fmt.Printf("%s✓%s %s\n", Green, Reset, text)
}

func Error(text string) {
	fmt.Fprintf(os.Stderr, "%s✗%s %s\n", Red, Reset, text)
}

func Warn(text string) {
	fmt.Printf("%s!%s %s\n", Yellow, Reset, text)
}

func Info(label, value string) {
	fmt.Printf("  %s%-20s%s %s\n", Dim, label, Reset, value)
}

// Spinner and ClearLine draw on stderr so piped stdout stays clean.
func Spinner(text string) {
	fmt.Fprintf(os.Stderr, "\r%s⟳%s %s", Yellow, Reset, text)
}

func ClearLine() {
	fmt.Fprint(os.Stderr, "\r\033[K")
}

// RoleLabel returns a colored heading for a conversation role.
func RoleLabel(role string) string {
	labels := map[string]string{
		"user":               Bold + Cyan + "❯ You" + Reset,
		"assistant-internal": Magenta + "🧠 Thoughts" + Reset,
		"assistant":          Green + "💬 Assistant" + Reset,
	}
	if label, ok := labels[role]; ok {
		return label
	}
	return Gray + role + Reset
}

// StateLabel returns a colored label for a send action state.
func StateLabel(state string) string {
	labels := map[string]string{
		"idle":       Gray + "○ Idle" + Reset,
		"submitting": Yellow + "⟳ Submitting" + Reset,
		"awaiting":   Yellow + "⟳ Awaiting response" + Reset,
		"streaming":  Blue + "▸ Streaming" + Reset,
		"failed":     Red + "✗ Failed" + Reset,
	}
	if label, ok := labels[state]; ok {
		return label
	}
	return state
}

// FormatDuration rounds d for display: milliseconds under a second,
// tenths of a second above.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}
