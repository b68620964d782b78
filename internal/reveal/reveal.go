// Package reveal turns a complete string into a timed sequence of partial
// updates, one word per tick, so already-received text appears to stream in.
package reveal

import (
	"context"
	"strings"
	"sync"
	"time"
)

// DefaultInterval is the delay between two revealed words.
const DefaultInterval = 10 * time.Millisecond

// Sink receives each revealed state. Apply reports whether the update landed;
// a sink that stops accepting updates does not stop the reveal.
type Sink interface {
	Apply(content string, finalized bool) bool
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(content string, finalized bool) bool

func (f SinkFunc) Apply(content string, finalized bool) bool { return f(content, finalized) }

// Scheduler starts reveals at a fixed cadence.
type Scheduler struct {
	Interval time.Duration
}

// New returns a scheduler ticking every interval. Non-positive values fall
// back to DefaultInterval.
func New(interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{Interval: interval}
}

// Tokenize splits text on runs of whitespace. Rejoining the tokens with
// single spaces does not reproduce tabs or repeated spaces.
func Tokenize(text string) []string {
	return strings.Fields(text)
}

// Reveal starts revealing fullText into sink and returns immediately.
//
// Each tick shows one more word. The tick that shows the last word applies
// fullText as-is with finalized set, then the task completes. Text with no
// words is finalized synchronously before Reveal returns. Cancelling ctx or
// the task stops the ticker and leaves the target unfinalized.
func (s *Scheduler) Reveal(ctx context.Context, sink Sink, fullText string) *Task {
	t := newTask(ctx)

	words := Tokenize(fullText)
	if len(words) == 0 {
		sink.Apply(fullText, true)
		t.finish(true)
		return t
	}

	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	go t.run(interval, sink, words, fullText)
	return t
}

// ─── Task ───────────────────────────────────────────────────────────────────

// Task is one running reveal.
type Task struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	shown     int
	finalized bool
}

func newTask(parent context.Context) *Task {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Task{ctx: ctx, cancel: cancel, done: make(chan struct{})}
}

func (t *Task) run(interval time.Duration, sink Sink, words []string, fullText string) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for shown := 1; ; shown++ {
		select {
		case <-t.ctx.Done():
			t.finish(false)
			return
		case <-ticker.C:
		}

		t.mu.Lock()
		t.shown = shown
		t.mu.Unlock()

		if shown >= len(words) {
			sink.Apply(fullText, true)
			t.finish(true)
			return
		}
		sink.Apply(strings.Join(words[:shown], " "), false)
	}
}

func (t *Task) finish(finalized bool) {
	t.mu.Lock()
	t.finalized = finalized
	t.mu.Unlock()
	t.cancel()
	close(t.done)
}

// Done is closed once the reveal has finalized or been cancelled.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until Done is closed.
func (t *Task) Wait() { <-t.done }

// Cancel stops the reveal. It is a no-op once the task is done.
func (t *Task) Cancel() { t.cancel() }

// Finalized reports whether the reveal ran to completion.
func (t *Task) Finalized() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.finalized
}

// Shown returns the number of words revealed so far.
func (t *Task) Shown() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.shown
}
