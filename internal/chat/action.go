package chat

import (
	"context"
	"sync"
)

// State is a step of one send action.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateAwaiting
	StateStreaming
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateAwaiting:
		return "awaiting"
	case StateStreaming:
		return "streaming"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Action is one send: the user record, its two placeholders, and the
// request and reveals that fill them.
type Action struct {
	Seq uint64

	userID    int
	thoughtID int
	answerID  int

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	hook   func(uint64, State)

	mu    sync.Mutex
	state State
	err   error
}

func newAction(parent context.Context, seq uint64, hook func(uint64, State)) *Action {
	ctx, cancel := context.WithCancel(parent)
	return &Action{
		Seq:    seq,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		hook:   hook,
	}
}

func (a *Action) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
	if a.hook != nil {
		a.hook(a.Seq, s)
	}
}

func (a *Action) finish() {
	a.cancel()
	close(a.done)
}

// State returns the current step.
func (a *Action) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Err returns the request error, if the action failed.
func (a *Action) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// RecordIDs returns the ids of the user record and the two placeholders.
func (a *Action) RecordIDs() (user, thought, answer int) {
	return a.userID, a.thoughtID, a.answerID
}

// Done is closed once both reveals have finished, or right after a failure.
func (a *Action) Done() <-chan struct{} { return a.done }

// Wait blocks until Done is closed.
func (a *Action) Wait() { <-a.done }

// Cancel stops any reveal still running for this action. Placeholders that
// were not finalized stay unfinalized.
func (a *Action) Cancel() { a.cancel() }
