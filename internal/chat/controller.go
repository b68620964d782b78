// Package chat runs one request/response cycle per send: it appends the user
// turn and two placeholders, calls the chat endpoint, and reveals the reply
// into the placeholders.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"chatterm/internal/api"
	"chatterm/internal/conversation"
	"chatterm/internal/reveal"

	"go.uber.org/zap"
)

// FailureText is shown as the answer when the request fails for any reason.
const FailureText = "Something went wrong."

// DefaultAnswerDelay separates the start of the thought reveal from the
// start of the answer reveal.
const DefaultAnswerDelay = 20 * time.Millisecond

// ErrEmptyInput is returned by Send for input that is blank after trimming.
var ErrEmptyInput = errors.New("empty input")

// Targeting selects how reveal updates find their record.
type Targeting int

const (
	// TargetRecord binds each reveal to the placeholder its own send appended.
	TargetRecord Targeting = iota
	// TargetRole updates the latest unfinalized record of the role.
	TargetRole
)

// ParseTargeting maps a config value to a Targeting. Unknown values map to TargetRecord.
func ParseTargeting(s string) Targeting {
	if strings.EqualFold(strings.TrimSpace(s), "role") {
		return TargetRole
	}
	return TargetRecord
}

// ─── Options ────────────────────────────────────────────────────────────────

type Option func(*Controller)

func WithScheduler(s *reveal.Scheduler) Option {
	return func(c *Controller) { c.scheduler = s }
}

func WithAnswerDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.answerDelay = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

func WithTargeting(t Targeting) Option {
	return func(c *Controller) { c.targeting = t }
}

// WithStateHook registers fn to be called on every state transition of
// every send action. fn runs on the goroutine making the transition.
func WithStateHook(fn func(seq uint64, s State)) Option {
	return func(c *Controller) { c.hook = fn }
}

// ─── Controller ─────────────────────────────────────────────────────────────

// Controller orchestrates send actions against a conversation store.
// Overlapping sends are allowed.
type Controller struct {
	store       *conversation.Store
	client      api.ChatAPI
	scheduler   *reveal.Scheduler
	answerDelay time.Duration
	targeting   Targeting
	log         *zap.Logger
	hook        func(uint64, State)

	appendMu sync.Mutex
	seq      atomic.Uint64
	inflight atomic.Int64
}

func New(store *conversation.Store, client api.ChatAPI, opts ...Option) *Controller {
	c := &Controller{
		store:       store,
		client:      client,
		scheduler:   reveal.New(reveal.DefaultInterval),
		answerDelay: DefaultAnswerDelay,
		targeting:   TargetRecord,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the conversation the controller writes to.
func (c *Controller) Store() *conversation.Store { return c.store }

// Busy reports whether any send is still waiting on the network.
func (c *Controller) Busy() bool { return c.inflight.Load() > 0 }

// Send runs one send action. It blocks until the network call settles, then
// returns while the reveal continues in the background; use Action.Wait to
// block until the conversation is fully revealed. Blank input returns
// ErrEmptyInput and leaves the conversation untouched.
func (c *Controller) Send(ctx context.Context, input string) (*Action, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, ErrEmptyInput
	}
	if ctx == nil {
		ctx = context.Background()
	}

	c.inflight.Add(1)
	a := c.submit(ctx, input)
	c.log.Info("send started", zap.Uint64("seq", a.Seq), zap.Int("chars", len(trimmed)))

	a.setState(StateAwaiting)
	resp, err := c.client.Chat(a.ctx, trimmed)
	c.inflight.Add(-1)

	if err != nil {
		c.fail(a, err)
		return a, nil
	}
	c.stream(a, resp)
	return a, nil
}

// submit appends the user record and both placeholders as one unit.
func (c *Controller) submit(ctx context.Context, input string) *Action {
	c.appendMu.Lock()
	defer c.appendMu.Unlock()

	seq := c.seq.Add(1)
	a := newAction(ctx, seq, c.hook)
	a.setState(StateSubmitting)

	a.userID = c.store.Append(seq, conversation.RoleUser, input, true)
	a.thoughtID = c.store.Append(seq, conversation.RoleAssistantInternal, "", false)
	a.answerID = c.store.Append(seq, conversation.RoleAssistant, "", false)
	return a
}

func (c *Controller) sink(role conversation.Role, id int) reveal.Sink {
	if c.targeting == TargetRole {
		return c.store.RoleSink(role)
	}
	return c.store.RecordSink(id)
}

func (c *Controller) fail(a *Action, err error) {
	c.log.Warn("chat request failed", zap.Uint64("seq", a.Seq), zap.Error(err))
	c.sink(conversation.RoleAssistant, a.answerID).Apply(FailureText, true)
	a.mu.Lock()
	a.err = err
	a.mu.Unlock()
	a.setState(StateFailed)
	a.setState(StateIdle)
	a.finish()
}

func (c *Controller) stream(a *Action, resp *api.ChatResponse) {
	thought := resp.InternalThought()
	answer := resp.Answer()
	c.log.Debug("response received",
		zap.Uint64("seq", a.Seq),
		zap.Int("thought_words", len(reveal.Tokenize(thought))),
		zap.Int("answer_words", len(reveal.Tokenize(answer))))

	a.setState(StateStreaming)
	thoughtTask := c.scheduler.Reveal(a.ctx, c.sink(conversation.RoleAssistantInternal, a.thoughtID), thought)

	go func() {
		defer func() {
			a.setState(StateIdle)
			a.finish()
		}()

		timer := time.NewTimer(c.answerDelay)
		select {
		case <-a.ctx.Done():
			timer.Stop()
			thoughtTask.Wait()
			c.log.Debug("reveal cancelled", zap.Uint64("seq", a.Seq))
			return
		case <-timer.C:
		}

		answerTask := c.scheduler.Reveal(a.ctx, c.sink(conversation.RoleAssistant, a.answerID), answer)
		thoughtTask.Wait()
		answerTask.Wait()

		if thoughtTask.Finalized() && answerTask.Finalized() {
			c.log.Debug("reveal complete", zap.Uint64("seq", a.Seq))
			return
		}
		c.log.Debug("reveal cancelled", zap.Uint64("seq", a.Seq))
	}()
}
