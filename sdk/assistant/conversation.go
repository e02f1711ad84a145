package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrNotStreaming is returned by StopStreaming when the named turn is not
// currently accepting events.
var ErrNotStreaming = errors.New("assistant: turn is not streaming")

// DefaultAgentLabel tags assistant turns when no label is configured.
const DefaultAgentLabel = "success-copilot"

// Conversation ties the engine together: it holds the session and the
// transcript, opens streams, pumps protocol events through the reconciler
// in arrival order, and records finalized turns on the persistence
// side-channel.
//
// Send blocks until the turn finalizes and is meant to run on its own
// goroutine; StopStreaming may be called concurrently from the embedding
// surface. The transcript is only ever mutated here.
type Conversation struct {
	client     *Client
	recorder   *Recorder
	session    *Session
	agentLabel string
	onChange   func()

	mu              sync.Mutex
	turns           []*Turn
	rec             *Reconciler
	stream          *Stream
	cancelRequested bool
}

// ConversationOption configures a conversation.
type ConversationOption func(*Conversation)

// WithAgentLabel sets the label attached to finalized assistant turns.
func WithAgentLabel(label string) ConversationOption {
	return func(c *Conversation) {
		c.agentLabel = label
	}
}

// WithOnChange registers a callback invoked after every transcript
// mutation. It runs on the engine goroutine; keep it cheap and re-read the
// transcript via Turns.
func WithOnChange(fn func()) ConversationOption {
	return func(c *Conversation) {
		c.onChange = fn
	}
}

// NewConversation creates a conversation with a fresh session identity and
// emits the welcome turn for the initial phase.
func NewConversation(client *Client, recorder *Recorder, sctx SituationalContext, opts ...ConversationOption) *Conversation {
	c := &Conversation{
		client:     client,
		recorder:   recorder,
		session:    NewSession(SituationalContext{}),
		agentLabel: DefaultAgentLabel,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.UpdateContext(sctx)
	return c
}

// SessionID returns the stable session identifier.
func (c *Conversation) SessionID() string {
	return c.session.ID()
}

// Context returns the current situational context.
func (c *Conversation) Context() SituationalContext {
	return c.session.Context()
}

// QuickActions returns the suggested prompts for the current phase.
func (c *Conversation) QuickActions() []QuickAction {
	return QuickActionsFor(c.session.Context().Phase)
}

// Turns returns a snapshot of the transcript.
func (c *Conversation) Turns() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Turn, len(c.turns))
	for i, t := range c.turns {
		out[i] = *t
	}
	return out
}

// Busy reports whether a send is outstanding. The embedding surface uses
// this to disable its send affordance; the transport enforces the same
// invariant independently.
func (c *Conversation) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rec != nil
}

// UpdateContext replaces the situational context. Prior turns are kept; a
// system turn announcing the phase is appended at most once per distinct
// phase value per session.
func (c *Conversation) UpdateContext(sctx SituationalContext) {
	if !c.session.SetContext(sctx) {
		return
	}
	turn := NewTurn(RoleSystem, welcomeFor(sctx))
	c.mu.Lock()
	c.turns = append(c.turns, turn)
	c.mu.Unlock()
	c.notify()
}

// welcomeFor builds the phase-transition system message.
func welcomeFor(sctx SituationalContext) string {
	subject := sctx.SubjectName
	if subject == "" {
		subject = "this customer"
	}
	return fmt.Sprintf("Now in the %s phase for %s. Ask me anything, or pick a quick action below.", sctx.Phase, subject)
}

// Send submits one user message and blocks until the resulting assistant
// turn is finalized. It returns ErrStreamInFlight while another send is
// outstanding and a transport error when the stream fails; cancellation is
// not an error.
func (c *Conversation) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	sctx := c.session.Context()

	c.mu.Lock()
	if c.rec != nil {
		c.mu.Unlock()
		return ErrStreamInFlight
	}
	user := NewTurn(RoleUser, text)
	placeholder := newStreamingTurn()
	c.turns = append(c.turns, user, placeholder)
	rec := NewReconciler(placeholder, sctx.Phase, c.agentLabel)
	c.rec = rec
	c.cancelRequested = false
	c.mu.Unlock()
	c.notify()

	c.recorder.Record(c.session.ID(), sctx.SubjectID, RoleUser, text, "", nil)

	stream, err := c.client.OpenStream(ctx, text, c.session)
	if err != nil {
		GetLogger().Error("open stream failed", "session", c.session.ID(), "error", err)
		c.finish(rec, func() { rec.FinalizeFailed() }, sctx)
		return err
	}

	c.mu.Lock()
	c.stream = stream
	canceledEarly := c.cancelRequested
	c.mu.Unlock()
	if canceledEarly {
		stream.Cancel()
	}

	return c.pump(rec, stream, sctx)
}

// pump drains the stream, applying each event in arrival order. Events
// delivered after a cancel request are discarded even when their read
// started before the request.
func (c *Conversation) pump(rec *Reconciler, stream *Stream, sctx SituationalContext) error {
	for ev := range stream.Events() {
		c.mu.Lock()
		if c.cancelRequested {
			c.mu.Unlock()
			continue
		}
		rec.Apply(ev)
		c.mu.Unlock()
		c.notify()
	}

	// The error channel is buffered and closed with the event channel, so
	// this never blocks: nil on a clean terminal event, the failure
	// otherwise.
	err := <-stream.Errs()

	c.mu.Lock()
	canceled := c.cancelRequested || errors.Is(err, ErrStreamCanceled)
	c.mu.Unlock()

	switch {
	case canceled:
		c.finish(rec, rec.FinalizeCanceled, sctx)
		return nil
	case err != nil:
		GetLogger().Error("stream failed", "session", c.session.ID(), "error", err)
		c.finish(rec, rec.FinalizeFailed, sctx)
		return err
	default:
		// Terminal event already finalized the turn; finish only clears
		// the in-flight state and records.
		c.finish(rec, nil, sctx)
		return nil
	}
}

// finish finalizes the turn (when not already finalized by a terminal
// event), clears the in-flight state, notifies, and records the assistant
// turn on the side-channel.
func (c *Conversation) finish(rec *Reconciler, finalize func(), sctx SituationalContext) {
	c.mu.Lock()
	if finalize != nil {
		finalize()
	}
	turn := rec.Turn()
	content := turn.Content
	label := turn.AgentLabel
	var tools []string
	if turn.Final != nil {
		tools = turn.Final.ToolsUsed
	}
	c.rec = nil
	c.stream = nil
	c.cancelRequested = false
	c.mu.Unlock()
	c.notify()

	c.recorder.Record(c.session.ID(), sctx.SubjectID, RoleAssistant, content, label, tools)
}

// StopStreaming requests cancellation of the in-flight turn. Valid only
// while that turn is awaiting its first byte or streaming.
func (c *Conversation) StopStreaming(turnID string) error {
	c.mu.Lock()
	if c.rec == nil || c.rec.Turn().ID != turnID || !c.rec.Streaming() {
		c.mu.Unlock()
		return ErrNotStreaming
	}
	c.cancelRequested = true
	stream := c.stream
	c.mu.Unlock()

	if stream != nil {
		stream.Cancel()
	}
	return nil
}

func (c *Conversation) notify() {
	if c.onChange != nil {
		c.onChange()
	}
}
