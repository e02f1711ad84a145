package assistant

import "strings"

// reconcilerState tracks the lifecycle of the single in-flight assistant
// turn.
type reconcilerState int

const (
	stateIdle reconcilerState = iota
	stateAwaitingFirstByte
	stateStreaming
	stateFinalized
)

// Reconciler applies protocol events to one in-flight assistant turn in
// strict arrival order. It owns the complete content accumulator: every
// token event full-replaces the turn content from the accumulator rather
// than appending to previously rendered state.
type Reconciler struct {
	state      reconcilerState
	turn       *Turn
	acc        strings.Builder
	tools      []string
	seenTools  map[string]bool
	phase      string
	agentLabel string
}

// NewReconciler binds a reconciler to a freshly appended placeholder turn
// and moves it to AwaitingFirstByte.
func NewReconciler(turn *Turn, phase, agentLabel string) *Reconciler {
	return &Reconciler{
		state:      stateAwaitingFirstByte,
		turn:       turn,
		seenTools:  make(map[string]bool),
		phase:      phase,
		agentLabel: agentLabel,
	}
}

// Turn returns the turn this reconciler mutates.
func (r *Reconciler) Turn() *Turn {
	return r.turn
}

// Finalized reports whether the turn has reached its terminal state.
func (r *Reconciler) Finalized() bool {
	return r.state == stateFinalized
}

// Streaming reports whether the turn is still accepting events.
func (r *Reconciler) Streaming() bool {
	return r.state == stateAwaitingFirstByte || r.state == stateStreaming
}

// Accumulated returns the content received so far.
func (r *Reconciler) Accumulated() string {
	return r.acc.String()
}

// Apply mutates the turn for one protocol event. Events received after
// finalization are ignored.
func (r *Reconciler) Apply(ev Event) {
	if r.state == stateFinalized {
		GetLogger().Debug("event after finalization ignored", "type", string(ev.Type))
		return
	}

	switch ev.Type {
	case EventToken:
		r.state = stateStreaming
		r.acc.WriteString(ev.Content)
		r.turn.Content = r.acc.String()
		r.turn.IsThinking = false

	case EventThinking:
		r.state = stateStreaming
		r.turn.IsThinking = true

	case EventToolStart:
		if ev.Name != "" && !r.seenTools[ev.Name] {
			r.seenTools[ev.Name] = true
			r.tools = append(r.tools, ev.Name)
		}

	case EventToolEnd:
		// Hook point only.

	case EventDone:
		content := r.acc.String()
		if content == "" {
			content = FallbackText
		}
		r.finalize(content, false)

	case EventError:
		GetLogger().Error("protocol error event", "error", ev.Message)
		r.finalize(FailureText, false)
	}
}

// FinalizeCanceled ends the turn after a user-initiated stop, preserving
// partial content.
func (r *Reconciler) FinalizeCanceled() {
	if r.state == stateFinalized {
		return
	}
	r.finalize(r.acc.String()+StopSuffix, true)
}

// FinalizeFailed ends the turn after a transport failure. The original
// error is the caller's to log; the turn only ever shows the fixed text.
func (r *Reconciler) FinalizeFailed() {
	if r.state == stateFinalized {
		return
	}
	r.finalize(FailureText, false)
}

func (r *Reconciler) finalize(content string, stopped bool) {
	r.state = stateFinalized
	r.turn.Content = content
	r.turn.IsStreaming = false
	r.turn.IsThinking = false
	r.turn.StoppedByUser = stopped
	r.turn.AgentLabel = r.agentLabel
	r.turn.Final = &FinalMetadata{
		Phase:     r.phase,
		ToolsUsed: append([]string(nil), r.tools...),
	}
}
