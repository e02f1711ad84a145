package assistant

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Fixed texts used when finalizing a turn. Exported so the embedding
// surface can recognize them.
const (
	// FallbackText replaces an empty accumulator on a clean done.
	FallbackText = "I wasn't able to put together a response for that. Could you rephrase?"
	// FailureText replaces the content when the stream fails. The
	// underlying error is logged, never shown.
	FailureText = "Something went wrong while generating a response. Please try again."
	// StopSuffix is appended to the accumulator when the user stops a
	// stream mid-flight.
	StopSuffix = " [stopped]"
	// ThinkingText is the transient display value shown while the agent
	// is thinking and no content has arrived yet. It is never part of
	// the persisted content.
	ThinkingText = "Thinking..."
)

// FinalMetadata is attached to an assistant turn once it is finalized.
type FinalMetadata struct {
	Phase       string   `json:"phase"`
	ToolsUsed   []string `json:"toolsUsed,omitempty"`
	ApprovalRef string   `json:"approvalRef,omitempty"`
}

// Turn is one entry in the visible transcript.
//
// Content grows monotonically while the turn is streaming and is immutable
// once finalized. Only the reconciler and the conversation holder mutate
// turns.
type Turn struct {
	ID            string         `json:"id"`
	Role          Role           `json:"role"`
	Content       string         `json:"content"`
	CreatedAt     time.Time      `json:"createdAt"`
	AgentLabel    string         `json:"agentLabel,omitempty"`
	IsThinking    bool           `json:"isThinking"`
	IsStreaming   bool           `json:"isStreaming"`
	StoppedByUser bool           `json:"stoppedByUser"`
	Final         *FinalMetadata `json:"finalMetadata,omitempty"`
}

// NewTurn creates a turn with a fresh client-side ID.
func NewTurn(role Role, content string) *Turn {
	return &Turn{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// newStreamingTurn creates the empty placeholder for an in-flight
// assistant response.
func newStreamingTurn() *Turn {
	t := NewTurn(RoleAssistant, "")
	t.IsStreaming = true
	return t
}

// Finalized reports whether the turn has reached its terminal state.
func (t *Turn) Finalized() bool {
	return t.Final != nil
}

// DisplayContent returns what the embedding surface should render for this
// turn. While the agent is thinking and nothing has streamed yet, a
// transient waiting value stands in for the empty content.
func (t *Turn) DisplayContent() string {
	if t.IsThinking && t.Content == "" {
		return ThinkingText
	}
	return t.Content
}
