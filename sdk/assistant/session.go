package assistant

import (
	"sync"

	"github.com/google/uuid"
)

// Customer-success workflow phases. The situational context carries one of
// these, but arbitrary phase values are accepted; the panel only uses them
// to pick quick actions and welcome copy.
const (
	PhaseOnboarding = "onboarding"
	PhaseAdoption   = "adoption"
	PhaseRenewal    = "renewal"
	PhaseRisk       = "risk"
)

// SituationalContext describes the workflow state the embedding surface is
// currently showing. It travels with every send.
type SituationalContext struct {
	Phase       string `json:"phase"`
	SubjectName string `json:"subjectName,omitempty"`
	SubjectID   string `json:"subjectId,omitempty"`

	// Fields carries surface-specific domain data (health scores, open
	// ticket counts, contract dates). Merged into the outbound context
	// object as-is.
	Fields map[string]any `json:"-"`
}

// Session is the immutable identity of one mounted panel plus its current
// situational context. The ID lives for the panel lifetime and is not
// persisted across remounts.
type Session struct {
	id string

	mu         sync.Mutex
	context    SituationalContext
	seenPhases map[string]bool
}

// NewSession creates a session with a fresh ID and the given initial
// context.
func NewSession(sctx SituationalContext) *Session {
	return &Session{
		id:         uuid.NewString(),
		context:    sctx,
		seenPhases: make(map[string]bool),
	}
}

// ID returns the stable session identifier.
func (s *Session) ID() string {
	return s.id
}

// Context returns the current situational context.
func (s *Session) Context() SituationalContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.context
}

// SetContext replaces the situational context and reports whether the new
// phase has not been seen before in this session. The guard makes welcome
// insertion idempotent per distinct phase value.
func (s *Session) SetContext(sctx SituationalContext) (newPhase bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.context = sctx
	if sctx.Phase == "" || s.seenPhases[sctx.Phase] {
		return false
	}
	s.seenPhases[sctx.Phase] = true
	return true
}
