// Package app is the terminal assistant panel: a bubbletea program wired
// around one Conversation.
package app

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aacamara/cscx-mvp6-sub000/internal/components/chat"
	"github.com/aacamara/cscx-mvp6-sub000/internal/components/input"
	"github.com/aacamara/cscx-mvp6-sub000/sdk/assistant"
)

// State represents the panel state.
type State int

const (
	StateIdle State = iota
	StateStreaming
	StateError
)

// SharedState holds state shared between model copies; bubbletea passes the
// model by value, the engine callback needs a stable program reference.
type SharedState struct {
	mu      sync.Mutex
	program *tea.Program
}

// SetProgram sets the program reference.
func (s *SharedState) SetProgram(p *tea.Program) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.program = p
}

// GetProgram gets the program reference.
func (s *SharedState) GetProgram() *tea.Program {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.program
}

// Model is the panel model.
type Model struct {
	chat     chat.Model
	input    input.Model
	conv     *assistant.Conversation
	shared   *SharedState
	state    State
	width    int
	height   int
	err      error
	ready    bool
	quickIdx int
}

// New creates the panel model around an existing conversation.
func New(conv *assistant.Conversation, shared *SharedState) Model {
	m := Model{
		chat:     chat.New(80, 20),
		input:    input.New(80),
		conv:     conv,
		shared:   shared,
		state:    StateIdle,
		quickIdx: -1,
	}
	m.chat.SetTurns(conv.Turns())
	return m
}

// Init initializes the panel.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.input.Init(),
		m.chat.Init(),
	)
}
