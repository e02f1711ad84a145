// Package messages defines the bubbletea messages the panel exchanges with
// the engine goroutine.
package messages

// TranscriptChangedMsg signals that the conversation mutated its transcript
// and the panel should re-render from a fresh snapshot.
type TranscriptChangedMsg struct{}

// SendFinishedMsg signals that a Send call returned. Err is nil for
// success and user cancellation; transport failures carry the error.
type SendFinishedMsg struct {
	Err error
}
