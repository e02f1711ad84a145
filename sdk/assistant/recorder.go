package assistant

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Recorder is the fire-and-forget persistence side-channel. Finalized
// turns are POSTed to durable storage; failures are logged, never retried,
// and never reach the transcript. Best-effort, at-most-once, no
// backpressure.
type Recorder struct {
	baseURL    string
	httpClient *http.Client
	wg         sync.WaitGroup
}

// NewRecorder creates a recorder for the given base URL.
func NewRecorder(baseURL string) *Recorder {
	return &Recorder{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// recordPayload is the side-channel wire format.
type recordPayload struct {
	SubjectID  string   `json:"subjectId"`
	Role       Role     `json:"role"`
	Content    string   `json:"content"`
	AgentLabel string   `json:"agentLabel,omitempty"`
	ToolCalls  []string `json:"toolCalls,omitempty"`
	SessionID  string   `json:"sessionId"`
}

// Record issues the write for one turn and returns immediately. A nil
// recorder is a no-op so the panel can run without persistence configured.
func (r *Recorder) Record(sessionID, subjectID string, role Role, content, agentLabel string, toolsUsed []string) {
	if r == nil {
		return
	}

	payload := recordPayload{
		SubjectID:  subjectID,
		Role:       role,
		Content:    content,
		AgentLabel: agentLabel,
		ToolCalls:  toolsUsed,
		SessionID:  sessionID,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.post(payload); err != nil {
			GetLogger().Warn("conversation record failed", "role", string(role), "error", err)
		}
	}()
}

func (r *Recorder) post(payload recordPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := r.httpClient.Post(r.baseURL+"/api/conversations/log", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &recordError{status: resp.StatusCode}
	}
	return nil
}

// Flush waits for outstanding writes. Used by tests and on shutdown; the
// send path never calls it.
func (r *Recorder) Flush() {
	if r == nil {
		return
	}
	r.wg.Wait()
}

type recordError struct {
	status int
}

func (e *recordError) Error() string {
	return fmt.Sprintf("record rejected with status %d", e.status)
}
