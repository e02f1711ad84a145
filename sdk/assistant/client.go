package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/sjson"
)

var (
	// ErrEmptyMessage is returned when a send carries no text.
	ErrEmptyMessage = errors.New("assistant: empty message")
	// ErrStreamInFlight is returned when a second stream is opened for a
	// session that already has one outstanding.
	ErrStreamInFlight = errors.New("assistant: a stream is already in flight for this session")
	// ErrStreamCanceled is the distinguished failure delivered after the
	// user stops a stream.
	ErrStreamCanceled = errors.New("assistant: stream canceled by user")
)

// Client opens streaming turns against the backend agent.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu       sync.Mutex
	inflight map[string]bool // sessionID -> outstanding stream
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// NewClient creates a client for the given backend base URL.
//
// The HTTP client carries no timeout: the stream is long-lived and an
// unresponsive connection is only ever ended by user cancellation.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{},
		inflight:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// chatRequest is the body of the stream-initiating POST.
type chatRequest struct {
	Message   string          `json:"message"`
	SessionID string          `json:"sessionId"`
	Context   json.RawMessage `json:"context"`
}

// buildChatBody marshals the outbound request. Free-form domain fields are
// merged into the context object alongside the fixed keys.
func buildChatBody(message string, sess *Session) ([]byte, error) {
	sctx := sess.Context()

	ctxJSON, err := json.Marshal(struct {
		Phase       string `json:"phase"`
		SubjectName string `json:"subjectName,omitempty"`
		SubjectID   string `json:"subjectId,omitempty"`
	}{sctx.Phase, sctx.SubjectName, sctx.SubjectID})
	if err != nil {
		return nil, fmt.Errorf("marshal context: %w", err)
	}
	for k, v := range sctx.Fields {
		if ctxJSON, err = sjson.SetBytes(ctxJSON, k, v); err != nil {
			return nil, fmt.Errorf("merge context field %q: %w", k, err)
		}
	}

	return json.Marshal(chatRequest{
		Message:   message,
		SessionID: sess.ID(),
		Context:   ctxJSON,
	})
}

// acquire reserves the single in-flight slot for a session.
func (c *Client) acquire(sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight[sessionID] {
		return ErrStreamInFlight
	}
	c.inflight[sessionID] = true
	return nil
}

func (c *Client) release(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, sessionID)
}

// HealthResponse is the backend health payload.
type HealthResponse struct {
	Status          string `json:"status"`
	AgentConfigured bool   `json:"agent_configured"`
}

// Health checks that the backend agent is reachable.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	hc := &http.Client{Timeout: 10 * time.Second}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("health check failed with status %d", resp.StatusCode)
	}

	var result HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}
