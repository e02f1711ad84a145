package assistant

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

const (
	// streamReadSize is the chunk size for incremental body reads.
	streamReadSize = 4096
	// maxCarrySize caps the unterminated-fragment carry buffer. A
	// fragment that outgrows it is dropped, not delivered.
	maxCarrySize = 64 * 1024
)

// Stream is one open streaming turn: a producer goroutine reading and
// decoding the response body, and a pair of channels the consumer drains.
//
// The event channel delivers protocol events in strict arrival order and is
// closed after the terminal event, a failure, or cancellation. At most one
// error is delivered on the error channel.
type Stream struct {
	events chan Event
	errs   chan error
	cancel context.CancelFunc
}

// Events returns the ordered protocol event sequence.
func (s *Stream) Events() <-chan Event {
	return s.events
}

// Errs delivers the stream failure, if any. ErrStreamCanceled marks a
// user-initiated stop; anything else is a transport failure.
func (s *Stream) Errs() <-chan error {
	return s.errs
}

// Cancel signals the producer to stop reading and abandons the underlying
// connection. Cooperative: events already buffered may still be delivered
// and it is the consumer's job to discard them.
func (s *Stream) Cancel() {
	s.cancel()
}

// OpenStream issues the streaming POST for one turn and begins reading the
// response. It fails before producing any event on a non-2xx status, and
// enforces the single-in-flight invariant per session.
func (c *Client) OpenStream(ctx context.Context, message string, sess *Session) (*Stream, error) {
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if err := c.acquire(sess.ID()); err != nil {
		return nil, err
	}

	body, err := buildChatBody(message, sess)
	if err != nil {
		c.release(sess.ID())
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/agent/chat", bytes.NewReader(body))
	if err != nil {
		cancel()
		c.release(sess.ID())
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		c.release(sess.ID())
		return nil, fmt.Errorf("do request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		resp.Body.Close()
		cancel()
		c.release(sess.ID())
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	s := &Stream{
		events: make(chan Event, 100),
		errs:   make(chan error, 1),
		cancel: cancel,
	}

	go c.readLoop(ctx, resp.Body, sess.ID(), s)

	return s, nil
}

// readLoop is the producer: it reads raw chunks, carries unterminated line
// fragments across read boundaries, and delivers decoded events until a
// terminal event, failure, or cancellation.
func (c *Client) readLoop(ctx context.Context, body io.ReadCloser, sessionID string, s *Stream) {
	defer close(s.events)
	defer close(s.errs)
	defer body.Close()
	defer c.release(sessionID)

	buf := make([]byte, streamReadSize)
	var carry []byte

	for {
		// Cancellation is checked between reads; an in-flight read that
		// races the signal resolves below when its delivery is attempted.
		select {
		case <-ctx.Done():
			s.errs <- ErrStreamCanceled
			return
		default:
		}

		n, err := body.Read(buf)
		if n > 0 {
			carry = append(carry, buf[:n]...)
			var terminal bool
			carry, terminal = s.deliverLines(ctx, carry)
			if terminal {
				return
			}
			if len(carry) > maxCarrySize {
				GetLogger().Warn("dropping oversized event fragment", "bytes", len(carry))
				carry = nil
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				s.errs <- ErrStreamCanceled
			} else if err == io.EOF {
				// The server ended the stream without a terminal event.
				s.errs <- io.ErrUnexpectedEOF
			} else {
				s.errs <- fmt.Errorf("read stream: %w", err)
			}
			return
		}
	}
}

// deliverLines splits the pending bytes into complete lines, parses and
// delivers each event, and returns the trailing unterminated fragment.
// Splitting on '\n' keeps multi-byte runes intact: a rune split across two
// physical reads is reassembled in the carry buffer before its line is
// decoded. Returns terminal=true once a done/error event was delivered.
func (s *Stream) deliverLines(ctx context.Context, pending []byte) (rest []byte, terminal bool) {
	for {
		idx := bytes.IndexByte(pending, '\n')
		if idx < 0 {
			return pending, false
		}
		line := string(pending[:idx])
		pending = pending[idx+1:]

		ev, ok := ParseEventLine(line)
		if !ok {
			continue
		}

		select {
		case <-ctx.Done():
			// Discard; the consumer sees ErrStreamCanceled instead.
			return pending, false
		case s.events <- ev:
		}

		if ev.Terminal() {
			return pending, true
		}
	}
}
