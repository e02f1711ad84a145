package assistant_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aacamara/cscx-mvp6-sub000/sdk/assistant"
)

// streamHandler builds a chat endpoint that writes the given raw chunks,
// flushing between each.
func streamHandler(t *testing.T, chunks ...string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/agent/chat" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Fatal("test server does not support flushing")
		}
		for _, chunk := range chunks {
			fmt.Fprint(w, chunk)
			flusher.Flush()
		}
	}
}

func collect(t *testing.T, s *assistant.Stream) ([]assistant.Event, error) {
	t.Helper()
	var events []assistant.Event
	for ev := range s.Events() {
		events = append(events, ev)
	}
	return events, <-s.Errs()
}

func TestOpenStreamDeliversEventsInOrder(t *testing.T) {
	srv := httptest.NewServer(streamHandler(t,
		"data: {\"type\":\"thinking\"}\n",
		"data: {\"type\":\"tool_start\",\"name\":\"crm_lookup\"}\n",
		"data: {\"type\":\"tool_end\",\"name\":\"crm_lookup\"}\n",
		"data: {\"type\":\"token\",\"content\":\"Acme\"}\n",
		"data: {\"type\":\"token\",\"content\":\" Corp\"}\n",
		"data: {\"type\":\"done\"}\n",
	))
	defer srv.Close()

	client := assistant.NewClient(srv.URL)
	sess := assistant.NewSession(assistant.SituationalContext{Phase: assistant.PhaseRisk})

	stream, err := client.OpenStream(context.Background(), "Summarize this customer", sess)
	if err != nil {
		t.Fatalf("OpenStream() error = %v", err)
	}

	events, streamErr := collect(t, stream)
	if streamErr != nil {
		t.Fatalf("stream error = %v", streamErr)
	}

	wantTypes := []assistant.EventType{
		assistant.EventThinking,
		assistant.EventToolStart,
		assistant.EventToolEnd,
		assistant.EventToken,
		assistant.EventToken,
		assistant.EventDone,
	}
	if len(events) != len(wantTypes) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(wantTypes), events)
	}
	for i, typ := range wantTypes {
		if events[i].Type != typ {
			t.Errorf("event[%d].Type = %s, want %s", i, events[i].Type, typ)
		}
	}
	if events[3].Content != "Acme" || events[4].Content != " Corp" {
		t.Errorf("token contents = %q, %q", events[3].Content, events[4].Content)
	}
}

func TestOpenStreamReassemblesSplitLines(t *testing.T) {
	// One event split across two physical writes must be carried over and
	// reassembled, not dropped.
	srv := httptest.NewServer(streamHandler(t,
		"data: {\"type\":\"token\",\"cont",
		"ent\":\"whole\"}\ndata: {\"type\":\"done\"}\n",
	))
	defer srv.Close()

	client := assistant.NewClient(srv.URL)
	sess := assistant.NewSession(assistant.SituationalContext{Phase: assistant.PhaseAdoption})

	stream, err := client.OpenStream(context.Background(), "hello", sess)
	if err != nil {
		t.Fatalf("OpenStream() error = %v", err)
	}

	events, streamErr := collect(t, stream)
	if streamErr != nil {
		t.Fatalf("stream error = %v", streamErr)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(events), events)
	}
	if events[0].Content != "whole" {
		t.Errorf("reassembled token content = %q, want %q", events[0].Content, "whole")
	}
}

func TestOpenStreamSplitMultibyteRune(t *testing.T) {
	// "你" is 0xE4 0xBD 0xA0; split it across two writes.
	line := "data: {\"type\":\"token\",\"content\":\"你好\"}\ndata: {\"type\":\"done\"}\n"
	cut := len("data: {\"type\":\"token\",\"content\":\"") + 1 // mid-rune

	srv := httptest.NewServer(streamHandler(t, line[:cut], line[cut:]))
	defer srv.Close()

	client := assistant.NewClient(srv.URL)
	sess := assistant.NewSession(assistant.SituationalContext{Phase: assistant.PhaseAdoption})

	stream, err := client.OpenStream(context.Background(), "hello", sess)
	if err != nil {
		t.Fatalf("OpenStream() error = %v", err)
	}

	events, streamErr := collect(t, stream)
	if streamErr != nil {
		t.Fatalf("stream error = %v", streamErr)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(events), events)
	}
	if events[0].Content != "你好" {
		t.Errorf("multibyte content = %q, want %q", events[0].Content, "你好")
	}
}

func TestOpenStreamIgnoresNonEventLines(t *testing.T) {
	srv := httptest.NewServer(streamHandler(t,
		": keepalive\n",
		"event: message\n",
		"data: not json at all\n",
		"\n",
		"data: {\"type\":\"token\",\"content\":\"real\"}\n",
		"data: {\"type\":\"done\"}\n",
	))
	defer srv.Close()

	client := assistant.NewClient(srv.URL)
	sess := assistant.NewSession(assistant.SituationalContext{Phase: assistant.PhaseRenewal})

	stream, err := client.OpenStream(context.Background(), "hello", sess)
	if err != nil {
		t.Fatalf("OpenStream() error = %v", err)
	}

	events, streamErr := collect(t, stream)
	if streamErr != nil {
		t.Fatalf("stream error = %v", streamErr)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(events), events)
	}
	if events[0].Content != "real" {
		t.Errorf("content = %q, want %q", events[0].Content, "real")
	}
}

func TestOpenStreamNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "agent unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := assistant.NewClient(srv.URL)
	sess := assistant.NewSession(assistant.SituationalContext{Phase: assistant.PhaseRisk})

	_, err := client.OpenStream(context.Background(), "hello", sess)
	if err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}

func TestOpenStreamEmptyMessage(t *testing.T) {
	client := assistant.NewClient("http://localhost:0")
	sess := assistant.NewSession(assistant.SituationalContext{})

	_, err := client.OpenStream(context.Background(), "", sess)
	if !errors.Is(err, assistant.ErrEmptyMessage) {
		t.Fatalf("error = %v, want ErrEmptyMessage", err)
	}
}

func TestOpenStreamTruncatedWithoutTerminal(t *testing.T) {
	srv := httptest.NewServer(streamHandler(t,
		"data: {\"type\":\"token\",\"content\":\"partial\"}\n",
	))
	defer srv.Close()

	client := assistant.NewClient(srv.URL)
	sess := assistant.NewSession(assistant.SituationalContext{Phase: assistant.PhaseRisk})

	stream, err := client.OpenStream(context.Background(), "hello", sess)
	if err != nil {
		t.Fatalf("OpenStream() error = %v", err)
	}

	events, streamErr := collect(t, stream)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if !errors.Is(streamErr, io.ErrUnexpectedEOF) {
		t.Errorf("stream error = %v, want io.ErrUnexpectedEOF", streamErr)
	}
}

func TestOpenStreamSingleInFlight(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		<-release
		fmt.Fprint(w, "data: {\"type\":\"done\"}\n")
	}))
	defer srv.Close()
	defer close(release)

	client := assistant.NewClient(srv.URL)
	sess := assistant.NewSession(assistant.SituationalContext{Phase: assistant.PhaseRisk})

	first, err := client.OpenStream(context.Background(), "first", sess)
	if err != nil {
		t.Fatalf("first OpenStream() error = %v", err)
	}
	defer first.Cancel()

	if _, err := client.OpenStream(context.Background(), "second", sess); !errors.Is(err, assistant.ErrStreamInFlight) {
		t.Fatalf("second OpenStream() error = %v, want ErrStreamInFlight", err)
	}

	// A different session is unaffected.
	other := assistant.NewSession(assistant.SituationalContext{Phase: assistant.PhaseRisk})
	second, err := client.OpenStream(context.Background(), "other session", other)
	if err != nil {
		t.Fatalf("OpenStream() for second session error = %v", err)
	}
	second.Cancel()
	collect(t, second)
}

func TestStreamCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: {\"type\":\"token\",\"content\":\"Draft\"}\n")
		flusher.Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := assistant.NewClient(srv.URL)
	sess := assistant.NewSession(assistant.SituationalContext{Phase: assistant.PhaseRenewal})

	stream, err := client.OpenStream(context.Background(), "Draft an email", sess)
	if err != nil {
		t.Fatalf("OpenStream() error = %v", err)
	}

	// Let the first token arrive, then cancel.
	select {
	case ev := <-stream.Events():
		if ev.Content != "Draft" {
			t.Fatalf("first event content = %q", ev.Content)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for first event")
	}

	stream.Cancel()

	_, streamErr := collect(t, stream)
	if !errors.Is(streamErr, assistant.ErrStreamCanceled) {
		t.Fatalf("stream error = %v, want ErrStreamCanceled", streamErr)
	}

	// The in-flight slot is released after cancellation.
	deadline := time.Now().Add(5 * time.Second)
	for {
		next, err := client.OpenStream(context.Background(), "again", sess)
		if err == nil {
			next.Cancel()
			collect(t, next)
			break
		}
		if !errors.Is(err, assistant.ErrStreamInFlight) {
			t.Fatalf("reopen error = %v", err)
		}
		if time.Now().After(deadline) {
			t.Fatal("in-flight slot never released after cancel")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
