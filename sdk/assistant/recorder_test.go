package assistant_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aacamara/cscx-mvp6-sub000/sdk/assistant"
)

func TestRecorderPayload(t *testing.T) {
	var mu sync.Mutex
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/conversations/log" {
			http.NotFound(w, r)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	rec := assistant.NewRecorder(srv.URL)
	rec.Record("sess_1", "cus_42", assistant.RoleAssistant, "All good.", "success-copilot", []string{"crm_lookup"})
	rec.Flush()

	mu.Lock()
	defer mu.Unlock()
	if got == nil {
		t.Fatal("no record received")
	}
	if got["subjectId"] != "cus_42" {
		t.Errorf("subjectId = %v", got["subjectId"])
	}
	if got["role"] != "assistant" {
		t.Errorf("role = %v", got["role"])
	}
	if got["content"] != "All good." {
		t.Errorf("content = %v", got["content"])
	}
	if got["agentLabel"] != "success-copilot" {
		t.Errorf("agentLabel = %v", got["agentLabel"])
	}
	if got["sessionId"] != "sess_1" {
		t.Errorf("sessionId = %v", got["sessionId"])
	}
	tools, _ := got["toolCalls"].([]any)
	if len(tools) != 1 || tools[0] != "crm_lookup" {
		t.Errorf("toolCalls = %v", got["toolCalls"])
	}
}

func TestRecorderOmitsEmptyOptionalFields(t *testing.T) {
	var mu sync.Mutex
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		json.NewDecoder(r.Body).Decode(&raw)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	rec := assistant.NewRecorder(srv.URL)
	rec.Record("sess_1", "cus_42", assistant.RoleUser, "hi", "", nil)
	rec.Flush()

	mu.Lock()
	defer mu.Unlock()
	if _, present := raw["agentLabel"]; present {
		t.Error("empty agentLabel serialized")
	}
	if _, present := raw["toolCalls"]; present {
		t.Error("empty toolCalls serialized")
	}
}

func TestRecorderDoesNotBlockOnSlowStorage(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	rec := assistant.NewRecorder(srv.URL)

	start := time.Now()
	rec.Record("sess_1", "cus_42", assistant.RoleUser, "hi", "", nil)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Record blocked for %v, must be fire-and-forget", elapsed)
	}
}

func TestRecorderFailureIsContained(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "storage down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	rec := assistant.NewRecorder(srv.URL)
	rec.Record("sess_1", "cus_42", assistant.RoleUser, "hi", "", nil)
	rec.Flush() // must not panic or propagate
}

func TestNilRecorderIsNoop(t *testing.T) {
	var rec *assistant.Recorder
	rec.Record("sess_1", "cus_42", assistant.RoleUser, "hi", "", nil)
	rec.Flush()
}
