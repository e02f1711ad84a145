package assistant_test

import (
	"reflect"
	"testing"

	"github.com/aacamara/cscx-mvp6-sub000/sdk/assistant"
)

func newTestReconciler() (*assistant.Reconciler, *assistant.Turn) {
	turn := assistant.NewTurn(assistant.RoleAssistant, "")
	turn.IsStreaming = true
	rec := assistant.NewReconciler(turn, assistant.PhaseRisk, "success-copilot")
	return rec, turn
}

func TestReconcilerTokenAccumulation(t *testing.T) {
	rec, turn := newTestReconciler()

	// Fixtures use delta payloads: each token carries only new text and
	// the reconciler concatenates into its accumulator.
	rec.Apply(assistant.Event{Type: assistant.EventToken, Content: "Acme"})
	if turn.Content != "Acme" {
		t.Errorf("content after first token = %q, want %q", turn.Content, "Acme")
	}

	rec.Apply(assistant.Event{Type: assistant.EventToken, Content: " Corp is healthy."})
	if turn.Content != "Acme Corp is healthy." {
		t.Errorf("content after second token = %q, want %q", turn.Content, "Acme Corp is healthy.")
	}

	rec.Apply(assistant.Event{Type: assistant.EventDone})
	if !turn.Finalized() {
		t.Fatal("expected turn to be finalized after done")
	}
	if turn.Content != "Acme Corp is healthy." {
		t.Errorf("finalized content = %q, want %q", turn.Content, "Acme Corp is healthy.")
	}
	if turn.IsStreaming || turn.IsThinking {
		t.Errorf("finalized turn still has lifecycle flags set: streaming=%v thinking=%v", turn.IsStreaming, turn.IsThinking)
	}
}

func TestReconcilerThinkingScenario(t *testing.T) {
	// Scenario: thinking, token{"Acme"}, token{" Corp is healthy."}, done.
	rec, turn := newTestReconciler()

	rec.Apply(assistant.Event{Type: assistant.EventThinking})
	if !turn.IsThinking {
		t.Error("expected IsThinking after thinking event")
	}
	if turn.Content != "" {
		t.Errorf("thinking must not touch persisted content, got %q", turn.Content)
	}
	if turn.DisplayContent() != assistant.ThinkingText {
		t.Errorf("display content = %q, want transient %q", turn.DisplayContent(), assistant.ThinkingText)
	}

	rec.Apply(assistant.Event{Type: assistant.EventToken, Content: "Acme"})
	rec.Apply(assistant.Event{Type: assistant.EventToken, Content: " Corp is healthy."})
	rec.Apply(assistant.Event{Type: assistant.EventDone})

	if turn.Content != "Acme Corp is healthy." {
		t.Errorf("final content = %q, want %q", turn.Content, "Acme Corp is healthy.")
	}
	if turn.IsStreaming {
		t.Error("expected IsStreaming=false after done")
	}
	if turn.IsThinking {
		t.Error("expected IsThinking=false after done")
	}
}

func TestReconcilerEmptyDoneFallback(t *testing.T) {
	rec, turn := newTestReconciler()

	rec.Apply(assistant.Event{Type: assistant.EventDone})

	if turn.Content != assistant.FallbackText {
		t.Errorf("empty done content = %q, want fallback %q", turn.Content, assistant.FallbackText)
	}
	if turn.Content == "" {
		t.Error("finalized turn must never be empty")
	}
}

func TestReconcilerErrorEvent(t *testing.T) {
	rec, turn := newTestReconciler()

	rec.Apply(assistant.Event{Type: assistant.EventToken, Content: "partial"})
	rec.Apply(assistant.Event{Type: assistant.EventError, Message: "upstream 529: overloaded"})

	if turn.Content != assistant.FailureText {
		t.Errorf("error content = %q, want fixed failure text %q", turn.Content, assistant.FailureText)
	}
	if turn.Content == "upstream 529: overloaded" {
		t.Error("raw error text must never be shown to the user")
	}
	if !turn.Finalized() {
		t.Error("expected finalized turn after error event")
	}
}

func TestReconcilerToolTracking(t *testing.T) {
	rec, turn := newTestReconciler()

	rec.Apply(assistant.Event{Type: assistant.EventToolStart, Name: "crm_lookup"})
	rec.Apply(assistant.Event{Type: assistant.EventToolEnd, Name: "crm_lookup"})
	rec.Apply(assistant.Event{Type: assistant.EventToolStart, Name: "usage_report"})
	rec.Apply(assistant.Event{Type: assistant.EventToolStart, Name: "crm_lookup"}) // duplicate
	rec.Apply(assistant.Event{Type: assistant.EventToken, Content: "ok"})
	rec.Apply(assistant.Event{Type: assistant.EventDone})

	want := []string{"crm_lookup", "usage_report"}
	if turn.Final == nil {
		t.Fatal("expected final metadata")
	}
	if !reflect.DeepEqual(turn.Final.ToolsUsed, want) {
		t.Errorf("tools used = %v, want occurrence-ordered dedup %v", turn.Final.ToolsUsed, want)
	}
	if turn.Final.Phase != assistant.PhaseRisk {
		t.Errorf("final phase = %q, want %q", turn.Final.Phase, assistant.PhaseRisk)
	}
	if turn.AgentLabel != "success-copilot" {
		t.Errorf("agent label = %q, want %q", turn.AgentLabel, "success-copilot")
	}
}

func TestReconcilerEventsAfterFinalizedIgnored(t *testing.T) {
	rec, turn := newTestReconciler()

	rec.Apply(assistant.Event{Type: assistant.EventToken, Content: "final"})
	rec.Apply(assistant.Event{Type: assistant.EventDone})

	rec.Apply(assistant.Event{Type: assistant.EventToken, Content: " late"})
	rec.Apply(assistant.Event{Type: assistant.EventError, Message: "late error"})

	if turn.Content != "final" {
		t.Errorf("content mutated after finalization: %q", turn.Content)
	}
	if turn.StoppedByUser {
		t.Error("stoppedByUser set without cancellation")
	}
}

func TestReconcilerFinalizeCanceled(t *testing.T) {
	t.Run("before any token", func(t *testing.T) {
		rec, turn := newTestReconciler()
		rec.FinalizeCanceled()

		if turn.Content != assistant.StopSuffix {
			t.Errorf("content = %q, want exactly the stop suffix %q", turn.Content, assistant.StopSuffix)
		}
		if !turn.StoppedByUser {
			t.Error("expected StoppedByUser")
		}
		if turn.IsStreaming {
			t.Error("expected IsStreaming=false")
		}
	})

	t.Run("after tokens", func(t *testing.T) {
		rec, turn := newTestReconciler()
		rec.Apply(assistant.Event{Type: assistant.EventToken, Content: "Draft"})
		rec.FinalizeCanceled()

		want := "Draft" + assistant.StopSuffix
		if turn.Content != want {
			t.Errorf("content = %q, want %q", turn.Content, want)
		}
		if !turn.StoppedByUser {
			t.Error("expected StoppedByUser")
		}
	})

	t.Run("idempotent after finalization", func(t *testing.T) {
		rec, turn := newTestReconciler()
		rec.Apply(assistant.Event{Type: assistant.EventToken, Content: "done deal"})
		rec.Apply(assistant.Event{Type: assistant.EventDone})
		rec.FinalizeCanceled()

		if turn.StoppedByUser {
			t.Error("cancel after finalization must not mark the turn stopped")
		}
		if turn.Content != "done deal" {
			t.Errorf("content = %q, want %q", turn.Content, "done deal")
		}
	})
}
