// Package assistant implements the streaming conversation engine behind the
// customer-success assistant panel.
//
// The engine opens a long-lived POST to the backend agent, consumes the
// line-framed event stream it returns, and reconstructs a single evolving
// assistant turn from those events. The embedding surface only ever sees
// transcript snapshots; all mutation happens inside Conversation.
//
// Example usage:
//
//	client := assistant.NewClient("http://localhost:8080")
//	recorder := assistant.NewRecorder("http://localhost:8080")
//
//	conv := assistant.NewConversation(client, recorder, assistant.SituationalContext{
//	    Phase:       assistant.PhaseOnboarding,
//	    SubjectName: "Acme Corp",
//	    SubjectID:   "cus_123",
//	})
//
//	// Send blocks until the turn is finalized; run it from its own
//	// goroutine and observe transcript changes via OnChange.
//	go conv.Send(ctx, "Summarize this customer")
package assistant
