// Package mock runs a stand-in backend agent for local development. It
// speaks the same line-framed event protocol as the production agent and
// accepts side-channel conversation records.
package mock

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

type Server struct {
	port int

	mu       sync.Mutex
	recorded int
}

func NewServer(port int) *Server {
	return &Server{port: port}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	fmt.Printf("Mock agent backend on http://localhost%s\n", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// Handler returns the mux so tests can mount it on httptest servers.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/api/agent/chat", s.chatHandler)
	mux.HandleFunc("/api/conversations/log", s.logHandler)
	return mux
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":           "ok",
		"agent_configured": true,
	})
}

func (s *Server) logHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.mu.Lock()
	s.recorded++
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// Recorded returns how many side-channel writes landed.
func (s *Server) Recorded() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recorded
}

func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Message   string `json:"message"`
		SessionID string `json:"sessionId"`
		Context   struct {
			Phase       string `json:"phase"`
			SubjectName string `json:"subjectName"`
		} `json:"context"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	subject := req.Context.SubjectName
	if subject == "" {
		subject = "this customer"
	}

	s.generateResponse(w, flusher, req.Message, subject, req.Context.Phase)
}

func (s *Server) generateResponse(w http.ResponseWriter, flusher http.Flusher, userMessage, subject, phase string) {
	lowerMsg := strings.ToLower(userMessage)

	sendEvent(w, flusher, map[string]any{"type": "thinking"})
	time.Sleep(200 * time.Millisecond)

	if strings.Contains(lowerMsg, "summarize") || strings.Contains(lowerMsg, "health") {
		s.simulateCRMLookup(w, flusher)
		s.simulateUsageReport(w, flusher)
	} else if strings.Contains(lowerMsg, "email") || strings.Contains(lowerMsg, "draft") {
		s.simulateCRMLookup(w, flusher)
	} else if strings.Contains(lowerMsg, "risk") || strings.Contains(lowerMsg, "churn") {
		s.simulateUsageReport(w, flusher)
	}

	s.streamTokens(w, flusher, s.cannedResponse(lowerMsg, subject, phase))

	sendEvent(w, flusher, map[string]any{"type": "done"})
}

func (s *Server) simulateCRMLookup(w http.ResponseWriter, flusher http.Flusher) {
	sendEvent(w, flusher, map[string]any{"type": "tool_start", "name": "crm_lookup"})
	time.Sleep(300 * time.Millisecond)
	sendEvent(w, flusher, map[string]any{"type": "tool_end", "name": "crm_lookup"})
}

func (s *Server) simulateUsageReport(w http.ResponseWriter, flusher http.Flusher) {
	sendEvent(w, flusher, map[string]any{"type": "tool_start", "name": "usage_report"})
	time.Sleep(350 * time.Millisecond)
	sendEvent(w, flusher, map[string]any{"type": "tool_end", "name": "usage_report"})
}

func (s *Server) cannedResponse(lowerMsg, subject, phase string) string {
	if strings.Contains(lowerMsg, "summarize") || strings.Contains(lowerMsg, "health") {
		return fmt.Sprintf("Here's where %s stands:\n\n- **Health score**: 72/100, trending up\n- **Active seats**: 41 of 50 licensed\n- **Open tickets**: 2, neither escalated\n- **Last QBR**: six weeks ago\n\nAdoption is solid in the core product; the analytics module is mostly untouched. Worth raising in your next check-in.", subject)
	}

	if strings.Contains(lowerMsg, "email") || strings.Contains(lowerMsg, "draft") {
		return fmt.Sprintf("Here's a draft you can edit:\n\n---\n\nSubject: Checking in on your team's progress\n\nHi there,\n\nI wanted to reach out and see how things are going for %s. From what I can see your team has been making steady progress, and I'd love to walk through a couple of features that could save you more time.\n\nWould sometime next week work for a quick call?\n\nBest,\nYour success team", subject)
	}

	if strings.Contains(lowerMsg, "risk") || strings.Contains(lowerMsg, "churn") {
		return fmt.Sprintf("Top risk signals for %s:\n\n1. **Login frequency** dropped 30%% month over month\n2. **Champion departure** — their main admin left last month\n3. **Support sentiment** — last two tickets were frustrated in tone\n\nRecommend scheduling an executive sync before the renewal conversation.", subject)
	}

	if strings.Contains(lowerMsg, "plan") || strings.Contains(lowerMsg, "onboarding") {
		return fmt.Sprintf("A 30-day plan for %s:\n\n**Week 1**: kickoff call, admin setup, data import\n**Week 2**: core workflow training for the pilot team\n**Week 3**: expand to the full team, configure integrations\n**Week 4**: review adoption metrics, set success criteria for the quarter", subject)
	}

	if phase != "" {
		return fmt.Sprintf("I can help you work through the %s phase for %s. Ask me to summarize the account, draft outreach, or dig into risk signals.", phase, subject)
	}
	return fmt.Sprintf("I'm your customer-success copilot for %s. I can summarize account health, draft outreach emails, build onboarding plans, and flag churn risks. What do you need?", subject)
}

func (s *Server) streamTokens(w http.ResponseWriter, flusher http.Flusher, response string) {
	// Batch runes for a realistic streaming feel without per-character
	// overhead.
	batchSize := 4
	runes := []rune(response)

	for i := 0; i < len(runes); i += batchSize {
		end := i + batchSize
		if end > len(runes) {
			end = len(runes)
		}

		sendEvent(w, flusher, map[string]any{
			"type":    "token",
			"content": string(runes[i:end]),
		})
		time.Sleep(10 * time.Millisecond)
	}
}

func sendEvent(w http.ResponseWriter, flusher http.Flusher, payload map[string]any) {
	data, _ := json.Marshal(payload)
	fmt.Fprintf(w, "data: %s\n", data)
	flusher.Flush()
}
