// Package meshtest provides an in-process stand-in for the mesh sequencer
// backend. It implements the task creation, task query and synchronous
// request endpoints with deterministic task progression, so client code and
// tests can run a full create/poll/finish cycle without network access.
//
// The fake reproduces a known quirk of the real backend: the success flag of
// a finished task result is serialized as the string "true" rather than a
// JSON boolean. Anything built on top of the client should never notice.
package meshtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultPollsToFinish is how many status queries a task answers as running
// before it reports finished.
const DefaultPollsToFinish = 2

type taskState struct {
	agentID string
	input   map[string]any
	polls   int
	steps   []map[string]any
}

// Server is a fake mesh sequencer listening on a local httptest server.
type Server struct {
	// URL is the base URL clients should be pointed at.
	URL string

	srv *httptest.Server

	mu            sync.Mutex
	tasks         map[string]*taskState
	pollsToFinish int
}

// NewServer starts a fake sequencer. Callers own the returned server and must
// Close it.
func NewServer() *Server {
	s := &Server{
		tasks:         make(map[string]*taskState),
		pollsToFinish: DefaultPollsToFinish,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/mesh_task_create", s.handleTaskCreate)
	mux.HandleFunc("/mesh_task_query", s.handleTaskQuery)
	mux.HandleFunc("/mesh_request", s.handleSyncRequest)

	s.srv = httptest.NewServer(mux)
	s.URL = s.srv.URL
	return s
}

// Close shuts the underlying HTTP server down.
func (s *Server) Close() {
	s.srv.Close()
}

// SetPollsToFinish adjusts how many queries a subsequently created task stays
// in progress for. Zero makes tasks finish on the first query.
func (s *Server) SetPollsToFinish(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pollsToFinish = n
}

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey      string         `json:"api_key"`
		AgentID     string         `json:"agent_id"`
		AgentType   string         `json:"agent_type"`
		TaskDetails map[string]any `json:"task_details"`
	}
	if !decodeRequest(w, r, &req) {
		return
	}
	if !s.authorize(w, req.APIKey, req.AgentID) {
		return
	}
	if !hasWork(req.TaskDetails) {
		writeError(w, http.StatusBadRequest, "task_details must include query or tool")
		return
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.tasks[id] = &taskState{agentID: req.AgentID, input: req.TaskDetails}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"task_id": id,
		"msg":     "Task created",
	})
}

func (s *Server) handleTaskQuery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey  string `json:"api_key"`
		AgentID string `json:"agent_id"`
		TaskID  string `json:"task_id"`
	}
	if !decodeRequest(w, r, &req) {
		return
	}
	if !s.authorize(w, req.APIKey, req.AgentID) {
		return
	}

	s.mu.Lock()
	task, ok := s.tasks[req.TaskID]
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown task %q", req.TaskID))
		return
	}

	task.polls++
	if task.polls <= s.pollsToFinish {
		task.steps = append(task.steps, map[string]any{
			"timestamp": time.Now().Unix(),
			"content":   fmt.Sprintf("processing step %d", task.polls),
			"is_sent":   true,
		})
		resp := map[string]any{
			"status":          "running",
			"reasoning_steps": append([]map[string]any(nil), task.steps...),
		}
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, resp)
		return
	}

	resp := map[string]any{
		"status":          "finished",
		"reasoning_steps": append([]map[string]any(nil), task.steps...),
		"result": map[string]any{
			"response": answerFor(task.input),
			// string on purpose, matching the real backend
			"success": "true",
		},
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSyncRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey  string         `json:"api_key"`
		AgentID string         `json:"agent_id"`
		Input   map[string]any `json:"input"`
	}
	if !decodeRequest(w, r, &req) {
		return
	}
	if !s.authorize(w, req.APIKey, req.AgentID) {
		return
	}
	if !hasWork(req.Input) {
		writeError(w, http.StatusBadRequest, "input must include query or tool")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"response": answerFor(req.Input),
		"success":  true,
	})
}

func (s *Server) authorize(w http.ResponseWriter, apiKey, agentID string) bool {
	if apiKey == "" {
		writeError(w, http.StatusBadRequest, "api_key is required")
		return false
	}
	if agentID == "" {
		writeError(w, http.StatusBadRequest, "agent_id is required")
		return false
	}
	return true
}

// answerFor fabricates an agent answer for the given input. Tool calls get a
// small structured payload; plain queries get a natural language sentence.
func answerFor(input map[string]any) any {
	if tool, ok := input["tool"].(string); ok && tool != "" {
		return map[string]any{
			"tool":      tool,
			"arguments": input["tool_arguments"],
			"data":      map[string]any{"price_usd": 1234.56, "market_cap_usd": 9.87e10},
		}
	}
	query, _ := input["query"].(string)
	return fmt.Sprintf("Answering %q: the requested data was retrieved.", query)
}

func hasWork(input map[string]any) bool {
	if input == nil {
		return false
	}
	if q, ok := input["query"].(string); ok && q != "" {
		return true
	}
	if t, ok := input["tool"].(string); ok && t != "" {
		return true
	}
	return false
}

func decodeRequest(w http.ResponseWriter, r *http.Request, out any) bool {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}
