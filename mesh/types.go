package mesh

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultAgentType is sent with task creation when no explicit agent type is
// configured.
const DefaultAgentType = "AGENT"

// StatusFinished is the terminal status reported by the task query endpoint.
const StatusFinished = "finished"

// TaskInput describes what an agent should do: either a natural language
// query, a named tool invocation with structured arguments, or both. At least
// one of Query or Tool must be set.
type TaskInput struct {
	// Query is a natural language request for the agent to interpret.
	Query string

	// Tool names a specific agent tool to invoke instead of (or in addition
	// to) free-form query handling.
	Tool string

	// ToolArguments carries the structured arguments for Tool.
	ToolArguments map[string]any

	// RawDataOnly asks the agent to skip the natural language wrapping of the
	// tool output and return raw data.
	RawDataOnly bool
}

// taskInputPayload is the wire form of TaskInput. Absent fields are omitted
// entirely rather than sent as empty values.
type taskInputPayload struct {
	RawDataOnly   bool           `json:"raw_data_only"`
	Query         string         `json:"query,omitempty"`
	Tool          string         `json:"tool,omitempty"`
	ToolArguments map[string]any `json:"tool_arguments,omitempty"`
}

func (in TaskInput) payload() (taskInputPayload, error) {
	if in.Query == "" && in.Tool == "" {
		return taskInputPayload{}, ErrEmptyInput
	}
	return taskInputPayload{
		RawDataOnly:   in.RawDataOnly,
		Query:         in.Query,
		Tool:          in.Tool,
		ToolArguments: in.ToolArguments,
	}, nil
}

type taskCreateRequest struct {
	APIKey      string           `json:"api_key"`
	AgentID     string           `json:"agent_id"`
	AgentType   string           `json:"agent_type"`
	TaskDetails taskInputPayload `json:"task_details"`
}

type taskQueryRequest struct {
	APIKey  string `json:"api_key"`
	AgentID string `json:"agent_id"`
	TaskID  string `json:"task_id"`
}

type syncRequest struct {
	APIKey  string           `json:"api_key"`
	AgentID string           `json:"agent_id"`
	Input   taskInputPayload `json:"input"`
}

// TaskCreateResponse acknowledges an accepted asynchronous task.
type TaskCreateResponse struct {
	TaskID  string `json:"task_id"`
	Message string `json:"msg"`
}

// ReasoningStep is an intermediate progress record emitted while a task is in
// flight.
type ReasoningStep struct {
	Timestamp int64  `json:"timestamp"`
	Content   string `json:"content"`
	IsSent    bool   `json:"is_sent"`
}

// TaskResult is the final payload of a finished task. Response is whatever
// structured value the agent produced.
type TaskResult struct {
	Response any  `json:"response"`
	Success  bool `json:"success"`
}

// UnmarshalJSON normalizes the backend's loose success encoding at decode
// time. The sequencer sometimes serializes the flag as the string "true" or
// "false" instead of a JSON boolean; callers only ever observe a bool. Any
// string other than a case-insensitive "true" reads as false, matching the
// backend's own interpretation.
func (r *TaskResult) UnmarshalJSON(data []byte) error {
	var raw struct {
		Response any             `json:"response"`
		Success  json.RawMessage `json:"success"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode task result: %w", err)
	}
	r.Response = raw.Response
	r.Success = false
	if len(raw.Success) == 0 {
		return nil
	}
	var b bool
	if err := json.Unmarshal(raw.Success, &b); err == nil {
		r.Success = b
		return nil
	}
	var s string
	if err := json.Unmarshal(raw.Success, &s); err == nil {
		r.Success = strings.EqualFold(s, "true")
		return nil
	}
	return nil
}

// TaskQueryResponse reports the current state of an asynchronous task. Result
// is only present once the backend has one to report; it is decoded through
// TaskResult regardless of whether the backend sent a typed object or a bare
// mapping.
type TaskQueryResponse struct {
	Status         string          `json:"status"`
	ReasoningSteps []ReasoningStep `json:"reasoning_steps,omitempty"`
	Result         *TaskResult     `json:"result,omitempty"`
}

// Finished reports whether the task reached its terminal status.
func (r TaskQueryResponse) Finished() bool {
	return r.Status == StatusFinished
}
