// Package mesh provides a client for the Heurist Mesh agent API. Agents are
// named remote workers that handle natural language queries and expose tools
// with structured arguments; work is either executed synchronously or
// submitted as an asynchronous task and polled until finished.
package mesh

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	// DefaultBaseURL points at the production mesh sequencer.
	DefaultBaseURL = "https://sequencer-v2.heurist.xyz"

	// DefaultTimeout bounds every HTTP exchange made by a client created
	// without a custom http.Client.
	DefaultTimeout = 30 * time.Second

	// APIKeyEnvVar names the environment variable consulted when no explicit
	// API key is passed to NewClient.
	APIKeyEnvVar = "HEURIST_API_KEY"
)

const (
	taskCreateEndpoint = "/mesh_task_create"
	taskQueryEndpoint  = "/mesh_task_query"
	syncEndpoint       = "/mesh_request"
)

// Client wraps the HTTP interactions with the mesh sequencer. It holds no
// mutable state after construction, so a single Client is safe for concurrent
// use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option customises client construction.
type Option func(*options)

type options struct {
	apiKey     string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// WithAPIKey sets the API key explicitly, taking precedence over the
// environment variable.
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// WithBaseURL overrides the sequencer base URL. A trailing slash is stripped.
func WithBaseURL(rawURL string) Option {
	return func(o *options) { o.baseURL = rawURL }
}

// WithTimeout overrides the default per-request timeout. Ignored when a
// custom http.Client is supplied.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithHTTPClient supplies a fully configured http.Client, bypassing the
// timeout option.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// NewClient builds a mesh client. The API key is resolved from WithAPIKey or,
// failing that, the HEURIST_API_KEY environment variable; ErrMissingAPIKey is
// returned when neither is set.
func NewClient(opts ...Option) (*Client, error) {
	o := options{baseURL: DefaultBaseURL, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	key := o.apiKey
	if key == "" {
		key = os.Getenv(APIKeyEnvVar)
	}
	if key == "" {
		return nil, ErrMissingAPIKey
	}

	hc := o.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: o.timeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(o.baseURL, "/"),
		apiKey:     key,
		httpClient: hc,
	}, nil
}

// TaskOption customises task creation.
type TaskOption func(*taskOptions)

type taskOptions struct {
	agentType string
}

// WithAgentType overrides the agent type sent with task creation.
func WithAgentType(agentType string) TaskOption {
	return func(o *taskOptions) { o.agentType = agentType }
}

// CreateTask submits a new asynchronous task to the named agent and returns
// the acknowledgement carrying the task id to poll with. The input must name
// a query, a tool, or both.
func (c *Client) CreateTask(ctx context.Context, agentID string, input TaskInput, opts ...TaskOption) (TaskCreateResponse, error) {
	details, err := input.payload()
	if err != nil {
		return TaskCreateResponse{}, err
	}

	to := taskOptions{agentType: DefaultAgentType}
	for _, opt := range opts {
		opt(&to)
	}

	var out TaskCreateResponse
	err = c.post(ctx, taskCreateEndpoint, taskCreateRequest{
		APIKey:      c.apiKey,
		AgentID:     agentID,
		AgentType:   to.agentType,
		TaskDetails: details,
	}, &out)
	if err != nil {
		return TaskCreateResponse{}, err
	}
	return out, nil
}

// QueryTask fetches the current status of an asynchronous task, including any
// reasoning steps emitted so far and, once available, the normalized result.
func (c *Client) QueryTask(ctx context.Context, agentID, taskID string) (TaskQueryResponse, error) {
	var out TaskQueryResponse
	err := c.post(ctx, taskQueryEndpoint, taskQueryRequest{
		APIKey:  c.apiKey,
		AgentID: agentID,
		TaskID:  taskID,
	}, &out)
	if err != nil {
		return TaskQueryResponse{}, err
	}
	return out, nil
}

// SyncRequest runs the input against the named agent and blocks until the
// agent answers. The response body is returned as decoded JSON, without any
// typed wrapping.
func (c *Client) SyncRequest(ctx context.Context, agentID string, input TaskInput) (map[string]any, error) {
	in, err := input.payload()
	if err != nil {
		return nil, err
	}

	var out map[string]any
	err = c.post(ctx, syncEndpoint, syncRequest{
		APIKey:  c.apiKey,
		AgentID: agentID,
		Input:   in,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close releases idle connections held by the underlying transport. It is
// safe to call more than once and safe to defer right after construction.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) post(ctx context.Context, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("read error response: %w", readErr)
		}
		return &APIError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
