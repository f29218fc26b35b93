package mesh_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heurist-network/mesh-client-go/mesh"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *mesh.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := mesh.NewClient(
		mesh.WithAPIKey("test-key"),
		mesh.WithBaseURL(srv.URL),
		mesh.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

func TestNewClientMissingAPIKey(t *testing.T) {
	t.Setenv(mesh.APIKeyEnvVar, "")

	_, err := mesh.NewClient()
	require.ErrorIs(t, err, mesh.ErrMissingAPIKey)
}

func TestNewClientEnvFallback(t *testing.T) {
	t.Setenv(mesh.APIKeyEnvVar, "env-key")

	done := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "env-key", body["api_key"])
		done = true
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "finished"})
	}))
	defer srv.Close()

	client, err := mesh.NewClient(mesh.WithBaseURL(srv.URL))
	require.NoError(t, err)
	defer client.Close()

	_, err = client.QueryTask(context.Background(), "agent", "task")
	require.NoError(t, err)
	assert.True(t, done)
}

func TestBaseURLTrailingSlashStripped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mesh_task_query", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "running"})
	}))
	defer srv.Close()

	client, err := mesh.NewClient(
		mesh.WithAPIKey("test-key"),
		mesh.WithBaseURL(srv.URL+"/"),
	)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.QueryTask(context.Background(), "agent", "task")
	require.NoError(t, err)
}

func TestCreateTaskRequestShape(t *testing.T) {
	var captured map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/mesh_task_create", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(map[string]any{"task_id": "task-1", "msg": "ok"})
	})

	resp, err := client.CreateTask(context.Background(), "X", mesh.TaskInput{
		Tool:          "get_token_info",
		ToolArguments: map[string]any{"coingecko_id": "ethereum"},
	})
	require.NoError(t, err)
	assert.Equal(t, "task-1", resp.TaskID)
	assert.Equal(t, "ok", resp.Message)

	assert.Equal(t, "test-key", captured["api_key"])
	assert.Equal(t, "X", captured["agent_id"])
	assert.Equal(t, "AGENT", captured["agent_type"])

	details, ok := captured["task_details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, details["raw_data_only"])
	assert.Equal(t, "get_token_info", details["tool"])
	assert.Equal(t, map[string]any{"coingecko_id": "ethereum"}, details["tool_arguments"])
	assert.NotContains(t, details, "query")
}

func TestCreateTaskAgentTypeOverride(t *testing.T) {
	var captured map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(map[string]any{"task_id": "task-1", "msg": "ok"})
	})

	_, err := client.CreateTask(context.Background(), "X", mesh.TaskInput{Query: "hi"},
		mesh.WithAgentType("WORKFLOW"))
	require.NoError(t, err)
	assert.Equal(t, "WORKFLOW", captured["agent_type"])
}

func TestEmptyInputRejectedBeforeIO(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be sent for invalid input")
	})

	_, err := client.CreateTask(context.Background(), "X", mesh.TaskInput{RawDataOnly: true})
	require.ErrorIs(t, err, mesh.ErrEmptyInput)

	_, err = client.SyncRequest(context.Background(), "X", mesh.TaskInput{})
	require.ErrorIs(t, err, mesh.ErrEmptyInput)
}

func TestQueryTaskNormalizesStringSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/mesh_task_query", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "agent-1", body["agent_id"])
		assert.Equal(t, "task-9", body["task_id"])

		_, _ = w.Write([]byte(`{
			"status": "finished",
			"reasoning_steps": [
				{"timestamp": 1700000000, "content": "fetched data", "is_sent": true}
			],
			"result": {"response": {"price": 42}, "success": "true"}
		}`))
	})

	res, err := client.QueryTask(context.Background(), "agent-1", "task-9")
	require.NoError(t, err)

	assert.True(t, res.Finished())
	require.Len(t, res.ReasoningSteps, 1)
	assert.Equal(t, int64(1700000000), res.ReasoningSteps[0].Timestamp)
	assert.Equal(t, "fetched data", res.ReasoningSteps[0].Content)
	assert.True(t, res.ReasoningSteps[0].IsSent)

	require.NotNil(t, res.Result)
	assert.True(t, res.Result.Success)
	assert.Equal(t, map[string]any{"price": float64(42)}, res.Result.Response)
}

func TestSyncRequestReturnsBodyVerbatim(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/mesh_request", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		input, ok := body["input"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, true, input["raw_data_only"])
		assert.Equal(t, "hello", input["query"])

		_, _ = w.Write([]byte(`{"anything": ["goes", 1], "success": "true"}`))
	})

	resp, err := client.SyncRequest(context.Background(), "X", mesh.TaskInput{
		Query:       "hello",
		RawDataOnly: true,
	})
	require.NoError(t, err)

	// no typed wrapping, no normalization
	assert.Equal(t, map[string]any{
		"anything": []any{"goes", float64(1)},
		"success":  "true",
	}, resp)
}

func TestNon2xxSurfacesAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error": "sequencer overloaded"}`))
	})

	calls := []struct {
		name string
		do   func() error
	}{
		{"create", func() error {
			_, err := client.CreateTask(context.Background(), "X", mesh.TaskInput{Query: "q"})
			return err
		}},
		{"query", func() error {
			_, err := client.QueryTask(context.Background(), "X", "task-1")
			return err
		}},
		{"sync", func() error {
			_, err := client.SyncRequest(context.Background(), "X", mesh.TaskInput{Query: "q"})
			return err
		}},
	}

	for _, call := range calls {
		t.Run(call.name, func(t *testing.T) {
			err := call.do()
			require.Error(t, err)

			var apiErr *mesh.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
			assert.Contains(t, apiErr.Body, "sequencer overloaded")
			assert.Contains(t, apiErr.Error(), "502")
		})
	}
}

func TestTransportErrorWrapped(t *testing.T) {
	client, err := mesh.NewClient(
		mesh.WithAPIKey("test-key"),
		mesh.WithBaseURL("http://127.0.0.1:1"),
	)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.QueryTask(context.Background(), "X", "task-1")
	require.Error(t, err)

	var apiErr *mesh.APIError
	assert.False(t, errors.As(err, &apiErr), "network failures are not API errors")
}

func TestCloseIsIdempotent(t *testing.T) {
	client, err := mesh.NewClient(mesh.WithAPIKey("test-key"))
	require.NoError(t, err)

	client.Close()
	client.Close()
}
