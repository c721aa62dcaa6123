package monitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusClient_GetExecution(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/executions/ex-1", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("includeData"))
		assert.Equal(t, "secret", r.Header.Get("X-N8N-API-KEY"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "ex-1",
			"finished": false,
			"status": "running",
			"data": {
				"resultData": {
					"runData": {
						"Slack": [{"startTime": 1700000000000, "executionTime": 120, "executionStatus": "success"}]
					}
				}
			}
		}`))
	}))
	defer server.Close()

	client := NewStatusClient(server.URL, "secret", 5*time.Second)
	exec, err := client.GetExecution(context.Background(), "ex-1")
	require.NoError(t, err)

	assert.Equal(t, "ex-1", exec.ID)
	assert.False(t, exec.Finished)
	assert.Equal(t, "running", exec.Status)

	runs := exec.RunData["Slack"]
	require.Len(t, runs, 1)
	assert.Equal(t, int64(1700000000000), runs[0].StartTime)
	require.NotNil(t, runs[0].ExecutionTime)
	assert.Equal(t, int64(120), *runs[0].ExecutionTime)
}

func TestStatusClient_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewStatusClient(server.URL, "", 5*time.Second)
	_, err := client.GetExecution(context.Background(), "gone")
	assert.ErrorIs(t, err, ErrExecutionNotFound)
}

func TestStatusClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewStatusClient(server.URL, "", 5*time.Second)
	_, err := client.GetExecution(context.Background(), "ex-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrExecutionNotFound)
}

func TestNodeRun_ErrorMessage(t *testing.T) {
	assert.Equal(t, "", NodeRun{}.ErrorMessage())
	assert.Equal(t, "boom", NodeRun{Error: map[string]any{"message": "boom"}}.ErrorMessage())
	assert.Equal(t, "node failed", NodeRun{Error: map[string]any{"code": 500}}.ErrorMessage())
}
