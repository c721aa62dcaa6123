package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ErrExecutionNotFound is the distinguished outcome that tells the
// monitor a run no longer exists and polling should stop.
var ErrExecutionNotFound = errors.New("execution not found")

// NodeRun is the engine's per-node run record. ExecutionTime being set
// is the completion marker.
type NodeRun struct {
	StartTime       int64          `json:"startTime"` // unix ms
	ExecutionTime   *int64         `json:"executionTime,omitempty"`
	ExecutionStatus string         `json:"executionStatus,omitempty"`
	Error           map[string]any `json:"error,omitempty"`
	Data            map[string]any `json:"data,omitempty"`
}

// ErrorMessage extracts the engine's error message, if any.
func (r NodeRun) ErrorMessage() string {
	if r.Error == nil {
		return ""
	}
	if msg, ok := r.Error["message"].(string); ok {
		return msg
	}
	return "node failed"
}

// Execution is a flattened view of one engine execution.
type Execution struct {
	ID       string
	Finished bool
	Status   string
	RunData  map[string][]NodeRun
}

type executionPayload struct {
	ID       string `json:"id"`
	Finished bool   `json:"finished"`
	Status   string `json:"status"`
	Data     struct {
		ResultData struct {
			RunData map[string][]NodeRun `json:"runData"`
		} `json:"resultData"`
	} `json:"data"`
}

// StatusClient fetches execution status from the engine's HTTP API.
type StatusClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewStatusClient(baseURL, apiKey string, timeout time.Duration) *StatusClient {
	return &StatusClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetExecution returns the current status and per-node run data for an
// execution. A 404 maps to ErrExecutionNotFound.
func (c *StatusClient) GetExecution(ctx context.Context, executionID string) (*Execution, error) {
	endpoint := fmt.Sprintf("%s/api/v1/executions/%s?includeData=true",
		c.baseURL, url.PathEscape(executionID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build execution request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-N8N-API-KEY", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execution status fetch failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrExecutionNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("execution status fetch returned status %d", resp.StatusCode)
	}

	var payload executionPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode execution status: %w", err)
	}

	return &Execution{
		ID:       payload.ID,
		Finished: payload.Finished,
		Status:   payload.Status,
		RunData:  payload.Data.ResultData.RunData,
	}, nil
}
