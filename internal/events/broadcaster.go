// Package events defines the node-lifecycle event stream the telemetry
// monitor emits toward connected observers.
package events

import (
	"context"
	"time"
)

// Type identifies one node-lifecycle event kind.
type Type string

const (
	NodeStarted   Type = "node:started"
	NodeRunning   Type = "node:running"
	NodeCompleted Type = "node:completed"
	NodeData      Type = "node:data"
)

// Event is one telemetry emission, scoped by owning user and workflow.
type Event struct {
	Type        Type      `json:"type"`
	UserID      string    `json:"userId"`
	WorkflowID  string    `json:"workflowId"`
	ExecutionID string    `json:"executionId"`
	Node        string    `json:"node"`
	Status      string    `json:"status,omitempty"` // success or error, completed events only
	Error       string    `json:"error,omitempty"`
	Data        any       `json:"data,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Broadcaster fans events out to connected clients. Delivery is
// best-effort; emitters never await acknowledgment.
type Broadcaster interface {
	Publish(ctx context.Context, ev Event) error
}
