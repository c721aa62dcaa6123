package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// NATSBroadcaster publishes events on per-user, per-workflow subjects
// so clients can subscribe to exactly the runs they watch.
type NATSBroadcaster struct {
	conn   *nats.Conn
	prefix string
}

func NewNATSBroadcaster(conn *nats.Conn, prefix string) *NATSBroadcaster {
	if prefix == "" {
		prefix = "workflow.event"
	}
	return &NATSBroadcaster{conn: conn, prefix: prefix}
}

// Publish sends one event to <prefix>.<userID>.<workflowID>. Fire and
// forget: no reply is awaited.
func (b *NATSBroadcaster) Publish(_ context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := fmt.Sprintf("%s.%s.%s", b.prefix, ev.UserID, ev.WorkflowID)
	if err := b.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish event to %s: %w", subject, err)
	}

	return nil
}
