// Package transport exposes the service over NATS request/reply
// subjects: workflow builds, monitor control and node search.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/aturei/flowsynth/internal/catalog"
	"github.com/aturei/flowsynth/internal/config"
	"github.com/aturei/flowsynth/internal/handlers"
	"github.com/aturei/flowsynth/internal/models"
	"github.com/aturei/flowsynth/internal/monitor"
)

type NATSTransport struct {
	conn    *nats.Conn
	config  *config.Config
	build   *handlers.BuildHandler
	monitor *monitor.Monitor
	catalog *catalog.Client
}

func NewNATSTransport(cfg *config.Config, build *handlers.BuildHandler, mon *monitor.Monitor, cat *catalog.Client) (*NATSTransport, error) {
	conn, err := nats.Connect(cfg.NatsURL,
		nats.Name(cfg.ServiceName),
		nats.Timeout(cfg.NatsTimeout),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1), // Infinite reconnects
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Printf("Connected to NATS server: %s", cfg.NatsURL)

	return &NATSTransport{
		conn:    conn,
		config:  cfg,
		build:   build,
		monitor: mon,
		catalog: cat,
	}, nil
}

// Conn exposes the underlying connection so the event broadcaster can
// share it.
func (nt *NATSTransport) Conn() *nats.Conn {
	return nt.conn
}

// SetMonitor wires in the telemetry monitor. The monitor needs the NATS
// connection for broadcasting, so it is constructed after the
// transport; call this before Start.
func (nt *NATSTransport) SetMonitor(mon *monitor.Monitor) {
	nt.monitor = mon
}

func (nt *NATSTransport) Start() error {
	subscriptions := map[string]nats.MsgHandler{
		nt.config.NatsBuildSubject:        nt.handleBuildRequest,
		nt.config.NatsMonitorStartSubject: nt.handleMonitorStart,
		nt.config.NatsMonitorStopSubject:  nt.handleMonitorStop,
		nt.config.NatsNodeSearchSubject:   nt.handleNodeSearch,
	}

	for subject, handler := range subscriptions {
		if _, err := nt.conn.Subscribe(subject, handler); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
		log.Printf("Subscribed to subject: %s", subject)
	}

	return nil
}

func (nt *NATSTransport) handleBuildRequest(msg *nats.Msg) {
	var request models.BuildRequest
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		log.Printf("Error parsing build request: %v", err)
		nt.sendErrorResponse(msg, &request, models.ErrorParseError, "Invalid request format")
		return
	}

	log.Printf("Processing build request for session: %s", request.SessionID)

	ctx, cancel := context.WithTimeout(context.Background(), nt.config.BuildTimeout)
	defer cancel()

	response, err := nt.build.ProcessBuild(ctx, &request)
	if err != nil {
		log.Printf("Error processing build: %v", err)
		nt.sendErrorResponse(msg, &request, models.ErrorPlannerFailed, err.Error())
		return
	}

	if err := nt.respond(msg, response); err != nil {
		log.Printf("Error sending build response: %v", err)
	}
}

func (nt *NATSTransport) handleMonitorStart(msg *nats.Msg) {
	var request models.MonitorStartRequest
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		log.Printf("Error parsing monitor start request: %v", err)
		return
	}
	if request.ExecutionID == "" {
		log.Printf("Monitor start request missing execution_id")
		return
	}

	nt.monitor.Start(request.ExecutionID, request.WorkflowID, request.UserID)

	if msg.Reply != "" {
		if err := nt.respond(msg, map[string]bool{"monitoring": true}); err != nil {
			log.Printf("Error acknowledging monitor start: %v", err)
		}
	}
}

func (nt *NATSTransport) handleMonitorStop(msg *nats.Msg) {
	var request models.MonitorStopRequest
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		log.Printf("Error parsing monitor stop request: %v", err)
		return
	}

	nt.monitor.Stop(request.ExecutionID)

	if msg.Reply != "" {
		if err := nt.respond(msg, map[string]bool{"monitoring": false}); err != nil {
			log.Printf("Error acknowledging monitor stop: %v", err)
		}
	}
}

func (nt *NATSTransport) handleNodeSearch(msg *nats.Msg) {
	var request models.NodeSearchRequest
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		log.Printf("Error parsing node search request: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), nt.config.CatalogTimeout)
	defer cancel()

	nodes, err := nt.catalog.Search(ctx, request.Query, request.Limit)
	if err != nil {
		log.Printf("Node search failed: %v", err)
		nodes = nil
	}

	response := map[string]any{
		"nodes": nodes,
		"count": len(nodes),
	}
	if err := nt.respond(msg, response); err != nil {
		log.Printf("Error sending node search response: %v", err)
	}
}

func (nt *NATSTransport) respond(msg *nats.Msg, response any) error {
	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	if err := msg.Respond(data); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	return nil
}

func (nt *NATSTransport) sendErrorResponse(msg *nats.Msg, request *models.BuildRequest, errorCode, errorMessage string) {
	response := &models.BuildResponse{
		SessionID:    request.SessionID,
		Status:       models.StatusError,
		UserMessage:  "I'm sorry, I encountered an error processing your request. Please try again.",
		ErrorCode:    &errorCode,
		ErrorMessage: &errorMessage,
	}

	if err := nt.respond(msg, response); err != nil {
		log.Printf("Failed to send error response: %v", err)
	}
}

func (nt *NATSTransport) Close() error {
	if nt.conn != nil {
		nt.conn.Close()
		log.Println("NATS connection closed")
	}
	return nil
}
