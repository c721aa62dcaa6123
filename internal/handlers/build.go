// Package handlers orchestrates the synthesis pipeline: conversation
// text to slots, slots to plan, plan to graph, graph to credential
// requirements.
package handlers

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aturei/flowsynth/internal/compiler"
	"github.com/aturei/flowsynth/internal/credentials"
	"github.com/aturei/flowsynth/internal/memory"
	"github.com/aturei/flowsynth/internal/metrics"
	"github.com/aturei/flowsynth/internal/models"
	"github.com/aturei/flowsynth/internal/planner"
	"github.com/aturei/flowsynth/internal/slots"
)

// CredentialSource is the read-only view of stored user credentials.
type CredentialSource interface {
	FindByUser(ctx context.Context, userID string) ([]models.UserCredential, error)
}

// BuildHandler runs one build attempt per request. Stateless apart from
// the session store; concurrent builds do not share mutable state.
type BuildHandler struct {
	planner   planner.Planner
	compiler  *compiler.Compiler
	resolver  *credentials.Resolver
	credStore CredentialSource
	sessions  *memory.Manager
}

func NewBuildHandler(p planner.Planner, c *compiler.Compiler, r *credentials.Resolver, creds CredentialSource, sessions *memory.Manager) *BuildHandler {
	return &BuildHandler{
		planner:   p,
		compiler:  c,
		resolver:  r,
		credStore: creds,
		sessions:  sessions,
	}
}

// ProcessBuild handles one inbound message: either replies with the
// single allowed clarifying question or synthesizes a workflow. A
// failed attempt leaves the session usable for the next message.
func (h *BuildHandler) ProcessBuild(ctx context.Context, request *models.BuildRequest) (*models.BuildResponse, error) {
	if err := h.validateRequest(request); err != nil {
		return h.errorResponse(request, models.ErrorParseError, err.Error()), nil
	}

	if len(request.ConversationHistory) > 0 {
		if err := h.sessions.LoadHistoryFromRequest(ctx, request.SessionID, request.ConversationHistory); err != nil {
			log.Printf("Failed to load history for session %s: %v", request.SessionID, err)
		}
	}

	history, err := h.sessions.GetFormattedHistory(ctx, request.SessionID)
	if err != nil {
		log.Printf("Failed to read history for session %s: %v", request.SessionID, err)
	}

	questionAsked, err := h.sessions.QuestionAsked(ctx, request.SessionID)
	if err != nil {
		log.Printf("Failed to read question flag for session %s: %v", request.SessionID, err)
	}

	if err := h.sessions.SaveUserMessage(ctx, request.SessionID, request.UserID, request.UserMessage); err != nil {
		log.Printf("Failed to save user message for session %s: %v", request.SessionID, err)
	}

	// Slots are rebuilt from scratch on every message.
	extracted := slots.Extract(history, request.UserMessage, questionAsked)
	analysis := slots.Analyze(extracted)

	if analysis.Decision == slots.DecisionAsk {
		return h.ask(ctx, request, analysis)
	}

	return h.build(ctx, request, history, analysis)
}

func (h *BuildHandler) ask(ctx context.Context, request *models.BuildRequest, analysis slots.Analysis) (*models.BuildResponse, error) {
	if err := h.sessions.MarkQuestionAsked(ctx, request.SessionID, true); err != nil {
		log.Printf("Failed to mark question for session %s: %v", request.SessionID, err)
	}
	if err := h.sessions.SaveAssistantMessage(ctx, request.SessionID, request.UserID, analysis.Question); err != nil {
		log.Printf("Failed to save question for session %s: %v", request.SessionID, err)
	}

	metrics.BuildsTotal.WithLabelValues("ask").Inc()
	log.Printf("Asking clarifying question for session %s (gaps: %s)",
		request.SessionID, strings.Join(analysis.Gaps, ", "))

	return &models.BuildResponse{
		SessionID:   request.SessionID,
		Status:      models.StatusNeedsInfo,
		UserMessage: analysis.Question,
	}, nil
}

func (h *BuildHandler) build(ctx context.Context, request *models.BuildRequest, history string, analysis slots.Analysis) (*models.BuildResponse, error) {
	// The question budget resets once we commit to building.
	if err := h.sessions.MarkQuestionAsked(ctx, request.SessionID, false); err != nil {
		log.Printf("Failed to clear question flag for session %s: %v", request.SessionID, err)
	}

	description := strings.TrimSpace(history + "\nUser: " + request.UserMessage)

	plan, err := h.planner.GeneratePlan(ctx, description, hintsFrom(analysis.Slots))
	if err != nil {
		metrics.BuildsTotal.WithLabelValues("planner_failed").Inc()
		return h.errorResponse(request, models.ErrorPlannerFailed, err.Error()), nil
	}

	graph, err := h.compiler.Compile(ctx, plan, compiler.Options{
		Name:   workflowName(analysis.Slots),
		UserID: request.UserID,
	})
	if err != nil {
		metrics.BuildsTotal.WithLabelValues("compile_failed").Inc()
		return h.errorResponse(request, models.ErrorCompileFailed, err.Error()), nil
	}

	requirements := h.resolver.Resolve(ctx, graph)

	stored, err := h.credStore.FindByUser(ctx, request.UserID)
	if err != nil {
		metrics.BuildsTotal.WithLabelValues("credentials_failed").Inc()
		return h.errorResponse(request, models.ErrorCredentialsFailed, err.Error()), nil
	}
	missing := credentials.Missing(requirements, stored)

	notes := analysis.DefaultsApplied
	message := h.summaryMessage(graph, missing, analysis.Warning)
	if err := h.sessions.SaveAssistantMessage(ctx, request.SessionID, request.UserID, message); err != nil {
		log.Printf("Failed to save summary for session %s: %v", request.SessionID, err)
	}

	metrics.BuildsTotal.WithLabelValues("ready").Inc()
	log.Printf("Built workflow %s for session %s: %d nodes, %d credential requirements (%d missing)",
		graph.ID, request.SessionID, len(graph.Nodes), len(requirements), len(missing))

	return &models.BuildResponse{
		SessionID:              request.SessionID,
		Status:                 models.StatusReady,
		Workflow:               graph,
		CredentialRequirements: requirements,
		MissingCredentials:     missing,
		Notes:                  notes,
		UserMessage:            message,
	}, nil
}

func (h *BuildHandler) summaryMessage(graph *models.Graph, missing []models.CredentialRequirement, warning string) string {
	names := make([]string, 0, len(graph.Nodes))
	for _, n := range graph.Nodes {
		names = append(names, n.Name)
	}

	msg := fmt.Sprintf("I've created your workflow with %d nodes: %s.", len(graph.Nodes), strings.Join(names, ", "))

	if len(missing) > 0 {
		services := make([]string, 0, len(missing))
		for _, req := range missing {
			services = append(services, req.Service)
		}
		msg += fmt.Sprintf(" You'll need to set up credentials for: %s.", strings.Join(services, ", "))
	}

	if warning != "" {
		msg += " Note: " + warning + "."
	}

	return msg
}

func hintsFrom(s models.IntentSlots) planner.Hints {
	hints := planner.Hints{
		Trigger:   s.Trigger,
		Services:  s.Services,
		Channel:   s.Channel,
		Recipient: s.Recipient,
	}
	if s.Schedule != nil {
		hints.Schedule = s.Schedule.CronExpression()
	}
	return hints
}

func workflowName(s models.IntentSlots) string {
	if len(s.Actions) > 0 {
		return titleCase(s.Actions[0]) + " Workflow"
	}
	if len(s.Services) > 0 {
		return titleCase(s.Services[0]) + " Workflow"
	}
	return "Generated Workflow"
}

// titleCase capitalizes each word. Inputs are canonical slot phrases,
// ASCII by construction.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func (h *BuildHandler) validateRequest(request *models.BuildRequest) error {
	if request.SessionID == "" {
		return fmt.Errorf("session_id is required")
	}
	if request.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if request.UserMessage == "" {
		return fmt.Errorf("user_message is required")
	}
	return nil
}

func (h *BuildHandler) errorResponse(request *models.BuildRequest, errorCode, errorMessage string) *models.BuildResponse {
	return &models.BuildResponse{
		SessionID:    request.SessionID,
		Status:       models.StatusError,
		UserMessage:  "I ran into a problem building that workflow. Could you tell me a bit more about what you want to automate?",
		ErrorCode:    &errorCode,
		ErrorMessage: &errorMessage,
	}
}
