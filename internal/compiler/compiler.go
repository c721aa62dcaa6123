// Package compiler converts abstract plans into concrete node/edge
// graphs the execution engine can run.
package compiler

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/aturei/flowsynth/internal/metrics"
	"github.com/aturei/flowsynth/internal/models"
)

const (
	layoutStartX = 250
	layoutStepX  = 220
	layoutY      = 300
)

// Searcher is the slice of the node catalog the compiler needs.
type Searcher interface {
	SearchNodeType(ctx context.Context, query string) ([]string, error)
}

// Options carry per-build context into compilation.
type Options struct {
	Name   string // graph display name
	UserID string // caller identity, bound into managed AI request bodies
}

// Compiler resolves plan steps to node types and wires them into a
// linear chain. Stateless; one instance serves concurrent builds.
type Compiler struct {
	catalog   Searcher
	aiBaseURL string
}

func New(catalog Searcher, aiBaseURL string) *Compiler {
	return &Compiler{
		catalog:   catalog,
		aiBaseURL: strings.TrimRight(aiBaseURL, "/"),
	}
}

// Compile produces a Graph from a Plan: one trigger node, one node per
// step, connected strictly in plan order. A step whose node type cannot
// be resolved degrades to a generic HTTP-request node; it never aborts
// the rest of the graph.
func (c *Compiler) Compile(ctx context.Context, plan *models.Plan, opts Options) (*models.Graph, error) {
	if plan == nil || len(plan.Steps) == 0 {
		return nil, fmt.Errorf("cannot compile an empty plan")
	}

	graphID := uuid.NewString()
	trigger, steps := c.normalizeTrigger(plan.Trigger, plan.Steps)

	name := opts.Name
	if name == "" {
		name = "Generated Workflow"
	}

	graph := &models.Graph{
		ID:          graphID,
		Name:        name,
		Connections: make(map[string][]string),
	}

	names := newNameSet()

	triggerNode := c.buildTriggerNode(trigger)
	triggerNode.Name = names.claim(triggerNode.Name)
	graph.Nodes = append(graph.Nodes, triggerNode)

	prev := triggerNode.Name
	for i, step := range steps {
		node := c.buildStepNode(ctx, step, i, graphID, opts.UserID)
		node.Name = names.claim(node.Name)
		graph.Nodes = append(graph.Nodes, node)

		graph.Connections[prev] = append(graph.Connections[prev], node.Name)
		prev = node.Name
	}

	return graph, nil
}

// normalizeTrigger maps unknown fetch-style trigger phrases ("pull
// records from hubspot") to a manual trigger and turns the fetch into
// the first ordinary step.
func (c *Compiler) normalizeTrigger(trigger models.PlanTrigger, steps []models.PlanStep) (models.PlanTrigger, []models.PlanStep) {
	kind := strings.ToLower(strings.TrimSpace(trigger.Kind))
	if _, known := triggerTypes[kind]; known {
		trigger.Kind = kind
		return trigger, steps
	}

	if isFetchStyle(kind) {
		fetch := models.PlanStep{
			Service: configString(trigger.Config, "service"),
			Action:  trigger.Kind,
			Config:  trigger.Config,
		}
		log.Printf("Demoting fetch-style trigger %q to manual; fetch becomes step 1", trigger.Kind)
		return models.PlanTrigger{Kind: "manual"}, append([]models.PlanStep{fetch}, steps...)
	}

	return models.PlanTrigger{Kind: "manual", Config: trigger.Config}, steps
}

func (c *Compiler) buildTriggerNode(trigger models.PlanTrigger) models.Node {
	nodeType := triggerTypes[trigger.Kind]

	var name string
	params := map[string]any{}
	switch nodeType {
	case nodeTypeScheduleTrigger:
		name = "Schedule Trigger"
		cron := configString(trigger.Config, "cron")
		if cron == "" {
			cron = "0 9 * * *"
		}
		params["cronExpression"] = cron
	case nodeTypeWebhook:
		name = "Webhook"
		params["httpMethod"] = "POST"
		params["path"] = uuid.NewString()
		params["responseMode"] = "onReceived"
	default:
		name = "Manual Trigger"
	}

	return models.Node{
		ID:          uuid.NewString(),
		Name:        name,
		Type:        nodeType,
		Position:    [2]int{layoutStartX, layoutY},
		Parameters:  params,
		Credentials: map[string]string{},
	}
}

func (c *Compiler) buildStepNode(ctx context.Context, step models.PlanStep, index int, graphID, userID string) models.Node {
	nodeType, params := c.resolveStep(ctx, step, graphID, userID)

	name := step.Action
	if name == "" {
		name = fmt.Sprintf("%s %d", step.Service, index+1)
	}

	return models.Node{
		ID:          uuid.NewString(),
		Name:        name,
		Type:        nodeType,
		Position:    [2]int{layoutStartX + layoutStepX*(index+1), layoutY},
		Parameters:  params,
		Credentials: map[string]string{},
	}
}

// resolveStep picks a node type in priority order: AI keyword table,
// control-flow table, static service table, catalog search, generic
// HTTP-request fallback.
func (c *Compiler) resolveStep(ctx context.Context, step models.PlanStep, graphID, userID string) (string, map[string]any) {
	text := strings.ToLower(step.Action + " " + step.Service + " " + step.Prompt)

	if kind, ok := aiKindFor(text); ok {
		return nodeTypeHTTPRequest, c.aiRequestParams(kind, step, graphID, userID)
	}

	for _, entry := range controlFlowTable {
		for _, phrase := range entry.phrases {
			if strings.Contains(text, phrase) {
				return entry.nodeType, mergeParams(entry.defaults, step.Config)
			}
		}
	}

	service := strings.ToLower(strings.TrimSpace(step.Service))
	if entry, ok := serviceTable[service]; ok {
		return entry.nodeType, mergeParams(entry.defaults, step.Config)
	}

	if service != "" && c.catalog != nil {
		types, err := c.catalog.SearchNodeType(ctx, service)
		if err != nil {
			log.Printf("Catalog search for %q failed: %v", service, err)
		} else if len(types) > 0 {
			return types[0], mergeParams(nil, step.Config)
		}
	}

	metrics.NodeTypeFallbacks.Inc()
	log.Printf("No node type resolved for step (service=%q action=%q), using HTTP request fallback", step.Service, step.Action)
	return nodeTypeHTTPRequest, mergeParams(map[string]any{"method": "GET"}, step.Config)
}

// aiRequestParams compiles an AI content step into an HTTP request
// against the managed first-party endpoint, so end users never need
// AI-provider credentials of their own.
func (c *Compiler) aiRequestParams(kind aiKind, step models.PlanStep, graphID, userID string) map[string]any {
	prompt := step.Prompt
	if prompt == "" {
		prompt = step.Action
	}

	return map[string]any{
		"method":   "POST",
		"url":      c.aiBaseURL + aiEndpointPaths[kind],
		"sendBody": true,
		"bodyParameters": map[string]any{
			"userId":     userID,
			"workflowId": graphID,
			"prompt":     prompt,
			"kind":       string(kind),
		},
		"options": map[string]any{
			"timeout": aiTimeoutsMs[kind],
		},
	}
}

// mergeParams shallow-merges caller config over defaults; caller values
// win on key collision. Inputs are never mutated.
func mergeParams(defaults, overrides map[string]any) map[string]any {
	out := make(map[string]any, len(defaults)+len(overrides))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

func configString(config map[string]any, key string) string {
	if config == nil {
		return ""
	}
	if v, ok := config[key].(string); ok {
		return v
	}
	return ""
}

// nameSet hands out unique display names. The connection map is keyed
// by name, so two steps with the same action phrase would otherwise
// collide; the second gets a numeric suffix.
type nameSet struct {
	used map[string]int
}

func newNameSet() *nameSet {
	return &nameSet{used: make(map[string]int)}
}

func (n *nameSet) claim(base string) string {
	if base == "" {
		base = "Step"
	}
	count := n.used[base]
	n.used[base] = count + 1
	if count == 0 {
		return base
	}
	return fmt.Sprintf("%s %d", base, count+1)
}
