package compiler

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aturei/flowsynth/internal/models"
)

type fakeSearcher struct {
	types   map[string][]string
	err     error
	queries []string
}

func (f *fakeSearcher) SearchNodeType(_ context.Context, query string) ([]string, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.types[query], nil
}

func newTestCompiler() *Compiler {
	return New(&fakeSearcher{}, "https://ai.example.com")
}

func TestCompile_SlackExample(t *testing.T) {
	plan := &models.Plan{
		Trigger: models.PlanTrigger{
			Kind:   "schedule",
			Config: map[string]any{"cron": "0 9 * * *"},
		},
		Steps: []models.PlanStep{
			{Service: "slack", Action: "post slack", Config: map[string]any{"channel": "#alerts"}},
		},
	}

	graph, err := newTestCompiler().Compile(context.Background(), plan, Options{Name: "Daily Slack Update"})
	require.NoError(t, err)

	require.Len(t, graph.Nodes, 2)
	assert.Equal(t, "Daily Slack Update", graph.Name)
	assert.NotEmpty(t, graph.ID)

	trigger := graph.Nodes[0]
	assert.Equal(t, "Schedule Trigger", trigger.Name)
	assert.Equal(t, "n8n-nodes-base.scheduleTrigger", trigger.Type)
	assert.Equal(t, "0 9 * * *", trigger.Parameters["cronExpression"])

	slack := graph.Nodes[1]
	assert.Equal(t, "post slack", slack.Name)
	assert.Equal(t, "n8n-nodes-base.slack", slack.Type)
	// Caller config wins over the table default.
	assert.Equal(t, "#alerts", slack.Parameters["channel"])
	assert.Equal(t, "message", slack.Parameters["resource"])
	assert.Empty(t, slack.Credentials)

	assert.Equal(t, map[string][]string{"Schedule Trigger": {"post slack"}}, graph.Connections)
}

func TestCompile_LinearChainAndLayout(t *testing.T) {
	plan := &models.Plan{
		Trigger: models.PlanTrigger{Kind: "manual"},
		Steps: []models.PlanStep{
			{Service: "hubspot", Action: "fetch records"},
			{Service: "slack", Action: "post slack"},
			{Service: "gmail", Action: "send email"},
		},
	}

	graph, err := newTestCompiler().Compile(context.Background(), plan, Options{})
	require.NoError(t, err)
	require.Len(t, graph.Nodes, 4)
	assert.Equal(t, "Generated Workflow", graph.Name)

	assert.Equal(t, map[string][]string{
		"Manual Trigger": {"fetch records"},
		"fetch records":  {"post slack"},
		"post slack":     {"send email"},
	}, graph.Connections)

	for i, node := range graph.Nodes {
		assert.Equal(t, [2]int{250 + 220*i, 300}, node.Position)
	}
}

func TestCompile_WebhookTrigger(t *testing.T) {
	plan := &models.Plan{
		Trigger: models.PlanTrigger{Kind: "webhook"},
		Steps:   []models.PlanStep{{Service: "slack", Action: "post slack"}},
	}

	graph, err := newTestCompiler().Compile(context.Background(), plan, Options{})
	require.NoError(t, err)

	trigger := graph.Nodes[0]
	assert.Equal(t, "n8n-nodes-base.webhook", trigger.Type)
	assert.Equal(t, "POST", trigger.Parameters["httpMethod"])
	assert.NotEmpty(t, trigger.Parameters["path"])
}

func TestCompile_FetchStyleTriggerDemoted(t *testing.T) {
	plan := &models.Plan{
		Trigger: models.PlanTrigger{
			Kind:   "pull records from hubspot",
			Config: map[string]any{"service": "hubspot"},
		},
		Steps: []models.PlanStep{{Service: "slack", Action: "post slack"}},
	}

	graph, err := newTestCompiler().Compile(context.Background(), plan, Options{})
	require.NoError(t, err)
	require.Len(t, graph.Nodes, 3)

	assert.Equal(t, "n8n-nodes-base.manualTrigger", graph.Nodes[0].Type)
	assert.Equal(t, "n8n-nodes-base.hubspot", graph.Nodes[1].Type)
	assert.Equal(t, "pull records from hubspot", graph.Nodes[1].Name)
	assert.Equal(t, []string{"pull records from hubspot"}, graph.Connections["Manual Trigger"])
	assert.Equal(t, []string{"post slack"}, graph.Connections["pull records from hubspot"])
}

func TestCompile_UnknownTriggerFallsBackToManual(t *testing.T) {
	plan := &models.Plan{
		Trigger: models.PlanTrigger{Kind: "cosmic alignment"},
		Steps:   []models.PlanStep{{Service: "slack", Action: "post slack"}},
	}

	graph, err := newTestCompiler().Compile(context.Background(), plan, Options{})
	require.NoError(t, err)
	require.Len(t, graph.Nodes, 2)
	assert.Equal(t, "n8n-nodes-base.manualTrigger", graph.Nodes[0].Type)
}

func TestCompile_AIContentSteps(t *testing.T) {
	plan := &models.Plan{
		Trigger: models.PlanTrigger{Kind: "manual"},
		Steps: []models.PlanStep{
			{Action: "write a summary", Prompt: "Summarize today's leads"},
			{Action: "generate an image", Prompt: "A sunrise over mountains"},
		},
	}

	graph, err := newTestCompiler().Compile(context.Background(), plan, Options{UserID: "user-42"})
	require.NoError(t, err)
	require.Len(t, graph.Nodes, 3)

	text := graph.Nodes[1]
	assert.Equal(t, "n8n-nodes-base.httpRequest", text.Type)
	assert.Equal(t, "POST", text.Parameters["method"])
	assert.Equal(t, "https://ai.example.com/v1/ai/text", text.Parameters["url"])

	body, ok := text.Parameters["bodyParameters"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "user-42", body["userId"])
	assert.Equal(t, graph.ID, body["workflowId"])
	assert.Equal(t, "Summarize today's leads", body["prompt"])

	image := graph.Nodes[2]
	assert.Equal(t, "https://ai.example.com/v1/ai/image", image.Parameters["url"])

	textOpts := text.Parameters["options"].(map[string]any)
	imageOpts := image.Parameters["options"].(map[string]any)
	assert.Equal(t, 60000, textOpts["timeout"])
	assert.Equal(t, 300000, imageOpts["timeout"])
	assert.Greater(t, imageOpts["timeout"].(int), textOpts["timeout"].(int))
}

func TestCompile_TranscriptionStep(t *testing.T) {
	plan := &models.Plan{
		Trigger: models.PlanTrigger{Kind: "manual"},
		Steps:   []models.PlanStep{{Action: "transcribe the call recording"}},
	}

	graph, err := newTestCompiler().Compile(context.Background(), plan, Options{})
	require.NoError(t, err)

	node := graph.Nodes[1]
	assert.Equal(t, "https://ai.example.com/v1/ai/transcription", node.Parameters["url"])
	opts := node.Parameters["options"].(map[string]any)
	assert.Equal(t, 120000, opts["timeout"])
}

func TestCompile_ControlFlowSteps(t *testing.T) {
	plan := &models.Plan{
		Trigger: models.PlanTrigger{Kind: "manual"},
		Steps: []models.PlanStep{
			{Action: "for each record"},
			{Action: "only if amount is high"},
			{Action: "route by category", Service: ""},
		},
	}

	graph, err := newTestCompiler().Compile(context.Background(), plan, Options{})
	require.NoError(t, err)
	require.Len(t, graph.Nodes, 4)

	assert.Equal(t, "n8n-nodes-base.splitInBatches", graph.Nodes[1].Type)
	assert.Equal(t, 10, graph.Nodes[1].Parameters["batchSize"])
	assert.Equal(t, "n8n-nodes-base.if", graph.Nodes[2].Type)
	assert.Equal(t, "n8n-nodes-base.switch", graph.Nodes[3].Type)
}

func TestCompile_CatalogResolvesUnknownService(t *testing.T) {
	searcher := &fakeSearcher{types: map[string][]string{
		"clockify": {"n8n-nodes-base.clockify"},
	}}
	c := New(searcher, "https://ai.example.com")

	plan := &models.Plan{
		Trigger: models.PlanTrigger{Kind: "manual"},
		Steps:   []models.PlanStep{{Service: "clockify", Action: "log the time entry"}},
	}

	graph, err := c.Compile(context.Background(), plan, Options{})
	require.NoError(t, err)
	assert.Equal(t, "n8n-nodes-base.clockify", graph.Nodes[1].Type)
	assert.Equal(t, []string{"clockify"}, searcher.queries)
}

func TestCompile_CatalogFailureFallsBackToHTTP(t *testing.T) {
	searcher := &fakeSearcher{err: fmt.Errorf("catalog unreachable")}
	c := New(searcher, "https://ai.example.com")

	plan := &models.Plan{
		Trigger: models.PlanTrigger{Kind: "manual"},
		Steps:   []models.PlanStep{{Service: "obscurecrm", Action: "upload the record"}},
	}

	graph, err := c.Compile(context.Background(), plan, Options{})
	require.NoError(t, err)
	assert.Equal(t, "n8n-nodes-base.httpRequest", graph.Nodes[1].Type)
	assert.Equal(t, "GET", graph.Nodes[1].Parameters["method"])
}

func TestCompile_NoCatalogMatchFallsBackToHTTP(t *testing.T) {
	plan := &models.Plan{
		Trigger: models.PlanTrigger{Kind: "manual"},
		Steps:   []models.PlanStep{{Service: "obscurecrm", Action: "upload the record"}},
	}

	graph, err := newTestCompiler().Compile(context.Background(), plan, Options{})
	require.NoError(t, err)
	assert.Equal(t, "n8n-nodes-base.httpRequest", graph.Nodes[1].Type)
}

func TestCompile_DuplicateStepNamesGetSuffix(t *testing.T) {
	plan := &models.Plan{
		Trigger: models.PlanTrigger{Kind: "manual"},
		Steps: []models.PlanStep{
			{Service: "slack", Action: "post slack"},
			{Service: "slack", Action: "post slack"},
		},
	}

	graph, err := newTestCompiler().Compile(context.Background(), plan, Options{})
	require.NoError(t, err)
	require.Len(t, graph.Nodes, 3)

	assert.Equal(t, "post slack", graph.Nodes[1].Name)
	assert.Equal(t, "post slack 2", graph.Nodes[2].Name)
	assert.Equal(t, []string{"post slack 2"}, graph.Connections["post slack"])
}

func TestCompile_UnnamedStepFallsBackToServiceIndex(t *testing.T) {
	plan := &models.Plan{
		Trigger: models.PlanTrigger{Kind: "manual"},
		Steps:   []models.PlanStep{{Service: "slack"}},
	}

	graph, err := newTestCompiler().Compile(context.Background(), plan, Options{})
	require.NoError(t, err)
	assert.Equal(t, "slack 1", graph.Nodes[1].Name)
}

func TestCompile_EmptyPlanRejected(t *testing.T) {
	_, err := newTestCompiler().Compile(context.Background(), &models.Plan{}, Options{})
	assert.Error(t, err)

	_, err = newTestCompiler().Compile(context.Background(), nil, Options{})
	assert.Error(t, err)
}

func TestMergeParams_CallerWinsWithoutMutation(t *testing.T) {
	defaults := map[string]any{"channel": "#general", "resource": "message"}
	overrides := map[string]any{"channel": "#alerts"}

	merged := mergeParams(defaults, overrides)

	assert.Equal(t, "#alerts", merged["channel"])
	assert.Equal(t, "message", merged["resource"])
	assert.Equal(t, "#general", defaults["channel"])
}
