package credentials

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aturei/flowsynth/internal/catalog"
	"github.com/aturei/flowsynth/internal/models"
)

type fakeMetadata struct {
	results map[string]catalog.MetadataResult
}

func (f *fakeMetadata) GetNodeMetadata(_ context.Context, nodeType string) catalog.MetadataResult {
	if res, ok := f.results[nodeType]; ok {
		return res
	}
	return catalog.MetadataResult{State: catalog.LookupNotFound}
}

func graphOf(nodeTypes ...string) *models.Graph {
	g := &models.Graph{ID: "g1", Name: "Test", Connections: map[string][]string{}}
	for i, t := range nodeTypes {
		g.Nodes = append(g.Nodes, models.Node{
			ID:   fmt.Sprintf("n%d", i),
			Name: fmt.Sprintf("node %d", i),
			Type: t,
		})
	}
	return g
}

func TestResolve_StaticFallbackWhenMetadataMissing(t *testing.T) {
	r := NewResolver(&fakeMetadata{})
	graph := graphOf("n8n-nodes-base.manualTrigger", "n8n-nodes-base.slack", "n8n-nodes-base.gmail")

	reqs := r.Resolve(context.Background(), graph)

	require.Len(t, reqs, 2)
	assert.Equal(t, "Slack", reqs[0].Service)
	assert.Equal(t, "slackApi", reqs[0].CredentialType)
	assert.Equal(t, "n8n-nodes-base.slack", reqs[0].NodeType)
	require.NotEmpty(t, reqs[0].Fields)
	assert.Equal(t, "accessToken", reqs[0].Fields[0].Name)

	assert.Equal(t, "Gmail", reqs[1].Service)
	assert.Equal(t, "gmailOAuth2", reqs[1].CredentialType)
}

func TestResolve_MetadataWinsOverStaticTable(t *testing.T) {
	meta := &fakeMetadata{results: map[string]catalog.MetadataResult{
		"n8n-nodes-base.slack": {
			State:           catalog.LookupFound,
			CredentialTypes: []string{"slackOAuth2Api"},
		},
	}}
	r := NewResolver(meta)

	reqs := r.Resolve(context.Background(), graphOf("n8n-nodes-base.slack"))

	require.Len(t, reqs, 1)
	assert.Equal(t, "slackOAuth2Api", reqs[0].CredentialType)
}

func TestResolve_DeduplicatesByCredentialType(t *testing.T) {
	r := NewResolver(&fakeMetadata{})
	graph := graphOf("n8n-nodes-base.slack", "n8n-nodes-base.slack", "n8n-nodes-base.slack")

	reqs := r.Resolve(context.Background(), graph)

	require.Len(t, reqs, 1)
	// First node to reference the credential type wins the attribution.
	assert.Equal(t, "n8n-nodes-base.slack", reqs[0].NodeType)
}

func TestResolve_Idempotent(t *testing.T) {
	r := NewResolver(&fakeMetadata{})
	graph := graphOf("n8n-nodes-base.slack", "n8n-nodes-base.hubspot")

	first := r.Resolve(context.Background(), graph)
	second := r.Resolve(context.Background(), graph)

	assert.Equal(t, first, second)
}

func TestResolve_LookupErrorFallsBackToStaticTable(t *testing.T) {
	meta := &fakeMetadata{results: map[string]catalog.MetadataResult{
		"n8n-nodes-base.slack": {
			State: catalog.LookupErrored,
			Err:   fmt.Errorf("catalog down"),
		},
	}}
	r := NewResolver(meta)

	reqs := r.Resolve(context.Background(), graphOf("n8n-nodes-base.slack"))

	require.Len(t, reqs, 1)
	assert.Equal(t, "slackApi", reqs[0].CredentialType)
}

func TestResolve_UnknownCredentialTypeGetsGenericSchema(t *testing.T) {
	meta := &fakeMetadata{results: map[string]catalog.MetadataResult{
		"custom-nodes.obscureCrm": {
			State:           catalog.LookupFound,
			CredentialTypes: []string{"obscureCrmApi"},
		},
	}}
	r := NewResolver(meta)

	reqs := r.Resolve(context.Background(), graphOf("custom-nodes.obscureCrm"))

	require.Len(t, reqs, 1)
	assert.Equal(t, "ObscureCrm", reqs[0].Service)
	assert.Equal(t, "obscureCrmApi", reqs[0].CredentialType)
	require.Len(t, reqs[0].Fields, 1)
	assert.Equal(t, "apiKey", reqs[0].Fields[0].Name)
}

func TestResolve_NodesWithoutCredentialsProduceNothing(t *testing.T) {
	r := NewResolver(&fakeMetadata{})
	graph := graphOf("n8n-nodes-base.manualTrigger", "n8n-nodes-base.httpRequest", "n8n-nodes-base.if")

	assert.Empty(t, r.Resolve(context.Background(), graph))
}

func TestMissing_SetDifference(t *testing.T) {
	reqs := []models.CredentialRequirement{
		{Service: "Slack", CredentialType: "slackApi"},
		{Service: "Gmail", CredentialType: "gmailOAuth2"},
	}
	stored := []models.UserCredential{{Service: "slack"}}

	missing := Missing(reqs, stored)

	require.Len(t, missing, 1)
	assert.Equal(t, "Gmail", missing[0].Service)
}

func TestMissing_NormalizesServiceNames(t *testing.T) {
	reqs := []models.CredentialRequirement{
		{Service: "Google Sheets", CredentialType: "googleSheetsOAuth2Api"},
	}
	stored := []models.UserCredential{{Service: "googlesheets"}}

	assert.Empty(t, Missing(reqs, stored))
}

func TestMissing_NothingStored(t *testing.T) {
	reqs := []models.CredentialRequirement{{Service: "Slack"}}

	missing := Missing(reqs, nil)

	assert.Len(t, missing, 1)
}

func TestNormalizeService(t *testing.T) {
	assert.Equal(t, "googlesheets", NormalizeService("Google Sheets"))
	assert.Equal(t, "slack", NormalizeService("Slack"))
	assert.Equal(t, "email(smtp)", NormalizeService("Email (SMTP)"))
}
