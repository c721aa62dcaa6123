package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/nodes/search", r.URL.Path)
		assert.Equal(t, "slack", r.URL.Query().Get("q"))
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"nodes": [
				{"type": "n8n-nodes-base.slack", "name": "Slack", "description": "Send messages"},
				{"type": "n8n-nodes-base.slackTrigger", "name": "Slack Trigger"}
			],
			"count": 2
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "token-1", 5*time.Second)
	nodes, err := client.Search(context.Background(), "slack", 3)
	require.NoError(t, err)

	require.Len(t, nodes, 2)
	assert.Equal(t, "n8n-nodes-base.slack", nodes[0].Type)
	assert.Equal(t, "Slack", nodes[0].Name)
}

func TestClient_SearchDefaultLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"nodes": [], "count": 0}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second)
	nodes, err := client.Search(context.Background(), "anything", 0)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestClient_SearchNodeType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"nodes": [{"type": "n8n-nodes-base.clockify", "name": "Clockify"}], "count": 1}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second)
	types, err := client.SearchNodeType(context.Background(), "clockify")
	require.NoError(t, err)
	assert.Equal(t, []string{"n8n-nodes-base.clockify"}, types)
}

func TestClient_SearchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second)
	_, err := client.Search(context.Background(), "slack", 5)
	assert.Error(t, err)
}

func TestClient_GetNodeMetadataFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/nodes/n8n-nodes-base.slack", r.URL.Path)
		w.Write([]byte(`{
			"type": "n8n-nodes-base.slack",
			"credentials": ["slackApi"],
			"properties": {"resource": "message"}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second)
	res := client.GetNodeMetadata(context.Background(), "n8n-nodes-base.slack")

	assert.Equal(t, LookupFound, res.State)
	assert.Equal(t, []string{"slackApi"}, res.CredentialTypes)
	assert.NoError(t, res.Err)
}

func TestClient_GetNodeMetadataNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second)
	res := client.GetNodeMetadata(context.Background(), "n8n-nodes-base.unknown")

	assert.Equal(t, LookupNotFound, res.State)
	assert.NoError(t, res.Err)
}

func TestClient_GetNodeMetadataErrored(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second)
	res := client.GetNodeMetadata(context.Background(), "n8n-nodes-base.slack")

	assert.Equal(t, LookupErrored, res.State)
	assert.Error(t, res.Err)
}

func TestClient_GetNodeMetadataUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "", time.Second)
	res := client.GetNodeMetadata(context.Background(), "n8n-nodes-base.slack")

	assert.Equal(t, LookupErrored, res.State)
	assert.Error(t, res.Err)
}
