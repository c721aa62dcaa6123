// Package catalog is the client for the external node-catalog service:
// keyword search over available node types and per-type metadata lookup.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// LookupState makes the outcome of a metadata lookup an explicit branch
// for callers instead of an error they would have to pattern-match.
type LookupState int

const (
	LookupFound LookupState = iota
	LookupNotFound
	LookupErrored
)

// MetadataResult is the outcome of one node-metadata lookup.
type MetadataResult struct {
	State           LookupState
	CredentialTypes []string
	Properties      map[string]any
	Err             error
}

// NodeSummary is one search hit from the catalog.
type NodeSummary struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type searchPayload struct {
	Nodes []NodeSummary `json:"nodes"`
	Count int           `json:"count"`
}

type metadataPayload struct {
	Type        string         `json:"type"`
	Credentials []string       `json:"credentials"`
	Properties  map[string]any `json:"properties,omitempty"`
}

// Client talks to the node-catalog HTTP API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Search returns ranked node summaries for a free-text query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]NodeSummary, error) {
	if limit <= 0 {
		limit = 5
	}
	endpoint := fmt.Sprintf("%s/api/v1/nodes/search?q=%s&limit=%s",
		c.baseURL, url.QueryEscape(query), strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("node search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("node search returned status %d", resp.StatusCode)
	}

	var payload searchPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	return payload.Nodes, nil
}

// SearchNodeType returns the ranked node-type identifiers for a query,
// possibly empty.
func (c *Client) SearchNodeType(ctx context.Context, query string) ([]string, error) {
	nodes, err := c.Search(ctx, query, 5)
	if err != nil {
		return nil, err
	}
	types := make([]string, 0, len(nodes))
	for _, n := range nodes {
		types = append(types, n.Type)
	}
	return types, nil
}

// GetNodeMetadata looks up a node type's credential needs and property
// schema. The three outcomes are distinguished so fallback logic stays
// an explicit branch in the caller.
func (c *Client) GetNodeMetadata(ctx context.Context, nodeType string) MetadataResult {
	endpoint := fmt.Sprintf("%s/api/v1/nodes/%s", c.baseURL, url.PathEscape(nodeType))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return MetadataResult{State: LookupErrored, Err: err}
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return MetadataResult{State: LookupErrored, Err: fmt.Errorf("metadata lookup failed: %w", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return MetadataResult{State: LookupNotFound}
	case resp.StatusCode != http.StatusOK:
		return MetadataResult{
			State: LookupErrored,
			Err:   fmt.Errorf("metadata lookup returned status %d", resp.StatusCode),
		}
	}

	var payload metadataPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return MetadataResult{State: LookupErrored, Err: fmt.Errorf("failed to decode metadata response: %w", err)}
	}

	return MetadataResult{
		State:           LookupFound,
		CredentialTypes: payload.Credentials,
		Properties:      payload.Properties,
	}
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
