// Package credentials computes which external-service credentials a
// compiled graph requires and which of them a user is still missing.
package credentials

import (
	"context"
	"log"
	"strings"

	"github.com/aturei/flowsynth/internal/catalog"
	"github.com/aturei/flowsynth/internal/models"
)

// MetadataService is the slice of the node catalog the resolver needs.
type MetadataService interface {
	GetNodeMetadata(ctx context.Context, nodeType string) catalog.MetadataResult
}

// Resolver walks compiled graphs and produces deduplicated credential
// requirement lists. Stateless; safe for concurrent use.
type Resolver struct {
	metadata MetadataService
}

func NewResolver(metadata MetadataService) *Resolver {
	return &Resolver{metadata: metadata}
}

// Resolve returns the ordered, deduplicated requirements for a graph.
// Each distinct credential type yields one entry; the first node that
// referenced it wins the NodeType attribution. A per-node lookup
// failure falls back to the static tables and never aborts the walk.
func (r *Resolver) Resolve(ctx context.Context, graph *models.Graph) []models.CredentialRequirement {
	var out []models.CredentialRequirement
	seen := make(map[string]bool)

	for _, node := range graph.Nodes {
		for _, credType := range r.credentialTypesFor(ctx, node.Type) {
			if seen[credType] {
				continue
			}
			seen[credType] = true
			out = append(out, requirementFor(credType, node.Type))
		}
	}

	return out
}

func (r *Resolver) credentialTypesFor(ctx context.Context, nodeType string) []string {
	if r.metadata != nil {
		res := r.metadata.GetNodeMetadata(ctx, nodeType)
		switch res.State {
		case catalog.LookupFound:
			if len(res.CredentialTypes) > 0 {
				return res.CredentialTypes
			}
		case catalog.LookupErrored:
			log.Printf("Credential metadata lookup failed for %s: %v", nodeType, res.Err)
		}
	}

	if credType, ok := fallbackCredentialTypes[nodeType]; ok {
		return []string{credType}
	}
	return nil
}

// requirementFor builds the requirement entry for one credential type.
// Types unknown to the field-definition table still produce an entry
// with a generic API-key schema and a service name derived from the
// node type's last dot-separated segment.
func requirementFor(credType, nodeType string) models.CredentialRequirement {
	if schema, ok := fieldDefinitions[credType]; ok {
		return models.CredentialRequirement{
			Service:        schema.service,
			CredentialType: credType,
			Required:       true,
			Fields:         schema.fields,
			NodeType:       nodeType,
		}
	}

	return models.CredentialRequirement{
		Service:        serviceNameFromNodeType(nodeType),
		CredentialType: credType,
		Required:       true,
		Fields: []models.CredentialField{
			{Name: "apiKey", Type: "string", Required: true, Description: "API key"},
		},
		NodeType: nodeType,
	}
}

func serviceNameFromNodeType(nodeType string) string {
	segment := nodeType
	if i := strings.LastIndex(nodeType, "."); i >= 0 {
		segment = nodeType[i+1:]
	}
	if segment == "" {
		return ""
	}
	return strings.ToUpper(segment[:1]) + segment[1:]
}

// Missing partitions requirements against a user's stored credentials
// and returns the unsatisfied subset. Pure set difference, keyed by the
// normalized service-name form; no external calls.
func Missing(requirements []models.CredentialRequirement, stored []models.UserCredential) []models.CredentialRequirement {
	have := make(map[string]bool, len(stored))
	for _, cred := range stored {
		have[NormalizeService(cred.Service)] = true
	}

	var missing []models.CredentialRequirement
	for _, req := range requirements {
		if !have[NormalizeService(req.Service)] {
			missing = append(missing, req)
		}
	}
	return missing
}

// NormalizeService lowercases a service name and strips spaces, so
// "Google Sheets" and "googlesheets" compare equal.
func NormalizeService(service string) string {
	return strings.ReplaceAll(strings.ToLower(service), " ", "")
}
