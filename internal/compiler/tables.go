package compiler

import "strings"

// Node-type identifiers the execution engine understands. These are an
// external, versioned contract; keep them aligned with the engine.
const (
	nodeTypeManualTrigger   = "n8n-nodes-base.manualTrigger"
	nodeTypeScheduleTrigger = "n8n-nodes-base.scheduleTrigger"
	nodeTypeWebhook         = "n8n-nodes-base.webhook"
	nodeTypeHTTPRequest     = "n8n-nodes-base.httpRequest"
	nodeTypeSplitInBatches  = "n8n-nodes-base.splitInBatches"
	nodeTypeIf              = "n8n-nodes-base.if"
	nodeTypeSwitch          = "n8n-nodes-base.switch"
)

var triggerTypes = map[string]string{
	"manual":   nodeTypeManualTrigger,
	"schedule": nodeTypeScheduleTrigger,
	"webhook":  nodeTypeWebhook,
}

// aiKind selects the managed AI endpoint variant for a step.
type aiKind string

const (
	aiText       aiKind = "text"
	aiImage      aiKind = "image"
	aiTranscribe aiKind = "transcription"
	aiSpeech     aiKind = "speech"
)

var aiTriggerPhrases = []string{
	"generate", "write", "draft", "summarize", "compose",
	"ai content", "gpt", "transcribe", "speech to text",
	"text to speech", "voice over", "narrate",
}

// Image generation is given a much longer timeout than text.
var aiTimeoutsMs = map[aiKind]int{
	aiText:       60000,
	aiImage:      300000,
	aiTranscribe: 120000,
	aiSpeech:     120000,
}

var aiEndpointPaths = map[aiKind]string{
	aiText:       "/v1/ai/text",
	aiImage:      "/v1/ai/image",
	aiTranscribe: "/v1/ai/transcription",
	aiSpeech:     "/v1/ai/speech",
}

// aiKindFor reports whether a step describes AI content generation and,
// if so, which variant. Secondary keywords pick the variant; text is
// the default.
func aiKindFor(text string) (aiKind, bool) {
	matched := false
	for _, phrase := range aiTriggerPhrases {
		if strings.Contains(text, phrase) {
			matched = true
			break
		}
	}
	if !matched {
		return "", false
	}

	switch {
	case strings.Contains(text, "transcri") || strings.Contains(text, "speech to text"):
		return aiTranscribe, true
	case strings.Contains(text, "text to speech") || strings.Contains(text, "voice") || strings.Contains(text, "narrate"):
		return aiSpeech, true
	case strings.Contains(text, "image") || strings.Contains(text, "picture") || strings.Contains(text, "illustration"):
		return aiImage, true
	default:
		return aiText, true
	}
}

type controlFlowEntry struct {
	phrases  []string
	nodeType string
	defaults map[string]any
}

// Control-flow phrases resolve before the service table. Each entry
// carries a structurally valid default parameter set; multi-target
// wiring is a later linking stage, not done here.
var controlFlowTable = []controlFlowEntry{
	{
		phrases:  []string{"for each", "loop", "iterate", "one at a time", "one by one", "in batches"},
		nodeType: nodeTypeSplitInBatches,
		defaults: map[string]any{"batchSize": 10, "options": map[string]any{}},
	},
	{
		phrases:  []string{"only if", "if the", "on condition", "unless", "when it matches"},
		nodeType: nodeTypeIf,
		defaults: map[string]any{
			"conditions": map[string]any{
				"conditions": []any{},
				"combinator": "and",
			},
		},
	},
	{
		phrases:  []string{"depending on", "switch", "route by", "based on the type", "per category"},
		nodeType: nodeTypeSwitch,
		defaults: map[string]any{
			"mode":  "rules",
			"rules": map[string]any{"values": []any{}},
		},
	},
}

type serviceEntry struct {
	nodeType string
	defaults map[string]any
}

// Common services with sensible default parameters. Defaults are
// shallow-merged under caller-supplied config; caller values win.
var serviceTable = map[string]serviceEntry{
	"slack": {
		nodeType: "n8n-nodes-base.slack",
		defaults: map[string]any{
			"resource":  "message",
			"operation": "post",
			"channel":   "#general",
			"text":      "={{ $json.message }}",
		},
	},
	"gmail": {
		nodeType: "n8n-nodes-base.gmail",
		defaults: map[string]any{
			"resource":  "message",
			"operation": "send",
			"subject":   "Automated update",
		},
	},
	"email": {
		nodeType: "n8n-nodes-base.emailSend",
		defaults: map[string]any{
			"fromEmail": "no-reply@flowsynth.app",
			"subject":   "Automated update",
		},
	},
	"hubspot": {
		nodeType: "n8n-nodes-base.hubspot",
		defaults: map[string]any{
			"resource":  "contact",
			"operation": "getAll",
			"returnAll": false,
			"limit":     100,
		},
	},
	"salesforce": {
		nodeType: "n8n-nodes-base.salesforce",
		defaults: map[string]any{
			"resource":  "lead",
			"operation": "getAll",
		},
	},
	"pipedrive": {
		nodeType: "n8n-nodes-base.pipedrive",
		defaults: map[string]any{
			"resource":  "deal",
			"operation": "getAll",
		},
	},
	"postgres": {
		nodeType: "n8n-nodes-base.postgres",
		defaults: map[string]any{"operation": "executeQuery"},
	},
	"mysql": {
		nodeType: "n8n-nodes-base.mySql",
		defaults: map[string]any{"operation": "executeQuery"},
	},
	"googlesheets": {
		nodeType: "n8n-nodes-base.googleSheets",
		defaults: map[string]any{"operation": "append"},
	},
	"airtable": {
		nodeType: "n8n-nodes-base.airtable",
		defaults: map[string]any{"operation": "list"},
	},
	"notion": {
		nodeType: "n8n-nodes-base.notion",
		defaults: map[string]any{
			"resource":  "page",
			"operation": "create",
		},
	},
	"zendesk": {
		nodeType: "n8n-nodes-base.zendesk",
		defaults: map[string]any{
			"resource":  "ticket",
			"operation": "create",
		},
	},
	"intercom": {
		nodeType: "n8n-nodes-base.intercom",
		defaults: map[string]any{
			"resource": "user",
		},
	},
	"github": {
		nodeType: "n8n-nodes-base.github",
		defaults: map[string]any{
			"resource":  "issue",
			"operation": "create",
		},
	},
	"stripe": {
		nodeType: "n8n-nodes-base.stripe",
		defaults: map[string]any{
			"resource": "charge",
		},
	},
	"telegram": {
		nodeType: "n8n-nodes-base.telegram",
		defaults: map[string]any{
			"resource":  "message",
			"operation": "sendMessage",
		},
	},
	"discord": {
		nodeType: "n8n-nodes-base.discord",
		defaults: map[string]any{
			"resource": "message",
		},
	},
	"http": {
		nodeType: nodeTypeHTTPRequest,
		defaults: map[string]any{"method": "GET"},
	},
}

var fetchTriggerPhrases = []string{"fetch", "get", "pull", "read", "retrieve"}

// isFetchStyle reports whether a trigger phrase actually describes a
// data-fetch action rather than a true trigger.
func isFetchStyle(kind string) bool {
	for _, phrase := range fetchTriggerPhrases {
		if strings.Contains(kind, phrase) {
			return true
		}
	}
	return false
}
