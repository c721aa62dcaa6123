package models

import "fmt"

// TriggerKind classifies how a workflow starts.
type TriggerKind string

const (
	TriggerUnset    TriggerKind = ""
	TriggerManual   TriggerKind = "manual"
	TriggerSchedule TriggerKind = "schedule"
	TriggerWebhook  TriggerKind = "webhook"
)

// ScheduleSpec is a parsed schedule derived from conversation text.
// Either EveryMinutes is set, or Hour/Minute describe a daily time.
type ScheduleSpec struct {
	EveryMinutes int  `json:"every_minutes,omitempty"`
	Hour         int  `json:"hour"`
	Minute       int  `json:"minute"`
	WeekdaysOnly bool `json:"weekdays_only,omitempty"`
}

// CronExpression renders the spec as a standard five-field cron string.
func (s *ScheduleSpec) CronExpression() string {
	if s.EveryMinutes > 0 {
		return fmt.Sprintf("*/%d * * * *", s.EveryMinutes)
	}
	dow := "*"
	if s.WeekdaysOnly {
		dow = "1-5"
	}
	return fmt.Sprintf("%d %d * * %s", s.Minute, s.Hour, dow)
}

// IntentSlots is the structured intent extracted from a conversation.
// Rebuilt from scratch on every inbound message, never persisted.
type IntentSlots struct {
	Trigger       TriggerKind   `json:"trigger"`
	Actions       []string      `json:"actions"`
	Services      []string      `json:"services"`
	Channel       string        `json:"channel,omitempty"`
	Recipient     string        `json:"recipient,omitempty"`
	ContentHint   string        `json:"content_hint,omitempty"`
	Schedule      *ScheduleSpec `json:"schedule,omitempty"`
	QuestionAsked bool          `json:"question_asked"`
}

// PlanTrigger describes how the planned workflow should start.
type PlanTrigger struct {
	Kind   string         `json:"kind"`
	Config map[string]any `json:"config,omitempty"`
}

// PlanStep is one abstract action in a plan, before node-type resolution.
type PlanStep struct {
	Service string         `json:"service"`
	Action  string         `json:"action"`
	Prompt  string         `json:"prompt,omitempty"`
	Config  map[string]any `json:"config,omitempty"`
}

// Plan is the abstract workflow description produced by the planner.
// Consumed exactly once by the compiler.
type Plan struct {
	Trigger PlanTrigger `json:"trigger"`
	Steps   []PlanStep  `json:"steps"`
}

// Node is one action unit in a compiled graph. Type is a node-type
// identifier the execution engine understands. Credentials stays empty
// until a later collaborator binds concrete credential records.
type Node struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	Position    [2]int            `json:"position"`
	Parameters  map[string]any    `json:"parameters"`
	Credentials map[string]string `json:"credentials"`
}

// Graph is a compiled workflow: an ordered node list plus a connection
// map keyed by source node display name. Node names are unique within
// a graph. A Graph is immutable once produced.
type Graph struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Nodes       []Node              `json:"nodes"`
	Connections map[string][]string `json:"connections"`
}

// CredentialField describes one input field of a credential form.
type CredentialField struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description"`
	Placeholder string `json:"placeholder,omitempty"`
}

// CredentialRequirement declares that a workflow needs credentials for
// an external service. NodeType records the node that triggered it.
type CredentialRequirement struct {
	Service        string            `json:"service"`
	CredentialType string            `json:"credentialType"`
	Required       bool              `json:"required"`
	Fields         []CredentialField `json:"fields"`
	NodeType       string            `json:"nodeType"`
}

// UserCredential is one stored credential record for a user.
type UserCredential struct {
	Service string            `json:"service"`
	Data    map[string]string `json:"data,omitempty"`
}

// ConversationMessage is one turn of conversation history.
type ConversationMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Message string `json:"message"`
}

// BuildRequest asks the service to turn a conversation into a workflow.
type BuildRequest struct {
	SessionID           string                `json:"session_id"`
	UserID              string                `json:"user_id"`
	UserMessage         string                `json:"user_message"`
	ConversationHistory []ConversationMessage `json:"conversation_history,omitempty"`
}

// BuildResponse is the reply to a build request. When Status is READY
// the compiled workflow and its credential requirements are attached;
// when NEEDS_INFO, UserMessage carries the single clarifying question.
type BuildResponse struct {
	SessionID              string                  `json:"session_id"`
	Status                 string                  `json:"status"`
	Workflow               *Graph                  `json:"workflow,omitempty"`
	CredentialRequirements []CredentialRequirement `json:"credentialRequirements,omitempty"`
	MissingCredentials     []CredentialRequirement `json:"missingCredentials,omitempty"`
	Notes                  []string                `json:"notes,omitempty"`
	UserMessage            string                  `json:"user_message"`
	ErrorCode              *string                 `json:"error_code,omitempty"`
	ErrorMessage           *string                 `json:"error_message,omitempty"`
}

// MonitorStartRequest begins telemetry polling for a running execution.
type MonitorStartRequest struct {
	ExecutionID string `json:"execution_id"`
	WorkflowID  string `json:"workflow_id"`
	UserID      string `json:"user_id"`
}

// MonitorStopRequest cancels telemetry polling for an execution.
type MonitorStopRequest struct {
	ExecutionID string `json:"execution_id"`
}

// NodeSearchRequest proxies a node-catalog search for the voice layer.
type NodeSearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// Status constants
const (
	StatusNeedsInfo = "NEEDS_INFO"
	StatusReady     = "READY"
	StatusError     = "ERROR"
)

// Error codes
const (
	ErrorPlannerFailed     = "PLANNER_FAILED"
	ErrorCompileFailed     = "COMPILE_FAILED"
	ErrorCredentialsFailed = "CREDENTIALS_FAILED"
	ErrorParseError        = "PARSE_ERROR"
)
