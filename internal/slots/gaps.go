package slots

import (
	"strings"

	"github.com/aturei/flowsynth/internal/models"
)

// Decision is the outcome of gap analysis for one build attempt.
type Decision string

const (
	// DecisionBuild means every critical slot is filled (possibly via
	// safe defaults) and the planner can be invoked.
	DecisionBuild Decision = "build"
	// DecisionAsk means exactly one bundled clarifying question should
	// be sent back before building.
	DecisionAsk Decision = "ask"
	// DecisionBuildWithDefaults means gaps remain after the one allowed
	// question; build anyway and warn that refinement may be needed.
	DecisionBuildWithDefaults Decision = "build_with_defaults"
)

// Gap categories.
const (
	GapService = "service"
	GapAction  = "action"
)

const defaultSlackChannel = "#general"
const defaultEmailRecipient = "{{ $json.email }}"

// Analysis is the result of running the default inferencer and gap
// analyzer over one IntentSlots record.
type Analysis struct {
	Decision        Decision
	Question        string
	Gaps            []string
	DefaultsApplied []string
	Warning         string
	Slots           models.IntentSlots
}

// Analyze computes the critical gap set for the extracted slots and
// decides between building and asking. At most one clarifying question
// is ever asked per build attempt: if QuestionAsked is already set the
// analyzer applies defaults and builds regardless of remaining gaps.
func Analyze(s models.IntentSlots) Analysis {
	gaps := criticalGaps(s)

	if len(gaps) == 0 {
		filled, notes := applyDefaults(s)
		return Analysis{
			Decision:        DecisionBuild,
			DefaultsApplied: notes,
			Slots:           filled,
		}
	}

	if !s.QuestionAsked {
		return Analysis{
			Decision: DecisionAsk,
			Question: bundledQuestion(gaps),
			Gaps:     gaps,
			Slots:    s,
		}
	}

	filled, notes := applyDefaults(s)
	return Analysis{
		Decision:        DecisionBuildWithDefaults,
		Gaps:            gaps,
		DefaultsApplied: notes,
		Warning:         "some details were missing, so the workflow was built with defaults and may need manual refinement",
		Slots:           filled,
	}
}

func criticalGaps(s models.IntentSlots) []string {
	var gaps []string
	if len(s.Services) == 0 {
		gaps = append(gaps, GapService)
	}
	if len(s.Actions) == 0 {
		gaps = append(gaps, GapAction)
	}
	return gaps
}

// bundledQuestion covers every missing category in a single question so
// the caller never has to ask twice.
func bundledQuestion(gaps []string) string {
	var parts []string
	for _, g := range gaps {
		switch g {
		case GapService:
			parts = append(parts, "which app should this automation use (for example Slack, Gmail or HubSpot)")
		case GapAction:
			parts = append(parts, "what should happen when it runs")
		}
	}
	return "To set this up I need one more thing: " + strings.Join(parts, ", and ") + "?"
}

func applyDefaults(s models.IntentSlots) (models.IntentSlots, []string) {
	var notes []string

	if s.Trigger == models.TriggerUnset {
		s.Trigger = models.TriggerManual
		notes = append(notes, "trigger defaulted to manual")
	}

	if hasService(s, "slack") && s.Channel == "" {
		s.Channel = defaultSlackChannel
		notes = append(notes, "slack channel defaulted to "+defaultSlackChannel)
	}

	if (hasService(s, "gmail") || hasService(s, "email")) && s.Recipient == "" {
		s.Recipient = defaultEmailRecipient
		notes = append(notes, "email recipient defaulted to the upstream record's email field")
	}

	if s.Trigger == models.TriggerSchedule && s.Schedule == nil {
		s.Schedule = &models.ScheduleSpec{Hour: 9, Minute: 0}
		notes = append(notes, "schedule defaulted to daily at 9:00")
	}

	return s, notes
}

func hasService(s models.IntentSlots, name string) bool {
	for _, svc := range s.Services {
		if svc == name {
			return true
		}
	}
	return false
}
