package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aturei/flowsynth/internal/models"
)

const planPrompt = `You are a workflow planning assistant for an automation platform. Turn the user's request into an abstract plan: one trigger and an ordered list of steps.

IMPORTANT RULES:
1. One step per external action, in execution order
2. "service" is a short lowercase identifier (slack, gmail, hubspot, postgres, ...)
3. "action" is a short verb phrase (post slack, send email, fetch records, ...)
4. Use "prompt" only for AI content-generation steps
5. Do not invent steps the user did not ask for

RESPONSE FORMAT:
You must respond with a valid JSON object in this exact format:
{
  "trigger": {
    "kind": "manual or schedule or webhook",
    "config": {"cron": "0 9 * * *"}
  },
  "steps": [
    {"service": "slack", "action": "post slack", "prompt": null, "config": {"channel": "#alerts"}}
  ]
}

Known details:
%s

Request:
%s

Respond with the JSON object only.`

// BuildPlanPrompt assembles the planner prompt from the description and
// the already-extracted slots.
func BuildPlanPrompt(description string, hints Hints) string {
	return fmt.Sprintf(planPrompt, buildHintsSection(hints), description)
}

func buildHintsSection(hints Hints) string {
	var builder strings.Builder

	if hints.Trigger != models.TriggerUnset {
		builder.WriteString(fmt.Sprintf("- trigger: %s\n", hints.Trigger))
	}
	if len(hints.Services) > 0 {
		builder.WriteString(fmt.Sprintf("- services: %s\n", strings.Join(hints.Services, ", ")))
	}
	if hints.Schedule != "" {
		builder.WriteString(fmt.Sprintf("- schedule: %s\n", hints.Schedule))
	}
	if hints.Channel != "" {
		builder.WriteString(fmt.Sprintf("- channel: %s\n", hints.Channel))
	}
	if hints.Recipient != "" {
		builder.WriteString(fmt.Sprintf("- recipient: %s\n", hints.Recipient))
	}
	if builder.Len() == 0 {
		return "- none\n"
	}

	return builder.String()
}

// ParsePlanResponse extracts and validates the plan JSON from raw model
// output. Any failure here is terminal for the build attempt.
func ParsePlanResponse(content string) (*models.Plan, error) {
	jsonContent := extractJSON(content)
	if jsonContent == "" {
		return nil, fmt.Errorf("%w: no JSON object in planner output", ErrPlanInvalid)
	}

	var plan models.Plan
	if err := json.Unmarshal([]byte(jsonContent), &plan); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlanInvalid, err)
	}

	if len(plan.Steps) == 0 {
		return nil, fmt.Errorf("%w: plan has no steps", ErrPlanInvalid)
	}
	for i, step := range plan.Steps {
		if step.Service == "" && step.Action == "" {
			return nil, fmt.Errorf("%w: step %d has neither service nor action", ErrPlanInvalid, i)
		}
	}

	if plan.Trigger.Kind == "" {
		plan.Trigger.Kind = string(models.TriggerManual)
	}

	return &plan, nil
}

func extractJSON(content string) string {
	start := strings.Index(content, "{")
	if start == -1 {
		return ""
	}

	end := strings.LastIndex(content, "}")
	if end == -1 || end <= start {
		return ""
	}

	return content[start : end+1]
}
