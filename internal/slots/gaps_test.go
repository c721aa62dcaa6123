package slots

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aturei/flowsynth/internal/models"
)

func TestAnalyze_AsksWhenCriticalSlotsMissing(t *testing.T) {
	a := Analyze(models.IntentSlots{Trigger: models.TriggerManual})

	assert.Equal(t, DecisionAsk, a.Decision)
	assert.ElementsMatch(t, []string{GapService, GapAction}, a.Gaps)
	require.NotEmpty(t, a.Question)
	// Both gaps bundled into the one allowed question.
	assert.Contains(t, a.Question, "which app")
	assert.Contains(t, a.Question, "what should happen")
}

func TestAnalyze_NeverAsksTwice(t *testing.T) {
	a := Analyze(models.IntentSlots{
		Trigger:       models.TriggerManual,
		QuestionAsked: true,
	})

	assert.Equal(t, DecisionBuildWithDefaults, a.Decision)
	assert.Empty(t, a.Question)
	assert.NotEmpty(t, a.Warning)
	assert.ElementsMatch(t, []string{GapService, GapAction}, a.Gaps)
}

func TestAnalyze_BuildsWhenSlotsFilled(t *testing.T) {
	a := Analyze(models.IntentSlots{
		Trigger:  models.TriggerManual,
		Services: []string{"slack"},
		Actions:  []string{"post slack"},
		Channel:  "#alerts",
	})

	assert.Equal(t, DecisionBuild, a.Decision)
	assert.Empty(t, a.Gaps)
	assert.Empty(t, a.Warning)
	assert.Equal(t, "#alerts", a.Slots.Channel)
}

func TestAnalyze_AppliesSafeDefaults(t *testing.T) {
	a := Analyze(models.IntentSlots{
		Services: []string{"slack", "email"},
		Actions:  []string{"post slack", "send email"},
	})

	require.Equal(t, DecisionBuild, a.Decision)
	assert.Equal(t, models.TriggerManual, a.Slots.Trigger)
	assert.Equal(t, "#general", a.Slots.Channel)
	assert.Equal(t, "{{ $json.email }}", a.Slots.Recipient)
	assert.Len(t, a.DefaultsApplied, 3)
}

func TestAnalyze_DefaultsScheduleToDailyNine(t *testing.T) {
	a := Analyze(models.IntentSlots{
		Trigger:  models.TriggerSchedule,
		Services: []string{"hubspot"},
		Actions:  []string{"fetch records"},
	})

	require.Equal(t, DecisionBuild, a.Decision)
	require.NotNil(t, a.Slots.Schedule)
	assert.Equal(t, 9, a.Slots.Schedule.Hour)
	assert.Equal(t, 0, a.Slots.Schedule.Minute)
}

func TestAnalyze_AskThenBuildWithDefaultsSequence(t *testing.T) {
	first := Analyze(models.IntentSlots{Services: []string{"slack"}})
	require.Equal(t, DecisionAsk, first.Decision)
	assert.Equal(t, []string{GapAction}, first.Gaps)

	// The user's reply still does not name an action; build anyway.
	second := Analyze(models.IntentSlots{
		Services:      []string{"slack"},
		QuestionAsked: true,
	})
	assert.Equal(t, DecisionBuildWithDefaults, second.Decision)
	assert.Equal(t, "#general", second.Slots.Channel)
}
