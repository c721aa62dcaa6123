// Package slots turns raw conversation text into a structured intent
// record and decides whether enough of it exists to build a workflow.
package slots

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/aturei/flowsynth/internal/models"
)

var (
	intervalRe    = regexp.MustCompile(`every\s+(\d+)\s+minutes?`)
	clockRe       = regexp.MustCompile(`(\d{1,2})(?::(\d{2}))?\s*(am|pm)`)
	channelHashRe = regexp.MustCompile(`#([a-zA-Z0-9][a-zA-Z0-9_-]*)`)
	channelWordRe = regexp.MustCompile(`channel\s+([a-zA-Z0-9][a-zA-Z0-9_-]*)`)
	recipientRe   = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	quotedRe      = regexp.MustCompile(`"([^"]+)"`)
)

var scheduleHints = []string{
	"every day", "every morning", "every week", "every month", "every hour",
	"every ", "daily", "each day", "each morning", "weekly", "hourly",
	"on a schedule", "cron",
}

var webhookHints = []string{
	"webhook", "when a request", "incoming request", "http post",
	"when someone submits", "form is submitted",
}

// actionPattern maps surface phrases to a canonical action phrase.
type actionPattern struct {
	canonical string
	phrases   []string
}

// Order matters only for tie-breaking at the same text offset; the
// result list is ordered by first occurrence in the text.
var actionPatterns = []actionPattern{
	{"post slack", []string{"slack message", "post to slack", "post slack", "send a slack", "message to slack", "notify slack", "notify the team"}},
	{"send email", []string{"send an email", "send email", "send emails", "email the", "email them", "send a personalized email"}},
	{"create ticket", []string{"create a ticket", "create ticket", "open a ticket", "file a ticket"}},
	{"fetch records", []string{"fetch", "pull records", "pull data", "pull new", "get records", "get new leads", "get leads", "retrieve", "sync"}},
	{"generate content", []string{"generate", "write a", "draft", "summarize", "compose"}},
	{"transcribe audio", []string{"transcribe", "speech to text"}},
	{"update record", []string{"update the", "update a", "upsert"}},
	{"append row", []string{"add a row", "append", "insert a row", "log it to"}},
}

type servicePattern struct {
	canonical string
	phrases   []string
}

var servicePatterns = []servicePattern{
	{"slack", []string{"slack"}},
	{"gmail", []string{"gmail"}},
	{"email", []string{"email", "e-mail"}},
	{"hubspot", []string{"hubspot"}},
	{"salesforce", []string{"salesforce"}},
	{"pipedrive", []string{"pipedrive"}},
	{"postgres", []string{"postgres", "postgresql"}},
	{"mysql", []string{"mysql"}},
	{"googlesheets", []string{"google sheets", "google sheet", "spreadsheet"}},
	{"airtable", []string{"airtable"}},
	{"notion", []string{"notion"}},
	{"zendesk", []string{"zendesk"}},
	{"intercom", []string{"intercom"}},
	{"github", []string{"github"}},
	{"stripe", []string{"stripe"}},
	{"telegram", []string{"telegram"}},
	{"discord", []string{"discord"}},
}

// Extract builds an IntentSlots record from the accumulated conversation
// text plus the newest message. Pure function of its inputs: lexical
// matching only, case-insensitive, no external calls.
func Extract(history, message string, questionAsked bool) models.IntentSlots {
	text := strings.ToLower(userTurns(history) + "\n" + message)

	s := models.IntentSlots{
		Trigger:       detectTrigger(text),
		Actions:       firstSeen(text, actionMatches),
		Services:      firstSeen(text, serviceMatches),
		Channel:       extractChannel(text),
		Recipient:     recipientRe.FindString(text),
		ContentHint:   extractContentHint(history + "\n" + message),
		QuestionAsked: questionAsked,
	}

	if s.Trigger == models.TriggerSchedule {
		s.Schedule = deriveSchedule(text)
	}

	return s
}

// userTurns strips assistant and system lines from formatted history.
// The clarifying question names example services; reading it back would
// fill the service slot with services the user never mentioned.
func userTurns(history string) string {
	var b strings.Builder
	for _, line := range strings.Split(history, "\n") {
		if strings.HasPrefix(line, "Assistant:") || strings.HasPrefix(line, "System:") {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// Trigger precedence: explicit schedule language beats webhook language,
// anything else is manual.
func detectTrigger(text string) models.TriggerKind {
	for _, hint := range scheduleHints {
		if strings.Contains(text, hint) {
			return models.TriggerSchedule
		}
	}
	if clockRe.MatchString(text) {
		return models.TriggerSchedule
	}
	for _, hint := range webhookHints {
		if strings.Contains(text, hint) {
			return models.TriggerWebhook
		}
	}
	return models.TriggerManual
}

// deriveSchedule handles the three schedule sub-cases in precedence
// order: minute interval, explicit clock time, weekday qualifier.
func deriveSchedule(text string) *models.ScheduleSpec {
	spec := &models.ScheduleSpec{}

	if m := intervalRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n > 0 {
			spec.EveryMinutes = n
			return spec
		}
	}

	if m := clockRe.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		// The clock is 12-hour; "13pm" or ":75" is not a usable time.
		if hour < 1 || hour > 12 || minute > 59 {
			return nil
		}
		// 12am is midnight, 12pm stays noon, other pm hours shift by 12.
		switch {
		case m[3] == "am" && hour == 12:
			hour = 0
		case m[3] == "pm" && hour != 12:
			hour += 12
		}
		spec.Hour = hour
		spec.Minute = minute
	} else {
		return nil
	}

	if strings.Contains(text, "weekday") {
		spec.WeekdaysOnly = true
	}

	return spec
}

type match struct {
	index     int
	canonical string
}

func actionMatches(text string) []match {
	var out []match
	for _, p := range actionPatterns {
		best := -1
		for _, phrase := range p.phrases {
			if i := strings.Index(text, phrase); i >= 0 && (best < 0 || i < best) {
				best = i
			}
		}
		if best >= 0 {
			out = append(out, match{best, p.canonical})
		}
	}
	return out
}

func serviceMatches(text string) []match {
	var out []match
	for _, p := range servicePatterns {
		best := -1
		for _, phrase := range p.phrases {
			if i := strings.Index(text, phrase); i >= 0 && (best < 0 || i < best) {
				best = i
			}
		}
		if best >= 0 {
			out = append(out, match{best, p.canonical})
		}
	}
	return out
}

// firstSeen returns canonical identifiers ordered by first occurrence in
// the text, deduplicated.
func firstSeen(text string, find func(string) []match) []string {
	matches := find(text)
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].index < matches[j].index })

	var out []string
	seen := map[string]bool{}
	for _, m := range matches {
		if !seen[m.canonical] {
			seen[m.canonical] = true
			out = append(out, m.canonical)
		}
	}
	return out
}

// extractChannel prefers an explicit "#name" token over the looser
// "channel <name>" phrase.
func extractChannel(text string) string {
	if m := channelHashRe.FindStringSubmatch(text); m != nil {
		return "#" + m[1]
	}
	if m := channelWordRe.FindStringSubmatch(text); m != nil {
		return "#" + m[1]
	}
	return ""
}

func extractContentHint(text string) string {
	if m := quotedRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}
