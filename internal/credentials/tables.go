package credentials

import "github.com/aturei/flowsynth/internal/models"

// Static node-type to credential-type fallback, used when the node
// metadata service reports nothing for a node type. Loaded once at
// process start, never mutated.
var fallbackCredentialTypes = map[string]string{
	"n8n-nodes-base.slack":        "slackApi",
	"n8n-nodes-base.gmail":        "gmailOAuth2",
	"n8n-nodes-base.emailSend":    "smtp",
	"n8n-nodes-base.hubspot":      "hubspotApi",
	"n8n-nodes-base.salesforce":   "salesforceOAuth2Api",
	"n8n-nodes-base.pipedrive":    "pipedriveApi",
	"n8n-nodes-base.postgres":     "postgres",
	"n8n-nodes-base.mySql":        "mySql",
	"n8n-nodes-base.googleSheets": "googleSheetsOAuth2Api",
	"n8n-nodes-base.airtable":     "airtableTokenApi",
	"n8n-nodes-base.notion":       "notionApi",
	"n8n-nodes-base.zendesk":      "zendeskApi",
	"n8n-nodes-base.intercom":     "intercomApi",
	"n8n-nodes-base.github":       "githubApi",
	"n8n-nodes-base.stripe":       "stripeApi",
	"n8n-nodes-base.telegram":     "telegramApi",
	"n8n-nodes-base.discord":      "discordApi",
}

type fieldSchema struct {
	service string
	fields  []models.CredentialField
}

// Field definitions per credential type: human service name plus the
// form schema the UI renders.
var fieldDefinitions = map[string]fieldSchema{
	"slackApi": {
		service: "Slack",
		fields: []models.CredentialField{
			{Name: "accessToken", Type: "string", Required: true, Description: "Bot token for your Slack workspace", Placeholder: "xoxb-..."},
		},
	},
	"gmailOAuth2": {
		service: "Gmail",
		fields: []models.CredentialField{
			{Name: "clientId", Type: "string", Required: true, Description: "Google OAuth client ID"},
			{Name: "clientSecret", Type: "string", Required: true, Description: "Google OAuth client secret"},
		},
	},
	"smtp": {
		service: "Email (SMTP)",
		fields: []models.CredentialField{
			{Name: "host", Type: "string", Required: true, Description: "SMTP host", Placeholder: "smtp.example.com"},
			{Name: "port", Type: "number", Required: true, Description: "SMTP port", Placeholder: "587"},
			{Name: "user", Type: "string", Required: true, Description: "SMTP username"},
			{Name: "password", Type: "string", Required: true, Description: "SMTP password"},
		},
	},
	"hubspotApi": {
		service: "HubSpot",
		fields: []models.CredentialField{
			{Name: "apiKey", Type: "string", Required: true, Description: "Private app access token", Placeholder: "pat-..."},
		},
	},
	"salesforceOAuth2Api": {
		service: "Salesforce",
		fields: []models.CredentialField{
			{Name: "clientId", Type: "string", Required: true, Description: "Connected app consumer key"},
			{Name: "clientSecret", Type: "string", Required: true, Description: "Connected app consumer secret"},
		},
	},
	"pipedriveApi": {
		service: "Pipedrive",
		fields: []models.CredentialField{
			{Name: "apiToken", Type: "string", Required: true, Description: "Personal API token"},
		},
	},
	"postgres": {
		service: "Postgres",
		fields: []models.CredentialField{
			{Name: "host", Type: "string", Required: true, Description: "Database host"},
			{Name: "port", Type: "number", Required: true, Description: "Database port", Placeholder: "5432"},
			{Name: "database", Type: "string", Required: true, Description: "Database name"},
			{Name: "user", Type: "string", Required: true, Description: "Database user"},
			{Name: "password", Type: "string", Required: true, Description: "Database password"},
		},
	},
	"googleSheetsOAuth2Api": {
		service: "Google Sheets",
		fields: []models.CredentialField{
			{Name: "clientId", Type: "string", Required: true, Description: "Google OAuth client ID"},
			{Name: "clientSecret", Type: "string", Required: true, Description: "Google OAuth client secret"},
		},
	},
	"airtableTokenApi": {
		service: "Airtable",
		fields: []models.CredentialField{
			{Name: "accessToken", Type: "string", Required: true, Description: "Personal access token", Placeholder: "pat..."},
		},
	},
	"notionApi": {
		service: "Notion",
		fields: []models.CredentialField{
			{Name: "apiKey", Type: "string", Required: true, Description: "Internal integration secret", Placeholder: "secret_..."},
		},
	},
	"zendeskApi": {
		service: "Zendesk",
		fields: []models.CredentialField{
			{Name: "subdomain", Type: "string", Required: true, Description: "Zendesk subdomain"},
			{Name: "email", Type: "string", Required: true, Description: "Agent email"},
			{Name: "apiToken", Type: "string", Required: true, Description: "API token"},
		},
	},
	"githubApi": {
		service: "GitHub",
		fields: []models.CredentialField{
			{Name: "accessToken", Type: "string", Required: true, Description: "Personal access token", Placeholder: "ghp_..."},
		},
	},
	"stripeApi": {
		service: "Stripe",
		fields: []models.CredentialField{
			{Name: "secretKey", Type: "string", Required: true, Description: "Secret key", Placeholder: "sk_live_..."},
		},
	},
	"telegramApi": {
		service: "Telegram",
		fields: []models.CredentialField{
			{Name: "accessToken", Type: "string", Required: true, Description: "Bot token from @BotFather"},
		},
	},
}
