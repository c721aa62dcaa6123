package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	// NATS configuration
	NatsURL                 string
	NatsBuildSubject        string
	NatsMonitorStartSubject string
	NatsMonitorStopSubject  string
	NatsNodeSearchSubject   string
	NatsEventPrefix         string
	NatsTimeout             time.Duration

	// Anthropic planner configuration
	AnthropicAPIKey string
	AnthropicModel  string
	BuildTimeout    time.Duration

	// Redis configuration
	RedisURL   string
	SessionTTL time.Duration

	// Node catalog configuration
	CatalogURL     string
	CatalogAPIKey  string
	CatalogTimeout time.Duration

	// Execution engine configuration
	EngineURL     string
	EngineAPIKey  string
	EngineTimeout time.Duration

	// Managed AI gateway for compiled AI content nodes
	AIGatewayURL string

	// Telemetry monitor configuration
	MonitorInterval    time.Duration
	MonitorMaxDuration time.Duration

	// Service configuration
	ServiceName string
	MetricsAddr string
}

func Load() (*Config, error) {
	cfg := &Config{
		// NATS settings
		NatsURL:                 getEnv("NATS_URL", "nats://localhost:4222"),
		NatsBuildSubject:        getEnv("NATS_BUILD_SUBJECT", "workflow.build"),
		NatsMonitorStartSubject: getEnv("NATS_MONITOR_START_SUBJECT", "workflow.monitor.start"),
		NatsMonitorStopSubject:  getEnv("NATS_MONITOR_STOP_SUBJECT", "workflow.monitor.stop"),
		NatsNodeSearchSubject:   getEnv("NATS_NODE_SEARCH_SUBJECT", "workflow.nodes.search"),
		NatsEventPrefix:         getEnv("NATS_EVENT_PREFIX", "workflow.event"),
		NatsTimeout:             getDurationEnv("NATS_TIMEOUT", 30*time.Second),

		// Anthropic settings
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-3-5-sonnet-20241022"),
		BuildTimeout:    getDurationEnv("BUILD_TIMEOUT", 60*time.Second),

		// Redis settings
		RedisURL:   getEnv("REDIS_URL", "redis://localhost:6379/0"),
		SessionTTL: getDurationEnv("SESSION_TTL", 30*time.Minute),

		// Node catalog settings
		CatalogURL:     getEnv("CATALOG_URL", "http://localhost:3100"),
		CatalogAPIKey:  getEnv("CATALOG_API_KEY", ""),
		CatalogTimeout: getDurationEnv("CATALOG_TIMEOUT", 10*time.Second),

		// Execution engine settings
		EngineURL:     getEnv("ENGINE_URL", "http://localhost:5678"),
		EngineAPIKey:  getEnv("ENGINE_API_KEY", ""),
		EngineTimeout: getDurationEnv("ENGINE_TIMEOUT", 10*time.Second),

		// Managed AI gateway
		AIGatewayURL: getEnv("AI_GATEWAY_URL", "https://ai.flowsynth.app"),

		// Monitor settings
		MonitorInterval:    getDurationEnv("MONITOR_INTERVAL", 500*time.Millisecond),
		MonitorMaxDuration: getDurationEnv("MONITOR_MAX_DURATION", 5*time.Minute),

		// Service settings
		ServiceName: getEnv("SERVICE_NAME", "flowsynth"),
		MetricsAddr: getEnv("METRICS_ADDR", ":9402"),
	}

	if cfg.AnthropicAPIKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
