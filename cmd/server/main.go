package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/aturei/flowsynth/internal/catalog"
	"github.com/aturei/flowsynth/internal/compiler"
	"github.com/aturei/flowsynth/internal/config"
	"github.com/aturei/flowsynth/internal/credentials"
	"github.com/aturei/flowsynth/internal/events"
	"github.com/aturei/flowsynth/internal/handlers"
	"github.com/aturei/flowsynth/internal/memory"
	"github.com/aturei/flowsynth/internal/metrics"
	"github.com/aturei/flowsynth/internal/monitor"
	"github.com/aturei/flowsynth/internal/planner"
	"github.com/aturei/flowsynth/internal/transport"
)

func main() {
	// Load .env file if it exists (for development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	log.Println("🚀 Starting flowsynth workflow synthesis service...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	log.Printf("📋 Service: %s", cfg.ServiceName)
	log.Printf("📡 NATS URL: %s", cfg.NatsURL)
	log.Printf("🤖 Planner model: %s", cfg.AnthropicModel)
	log.Printf("💾 Redis URL: %s", cfg.RedisURL)

	// Conversation session store
	log.Println("🔌 Connecting to Redis...")
	sessionStore, err := memory.NewRedisStore(cfg.RedisURL, cfg.SessionTTL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	sessionManager := memory.NewManager(sessionStore)
	defer sessionManager.Close()
	log.Println("✅ Session store connected")

	// Credential store
	credStore, err := credentials.NewStore(cfg.RedisURL)
	if err != nil {
		log.Fatalf("❌ Failed to open credential store: %v", err)
	}
	defer credStore.Close()

	// Planner
	plan, err := planner.NewAnthropicPlanner(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	if err != nil {
		log.Fatalf("❌ Failed to initialize planner: %v", err)
	}
	log.Println("✅ Planner initialized")

	// Node catalog, compiler and credential resolver
	catalogClient := catalog.NewClient(cfg.CatalogURL, cfg.CatalogAPIKey, cfg.CatalogTimeout)
	comp := compiler.New(catalogClient, cfg.AIGatewayURL)
	resolver := credentials.NewResolver(catalogClient)

	// Build handler
	buildHandler := handlers.NewBuildHandler(plan, comp, resolver, credStore, sessionManager)
	log.Println("✅ Build handler initialized")

	// Telemetry monitor needs the NATS connection for broadcasting, so
	// the transport comes up first.
	natsTransport, err := transport.NewNATSTransport(cfg, buildHandler, nil, catalogClient)
	if err != nil {
		log.Fatalf("❌ Failed to initialize NATS transport: %v", err)
	}
	defer natsTransport.Close()

	broadcaster := events.NewNATSBroadcaster(natsTransport.Conn(), cfg.NatsEventPrefix)
	statusClient := monitor.NewStatusClient(cfg.EngineURL, cfg.EngineAPIKey, cfg.EngineTimeout)
	mon := monitor.New(statusClient, broadcaster, cfg.MonitorInterval, cfg.MonitorMaxDuration)
	natsTransport.SetMonitor(mon)
	log.Println("✅ Telemetry monitor initialized")

	if err := natsTransport.Start(); err != nil {
		log.Fatalf("❌ Failed to start NATS transport: %v", err)
	}

	go func() {
		log.Printf("📊 Metrics listening on %s", cfg.MetricsAddr)
		if err := metrics.Serve(cfg.MetricsAddr); err != nil {
			log.Printf("⚠️ Metrics server stopped: %v", err)
		}
	}()

	log.Println("✅ flowsynth is running!")
	log.Printf("👂 Build subject: %s", cfg.NatsBuildSubject)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Printf("🛑 Received signal: %v", sig)
	log.Println("🔄 Shutting down gracefully...")

	if err := sessionManager.Close(); err != nil {
		log.Printf("⚠️ Error closing session manager: %v", err)
	}
	if err := natsTransport.Close(); err != nil {
		log.Printf("⚠️ Error closing NATS transport: %v", err)
	}

	log.Println("👋 flowsynth stopped")
}
