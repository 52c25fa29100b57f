package config

import (
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// Load reads configuration from environment variables and .env file.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}

	backend := Backend(getEnv("STORE_BACKEND", string(BackendSQLite)))
	cfg := Config{
		Port:         getEnv("PORT", "8080"),
		DBName:       getEnv("DB_NAME", "fieldrank.db"),
		StoreBackend: backend,
		Turso: TursoConfig{
			PrimaryURL: os.Getenv("TURSO_PRIMARY_URL"),
			AuthToken:  os.Getenv("TURSO_AUTH_TOKEN"),
		},
		ProjectID: os.Getenv("GCP_PROJECT"),
		PubSub: PubSubConfig{
			Subscription: os.Getenv("PUBSUB_SUBSCRIPTION"),
		},
		Slack: SlackConfig{
			Token:         getEnvRequired("SLACK_BOT_TOKEN"),
			ChannelID:     getEnvRequired("SLACK_CHANNEL_ID"),
			SigningSecret: getEnvRequired("SLACK_SIGNING_SECRET"),
		},
		TenantID: getEnvRequired("TENANT_ID"),
		Processor: ProcessorConfig{
			WorkerCount: getEnvInt("WORKER_COUNT", 4),
			QueueSize:   getEnvInt("QUEUE_SIZE", 1024),
			Debounce:    getEnvDuration("RECOMPUTE_DEBOUNCE", 2*time.Second),
		},
		Inngest: InngestConfig{
			AppID:      os.Getenv("INNGEST_APP_ID"),
			SigningKey: os.Getenv("INNGEST_SIGNING_KEY"),
			EventKey:   os.Getenv("INNGEST_EVENT_KEY"),
			Dev:        os.Getenv("INNGEST_DEV") == "true",
		},
		MCPAPIKey: os.Getenv("MCP_API_KEY"),
	}

	switch backend {
	case BackendSQLite:
	case BackendFirestore:
		if cfg.ProjectID == "" {
			log.Fatalf("Error: GCP_PROJECT is required when STORE_BACKEND=%s.", backend)
		}
	default:
		log.Fatalf("Error: unknown STORE_BACKEND %q.", backend)
	}
	return cfg
}

// getEnvRequired fails fast when the variable is not set.
func getEnvRequired(key string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	log.Fatalf("Error: Required environment variable %s is not set.", key)
	return "" // This line is never reached
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Warn("Ignoring invalid integer", "key", key, "value", value)
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Warn("Ignoring invalid duration", "key", key, "value", value)
	}
	return fallback
}
