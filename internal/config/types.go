package config

import "time"

// Backend selects the store implementation.
type Backend string

const (
	BackendSQLite    Backend = "sqlite"
	BackendFirestore Backend = "firestore"
)

// Config holds all configuration for the application.
type Config struct {
	Port         string
	DBName       string
	StoreBackend Backend
	Turso        TursoConfig
	ProjectID    string
	PubSub       PubSubConfig
	Slack        SlackConfig
	TenantID     string
	Processor    ProcessorConfig
	Inngest      InngestConfig
	MCPAPIKey    string
}

type SlackConfig struct {
	Token         string
	ChannelID     string
	SigningSecret string
}

type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}

type PubSubConfig struct {
	// Subscription is pulled for change signals. Empty means signals arrive
	// on the push endpoint only.
	Subscription string
}

type ProcessorConfig struct {
	WorkerCount int
	QueueSize   int
	Debounce    time.Duration
}

// InngestConfig is optional. An empty AppID disables scheduled jobs.
type InngestConfig struct {
	AppID      string
	SigningKey string
	EventKey   string
	Dev        bool
}

// Enabled reports whether the Inngest functions should be served.
func (c InngestConfig) Enabled() bool {
	return c.AppID != ""
}
