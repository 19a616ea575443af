// Package config loads the service configuration from environment
// variables, with defaults suitable for local development.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Configuration is the full configuration surface for both binaries. The
// relay server reads Service, Relay, Persistence, Kafka and Observability;
// the agent reads Service, Agent and Observability.
type Configuration struct {
	Service       ServiceConfig
	Relay         RelayConfig
	Persistence   PersistenceConfig
	Agent         AgentConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ServiceConfig identifies the running process.
type ServiceConfig struct {
	Principal string
}

// RelayConfig configures the relay server listener.
type RelayConfig struct {
	HTTPPort string
	WSPath   string
}

// PersistenceConfig gates audio chunk persistence.
type PersistenceConfig struct {
	Enabled bool
	Dir     string
	Ext     string
}

// AgentConfig configures the agent-side channel manager and the token
// collaborator.
type AgentConfig struct {
	ServerURL      string
	ReconnectDelay time.Duration
	TokenEndpoint  string
	UserName       string
	EventsFile     string
}

// KafkaConfig configures the downstream event publisher.
type KafkaConfig struct {
	Enabled   bool
	Brokers   []string
	Topic     string
	Principal string
}

// ObservabilityConfig configures logging and the metrics HTTP server.
type ObservabilityConfig struct {
	LogLevel string
	HTTPAddr string
}

// Load reads the configuration from the environment.
func Load() *Configuration {
	cfg := &Configuration{
		Service: ServiceConfig{
			Principal: envOrDefault("SERVICE_PRINCIPAL", "svc-meeting-relay"),
		},
		Relay: RelayConfig{
			HTTPPort: envOrDefault("RELAY_HTTP_PORT", "8080"),
			WSPath:   envOrDefault("RELAY_WS_PATH", "/ws"),
		},
		Persistence: PersistenceConfig{
			Enabled: envBool("PERSIST_AUDIO", true),
			Dir:     envOrDefault("PERSIST_DIR", "./recordings"),
			Ext:     envOrDefault("PERSIST_EXT", ".webm"),
		},
		Agent: AgentConfig{
			ServerURL:      envOrDefault("AGENT_SERVER_URL", "ws://localhost:8080/ws"),
			ReconnectDelay: envDuration("AGENT_RECONNECT_DELAY", 2*time.Second),
			TokenEndpoint:  envOrDefault("AGENT_TOKEN_ENDPOINT", "http://localhost:8000/get-token"),
			UserName:       envOrDefault("AGENT_USER_NAME", "Meeting Agent"),
			EventsFile:     os.Getenv("AGENT_EVENTS_FILE"),
		},
		Kafka: KafkaConfig{
			Enabled: envBool("KAFKA_ENABLED", false),
			Brokers: envList("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   envOrDefault("KAFKA_TOPIC", "meeting.relay.transcripts"),
		},
		Observability: ObservabilityConfig{
			LogLevel: envOrDefault("LOG_LEVEL", "info"),
			HTTPAddr: envOrDefault("OBS_HTTP_ADDR", ":9090"),
		},
	}

	// Kafka events carry the service principal unless overridden.
	cfg.Kafka.Principal = envOrDefault("KAFKA_PRINCIPAL", cfg.Service.Principal)

	return cfg
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return parsed
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return parsed
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
