package config

import (
	"os"
	"testing"
	"time"
)

var allEnvVars = []string{
	"SERVICE_PRINCIPAL", "RELAY_HTTP_PORT", "RELAY_WS_PATH",
	"PERSIST_AUDIO", "PERSIST_DIR", "PERSIST_EXT",
	"AGENT_SERVER_URL", "AGENT_RECONNECT_DELAY", "AGENT_TOKEN_ENDPOINT",
	"AGENT_USER_NAME", "AGENT_EVENTS_FILE",
	"KAFKA_ENABLED", "KAFKA_BROKERS", "KAFKA_TOPIC", "KAFKA_PRINCIPAL",
	"LOG_LEVEL", "OBS_HTTP_ADDR",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range allEnvVars {
		os.Unsetenv(v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.Service.Principal != "svc-meeting-relay" {
		t.Errorf("expected default principal 'svc-meeting-relay', got %s", cfg.Service.Principal)
	}
	if cfg.Relay.HTTPPort != "8080" {
		t.Errorf("expected default port '8080', got %s", cfg.Relay.HTTPPort)
	}
	if cfg.Relay.WSPath != "/ws" {
		t.Errorf("expected default ws path '/ws', got %s", cfg.Relay.WSPath)
	}

	if cfg.Persistence.Enabled != true {
		t.Errorf("expected persistence enabled by default, got %v", cfg.Persistence.Enabled)
	}
	if cfg.Persistence.Dir != "./recordings" {
		t.Errorf("expected default dir './recordings', got %s", cfg.Persistence.Dir)
	}
	if cfg.Persistence.Ext != ".webm" {
		t.Errorf("expected default extension '.webm', got %s", cfg.Persistence.Ext)
	}

	if cfg.Agent.ServerURL != "ws://localhost:8080/ws" {
		t.Errorf("expected default server URL, got %s", cfg.Agent.ServerURL)
	}
	if cfg.Agent.ReconnectDelay != 2*time.Second {
		t.Errorf("expected default reconnect delay 2s, got %v", cfg.Agent.ReconnectDelay)
	}
	if cfg.Agent.UserName != "Meeting Agent" {
		t.Errorf("expected default user name 'Meeting Agent', got %s", cfg.Agent.UserName)
	}

	if cfg.Kafka.Enabled != false {
		t.Errorf("expected Kafka disabled by default, got %v", cfg.Kafka.Enabled)
	}
	if cfg.Kafka.Topic != "meeting.relay.transcripts" {
		t.Errorf("expected default topic, got %s", cfg.Kafka.Topic)
	}

	if cfg.Observability.LogLevel != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Observability.LogLevel)
	}
	if cfg.Observability.HTTPAddr != ":9090" {
		t.Errorf("expected default obs addr ':9090', got %s", cfg.Observability.HTTPAddr)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	os.Setenv("SERVICE_PRINCIPAL", "custom-principal")
	os.Setenv("RELAY_HTTP_PORT", "9999")
	os.Setenv("PERSIST_AUDIO", "false")
	os.Setenv("PERSIST_DIR", "/tmp/chunks")
	os.Setenv("AGENT_RECONNECT_DELAY", "500ms")
	os.Setenv("KAFKA_ENABLED", "true")
	os.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	os.Setenv("LOG_LEVEL", "debug")
	t.Cleanup(func() { clearEnv(t) })

	cfg := Load()

	if cfg.Service.Principal != "custom-principal" {
		t.Errorf("expected principal 'custom-principal', got %s", cfg.Service.Principal)
	}
	if cfg.Relay.HTTPPort != "9999" {
		t.Errorf("expected port '9999', got %s", cfg.Relay.HTTPPort)
	}
	if cfg.Persistence.Enabled != false {
		t.Errorf("expected persistence disabled, got %v", cfg.Persistence.Enabled)
	}
	if cfg.Persistence.Dir != "/tmp/chunks" {
		t.Errorf("expected dir '/tmp/chunks', got %s", cfg.Persistence.Dir)
	}
	if cfg.Agent.ReconnectDelay != 500*time.Millisecond {
		t.Errorf("expected reconnect delay 500ms, got %v", cfg.Agent.ReconnectDelay)
	}
	if !cfg.Kafka.Enabled {
		t.Errorf("expected Kafka enabled, got %v", cfg.Kafka.Enabled)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[0] != "k1:9092" || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("expected trimmed broker list, got %v", cfg.Kafka.Brokers)
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Observability.LogLevel)
	}
}

func TestLoad_InvalidValues_FallbackToDefaults(t *testing.T) {
	clearEnv(t)
	os.Setenv("PERSIST_AUDIO", "invalid")
	os.Setenv("AGENT_RECONNECT_DELAY", "invalid")
	t.Cleanup(func() { clearEnv(t) })

	cfg := Load()

	if cfg.Persistence.Enabled != true {
		t.Errorf("expected default persistence flag on invalid input, got %v", cfg.Persistence.Enabled)
	}
	if cfg.Agent.ReconnectDelay != 2*time.Second {
		t.Errorf("expected default reconnect delay on invalid input, got %v", cfg.Agent.ReconnectDelay)
	}
}

func TestLoad_KafkaPrincipal_FallsBackToServicePrincipal(t *testing.T) {
	clearEnv(t)
	os.Setenv("SERVICE_PRINCIPAL", "my-service")
	t.Cleanup(func() { clearEnv(t) })

	cfg := Load()

	if cfg.Kafka.Principal != "my-service" {
		t.Errorf("expected Kafka principal to fall back to service principal, got %s", cfg.Kafka.Principal)
	}
}

func TestEnvBool(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		def      bool
		expected bool
	}{
		{"true string", "true", false, true},
		{"false string", "false", true, false},
		{"1", "1", false, true},
		{"0", "0", true, false},
		{"TRUE uppercase", "TRUE", false, true},
		{"invalid", "invalid", true, true},
		{"empty", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_BOOL_VAR"
			if tt.envValue != "" {
				os.Setenv(key, tt.envValue)
			} else {
				os.Unsetenv(key)
			}
			defer os.Unsetenv(key)

			got := envBool(key, tt.def)
			if got != tt.expected {
				t.Errorf("envBool(%s, %v) = %v, want %v", tt.envValue, tt.def, got, tt.expected)
			}
		})
	}
}

func TestEnvList(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		expected []string
	}{
		{"single", "a:1", []string{"a:1"}},
		{"multiple trimmed", "a:1, b:2 ,c:3", []string{"a:1", "b:2", "c:3"}},
		{"only commas", ",,", []string{"default"}},
		{"empty", "", []string{"default"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_LIST_VAR"
			if tt.envValue != "" {
				os.Setenv(key, tt.envValue)
			} else {
				os.Unsetenv(key)
			}
			defer os.Unsetenv(key)

			got := envList(key, []string{"default"})
			if len(got) != len(tt.expected) {
				t.Fatalf("envList(%q) = %v, want %v", tt.envValue, got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("envList(%q)[%d] = %q, want %q", tt.envValue, i, got[i], tt.expected[i])
				}
			}
		})
	}
}
