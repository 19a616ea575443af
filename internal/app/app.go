// Package app holds process-wide state shared by the relay and agent
// binaries.
package app

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"meeting-agent-relay/internal/config"
	"meeting-agent-relay/internal/observability/logging"
)

// Application holds process-wide state for one binary.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Configuration
}

// New constructs an Application from the provided configuration and
// initializes the global logger: console output when ENV=dev, JSON
// otherwise, level from the configuration.
func New(name string, cfg *config.Configuration) *Application {
	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Observability.LogLevel
	logCfg.Service = name
	if os.Getenv("ENV") == "dev" {
		logCfg.Format = "console"
	}
	logging.Init(logCfg)

	a := &Application{
		Cfg:    cfg,
		Logger: logging.WithComponent("application"),
	}

	a.Logger.Info().
		Str("logLevel", logCfg.Level).
		Str("environment", os.Getenv("ENV")).
		Msg("application created")
	return a
}

// Start performs any startup work required before serving traffic.
func (a *Application) Start() error {
	a.StartupTime = time.Now().UTC()
	a.Logger.Info().
		Time("startupTime", a.StartupTime).
		Msg("service starting")
	return nil
}

// Shutdown performs a best-effort cleanup before process exit.
func (a *Application) Shutdown() {
	a.Logger.Info().Msg("service shutting down")
}
