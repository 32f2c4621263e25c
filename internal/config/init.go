package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds application configuration. Values are taken from
// environment variables with the prefix "ECHOMOBILE_".
// Example: ECHOMOBILE_POLL_INTERVAL=5s ECHOMOBILE_LOG_LEVEL=debug .
type Config struct {
	BaseURL      string        `envconfig:"BASE_URL"      default:"https://www.echomobile.org/api/"`
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"2s"`
	HTTPTimeout  time.Duration `envconfig:"HTTP_TIMEOUT"  default:"30s"`
	LogLevel     string        `envconfig:"LOG_LEVEL"     default:"info"`

	// Credentials may be supplied here instead of on the command line so
	// they stay out of shell history and process listings.
	Username string `envconfig:"USERNAME"`
	Password string `envconfig:"PASSWORD"`
}

// Load populates Config from environment variables (prefix ECHOMOBILE_).
func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process("ECHOMOBILE", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Init initializes logging from the loaded configuration.
func (c *Config) Init() {
	InitLogger()
	SetLogLevel(parseLogLevel(c.LogLevel))

	log.Debug().
		Str("base_url", c.BaseURL).
		Dur("poll_interval", c.PollInterval).
		Str("log_level", c.LogLevel).
		Msg("configuration loaded")
}

func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug", "DEBUG":
		return zerolog.DebugLevel
	case "info", "INFO":
		return zerolog.InfoLevel
	case "warn", "WARN":
		return zerolog.WarnLevel
	case "error", "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
