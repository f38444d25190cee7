// Package config provides centralized configuration management for fileripper.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all process configuration.
// All settings can be configured via environment variables.
type Config struct {
	Process ProcessConfig
	Export  ExportConfig
	Storage StorageConfig
	Server  ServerConfig
	Logging LoggingConfig
}

// ProcessConfig controls the polling loop.
type ProcessConfig struct {
	// DefinitionsFile is the JSON or YAML file_definitions document.
	// The command line argument takes precedence.
	DefinitionsFile string `env:"FILERIPPER_DEFINITIONS" envAlt:"DEFINITIONS_FILE"`

	// PollInterval is the pause between processing passes (default: 5m)
	PollInterval time.Duration `env:"POLL_INTERVAL" default:"5m"`

	// RunOnce runs a single pass and exits (default: false)
	RunOnce bool `env:"RUN_ONCE" default:"false"`
}

// ExportConfig bounds the time spent talking to export destinations.
type ExportConfig struct {
	// HTTPTimeout applies to a whole API export request (default: 30s)
	HTTPTimeout time.Duration `env:"EXPORT_HTTP_TIMEOUT" default:"30s"`

	// DBTimeout applies to connecting and to each database write (default: 60s)
	DBTimeout time.Duration `env:"EXPORT_DB_TIMEOUT" default:"60s"`

	// PublishTimeout is how long to wait for a broker confirm (default: 10s)
	PublishTimeout time.Duration `env:"EXPORT_PUBLISH_TIMEOUT" default:"10s"`
}

// StorageConfig locates the object store used by s3:// output paths.
type StorageConfig struct {
	Endpoint  string `env:"S3_ENDPOINT"`
	Region    string `env:"S3_REGION" default:"us-east-1"`
	AccessKey string `env:"S3_ACCESS_KEY"`
	SecretKey string `env:"S3_SECRET_KEY"`
	UseSSL    bool   `env:"S3_USE_SSL" default:"true"`
}

// ServerConfig holds status server settings.
type ServerConfig struct {
	// Enabled starts the status server alongside the polling loop (default: false)
	Enabled bool `env:"STATUS_SERVER_ENABLED" default:"false"`

	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 9090)
	Port int `env:"SERVER_PORT" default:"9090"`

	// ReadTimeout is the maximum duration for reading a request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 10s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`

	// File, when set, receives a copy of every log line.
	File string `env:"LOG_FILE"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
