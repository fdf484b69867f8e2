// Package config loads application configuration from environment variables
// with defaults, and validates it on startup.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Session SessionConfig
	Convert ConvertConfig
	Logging LoggingConfig
}

// ServerConfig holds HTTP server settings for `tabula serve`.
type ServerConfig struct {
	// Host is the interface to bind to (default: 127.0.0.1)
	Host string `env:"SERVER_HOST" default:"127.0.0.1"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"15s"`
}

// StorageConfig locates the object store used for saved conversions.
type StorageConfig struct {
	// Dir is the root directory of the store (default: .tabula)
	Dir string `env:"STORAGE_DIR" default:".tabula"`

	// Bucket groups saved files under Dir (default: converted)
	Bucket string `env:"STORAGE_BUCKET" default:"converted"`
}

// SessionConfig identifies the local user for the CLI and terminal UI.
// An empty UserID means nobody is signed in and saving is disabled.
type SessionConfig struct {
	UserID string `env:"TABULA_USER" envAlt:"USER_ID"`
}

// ConvertConfig holds conversion limits.
type ConvertConfig struct {
	// MaxFileSize is the maximum accepted upload size in bytes (default: 32MB)
	MaxFileSize int64 `env:"CONVERT_MAX_FILE_SIZE" default:"33554432"`

	// PreviewRows is the number of rows shown in previews (default: 10)
	PreviewRows int `env:"CONVERT_PREVIEW_ROWS" default:"10"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`

	// File receives logs instead of stdout when set. The terminal UI needs
	// this since it owns the screen.
	File string `env:"LOG_FILE"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
