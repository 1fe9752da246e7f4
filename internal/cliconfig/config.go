package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/copycat/internal/domain"
)

// Store backends.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// Transports for the joypad input and output channels.
const (
	TransportStdio     = "stdio"
	TransportWebSocket = "websocket"
)

// Config holds CLI configuration for copycat.
type Config struct {
	LogPath   string
	Store     string
	Transport string
	URL       string

	RecordTrigger   string
	TransmitTrigger string

	TickInterval time.Duration
	DialTimeout  time.Duration

	WatchLog bool
	LogLevel string
	Once     bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	triggers := domain.DefaultTriggers()
	return Config{
		Store:           StoreFile,
		Transport:       TransportStdio,
		RecordTrigger:   string(triggers.Record),
		TransmitTrigger: string(triggers.Transmit),
		TickInterval:    50 * time.Millisecond,
		DialTimeout:     5 * time.Second,
		LogLevel:        "info",
		LogPath:         "", // Derived from Store during Validate
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	c.Transport = strings.ToLower(strings.TrimSpace(c.Transport))

	switch c.Store {
	case StoreFile, StoreSQLite:
	default:
		return fmt.Errorf("%w: unknown store %q (want %s or %s)", domain.ErrInvalidConfig, c.Store, StoreFile, StoreSQLite)
	}

	switch c.Transport {
	case TransportStdio:
	case TransportWebSocket:
		if c.URL == "" {
			return fmt.Errorf("%w: url is required for the websocket transport", domain.ErrInvalidConfig)
		}
		if !strings.HasPrefix(c.URL, "ws://") && !strings.HasPrefix(c.URL, "wss://") {
			return fmt.Errorf("%w: url must use ws:// or wss://, got %q", domain.ErrInvalidConfig, c.URL)
		}
	default:
		return fmt.Errorf("%w: unknown transport %q (want %s or %s)", domain.ErrInvalidConfig, c.Transport, TransportStdio, TransportWebSocket)
	}

	if c.LogPath == "" {
		c.LogPath = DefaultLogPath(c.Store)
		if c.LogPath == "" {
			return fmt.Errorf("%w: log-path is required (home directory unavailable)", domain.ErrInvalidConfig)
		}
	}

	c.RecordTrigger = strings.TrimSpace(c.RecordTrigger)
	c.TransmitTrigger = strings.TrimSpace(c.TransmitTrigger)
	if c.RecordTrigger == "" || c.TransmitTrigger == "" {
		return fmt.Errorf("%w: record and transmit triggers must not be empty", domain.ErrInvalidConfig)
	}
	if c.RecordTrigger == c.TransmitTrigger {
		return fmt.Errorf("%w: record and transmit triggers must differ", domain.ErrInvalidConfig)
	}

	if c.TickInterval <= 0 {
		return fmt.Errorf("%w: tick interval must be positive", domain.ErrInvalidConfig)
	}
	if c.DialTimeout <= 0 {
		return fmt.Errorf("%w: dial timeout must be positive", domain.ErrInvalidConfig)
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log level: %v", domain.ErrInvalidConfig, err)
	}

	if c.WatchLog && c.Store != StoreFile {
		return fmt.Errorf("%w: watch-log requires the %s store", domain.ErrInvalidConfig, StoreFile)
	}

	return nil
}

// DefaultLogPath returns the recording location under ~/.copycat for store.
func DefaultLogPath(store string) string {
	h, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	name := "commands.log"
	if store == StoreSQLite {
		name = "commands.db"
	}
	return filepath.Join(h, ".copycat", name)
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
