package copycat

import (
	"fmt"
	"strings"
	"time"

	"github.com/bft-labs/copycat/internal/domain"
)

// Store backends.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// Transports for the input and output channels.
const (
	TransportStdio     = "stdio"
	TransportWebSocket = "websocket"
)

// Default configuration values.
const (
	DefaultTickInterval    = 50 * time.Millisecond
	DefaultDialTimeout     = 5 * time.Second
	DefaultRecordTrigger   = "start"
	DefaultTransmitTrigger = "X"
)

// Config holds the configuration for a Copycat instance.
type Config struct {
	// LogPath is where the latest recording is persisted.
	// Required unless a store is injected with WithStore.
	LogPath string

	// Store selects the persistence backend: "file" (default) or "sqlite".
	Store string

	// Transport selects the input/output channel: "stdio" (default) or
	// "websocket". Ignored when both WithSource and WithPublisher are given.
	Transport string

	// URL is the joypad bridge address for the websocket transport.
	URL string

	// RecordTrigger toggles recording. Default: "start"
	RecordTrigger string

	// TransmitTrigger starts (or restarts) playback. Default: "X"
	TransmitTrigger string

	// TickInterval is the playback polling cadence. Default: 50ms
	TickInterval time.Duration

	// DialTimeout bounds each websocket dial. Default: 5s
	DialTimeout time.Duration

	// Once stops the instance after the input channel closes and playback
	// has finished.
	Once bool
}

// SetDefaults fills in zero-valued fields with defaults.
func (c *Config) SetDefaults() {
	if c.Store == "" {
		c.Store = StoreFile
	}
	if c.Transport == "" {
		c.Transport = TransportStdio
	}
	c.RecordTrigger = strings.TrimSpace(c.RecordTrigger)
	c.TransmitTrigger = strings.TrimSpace(c.TransmitTrigger)
	if c.RecordTrigger == "" {
		c.RecordTrigger = DefaultRecordTrigger
	}
	if c.TransmitTrigger == "" {
		c.TransmitTrigger = DefaultTransmitTrigger
	}
	if c.TickInterval == 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = DefaultDialTimeout
	}
}

// Validate checks the configuration. Call SetDefaults first.
func (c Config) Validate() error {
	switch c.Store {
	case StoreFile, StoreSQLite:
	default:
		return fmt.Errorf("%w: unknown store %q", domain.ErrInvalidConfig, c.Store)
	}
	switch c.Transport {
	case TransportStdio, TransportWebSocket:
	default:
		return fmt.Errorf("%w: unknown transport %q", domain.ErrInvalidConfig, c.Transport)
	}
	record, transmit := strings.TrimSpace(c.RecordTrigger), strings.TrimSpace(c.TransmitTrigger)
	if record == "" || transmit == "" {
		return fmt.Errorf("%w: record and transmit triggers must not be blank", domain.ErrInvalidConfig)
	}
	if record == transmit {
		return fmt.Errorf("%w: record and transmit triggers must differ", domain.ErrInvalidConfig)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("%w: tick interval must be positive", domain.ErrInvalidConfig)
	}
	if c.DialTimeout <= 0 {
		return fmt.Errorf("%w: dial timeout must be positive", domain.ErrInvalidConfig)
	}
	return nil
}

func (c Config) triggers() domain.Triggers {
	return domain.Triggers{
		Record:   []byte(strings.TrimSpace(c.RecordTrigger)),
		Transmit: []byte(strings.TrimSpace(c.TransmitTrigger)),
	}
}
