package cliconfig

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// envConfig holds the raw COPYCAT_* variables. Values stay strings so an
// unset variable is distinguishable from a zero value.
type envConfig struct {
	LogPath         string `env:"COPYCAT_LOG_PATH"`
	Store           string `env:"COPYCAT_STORE"`
	Transport       string `env:"COPYCAT_TRANSPORT"`
	URL             string `env:"COPYCAT_URL"`
	RecordTrigger   string `env:"COPYCAT_RECORD_TRIGGER"`
	TransmitTrigger string `env:"COPYCAT_TRANSMIT_TRIGGER"`
	TickInterval    string `env:"COPYCAT_TICK_INTERVAL"`
	DialTimeout     string `env:"COPYCAT_DIAL_TIMEOUT"`
	WatchLog        string `env:"COPYCAT_WATCH_LOG"`
	LogLevel        string `env:"COPYCAT_LOG_LEVEL"`
	Once            string `env:"COPYCAT_ONCE"`
}

// ApplyEnvConfig applies configuration from environment variables (COPYCAT_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	s := newConfigSetter(changed)

	s.setString("log-path", ec.LogPath, &cfg.LogPath)
	s.setString("store", ec.Store, &cfg.Store)
	s.setString("transport", ec.Transport, &cfg.Transport)
	s.setString("url", ec.URL, &cfg.URL)
	s.setString("record-trigger", ec.RecordTrigger, &cfg.RecordTrigger)
	s.setString("transmit-trigger", ec.TransmitTrigger, &cfg.TransmitTrigger)
	s.setString("log-level", ec.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("tick", ec.TickInterval, &cfg.TickInterval); err != nil {
		return err
	}
	if err := s.setDuration("dial-timeout", ec.DialTimeout, &cfg.DialTimeout); err != nil {
		return err
	}

	s.setBoolFromString("watch-log", ec.WatchLog, &cfg.WatchLog)
	s.setBoolFromString("once", ec.Once, &cfg.Once)

	return nil
}
