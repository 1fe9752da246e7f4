package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	LogPath         string `toml:"log_path"`
	Store           string `toml:"store"`
	Transport       string `toml:"transport"`
	URL             string `toml:"url"`
	RecordTrigger   string `toml:"record_trigger"`
	TransmitTrigger string `toml:"transmit_trigger"`
	TickInterval    string `toml:"tick_interval"`
	DialTimeout     string `toml:"dial_timeout"`
	WatchLog        *bool  `toml:"watch_log"`
	LogLevel        string `toml:"log_level"`
	Once            *bool  `toml:"once"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.copycat/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".copycat", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("log-path", fc.LogPath, &cfg.LogPath)
	s.setString("store", fc.Store, &cfg.Store)
	s.setString("transport", fc.Transport, &cfg.Transport)
	s.setString("url", fc.URL, &cfg.URL)
	s.setString("record-trigger", fc.RecordTrigger, &cfg.RecordTrigger)
	s.setString("transmit-trigger", fc.TransmitTrigger, &cfg.TransmitTrigger)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("tick", fc.TickInterval, &cfg.TickInterval); err != nil {
		return err
	}
	if err := s.setDuration("dial-timeout", fc.DialTimeout, &cfg.DialTimeout); err != nil {
		return err
	}

	s.setBool("watch-log", fc.WatchLog, &cfg.WatchLog)
	s.setBool("once", fc.Once, &cfg.Once)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
