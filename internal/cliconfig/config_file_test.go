package cliconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	trueVal := true

	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all values",
			fileConfig: FileConfig{
				LogPath:         "/data/commands.db",
				Store:           "sqlite",
				Transport:       "websocket",
				URL:             "ws://bridge:9090/joy",
				RecordTrigger:   "rec",
				TransmitTrigger: "play",
				TickInterval:    "20ms",
				DialTimeout:     "2s",
				WatchLog:        &trueVal,
				LogLevel:        "debug",
				Once:            &trueVal,
			},
			changed: map[string]bool{},
			expected: Config{
				LogPath:         "/data/commands.db",
				Store:           "sqlite",
				Transport:       "websocket",
				URL:             "ws://bridge:9090/joy",
				RecordTrigger:   "rec",
				TransmitTrigger: "play",
				TickInterval:    20 * time.Millisecond,
				DialTimeout:     2 * time.Second,
				WatchLog:        true,
				LogLevel:        "debug",
				Once:            true,
			},
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				LogPath:      "/config/commands.log",
				TickInterval: "1s",
				Once:         &trueVal,
			},
			changed: map[string]bool{"log-path": true, "tick": true, "once": true},
			initial: Config{
				LogPath:      "/flag/commands.log",
				TickInterval: 10 * time.Millisecond,
			},
			expected: Config{
				LogPath:      "/flag/commands.log",
				TickInterval: 10 * time.Millisecond,
			},
		},
		{
			name:       "empty values keep defaults",
			fileConfig: FileConfig{},
			changed:    map[string]bool{},
			initial:    DefaultConfig(),
			expected:   DefaultConfig(),
		},
		{
			name:       "invalid duration",
			fileConfig: FileConfig{TickInterval: "soon"},
			changed:    map[string]bool{},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)

			if tt.wantErr {
				if err == nil {
					t.Error("ApplyFileConfig() expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyFileConfig() unexpected error: %v", err)
			}
			if cfg != tt.expected {
				t.Errorf("config = %+v\nwant   %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")

	tomlContent := `
log_path = "/var/lib/copycat/commands.log"
transport = "websocket"
url = "ws://127.0.0.1:9090/joy"
tick_interval = "25ms"
watch_log = true
`
	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	if fc.LogPath != "/var/lib/copycat/commands.log" {
		t.Errorf("LogPath = %v", fc.LogPath)
	}
	if fc.Transport != "websocket" || fc.URL != "ws://127.0.0.1:9090/joy" {
		t.Errorf("transport = %v url = %v", fc.Transport, fc.URL)
	}
	if fc.TickInterval != "25ms" {
		t.Errorf("TickInterval = %v, want 25ms", fc.TickInterval)
	}
	if fc.WatchLog == nil || !*fc.WatchLog {
		t.Errorf("WatchLog = %v, want true", fc.WatchLog)
	}
	if fc.Once != nil {
		t.Errorf("Once = %v, want unset", *fc.Once)
	}
}

func TestLoadFileConfig_Errors(t *testing.T) {
	if _, err := LoadFileConfig("/nonexistent/path/config.toml"); err == nil {
		t.Error("LoadFileConfig() expected error for nonexistent file")
	}

	configPath := filepath.Join(t.TempDir(), "invalid.toml")
	if err := os.WriteFile(configPath, []byte("store = \"file\"\nthis is not valid toml\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFileConfig(configPath); err == nil {
		t.Error("LoadFileConfig() expected error for invalid TOML")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()

	if path != "" && !strings.HasSuffix(path, filepath.Join(".copycat", "config.toml")) {
		t.Errorf("DefaultConfigPath() = %v, want .copycat/config.toml", path)
	}
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	existingFile := filepath.Join(tmpDir, "exists.txt")

	if err := os.WriteFile(existingFile, []byte("test"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if !FileExists(existingFile) {
		t.Error("FileExists() = false, want true for existing file")
	}
	if FileExists(filepath.Join(tmpDir, "nonexistent.txt")) {
		t.Error("FileExists() = true, want false for nonexistent file")
	}
}
