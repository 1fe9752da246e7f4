package cliconfig

import (
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all env vars",
			envVars: map[string]string{
				"COPYCAT_LOG_PATH":         "/env/commands.log",
				"COPYCAT_STORE":            "sqlite",
				"COPYCAT_TRANSPORT":        "websocket",
				"COPYCAT_URL":              "ws://env:1/joy",
				"COPYCAT_RECORD_TRIGGER":   "A",
				"COPYCAT_TRANSMIT_TRIGGER": "B",
				"COPYCAT_TICK_INTERVAL":    "10ms",
				"COPYCAT_DIAL_TIMEOUT":     "1s",
				"COPYCAT_WATCH_LOG":        "true",
				"COPYCAT_LOG_LEVEL":        "warn",
				"COPYCAT_ONCE":             "1",
			},
			changed: map[string]bool{},
			expected: Config{
				LogPath:         "/env/commands.log",
				Store:           "sqlite",
				Transport:       "websocket",
				URL:             "ws://env:1/joy",
				RecordTrigger:   "A",
				TransmitTrigger: "B",
				TickInterval:    10 * time.Millisecond,
				DialTimeout:     time.Second,
				WatchLog:        true,
				LogLevel:        "warn",
				Once:            true,
			},
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"COPYCAT_LOG_PATH": "/env/commands.log",
				"COPYCAT_STORE":    "sqlite",
			},
			changed: map[string]bool{"log-path": true},
			initial: Config{LogPath: "/flag/commands.log", Store: "file"},
			expected: Config{
				LogPath: "/flag/commands.log",
				Store:   "sqlite",
			},
		},
		{
			name:    "bool false overrides",
			envVars: map[string]string{"COPYCAT_ONCE": "false"},
			changed: map[string]bool{},
			initial: Config{Once: true},
		},
		{
			name:    "invalid duration",
			envVars: map[string]string{"COPYCAT_TICK_INTERVAL": "fast"},
			changed: map[string]bool{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)

			if tt.wantErr {
				if err == nil {
					t.Error("ApplyEnvConfig() expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyEnvConfig() unexpected error: %v", err)
			}
			if cfg != tt.expected {
				t.Errorf("config = %+v\nwant   %+v", cfg, tt.expected)
			}
		})
	}
}
