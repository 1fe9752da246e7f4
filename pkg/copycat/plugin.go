package copycat

import "context"

// Plugin extends a Copycat instance with optional behavior.
// Plugins are initialized in registration order on Start, after the store
// is opened, and shut down in reverse order on Stop.
type Plugin interface {
	Name() string
	Initialize(ctx context.Context, cfg PluginConfig) error
	Shutdown(ctx context.Context) error
}

// PluginConfig is passed to plugins on Initialize.
type PluginConfig struct {
	// LogPath and StoreKind describe where the recording lives.
	LogPath   string
	StoreKind string

	// Store is the command log in use.
	Store CommandLog

	Logger Logger
}
