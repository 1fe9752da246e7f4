// Package copycat provides an embeddable record-and-replay engine for
// control-input streams such as a joypad feed driving a robot.
//
// While recording is armed, every inbound command is stored together with
// its offset from the arming instant. Disarming commits the session
// atomically, replacing the previous recording. A transmit trigger replays
// the latest recording onto the output channel with the original relative
// timing.
//
// # Basic Usage
//
//	cfg := copycat.Config{
//	    LogPath:   "/var/lib/copycat/commands.log",
//	    Transport: copycat.TransportWebSocket,
//	    URL:       "ws://localhost:9090/joy",
//	}
//
//	c, err := copycat.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := c.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	// ... run until shutdown signal ...
//	if err := c.Stop(); err != nil {
//	    log.Printf("shutdown error: %v", err)
//	}
//
// # Triggers
//
// Two payloads on the input channel are control signals and are never
// recorded: [Config.RecordTrigger] (default "start") toggles recording and
// [Config.TransmitTrigger] (default "X") starts playback, restarting it from
// the beginning if it is already running. Everything else is a command.
//
// # Event Handling
//
// Implement [EventHandler] (embedding [BaseEventHandler] for no-op defaults)
// and pass it via [WithEventHandler] to observe lifecycle transitions,
// recorder and player arm state changes, and engine errors.
//
// # Dependency Injection
//
// [WithStore], [WithSource], [WithPublisher] and [WithClock] replace the
// configured store, channels and wall clock.
//
// # Plugins
//
//	import "github.com/bft-labs/copycat/plugins/logwatcher"
//
//	c, err := copycat.New(cfg, logwatcher.WithLogWatcher(logwatcher.DefaultConfig()))
package copycat
