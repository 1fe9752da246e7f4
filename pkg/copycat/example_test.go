package copycat_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bft-labs/copycat/pkg/copycat"
)

// ExampleNew demonstrates how to embed copycat in your application.
func ExampleNew() {
	dir, err := os.MkdirTemp("", "copycat-example")
	if err != nil {
		fmt.Printf("temp dir: %v\n", err)
		return
	}
	defer os.RemoveAll(dir)

	cfg := copycat.Config{
		LogPath:   filepath.Join(dir, "commands.log"),
		Transport: copycat.TransportWebSocket,
		URL:       "ws://127.0.0.1:9/joy",
	}

	c, err := copycat.New(cfg)
	if err != nil {
		fmt.Printf("failed to create copycat: %v\n", err)
		return
	}

	if err := c.Start(context.Background()); err != nil {
		fmt.Printf("failed to start: %v\n", err)
		return
	}

	status := c.Status()
	fmt.Printf("Status is valid: %v\n", status == copycat.StateStarting || status == copycat.StateRunning)

	_ = c.Stop()

	// Output: Status is valid: true
}

// Example_withEventHandler demonstrates how to observe recording and playback.
func Example_withEventHandler() {
	cfg := copycat.Config{
		LogPath:       "/var/lib/copycat/commands.log",
		RecordTrigger: "select",
	}

	c, err := copycat.New(cfg, copycat.WithEventHandler(&armLogger{}))
	if err != nil {
		fmt.Printf("failed to create copycat: %v\n", err)
		return
	}

	_ = c // Start, Stop...
}

// armLogger prints recorder and player transitions.
type armLogger struct {
	copycat.BaseEventHandler
}

func (armLogger) OnArmStateChange(e copycat.ArmStateChangeEvent) {
	fmt.Printf("%s: %s -> %s (%s)\n", e.Machine, e.Previous, e.Current, e.Reason)
}

func (armLogger) OnError(e copycat.ErrorEvent) {
	fmt.Printf("%s %s failed: %v\n", e.Machine, e.Op, e.Error)
}
