package logwatcher

import "github.com/bft-labs/copycat/pkg/copycat"

// WithLogWatcher returns a copycat Option that reloads the recording when
// the command log file changes on disk.
//
// Usage:
//
//	c, err := copycat.New(cfg,
//	    logwatcher.WithLogWatcher(logwatcher.Config{
//	        DebounceDelay: 250 * time.Millisecond,
//	    }),
//	)
func WithLogWatcher(cfg Config) copycat.Option {
	return copycat.WithPlugin(New(cfg))
}
