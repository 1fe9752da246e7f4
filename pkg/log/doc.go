// Package log provides the logging abstraction used by copycat components.
//
// The engine, the stores and the transports log through the [Logger]
// interface so an embedding application can route copycat output into its
// own logging stack. A zerolog adapter and a no-op logger are provided.
//
//	logger := log.NewZerologAdapterWithLogger(zerolog.New(os.Stderr))
//	logger.Info("recording committed", log.String("session", id), log.Int("commands", n))
//
// Tests usually pass [NewNoopLogger].
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package log
