// Package ports defines the interfaces that connect the copycat application
// layer to infrastructure adapters.
//
// # Port Interfaces
//
//   - [CommandLog]: durable storage of the single latest recording
//   - [CommandSource]: the input channel delivering control payloads
//   - [CommandPublisher]: the output channel accepting replayed payloads
//   - [Clock]: time source and tick scheduling
//   - [Logger]: structured logging abstraction
//
// The application layer (internal/app) depends only on these interfaces.
// Adapters (internal/adapters) implement them with files, SQLite,
// WebSockets and stdio.
package ports
