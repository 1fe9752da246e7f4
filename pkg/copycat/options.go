package copycat

import (
	"github.com/bft-labs/copycat/internal/ports"
	"github.com/bft-labs/copycat/pkg/log"
)

// Logger is the interface for structured logging.
type Logger = log.Logger

// LogField represents a structured log field.
type LogField = log.Field

// CommandLog stores the latest recording. See WithStore.
type CommandLog = ports.CommandLog

// CommandSource is the input channel. See WithSource.
type CommandSource = ports.CommandSource

// CommandPublisher is the output channel. See WithPublisher.
type CommandPublisher = ports.CommandPublisher

// Clock is the time source for offsets and ticks. See WithClock.
type Clock = ports.Clock

// Option configures optional behavior of Copycat.
type Option func(*options)

type options struct {
	logger       Logger
	eventHandler EventHandler
	plugins      []Plugin
	clock        Clock
	source       CommandSource
	publisher    CommandPublisher
	store        CommandLog
}

func defaultOptions() options {
	return options{
		logger: log.NewNoopLogger(),
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventHandler sets a handler for copycat events.
// If not provided, no events are emitted.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPlugin registers a plugin to be initialized when Copycat starts.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

// WithClock replaces the wall clock, typically with a virtual clock in tests.
func WithClock(clock Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithSource replaces the configured transport's input channel.
func WithSource(source CommandSource) Option {
	return func(o *options) {
		o.source = source
	}
}

// WithPublisher replaces the configured transport's output channel.
func WithPublisher(publisher CommandPublisher) Option {
	return func(o *options) {
		o.publisher = publisher
	}
}

// WithStore replaces the configured store. Copycat does not close an
// injected store.
func WithStore(store CommandLog) Option {
	return func(o *options) {
		o.store = store
	}
}
