package ports

import "context"

// CommandSource delivers control payloads from the input channel.
type CommandSource interface {
	// Receive blocks until the next payload arrives.
	// Returns io.EOF when the channel is closed for good, and an error
	// wrapping domain.ErrChannelUnavailable when it is temporarily unreachable.
	Receive(ctx context.Context) ([]byte, error)
}

// CommandPublisher writes payloads to the output channel.
type CommandPublisher interface {
	// Publish sends one payload. An error wrapping domain.ErrChannelUnavailable
	// means the caller should retry later.
	Publish(ctx context.Context, payload []byte) error
}
