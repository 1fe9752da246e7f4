// Package stdio implements a line-oriented channel over an io.Reader and io.Writer.
package stdio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/bft-labs/copycat/internal/domain"
)

// maxLine bounds a single inbound payload.
const maxLine = 1 << 20

// LineChannel reads one payload per line and writes one payload per line.
// Embedded newlines in published payloads are not escaped.
type LineChannel struct {
	scanner *bufio.Scanner

	mu sync.Mutex
	w  io.Writer
}

// NewLineChannel creates a channel reading from r and writing to w.
func NewLineChannel(r io.Reader, w io.Writer) *LineChannel {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLine)
	return &LineChannel{scanner: sc, w: w}
}

// Receive returns the next line without its terminator. It returns io.EOF
// when the reader is exhausted. A blocked read is not interrupted by ctx.
func (c *LineChannel) Receive(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return nil, fmt.Errorf("%w: read: %v", domain.ErrChannelUnavailable, err)
		}
		return nil, io.EOF
	}
	line := c.scanner.Bytes()
	out := make([]byte, len(line))
	copy(out, line)
	return out, nil
}

// Publish writes payload followed by a newline.
func (c *LineChannel) Publish(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	buf := make([]byte, 0, len(payload)+1)
	buf = append(buf, payload...)
	buf = append(buf, '\n')
	if _, err := c.w.Write(buf); err != nil {
		return fmt.Errorf("%w: write: %v", domain.ErrChannelUnavailable, err)
	}
	return nil
}
