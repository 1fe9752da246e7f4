// Package ws connects copycat to a joypad bridge over a WebSocket.
package ws

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"

	"github.com/bft-labs/copycat/internal/domain"
	"github.com/bft-labs/copycat/internal/ports"
)

// DefaultDialTimeout bounds the handshake with the bridge.
const DefaultDialTimeout = 5 * time.Second

// Channel is both the input and the output channel: every frame read from the
// socket is an inbound payload and every published payload is written back as
// a frame. A failed dial, read or write drops the connection and reports
// domain.ErrChannelUnavailable; the next call dials again.
type Channel struct {
	url    string
	header http.Header
	dialer *websocket.Dialer
	logger ports.Logger

	mu   sync.Mutex
	conn *websocket.Conn

	// gorilla allows one concurrent reader and one concurrent writer
	writeMu sync.Mutex
}

// NewChannel creates a channel for the bridge at url. Nothing is dialed until
// the first Receive or Publish.
func NewChannel(url string, dialTimeout time.Duration, logger ports.Logger) *Channel {
	if dialTimeout <= 0 {
		dialTimeout = DefaultDialTimeout
	}
	return &Channel{
		url:    url,
		header: http.Header{},
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: dialTimeout,
		},
		logger: logger,
	}
}

// Receive reads the next frame from the bridge.
func (c *Channel) Receive(ctx context.Context) ([]byte, error) {
	conn, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	// ReadMessage does not take a context; closing the connection unblocks it.
	stop := context.AfterFunc(ctx, func() { c.drop(conn) })
	defer stop()

	_, data, err := conn.ReadMessage()
	if err != nil {
		c.drop(conn)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: read: %v", domain.ErrChannelUnavailable, err)
	}
	return data, nil
}

// Publish writes payload as a text frame when it is valid UTF-8 and as a
// binary frame otherwise.
func (c *Channel) Publish(ctx context.Context, payload []byte) error {
	conn, err := c.connect(ctx)
	if err != nil {
		return err
	}

	msgType := websocket.BinaryMessage
	if utf8.Valid(payload) {
		msgType = websocket.TextMessage
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	} else {
		_ = conn.SetWriteDeadline(time.Time{})
	}
	if err := conn.WriteMessage(msgType, payload); err != nil {
		c.drop(conn)
		return fmt.Errorf("%w: write: %v", domain.ErrChannelUnavailable, err)
	}
	return nil
}

// Close sends a close frame and releases the connection.
func (c *Channel) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	c.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	return conn.Close()
}

func (c *Channel) connect(ctx context.Context) (*websocket.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return c.conn, nil
	}
	conn, resp, err := c.dialer.DialContext(ctx, c.url, c.header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", domain.ErrChannelUnavailable, c.url, err)
	}
	c.logger.Info("connected to joypad bridge", ports.String("url", c.url))
	c.conn = conn
	return conn, nil
}

// drop forgets conn if it is still the current connection.
func (c *Channel) drop(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
	_ = conn.Close()
}
