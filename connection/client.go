package connection

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// client owns the send queue of one connection. Lines are written in the
// order they were queued.
type client struct {
	id        string
	transport Transport
	send      chan string
	closing   chan struct{}
	closeOnce sync.Once
	logger    zerolog.Logger
}

func newClient(id string, transport Transport, queueSize int, logger zerolog.Logger) *client {
	return &client{
		id:        id,
		transport: transport,
		send:      make(chan string, queueSize),
		closing:   make(chan struct{}),
		logger:    logger,
	}
}

// enqueue never blocks the caller. A client that cannot keep up is dropped.
func (c *client) enqueue(line string) {
	select {
	case <-c.closing:
		return
	default:
	}
	select {
	case c.send <- line:
	default:
		c.logger.Warn().Msg("Send queue is full. Dropping the connection")
		c.close()
	}
}

// close asks the writer to flush what is queued and close the transport.
func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.closing)
	})
}

func (c *client) writeLoop(ctx context.Context) {
	defer c.transport.Close()
	for {
		select {
		case line := <-c.send:
			if !c.write(ctx, line) {
				return
			}
		case <-c.closing:
			c.flush(ctx)
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *client) flush(ctx context.Context) {
	for {
		select {
		case line := <-c.send:
			if !c.write(ctx, line) {
				return
			}
		default:
			return
		}
	}
}

func (c *client) write(ctx context.Context, line string) bool {
	err := c.transport.WriteLine(ctx, line)
	if err != nil {
		c.logger.Debug().Err(err).Msg("Write failed")
		c.close()
		return false
	}
	return true
}
