package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"presence-lab/domain"
	errs "presence-lab/errors"
)

const (
	// Time allowed to write one frame to the peer.
	writeWait = 10 * time.Second
	// The read deadline is refreshed on every pong; a silent peer is cut
	// after this long.
	pongWait = 60 * time.Second
	// Pings must go out more often than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// Client is the per-connection actor: a receive loop that parses,
// validates and dispatches inbound frames strictly in arrival order, and
// an independent send loop draining the bounded outbound queue onto the
// socket. The send side never blocks the receive side.
type Client struct {
	id         domain.ConnectionID
	conn       *websocket.Conn
	dispatcher *Dispatcher
	log        *slog.Logger

	send    chan []byte
	mu      sync.RWMutex
	closed  bool
	cleanup sync.Once

	maxMessageSize int64
}

func newClient(conn *websocket.Conn, dispatcher *Dispatcher, queueSize int, maxMessageSize int64, log *slog.Logger) *Client {
	return &Client{
		id:             domain.ConnectionID(uuid.NewString()),
		conn:           conn,
		dispatcher:     dispatcher,
		log:            log,
		send:           make(chan []byte, queueSize),
		maxMessageSize: maxMessageSize,
	}
}

// Enqueue implements contract.OutboundQueue. It never blocks: a full
// queue rejects the frame so a stalled consumer only loses its own
// traffic.
func (c *Client) Enqueue(frame []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return errs.ErrQueueClosed
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return errs.ErrQueueFull
	}
}

func (c *Client) closeQueue() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()
}

// shutdown runs the disconnect cleanup exactly once, regardless of which
// loop terminated first or how often it is invoked.
func (c *Client) shutdown(ctx context.Context) {
	c.cleanup.Do(func() {
		c.dispatcher.Disconnect(ctx, c.id)
		c.closeQueue()
		_ = c.conn.Close()
		c.log.Info("Connection closed", "connection", c.id)
	})
}

// readPump processes inbound frames one at a time until the socket
// fails or closes, then triggers cleanup. A panic while handling a frame
// is caught here, at the task boundary, and terminates only this
// connection.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("Recovered from panic in connection handler", "connection", c.id, "panic", r)
		}
		c.shutdown(ctx)
	}()

	c.conn.SetReadLimit(c.maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Warn("Receive loop terminated", "connection", c.id, "error", err)
			} else {
				c.log.Debug("Connection closed by peer", "connection", c.id, "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		c.dispatcher.Dispatch(ctx, c.id, c, raw)
	}
}

// writePump drains the outbound queue onto the socket and keeps the
// connection alive with pings. A write failure terminates only this
// loop; closing the socket makes the receive loop run cleanup.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.log.Warn("Send loop terminated", "connection", c.id, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
