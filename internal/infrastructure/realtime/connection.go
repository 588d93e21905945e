package realtime

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	ErrChannelClosed = errors.New("channel closed")
	ErrBufferFull    = errors.New("channel buffer exceeded")
)

// Channel is one live delivery endpoint bound to a (user, conversation) pair.
type Channel interface {
	ID() string
	UserID() string
	ConversationID() string
	Send(payload []byte) error
	Close(code int, reason string)
}

// Options tune a Connection's write side.
type Options struct {
	WriteWait  time.Duration
	PingPeriod time.Duration
	SendBuffer int
}

func (o Options) withDefaults() Options {
	if o.WriteWait <= 0 {
		o.WriteWait = 10 * time.Second
	}
	if o.PingPeriod <= 0 {
		o.PingPeriod = 30 * time.Second
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 128
	}
	return o
}

// Connection wraps a websocket and coordinates outbound writes via a buffered channel.
// A connection is scoped to one user and one conversation and is safe for concurrent use.
type Connection struct {
	id             string
	userID         string
	conversationID string

	ws    *websocket.Conn
	opts  Options
	send  chan []byte
	once  sync.Once
	close chan struct{}
}

var _ Channel = (*Connection)(nil)

// NewConnection constructs a Connection for the given user and conversation.
func NewConnection(userID, conversationID string, ws *websocket.Conn, opts Options) *Connection {
	opts = opts.withDefaults()
	return &Connection{
		id:             uuid.NewString(),
		userID:         userID,
		conversationID: conversationID,
		ws:             ws,
		opts:           opts,
		send:           make(chan []byte, opts.SendBuffer),
		close:          make(chan struct{}),
	}
}

func (c *Connection) ID() string             { return c.id }
func (c *Connection) UserID() string         { return c.userID }
func (c *Connection) ConversationID() string { return c.conversationID }

// Done is closed once the connection has been closed.
func (c *Connection) Done() <-chan struct{} { return c.close }

// Start launches the write loop. It must be called exactly once per connection.
func (c *Connection) Start() {
	go c.writeLoop()
}

// Send enqueues payload for delivery. If the client is slow and the buffer is full,
// the connection is closed to keep backpressure bounded.
func (c *Connection) Send(payload []byte) error {
	select {
	case <-c.close:
		return ErrChannelClosed
	default:
	}
	select {
	case <-c.close:
		return ErrChannelClosed
	case c.send <- payload:
		return nil
	default:
		// Close writes a control frame; keep it off the publisher's goroutine.
		go c.Close(websocket.ClosePolicyViolation, "send buffer full")
		return ErrBufferFull
	}
}

// Close terminates the connection and stops the write loop. The send queue is
// never closed so a concurrent Send cannot panic.
func (c *Connection) Close(code int, reason string) {
	c.once.Do(func() {
		close(c.close)
		deadline := time.Now().Add(c.opts.WriteWait)
		_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
		_ = c.ws.Close()
	})
}

func (c *Connection) writeLoop() {
	ticker := time.NewTicker(c.opts.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.close:
			return
		case msg := <-c.send:
			if err := c.writeMessage(msg); err != nil {
				c.Close(websocket.CloseAbnormalClosure, "write failed")
				return
			}
		case <-ticker.C:
			if err := c.writePing(); err != nil {
				c.Close(websocket.CloseAbnormalClosure, "ping failed")
				return
			}
		}
	}
}

func (c *Connection) writeMessage(payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}

func (c *Connection) writePing() error {
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.opts.WriteWait))
}
