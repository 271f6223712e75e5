package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	// maxMsgSize bounds one inbound frame; an op.submit carrying a full
	// element fits well inside it.
	maxMsgSize = 1 << 20
	sendBuffer = 256
)

// Client is one websocket connection to the document room. Inbound frames
// are op.submit, presence.update and doc.sync; outbound frames are the
// welcome, acks, nacks, doc.changed broadcasts, presence and notices.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	UserID      string
	DisplayName string
	// ClientID is minted per connection and keys presence and acks.
	ClientID string

	// mu guards closed so Send never writes to a closed queue after the hub
	// drops the client.
	mu     sync.Mutex
	queue  chan []byte
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, userID, displayName, clientID string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		UserID:      userID,
		DisplayName: displayName,
		ClientID:    clientID,
		queue:       make(chan []byte, sendBuffer),
	}
}

// Serve registers the client and runs it until the connection ends or ctx
// is cancelled.
func (c *Client) Serve(ctx context.Context) {
	c.hub.Register(c)
	go c.writeLoop(ctx)
	c.readLoop(ctx)
}

// readLoop decodes inbound frames and hands them to the hub stamped with
// this connection's identity; whatever ids the frame claims are replaced.
func (c *Client) readLoop(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()
	c.conn.SetReadLimit(maxMsgSize)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if s := websocket.CloseStatus(err); s != websocket.StatusNormalClosure && s != websocket.StatusGoingAway {
				c.hub.logger.Debug("read error", "error", err, "client", c.ClientID)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.hub.logger.Warn("invalid message", "error", err, "client", c.ClientID)
			c.sendError("malformed message")
			continue
		}
		msg.UserID, msg.ClientID = c.UserID, c.ClientID
		c.hub.handleMessage(c, &msg)
	}
}

// writeLoop drains the queue onto the socket and keeps the connection alive
// with pings. It exits when the hub closes the queue.
func (c *Client) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case frame, ok := <-c.queue:
			if !ok {
				return
			}
			if err := c.write(ctx, frame); err != nil {
				c.hub.logger.Debug("write error", "error", err, "client", c.ClientID)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) write(ctx context.Context, frame []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return c.conn.Write(ctx, websocket.MessageText, frame)
}

// Send queues msg without blocking. A client that falls a full buffer
// behind misses the message; doc.sync recovers the latest document.
func (c *Client) Send(msg *Message) {
	frame, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "error", err, "type", msg.Type)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.queue <- frame:
	default:
		c.hub.logger.Warn("send queue full, dropping message", "client", c.ClientID, "type", msg.Type)
	}
}

func (c *Client) sendError(text string) {
	msg, err := newMessage(TypeError, ErrorPayload{Message: text})
	if err != nil {
		return
	}
	c.Send(msg)
}

// close ends the write loop. Safe to call more than once.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.queue)
	}
}
