// Package collab is the websocket transport of the bridge. Clients submit
// operations and receive the document after every committed change.
package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/fraction12/wireflow/internal/bridge"
	"github.com/fraction12/wireflow/internal/document"
	"github.com/fraction12/wireflow/internal/engine"
)

type Hub struct {
	bridge *bridge.Bridge
	logger *slog.Logger

	mu       sync.RWMutex
	clients  map[string]*Client // clientID -> client
	presence *presenceTable
	seq      atomic.Uint64

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	originPatterns []string
}

// NewHub creates a hub over b. Register DocumentChanged with the engine's
// OnCommit so every connected client sees every change.
func NewHub(b *bridge.Bridge, originPatterns []string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		bridge:         b,
		logger:         logger,
		clients:        make(map[string]*Client),
		presence:       newPresenceTable(),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		done:           make(chan struct{}),
		originPatterns: originPatterns,
	}
}

// Run processes joins and leaves until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ServeWS upgrades the request and serves one client until it
// disconnects. Callers authenticate the request first.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID, displayName string) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.logger.Error("websocket accept", "error", err)
		return
	}

	NewClient(h, conn, userID, displayName, uuid.New().String()).Serve(r.Context())
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) addClient(client *Client) {
	// Holding the engine while joining keeps the welcome document and the
	// first doc.changed the client sees in order.
	h.bridge.Do(func(e *engine.Engine) {
		h.mu.Lock()
		h.clients[client.ClientID] = client
		h.mu.Unlock()

		welcome, err := newMessage(TypeWelcome, WelcomePayload{
			ClientID: client.ClientID,
			Revision: h.seq.Load(),
			Document: e.Document(),
		})
		if err != nil {
			h.logger.Error("marshal welcome", "error", err)
			return
		}
		client.Send(welcome)
	})

	if stateMsg := h.presence.stateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}

	joinMsg, _ := newMessage(TypePresenceJoin, PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	joinMsg.UserID = client.UserID
	h.broadcast(joinMsg, client.ClientID)

	h.logger.Info("client joined", "user", client.UserID, "client", client.ClientID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.ClientID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.ClientID)
	client.close()
	h.mu.Unlock()
	h.presence.drop(client.ClientID)

	leaveMsg, _ := newMessage(TypePresenceLeave, PresenceLeavePayload{UserID: client.UserID})
	leaveMsg.UserID = client.UserID
	h.broadcast(leaveMsg, "")

	h.logger.Info("client left", "user", client.UserID, "client", client.ClientID)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		c.close()
		delete(h.clients, id)
	}
}

// DocumentChanged broadcasts a committed document to every client.
func (h *Hub) DocumentChanged(state *document.DocumentState) {
	msg, err := newMessage(TypeDocChanged, DocChangedPayload{
		Revision: h.seq.Add(1),
		Document: state,
	})
	if err != nil {
		h.logger.Error("marshal document", "error", err)
		return
	}
	h.broadcast(msg, "")
}

// Notify relays an engine or autosave notice to every client.
func (h *Hub) Notify(n engine.Notice) {
	msg, err := newMessage(TypeNotice, n)
	if err != nil {
		return
	}
	h.broadcast(msg, "")
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	case TypeOpSubmit:
		h.handleOpSubmit(sender, msg)
	case TypeDocSync:
		h.handleDocSync(sender)
	default:
		h.logger.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
		errMsg, _ := newMessage(TypeError, ErrorPayload{Message: "unknown message type " + msg.Type})
		sender.Send(errMsg)
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		h.logger.Warn("invalid presence payload", "error", err)
		return
	}
	presence.DisplayName = sender.DisplayName
	if !h.presence.set(sender.ClientID, presence) {
		return
	}

	outMsg, _ := newMessage(TypePresenceUpdate, presence)
	outMsg.UserID = sender.UserID
	outMsg.ClientID = sender.ClientID
	h.broadcast(outMsg, sender.ClientID)
}

// handleDocSync resends the current document to one client.
func (h *Hub) handleDocSync(sender *Client) {
	h.bridge.Do(func(e *engine.Engine) {
		msg, err := newMessage(TypeDocSync, DocChangedPayload{
			Revision: h.seq.Load(),
			Document: e.Document(),
		})
		if err != nil {
			h.logger.Error("marshal document", "error", err)
			return
		}
		sender.Send(msg)
	})
}

func (h *Hub) broadcast(msg *Message, excludeClientID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.ClientID != excludeClientID {
			c.Send(msg)
		}
	}
}
