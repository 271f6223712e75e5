package collab

import (
	"log/slog"
	"slices"
	"sync"
)

// presenceTable holds the latest presence.update of each connected client.
// It is keyed by client id, not user id: two tabs of one user are two
// cursors. Entries live from the first update until the client leaves.
type presenceTable struct {
	mu       sync.RWMutex
	byClient map[string]PresencePayload
}

func newPresenceTable() *presenceTable {
	return &presenceTable{byClient: make(map[string]PresencePayload)}
}

// set records p for clientID. It reports false when p repeats the client's
// last update, so the hub can skip the rebroadcast.
func (t *presenceTable) set(clientID string, p PresencePayload) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if prev, ok := t.byClient[clientID]; ok && samePresence(prev, p) {
		return false
	}
	p.Selection = slices.Clone(p.Selection)
	t.byClient[clientID] = p
	return true
}

func (t *presenceTable) drop(clientID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byClient, clientID)
}

// stateMessage is the presence.state sent to a joining client, or nil when
// no other client has reported yet.
func (t *presenceTable) stateMessage() *Message {
	t.mu.RLock()
	all := make(map[string]*PresencePayload, len(t.byClient))
	for id, p := range t.byClient {
		p.Selection = slices.Clone(p.Selection)
		all[id] = &p
	}
	t.mu.RUnlock()

	if len(all) == 0 {
		return nil
	}
	msg, err := newMessage(TypePresenceState, PresenceStatePayload{Presences: all})
	if err != nil {
		slog.Error("marshal presence state", "error", err)
		return nil
	}
	return msg
}

func samePresence(a, b PresencePayload) bool {
	if a.FrameID != b.FrameID || a.DisplayName != b.DisplayName || !slices.Equal(a.Selection, b.Selection) {
		return false
	}
	if a.Cursor == nil || b.Cursor == nil {
		return a.Cursor == b.Cursor
	}
	return *a.Cursor == *b.Cursor
}
