package websocket

import "sync"

// SessionTable is the session identity bridge's binding table: connection id
// to user id, per process. It is created at handshake time, consulted on
// every inbound frame, and the binding is discarded at disconnect. Only the
// bridge's own connect/disconnect paths mutate it.
type SessionTable struct {
	mu     sync.RWMutex
	byConn map[string]string
}

func NewSessionTable() *SessionTable {
	return &SessionTable{byConn: make(map[string]string)}
}

// Bind attaches userID to a connection for the remainder of its lifetime.
func (t *SessionTable) Bind(connID, userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byConn[connID] = userID
}

// Lookup returns the user bound to a connection, if any. Operations on
// connections without a binding must be dropped.
func (t *SessionTable) Lookup(connID string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	userID, ok := t.byConn[connID]
	return userID, ok
}

// Remove discards the binding at disconnect.
func (t *SessionTable) Remove(connID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byConn, connID)
}
