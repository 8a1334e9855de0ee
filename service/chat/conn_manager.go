package chat

import (
	"sort"
	"sync"
)

// ConnManager is the process-scoped connection registry: user ID to at most
// one live client. A second login for the same user replaces the entry
// (last-register-wins); the replaced session is closed by the caller.
//
// Created at server start, injected into everything that needs lookup, torn
// down at shutdown.
type ConnManager struct {
	mu    sync.RWMutex
	conns map[string]*Client
}

func NewConnManager() *ConnManager {
	return &ConnManager{conns: make(map[string]*Client)}
}

// Register stores the client under its user ID and returns the session it
// replaced, if any. The caller decides what to do with the old session.
func (m *ConnManager) Register(c *Client) (replaced *Client) {
	if c == nil || c.UserID == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	replaced = m.conns[c.UserID]
	m.conns[c.UserID] = c
	return replaced
}

// Lookup returns the live client for a user, if one is registered.
func (m *ConnManager) Lookup(userID string) (*Client, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.conns[userID]
	return c, ok
}

// Unregister removes the mapping only if it still points at this exact
// session. A disconnect of a session that has already been replaced by a
// newer login must not evict the newer one.
func (m *ConnManager) Unregister(c *Client) bool {
	if c == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.conns[c.UserID]
	if !ok || cur != c {
		return false
	}
	delete(m.conns, c.UserID)
	return true
}

// Online returns the sorted set of user IDs with a registered connection.
func (m *ConnManager) Online() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.conns))
	for id := range m.conns {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Clients returns a snapshot of every registered client.
func (m *ConnManager) Clients() []*Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Client, 0, len(m.conns))
	for _, c := range m.conns {
		out = append(out, c)
	}
	return out
}

// Close drops every registration and closes the sessions.
func (m *ConnManager) Close() {
	m.mu.Lock()
	clients := make([]*Client, 0, len(m.conns))
	for _, c := range m.conns {
		clients = append(clients, c)
	}
	m.conns = make(map[string]*Client)
	m.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
}
