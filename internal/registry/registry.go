// Package registry tracks which connections have completed the join
// handshake and under what display name. It is the single source of truth
// for "who is present" and the only shared mutable state touched by every
// connection's goroutine.
package registry

import (
	"sync"

	"realchat/pkg/interfaces"
)

// Registry maps live connections to their display identity. A connection
// appears here iff it has joined and has not yet closed. All operations are
// safe under concurrent invocation.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry // connection ID -> entry
}

type entry struct {
	conn     interfaces.Connection
	identity string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]entry),
	}
}

// Register inserts or overwrites the entry for conn. Two connections may
// share a display name; that ambiguity is accepted, not an error.
func (r *Registry) Register(conn interfaces.Connection, identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[conn.ID()] = entry{conn: conn, identity: identity}
}

// Lookup returns the identity bound to conn, if any.
func (r *Registry) Lookup(conn interfaces.Connection) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[conn.ID()]
	if !ok {
		return "", false
	}
	return e.identity, true
}

// Unregister removes conn. Idempotent: safe to call for a connection that
// was never registered.
func (r *Registry) Unregister(conn interfaces.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, conn.ID())
}

// LiveConnections returns a snapshot of every registered connection for
// broadcast enumeration. The slice is owned by the caller; registry state
// may change the moment the lock is released.
func (r *Registry) LiveConnections() []interfaces.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	connections := make([]interfaces.Connection, 0, len(r.entries))
	for _, e := range r.entries {
		connections = append(connections, e.conn)
	}
	return connections
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}
