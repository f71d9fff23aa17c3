// Package hub provides the fan-out primitive that delivers one envelope to
// all live connections, or all except one.
package hub

import (
	"encoding/json"
	"log"
	"sync"

	"realchat/internal/registry"
	"realchat/pkg/interfaces"
)

// Broadcaster serializes an envelope once and enqueues it to every live
// connection. Delivery is best-effort: a peer whose outbound queue is full
// or whose transport has closed is skipped, never retried, and never blocks
// delivery to the others.
type Broadcaster struct {
	// mu serializes enqueue loops so every peer observes broadcasts in the
	// same relative order.
	mu       sync.Mutex
	registry *registry.Registry
}

// NewBroadcaster creates a broadcaster that enumerates recipients from reg.
func NewBroadcaster(reg *registry.Registry) *Broadcaster {
	return &Broadcaster{
		registry: reg,
	}
}

// SendToAll delivers v to every live connection.
func (b *Broadcaster) SendToAll(v interface{}) {
	b.send(nil, v)
}

// SendToAllExcept delivers v to every live connection except excluded.
func (b *Broadcaster) SendToAllExcept(excluded interfaces.Connection, v interface{}) {
	b.send(excluded, v)
}

func (b *Broadcaster) send(excluded interfaces.Connection, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("broadcast: failed to marshal envelope: %v", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, conn := range b.registry.LiveConnections() {
		if excluded != nil && conn.ID() == excluded.ID() {
			continue
		}
		if err := conn.Send(data); err != nil {
			// Slow or dead peer; drop the frame for this recipient only.
			log.Printf("broadcast: dropping frame for connection %s: %v", conn.ID(), err)
		}
	}
}
