package interfaces

// Connection is the transport-side handle to one connected client. The
// transport layer owns the connection for its lifetime; the registry and
// broadcaster only reference it.
type Connection interface {
	// ID returns a stable identifier for this connection, unique across the
	// process lifetime.
	ID() string

	// Send enqueues a serialized envelope for delivery. It must not block:
	// if the peer's outbound queue is full or the connection is closed the
	// frame is dropped and an error returned. Safe for concurrent use.
	Send(data []byte) error

	// Close tears down the transport. Idempotent.
	Close() error
}
