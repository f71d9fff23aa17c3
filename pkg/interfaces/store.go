package interfaces

import (
	"context"

	"realchat/pkg/types"
)

// MessageStore is the durable append-only log of chat messages.
type MessageStore interface {
	// Append persists a message, assigning its timestamp, and returns the
	// message as stored.
	Append(ctx context.Context, username, body string) (types.ChatMessage, error)

	// Recent returns at most limit of the most recently persisted messages,
	// ordered oldest first.
	Recent(ctx context.Context, limit int) ([]types.ChatMessage, error)

	// Close releases the underlying storage.
	Close() error
}
