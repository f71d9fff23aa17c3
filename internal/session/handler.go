// Package session implements the per-connection chat protocol: the join
// handshake, message persistence and fan-out, and close cleanup.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"realchat/internal/hub"
	"realchat/internal/registry"
	"realchat/pkg/interfaces"
	"realchat/pkg/types"
)

// Client-facing error texts. These go out as error envelopes; internal
// detail stays in the logs.
const (
	errTextMalformed    = "Invalid message format"
	errTextJoinRequired = "Please join with a username first"
	errTextSaveFailed   = "Failed to save message"
	errTextHistory      = "Unable to load message history"
)

// Handler interprets inbound envelopes for one connection at a time. A
// connection is Unjoined until its join envelope registers it; after that it
// is Joined until close. The joined/unjoined state is exactly registry
// membership, so no per-connection state lives here and one Handler serves
// all connections.
type Handler struct {
	registry     *registry.Registry
	store        interfaces.MessageStore
	broadcaster  *hub.Broadcaster
	historyLimit int
}

// NewHandler creates a protocol handler. historyLimit caps the history
// envelope sent on join.
func NewHandler(reg *registry.Registry, store interfaces.MessageStore, broadcaster *hub.Broadcaster, historyLimit int) *Handler {
	return &Handler{
		registry:     reg,
		store:        store,
		broadcaster:  broadcaster,
		historyLimit: historyLimit,
	}
}

// HandleEnvelope processes one inbound frame from conn. Envelopes from a
// single connection must be fed in arrival order; the transport's read loop
// guarantees that. A malformed frame is answered with an error envelope and
// leaves all state untouched.
func (h *Handler) HandleEnvelope(ctx context.Context, conn interfaces.Connection, raw []byte) {
	envelope, err := types.ParseInbound(raw)
	if err != nil {
		log.Printf("session: rejecting frame from %s: %v", conn.ID(), err)
		h.sendError(conn, errTextMalformed)
		return
	}

	switch envelope.Type {
	case types.EnvelopeTypeJoin:
		h.handleJoin(ctx, conn, envelope.Username)
	case types.EnvelopeTypeMessage:
		h.handleChat(ctx, conn, envelope.Message)
	}
}

// handleJoin transitions the connection to Joined: register, send recent
// history back to this connection only, then announce the arrival to
// everyone else. The username is trusted as-is; the display layer is
// expected to prevent empty submissions.
func (h *Handler) handleJoin(ctx context.Context, conn interfaces.Connection, username string) {
	h.registry.Register(conn, username)

	messages, err := h.store.Recent(ctx, h.historyLimit)
	if err != nil {
		log.Printf("session: failed to load history for %s: %v", conn.ID(), err)
		h.sendError(conn, errTextHistory)
	} else {
		h.sendTo(conn, types.NewHistoryEnvelope(messages))
	}

	h.broadcaster.SendToAllExcept(conn, types.NewSystemEnvelope(fmt.Sprintf("%s joined the chat", username)))
	log.Printf("session: %s joined as %q", conn.ID(), username)
}

// handleChat persists the message and fans it out to every live connection,
// sender included. The broadcast only follows a successful append: a message
// that failed to persist is reported to the sender and never shown to
// anyone.
func (h *Handler) handleChat(ctx context.Context, conn interfaces.Connection, body string) {
	identity, joined := h.registry.Lookup(conn)
	if !joined {
		h.sendError(conn, errTextJoinRequired)
		return
	}

	// A body must be non-empty after trimming; an empty one is rejected like
	// any other malformed envelope, with no state change.
	if strings.TrimSpace(body) == "" {
		h.sendError(conn, errTextMalformed)
		return
	}

	message, err := h.store.Append(ctx, identity, body)
	if err != nil {
		log.Printf("session: failed to persist message from %q: %v", identity, err)
		h.sendError(conn, errTextSaveFailed)
		return
	}

	h.broadcaster.SendToAll(types.NewBroadcastEnvelope(message))
}

// HandleClose cleans up after a connection ends, from either state. A joined
// connection's departure is announced to the remaining peers; an unjoined
// close is silent. Transport errors are treated the same as a clean close.
func (h *Handler) HandleClose(conn interfaces.Connection) {
	identity, joined := h.registry.Lookup(conn)
	if joined {
		h.broadcaster.SendToAllExcept(conn, types.NewSystemEnvelope(fmt.Sprintf("%s left the chat", identity)))
		log.Printf("session: %s (%q) left", conn.ID(), identity)
	}
	h.registry.Unregister(conn)
}

func (h *Handler) sendTo(conn interfaces.Connection, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("session: failed to marshal envelope for %s: %v", conn.ID(), err)
		return
	}
	if err := conn.Send(data); err != nil {
		log.Printf("session: failed to send to %s: %v", conn.ID(), err)
	}
}

func (h *Handler) sendError(conn interfaces.Connection, text string) {
	h.sendTo(conn, types.NewErrorEnvelope(text))
}
