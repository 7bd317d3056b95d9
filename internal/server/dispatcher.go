package server

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/relaywire/chat-relay/internal/protocol"
)

// Dispatcher delivers processed envelopes: direct replies go only to the
// requester, everything else fans out to every registered session except the
// author. Delivery failures are logged but never remove the target; removal
// happens only through the target's own handler.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(registry *Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		registry: registry,
		logger:   logger.With("component", "dispatcher"),
	}
}

// Dispatch routes env by its payload kind: response kinds to the author
// only, all others to everyone but the author.
func (d *Dispatcher) Dispatch(env protocol.Envelope, author uuid.UUID) {
	if env.Payload.Kind.IsResponse() {
		d.Direct(env, author)
		return
	}
	d.Broadcast(env, author)
}

// Direct delivers env to the author's own send handle.
func (d *Dispatcher) Direct(env protocol.Envelope, author uuid.UUID) {
	conn, ok := d.registry.Get(author)
	if !ok {
		d.logger.Warn("direct delivery target gone", "conn_id", author, "kind", env.Payload.Kind)
		return
	}
	if err := conn.WriteEnvelope(env); err != nil {
		d.logger.Warn("direct delivery failed",
			"conn_id", author,
			"kind", env.Payload.Kind,
			"error", err,
		)
	}
}

// Broadcast delivers env to every registered session except the author. The
// registry snapshot is taken first so no lock is held during sends; each
// target's own write arbitration keeps concurrent deliveries from
// interleaving frames.
func (d *Dispatcher) Broadcast(env protocol.Envelope, author uuid.UUID) {
	for _, entry := range d.registry.Snapshot() {
		if entry.ID == author {
			continue
		}
		if err := entry.Conn.WriteEnvelope(env); err != nil {
			d.logger.Warn("broadcast delivery failed",
				"target", entry.ID,
				"kind", env.Payload.Kind,
				"error", err,
			)
		}
	}
}
