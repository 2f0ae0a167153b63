package event

import (
	"context"
	"log/slog"

	"github.com/AmrendraTheCoder/go-backend-sub000/natsclient"
)

// SubjectPrefix is the NATS subject root the mirror publishes under. Each
// envelope lands on ops.events.<event-type> so dashboard-side consumers can
// subscribe with ops.events.>.
const SubjectPrefix = "ops.events."

// Mirror republishes emitted envelopes to NATS for out-of-band consumers.
// Mirroring is best-effort: each envelope is mirrored once per emission,
// regardless of how many groups it targeted, and a NATS failure never blocks
// or fails websocket delivery.
type Mirror struct {
	nc     *natsclient.Client
	logger *slog.Logger
}

// NewMirror creates a mirror over the given NATS client
func NewMirror(nc *natsclient.Client, logger *slog.Logger) *Mirror {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mirror{nc: nc, logger: logger}
}

// Emit mirrors one encoded envelope to its per-type subject
func (m *Mirror) Emit(t Type, data []byte) {
	subject := SubjectPrefix + string(t)
	if err := m.nc.Publish(context.Background(), subject, data); err != nil {
		m.logger.Warn("mirror publish", "subject", subject, "error", err)
	}
}
