package listener

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
)

// SessionRunner plays one connection to its end. An empty token means
// the runner must ask the player for one.
type SessionRunner interface {
	RunSession(ctx context.Context, conn io.ReadWriter, token string) error
}

type ConnectionManager struct {
	sessions SessionRunner
	online   atomic.Int64
}

func NewConnectionManager(sessions SessionRunner) *ConnectionManager {
	return &ConnectionManager{
		sessions: sessions,
	}
}

// AcceptConnection runs a session that will prompt for its credential.
func (m *ConnectionManager) AcceptConnection(ctx context.Context, conn io.ReadWriter) {
	m.AcceptWithToken(ctx, conn, "")
}

// AcceptWithToken runs a session whose credential came with the transport.
func (m *ConnectionManager) AcceptWithToken(ctx context.Context, conn io.ReadWriter, token string) {
	n := m.online.Add(1)
	slog.InfoContext(ctx, "player connected", "online", n)
	defer func() {
		slog.InfoContext(ctx, "player disconnected", "online", m.online.Add(-1))
	}()

	if err := m.sessions.RunSession(ctx, conn, token); err != nil {
		slog.WarnContext(ctx, "player session", "error", err)
	}
}

// Online is the number of sessions in progress.
func (m *ConnectionManager) Online() int {
	return int(m.online.Load())
}
