package listener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"syscall"

	"github.com/iammegalith/telnet"
)

// TelnetListener serves plain-text play. Telnet carries no credentials, so
// every session started here asks the player for a token.
type TelnetListener struct {
	port uint16
	cm   *ConnectionManager

	wg         sync.WaitGroup
	sessionCtx context.Context
	endAll     context.CancelFunc
}

func NewTelnetListener(port uint16, cm *ConnectionManager) *TelnetListener {
	return &TelnetListener{
		port: port,
		cm:   cm,
	}
}

// Start serves until ctx is canceled, then ends every open session and
// waits for them to finish.
func (l *TelnetListener) Start(ctx context.Context) error {
	// Sessions outlive ctx until the listener has stopped accepting.
	l.sessionCtx, l.endAll = context.WithCancel(context.Background())
	defer l.endAll()

	svr := telnet.NewServer(fmt.Sprintf(":%d", l.port), l)

	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			svr.Stop()
			l.endAll()
			l.wg.Wait()
		case <-stopped:
		}
	}()

	slog.InfoContext(ctx, "listening for telnet", "port", l.port)

	if err := svr.ListenAndServe(); err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return fmt.Errorf("port %d is already in use (another server running?)", l.port)
		}
		return fmt.Errorf("serving telnet on port %d: %w", l.port, err)
	}
	return nil
}

// HandleTelnet plays one connection.
func (l *TelnetListener) HandleTelnet(conn *telnet.Connection) {
	l.wg.Add(1)
	defer l.wg.Done()
	defer func() {
		if err := conn.Close(); err != nil {
			slog.Debug("closing telnet connection", "error", err)
		}
	}()

	rw := newCRLFReadWriter(conn)
	if _, err := io.WriteString(rw, greeting(l.cm.Online())); err != nil {
		slog.Debug("greeting telnet player", "error", err)
		return
	}
	l.cm.AcceptConnection(l.sessionCtx, rw)
}

// greeting welcomes a player before they sign in.
func greeting(online int) string {
	switch online {
	case 0:
		return "Welcome, traveller. The roads are quiet today.\n"
	case 1:
		return "Welcome, traveller. One other adventurer is out there.\n"
	default:
		return fmt.Sprintf("Welcome, traveller. %d other adventurers are out there.\n", online)
	}
}
