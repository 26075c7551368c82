package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pixil98/go-quest/internal/combat"
	"github.com/pixil98/go-quest/internal/game"
	"github.com/pixil98/go-quest/internal/hud"
	"github.com/pixil98/go-quest/internal/messaging"
	"github.com/pixil98/go-quest/internal/panel"
	"github.com/pixil98/go-quest/internal/remote"
	"github.com/pixil98/go-quest/internal/scene"
)

const (
	tokenTries    = 3
	noticeBacklog = 16
)

// ServiceFactory builds the game service client for one player credential.
type ServiceFactory func(token string) (remote.Service, error)

// Bus carries HUD frames out and announcements in.
type Bus interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte)) (func(), error)
}

// Manager turns accepted connections into play sessions.
type Manager struct {
	atlas      *game.Atlas
	newService ServiceFactory

	bus         Bus
	tickLength  time.Duration
	hudTemplate string
}

func NewManager(atlas *game.Atlas, newService ServiceFactory, opts ...ManagerOpt) *Manager {
	m := &Manager{
		atlas:      atlas,
		newService: newService,
		tickLength: scene.DefaultTickLength,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// RunSession plays until the player leaves. When token is empty, or not a
// usable token, the player is asked for one.
func (m *Manager) RunSession(ctx context.Context, conn io.ReadWriter, token string) error {
	id := uuid.NewString()
	br := bufio.NewReader(conn)

	if _, err := io.WriteString(conn, "Welcome, adventurer.\n"); err != nil {
		return err
	}
	if ok, _ := validToken(token); !ok {
		var err error
		token, err = prompt(conn, br, "Access token: ",
			withValidator(validToken),
			withMaxTries(tokenTries),
		)
		if err != nil {
			return fmt.Errorf("reading access token: %w", err)
		}
	}

	svc, err := m.newService(token)
	if err != nil {
		return fmt.Errorf("creating service client: %w", err)
	}

	var hudOpts []hud.PresenterOpt
	hudOpts = append(hudOpts, hud.WithTemplate(m.hudTemplate))
	if m.bus != nil {
		hudOpts = append(hudOpts, hud.WithPublisher(m.bus, messaging.HUDSubject(id)))
	}
	presenter, err := hud.NewPresenter(conn, m.atlas, hudOpts...)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := readLines(ctx, br)
	notices := make(chan string, noticeBacklog)
	if m.bus != nil {
		unsub, err := m.bus.Subscribe(messaging.SubjectAnnounce, func(data []byte) {
			select {
			case notices <- string(data):
			default:
				slog.Debug("dropping announcement, session backlog full", "session", id)
			}
		})
		if err != nil {
			slog.WarnContext(ctx, "subscribing to announcements", "session", id, "error", err)
		} else {
			defer unsub()
		}
	}

	store := game.NewCharacterStore(presenter)
	asker := panel.New(conn, lines)

	machine := scene.NewMachine(scene.Env{
		Service: svc,
		Store:   store,
		Atlas:   m.atlas,
		Notify:  presenter,
		Fighter: combat.NewEngine(svc, store, asker, presenter),
		Out:     conn,
	}, scene.WithTickLength(m.tickLength))

	slog.InfoContext(ctx, "session started", "session", id)
	err = machine.Run(ctx, lines, notices)
	slog.InfoContext(ctx, "session ended", "session", id, "scene", machine.State().String())

	if err != nil {
		return fmt.Errorf("session %s: %w", id, err)
	}
	return nil
}

func validToken(s string) (bool, string) {
	if s == "" || strings.ContainsAny(s, " \t") {
		return false, "Enter the access token from your course page.\n"
	}
	return true, ""
}

// readLines feeds lines from br until it fails or ctx ends. The channel is
// closed when input ends.
func readLines(ctx context.Context, br *bufio.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for {
			line, err := br.ReadString('\n')
			if line != "" {
				select {
				case lines <- strings.TrimRight(line, "\r\n"):
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return lines
}
