package scene

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/pixil98/go-quest/internal/combat"
	"github.com/pixil98/go-quest/internal/explore"
	"github.com/pixil98/go-quest/internal/game"
	"github.com/pixil98/go-quest/internal/panel"
	"github.com/pixil98/go-quest/internal/remote"
)

const (
	DefaultTickLength = 200 * time.Millisecond

	// maxChain bounds transitions requested by consecutive OnEnter calls.
	maxChain = 8

	historyLimit = 16
)

// Handler is one top-level scene. A non-nil State return requests a
// transition.
type Handler interface {
	OnEnter(ctx context.Context) (*State, error)
	OnTick(ctx context.Context) (*State, error)
	OnInput(ctx context.Context, line string) (*State, error)
	OnExit(ctx context.Context)
}

// Notifier shows one-shot messages to the player.
type Notifier interface {
	Notify(msg string)
}

// Fighter runs a fight to its end.
type Fighter interface {
	Run(ctx context.Context, enc game.Encounter) (*combat.Session, error)
}

// Env is what the scenes of one session share.
type Env struct {
	Service remote.Service
	Store   *game.CharacterStore
	Atlas   *game.Atlas
	Notify  Notifier
	Fighter Fighter
	Out     io.Writer

	TrackerOpts []explore.TrackerOpt
}

// Machine runs exactly one scene at a time and drives it from player
// input and a fixed tick.
type Machine struct {
	env        Env
	tickLength time.Duration

	state   State
	handler Handler
	history []State
}

func NewMachine(env Env, opts ...MachineOpt) *Machine {
	m := &Machine{
		env:        env,
		tickLength: DefaultTickLength,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// State returns the active scene.
func (m *Machine) State() State {
	return m.state
}

// History returns the most recently entered scenes, oldest first.
func (m *Machine) History() []State {
	return m.history
}

// Run enters Bootstrap and processes input, ticks and notices until the
// player quits, input ends or ctx is canceled.
func (m *Machine) Run(ctx context.Context, lines <-chan string, notices <-chan string) error {
	defer m.exit(ctx)

	if err := m.transition(ctx, Bootstrap()); err != nil {
		return m.finish(err)
	}

	ticker := time.NewTicker(m.tickLength)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case msg := <-notices:
			m.env.Notify.Notify(msg)

		case <-ticker.C:
			next, err := m.handler.OnTick(ctx)
			if err := m.handle(ctx, next, err); err != nil {
				return m.finish(err)
			}

		case line, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			if strings.EqualFold(line, "quit") {
				m.write("Farewell.\n")
				return nil
			}
			if line == "" {
				continue
			}
			next, err := m.handler.OnInput(ctx, line)
			if err := m.handle(ctx, next, err); err != nil {
				return m.finish(err)
			}
		}
	}
}

func (m *Machine) handle(ctx context.Context, next *State, err error) error {
	if err != nil {
		var ue *UserError
		if errors.As(err, &ue) {
			m.env.Notify.Notify(ue.Message)
			return nil
		}
		return err
	}
	if next == nil {
		return nil
	}
	return m.transition(ctx, *next)
}

func (m *Machine) transition(ctx context.Context, next State) error {
	for range maxChain {
		m.exit(ctx)

		slog.DebugContext(ctx, "entering scene", "scene", next.String())
		m.state = next
		m.history = append(m.history, next)
		if len(m.history) > historyLimit {
			m.history = slices.Delete(m.history, 0, len(m.history)-historyLimit)
		}
		m.handler = m.build(next)

		following, err := m.handler.OnEnter(ctx)
		if err != nil {
			var ue *UserError
			if !errors.As(err, &ue) {
				return err
			}
			m.env.Notify.Notify(ue.Message)
		}
		if following == nil {
			return nil
		}
		next = *following
	}
	return fmt.Errorf("scene transitions did not settle after %d steps", maxChain)
}

func (m *Machine) exit(ctx context.Context) {
	if m.handler != nil {
		m.handler.OnExit(ctx)
		m.handler = nil
	}
}

func (m *Machine) build(s State) Handler {
	switch s.Kind {
	case KindHub:
		return newHubScene(m.env)
	case KindExploration:
		return newExplorationScene(m.env, s.Area)
	case KindCombat:
		return newCombatScene(m.env, s.Encounter)
	default:
		return newBootstrapScene(m.env)
	}
}

// finish maps the ways a player can leave mid-scene to a clean end.
func (m *Machine) finish(err error) error {
	if errors.Is(err, panel.ErrQuit) || errors.Is(err, panel.ErrClosed) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (m *Machine) write(s string) {
	if _, err := io.WriteString(m.env.Out, s); err != nil {
		slog.Debug("writing to player", "error", err)
	}
}
