package scene

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pixil98/go-quest/internal/explore"
	"github.com/pixil98/go-quest/internal/game"
	"github.com/pixil98/go-quest/internal/storage"
)

// explorationScene walks the player around one area and hands over to
// combat when a check reports a monster.
type explorationScene struct {
	env     Env
	id      storage.Identifier
	tracker *explore.Tracker
	cmds    *commandSet
}

func newExplorationScene(env Env, id storage.Identifier) *explorationScene {
	s := &explorationScene{env: env, id: id}
	s.cmds = newCommandSet(
		command{name: "north", aliases: []string{"n"}, usage: "n/s/e/w", help: "Start walking in a direction", fn: s.walk(game.North)},
		command{name: "south", aliases: []string{"s"}, usage: "", fn: s.walk(game.South)},
		command{name: "east", aliases: []string{"e"}, usage: "", fn: s.walk(game.East)},
		command{name: "west", aliases: []string{"w"}, usage: "", fn: s.walk(game.West)},
		command{name: "walk", usage: "walk <direction>", help: "Start walking in a named direction", fn: s.walkNamed},
		command{name: "stop", usage: "stop", help: "Stand still", fn: s.walk(game.Still)},
		command{name: "go", aliases: []string{"travel"}, usage: "go <area>", help: "Travel to a neighbouring area", fn: s.goTo},
		command{name: "look", aliases: []string{"l"}, usage: "look", help: "Describe your surroundings", fn: s.look},
		command{name: "status", aliases: []string{"score"}, usage: "status", help: "Reload your character", fn: s.status},
		command{name: "help", aliases: []string{"?"}, usage: "help", help: "Show this list", fn: s.help},
	)
	return s
}

func (s *explorationScene) OnEnter(ctx context.Context) (*State, error) {
	area := s.env.Atlas.Area(s.id)
	if area == nil {
		slog.WarnContext(ctx, "unknown exploration area, returning to hub", "area", s.id)
		next := Hub(s.env.Atlas.Hub())
		return &next, nil
	}

	c := s.env.Store.Snapshot()
	pos := c.Position
	if c.Area != s.id {
		pos = game.Position{X: area.Width / 2, Y: area.Height / 2}
		s.env.Store.SetArea(s.id, pos)
	}

	s.tracker = explore.NewTracker(ctx, s.env.Service, s.id, area, pos, s.env.TrackerOpts...)
	say(s.env, describeArea(s.env, s.id))
	return nil, nil
}

// OnTick collects a finished check before sampling movement, so the tick
// that starts a fight does not also move the player.
func (s *explorationScene) OnTick(ctx context.Context) (*State, error) {
	if enc, ok := s.tracker.Poll(); ok {
		if enc.Area == "" {
			enc.Area = s.id
		}
		next := Combat(enc)
		return &next, nil
	}

	s.tracker.Tick()
	return nil, nil
}

func (s *explorationScene) OnInput(ctx context.Context, line string) (*State, error) {
	return s.cmds.exec(ctx, line)
}

// OnExit closes the tracker; a pending check's result is discarded.
func (s *explorationScene) OnExit(ctx context.Context) {
	if s.tracker == nil {
		return
	}
	s.tracker.Close()
	if pos := s.tracker.Position(); pos != s.env.Store.Snapshot().Position {
		s.env.Store.SetPosition(pos)
	}
}

func (s *explorationScene) walk(d game.Direction) commandFunc {
	return func(ctx context.Context, args []string) (*State, error) {
		s.tracker.SetHeading(d)
		if d.IsStill() {
			say(s.env, "You stop and look around.\n")
		} else {
			say(s.env, fmt.Sprintf("You start walking %s.\n", directionName(d)))
		}
		return nil, nil
	}
}

func (s *explorationScene) walkNamed(ctx context.Context, args []string) (*State, error) {
	if len(args) == 0 {
		return nil, NewUserError("Walk where?")
	}
	d, ok := game.ParseDirection(args[0])
	if !ok {
		return nil, NewUserError(fmt.Sprintf("%q is not a direction.", args[0]))
	}
	return s.walk(d)(ctx, args)
}

func (s *explorationScene) goTo(ctx context.Context, args []string) (*State, error) {
	return travel(s.env, s.id, args)
}

func (s *explorationScene) look(ctx context.Context, args []string) (*State, error) {
	say(s.env, describeArea(s.env, s.id))
	pos := s.tracker.Position()
	say(s.env, fmt.Sprintf("You stand at %d,%d.\n", pos.X, pos.Y))
	return nil, nil
}

func (s *explorationScene) status(ctx context.Context, args []string) (*State, error) {
	return nil, refresh(ctx, s.env, s.stayPut)
}

// stayPut puts the cached character back where this scene has them. The
// service learns about a new area only with the next move check.
func (s *explorationScene) stayPut() {
	c := s.env.Store.Snapshot()
	if pos := s.tracker.Position(); c.Area != s.id || c.Position != pos {
		s.env.Store.SetArea(s.id, pos)
	}
}

func (s *explorationScene) help(ctx context.Context, args []string) (*State, error) {
	say(s.env, s.cmds.help())
	return nil, nil
}

func directionName(d game.Direction) string {
	switch d {
	case game.North:
		return "north"
	case game.South:
		return "south"
	case game.East:
		return "east"
	case game.West:
		return "west"
	default:
		return "nowhere"
	}
}
