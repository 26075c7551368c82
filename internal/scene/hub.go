package scene

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pixil98/go-quest/internal/game"
	"github.com/pixil98/go-quest/internal/storage"
)

// hubScene is the safe home area. Nothing attacks here.
type hubScene struct {
	env  Env
	id   storage.Identifier
	cmds *commandSet
}

func newHubScene(env Env) *hubScene {
	s := &hubScene{env: env, id: env.Atlas.Hub()}
	s.cmds = newCommandSet(
		command{name: "go", aliases: []string{"travel"}, usage: "go <area>", help: "Travel to a neighbouring area", fn: s.goTo},
		command{name: "rest", usage: "rest", help: "Recover hit points", fn: s.rest},
		command{name: "sync", usage: "sync", help: "Fetch new questions from your courses", fn: s.sync},
		command{name: "look", aliases: []string{"l"}, usage: "look", help: "Describe your surroundings", fn: s.look},
		command{name: "status", aliases: []string{"score"}, usage: "status", help: "Reload your character", fn: s.status},
		command{name: "help", aliases: []string{"?"}, usage: "help", help: "Show this list", fn: s.help},
	)
	return s
}

// OnEnter reports an arrival from the wild to the service, which heals
// the character, and reloads it.
func (s *hubScene) OnEnter(ctx context.Context) (*State, error) {
	if s.env.Store.Snapshot().Area != s.id {
		s.env.Store.SetArea(s.id, game.Position{})
		if _, err := s.env.Service.ReturnToHub(ctx); err != nil {
			slog.WarnContext(ctx, "reporting return to hub", "error", err)
		} else if err := s.env.Store.Refresh(ctx, s.env.Service); err != nil {
			slog.WarnContext(ctx, "refreshing after return to hub", "error", err)
		}
	}
	say(s.env, describeArea(s.env, s.id))
	return nil, nil
}

func (s *hubScene) OnTick(ctx context.Context) (*State, error) {
	return nil, nil
}

func (s *hubScene) OnInput(ctx context.Context, line string) (*State, error) {
	return s.cmds.exec(ctx, line)
}

func (s *hubScene) OnExit(ctx context.Context) {}

func (s *hubScene) goTo(ctx context.Context, args []string) (*State, error) {
	return travel(s.env, s.id, args)
}

func (s *hubScene) rest(ctx context.Context, args []string) (*State, error) {
	v, err := s.env.Service.Rest(ctx)
	if err != nil {
		slog.WarnContext(ctx, "resting", "error", err)
		return nil, NewUserError("You cannot rest right now.")
	}
	s.env.Store.SetVitals(v)
	s.env.Notify.Notify(fmt.Sprintf("You rest at the inn. HP %d/%d.", v.HP, v.MaxHP))
	return nil, nil
}

func (s *hubScene) sync(ctx context.Context, args []string) (*State, error) {
	n, err := s.env.Service.SyncQuestions(ctx)
	if err != nil {
		slog.WarnContext(ctx, "syncing questions", "error", err)
		return nil, NewUserError("Your questions could not be synchronised right now.")
	}
	s.env.Notify.Notify(fmt.Sprintf("%d questions are waiting for you.", n))
	return nil, nil
}

func (s *hubScene) look(ctx context.Context, args []string) (*State, error) {
	say(s.env, describeArea(s.env, s.id))
	return nil, nil
}

func (s *hubScene) status(ctx context.Context, args []string) (*State, error) {
	return nil, refresh(ctx, s.env, nil)
}

func (s *hubScene) help(ctx context.Context, args []string) (*State, error) {
	say(s.env, s.cmds.help())
	return nil, nil
}
