package scene

import (
	"context"
	"fmt"
	"log/slog"
)

// bootstrapScene loads the character and routes to where it stands.
type bootstrapScene struct {
	env Env
}

func newBootstrapScene(env Env) *bootstrapScene {
	return &bootstrapScene{env: env}
}

func (s *bootstrapScene) OnEnter(ctx context.Context) (*State, error) {
	if err := s.env.Store.Refresh(ctx, s.env.Service); err != nil {
		return nil, fmt.Errorf("loading character: %w", err)
	}

	area := s.env.Store.Snapshot().Area
	switch {
	case s.env.Atlas.IsHub(area):
		next := Hub(area)
		return &next, nil
	case s.env.Atlas.Area(area) == nil:
		slog.WarnContext(ctx, "character in unknown area, sending to hub", "area", area)
		next := Hub(s.env.Atlas.Hub())
		return &next, nil
	default:
		next := Exploration(area)
		return &next, nil
	}
}

func (s *bootstrapScene) OnTick(ctx context.Context) (*State, error) {
	return nil, nil
}

func (s *bootstrapScene) OnInput(ctx context.Context, line string) (*State, error) {
	return nil, NewUserError("Still loading, one moment.")
}

func (s *bootstrapScene) OnExit(ctx context.Context) {}
