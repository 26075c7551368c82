package scene

import (
	"context"

	"github.com/pixil98/go-quest/internal/combat"
	"github.com/pixil98/go-quest/internal/game"
)

// combatScene hands the session to the fight engine. The engine reads the
// player's answers itself, so the machine loop waits inside OnEnter.
type combatScene struct {
	env Env
	enc game.Encounter
}

func newCombatScene(env Env, enc game.Encounter) *combatScene {
	return &combatScene{env: env, enc: enc}
}

func (s *combatScene) OnEnter(ctx context.Context) (*State, error) {
	sess, err := s.env.Fighter.Run(ctx, s.enc)
	if err != nil {
		return nil, err
	}

	var next State
	switch sess.Phase() {
	case combat.Defeat:
		next = Hub(s.env.Atlas.Hub())
	default:
		next = Exploration(s.enc.Area)
	}
	return &next, nil
}

func (s *combatScene) OnTick(ctx context.Context) (*State, error) {
	return nil, nil
}

func (s *combatScene) OnInput(ctx context.Context, line string) (*State, error) {
	return nil, nil
}

func (s *combatScene) OnExit(ctx context.Context) {}
