package scene

import (
	"fmt"

	"github.com/pixil98/go-quest/internal/game"
	"github.com/pixil98/go-quest/internal/storage"
)

// Kind names a top-level scene.
type Kind int

const (
	KindBootstrap Kind = iota
	KindHub
	KindExploration
	KindCombat
)

func (k Kind) String() string {
	switch k {
	case KindBootstrap:
		return "bootstrap"
	case KindHub:
		return "hub"
	case KindExploration:
		return "exploration"
	case KindCombat:
		return "combat"
	default:
		return "unknown"
	}
}

// State is the active scene plus the data it was entered with.
type State struct {
	Kind      Kind
	Area      storage.Identifier
	Encounter game.Encounter
}

func Bootstrap() State {
	return State{Kind: KindBootstrap}
}

func Hub(area storage.Identifier) State {
	return State{Kind: KindHub, Area: area}
}

func Exploration(area storage.Identifier) State {
	return State{Kind: KindExploration, Area: area}
}

// Combat captures the area the fight started in; victory returns there.
func Combat(enc game.Encounter) State {
	return State{Kind: KindCombat, Area: enc.Area, Encounter: enc}
}

func (s State) String() string {
	switch s.Kind {
	case KindExploration, KindHub:
		return fmt.Sprintf("%s(%s)", s.Kind, s.Area)
	case KindCombat:
		return fmt.Sprintf("%s(%s, %s, %d)", s.Kind, s.Area, s.Encounter.Monster, s.Encounter.Difficulty)
	default:
		return s.Kind.String()
	}
}
