package remote

import (
	"context"

	"github.com/pixil98/go-quest/internal/game"
	"github.com/pixil98/go-quest/internal/storage"
)

// Service is the authoritative game service. Each method is a single
// round trip; implementations hold no game state.
type Service interface {
	GetState(ctx context.Context) (game.Character, error)
	Move(ctx context.Context, area storage.Identifier, pos game.Position) (game.Encounter, error)
	FetchQuestion(ctx context.Context) (game.Question, error)
	SubmitAnswer(ctx context.Context, questionID int, indices []int, source string) (game.Grade, error)
	Rest(ctx context.Context) (game.Vitals, error)
	ReturnToHub(ctx context.Context) (storage.Identifier, error)
	SyncQuestions(ctx context.Context) (int, error)
}
