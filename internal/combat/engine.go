package combat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/pixil98/go-quest/internal/display"
	"github.com/pixil98/go-quest/internal/game"
	"github.com/pixil98/go-quest/internal/storage"
	"github.com/pixil98/go-quest/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultRefetchLimit = 3

// Service is the part of the game service a fight talks to.
type Service interface {
	game.StateSource
	FetchQuestion(ctx context.Context) (game.Question, error)
	SubmitAnswer(ctx context.Context, questionID int, indices []int, source string) (game.Grade, error)
	ReturnToHub(ctx context.Context) (storage.Identifier, error)
}

// Asker waits for the player.
type Asker interface {
	Ask(ctx context.Context, q game.Question) ([]int, error)
	Acknowledge(ctx context.Context, msg string) error
}

// Notifier shows one-shot messages.
type Notifier interface {
	Notify(msg string)
}

// Engine runs fights. Questions are fetched and graded one at a time; the
// engine never has more than one call outstanding.
type Engine struct {
	svc    Service
	store  *game.CharacterStore
	asker  Asker
	notify Notifier
	tracer trace.Tracer

	refetchLimit int
}

func NewEngine(svc Service, store *game.CharacterStore, asker Asker, notify Notifier, opts ...EngineOpt) *Engine {
	e := &Engine{
		svc:          svc,
		store:        store,
		asker:        asker,
		notify:       notify,
		tracer:       telemetry.Tracer("combat"),
		refetchLimit: defaultRefetchLimit,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Run fights the monster of enc until it ends. The returned session's phase
// is Victory, Defeat or Aborted. Errors are only returned when the player
// can no longer be reached.
func (e *Engine) Run(ctx context.Context, enc game.Encounter) (*Session, error) {
	s := NewSession(enc)

	_, span := e.tracer.Start(ctx, "combat.start")
	span.SetAttributes(
		attribute.String("monster", s.Monster),
		attribute.Int("difficulty", s.Difficulty),
		attribute.String("area", s.Area.String()),
	)
	span.End()

	slog.InfoContext(ctx, "combat started", "monster", s.Monster, "area", s.Area)
	e.notify.Notify(fmt.Sprintf("A %s appears! %s", s.Monster, display.Pips(s.Indicators())))

	for !s.Phase().Done() {
		var err error
		switch s.Phase() {
		case AwaitingQuestion:
			e.nextQuestion(ctx, s)
		case QuestionDisplayed:
			err = e.answer(ctx, s)
		}
		if err != nil {
			e.end(ctx, s)
			return s, err
		}
	}

	switch s.Phase() {
	case Victory:
		e.victory(s)
	case Defeat:
		if err := e.defeat(ctx, s); err != nil {
			e.end(ctx, s)
			return s, err
		}
	case Aborted:
		e.notify.Notify(fmt.Sprintf("The %s got away.", s.Monster))
	}

	e.end(ctx, s)
	return s, nil
}

func (e *Engine) nextQuestion(ctx context.Context, s *Session) {
	for range e.refetchLimit {
		q, err := e.svc.FetchQuestion(ctx)
		if err != nil {
			slog.WarnContext(ctx, "fetching question", "monster", s.Monster, "error", err)
			s.Abort()
			return
		}

		err = s.Present(q)
		if err == nil {
			return
		}
		if !errors.Is(err, ErrQuestionConsumed) {
			slog.ErrorContext(ctx, "presenting question", "error", err)
			s.Abort()
			return
		}
		slog.DebugContext(ctx, "service repeated a graded question", "question", q.ID)
	}
	s.Abort()
}

func (e *Engine) answer(ctx context.Context, s *Session) error {
	q := s.Question()

	sel, err := e.asker.Ask(ctx, q)
	if err != nil {
		return err
	}
	if err := s.Submit(); err != nil {
		return err
	}

	actx, span := e.tracer.Start(ctx, "combat.answer")
	defer span.End()
	span.SetAttributes(
		attribute.Int("question", q.ID),
		attribute.String("source", q.Source),
		attribute.Int("selected", len(sel)),
	)

	g, err := e.svc.SubmitAnswer(actx, q.ID, sel, q.Source)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit failed")
		slog.WarnContext(ctx, "submitting answer", "question", q.ID, "error", fmt.Errorf("%w: %w", ErrSubmitFailed, err))
		s.SubmitFailed()
		e.notify.Notify("Your answer could not be submitted. Try again.")
		return nil
	}

	phase, err := s.Resolve(g)
	if err != nil {
		return err
	}
	span.SetAttributes(
		attribute.Bool("correct", g.Correct),
		attribute.Int("correct_count", s.Correct()),
		attribute.String("phase", phase.String()),
	)

	if g.Correct {
		e.store.AddXP(g.XPGained)
		e.notify.Notify(fmt.Sprintf("Correct! +%d XP. %s %s", g.XPGained, s.Monster, display.Pips(s.Indicators())))
	} else {
		e.store.SetHP(g.NewHP)
		e.notify.Notify(fmt.Sprintf("Wrong! The %s %s you. The answer was %s.",
			s.Monster, DamageVerb(-g.HPChange, e.store.Snapshot().MaxHP), optionList(q, g.CorrectIndices)))
	}

	if g.LevelUp {
		e.store.SetLevel(g.NewLevel)
		e.notify.Notify(fmt.Sprintf("Level up! You are now level %d.", g.NewLevel))
	}

	return nil
}

func (e *Engine) victory(s *Session) {
	e.notify.Notify(fmt.Sprintf("You defeated the %s!", s.Monster))

	if tp := s.TaskProgress(); tp != nil {
		msg := fmt.Sprintf("Task progress: %d/%d questions answered.", tp.Answered, tp.Total)
		if tp.CanComplete {
			msg += " The task can now be completed."
		}
		e.notify.Notify(msg)
	}
}

func (e *Engine) defeat(ctx context.Context, s *Session) error {
	msg := fmt.Sprintf("The %s has defeated you. You are carried back to safety.", s.Monster)
	ackErr := e.asker.Acknowledge(ctx, msg)

	// The player is carried home even when they leave at the gate.
	if _, err := e.svc.ReturnToHub(ctx); err != nil {
		slog.WarnContext(ctx, "returning to hub", "error", err)
	}
	if ackErr != nil {
		return ackErr
	}
	if err := e.store.Refresh(ctx, e.svc); err != nil {
		slog.WarnContext(ctx, "refreshing after defeat", "error", err)
		e.notify.Notify("Your character could not be reloaded. Use 'status' to retry.")
	}
	return nil
}

func (e *Engine) end(ctx context.Context, s *Session) {
	_, span := e.tracer.Start(ctx, "combat.end")
	span.SetAttributes(
		attribute.String("monster", s.Monster),
		attribute.String("outcome", s.Phase().String()),
		attribute.Int("correct", s.Correct()),
		attribute.Int("submit_failures", s.SubmitFailures),
	)
	span.End()

	slog.InfoContext(ctx, "combat ended", "monster", s.Monster, "outcome", s.Phase().String(), "correct", s.Correct())
}

func optionList(q game.Question, indices []int) string {
	parts := make([]string, 0, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(q.Options) {
			parts = append(parts, strconv.Itoa(i+1)+") "+q.Options[i])
		}
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, ", ")
}
