package explore

import (
	"context"
	"log/slog"

	"github.com/pixil98/go-quest/internal/game"
	"github.com/pixil98/go-quest/internal/storage"
	"github.com/pixil98/go-quest/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Mover reports the player's position and learns whether a monster appears.
type Mover interface {
	Move(ctx context.Context, area storage.Identifier, pos game.Position) (game.Encounter, error)
}

type moveResult struct {
	enc game.Encounter
	err error
}

// Tracker counts the steps a player takes in one area and checks for
// encounters every game.StepsPerCheck steps. At most one check is in
// flight; checks that come due while one is outstanding are dropped.
//
// All methods must be called from the session goroutine.
type Tracker struct {
	ctx    context.Context
	cancel context.CancelFunc

	mover  Mover
	tracer trace.Tracer

	areaId storage.Identifier
	safe   bool
	width  int
	height int

	pos     game.Position
	heading game.Direction
	steps   int

	pending chan moveResult
	skipped int
	closed  bool
}

// NewTracker starts tracking at pos inside area.
func NewTracker(ctx context.Context, mover Mover, areaId storage.Identifier, area *game.Area, pos game.Position, opts ...TrackerOpt) *Tracker {
	ctx, cancel := context.WithCancel(ctx)

	t := &Tracker{
		ctx:    ctx,
		cancel: cancel,
		mover:  mover,
		tracer: telemetry.Tracer("explore"),
		areaId: areaId,
		safe:   area.Safe,
		width:  area.Width,
		height: area.Height,
		pos:    pos,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// SetHeading changes the direction sampled on the next tick.
func (t *Tracker) SetHeading(d game.Direction) {
	t.heading = d
}

func (t *Tracker) Heading() game.Direction {
	return t.heading
}

func (t *Tracker) Position() game.Position {
	return t.pos
}

// Steps returns the number of samples that moved the player.
func (t *Tracker) Steps() int {
	return t.steps
}

// InFlight reports whether a check has been issued and not yet polled.
func (t *Tracker) InFlight() bool {
	return t.pending != nil
}

// Skipped returns how many due checks were dropped because one was in flight.
func (t *Tracker) Skipped() int {
	return t.skipped
}

// Tick samples the heading once. It reports whether the player moved.
func (t *Tracker) Tick() bool {
	if t.closed || t.heading.IsStill() {
		return false
	}

	next := t.pos.Step(t.heading, t.width, t.height)
	if next == t.pos {
		return false
	}
	t.pos = next
	t.steps++

	if t.safe || t.steps%game.StepsPerCheck != 0 {
		return true
	}

	if t.pending != nil {
		t.skipped++
		slog.DebugContext(t.ctx, "encounter check skipped, one in flight", "area", t.areaId, "steps", t.steps)
		return true
	}

	t.issue()
	return true
}

// Poll collects a finished check without blocking. It returns the
// encounter and true only when a monster appeared; failed checks count as
// no encounter.
func (t *Tracker) Poll() (game.Encounter, bool) {
	if t.pending == nil {
		return game.Encounter{}, false
	}

	select {
	case res := <-t.pending:
		t.pending = nil
		if res.err != nil {
			slog.WarnContext(t.ctx, "encounter check failed", "area", t.areaId, "error", res.err)
			return game.Encounter{}, false
		}
		if !res.enc.Occurred {
			return game.Encounter{}, false
		}
		if res.enc.Area == "" {
			res.enc.Area = t.areaId
		}
		return res.enc, true
	default:
		return game.Encounter{}, false
	}
}

// Close cancels any in-flight check and discards its result.
func (t *Tracker) Close() {
	if t.closed {
		return
	}
	t.closed = true
	t.cancel()
	t.pending = nil
}

func (t *Tracker) issue() {
	ch := make(chan moveResult, 1)
	t.pending = ch

	pos, steps := t.pos, t.steps
	go func() {
		ctx, span := t.tracer.Start(t.ctx, "explore.move")
		defer span.End()
		span.SetAttributes(
			attribute.String("area", t.areaId.String()),
			attribute.Int("steps", steps),
		)

		enc, err := t.mover.Move(ctx, t.areaId, pos)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "move failed")
		}
		span.SetAttributes(attribute.Bool("encounter", enc.Occurred))
		ch <- moveResult{enc: enc, err: err}
	}()
}
