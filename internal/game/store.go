package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cenkalti/backoff/v5"
	"github.com/pixil98/go-quest/internal/storage"
)

const defaultRefreshTries = 4

// Projector receives every change to the cached character.
type Projector interface {
	Project(Character)
}

// StateSource fetches the authoritative character.
type StateSource interface {
	GetState(ctx context.Context) (Character, error)
}

// CharacterStore is a session's cached character. Each mutation is pushed
// to the projector before the mutating call returns.
//
// A store is owned by a single session goroutine and is not safe for
// concurrent use.
type CharacterStore struct {
	char Character
	proj Projector

	refreshTries   uint
	refreshBackOff func() backoff.BackOff
}

func NewCharacterStore(proj Projector, opts ...CharacterStoreOpt) *CharacterStore {
	s := &CharacterStore{
		proj:         proj,
		refreshTries: defaultRefreshTries,
		refreshBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Snapshot returns a copy of the cached character.
func (s *CharacterStore) Snapshot() Character {
	return s.char
}

// Update applies fn to the cached character and pushes the result.
func (s *CharacterStore) Update(fn func(*Character)) {
	fn(&s.char)
	s.push()
}

// Replace overwrites every cached field at once.
func (s *CharacterStore) Replace(c Character) {
	s.char = c
	s.push()
}

// AddXP applies an experience gain.
func (s *CharacterStore) AddXP(delta int) {
	s.Update(func(c *Character) {
		c.XP += delta
		c.XPToNext = max(0, c.XPToNext-delta)
	})
}

// SetHP applies a server-reported hit point value.
func (s *CharacterStore) SetHP(hp int) {
	s.Update(func(c *Character) {
		c.HP = hp
	})
}

// SetVitals applies both hit point values.
func (s *CharacterStore) SetVitals(v Vitals) {
	s.Update(func(c *Character) {
		c.HP = v.HP
		c.MaxHP = v.MaxHP
	})
}

// SetLevel applies a server-reported level.
func (s *CharacterStore) SetLevel(level int) {
	s.Update(func(c *Character) {
		c.Level = level
	})
}

// SetArea records the area the player is in and where they stand.
func (s *CharacterStore) SetArea(area storage.Identifier, pos Position) {
	s.Update(func(c *Character) {
		c.Area = area
		c.Position = pos
	})
}

// SetPosition records a new position inside the current area.
func (s *CharacterStore) SetPosition(pos Position) {
	s.Update(func(c *Character) {
		c.Position = pos
	})
}

// Refresh re-fetches the authoritative character and overwrites the cache.
// Transient failures are retried with backoff; errors that report
// themselves as not retryable stop immediately.
func (s *CharacterStore) Refresh(ctx context.Context, src StateSource) error {
	op := func() (Character, error) {
		c, err := src.GetState(ctx)
		if err != nil {
			if !isRetryable(err) {
				return Character{}, backoff.Permanent(err)
			}
			slog.DebugContext(ctx, "character refresh failed, retrying", "error", err)
			return Character{}, err
		}
		return c, nil
	}

	c, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(s.refreshBackOff()),
		backoff.WithMaxTries(s.refreshTries),
	)
	if err != nil {
		return fmt.Errorf("refreshing character: %w", err)
	}

	s.Replace(c)
	return nil
}

func (s *CharacterStore) push() {
	if s.proj != nil {
		s.proj.Project(s.char)
	}
}

func isRetryable(err error) bool {
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}
