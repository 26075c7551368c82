package game

import "github.com/cenkalti/backoff/v5"

type CharacterStoreOpt func(*CharacterStore)

// WithRefreshTries caps the attempts made by Refresh.
func WithRefreshTries(n uint) CharacterStoreOpt {
	return func(s *CharacterStore) {
		s.refreshTries = n
	}
}

// WithRefreshBackOff sets the backoff policy used between Refresh attempts.
func WithRefreshBackOff(fn func() backoff.BackOff) CharacterStoreOpt {
	return func(s *CharacterStore) {
		s.refreshBackOff = fn
	}
}
