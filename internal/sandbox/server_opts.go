package sandbox

import (
	"math/rand/v2"
	"time"
)

type ServerOpt func(*Server)

func WithAddr(addr string) ServerOpt {
	return func(s *Server) {
		s.addr = addr
	}
}

// WithAnnouncer broadcasts level ups.
func WithAnnouncer(a Announcer) ServerOpt {
	return func(s *Server) {
		s.announcer = a
	}
}

// WithRand replaces the source used for encounters, monsters and question
// selection.
func WithRand(r *rand.Rand) ServerOpt {
	return func(s *Server) {
		s.rand = r
	}
}

func WithClock(now func() time.Time) ServerOpt {
	return func(s *Server) {
		s.now = now
	}
}
