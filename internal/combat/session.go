package combat

import (
	"errors"
	"fmt"

	"github.com/pixil98/go-quest/internal/game"
	"github.com/pixil98/go-quest/internal/storage"
)

var (
	// ErrQuestionConsumed means the question was already graded in this fight.
	ErrQuestionConsumed = errors.New("question already answered")
	// ErrSubmitFailed means a grade never arrived for a submitted answer.
	ErrSubmitFailed = errors.New("answer could not be submitted")
)

// Session is the state of a single fight. Its methods only move the state
// forward; side effects belong to the Engine.
type Session struct {
	Monster    string
	Difficulty int
	Area       storage.Identifier

	phase      Phase
	correct    int
	indicators [game.WinThreshold]bool
	question   game.Question
	graded     map[int]bool
	progress   *game.TaskProgress

	// SubmitFailures counts answers that had to be resubmitted.
	SubmitFailures int
}

// NewSession starts a fight against the monster of enc with every health
// indicator lit.
func NewSession(enc game.Encounter) *Session {
	s := &Session{
		Monster:    enc.Monster,
		Difficulty: enc.Difficulty,
		Area:       enc.Area,
		phase:      AwaitingQuestion,
		graded:     map[int]bool{},
	}
	for i := range s.indicators {
		s.indicators[i] = true
	}
	return s
}

func (s *Session) Phase() Phase {
	return s.phase
}

// Correct returns the number of correct answers so far.
func (s *Session) Correct() int {
	return s.correct
}

// Indicators returns the monster's health indicators; true means still lit.
func (s *Session) Indicators() []bool {
	return s.indicators[:]
}

// Question returns the question currently shown.
func (s *Session) Question() game.Question {
	return s.question
}

// TaskProgress returns the last progress reported during the fight.
func (s *Session) TaskProgress() *game.TaskProgress {
	return s.progress
}

// Present shows q. A question that was already graded is refused.
func (s *Session) Present(q game.Question) error {
	if s.phase != AwaitingQuestion {
		return fmt.Errorf("presenting question in phase %s", s.phase)
	}
	if s.graded[q.ID] {
		return fmt.Errorf("question %d: %w", q.ID, ErrQuestionConsumed)
	}
	s.question = q
	s.phase = QuestionDisplayed
	return nil
}

// Submit marks the shown question as waiting for a grade.
func (s *Session) Submit() error {
	if s.phase != QuestionDisplayed {
		return fmt.Errorf("submitting in phase %s", s.phase)
	}
	if s.graded[s.question.ID] {
		return fmt.Errorf("question %d: %w", s.question.ID, ErrQuestionConsumed)
	}
	s.phase = AwaitingGrade
	return nil
}

// SubmitFailed puts the same question back in front of the player.
func (s *Session) SubmitFailed() {
	if s.phase != AwaitingGrade {
		return
	}
	s.SubmitFailures++
	s.phase = QuestionDisplayed
}

// Resolve applies a grade and returns the resulting phase.
func (s *Session) Resolve(g game.Grade) (Phase, error) {
	if s.phase != AwaitingGrade {
		return s.phase, fmt.Errorf("resolving grade in phase %s", s.phase)
	}
	s.graded[s.question.ID] = true

	if g.TaskProgress != nil {
		p := *g.TaskProgress
		s.progress = &p
	}

	switch {
	case g.Correct:
		if s.correct < len(s.indicators) {
			s.correct++
			s.indicators[s.correct-1] = false
		}
		if s.correct >= game.WinThreshold {
			s.phase = Victory
		} else {
			s.phase = AwaitingQuestion
		}
	case g.Defeated:
		s.phase = Defeat
	default:
		s.phase = AwaitingQuestion
	}

	return s.phase, nil
}

// Abort ends the fight without a winner.
func (s *Session) Abort() {
	if !s.phase.Done() {
		s.phase = Aborted
	}
}
