package game

import "github.com/pixil98/go-quest/internal/storage"

// Encounter is the result of a move check. It only lives long enough to
// hand the player from exploration to combat.
type Encounter struct {
	Occurred   bool
	Monster    string
	Difficulty int
	Area       storage.Identifier
}

const (
	// StepsPerCheck is how many moving samples pass between encounter checks.
	StepsPerCheck = 5

	// WinThreshold is the number of correct answers that defeats a monster.
	WinThreshold = 3
)
