package game

// Question is a quiz item issued by the remote game service. Source is a
// provenance tag the client passes back unchanged.
type Question struct {
	ID         int
	Prompt     string
	Options    []string
	Multiple   bool
	Source     string
	Difficulty int
}

// Grade is the service's verdict on a submitted answer.
type Grade struct {
	Correct        bool
	CorrectIndices []int

	// Set when Correct.
	XPGained int

	// Set when not Correct.
	NewHP    int
	HPChange int
	Defeated bool

	LevelUp  bool
	NewLevel int

	TaskProgress *TaskProgress
}

// TaskProgress reports how far a correct answer moved the student's linked
// curriculum task.
type TaskProgress struct {
	StudentTaskID int
	Answered      int
	Total         int
	CanComplete   bool
}

// Vitals is the hit point pair returned by a rest.
type Vitals struct {
	HP    int
	MaxHP int
}
