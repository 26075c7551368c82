package combat

// Phase is the engine's position inside one fight.
type Phase int

const (
	AwaitingQuestion Phase = iota
	QuestionDisplayed
	AwaitingGrade
	Victory
	Defeat
	Aborted
)

func (p Phase) String() string {
	switch p {
	case AwaitingQuestion:
		return "awaiting_question"
	case QuestionDisplayed:
		return "question_displayed"
	case AwaitingGrade:
		return "awaiting_grade"
	case Victory:
		return "victory"
	case Defeat:
		return "defeat"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Done reports whether the fight is over.
func (p Phase) Done() bool {
	return p == Victory || p == Defeat || p == Aborted
}
