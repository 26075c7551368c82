package remote

import (
	"github.com/pixil98/go-quest/internal/game"
	"github.com/pixil98/go-quest/internal/storage"
)

// Wire shapes shared with the sandbox service.

type PositionBody struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type CharacterBody struct {
	HP       int                `json:"hp"`
	MaxHP    int                `json:"max_hp"`
	XP       int                `json:"xp"`
	XPToNext int                `json:"xp_to_next"`
	Level    int                `json:"level"`
	Area     storage.Identifier `json:"area"`
	Position PositionBody       `json:"position"`
}

type StateResponse struct {
	Character          CharacterBody `json:"character"`
	AvailableQuestions int           `json:"available_questions"`
}

type MoveRequest struct {
	Area storage.Identifier `json:"area"`
	X    int                `json:"x"`
	Y    int                `json:"y"`
}

type MoveResponse struct {
	Encounter      bool   `json:"encounter"`
	Monster        string `json:"monster,omitempty"`
	AreaDifficulty int    `json:"area_difficulty,omitempty"`
}

type QuestionResponse struct {
	QuestionID int      `json:"question_id"`
	Text       string   `json:"text"`
	Answers    []string `json:"answers"`
	Multiple   bool     `json:"multiple"`
	Source     string   `json:"source"`
	Difficulty int      `json:"difficulty"`
}

type AnswerRequest struct {
	QuestionID    int    `json:"question_id"`
	AnswerIndices []int  `json:"answer_indices"`
	Source        string `json:"source"`
}

type TaskProgressBody struct {
	StudentTaskID     int  `json:"student_task_id"`
	QuestionsAnswered int  `json:"questions_answered"`
	QuestionsTotal    int  `json:"questions_total"`
	CanComplete       bool `json:"can_complete"`
}

type AnswerResponse struct {
	Correct        bool              `json:"correct"`
	CorrectIndices []int             `json:"correct_indices"`
	XPGained       int               `json:"xp_gained"`
	LevelUp        bool              `json:"level_up,omitempty"`
	NewLevel       int               `json:"new_level,omitempty"`
	HPChange       int               `json:"hp_change"`
	Defeated       bool              `json:"defeated,omitempty"`
	NewHP          *int              `json:"new_hp,omitempty"`
	TaskProgress   *TaskProgressBody `json:"task_progress,omitempty"`
}

type RestResponse struct {
	HP      int    `json:"hp"`
	MaxHP   int    `json:"max_hp"`
	Message string `json:"message"`
}

type ReturnResponse struct {
	Message string             `json:"message"`
	Area    storage.Identifier `json:"area"`
}

type SyncResponse struct {
	Message       string `json:"message"`
	QuestionCount int    `json:"question_count"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (c CharacterBody) Character() game.Character {
	return game.Character{
		HP:       c.HP,
		MaxHP:    c.MaxHP,
		XP:       c.XP,
		XPToNext: c.XPToNext,
		Level:    c.Level,
		Area:     c.Area,
		Position: game.Position{X: c.Position.X, Y: c.Position.Y},
	}
}

// NewCharacterBody is the inverse of CharacterBody.Character.
func NewCharacterBody(c game.Character) CharacterBody {
	return CharacterBody{
		HP:       c.HP,
		MaxHP:    c.MaxHP,
		XP:       c.XP,
		XPToNext: c.XPToNext,
		Level:    c.Level,
		Area:     c.Area,
		Position: PositionBody{X: c.Position.X, Y: c.Position.Y},
	}
}

func (q QuestionResponse) Question() game.Question {
	return game.Question{
		ID:         q.QuestionID,
		Prompt:     q.Text,
		Options:    q.Answers,
		Multiple:   q.Multiple,
		Source:     q.Source,
		Difficulty: q.Difficulty,
	}
}

func (a AnswerResponse) Grade() game.Grade {
	g := game.Grade{
		Correct:        a.Correct,
		CorrectIndices: a.CorrectIndices,
		XPGained:       a.XPGained,
		HPChange:       a.HPChange,
		Defeated:       a.Defeated,
		LevelUp:        a.LevelUp,
		NewLevel:       a.NewLevel,
	}
	if a.NewHP != nil {
		g.NewHP = *a.NewHP
	}
	if a.TaskProgress != nil {
		g.TaskProgress = &game.TaskProgress{
			StudentTaskID: a.TaskProgress.StudentTaskID,
			Answered:      a.TaskProgress.QuestionsAnswered,
			Total:         a.TaskProgress.QuestionsTotal,
			CanComplete:   a.TaskProgress.CanComplete,
		}
	}
	return g
}
