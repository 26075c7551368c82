package sandbox

import (
	"fmt"
	"slices"
	"time"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-quest/internal/storage"
)

// Record is a persisted sandbox character. Level and max HP are derived
// from XP.
type Record struct {
	Name string             `json:"name"`
	HP   int                `json:"hp"`
	XP   int                `json:"xp"`
	Area storage.Identifier `json:"area"`
	X    int                `json:"x"`
	Y    int                `json:"y"`

	Extensions storage.ExtensionState `json:"extensions,omitempty"`
}

func (r *Record) Validate() error {
	el := errors.NewErrorList()

	if r.Name == "" {
		el.Add(fmt.Errorf("name is required"))
	}
	if r.HP < 0 {
		el.Add(fmt.Errorf("hp must not be negative"))
	}
	if r.XP < 0 {
		el.Add(fmt.Errorf("xp must not be negative"))
	}
	if r.Area == "" {
		el.Add(fmt.Errorf("area is required"))
	}

	return el.Err()
}

func (r *Record) Level() int {
	return LevelForXP(r.XP)
}

func (r *Record) MaxHP() int {
	return MaxHPForLevel(r.Level())
}

// AddXP grants xp and reports whether the character levelled up.
func (r *Record) AddXP(xp int) bool {
	old := r.Level()
	r.XP += xp
	return r.Level() > old
}

// TakeDamage lowers HP, never below zero, and reports whether the
// character was defeated.
func (r *Record) TakeDamage(dmg int) bool {
	r.HP = max(0, r.HP-dmg)
	return r.HP <= 0
}

// Restore heals fully and moves the character to area.
func (r *Record) Restore(area storage.Identifier) {
	r.HP = r.MaxHP()
	r.Area = area
}

// Extension keys on a Record.
const (
	historyExt  storage.Extension[map[int]*history] = "history"
	progressExt storage.Extension[map[int][]int]    = "task_progress"
)

// history tracks how a character has done on one pool question.
type history struct {
	Answered   int       `json:"answered"`
	Correct    int       `json:"correct"`
	NextReview time.Time `json:"next_review"`
}

const (
	maxReviewDays = 30
	retryAfter    = 4 * time.Hour
)

// schedule pushes the next review out further the more reliably the
// question is answered. Wrong answers come back after a few hours.
func (h *history) schedule(now time.Time, correct bool) {
	h.Answered++
	if !correct {
		h.NextReview = now.Add(retryAfter)
		return
	}
	h.Correct++

	days := 1
	if h.Answered > 1 {
		rate := float64(h.Correct) / float64(h.Answered)
		days = min(int(1+rate*float64(h.Correct)*2), maxReviewDays)
	}
	h.NextReview = now.AddDate(0, 0, days)
}

// recordAnswer updates the review schedule for question id.
func (r *Record) recordAnswer(id int, correct bool, now time.Time) error {
	return historyExt.Update(&r.Extensions, func(m *map[int]*history) {
		if *m == nil {
			*m = map[int]*history{}
		}
		h := (*m)[id]
		if h == nil {
			h = &history{}
			(*m)[id] = h
		}
		h.schedule(now, correct)
	})
}

// dueForReview reports whether question id has never been answered or its
// review time has passed.
func (r *Record) dueForReview(id int, now time.Time) (bool, error) {
	m, err := historyExt.Load(r.Extensions)
	if err != nil {
		return false, err
	}
	h := m[id]
	return h == nil || !h.NextReview.After(now), nil
}

// recordProgress marks question index of task as answered correctly and
// returns how many distinct questions of the task are now done.
func (r *Record) recordProgress(taskID, index int) (int, error) {
	var done int
	err := progressExt.Update(&r.Extensions, func(m *map[int][]int) {
		if *m == nil {
			*m = map[int][]int{}
		}
		got := (*m)[taskID]
		if !slices.Contains(got, index) {
			got = append(got, index)
			slices.Sort(got)
		}
		(*m)[taskID] = got
		done = len(got)
	})
	return done, err
}
