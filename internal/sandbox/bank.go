package sandbox

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"github.com/pixil98/go-errors"
	"gopkg.in/yaml.v3"
)

// Task is one curriculum task and its quiz, as authored in YAML.
type Task struct {
	ID         int            `yaml:"id"`
	Name       string         `yaml:"name"`
	Difficulty int            `yaml:"difficulty"`
	Open       bool           `yaml:"open"`
	Questions  []TaskQuestion `yaml:"questions"`
}

type TaskQuestion struct {
	Question string   `yaml:"question"`
	Answers  []string `yaml:"answers"`
	Correct  []int    `yaml:"correct"`
}

func (t *Task) Validate() error {
	el := errors.NewErrorList()

	if t.ID <= 0 {
		el.Add(fmt.Errorf("id must be positive"))
	}
	if t.Name == "" {
		el.Add(fmt.Errorf("name is required"))
	}
	if t.Difficulty < 1 || t.Difficulty > 5 {
		el.Add(fmt.Errorf("difficulty must be between 1 and 5"))
	}
	if len(t.Questions) > questionsPerTask {
		el.Add(fmt.Errorf("at most %d questions are allowed", questionsPerTask))
	}
	for i, q := range t.Questions {
		if err := q.validate(); err != nil {
			el.Add(fmt.Errorf("question %d: %w", i+1, err))
		}
	}

	return el.Err()
}

func (q TaskQuestion) validate() error {
	el := errors.NewErrorList()

	if q.Question == "" {
		el.Add(fmt.Errorf("text is required"))
	}
	if len(q.Answers) < 2 {
		el.Add(fmt.Errorf("at least two answers are required"))
	}
	if len(q.Correct) == 0 {
		el.Add(fmt.Errorf("at least one correct answer is required"))
	}
	for _, c := range q.Correct {
		if c < 0 || c >= len(q.Answers) {
			el.Add(fmt.Errorf("correct index %d out of range", c))
		}
	}

	return el.Err()
}

// questionsPerTask spaces question ids so each task owns its own block.
const questionsPerTask = 1000

// QuestionID is the pool id of the question at index within task taskID.
// Ids depend only on the task and position, so they survive a reload that
// adds or reorders tasks.
func QuestionID(taskID, index int) int {
	return taskID*questionsPerTask + index
}

// PoolQuestion is a quiz question flattened into the encounter pool.
type PoolQuestion struct {
	ID         int
	TaskID     int
	Index      int
	Text       string
	Answers    []string
	Correct    []int
	Difficulty int
}

// Multiple reports whether more than one answer must be picked.
func (q *PoolQuestion) Multiple() bool {
	return len(q.Correct) > 1
}

// IsCorrect compares the picked answers with the key as sets.
func (q *PoolQuestion) IsCorrect(picked []int) bool {
	a := slices.Compact(slices.Sorted(slices.Values(picked)))
	b := slices.Compact(slices.Sorted(slices.Values(q.Correct)))
	return slices.Equal(a, b)
}

// Bank is the question pool built from every task file in a directory.
type Bank struct {
	tasks     map[int]*Task
	questions []*PoolQuestion
	byID      map[int]*PoolQuestion
}

// LoadBank reads every .yaml or .yml file under dir. The pool keeps file
// name order, then task order within the file.
func LoadBank(dir string) (*Bank, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".yaml", ".yml":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning quiz directory %q: %w", dir, err)
	}
	sort.Strings(files)

	var tasks []*Task
	for _, f := range files {
		ts, err := loadTaskFile(f)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", filepath.Base(f), err)
		}
		tasks = append(tasks, ts...)
	}

	return NewBank(tasks)
}

func loadTaskFile(path string) ([]*Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	var doc struct {
		Tasks []*Task `yaml:"tasks"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	return doc.Tasks, nil
}

// NewBank validates tasks and flattens their questions into the pool.
func NewBank(tasks []*Task) (*Bank, error) {
	b := &Bank{tasks: map[int]*Task{}, byID: map[int]*PoolQuestion{}}

	el := errors.NewErrorList()
	for _, t := range tasks {
		if err := t.Validate(); err != nil {
			el.Add(fmt.Errorf("task %q: %w", t.Name, err))
			continue
		}
		if _, ok := b.tasks[t.ID]; ok {
			el.Add(fmt.Errorf("duplicate task id %d", t.ID))
			continue
		}
		b.tasks[t.ID] = t

		for i, q := range t.Questions {
			pq := &PoolQuestion{
				ID:         QuestionID(t.ID, i),
				TaskID:     t.ID,
				Index:      i,
				Text:       q.Question,
				Answers:    q.Answers,
				Correct:    q.Correct,
				Difficulty: t.Difficulty,
			}
			b.questions = append(b.questions, pq)
			b.byID[pq.ID] = pq
		}
	}

	if err := el.Err(); err != nil {
		return nil, err
	}
	return b, nil
}

// Len is the number of questions in the pool.
func (b *Bank) Len() int {
	return len(b.questions)
}

// Question returns the pool question with id, or nil.
func (b *Bank) Question(id int) *PoolQuestion {
	return b.byID[id]
}

// Task returns the task with id, or nil.
func (b *Bank) Task(id int) *Task {
	return b.tasks[id]
}

// inRange returns the questions whose difficulty is within [lo, hi] and
// which keep returns true for.
func (b *Bank) inRange(lo, hi int, keep func(*PoolQuestion) bool) []*PoolQuestion {
	var out []*PoolQuestion
	for _, q := range b.questions {
		if q.Difficulty < lo || q.Difficulty > hi {
			continue
		}
		if keep != nil && !keep(q) {
			continue
		}
		out = append(out, q)
	}
	return out
}

func pick(r *rand.Rand, qs []*PoolQuestion) *PoolQuestion {
	if len(qs) == 0 {
		return nil
	}
	return qs[r.IntN(len(qs))]
}
