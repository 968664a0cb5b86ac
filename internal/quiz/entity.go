package quiz

import (
	"time"

	"github.com/saulo-duarte/course-progress-agent/internal/remote"
)

type State string

const (
	StateIdle       State = "idle"
	StateGenerating State = "generating"
	StateActive     State = "active"
	StateSubmitting State = "submitting"
	StateCompleted  State = "completed"
	StateCancelled  State = "cancelled"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

const (
	DefaultQuestions = 5
	MaxQuestions     = 10
	minutesPerItem   = 2
)

// Session is the in-memory attempt. It is never persisted.
type Session struct {
	QuizID     int64             `json:"quiz_id"`
	Topic      string            `json:"topic"`
	Difficulty Difficulty        `json:"difficulty"`
	WeekNumber *int              `json:"week_number,omitempty"`
	Questions  []remote.Question `json:"questions"`
	Selected   map[int]string    `json:"selected"`
	StartTime  time.Time         `json:"start_time"`
	TimeLimit  time.Duration     `json:"-"`
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Selected = make(map[int]string, len(s.Selected))
	for k, v := range s.Selected {
		out.Selected[k] = v
	}
	return &out
}

type Snapshot struct {
	State            State              `json:"state"`
	Session          *Session           `json:"session,omitempty"`
	Answered         int                `json:"answered"`
	Total            int                `json:"total"`
	TimeLimitSeconds int                `json:"time_limit_seconds,omitempty"`
	ElapsedSeconds   int                `json:"elapsed_seconds,omitempty"`
	Result           *remote.QuizResult `json:"result,omitempty"`
}
