package progress

type AssignmentStatus string

const (
	AssignmentNotStarted AssignmentStatus = "not_started"
	AssignmentSubmitted  AssignmentStatus = "submitted"
	AssignmentCompleted  AssignmentStatus = "completed"
)

var AllAssignmentStatuses = []AssignmentStatus{
	AssignmentNotStarted,
	AssignmentSubmitted,
	AssignmentCompleted,
}

func (s AssignmentStatus) IsValid() bool {
	for _, v := range AllAssignmentStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type ContentProgress struct {
	Viewed     int     `json:"viewed"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

type BotInteractions struct {
	Count int `json:"count"`
}

type AssignmentProgress struct {
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

type QuizProgress struct {
	Passed       int     `json:"passed"`
	Attempted    int     `json:"attempted"`
	AverageScore float64 `json:"average_score"`
}

type WeekProgress struct {
	WeekNumber       int              `json:"week_number"`
	Viewed           int              `json:"viewed,omitempty"`
	Total            int              `json:"total,omitempty"`
	AssignmentStatus AssignmentStatus `json:"assignment_status,omitempty"`
	AssignmentScore  *float64         `json:"assignment_score,omitempty"`
}

// Record is the server-owned progress aggregate. The agent only holds a cached
// copy and mutates it locally for optimistic counters.
type Record struct {
	Email           string             `json:"email,omitempty"`
	Content         ContentProgress    `json:"content"`
	BotInteractions BotInteractions    `json:"bot_interactions"`
	Assignments     AssignmentProgress `json:"assignments"`
	Quizzes         QuizProgress       `json:"quizzes"`
	WeeklyProgress  []WeekProgress     `json:"weekly_progress"`
}

func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	if r.WeeklyProgress != nil {
		out.WeeklyProgress = make([]WeekProgress, len(r.WeeklyProgress))
		for i, w := range r.WeeklyProgress {
			if w.AssignmentScore != nil {
				score := *w.AssignmentScore
				w.AssignmentScore = &score
			}
			out.WeeklyProgress[i] = w
		}
	}
	return &out
}

func (r *Record) Week(number int) (WeekProgress, bool) {
	if r == nil {
		return WeekProgress{}, false
	}
	for _, w := range r.WeeklyProgress {
		if w.WeekNumber == number {
			return w, true
		}
	}
	return WeekProgress{}, false
}

// AssignmentDescriptor is the authoritative assignment metadata, fetched apart
// from Record and joined to it by week number.
type AssignmentDescriptor struct {
	ID               int64            `json:"id"`
	WeekNumber       int              `json:"week_number"`
	Title            string           `json:"title,omitempty"`
	Score            *float64         `json:"score,omitempty"`
	SubmissionStatus AssignmentStatus `json:"submission_status,omitempty"`
	Feedback         string           `json:"feedback,omitempty"`
}
