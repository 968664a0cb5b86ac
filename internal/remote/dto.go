package remote

import (
	"encoding/json"

	"github.com/saulo-duarte/course-progress-agent/internal/progress"
)

type PageRef struct {
	Path  string `json:"path"`
	Title string `json:"title,omitempty"`
}

type syncRequest struct {
	Email     string    `json:"email"`
	LocalData localData `json:"local_data"`
}

type localData struct {
	ViewedPages []PageRef `json:"viewed_pages"`
}

// SyncResult is the authoritative snapshot returned by a reconcile. SyncedAt is
// kept verbatim because the service emits timestamps without a zone.
type SyncResult struct {
	Progress    *progress.Record `json:"progress"`
	ViewedPages []string         `json:"viewed_pages"`
	SyncedAt    string           `json:"synced_at"`
}

type PageView struct {
	Email     string `json:"email"`
	PagePath  string `json:"page_path"`
	PageTitle string `json:"page_title"`
	TimeSpent int    `json:"time_spent"`
}

type BotInteraction struct {
	Email    string  `json:"email"`
	Question string  `json:"question"`
	Response string  `json:"response"`
	Language string  `json:"language"`
	Topic    *string `json:"topic"`
}

type viewedPagesResponse struct {
	Email       string   `json:"email"`
	ViewedPages []string `json:"viewed_pages"`
}

type assignmentsResponse struct {
	Email       string                          `json:"email"`
	Assignments []progress.AssignmentDescriptor `json:"assignments"`
}

type AssignmentSubmission struct {
	Email        string          `json:"email"`
	AssignmentID int64           `json:"assignment_id"`
	Status       string          `json:"status"`
	Submission   json.RawMessage `json:"submission,omitempty"`
}

type GradingResult struct {
	Score    *float64 `json:"score"`
	Feedback string   `json:"feedback,omitempty"`
	GradedAt string   `json:"graded_at,omitempty"`
}

type Grading struct {
	Queued    bool           `json:"queued"`
	Processed bool           `json:"processed"`
	Result    *GradingResult `json:"result,omitempty"`
}

type AssignmentReceipt struct {
	Status       string   `json:"status"`
	AssignmentID int64    `json:"assignment_id"`
	Grading      *Grading `json:"grading,omitempty"`
}

type QuizRequest struct {
	Email        string  `json:"email"`
	WeekNumber   *int    `json:"week_number"`
	Topic        *string `json:"topic"`
	NumQuestions int     `json:"num_questions"`
	Difficulty   string  `json:"difficulty"`
}

type Question struct {
	Question   string            `json:"question"`
	QuestionJA string            `json:"question_ja,omitempty"`
	Options    map[string]string `json:"options"`
	OptionsJA  map[string]string `json:"options_ja,omitempty"`
}

type GeneratedQuiz struct {
	QuizID           int64      `json:"quiz_id"`
	Topic            string     `json:"topic"`
	WeekNumber       *int       `json:"week_number"`
	Difficulty       string     `json:"difficulty"`
	NumQuestions     int        `json:"num_questions"`
	Questions        []Question `json:"questions"`
	TimeLimitMinutes int        `json:"time_limit_minutes"`
}

type QuizAnswers struct {
	Email     string            `json:"email"`
	QuizID    int64             `json:"quiz_id"`
	Answers   map[string]string `json:"answers"`
	TimeTaken int               `json:"time_taken"`
}

type QuestionResult struct {
	QuestionIndex int    `json:"question_index"`
	StudentAnswer string `json:"student_answer,omitempty"`
	CorrectAnswer string `json:"correct_answer"`
	IsCorrect     bool   `json:"is_correct"`
	Explanation   string `json:"explanation"`
	ExplanationJA string `json:"explanation_ja,omitempty"`
}

type QuizResult struct {
	AttemptID        int64            `json:"attempt_id"`
	QuizID           int64            `json:"quiz_id"`
	Score            int              `json:"score"`
	MaxScore         int              `json:"max_score"`
	Percentage       float64          `json:"percentage"`
	Passed           bool             `json:"passed"`
	Results          []QuestionResult `json:"results"`
	TimeTakenSeconds int              `json:"time_taken_seconds"`
}

type Topic struct {
	EN string `json:"en"`
	JA string `json:"ja"`
}

type topicsResponse struct {
	Topics map[string]Topic `json:"topics"`
}

type QuizAttempt struct {
	ID               int64    `json:"id"`
	QuizID           int64    `json:"quiz_id"`
	Score            *int     `json:"score"`
	MaxScore         *int     `json:"max_score"`
	Percentage       *float64 `json:"percentage"`
	TimeTakenSeconds *int     `json:"time_taken_seconds"`
	CompletedAt      string   `json:"completed_at,omitempty"`
	Topic            string   `json:"topic"`
	WeekNumber       *int     `json:"week_number"`
	Difficulty       string   `json:"difficulty"`
}

type historyResponse struct {
	Email   string        `json:"email"`
	History []QuizAttempt `json:"history"`
}
