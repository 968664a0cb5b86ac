package assignment

import (
	"encoding/json"

	"github.com/saulo-duarte/course-progress-agent/internal/progress"
	"github.com/saulo-duarte/course-progress-agent/internal/remote"
)

// LocalStatus is the agent's own view of a submission in flight. It never
// reaches the cache and never stands in for the server's assignment_status.
type LocalStatus string

const (
	LocalNotSubmitted LocalStatus = "not_submitted"
	LocalSubmitting   LocalStatus = "submitting"
	LocalSubmitted    LocalStatus = "submitted"
)

type SubmitRequest struct {
	Submission json.RawMessage `json:"submission"`
}

type Outcome struct {
	AssignmentID int64           `json:"assignment_id"`
	Status       string          `json:"status"`
	Score        *float64        `json:"score,omitempty"`
	Feedback     string          `json:"feedback,omitempty"`
	Grading      *remote.Grading `json:"grading,omitempty"`
}

type Snapshot struct {
	Assignments []progress.AssignmentDescriptor `json:"assignments"`
	Badges      []progress.Badge                `json:"badges"`
	Local       map[int64]LocalStatus           `json:"local"`
	Submitting  bool                            `json:"submitting"`
	LastOutcome *Outcome                        `json:"last_outcome,omitempty"`
}
