package progress

import "math"

// Weights of the overall progress score. These mirror the course site's
// heuristic and are kept for compatibility; they are not a confirmed grading policy.
const (
	ContentWeight    = 0.4
	AssignmentWeight = 0.4
	QuizWeight       = 0.2
	pointsPerQuiz    = 10
)

func OverallScore(r *Record) float64 {
	if r == nil {
		return 0
	}
	quizScore := math.Min(float64(r.Quizzes.Passed*pointsPerQuiz), 100)
	score := r.Content.Percentage*ContentWeight +
		r.Assignments.Percentage*AssignmentWeight +
		quizScore*QuizWeight
	return math.Round(score*10) / 10
}

type Badge struct {
	WeekNumber int              `json:"week_number"`
	Status     AssignmentStatus `json:"status"`
	Score      *float64         `json:"score"`
}

// DeriveBadge computes the week card badge. The status only ever comes from the
// server's weekly record, and an unknown status reads as not started. The score
// falls back to the descriptor for that week.
func DeriveBadge(r *Record, descriptors []AssignmentDescriptor, week int) Badge {
	badge := Badge{WeekNumber: week, Status: AssignmentNotStarted}

	wp, ok := r.Week(week)
	if ok {
		if wp.AssignmentStatus.IsValid() {
			badge.Status = wp.AssignmentStatus
		}
		if wp.AssignmentScore != nil {
			score := *wp.AssignmentScore
			badge.Score = &score
			return badge
		}
	}

	for _, d := range descriptors {
		if d.WeekNumber == week && d.Score != nil {
			score := *d.Score
			badge.Score = &score
			break
		}
	}
	return badge
}

func DeriveBadges(r *Record, descriptors []AssignmentDescriptor) []Badge {
	seen := make(map[int]bool)
	var weeks []int
	if r != nil {
		for _, w := range r.WeeklyProgress {
			if !seen[w.WeekNumber] {
				seen[w.WeekNumber] = true
				weeks = append(weeks, w.WeekNumber)
			}
		}
	}
	for _, d := range descriptors {
		if !seen[d.WeekNumber] {
			seen[d.WeekNumber] = true
			weeks = append(weeks, d.WeekNumber)
		}
	}

	badges := make([]Badge, 0, len(weeks))
	for _, w := range weeks {
		badges = append(badges, DeriveBadge(r, descriptors, w))
	}
	return badges
}
