package syncer

import (
	"time"

	"github.com/saulo-duarte/course-progress-agent/internal/cache"
	"github.com/saulo-duarte/course-progress-agent/internal/progress"
)

type ProgressView struct {
	Progress     *progress.Record `json:"progress"`
	ViewedPages  []string         `json:"viewed_pages"`
	LastUpdated  *time.Time       `json:"last_updated,omitempty"`
	OverallScore float64          `json:"overall_score"`
}

func ToProgressView(env *cache.Envelope) ProgressView {
	v := ProgressView{ViewedPages: []string{}}
	if env == nil {
		return v
	}
	v.Progress = env.Progress
	if env.ViewedPages != nil {
		v.ViewedPages = env.ViewedPages
	}
	if !env.LastUpdated.IsZero() {
		t := env.LastUpdated
		v.LastUpdated = &t
	}
	v.OverallScore = progress.OverallScore(env.Progress)
	return v
}
