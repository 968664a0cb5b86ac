package pageview

import "time"

type Visit struct {
	ID        string    `json:"visit_id"`
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	EnteredAt time.Time `json:"entered_at"`
	FirstView bool      `json:"first_view"`
}

type EntryRequest struct {
	URL   string `json:"url" validate:"required"`
	Title string `json:"title" validate:"max=512"`
}

type ExitRequest struct {
	VisitID string `json:"visit_id" validate:"required,uuid"`
}
