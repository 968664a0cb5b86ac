package remote

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/saulo-duarte/course-progress-agent/internal/progress"
)

func emailPath(prefix, email, suffix string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", ErrMissingEmail
	}
	return prefix + url.PathEscape(email) + suffix, nil
}

// Sync posts the locally known viewed pages and returns the server's merged view.
func (c *Client) Sync(ctx context.Context, email string, viewedPages []string) (*SyncResult, error) {
	if strings.TrimSpace(email) == "" {
		return nil, ErrMissingEmail
	}
	refs := make([]PageRef, 0, len(viewedPages))
	for _, p := range viewedPages {
		refs = append(refs, PageRef{Path: p})
	}

	req := syncRequest{Email: email, LocalData: localData{ViewedPages: refs}}
	var resp SyncResult
	if err := c.doJSON(ctx, "sync", http.MethodPost, "/progress/sync", req, &resp); err != nil {
		return nil, err
	}
	if resp.Progress == nil {
		return nil, ErrInvalidResponse
	}
	return &resp, nil
}

func (c *Client) RecordPageView(ctx context.Context, pv PageView) error {
	if strings.TrimSpace(pv.Email) == "" {
		return ErrMissingEmail
	}
	return c.doJSON(ctx, "page_view", http.MethodPost, "/progress/page-view", pv, nil)
}

// PageViewBeacon delivers pv in the background. It returns before the request is sent.
func (c *Client) PageViewBeacon(ctx context.Context, pv PageView) {
	c.beacon(ctx, "page_view_beacon", "/progress/page-view", pv)
}

func (c *Client) RecordBotInteraction(ctx context.Context, bi BotInteraction) error {
	if strings.TrimSpace(bi.Email) == "" {
		return ErrMissingEmail
	}
	if bi.Language == "" {
		bi.Language = "ja"
	}
	return c.doJSON(ctx, "bot_interaction", http.MethodPost, "/progress/bot-interaction", bi, nil)
}

func (c *Client) GetProgress(ctx context.Context, email string) (*progress.Record, error) {
	path, err := emailPath("/progress/", email, "")
	if err != nil {
		return nil, err
	}
	var rec progress.Record
	if err := c.doJSON(ctx, "get_progress", http.MethodGet, path, nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) ViewedPages(ctx context.Context, email string) ([]string, error) {
	path, err := emailPath("/progress/", email, "/viewed-pages")
	if err != nil {
		return nil, err
	}
	var resp viewedPagesResponse
	if err := c.doJSON(ctx, "viewed_pages", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.ViewedPages, nil
}

func (c *Client) Assignments(ctx context.Context, email string) ([]progress.AssignmentDescriptor, error) {
	path, err := emailPath("/progress/", email, "/assignments")
	if err != nil {
		return nil, err
	}
	var resp assignmentsResponse
	if err := c.doJSON(ctx, "assignments", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Assignments, nil
}

func (c *Client) SubmitAssignment(ctx context.Context, sub AssignmentSubmission) (*AssignmentReceipt, error) {
	if strings.TrimSpace(sub.Email) == "" {
		return nil, ErrMissingEmail
	}
	if sub.Status == "" {
		sub.Status = string(progress.AssignmentSubmitted)
	}
	var resp AssignmentReceipt
	if err := c.doJSON(ctx, "assignment_submit", http.MethodPost, "/progress/assignment/submit", sub, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
