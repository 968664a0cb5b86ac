package remote

import (
	"context"
	"net/http"
	"strings"
)

func (c *Client) GenerateQuiz(ctx context.Context, req QuizRequest) (*GeneratedQuiz, error) {
	if strings.TrimSpace(req.Email) == "" {
		return nil, ErrMissingEmail
	}
	var resp GeneratedQuiz
	if err := c.doJSON(ctx, "quiz_generate", http.MethodPost, "/quiz/generate", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Questions) == 0 {
		return nil, ErrInvalidResponse
	}
	return &resp, nil
}

func (c *Client) SubmitQuiz(ctx context.Context, answers QuizAnswers) (*QuizResult, error) {
	if strings.TrimSpace(answers.Email) == "" {
		return nil, ErrMissingEmail
	}
	if answers.Answers == nil {
		answers.Answers = map[string]string{}
	}
	var resp QuizResult
	if err := c.doJSON(ctx, "quiz_submit", http.MethodPost, "/quiz/submit", answers, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) QuizTopics(ctx context.Context) (map[string]Topic, error) {
	var resp topicsResponse
	if err := c.doJSON(ctx, "quiz_topics", http.MethodGet, "/quiz/topics", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Topics, nil
}

func (c *Client) QuizHistory(ctx context.Context, email string) ([]QuizAttempt, error) {
	path, err := emailPath("/quiz/history/", email, "")
	if err != nil {
		return nil, err
	}
	var resp historyResponse
	if err := c.doJSON(ctx, "quiz_history", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.History, nil
}
