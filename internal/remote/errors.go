package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNetwork         = errors.New("course service unreachable")
	ErrInvalidResponse = errors.New("invalid response from course service")
	ErrMissingEmail    = errors.New("email is required")
)

type HTTPError struct {
	StatusCode int
	Detail     string
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "http error"
	}
	msg := strings.TrimSpace(e.Detail)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("course service returned %d: %s", e.StatusCode, msg)
}

// Is lets callers treat any non-2xx answer as an invalid response.
func (e *HTTPError) Is(target error) bool {
	return target == ErrInvalidResponse
}

func parseHTTPError(status int, raw []byte) *HTTPError {
	herr := &HTTPError{StatusCode: status, Body: strings.TrimSpace(string(raw))}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope.Detail) == 0 {
		return herr
	}
	var detail string
	if err := json.Unmarshal(envelope.Detail, &detail); err == nil {
		herr.Detail = detail
		return herr
	}
	herr.Detail = string(envelope.Detail)
	return herr
}

func IsStatus(err error, status int) bool {
	var herr *HTTPError
	return errors.As(err, &herr) && herr.StatusCode == status
}
