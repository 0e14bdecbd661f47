package embed

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// RetryableError indicates a transient embeddings failure, a rate limit
// or an upstream 5xx. Callers may retry after a backoff.
type RetryableError struct {
	StatusCode int
	Err        error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable embeddings error (status %d): %s", e.StatusCode, e.Err)
}

func (e *RetryableError) Unwrap() error { return e.Err }

// wrapTransient marks rate-limit and server-side failures so the
// pipeline can tell them from permanent ones.
func wrapTransient(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && transientStatus(apiErr.HTTPStatusCode) {
		return &RetryableError{StatusCode: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && transientStatus(reqErr.HTTPStatusCode) {
		return &RetryableError{StatusCode: reqErr.HTTPStatusCode, Err: err}
	}
	return err
}

func transientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
