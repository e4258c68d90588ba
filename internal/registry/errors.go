package registry

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/go-github/v81/github"
)

// maxBodyBytes caps how much of an error body is kept for logging.
const maxBodyBytes = 4096

// APIError is a non-success registry response, or a transport failure
// (StatusCode 0).
type APIError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		if e.Err != nil {
			return fmt.Sprintf("registry request failed: %v", e.Err)
		}
		return "registry request failed"
	}
	status := fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body == "" {
		return fmt.Sprintf("registry returned %s", status)
	}
	return fmt.Sprintf("registry returned %s: %s", status, e.Body)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// newAPIError builds an APIError from a go-github call result. Prefer the
// structured GitHub error types; they carry the raw response whose body
// go-github has already buffered.
func newAPIError(resp *github.Response, err error) *APIError {
	var (
		httpResp *http.Response
		fallback string
	)

	var er *github.ErrorResponse
	var rle *github.RateLimitError
	var arle *github.AbuseRateLimitError
	var ae *github.AcceptedError
	switch {
	case errors.As(err, &er):
		httpResp = er.Response
		fallback = er.Message
	case errors.As(err, &rle):
		httpResp = rle.Response
		fallback = rle.Message
	case errors.As(err, &arle):
		httpResp = arle.Response
		fallback = arle.Message
	case errors.As(err, &ae):
		fallback = string(ae.Raw)
		if resp != nil {
			return &APIError{StatusCode: resp.StatusCode, Body: truncateBody(fallback), Err: err}
		}
		return &APIError{StatusCode: http.StatusAccepted, Body: truncateBody(fallback), Err: err}
	}
	if httpResp == nil && resp != nil {
		httpResp = resp.Response
	}
	if httpResp == nil {
		return &APIError{Err: err}
	}

	body := readBody(httpResp)
	if body == "" {
		body = strings.TrimSpace(fallback)
	}
	if body == "" && err != nil && httpResp.StatusCode == http.StatusOK {
		// 200 with a body go-github could not decode.
		body = err.Error()
	}
	if body == "" && err == nil {
		body = "unexpected status"
	}
	return &APIError{StatusCode: httpResp.StatusCode, Body: body, Err: err}
}

func readBody(resp *http.Response) string {
	if resp == nil || resp.Body == nil {
		return ""
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return ""
	}
	return truncateBody(string(data))
}

func truncateBody(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxBodyBytes {
		return s[:maxBodyBytes] + "..."
	}
	return s
}
