package fivetran

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// APIError is returned for any non-success response that is not an idempotent conflict or a rate limit.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	// Code and Message are the vendor's error fields when the body is JSON.
	Code    string
	Message string
	Body    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d on %s %s: %s", e.StatusCode, e.Method, e.Path, e.Body)
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	apiErr := &APIError{
		Method:     method,
		Path:       path,
		StatusCode: status,
		Body:       string(body),
	}

	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		apiErr.Code = payload.Code
		apiErr.Message = payload.Message
	}

	return apiErr
}

// TransportError is returned once every attempt of a request failed before a response arrived.
type TransportError struct {
	Method   string
	Path     string
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("network error after %d attempts on %s %s: %v", e.Attempts, e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RateLimitError is returned when the API kept answering 429 until the retries ran out.
type RateLimitError struct {
	Method   string
	Path     string
	Attempts int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("max retries exceeded: %s %s still rate limited after %d attempts", e.Method, e.Path, e.Attempts)
}

func isAlreadyExists(method string, status int, body []byte) bool {
	if method != http.MethodPost {
		return false
	}
	if status == http.StatusConflict {
		return true
	}
	return status == http.StatusBadRequest && strings.Contains(strings.ToLower(string(body)), "already exists")
}

// isUnsupportedCapture recognises the error the API returns when a service cannot capture its schema on request.
func isUnsupportedCapture(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	text := apiErr.Code + " " + apiErr.Message + " " + apiErr.Body
	return strings.Contains(text, "UnsupportedOperation") || strings.Contains(text, "does not support schema capturing")
}

// IsSchemaNotReady reports whether err means the connection's schema has not been discovered yet.
func IsSchemaNotReady(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	return apiErr.StatusCode == http.StatusNotFound ||
		apiErr.Code == "NotFound_SchemaConfig" ||
		strings.Contains(apiErr.Body, "NotFound_SchemaConfig")
}
