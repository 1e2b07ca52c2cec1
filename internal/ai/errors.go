package ai

import (
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// Error is a failed AI call that carries the HTTP status reported by the API.
type Error struct {
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ai request failed with status %d: %v", e.StatusCode, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status attached to err, or 0 when there is none.
func StatusCode(err error) int {
	var aiErr *Error
	if errors.As(err, &aiErr) {
		return aiErr.StatusCode
	}
	return 0
}

func wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &Error{StatusCode: apiErr.Code, Err: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &Error{StatusCode: apiErrPtr.Code, Err: err}
	}
	return err
}
