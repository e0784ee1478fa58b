package port

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Handlers map them onto HTTP status codes.
var (
	ErrNotFound      = errors.New("not found")
	ErrBadRequest    = errors.New("bad request")
	ErrRemoteService = errors.New("remote service error")
)

// Entity-specific not-found errors.
var (
	ErrRepoNotFound     = fmt.Errorf("repository %w", ErrNotFound)
	ErrFileNotFound     = fmt.Errorf("file %w", ErrNotFound)
	ErrTestCaseNotFound = fmt.Errorf("test case %w", ErrNotFound)
	ErrTemplateNotFound = fmt.Errorf("template %w", ErrNotFound)
)

// RequestError is a client error whose message is safe to return verbatim.
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string { return e.Message }

// Unwrap lets errors.Is match ErrBadRequest.
func (e *RequestError) Unwrap() error { return ErrBadRequest }

// BadRequestf builds a RequestError with a formatted message.
func BadRequestf(format string, args ...any) error {
	return &RequestError{Message: fmt.Sprintf(format, args...)}
}

// RemoteError is a failed call to GitHub or the LLM backend.
type RemoteError struct {
	Service    string // "github", "ollama", "gemini"
	StatusCode int    // 0 when the request never got a response
	Message    string
}

func (e *RemoteError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Service, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Service, e.Message)
}

// Unwrap lets errors.Is match ErrRemoteService.
func (e *RemoteError) Unwrap() error { return ErrRemoteService }

// IsConflict reports whether err is a remote 422 (unprocessable) response.
func IsConflict(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.StatusCode == 422
}
