package providers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

// StatusError is a non-success HTTP response from a backend.
type StatusError struct {
	Backend    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: API error (status %d): %s", e.Backend, e.StatusCode, e.Body)
}

// AuthError is a rejected credential.
type AuthError struct {
	Backend string
	Message string
}

func (e *AuthError) Error() string {
	return e.Backend + ": authentication error: " + e.Message
}

// IsAuthError checks if an error is an authentication error.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// readResponse drains resp and maps failure statuses to typed errors.
func readResponse(backend string, resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: reading response: %w", backend, err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthError{Backend: backend, Message: string(body)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &StatusError{Backend: backend, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
