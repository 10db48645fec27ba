package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrAPI is a failure the platform reported through the response envelope.
type ErrAPI struct {
	Op      string
	Status  int // HTTP status
	Code    int // meta.code
	Message string
}

func (e *ErrAPI) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: api error %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: api error %d: %s", e.Op, e.Code, e.Message)
}

// ErrTransport is a failure to reach the platform or to read its reply.
type ErrTransport struct {
	Op  string
	Err error
}

func (e *ErrTransport) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Op, e.Err)
}

func (e *ErrTransport) Unwrap() error { return e.Err }

// ErrAuth means no usable bearer token could be obtained before sending.
type ErrAuth struct {
	Op  string
	Err error
}

func (e *ErrAuth) Error() string {
	return fmt.Sprintf("%s: token: %v", e.Op, e.Err)
}

func (e *ErrAuth) Unwrap() error { return e.Err }

// IsAuth reports whether err is a token failure.
func IsAuth(err error) bool {
	var aErr *ErrAuth
	return errors.As(err, &aErr)
}

// IsNotFound reports whether err is a platform "not found".
func IsNotFound(err error) bool {
	var apiErr *ErrAPI
	return errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Status == http.StatusNotFound)
}

// IsUnauthorized reports whether err means the session token was rejected.
func IsUnauthorized(err error) bool {
	var apiErr *ErrAPI
	return errors.As(err, &apiErr) && (apiErr.Code == http.StatusUnauthorized || apiErr.Status == http.StatusUnauthorized)
}

// IsAPI reports whether err is an envelope failure.
func IsAPI(err error) bool {
	var apiErr *ErrAPI
	return errors.As(err, &apiErr)
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	var tErr *ErrTransport
	return errors.As(err, &tErr)
}

// UserMessage renders err as a short notification line.
func UserMessage(err error) string {
	var apiErr *ErrAPI
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fmt.Sprintf("Server rejected the request (code %d)", apiErr.Code)
	}
	if IsTransport(err) {
		return "Could not reach the server. Check your connection and try again."
	}
	if IsAuth(err) {
		return "You are not signed in. Run `lingoquiz login` and try again."
	}
	return err.Error()
}
