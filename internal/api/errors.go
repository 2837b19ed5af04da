package api

import "fmt"

// AuthError means the server rejected the credentials or token (HTTP 401).
// By the time the caller sees it, the session has already been forced back
// to anonymous.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "authentication rejected"
	}
	return "authentication rejected: " + e.Message
}

// ServerError is any non-2xx, non-401 response. Message carries the
// server-supplied error body when one was parseable, otherwise the HTTP
// status text.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
}

// NetworkError means no response reached us at all (DNS, refused
// connection, timeout, cancelled context).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "network error: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }
