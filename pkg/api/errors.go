package api

import (
	"errors"
	"fmt"
)

// Kind classifies a failed request into the client's error taxonomy.
type Kind int

const (
	// KindUnauthorized means the service rejected the bearer credential.
	KindUnauthorized Kind = iota
	// KindClient covers 4xx responses other than unauthorized.
	KindClient
	// KindServer covers 5xx responses.
	KindServer
	// KindNetwork means no response was received at all.
	KindNetwork
	// KindDecode means the response body did not match the expected shape.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindClient:
		return "client error"
	case KindServer:
		return "server error"
	case KindNetwork:
		return "network failure"
	case KindDecode:
		return "decode failure"
	}
	return "unknown"
}

// Error is a classified request failure. Message carries the server-supplied
// text when the response body had one, else a generic one derived from the
// status. Status is zero for network and decode failures.
type Error struct {
	Kind    Kind
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// KindOf returns the Kind of err if it (or any wrapped error) is an *Error.
// The second return is false for errors outside the taxonomy.
func KindOf(err error) (Kind, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind, true
	}
	return 0, false
}

// IsUnauthorized reports whether err is a credential rejection.
func IsUnauthorized(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindUnauthorized
}

// UserMessage returns the text worth showing to a user: the server-supplied
// message for classified errors, err.Error() otherwise.
func UserMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
