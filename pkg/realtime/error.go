package realtime

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyConnected is returned by Connect when a handshake is in
	// flight or has already completed on the same Conn.
	ErrAlreadyConnected = errors.New("realtime: already connected")

	// ErrClosed is returned when the Conn has been disconnected.
	ErrClosed = errors.New("realtime: connection closed")

	// ErrCaptureUnavailable wraps failures to acquire the audio input.
	ErrCaptureUnavailable = errors.New("realtime: capture device unavailable")
)

// Error represents an API error from the Realtime endpoint.
type Error struct {
	// Type is the error type (e.g., "invalid_request_error").
	Type string `json:"type,omitzero"`

	// Code is the error code (e.g., "invalid_value").
	Code string `json:"code,omitzero"`

	// Message is the human-readable error message.
	Message string `json:"message,omitzero"`

	// Param is the parameter that caused the error, if applicable.
	Param string `json:"param,omitzero"`

	// EventID is the ID of the client event that caused the error.
	EventID string `json:"event_id,omitzero"`

	// HTTPStatus is the HTTP status code, if applicable.
	HTTPStatus int `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("realtime: %s: %s", e.Code, e.Message)
	}
	if e.Type != "" {
		return fmt.Sprintf("realtime: %s: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("realtime: %s", e.Message)
}
