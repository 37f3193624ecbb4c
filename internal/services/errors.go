// Package services defines the business logic for authentication and the
// conversation-turn pipeline. This file centralizes common service-level
// error values so they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer;
// translation into user-facing messages or HTTP status codes is performed
// at the handler layer.
package services

import "errors"

var (
	// ErrEmptyMessage is returned when a chat turn arrives with an empty or
	// whitespace-only message. It is rejected before any model call.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrMessageTooLong is returned when a chat message exceeds the
	// configured rune limit.
	ErrMessageTooLong = errors.New("message too long")

	// ErrEmailTaken is returned on registration when the email already has
	// an account.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials covers both unknown email and wrong password at
	// login; callers must not be able to tell the two apart.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrPersistFailed indicates the reply was computed but the turn could
	// not be written to the conversation store.
	ErrPersistFailed = errors.New("turn not persisted")
)
