// Package handlers – HTTP error codes
//
// Symbolic error code constants mapped into responses via fail(). Codes
// are lowercase snake_case; the generic ones mirror HTTP status semantics,
// the domain-specific ones cover business failures the status alone cannot
// convey (a computed but unrecorded turn, a failed model call).
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeAnswerFailed     = "answer_failed"
	ErrCodePersistFailed    = "persist_failed"
	ErrCodeRegisterFailed   = "register_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
