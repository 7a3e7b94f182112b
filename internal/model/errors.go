package model

import "errors"

// Operator-facing errors. None of them change stored state.
var (
	ErrParse     = errors.New("malformed command")
	ErrNotFound  = errors.New("destination not found")
	ErrDuplicate = errors.New("destination already exists")
)

// Classified delivery failures. A destination worker survives all of them;
// any other transport error stops that worker.
var (
	ErrSignInvalid  = errors.New("chat id sign invalid")
	ErrForbidden    = errors.New("write forbidden")
	ErrChatNotFound = errors.New("chat not found")
	ErrPrivate      = errors.New("chat is private")
)
