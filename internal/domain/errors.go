package domain

import "errors"

// ErrUnknownColumn and related errors describe board validation failures.
var (
	ErrUnknownColumn    = errors.New("unknown column")
	ErrUnknownNote      = errors.New("unknown note")
	ErrWIPLimitExceeded = errors.New("wip limit exceeded")
	ErrNoSuchColumn     = errors.New("no column in that direction")
	ErrInvalidDueDate   = errors.New("invalid due date (use YYYY.MM.DD@hh:mm)")
	ErrDuplicateID      = errors.New("duplicate identifier")
	ErrInvalidID        = errors.New("invalid id")
	ErrInvalidName      = errors.New("invalid name")
	ErrInvalidTitle     = errors.New("invalid title")
	ErrInvalidWIPLimit  = errors.New("invalid wip limit")
	ErrIDExhausted      = errors.New("could not allocate a unique note id")
)
