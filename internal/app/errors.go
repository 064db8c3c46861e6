package app

import "errors"

// ErrStorage and related errors describe persistence failures.
var (
	ErrStorage         = errors.New("storage error")
	ErrCorruptDocument = errors.New("corrupt board document")
	ErrNotRecoverable  = errors.New("store cannot recover a corrupt document")
)
