package apperr

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrMissingPrerequisite = errors.New("missing prerequisite")
	ErrBusy                = errors.New("another command is already running")
)
