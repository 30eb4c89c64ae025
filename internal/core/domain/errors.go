package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidProposal = errors.New("invalid proposal format")
	ErrUpstream        = errors.New("completion service unavailable")
	ErrAlreadyExecuted = errors.New("proposal already executed")
)
