package models

import "errors"

var (
	ErrDuplicateIdentity = errors.New("username or email already registered")
	ErrAuthFailure       = errors.New("invalid username or password")
	ErrNotFound          = errors.New("not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	// ErrDegraded marks a completion call that produced no usable reply.
	ErrDegraded = errors.New("completion degraded")
)
