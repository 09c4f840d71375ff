package service

import "errors"

// ValidationError is a caller mistake; its message is safe to return as-is.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

var (
	ErrMissingSlug  = &ValidationError{Msg: "Missing 'slug' property in request body"}
	ErrReservedSlug = &ValidationError{Msg: "Invalid 'slug' property in request body, this slug is reserved"}
	ErrSlugShape    = &ValidationError{Msg: "Invalid 'slug' property in request body, it must not start or end with '/'"}
	ErrMissingURL   = &ValidationError{Msg: "Missing 'url' property in request body"}
	ErrInvalidURL   = &ValidationError{Msg: "Invalid 'url' property in request body, must be a proper full URL with http/https protocol"}
	ErrSlugTaken    = &ValidationError{Msg: "Slug is already used!"}
)

var (
	// ErrForbidden is returned when the capability does not grant admin rights.
	ErrForbidden = errors.New("forbidden")
	// ErrInconsistent marks a stored mapping that has no destination.
	ErrInconsistent = errors.New("mapping has no url")
)
