package domain

import (
	"errors"
	"fmt"
)

type NotFoundError struct {
	Resource string
	Msg      string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

type ForbiddenError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ForbiddenError) Error() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("not allowed to access this %s", e.Resource)
	default:
		return "forbidden"
	}
}

func (e ForbiddenError) Unwrap() error { return e.Err }

// UpstreamError marks failures of an external service call (network,
// timeout, unparseable body).
type UpstreamError struct {
	Service string
	Err     error
}

func (e UpstreamError) Error() string {
	if e.Service != "" {
		return fmt.Sprintf("%s service unavailable", e.Service)
	}
	return "upstream service unavailable"
}

func (e UpstreamError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsForbidden(err error) bool {
	var target ForbiddenError
	return errors.As(err, &target)
}

func IsUpstream(err error) bool {
	var target UpstreamError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}
