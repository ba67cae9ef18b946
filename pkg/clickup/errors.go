package clickup

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure so callers can decide whether to surface it
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindConfig
	KindNetwork
	KindParse
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindNetwork:
		return "network"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

// Error is returned by every Client call.
// Status is non-zero only when the API answered with a non-2xx status.
type Error struct {
	Kind   ErrorKind
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("%s: ClickUp returned %d: %s", e.Op, e.Status, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or KindUnknown when err is not a *Error
func KindOf(err error) ErrorKind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// StatusOf returns the HTTP status carried by err, 0 if none
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func configError(op, msg string) error {
	return &Error{Kind: KindConfig, Op: op, Err: errors.New(msg)}
}

func networkError(op string, err error) error {
	return &Error{Kind: KindNetwork, Op: op, Err: err}
}

func parseError(op string, err error) error {
	return &Error{Kind: KindParse, Op: op, Err: err}
}
