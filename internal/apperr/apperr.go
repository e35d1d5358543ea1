// Package apperr defines the error taxonomy shared by the workflow core, the
// services behind the REST API and the REST client.
//
// Callers match with errors.As (or the Is* helpers); none of these are meant
// to be swallowed.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned when an application, document or contract does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError blocks an action before anything is sent or mutated.
// Fields maps a field name to the rule it failed.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed: " + e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	msg := e.Message
	if msg == "" {
		msg = "invalid fields"
	}
	return fmt.Sprintf("validation failed: %s (%s)", msg, strings.Join(parts, ", "))
}

// Validation builds a ValidationError without field details.
func Validation(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError reports that the stored state no longer matches what the
// caller acted on. The caller must re-fetch before trying again.
type ConflictError struct {
	Message  string
	Expected string
	Actual   string
}

func (e *ConflictError) Error() string {
	if e.Expected != "" || e.Actual != "" {
		return fmt.Sprintf("conflict: %s (expected %q, found %q)", e.Message, e.Expected, e.Actual)
	}
	return "conflict: " + e.Message
}

// Conflict builds a ConflictError.
func Conflict(format string, args ...any) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// PolicyError reports a transition the actor may not perform, or one missing
// mandatory input. Nothing has been mutated when it is returned.
type PolicyError struct {
	Message string
}

func (e *PolicyError) Error() string { return "policy: " + e.Message }

// Policy builds a PolicyError.
func Policy(format string, args ...any) error {
	return &PolicyError{Message: fmt.Sprintf(format, args...)}
}

// TransportError wraps a network or server failure. Local state is kept so the
// user can retry.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport: %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

func IsPolicy(err error) bool {
	var target *PolicyError
	return errors.As(err, &target)
}

func IsTransport(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}
