package sqldf

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// UnsupportedShapeError is returned when an environment value referenced as a
// table has no materialization strategy.
type UnsupportedShapeError struct {
	Name   string
	Type   string
	Reason string
}

func (e *UnsupportedShapeError) Error() string {
	msg := fmt.Sprintf("cannot use %s as a table: unsupported value of type %s", e.describe(), e.Type)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *UnsupportedShapeError) describe() string {
	if e.Name == "" {
		return "value"
	}
	return fmt.Sprintf("%q", e.Name)
}

// UnresolvedReferenceError is returned when the script names something that
// exists neither in the environment nor in the engine. When the engine
// reported it, Err carries the engine error and Error returns its text as is.
type UnresolvedReferenceError struct {
	Name string
	Err  error
}

func (e *UnresolvedReferenceError) Error() string {
	if e.Err != nil {
		return rootCause(e.Err).Error()
	}
	return fmt.Sprintf("unresolved reference :%s: no value named %q in the environment", e.Name, e.Name)
}

func (e *UnresolvedReferenceError) Unwrap() error { return e.Err }

// StatementError is returned when the engine rejects a statement. Index is the
// zero-based position of the statement among the non-blank statements of the
// script, the same numbering as Statement.Index.
type StatementError struct {
	Index     int
	Statement string
	Err       error
}

// Error returns the engine's own message, unmodified.
func (e *StatementError) Error() string {
	return rootCause(e.Err).Error()
}

func (e *StatementError) Unwrap() error { return e.Err }

// NoResultError is returned when the last statement of a script produces no
// result set.
type NoResultError struct {
	Statement string
}

func (e *NoResultError) Error() string {
	if e.Statement == "" {
		return "query produced no result: script is empty"
	}
	return fmt.Sprintf("query produced no result: last statement returns no rows: %s", e.Statement)
}

// SessionError is returned when the ephemeral engine cannot be opened or
// released.
type SessionError struct {
	Op  string
	Err error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("engine session %s: %v", e.Op, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

var missingObject = regexp.MustCompile(`(?i)no such (?:table|column):\s*(\S+)|(?:table|column|relation) (?:with name )?"?([^"\s]+)"? does not exist`)

// classifyEngineError turns an engine failure of statement idx into the
// matching typed error.
func classifyEngineError(idx int, stmt string, err error) error {
	msg := rootCause(err).Error()
	if m := missingObject.FindStringSubmatch(msg); m != nil {
		name := m[1]
		if name == "" {
			name = m[2]
		}
		return &UnresolvedReferenceError{Name: strings.Trim(name, `"'`), Err: err}
	}
	return &StatementError{Index: idx, Statement: stmt, Err: err}
}
