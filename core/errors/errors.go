// Package errors defines the typed error taxonomy for the sync domain.
//
// Each phase of a run fails with a distinct error type so that callers can
// report which phase failed (configuration, read, diff, fetch-current, apply)
// and react accordingly. All types implement error; types that wrap an
// underlying cause implement Unwrap. Use the Is* helpers with errors from any
// depth of wrapping.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// MissingOptionError indicates a required option was not provided. It is
// detected before any I/O occurs.
type MissingOptionError struct {
	Option    string
	Component string
}

func (e *MissingOptionError) Error() string {
	return fmt.Sprintf("missing option %q required by %s", e.Option, e.Component)
}

// NewMissingOption creates a MissingOptionError naming the option and the
// component that requires it.
func NewMissingOption(option, component string) *MissingOptionError {
	return &MissingOptionError{Option: option, Component: component}
}

// ConflictError indicates two options were set that cannot be combined.
// Detected before any I/O occurs.
type ConflictError struct {
	First  string
	Second string
	Reason string
}

func (e *ConflictError) Error() string {
	msg := fmt.Sprintf("options %q and %q cannot be combined", e.First, e.Second)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// NewConflict creates a ConflictError for two mutually exclusive options.
func NewConflict(first, second, reason string) *ConflictError {
	return &ConflictError{First: first, Second: second, Reason: reason}
}

// SourceUnavailableError indicates the desired-state source could not be
// reached or opened. The run aborts; no partial desired state is used.
type SourceUnavailableError struct {
	Source string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// NewSourceUnavailable creates a SourceUnavailableError for the named source.
func NewSourceUnavailable(source string, err error) *SourceUnavailableError {
	return &SourceUnavailableError{Source: source, Err: err}
}

// SourceFormatError indicates the source was reachable but its content
// violates the expected schema.
type SourceFormatError struct {
	Source string
	Detail string
	Err    error
}

func (e *SourceFormatError) Error() string {
	msg := fmt.Sprintf("source %s has invalid format: %s", e.Source, e.Detail)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SourceFormatError) Unwrap() error { return e.Err }

// NewSourceFormat creates a SourceFormatError for the named source.
func NewSourceFormat(source, detail string, err error) *SourceFormatError {
	return &SourceFormatError{Source: source, Detail: detail, Err: err}
}

// HierarchyError indicates the desired supergroup graph contains a cycle.
// The diff computation aborts without emitting any operation.
type HierarchyError struct {
	// Cycle lists the group names along the cycle, first repeated last.
	Cycle []string
}

func (e *HierarchyError) Error() string {
	return fmt.Sprintf("group hierarchy contains a cycle: %s", strings.Join(e.Cycle, " -> "))
}

// NewHierarchy creates a HierarchyError for the given cycle path.
func NewHierarchy(cycle []string) *HierarchyError {
	return &HierarchyError{Cycle: cycle}
}

// UnresolvedReferenceError indicates a user or group references a group that
// will not exist in the target after the sync completes.
type UnresolvedReferenceError struct {
	// Owner names the user or group holding the reference.
	Owner string
	// OwnerKind is "user" or "group".
	OwnerKind string
	// Ref is the referenced group name.
	Ref string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("%s %q references group %q which will not exist after the sync", e.OwnerKind, e.Owner, e.Ref)
}

// NewUnresolvedReference creates an UnresolvedReferenceError.
func NewUnresolvedReference(ownerKind, owner, ref string) *UnresolvedReferenceError {
	return &UnresolvedReferenceError{Owner: owner, OwnerKind: ownerKind, Ref: ref}
}

// TargetUnavailableError indicates the target system could not be reached
// before any apply began. Mid-run connectivity loss is instead surfaced as a
// chunk failure and retried.
type TargetUnavailableError struct {
	Target string
	Err    error
}

func (e *TargetUnavailableError) Error() string {
	return fmt.Sprintf("target %s unavailable: %v", e.Target, e.Err)
}

func (e *TargetUnavailableError) Unwrap() error { return e.Err }

// NewTargetUnavailable creates a TargetUnavailableError for the named target.
func NewTargetUnavailable(target string, err error) *TargetUnavailableError {
	return &TargetUnavailableError{Target: target, Err: err}
}

// IsMissingOption reports whether err is a MissingOptionError.
func IsMissingOption(err error) bool {
	var e *MissingOptionError
	return errors.As(err, &e)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var e *ConflictError
	return errors.As(err, &e)
}

// IsSourceUnavailable reports whether err is a SourceUnavailableError.
func IsSourceUnavailable(err error) bool {
	var e *SourceUnavailableError
	return errors.As(err, &e)
}

// IsSourceFormat reports whether err is a SourceFormatError.
func IsSourceFormat(err error) bool {
	var e *SourceFormatError
	return errors.As(err, &e)
}

// IsHierarchy reports whether err is a HierarchyError.
func IsHierarchy(err error) bool {
	var e *HierarchyError
	return errors.As(err, &e)
}

// IsUnresolvedReference reports whether err is an UnresolvedReferenceError.
func IsUnresolvedReference(err error) bool {
	var e *UnresolvedReferenceError
	return errors.As(err, &e)
}

// IsTargetUnavailable reports whether err is a TargetUnavailableError.
func IsTargetUnavailable(err error) bool {
	var e *TargetUnavailableError
	return errors.As(err, &e)
}
