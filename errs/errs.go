// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package errs defines the error kinds used throughout sysand and a single
// error type that carries a kind, the untrusted input that triggered it, and
// the underlying cause.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies the category of a sysand error, per the error handling
// design.
type Kind uint8

const (
	_ Kind = iota
	InvalidProject
	InvalidSemanticVersion
	InvalidValue
	ProjectAlreadyExists
	AlreadyInstalled
	VersionConflict
	Unsatisfiable
	Io
	Network
	Serialisation
	ChecksumMismatch
	InvalidWorkspace
	ResolutionError
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case InvalidProject:
		return "InvalidProject"
	case InvalidSemanticVersion:
		return "InvalidSemanticVersion"
	case InvalidValue:
		return "InvalidValue"
	case ProjectAlreadyExists:
		return "ProjectAlreadyExists"
	case AlreadyInstalled:
		return "AlreadyInstalled"
	case VersionConflict:
		return "VersionConflict"
	case Unsatisfiable:
		return "Unsatisfiable"
	case Io:
		return "Io"
	case Network:
		return "Network"
	case Serialisation:
		return "Serialisation"
	case ChecksumMismatch:
		return "ChecksumMismatch"
	case InvalidWorkspace:
		return "InvalidWorkspace"
	case ResolutionError:
		return "ResolutionError"
	case Cancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Error is the single error type returned at sysand's package boundaries. It
// carries the untrusted input that triggered the failure (a path, IRI, or
// version string) so the message can quote it, and preserves the chain of
// underlying causes via github.com/pkg/errors.
type Error struct {
	Kind   Kind
	Input  string
	Status int // for Network errors, the HTTP status code, if any
	cause  error
}

func (e *Error) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.cause)
	}
	return fmt.Sprintf("%s: %q: %s", e.Kind, e.Input, e.cause)
}

// Unwrap allows errors.Is/errors.As and github.com/pkg/errors.Cause to reach
// the underlying cause.
func (e *Error) Unwrap() error { return e.cause }

// Cause implements the github.com/pkg/errors Causer interface.
func (e *Error) Cause() error { return e.cause }

// New builds an *Error of the given kind, quoting input, wrapping cause with
// msg.
func New(kind Kind, input string, cause error, msg string, args ...interface{}) *Error {
	formatted := fmt.Sprintf(msg, args...)
	var wrapped error
	if cause != nil {
		wrapped = errors.Wrap(cause, formatted)
	} else {
		wrapped = errors.New(formatted)
	}
	return &Error{Kind: kind, Input: input, cause: wrapped}
}

// Is reports whether err is a *Error of kind k.
func Is(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}
