package odb

import "github.com/cockroachdb/errors"

var (
	// ErrObjectNotFound is returned when no object exists under an id.
	ErrObjectNotFound = errors.New("object not found")
	// ErrWrongObjectKind is returned when an object exists but is not of
	// the requested kind.
	ErrWrongObjectKind = errors.New("object is of the wrong kind")
	// ErrReferenceNotFound is returned when no reference exists under a name.
	ErrReferenceNotFound = errors.New("reference not found")
	// ErrDanglingReference is returned when a symbolic reference does not
	// lead to a direct one.
	ErrDanglingReference = errors.New("dangling symbolic reference")
	// ErrReleased is returned when a released handle is passed back in.
	ErrReleased = errors.New("handle already released")
)
