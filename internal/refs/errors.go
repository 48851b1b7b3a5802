package refs

import "github.com/cockroachdb/errors"

var (
	// ErrMalformedBranchName marks a branch-shaped reference whose short
	// branch name cannot be derived.
	ErrMalformedBranchName = errors.New("malformed branch name")
	// ErrDanglingSymbolicReference marks a symbolic branch or tag that does
	// not resolve to a concrete target.
	ErrDanglingSymbolicReference = errors.New("dangling symbolic reference")
	// ErrObjectLookup marks a store failure while probing for a tag object,
	// other than the object being absent or not a tag.
	ErrObjectLookup = errors.New("object lookup failed")
	// ErrNotATag is returned by NewTagReference for non-tag references.
	ErrNotATag = errors.New("reference is not a tag")
)
