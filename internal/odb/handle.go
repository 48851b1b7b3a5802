package odb

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/vdye/git-odb-refs/internal/git"
	"github.com/vdye/git-odb-refs/internal/types"
)

// Handle is anything acquired from a Store that must be given back with
// Store.Release.
type Handle interface {
	handleID() uint64
}

type handle struct {
	id uint64
}

func (h handle) handleID() uint64 { return h.id }

const (
	refsHeadsPrefix   = "refs/heads/"
	refsRemotesPrefix = "refs/remotes/"
)

// KindFlags describes what a raw reference looks like by name and storage.
type KindFlags struct {
	IsBranch   bool
	IsRemote   bool
	IsTag      bool
	IsNote     bool
	IsSymbolic bool
}

// ReferenceHandle is a raw reference as read from storage, before
// classification.
type ReferenceHandle struct {
	handle
	ref *plumbing.Reference
}

// FullName is the canonical path, e.g. refs/heads/main.
func (h *ReferenceHandle) FullName() string {
	return h.ref.Name().String()
}

// Shorthand is the shortest unambiguous name, e.g. main or origin/main.
func (h *ReferenceHandle) Shorthand() string {
	return h.ref.Name().Short()
}

// Target is the id the reference points at directly. Symbolic references
// have no direct target and report the zero id.
func (h *ReferenceHandle) Target() types.ObjectId {
	if h.ref.Type() != plumbing.HashReference {
		return types.ZeroObjectId
	}
	return types.FromHash(h.ref.Hash())
}

// SymbolicTarget is the name a symbolic reference points at, or "".
func (h *ReferenceHandle) SymbolicTarget() string {
	if h.ref.Type() != plumbing.SymbolicReference {
		return ""
	}
	return h.ref.Target().String()
}

func (h *ReferenceHandle) Flags() KindFlags {
	name := h.ref.Name()
	return KindFlags{
		IsBranch:   name.IsBranch(),
		IsRemote:   name.IsRemote(),
		IsTag:      name.IsTag(),
		IsNote:     name.IsNote(),
		IsSymbolic: h.ref.Type() == plumbing.SymbolicReference,
	}
}

// BranchName strips refs/heads/ or refs/remotes/ off a branch reference.
func (h *ReferenceHandle) BranchName() (string, error) {
	full := h.FullName()

	var name string
	switch {
	case strings.HasPrefix(full, refsHeadsPrefix):
		name = strings.TrimPrefix(full, refsHeadsPrefix)
	case strings.HasPrefix(full, refsRemotesPrefix):
		name = strings.TrimPrefix(full, refsRemotesPrefix)
	default:
		return "", errors.Newf("reference %q is not a branch", full)
	}

	if name == "" || strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		return "", errors.Newf("malformed branch reference %q", full)
	}
	return name, nil
}

// ObjectHandle is a looked-up object.
type ObjectHandle struct {
	handle
	object git.Object
}

func (h *ObjectHandle) Oid() types.ObjectId {
	return h.object.Oid()
}

func (h *ObjectHandle) Kind() git.ObjectType {
	return h.object.Type()
}

func (h *ObjectHandle) Object() git.Object {
	return h.object
}

// Tag returns the object as a tag, or nil if it is not one.
func (h *ObjectHandle) Tag() *git.Tag {
	tag, _ := h.object.(*git.Tag)
	return tag
}
