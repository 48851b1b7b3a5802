// Package refs classifies raw references into generic references, branches
// and tags, resolving symbolic and annotated indirection down to an object id.
package refs

import (
	"github.com/vdye/git-odb-refs/internal/git"
	"github.com/vdye/git-odb-refs/internal/odb"
	"github.com/vdye/git-odb-refs/internal/types"
)

const (
	refsHeadsPrefix   = "refs/heads/"
	refsRemotesPrefix = "refs/remotes/"
	refsTagsPrefix    = "refs/tags/"
)

// ReferenceType is implemented by every classified reference. The set of
// implementations is closed: Reference, Branch, LightweightTag and
// AnnotatedTag.
type ReferenceType interface {
	// LongName is the full path, e.g. refs/heads/main.
	LongName() string
	// ShortName is the human-facing name, or "" when it would equal
	// LongName.
	ShortName() string
	// Oid is the object the reference ultimately points at.
	Oid() types.ObjectId

	isReferenceType()
}

// Store is the part of the object store that classification uses.
type Store interface {
	LookupObject(oid types.ObjectId, kind git.ObjectType) (*odb.ObjectHandle, error)
	ResolveSymbolic(h *odb.ReferenceHandle) (*odb.ReferenceHandle, error)
	Release(h odb.Handle)
}

// Reference is any reference that is neither a branch nor a tag, such as
// HEAD or a note.
type Reference struct {
	longName  string
	shortName string
	oid       types.ObjectId
}

// NewReference reads the reference as stored. Symbolic references are not
// followed, so a symbolic handle yields the zero id.
func NewReference(h *odb.ReferenceHandle) Reference {
	ref := Reference{
		longName: h.FullName(),
		oid:      h.Target(),
	}
	if short := h.Shorthand(); short != ref.longName {
		ref.shortName = short
	}
	return ref
}

func (r Reference) LongName() string    { return r.longName }
func (r Reference) ShortName() string   { return r.shortName }
func (r Reference) Oid() types.ObjectId { return r.oid }
func (Reference) isReferenceType()      {}
