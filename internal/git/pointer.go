package git

import (
	"github.com/cockroachdb/errors"

	"github.com/vdye/git-odb-refs/internal/types"
)

// ObjectPointer names an object of an expected kind without loading it.
// Dereferencing is always explicit through Resolve.
type ObjectPointer struct {
	oid  types.ObjectId
	kind ObjectType
}

func NewObjectPointer(oid types.ObjectId, kind ObjectType) ObjectPointer {
	return ObjectPointer{oid: oid, kind: kind}
}

func (p ObjectPointer) Oid() types.ObjectId {
	return p.oid
}

func (p ObjectPointer) Kind() ObjectType {
	return p.kind
}

func (p ObjectPointer) Resolve(r ObjectReader) (Object, error) {
	return r.ReadObject(p.oid, p.kind)
}

// ResolveCommit is Resolve for pointers that must land on a commit.
func (p ObjectPointer) ResolveCommit(r ObjectReader) (*Commit, error) {
	obj, err := p.Resolve(r)
	if err != nil {
		return nil, err
	}
	commit, ok := obj.(*Commit)
	if !ok {
		return nil, errors.Newf("object %s is a %s, not a commit", p.oid, obj.Type())
	}
	return commit, nil
}
