package db

import (
	"github.com/vdye/git-odb-refs/internal/git"
	"github.com/vdye/git-odb-refs/internal/odb"
	"github.com/vdye/git-odb-refs/internal/refs"
	"github.com/vdye/git-odb-refs/internal/types"
)

// ObjectInfo describes a stored object. DeltaBase is zero unless the object
// is stored as a delta.
type ObjectInfo struct {
	Oid       types.ObjectId
	Type      git.ObjectType
	Size      int64
	DeltaBase types.ObjectId
	Content   []byte
}

type Database interface {
	ReadObject(oid types.ObjectId, includeContent bool) (*ObjectInfo, error)

	// Reference classifies a single reference by full name.
	Reference(name string) (refs.ReferenceType, error)
	// References classifies every reference, skipping ones that fail
	// classification.
	References() ([]refs.ReferenceType, error)

	Store() *odb.Store
	Close() error
}
