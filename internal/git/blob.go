package git

import (
	"github.com/vdye/git-odb-refs/internal/types"
)

type blob struct {
	oid    types.ObjectId
	buffer []byte
}

func newBlob(oid types.ObjectId, buffer []byte) *blob {
	return &blob{oid: oid, buffer: buffer}
}

func (b *blob) Oid() types.ObjectId {
	return b.oid
}

func (b *blob) Type() ObjectType {
	return BlobObject
}

func (b *blob) RawGitBuffer() ([]byte, error) {
	return b.buffer, nil
}
