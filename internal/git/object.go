package git

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/vdye/git-odb-refs/internal/types"
)

type ObjectType int8

const (
	InvalidObject ObjectType = iota
	CommitObject
	TreeObject
	BlobObject
	TagObject
	AnyObject
)

func (t ObjectType) String() string {
	switch t {
	case CommitObject:
		return "commit"
	case TreeObject:
		return "tree"
	case BlobObject:
		return "blob"
	case TagObject:
		return "tag"
	case AnyObject:
		return "any"
	default:
		return "invalid"
	}
}

func (t ObjectType) PlumbingType() plumbing.ObjectType {
	switch t {
	case CommitObject:
		return plumbing.CommitObject
	case TreeObject:
		return plumbing.TreeObject
	case BlobObject:
		return plumbing.BlobObject
	case TagObject:
		return plumbing.TagObject
	case AnyObject:
		return plumbing.AnyObject
	default:
		return plumbing.InvalidObject
	}
}

func FromPlumbingType(t plumbing.ObjectType) ObjectType {
	switch t {
	case plumbing.CommitObject:
		return CommitObject
	case plumbing.TreeObject:
		return TreeObject
	case plumbing.BlobObject:
		return BlobObject
	case plumbing.TagObject:
		return TagObject
	case plumbing.AnyObject:
		return AnyObject
	default:
		return InvalidObject
	}
}

// Matches reports whether an object of type actual satisfies a request for t.
func (t ObjectType) Matches(actual ObjectType) bool {
	return t == AnyObject || t == actual
}

type Object interface {
	Oid() types.ObjectId
	Type() ObjectType
	RawGitBuffer() ([]byte, error)
}

// ObjectReader reads a whole object by id. Implementations return an error
// when the object does not exist or is not of the requested kind.
type ObjectReader interface {
	ReadObject(oid types.ObjectId, kind ObjectType) (Object, error)
}

// DecodeObject turns a stored object into its typed representation.
func DecodeObject(obj plumbing.EncodedObject) (Object, error) {
	buffer, err := readAll(obj)
	if err != nil {
		return nil, err
	}

	switch obj.Type() {
	case plumbing.CommitObject:
		return decodeCommit(obj, buffer)
	case plumbing.TagObject:
		return decodeTag(obj, buffer)
	case plumbing.TreeObject:
		return decodeTree(obj, buffer)
	case plumbing.BlobObject:
		return newBlob(types.FromHash(obj.Hash()), buffer), nil
	default:
		return nil, errors.Newf("invalid object type %s", obj.Type())
	}
}

func readAll(obj plumbing.EncodedObject) ([]byte, error) {
	reader, err := obj.Reader()
	if err != nil {
		return nil, errors.Wrapf(err, "open object %s", obj.Hash())
	}
	defer reader.Close()

	buf, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrapf(err, "read object %s", obj.Hash())
	} else if len(buf) < int(obj.Size()) {
		return nil, errors.Newf("incorrect number of bytes in object (expected %d, got %d)", obj.Size(), len(buf))
	}
	return buf, nil
}
