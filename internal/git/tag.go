package git

import (
	"github.com/cockroachdb/errors"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/vdye/git-odb-refs/internal/types"
)

// Tag is an annotated tag object.
type Tag struct {
	oid     types.ObjectId
	name    string
	target  ObjectPointer
	tagger  object.Signature
	message string
	buffer  []byte
}

func decodeTag(obj plumbing.EncodedObject, buffer []byte) (*Tag, error) {
	var t object.Tag
	if err := t.Decode(obj); err != nil {
		return nil, errors.Wrapf(err, "decode tag %s", obj.Hash())
	}

	return &Tag{
		oid:     types.FromHash(obj.Hash()),
		name:    t.Name,
		target:  NewObjectPointer(types.FromHash(t.Target), FromPlumbingType(t.TargetType)),
		tagger:  t.Tagger,
		message: t.Message,
		buffer:  buffer,
	}, nil
}

func (t *Tag) Oid() types.ObjectId { return t.oid }

func (t *Tag) Type() ObjectType { return TagObject }

// Name is the tag name recorded inside the object, which need not match the
// ref it is reachable from.
func (t *Tag) Name() string { return t.name }

// Target points at the tagged object. It may itself be another tag.
func (t *Tag) Target() ObjectPointer { return t.target }

func (t *Tag) Tagger() object.Signature { return t.tagger }

func (t *Tag) Message() string { return t.message }

func (t *Tag) RawGitBuffer() ([]byte, error) {
	return t.buffer, nil
}
