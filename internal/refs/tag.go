package refs

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/vdye/git-odb-refs/internal/git"
	"github.com/vdye/git-odb-refs/internal/odb"
	"github.com/vdye/git-odb-refs/internal/types"
)

// TagReference is a reference under refs/tags/. It is either a
// LightweightTag or an AnnotatedTag.
type TagReference interface {
	ReferenceType
	// Name is LongName without the refs/tags/ prefix.
	Name() string

	isTagReference()
}

// LightweightTag points straight at an object, with no tag object.
type LightweightTag struct {
	longName string
	oid      types.ObjectId
}

// AnnotatedTag points at a tag object, which in turn points at the tagged
// object.
type AnnotatedTag struct {
	longName string
	tag      *git.Tag
}

// NewTagReference classifies h as a tag. Exactly one lookup is made for a
// tag object at the reference's target: when there is one the tag is
// annotated, and when the target is missing or of another kind it is
// lightweight. Any other lookup failure is returned.
func NewTagReference(store Store, h *odb.ReferenceHandle) (TagReference, error) {
	if !h.Flags().IsTag {
		return nil, errors.Wrapf(ErrNotATag, "%s", h.FullName())
	}

	longName := h.FullName()
	oid, err := directTarget(store, h)
	if err != nil {
		return nil, err
	}

	obj, err := store.LookupObject(oid, git.TagObject)
	if errors.IsAny(err, odb.ErrObjectNotFound, odb.ErrWrongObjectKind) {
		return LightweightTag{longName: longName, oid: oid}, nil
	} else if err != nil {
		return nil, errors.Wrapf(errors.Mark(err, ErrObjectLookup), "probe tag object for %s", longName)
	}
	defer store.Release(obj)

	tag := obj.Tag()
	if tag == nil {
		return nil, errors.Newf("probe tag object for %s: got a %s", longName, obj.Kind())
	}
	return AnnotatedTag{longName: longName, tag: tag}, nil
}

func tagName(longName string) string {
	return strings.TrimPrefix(longName, refsTagsPrefix)
}

func (t LightweightTag) LongName() string    { return t.longName }
func (t LightweightTag) Name() string        { return tagName(t.longName) }
func (t LightweightTag) ShortName() string   { return t.Name() }
func (t LightweightTag) Oid() types.ObjectId { return t.oid }
func (LightweightTag) isReferenceType()      {}
func (LightweightTag) isTagReference()       {}

func (t AnnotatedTag) LongName() string  { return t.longName }
func (t AnnotatedTag) Name() string      { return tagName(t.longName) }
func (t AnnotatedTag) ShortName() string { return t.Name() }

// Oid is the id of the tagged object, one hop past the tag object.
func (t AnnotatedTag) Oid() types.ObjectId { return t.tag.Target().Oid() }

// Tag is the tag object the reference points at.
func (t AnnotatedTag) Tag() *git.Tag { return t.tag }

// TagOid is the id of the tag object itself.
func (t AnnotatedTag) TagOid() types.ObjectId { return t.tag.Oid() }

func (AnnotatedTag) isReferenceType() {}
func (AnnotatedTag) isTagReference()  {}
