package git

import (
	"github.com/cockroachdb/errors"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/vdye/git-odb-refs/internal/types"
)

type TreeEntry struct {
	Name   string
	Mode   filemode.FileMode
	Object ObjectPointer
}

type Tree struct {
	oid     types.ObjectId
	entries []TreeEntry
	buffer  []byte
}

func decodeTree(obj plumbing.EncodedObject, buffer []byte) (*Tree, error) {
	var t object.Tree
	if err := t.Decode(obj); err != nil {
		return nil, errors.Wrapf(err, "decode tree %s", obj.Hash())
	}

	entries := make([]TreeEntry, 0, len(t.Entries))
	for _, e := range t.Entries {
		kind := BlobObject
		switch e.Mode {
		case filemode.Dir:
			kind = TreeObject
		case filemode.Submodule:
			kind = CommitObject
		}
		entries = append(entries, TreeEntry{
			Name:   e.Name,
			Mode:   e.Mode,
			Object: NewObjectPointer(types.FromHash(e.Hash), kind),
		})
	}

	return &Tree{
		oid:     types.FromHash(obj.Hash()),
		entries: entries,
		buffer:  buffer,
	}, nil
}

func (t *Tree) Oid() types.ObjectId { return t.oid }

func (t *Tree) Type() ObjectType { return TreeObject }

func (t *Tree) Entries() []TreeEntry {
	return append([]TreeEntry(nil), t.entries...)
}

func (t *Tree) RawGitBuffer() ([]byte, error) {
	return t.buffer, nil
}
