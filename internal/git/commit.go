package git

import (
	"github.com/cockroachdb/errors"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/vdye/git-odb-refs/internal/types"
)

type Commit struct {
	oid       types.ObjectId
	tree      ObjectPointer
	parents   []ObjectPointer
	author    object.Signature
	committer object.Signature
	message   string
	buffer    []byte
}

func decodeCommit(obj plumbing.EncodedObject, buffer []byte) (*Commit, error) {
	var c object.Commit
	if err := c.Decode(obj); err != nil {
		return nil, errors.Wrapf(err, "decode commit %s", obj.Hash())
	}

	parents := make([]ObjectPointer, 0, len(c.ParentHashes))
	for _, p := range c.ParentHashes {
		parents = append(parents, NewObjectPointer(types.FromHash(p), CommitObject))
	}

	return &Commit{
		oid:       types.FromHash(obj.Hash()),
		tree:      NewObjectPointer(types.FromHash(c.TreeHash), TreeObject),
		parents:   parents,
		author:    c.Author,
		committer: c.Committer,
		message:   c.Message,
		buffer:    buffer,
	}, nil
}

func (c *Commit) Oid() types.ObjectId { return c.oid }

func (c *Commit) Type() ObjectType { return CommitObject }

func (c *Commit) Tree() ObjectPointer { return c.tree }

func (c *Commit) Parents() []ObjectPointer {
	return append([]ObjectPointer(nil), c.parents...)
}

func (c *Commit) Author() object.Signature { return c.author }

func (c *Commit) Committer() object.Signature { return c.committer }

func (c *Commit) Message() string { return c.message }

func (c *Commit) RawGitBuffer() ([]byte, error) {
	return c.buffer, nil
}
