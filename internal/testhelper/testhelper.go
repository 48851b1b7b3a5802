// Package testhelper seeds go-git storages with objects and references for
// tests.
package testhelper

import (
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/require"
)

// Signature is the fixed identity used for every fixture object so that
// object ids are stable across runs.
var Signature = object.Signature{
	Name:  "Scrooge McDuck",
	Email: "scrooge@mcduck.com",
	When:  time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC),
}

func NewStorage() *memory.Storage {
	return memory.NewStorage()
}

func writeObject(t testing.TB, s storer.EncodedObjectStorer, encode func(plumbing.EncodedObject) error) plumbing.Hash {
	t.Helper()

	obj := s.NewEncodedObject()
	require.NoError(t, encode(obj))

	h, err := s.SetEncodedObject(obj)
	require.NoError(t, err)
	return h
}

func WriteBlob(t testing.TB, s storer.EncodedObjectStorer, content string) plumbing.Hash {
	t.Helper()

	return writeObject(t, s, func(obj plumbing.EncodedObject) error {
		obj.SetType(plumbing.BlobObject)
		w, err := obj.Writer()
		if err != nil {
			return err
		}
		defer w.Close()
		_, err = w.Write([]byte(content))
		return err
	})
}

// WriteTree writes a tree holding a single file entry.
func WriteTree(t testing.TB, s storer.EncodedObjectStorer, name string, blob plumbing.Hash) plumbing.Hash {
	t.Helper()

	tree := &object.Tree{
		Entries: []object.TreeEntry{{Name: name, Mode: filemode.Regular, Hash: blob}},
	}
	return writeObject(t, s, tree.Encode)
}

func WriteCommit(t testing.TB, s storer.EncodedObjectStorer, tree plumbing.Hash, message string, parents ...plumbing.Hash) plumbing.Hash {
	t.Helper()

	commit := &object.Commit{
		Author:       Signature,
		Committer:    Signature,
		Message:      message,
		TreeHash:     tree,
		ParentHashes: parents,
	}
	return writeObject(t, s, commit.Encode)
}

// WriteRootCommit writes a blob, a tree and a parentless commit on top.
func WriteRootCommit(t testing.TB, s storer.EncodedObjectStorer, message string) plumbing.Hash {
	t.Helper()

	blob := WriteBlob(t, s, message+"\n")
	tree := WriteTree(t, s, "README", blob)
	return WriteCommit(t, s, tree, message)
}

func WriteTag(t testing.TB, s storer.EncodedObjectStorer, name string, target plumbing.Hash, targetType plumbing.ObjectType) plumbing.Hash {
	t.Helper()

	tag := &object.Tag{
		Name:       name,
		Tagger:     Signature,
		Message:    "release " + name + "\n",
		TargetType: targetType,
		Target:     target,
	}
	return writeObject(t, s, tag.Encode)
}

func SetHashRef(t testing.TB, s storer.ReferenceStorer, name string, h plumbing.Hash) {
	t.Helper()

	require.NoError(t, s.SetReference(plumbing.NewHashReference(plumbing.ReferenceName(name), h)))
}

func SetSymbolicRef(t testing.TB, s storer.ReferenceStorer, name, target string) {
	t.Helper()

	require.NoError(t, s.SetReference(plumbing.NewSymbolicReference(plumbing.ReferenceName(name), plumbing.ReferenceName(target))))
}
