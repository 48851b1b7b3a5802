package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/storer"
	gitstorage "github.com/go-git/go-git/v5/storage"
	"github.com/stretchr/testify/require"

	"github.com/vdye/git-odb-refs/internal/testhelper"
)

func newTestPebble(t *testing.T) *PebbleStorage {
	t.Helper()

	s, err := NewPebbleStorageWithOptions("pebble", &pebble.Options{FS: vfs.NewMem()})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestPebbleObjects(t *testing.T) {
	s := newTestPebble(t)

	blob := testhelper.WriteBlob(t, s, "hello\n")
	tree := testhelper.WriteTree(t, s, "README", blob)
	commit := testhelper.WriteCommit(t, s, tree, "root\n")

	t.Run("round trip", func(t *testing.T) {
		obj, err := s.EncodedObject(plumbing.BlobObject, blob)
		require.NoError(t, err)
		require.Equal(t, blob, obj.Hash())
		require.Equal(t, int64(6), obj.Size())
	})

	t.Run("any type", func(t *testing.T) {
		obj, err := s.EncodedObject(plumbing.AnyObject, commit)
		require.NoError(t, err)
		require.Equal(t, plumbing.CommitObject, obj.Type())
		require.Equal(t, commit, obj.Hash())
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := s.EncodedObject(plumbing.TagObject, commit)
		require.Equal(t, plumbing.ErrObjectNotFound, err)
	})

	t.Run("missing", func(t *testing.T) {
		missing := plumbing.NewHash("dfaa3f97ca337e20154a98ac9d0be76ddd1fcc82")
		_, err := s.EncodedObject(plumbing.AnyObject, missing)
		require.Equal(t, plumbing.ErrObjectNotFound, err)
		require.Equal(t, plumbing.ErrObjectNotFound, s.HasEncodedObject(missing))
	})

	t.Run("has and size", func(t *testing.T) {
		require.NoError(t, s.HasEncodedObject(tree))
		size, err := s.EncodedObjectSize(blob)
		require.NoError(t, err)
		require.Equal(t, int64(6), size)
	})

	t.Run("iterate by type", func(t *testing.T) {
		iter, err := s.IterEncodedObjects(plumbing.AnyObject)
		require.NoError(t, err)

		var seen []plumbing.Hash
		require.NoError(t, iter.ForEach(func(obj plumbing.EncodedObject) error {
			seen = append(seen, obj.Hash())
			return nil
		}))
		require.ElementsMatch(t, []plumbing.Hash{blob, tree, commit}, seen)

		iter, err = s.IterEncodedObjects(plumbing.CommitObject)
		require.NoError(t, err)
		obj, err := iter.Next()
		require.NoError(t, err)
		require.Equal(t, commit, obj.Hash())
	})
}

func TestPebbleReferences(t *testing.T) {
	s := newTestPebble(t)

	commit := testhelper.WriteRootCommit(t, s, "root")
	testhelper.SetHashRef(t, s, "refs/heads/main", commit)
	testhelper.SetSymbolicRef(t, s, "HEAD", "refs/heads/main")

	ref, err := s.Reference("refs/heads/main")
	require.NoError(t, err)
	require.Equal(t, plumbing.HashReference, ref.Type())
	require.Equal(t, commit, ref.Hash())

	head, err := s.Reference(plumbing.HEAD)
	require.NoError(t, err)
	require.Equal(t, plumbing.SymbolicReference, head.Type())
	require.Equal(t, plumbing.ReferenceName("refs/heads/main"), head.Target())

	resolved, err := storer.ResolveReference(s, plumbing.HEAD)
	require.NoError(t, err)
	require.Equal(t, commit, resolved.Hash())

	count, err := s.CountLooseRefs()
	require.NoError(t, err)
	require.Equal(t, 2, count)

	iter, err := s.IterReferences()
	require.NoError(t, err)
	var names []string
	require.NoError(t, iter.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().String())
		return nil
	}))
	require.Equal(t, []string{"HEAD", "refs/heads/main"}, names)

	require.NoError(t, s.RemoveReference("refs/heads/main"))
	_, err = s.Reference("refs/heads/main")
	require.Equal(t, plumbing.ErrReferenceNotFound, err)
}

func TestPebbleCheckAndSetReference(t *testing.T) {
	s := newTestPebble(t)

	first := testhelper.WriteRootCommit(t, s, "first")
	second := testhelper.WriteRootCommit(t, s, "second")
	testhelper.SetHashRef(t, s, "refs/heads/main", first)

	stale := plumbing.NewHashReference("refs/heads/main", second)
	err := s.CheckAndSetReference(plumbing.NewHashReference("refs/heads/main", second), stale)
	require.Equal(t, gitstorage.ErrReferenceHasChanged, err)

	current := plumbing.NewHashReference("refs/heads/main", first)
	require.NoError(t, s.CheckAndSetReference(plumbing.NewHashReference("refs/heads/main", second), current))

	ref, err := s.Reference("refs/heads/main")
	require.NoError(t, err)
	require.Equal(t, second, ref.Hash())
}

func TestPrefixUpperBound(t *testing.T) {
	require.Equal(t, []byte("o0"), prefixUpperBound([]byte("o/")))
	require.Equal(t, []byte{'b'}, prefixUpperBound([]byte{'a', 0xff}))
	require.Nil(t, prefixUpperBound([]byte{0xff}))
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open("svn", "/tmp")
	require.Error(t, err)

	s, err := Open(BackendMemory, "")
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestNewPebbleStorageOpenFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-directory")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	s, err := NewPebbleStorage(path)
	require.Error(t, err)
	require.True(t, s == nil, "expected a nil GitStorage, got %#v", s)
}
