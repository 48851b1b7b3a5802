package db

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	gitobj "github.com/vdye/git-odb-refs/internal/git"
	"github.com/vdye/git-odb-refs/internal/odb"
	"github.com/vdye/git-odb-refs/internal/refs"
	"github.com/vdye/git-odb-refs/internal/storage"
	"github.com/vdye/git-odb-refs/internal/testhelper"
	"github.com/vdye/git-odb-refs/internal/types"
)

func newTestDb(t *testing.T) (Database, storage.GitStorage) {
	t.Helper()

	s := storage.NewMemoryStorage()
	database, err := New(s)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.Zero(t, database.Store().OpenHandles())
		require.NoError(t, database.Close())
	})
	return database, s
}

func TestReferences(t *testing.T) {
	database, s := newTestDb(t)

	commit := testhelper.WriteRootCommit(t, s, "root")
	tag := testhelper.WriteTag(t, s, "v2", commit, plumbing.CommitObject)
	testhelper.SetHashRef(t, s, "refs/heads/main", commit)
	testhelper.SetHashRef(t, s, "refs/tags/v1", commit)
	testhelper.SetHashRef(t, s, "refs/tags/v2", tag)
	testhelper.SetSymbolicRef(t, s, "HEAD", "refs/heads/main")
	testhelper.SetSymbolicRef(t, s, "refs/heads/dangling", "refs/heads/gone")
	testhelper.SetHashRef(t, s, "refs/heads/", commit)

	before := testutil.ToFloat64(enumerationSkipped)

	result, err := database.References()
	require.NoError(t, err)
	require.Equal(t, before+2, testutil.ToFloat64(enumerationSkipped))

	var names []string
	var kinds []refs.Kind
	for _, ref := range result {
		names = append(names, ref.LongName())
		kinds = append(kinds, refs.KindOf(ref))
	}
	require.Equal(t, []string{"HEAD", "refs/heads/main", "refs/tags/v1", "refs/tags/v2"}, names)
	require.Equal(t, []refs.Kind{refs.KindReference, refs.KindBranch, refs.KindLightweightTag, refs.KindAnnotatedTag}, kinds)
}

func TestReference(t *testing.T) {
	database, s := newTestDb(t)

	commit := testhelper.WriteRootCommit(t, s, "root")
	testhelper.SetHashRef(t, s, "refs/heads/main", commit)
	testhelper.SetSymbolicRef(t, s, "refs/heads/dangling", "refs/heads/gone")

	ref, err := database.Reference("refs/heads/main")
	require.NoError(t, err)
	require.Equal(t, types.FromHash(commit), ref.Oid())

	_, err = database.Reference("refs/heads/dangling")
	require.True(t, errors.Is(err, refs.ErrDanglingSymbolicReference))

	_, err = database.Reference("refs/heads/missing")
	require.True(t, errors.Is(err, odb.ErrReferenceNotFound))
}

func TestReadObject(t *testing.T) {
	database, s := newTestDb(t)

	blob := types.FromHash(testhelper.WriteBlob(t, s, "hello\n"))

	info, err := database.ReadObject(blob, false)
	require.NoError(t, err)
	require.Equal(t, gitobj.BlobObject, info.Type)
	require.Equal(t, int64(6), info.Size)
	require.Nil(t, info.Content)
	require.True(t, info.DeltaBase.IsZero())

	info, err = database.ReadObject(blob, true)
	require.NoError(t, err)
	require.Equal(t, "hello\n", string(info.Content))

	_, err = database.ReadObject(types.MustParseObjectId("dfaa3f97ca337e20154a98ac9d0be76ddd1fcc82"), false)
	require.True(t, errors.Is(err, odb.ErrObjectNotFound))
}

func TestOpenFilesystem(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	commit := testhelper.WriteRootCommit(t, repo.Storer, "root")
	testhelper.SetHashRef(t, repo.Storer, "refs/heads/main", commit)

	database, err := Open(storage.BackendFilesystem, dir)
	require.NoError(t, err)
	defer database.Close()

	ref, err := database.Reference("refs/heads/main")
	require.NoError(t, err)
	require.Equal(t, refs.KindBranch, refs.KindOf(ref))
	require.Equal(t, types.FromHash(commit), ref.Oid())

	info, err := database.ReadObject(types.FromHash(commit), false)
	require.NoError(t, err)
	require.Equal(t, gitobj.CommitObject, info.Type)
}
