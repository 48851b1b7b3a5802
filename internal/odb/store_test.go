package odb

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/vdye/git-odb-refs/internal/git"
	"github.com/vdye/git-odb-refs/internal/storage"
	"github.com/vdye/git-odb-refs/internal/testhelper"
	"github.com/vdye/git-odb-refs/internal/types"
)

func newTestStore(t *testing.T) (*Store, storage.GitStorage) {
	t.Helper()

	s := storage.NewMemoryStorage()
	store, err := Open(s, WithTagCacheSize(16))
	require.NoError(t, err)
	return store, s
}

func TestLookupObject(t *testing.T) {
	store, s := newTestStore(t)

	commit := testhelper.WriteRootCommit(t, s, "root")
	tag := testhelper.WriteTag(t, s, "v1.0", commit, plumbing.CommitObject)

	testCases := []struct {
		desc    string
		oid     types.ObjectId
		kind    git.ObjectType
		wantErr error
	}{
		{desc: "commit as commit", oid: types.FromHash(commit), kind: git.CommitObject},
		{desc: "commit as any", oid: types.FromHash(commit), kind: git.AnyObject},
		{desc: "tag as tag", oid: types.FromHash(tag), kind: git.TagObject},
		{desc: "commit as tag", oid: types.FromHash(commit), kind: git.TagObject, wantErr: ErrWrongObjectKind},
		{
			desc:    "missing",
			oid:     types.MustParseObjectId("dfaa3f97ca337e20154a98ac9d0be76ddd1fcc82"),
			kind:    git.TagObject,
			wantErr: ErrObjectNotFound,
		},
		{
			desc:    "sha256 in sha1 storage",
			oid:     types.MustParseObjectId("6ef19b41225c5369f1c104d45d8d85efa9b057b53b14b4b9b939dd74decc5321"),
			kind:    git.AnyObject,
			wantErr: ErrObjectNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			h, err := store.LookupObject(tc.oid, tc.kind)
			if tc.wantErr != nil {
				require.True(t, errors.Is(err, tc.wantErr), "unexpected error: %v", err)
				require.Nil(t, h)
				require.Zero(t, store.OpenHandles())
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.oid, h.Oid())
			require.Equal(t, 1, store.OpenHandles())
			store.Release(h)
			require.Zero(t, store.OpenHandles())
		})
	}
}

func TestLookupObjectTagCache(t *testing.T) {
	store, s := newTestStore(t)

	commit := testhelper.WriteRootCommit(t, s, "root")
	tag := types.FromHash(testhelper.WriteTag(t, s, "v1.0", commit, plumbing.CommitObject))

	before := testutil.ToFloat64(tagCacheHits)

	first, err := store.LookupObject(tag, git.TagObject)
	require.NoError(t, err)
	defer store.Release(first)
	require.Equal(t, before, testutil.ToFloat64(tagCacheHits))

	second, err := store.LookupObject(tag, git.TagObject)
	require.NoError(t, err)
	defer store.Release(second)
	require.Equal(t, before+1, testutil.ToFloat64(tagCacheHits))

	require.Same(t, first.Tag(), second.Tag())
	require.Equal(t, types.FromHash(commit), second.Tag().Target().Oid())
	require.Equal(t, 2, store.OpenHandles())
}

func TestReleaseIsIdempotent(t *testing.T) {
	store, s := newTestStore(t)
	testhelper.SetHashRef(t, s, "refs/heads/main", testhelper.WriteRootCommit(t, s, "root"))

	h, err := store.Reference("refs/heads/main")
	require.NoError(t, err)
	require.Equal(t, 1, store.OpenHandles())

	store.Release(h)
	store.Release(h)
	store.Release(nil)
	var nilRef *ReferenceHandle
	store.Release(nilRef)
	require.Zero(t, store.OpenHandles())

	_, err = store.ResolveSymbolic(h)
	require.Equal(t, ErrReleased, err)
}

func TestReferenceNotFound(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Reference("refs/heads/missing")
	require.True(t, errors.Is(err, ErrReferenceNotFound))
	require.Zero(t, store.OpenHandles())
}

func TestResolveSymbolic(t *testing.T) {
	store, s := newTestStore(t)

	commit := testhelper.WriteRootCommit(t, s, "root")
	testhelper.SetHashRef(t, s, "refs/heads/main", commit)
	testhelper.SetSymbolicRef(t, s, "HEAD", "refs/heads/main")
	testhelper.SetSymbolicRef(t, s, "refs/heads/alias", "HEAD")
	testhelper.SetSymbolicRef(t, s, "refs/heads/dangling", "refs/heads/gone")
	testhelper.SetSymbolicRef(t, s, "refs/heads/loop-a", "refs/heads/loop-b")
	testhelper.SetSymbolicRef(t, s, "refs/heads/loop-b", "refs/heads/loop-a")

	testCases := []struct {
		desc     string
		ref      string
		wantName string
		wantErr  error
	}{
		{desc: "direct", ref: "refs/heads/main", wantName: "refs/heads/main"},
		{desc: "one hop", ref: "HEAD", wantName: "refs/heads/main"},
		{desc: "two hops", ref: "refs/heads/alias", wantName: "refs/heads/main"},
		{desc: "dangling", ref: "refs/heads/dangling", wantErr: ErrDanglingReference},
		{desc: "loop", ref: "refs/heads/loop-a", wantErr: ErrDanglingReference},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			h, err := store.Reference(tc.ref)
			require.NoError(t, err)
			defer store.Release(h)

			resolved, err := store.ResolveSymbolic(h)
			if tc.wantErr != nil {
				require.True(t, errors.Is(err, tc.wantErr), "unexpected error: %v", err)
				require.Equal(t, 1, store.OpenHandles())
				return
			}
			require.NoError(t, err)
			defer store.Release(resolved)

			require.Equal(t, tc.wantName, resolved.FullName())
			require.Equal(t, types.FromHash(commit), resolved.Target())
			require.False(t, resolved.Flags().IsSymbolic)
		})
	}
	require.Zero(t, store.OpenHandles())
}

func TestReferences(t *testing.T) {
	store, s := newTestStore(t)

	commit := testhelper.WriteRootCommit(t, s, "root")
	testhelper.SetHashRef(t, s, "refs/tags/v1", commit)
	testhelper.SetHashRef(t, s, "refs/heads/main", commit)
	testhelper.SetSymbolicRef(t, s, "HEAD", "refs/heads/main")

	handles, err := store.References()
	require.NoError(t, err)
	require.Equal(t, len(handles), store.OpenHandles())

	var names []string
	for _, h := range handles {
		names = append(names, h.FullName())
		store.Release(h)
	}
	require.Equal(t, []string{"HEAD", "refs/heads/main", "refs/tags/v1"}, names)
	require.Zero(t, store.OpenHandles())
}

func TestReadObject(t *testing.T) {
	store, s := newTestStore(t)
	commit := types.FromHash(testhelper.WriteRootCommit(t, s, "root"))

	obj, err := store.ReadObject(commit, git.CommitObject)
	require.NoError(t, err)
	require.Equal(t, "root", obj.(*git.Commit).Message())
	require.Zero(t, store.OpenHandles())
}

func TestCloseReportsLeaks(t *testing.T) {
	store, s := newTestStore(t)
	testhelper.SetHashRef(t, s, "refs/heads/main", testhelper.WriteRootCommit(t, s, "root"))

	_, err := store.Reference("refs/heads/main")
	require.NoError(t, err)
	require.NoError(t, store.Close())
}
