package refs

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vdye/git-odb-refs/internal/git"
	"github.com/vdye/git-odb-refs/internal/types"
)

func TestEqualAcrossVariants(t *testing.T) {
	a := types.MustParseObjectId("dfaa3f97ca337e20154a98ac9d0be76ddd1fcc82")
	b := types.MustParseObjectId("60ecb67744cb56576c30214ff52294f8ce2def98")

	generic := Reference{longName: "refs/heads/main", shortName: "main", oid: a}
	branch := Branch{longName: "refs/heads/main", name: "main", commit: git.NewObjectPointer(a, git.CommitObject)}
	otherOid := Branch{longName: "refs/heads/main", name: "main", commit: git.NewObjectPointer(b, git.CommitObject)}
	lightweight := LightweightTag{longName: "refs/tags/v1", oid: a}
	sameNameTag := LightweightTag{longName: "refs/tags/v1", oid: a}

	testCases := []struct {
		desc  string
		x, y  ReferenceType
		equal bool
	}{
		{desc: "generic and branch", x: generic, y: branch, equal: true},
		{desc: "same branch different oid", x: branch, y: otherOid, equal: false},
		{desc: "different names same oid", x: branch, y: lightweight, equal: false},
		{desc: "identical tags", x: lightweight, y: sameNameTag, equal: true},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			require.Equal(t, tc.equal, Equal(tc.x, tc.y))
			require.Equal(t, tc.equal, Equal(tc.y, tc.x))
			if tc.equal {
				require.Equal(t, KeyOf(tc.x).Hash(), KeyOf(tc.y).Hash())
			}
		})
	}
}

func TestSet(t *testing.T) {
	a := types.MustParseObjectId("dfaa3f97ca337e20154a98ac9d0be76ddd1fcc82")
	b := types.MustParseObjectId("60ecb67744cb56576c30214ff52294f8ce2def98")

	branch := Branch{longName: "refs/heads/main", name: "main", commit: git.NewObjectPointer(a, git.CommitObject)}
	generic := Reference{longName: "refs/heads/main", shortName: "main", oid: a}
	tag := LightweightTag{longName: "refs/tags/v1", oid: b}

	set := NewSet(tag, branch)
	require.Equal(t, 2, set.Len())

	require.False(t, set.Add(generic))
	require.True(t, set.Contains(generic))
	require.Equal(t, 2, set.Len())

	require.Equal(t, []ReferenceType{branch, tag}, set.Slice())

	set.Remove(generic)
	require.False(t, set.Contains(branch))
	require.Equal(t, 1, set.Len())
}

func TestSetZeroValue(t *testing.T) {
	var set Set
	require.Equal(t, 0, set.Len())
	require.False(t, set.Contains(LightweightTag{longName: "refs/tags/v1"}))
	require.Empty(t, set.Slice())
	set.Remove(LightweightTag{longName: "refs/tags/v1"})

	tag := LightweightTag{longName: "refs/tags/v1", oid: types.MustParseObjectId("60ecb67744cb56576c30214ff52294f8ce2def98")}
	require.True(t, set.Add(tag))
	require.True(t, set.Contains(tag))
	require.Equal(t, 1, set.Len())
}
