package refs

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/vdye/git-odb-refs/internal/git"
	"github.com/vdye/git-odb-refs/internal/odb"
	"github.com/vdye/git-odb-refs/internal/types"
)

// Branch is a local (refs/heads/) or remote-tracking (refs/remotes/) branch.
type Branch struct {
	longName string
	name     string
	commit   git.ObjectPointer
}

// NewBranch classifies h as a branch. A symbolic branch is resolved to its
// concrete target; the commit itself is not loaded.
func NewBranch(store Store, h *odb.ReferenceHandle) (Branch, error) {
	name, err := h.BranchName()
	if err != nil {
		return Branch{}, errors.Mark(err, ErrMalformedBranchName)
	}

	oid, err := directTarget(store, h)
	if err != nil {
		return Branch{}, err
	}

	return Branch{
		longName: h.FullName(),
		name:     name,
		commit:   git.NewObjectPointer(oid, git.CommitObject),
	}, nil
}

// directTarget returns the id h points at, following it to a direct
// reference first if it is symbolic.
func directTarget(store Store, h *odb.ReferenceHandle) (types.ObjectId, error) {
	if !h.Flags().IsSymbolic {
		return h.Target(), nil
	}

	resolved, err := store.ResolveSymbolic(h)
	if err != nil {
		if errors.Is(err, odb.ErrDanglingReference) {
			err = errors.Mark(err, ErrDanglingSymbolicReference)
		}
		return types.ObjectId{}, errors.Wrapf(err, "resolve %s", h.FullName())
	}
	defer store.Release(resolved)

	return resolved.Target(), nil
}

func (b Branch) LongName() string { return b.longName }

// Name is the branch name without its refs/heads/ or refs/remotes/ prefix.
func (b Branch) Name() string { return b.name }

func (b Branch) ShortName() string   { return b.name }
func (b Branch) Oid() types.ObjectId { return b.commit.Oid() }

// Commit points at the branch tip. It is not resolved until asked.
func (b Branch) Commit() git.ObjectPointer { return b.commit }

func (b Branch) ResolveCommit(r git.ObjectReader) (*git.Commit, error) {
	return b.commit.ResolveCommit(r)
}

func (b Branch) IsLocal() bool  { return strings.HasPrefix(b.longName, refsHeadsPrefix) }
func (b Branch) IsRemote() bool { return strings.HasPrefix(b.longName, refsRemotesPrefix) }

func (Branch) isReferenceType() {}
