package db

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/sirupsen/logrus"

	gitobj "github.com/vdye/git-odb-refs/internal/git"
	"github.com/vdye/git-odb-refs/internal/log"
	"github.com/vdye/git-odb-refs/internal/odb"
	"github.com/vdye/git-odb-refs/internal/refs"
	"github.com/vdye/git-odb-refs/internal/storage"
	"github.com/vdye/git-odb-refs/internal/types"
)

// The "Git" DB serves objects and classified references out of an odb.Store
type gitDb struct {
	store  *odb.Store
	logger logrus.FieldLogger
}

// Open opens a repository on the named backend. Filesystem repositories are
// located with go-git, so location may be a worktree or a bare repository.
func Open(backend, location string, opts ...odb.Option) (Database, error) {
	if backend == storage.BackendFilesystem || backend == "" {
		return NewGitDb(location, opts...)
	}

	s, err := storage.Open(backend, location)
	if err != nil {
		return nil, err
	}
	return New(s, opts...)
}

func NewGitDb(path string, opts ...odb.Option) (Database, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: false,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open repository %s", path)
	}

	return New(storage.Wrap(repo.Storer), opts...)
}

// New serves the given storage. The database owns it and closes it on
// Close.
func New(s storage.GitStorage, opts ...odb.Option) (Database, error) {
	store, err := odb.Open(s, opts...)
	if err != nil {
		return nil, err
	}

	return &gitDb{
		store:  store,
		logger: log.Default(),
	}, nil
}

func (db *gitDb) Store() *odb.Store {
	return db.store
}

func (db *gitDb) Close() error {
	return db.store.Close()
}

func (db *gitDb) ReadObject(oid types.ObjectId, includeContent bool) (*ObjectInfo, error) {
	h, err := oid.ToHash()
	if err != nil {
		return nil, errors.Wrapf(odb.ErrObjectNotFound, "%s", oid)
	}

	obj, err := db.encodedObject(h)
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		return nil, errors.Wrapf(odb.ErrObjectNotFound, "%s", oid)
	} else if err != nil {
		return nil, errors.Wrapf(err, "read object %s", oid)
	}

	info := &ObjectInfo{
		Oid:  oid,
		Type: gitobj.FromPlumbingType(obj.Type()),
		Size: obj.Size(),
	}

	if delta, ok := obj.(plumbing.DeltaObject); ok {
		info.Type = gitobj.FromPlumbingType(delta.Type())
		info.Size = delta.ActualSize()
		info.DeltaBase = types.FromHash(delta.BaseHash())
	}

	if includeContent {
		full, err := db.store.Storage().EncodedObject(plumbing.AnyObject, h)
		if err != nil {
			return nil, errors.Wrapf(err, "read object %s", oid)
		}
		reader, err := full.Reader()
		if err != nil {
			return nil, err
		}
		defer reader.Close()

		if info.Content, err = io.ReadAll(reader); err != nil {
			return nil, errors.Wrapf(err, "read object %s", oid)
		}
	}

	return info, nil
}

// encodedObject prefers the delta-aware read so delta bases are reported.
func (db *gitDb) encodedObject(h plumbing.Hash) (plumbing.EncodedObject, error) {
	if backend, ok := db.store.Storage().(storer.DeltaObjectStorer); ok {
		return backend.DeltaObject(plumbing.AnyObject, h)
	}
	return db.store.Storage().EncodedObject(plumbing.AnyObject, h)
}

func (db *gitDb) Reference(name string) (refs.ReferenceType, error) {
	h, err := db.store.Reference(name)
	if err != nil {
		return nil, err
	}
	defer db.store.Release(h)

	return refs.Classify(db.store, h)
}

func (db *gitDb) References() ([]refs.ReferenceType, error) {
	handles, err := db.store.References()
	if err != nil {
		return nil, err
	}

	result := make([]refs.ReferenceType, 0, len(handles))
	for _, h := range handles {
		ref, err := refs.Classify(db.store, h)
		db.store.Release(h)
		if err != nil {
			db.logger.WithFields(logrus.Fields{
				"ref":   h.FullName(),
				"error": err.Error(),
			}).Warn("skipping unclassifiable reference")
			enumerationSkipped.Inc()
			continue
		}
		result = append(result, ref)
	}
	return result, nil
}
