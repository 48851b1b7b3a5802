package storage

import (
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/go-git/go-git/v5/storage/memory"
)

// "Filesystem" storage is the default Git on-disk storage
func NewFilesystemStorage(path string) GitStorage {
	return &filesystemStorage{
		Storage: filesystem.NewStorage(osfs.New(path), cache.NewObjectLRUDefault()),
	}
}

type filesystemStorage struct {
	*filesystem.Storage
}

func (*filesystemStorage) Close() error {
	return nil // no op
}

// NewMemoryStorage keeps everything in process memory and loses it on Close.
func NewMemoryStorage() GitStorage {
	return &memoryStorage{Storage: memory.NewStorage()}
}

type memoryStorage struct {
	*memory.Storage
}

func (*memoryStorage) Close() error {
	return nil
}

// Wrap adapts a storer that needs no closing, such as the one behind a
// go-git Repository.
func Wrap(s storer.Storer) GitStorage {
	return &wrappedStorage{Storer: s}
}

type wrappedStorage struct {
	storer.Storer
}

func (*wrappedStorage) Close() error {
	return nil
}

// DeltaObject keeps delta information visible through the wrapper when the
// underlying storer has it.
func (w *wrappedStorage) DeltaObject(t plumbing.ObjectType, h plumbing.Hash) (plumbing.EncodedObject, error) {
	if d, ok := w.Storer.(storer.DeltaObjectStorer); ok {
		return d.DeltaObject(t, h)
	}
	return w.Storer.EncodedObject(t, h)
}
