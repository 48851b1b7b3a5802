package storage

import (
	"io"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/storer"
	gitstorage "github.com/go-git/go-git/v5/storage"
)

// Key layout:
//
//	o/<hex oid> -> type byte + zstd(content)
//	r/<ref name> -> "<hex oid>" or "ref: <target>"
var (
	objectPrefix    = []byte("o/")
	referencePrefix = []byte("r/")
)

func NewPebbleStorage(path string) (GitStorage, error) {
	s, err := NewPebbleStorageWithOptions(filepath.Join(path, "objects", "pebble"), &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewPebbleStorageWithOptions opens the database directly at dir.
func NewPebbleStorageWithOptions(dir string, opts *pebble.Options) (*PebbleStorage, error) {
	conn, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open pebble database at %s", dir)
	}
	return &PebbleStorage{
		conn: conn,
	}, nil
}

type PebbleStorage struct {
	conn *pebble.DB

	// Serializes reference compare-and-swap.
	refMu sync.Mutex
}

func (s *PebbleStorage) Close() error {
	return s.conn.Close()
}

func objectKey(oid plumbing.Hash) []byte {
	return append(append([]byte(nil), objectPrefix...), oid.String()...)
}

func referenceKey(name plumbing.ReferenceName) []byte {
	return append(append([]byte(nil), referencePrefix...), name...)
}

// prefixUpperBound returns the smallest key greater than every key with the
// given prefix.
func prefixUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

func (s *PebbleStorage) get(key []byte) ([]byte, error) {
	value, closer, err := s.conn.Get(key)
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return append([]byte(nil), value...), nil
}

func (s *PebbleStorage) scan(prefix []byte, fn func(key, value []byte) error) error {
	iter, err := s.conn.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return err
	}

	for iter.First(); iter.Valid(); iter.Next() {
		if err := fn(iter.Key()[len(prefix):], iter.Value()); err != nil {
			iter.Close()
			return err
		}
	}
	return iter.Close()
}

func (s *PebbleStorage) NewEncodedObject() plumbing.EncodedObject {
	return &plumbing.MemoryObject{}
}

func (s *PebbleStorage) SetEncodedObject(obj plumbing.EncodedObject) (plumbing.Hash, error) {
	reader, err := obj.Reader()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	defer reader.Close()

	buf, err := io.ReadAll(reader)
	if err != nil {
		return plumbing.ZeroHash, err
	} else if len(buf) < int(obj.Size()) {
		return plumbing.ZeroHash, errors.Newf("incorrect number of bytes in object (expected %d, got %d)", obj.Size(), len(buf))
	}

	oid := obj.Hash()
	if err := s.conn.Set(objectKey(oid), encodeObjectValue(obj.Type(), buf), pebble.Sync); err != nil {
		return plumbing.ZeroHash, errors.Wrapf(err, "write object %s", oid)
	}
	return oid, nil
}

func (s *PebbleStorage) EncodedObject(objType plumbing.ObjectType, oid plumbing.Hash) (plumbing.EncodedObject, error) {
	value, err := s.get(objectKey(oid))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, plumbing.ErrObjectNotFound
	} else if err != nil {
		return nil, errors.Wrapf(err, "read object %s", oid)
	}

	storedType, content, err := decodeObjectValue(value)
	if err != nil {
		return nil, errors.Wrapf(err, "object %s", oid)
	}

	// Same contract as go-git's own storages: a type mismatch is "not found".
	if objType != plumbing.AnyObject && objType != storedType {
		return nil, plumbing.ErrObjectNotFound
	}

	obj := &plumbing.MemoryObject{}
	obj.SetType(storedType)
	obj.SetSize(int64(len(content)))
	if _, err := obj.Write(content); err != nil {
		return nil, err
	}
	return obj, nil
}

func (s *PebbleStorage) IterEncodedObjects(objType plumbing.ObjectType) (storer.EncodedObjectIter, error) {
	var objects []plumbing.EncodedObject
	err := s.scan(objectPrefix, func(key, _ []byte) error {
		obj, err := s.EncodedObject(objType, plumbing.NewHash(string(key)))
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil
		} else if err != nil {
			return err
		}
		objects = append(objects, obj)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return storer.NewEncodedObjectSliceIter(objects), nil
}

func (s *PebbleStorage) HasEncodedObject(oid plumbing.Hash) error {
	_, err := s.get(objectKey(oid))
	if errors.Is(err, pebble.ErrNotFound) {
		return plumbing.ErrObjectNotFound
	}
	return err
}

func (s *PebbleStorage) EncodedObjectSize(oid plumbing.Hash) (int64, error) {
	obj, err := s.EncodedObject(plumbing.AnyObject, oid)
	if err != nil {
		return 0, err
	}
	return obj.Size(), nil
}

func (s *PebbleStorage) AddAlternate(remote string) error {
	// No alternates support
	return errors.New("alternates are not supported")
}

func (s *PebbleStorage) SetReference(ref *plumbing.Reference) error {
	s.refMu.Lock()
	defer s.refMu.Unlock()
	return s.setReference(ref)
}

func (s *PebbleStorage) setReference(ref *plumbing.Reference) error {
	if ref == nil {
		return nil
	}
	target := ref.Strings()[1]
	return s.conn.Set(referenceKey(ref.Name()), []byte(target), pebble.Sync)
}

func (s *PebbleStorage) CheckAndSetReference(ref, old *plumbing.Reference) error {
	s.refMu.Lock()
	defer s.refMu.Unlock()

	if ref == nil {
		return nil
	}

	if old != nil {
		current, err := s.Reference(old.Name())
		if err != nil && !errors.Is(err, plumbing.ErrReferenceNotFound) {
			return err
		}
		if current != nil && current.Hash() != old.Hash() {
			return gitstorage.ErrReferenceHasChanged
		}
	}
	return s.setReference(ref)
}

func (s *PebbleStorage) Reference(name plumbing.ReferenceName) (*plumbing.Reference, error) {
	value, err := s.get(referenceKey(name))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, plumbing.ErrReferenceNotFound
	} else if err != nil {
		return nil, errors.Wrapf(err, "read reference %s", name)
	}
	return plumbing.NewReferenceFromStrings(string(name), string(value)), nil
}

func (s *PebbleStorage) IterReferences() (storer.ReferenceIter, error) {
	var refs []*plumbing.Reference
	err := s.scan(referencePrefix, func(key, value []byte) error {
		refs = append(refs, plumbing.NewReferenceFromStrings(string(key), string(value)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return storer.NewReferenceSliceIter(refs), nil
}

func (s *PebbleStorage) RemoveReference(name plumbing.ReferenceName) error {
	s.refMu.Lock()
	defer s.refMu.Unlock()
	return s.conn.Delete(referenceKey(name), pebble.Sync)
}

func (s *PebbleStorage) CountLooseRefs() (int, error) {
	count := 0
	err := s.scan(referencePrefix, func(_, _ []byte) error {
		count++
		return nil
	})
	return count, err
}

// PackRefs is a no-op: every reference lives in the same keyspace.
func (s *PebbleStorage) PackRefs() error {
	return nil
}
