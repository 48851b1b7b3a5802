// Package odb hands out scoped handles onto objects and references kept in a
// GitStorage. Every handle acquired from a Store must be released exactly
// once; Release tolerates repeats.
package odb

import (
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/storer"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/vdye/git-odb-refs/internal/git"
	"github.com/vdye/git-odb-refs/internal/log"
	"github.com/vdye/git-odb-refs/internal/storage"
	"github.com/vdye/git-odb-refs/internal/types"
)

const (
	// DefaultTagCacheSize is the default number of decoded annotated tags
	// kept in memory.
	DefaultTagCacheSize = 1024

	// maxSymbolicDepth bounds symbolic reference chains.
	maxSymbolicDepth = 10
)

type Store struct {
	storage storage.GitStorage
	tags    *lru.Cache[types.ObjectId, *git.Tag]
	logger  logrus.FieldLogger

	mu     sync.Mutex
	nextID uint64
	open   map[uint64]string
}

type Option func(*options)

type options struct {
	tagCacheSize int
	logger       logrus.FieldLogger
}

func WithTagCacheSize(size int) Option {
	return func(o *options) { o.tagCacheSize = size }
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) { o.logger = logger }
}

func Open(s storage.GitStorage, opts ...Option) (*Store, error) {
	o := options{
		tagCacheSize: DefaultTagCacheSize,
		logger:       log.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	tags, err := lru.New[types.ObjectId, *git.Tag](o.tagCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "create tag cache")
	}

	return &Store{
		storage: s,
		tags:    tags,
		logger:  o.logger,
		open:    make(map[uint64]string),
	}, nil
}

// Storage exposes the backing storage.
func (s *Store) Storage() storage.GitStorage {
	return s.storage
}

func (s *Store) acquire(desc string) handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	s.open[s.nextID] = desc
	openHandles.Inc()
	return handle{id: s.nextID}
}

func (s *Store) isOpen(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.open[h.handleID()]
	return ok
}

// Release gives a handle back. Releasing twice, or releasing nil, is a
// no-op.
func (s *Store) Release(h Handle) {
	if h == nil {
		return
	}
	switch v := h.(type) {
	case *ReferenceHandle:
		if v == nil {
			return
		}
	case *ObjectHandle:
		if v == nil {
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.open[h.handleID()]; ok {
		delete(s.open, h.handleID())
		openHandles.Dec()
	}
}

// Close logs any handles still open and closes the backing storage.
func (s *Store) Close() error {
	s.mu.Lock()
	leaked := make([]string, 0, len(s.open))
	for _, desc := range s.open {
		leaked = append(leaked, desc)
	}
	s.mu.Unlock()

	if len(leaked) > 0 {
		sort.Strings(leaked)
		s.logger.WithField("handles", leaked).Warn("closing object store with unreleased handles")
	}
	return s.storage.Close()
}

// OpenHandles reports how many handles have been acquired and not released.
func (s *Store) OpenHandles() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.open)
}

func (s *Store) newReferenceHandle(ref *plumbing.Reference) *ReferenceHandle {
	return &ReferenceHandle{
		handle: s.acquire("ref " + ref.Name().String()),
		ref:    ref,
	}
}

// Reference acquires a handle on the reference with the given full name.
func (s *Store) Reference(name string) (*ReferenceHandle, error) {
	ref, err := s.storage.Reference(plumbing.ReferenceName(name))
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, errors.Wrapf(ErrReferenceNotFound, "%s", name)
	} else if err != nil {
		return nil, errors.Wrapf(err, "read reference %s", name)
	}
	return s.newReferenceHandle(ref), nil
}

// References acquires a handle on every reference, sorted by full name.
// The caller releases each one.
func (s *Store) References() ([]*ReferenceHandle, error) {
	iter, err := s.storage.IterReferences()
	if err != nil {
		return nil, errors.Wrap(err, "iterate references")
	}
	defer iter.Close()

	var refs []*plumbing.Reference
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		refs = append(refs, ref)
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return nil, errors.Wrap(err, "iterate references")
	}

	sort.Slice(refs, func(i, j int) bool {
		return refs[i].Name() < refs[j].Name()
	})

	handles := make([]*ReferenceHandle, 0, len(refs))
	for _, ref := range refs {
		handles = append(handles, s.newReferenceHandle(ref))
	}
	return handles, nil
}

// ResolveSymbolic follows a symbolic reference until it reaches a direct
// one and acquires a handle on that. A direct reference resolves to a fresh
// handle on itself.
func (s *Store) ResolveSymbolic(h *ReferenceHandle) (*ReferenceHandle, error) {
	if !s.isOpen(h) {
		return nil, ErrReleased
	}

	ref := h.ref
	for depth := 0; ref.Type() == plumbing.SymbolicReference; depth++ {
		if depth >= maxSymbolicDepth {
			return nil, errors.Wrapf(ErrDanglingReference, "%s: too many levels of symbolic references", h.FullName())
		}

		next, err := s.storage.Reference(ref.Target())
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			s.logger.WithFields(logrus.Fields{
				"ref":    h.FullName(),
				"target": ref.Target().String(),
			}).Debug("symbolic reference target missing")
			return nil, errors.Wrapf(ErrDanglingReference, "%s -> %s", h.FullName(), ref.Target())
		} else if err != nil {
			return nil, errors.Wrapf(err, "resolve %s", h.FullName())
		}
		ref = next
	}

	return s.newReferenceHandle(ref), nil
}

// LookupObject acquires a handle on the object with the given id. The
// object must be of the given kind unless kind is git.AnyObject.
func (s *Store) LookupObject(oid types.ObjectId, kind git.ObjectType) (*ObjectHandle, error) {
	if kind == git.TagObject {
		if tag, ok := s.tags.Get(oid); ok {
			tagCacheHits.Inc()
			objectLookups.WithLabelValues(kind.String(), "found").Inc()
			return s.newObjectHandle(tag), nil
		}
	}

	obj, err := s.lookupObject(oid, kind)
	if err != nil {
		objectLookups.WithLabelValues(kind.String(), lookupResult(err)).Inc()
		return nil, err
	}
	objectLookups.WithLabelValues(kind.String(), "found").Inc()

	if tag, ok := obj.(*git.Tag); ok {
		s.tags.Add(oid, tag)
	}
	return s.newObjectHandle(obj), nil
}

func (s *Store) lookupObject(oid types.ObjectId, kind git.ObjectType) (git.Object, error) {
	h, err := oid.ToHash()
	if err != nil {
		// This storage only holds SHA-1 objects.
		return nil, errors.Wrapf(ErrObjectNotFound, "%s", oid)
	}

	encoded, err := s.storage.EncodedObject(plumbing.AnyObject, h)
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		return nil, errors.Wrapf(ErrObjectNotFound, "%s", oid)
	} else if err != nil {
		return nil, errors.Wrapf(err, "lookup object %s", oid)
	}

	actual := git.FromPlumbingType(encoded.Type())
	if !kind.Matches(actual) {
		return nil, errors.Wrapf(ErrWrongObjectKind, "%s is a %s, not a %s", oid, actual, kind)
	}

	obj, err := git.DecodeObject(encoded)
	if err != nil {
		return nil, errors.Wrapf(err, "lookup object %s", oid)
	}
	return obj, nil
}

func lookupResult(err error) string {
	switch {
	case errors.Is(err, ErrObjectNotFound):
		return "not_found"
	case errors.Is(err, ErrWrongObjectKind):
		return "wrong_kind"
	default:
		return "error"
	}
}

func (s *Store) newObjectHandle(obj git.Object) *ObjectHandle {
	return &ObjectHandle{
		handle: s.acquire("object " + obj.Oid().Hex()),
		object: obj,
	}
}

// ReadObject looks up an object and hands back its value without keeping a
// handle open.
func (s *Store) ReadObject(oid types.ObjectId, kind git.ObjectType) (git.Object, error) {
	h, err := s.LookupObject(oid, kind)
	if err != nil {
		return nil, err
	}
	defer s.Release(h)

	return h.Object(), nil
}
