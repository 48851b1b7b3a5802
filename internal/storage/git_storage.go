package storage

import (
	"github.com/cockroachdb/errors"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// GitStorage is an object and reference store the daemon can serve from.
type GitStorage interface {
	storer.Storer
	Close() error
}

const (
	BackendFilesystem = "filesystem"
	BackendPebble     = "pebble"
	BackendGremlin    = "gremlin"
	BackendMemory     = "memory"
)

// Backends lists every backend name accepted by Open.
var Backends = []string{BackendFilesystem, BackendPebble, BackendGremlin, BackendMemory}

// Open picks a storage backend by name. For the gremlin backend location is
// the server's connection string, otherwise it is the repository path.
func Open(backend, location string) (GitStorage, error) {
	switch backend {
	case BackendFilesystem, "":
		return NewFilesystemStorage(location), nil
	case BackendPebble:
		return NewPebbleStorage(location)
	case BackendGremlin:
		return NewGremlinStorage(location)
	case BackendMemory:
		return NewMemoryStorage(), nil
	default:
		return nil, errors.Newf("unknown storage backend %q", backend)
	}
}
