package storage

import (
	"encoding/base64"
	"io"
	"sort"

	gremlin "github.com/apache/tinkerpop/gremlin-go/v3/driver"
	"github.com/cockroachdb/errors"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	gitstorage "github.com/go-git/go-git/v5/storage"
)

func NewGremlinStorage(connectionString string) (GitStorage, error) {
	conn, err := gremlin.NewDriverRemoteConnection(connectionString)
	if err != nil {
		return nil, errors.Wrapf(err, "connect to gremlin server %s", connectionString)
	}
	return &GremlinStorage{
		conn: conn,
	}, nil
}

// Vertex labels are object type names ("commit", "tree", "blob", "tag") plus
// "ref" for references.
//
// Object properties:
// oid, size, content (base64 of the raw object body)
//
// Reference properties:
// name, target (hex oid or "ref: <name>")
//
// Edge types:
// parent (property: order), tree, target
type GremlinStorage struct {
	conn *gremlin.DriverRemoteConnection
}

const referenceLabel = "ref"

var errNoResults = errors.New("traversal returned no results")

// first picks the first result of a traversal. An empty result is
// errNoResults; a failed traversal keeps its own error.
func first[T any](results []T, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if len(results) == 0 {
		return zero, errNoResults
	}
	return results[0], nil
}

func (s *GremlinStorage) Close() error {
	s.conn.Close()
	return nil
}

func (s *GremlinStorage) traversal() *gremlin.GraphTraversalSource {
	return gremlin.Traversal_().WithRemote(s.conn)
}

func (s *GremlinStorage) NewEncodedObject() plumbing.EncodedObject {
	return &plumbing.MemoryObject{}
}

func (s *GremlinStorage) SetEncodedObject(obj plumbing.EncodedObject) (plumbing.Hash, error) {
	oid := obj.Hash()
	oidStr := oid.String()
	objType := obj.Type().String()
	g := s.traversal()

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

	res, err := g.AddV(objType).
		Property("oid", oidStr).
		Property("size", obj.Size()).
		Property("content", base64.StdEncoding.EncodeToString(buf)).
		Next()
	if err != nil {
		return plumbing.ZeroHash, errors.Wrapf(err, "add %s vertex %s", objType, oidStr)
	}
	v, err := res.GetVertex()
	if err != nil {
		return plumbing.ZeroHash, err
	}

	// Edges to objects already in the graph. Missing endpoints are skipped;
	// the raw content stays authoritative.
	switch obj.Type() {
	case plumbing.CommitObject:
		var commit object.Commit
		if err := commit.Decode(obj); err != nil {
			return plumbing.ZeroHash, err
		}
		for i, parent := range commit.ParentHashes {
			if err := s.addEdge(v, "parent", "commit", parent, "order", i); err != nil {
				return plumbing.ZeroHash, err
			}
		}
		if err := s.addEdge(v, "tree", "tree", commit.TreeHash); err != nil {
			return plumbing.ZeroHash, err
		}
	case plumbing.TagObject:
		var tag object.Tag
		if err := tag.Decode(obj); err != nil {
			return plumbing.ZeroHash, err
		}
		if err := s.addEdge(v, "target", tag.TargetType.String(), tag.Target); err != nil {
			return plumbing.ZeroHash, err
		}
	case plumbing.TreeObject, plumbing.BlobObject:
	default:
		return plumbing.ZeroHash, errors.Newf("invalid object type %s", objType)
	}

	return oid, nil
}

func (s *GremlinStorage) addEdge(from *gremlin.Vertex, label, toLabel string, to plumbing.Hash, props ...interface{}) error {
	edge := s.traversal().
		V(from.Id).As("source").
		V().Has(toLabel, "oid", to.String()).As("target").
		AddE(label).From("source").To("target")
	for i := 0; i+1 < len(props); i += 2 {
		edge = edge.Property(props[i], props[i+1])
	}
	return <-edge.Iterate()
}

func (s *GremlinStorage) EncodedObject(objType plumbing.ObjectType, oid plumbing.Hash) (plumbing.EncodedObject, error) {
	g := s.traversal()

	props := []interface{}{}
	if objType != plumbing.AnyObject {
		props = append(props, objType.String())
	}
	props = append(props, "oid", oid.String())

	res, err := first(g.V().Has(props...).Limit(1).ToList())
	if errors.Is(err, errNoResults) {
		return nil, plumbing.ErrObjectNotFound
	} else if err != nil {
		return nil, errors.Wrapf(err, "look up object %s", oid)
	}

	v, err := res.GetVertex()
	if err != nil {
		return nil, err
	}

	outType, err := plumbing.ParseObjectType(v.Label)
	if err != nil {
		return nil, err
	}

	res, err = g.V(v.Id).Values("content").Next()
	if err != nil {
		return nil, errors.Wrapf(err, "read content of %s", oid)
	}
	content, err := base64.StdEncoding.DecodeString(res.GetString())
	if err != nil {
		return nil, errors.Wrapf(err, "decode content of %s", oid)
	}

	obj := s.NewEncodedObject()
	obj.SetType(outType)
	obj.SetSize(int64(len(content)))

	objWriter, err := obj.Writer()
	if err != nil {
		return nil, err
	}
	defer objWriter.Close()
	if _, err := objWriter.Write(content); err != nil {
		return nil, err
	}

	return obj, nil
}

func (s *GremlinStorage) IterEncodedObjects(objType plumbing.ObjectType) (storer.EncodedObjectIter, error) {
	g := s.traversal()

	query := g.V()
	if objType != plumbing.AnyObject {
		query = query.HasLabel(objType.String())
	} else {
		query = query.Not(gremlin.T__.HasLabel(referenceLabel))
	}

	results, err := query.Values("oid").ToList()
	if err != nil {
		return nil, err
	}

	objects := make([]plumbing.EncodedObject, 0, len(results))
	for _, res := range results {
		obj, err := s.EncodedObject(objType, plumbing.NewHash(res.GetString()))
		if err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}
	return storer.NewEncodedObjectSliceIter(objects), nil
}

func (s *GremlinStorage) HasEncodedObject(oid plumbing.Hash) error {
	g := s.traversal()

	res, err := g.V().Has("oid", oid.String()).Count().Next()
	if err != nil {
		return err
	}
	count, err := res.GetInt64()
	if err != nil {
		return err
	}
	if count == 0 {
		return plumbing.ErrObjectNotFound
	}
	return nil
}

func (s *GremlinStorage) EncodedObjectSize(oid plumbing.Hash) (int64, error) {
	g := s.traversal()

	res, err := first(g.V().Has("oid", oid.String()).Values("size").Limit(1).ToList())
	if errors.Is(err, errNoResults) {
		return 0, plumbing.ErrObjectNotFound
	} else if err != nil {
		return 0, errors.Wrapf(err, "look up size of %s", oid)
	}
	return res.GetInt64()
}

func (s *GremlinStorage) AddAlternate(remote string) error {
	// No alternates support
	return errors.New("alternates are not supported")
}

func (s *GremlinStorage) SetReference(ref *plumbing.Reference) error {
	if ref == nil {
		return nil
	}
	g := s.traversal()
	name := ref.Name().String()

	if err := <-g.V().Has(referenceLabel, "name", name).Drop().Iterate(); err != nil {
		return errors.Wrapf(err, "drop reference %s", name)
	}
	return <-g.AddV(referenceLabel).
		Property("name", name).
		Property("target", ref.Strings()[1]).
		Iterate()
}

// CheckAndSetReference is not atomic: gremlin offers no compare-and-swap
// across traversals.
func (s *GremlinStorage) CheckAndSetReference(ref, old *plumbing.Reference) error {
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
	return s.SetReference(ref)
}

func (s *GremlinStorage) Reference(name plumbing.ReferenceName) (*plumbing.Reference, error) {
	g := s.traversal()

	res, err := first(g.V().Has(referenceLabel, "name", name.String()).Values("target").Limit(1).ToList())
	if errors.Is(err, errNoResults) {
		return nil, plumbing.ErrReferenceNotFound
	} else if err != nil {
		return nil, errors.Wrapf(err, "look up reference %s", name)
	}
	return plumbing.NewReferenceFromStrings(name.String(), res.GetString()), nil
}

func (s *GremlinStorage) IterReferences() (storer.ReferenceIter, error) {
	g := s.traversal()

	results, err := g.V().HasLabel(referenceLabel).Values("name").ToList()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(results))
	for _, res := range results {
		names = append(names, res.GetString())
	}
	sort.Strings(names)

	refs := make([]*plumbing.Reference, 0, len(names))
	for _, name := range names {
		ref, err := s.Reference(plumbing.ReferenceName(name))
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			// Removed concurrently.
			continue
		} else if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return storer.NewReferenceSliceIter(refs), nil
}

func (s *GremlinStorage) RemoveReference(name plumbing.ReferenceName) error {
	return <-s.traversal().V().Has(referenceLabel, "name", name.String()).Drop().Iterate()
}

func (s *GremlinStorage) CountLooseRefs() (int, error) {
	res, err := s.traversal().V().HasLabel(referenceLabel).Count().Next()
	if err != nil {
		return 0, err
	}
	count, err := res.GetInt()
	return count, err
}

func (s *GremlinStorage) PackRefs() error {
	return nil
}
