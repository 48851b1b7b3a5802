package refs

import (
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/vdye/git-odb-refs/internal/types"
)

// Key is the identity of a reference: its full name and resolved id. Two
// references of any kinds are equal iff their keys are.
type Key struct {
	LongName string
	Oid      types.ObjectId
}

func KeyOf(r ReferenceType) Key {
	return Key{LongName: r.LongName(), Oid: r.Oid()}
}

func Equal(a, b ReferenceType) bool {
	return KeyOf(a) == KeyOf(b)
}

// Hash agrees with ==: equal keys hash equally.
func (k Key) Hash() uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(k.LongName)
	_, _ = d.Write([]byte{0, byte(k.Oid.HashAlgo)})
	_, _ = d.Write(k.Oid.Bytes())
	return d.Sum64()
}

// Set holds references keyed by identity. The zero value is an empty set.
type Set struct {
	m map[Key]ReferenceType
}

func NewSet(refs ...ReferenceType) *Set {
	s := &Set{m: make(map[Key]ReferenceType, len(refs))}
	for _, r := range refs {
		s.Add(r)
	}
	return s
}

// Add inserts r and reports whether no equal reference was present.
func (s *Set) Add(r ReferenceType) bool {
	if s.m == nil {
		s.m = make(map[Key]ReferenceType)
	}
	k := KeyOf(r)
	if _, ok := s.m[k]; ok {
		return false
	}
	s.m[k] = r
	return true
}

func (s *Set) Contains(r ReferenceType) bool {
	_, ok := s.m[KeyOf(r)]
	return ok
}

func (s *Set) Remove(r ReferenceType) {
	delete(s.m, KeyOf(r))
}

func (s *Set) Len() int {
	return len(s.m)
}

// Slice returns the references ordered by name, then id.
func (s *Set) Slice() []ReferenceType {
	out := make([]ReferenceType, 0, len(s.m))
	for _, r := range s.m {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LongName() != out[j].LongName() {
			return out[i].LongName() < out[j].LongName()
		}
		return out[i].Oid().Hex() < out[j].Oid().Hex()
	})
	return out
}
