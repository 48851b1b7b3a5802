package types

import (
	"encoding/hex"

	"github.com/cockroachdb/errors"
	"github.com/go-git/go-git/v5/plumbing"
)

// Hash algorithm identifiers, matching git's GIT_HASH_* values.
const (
	HashAlgoUnknown int32 = 0
	HashAlgoSHA1    int32 = 1
	HashAlgoSHA256  int32 = 2
)

const (
	sha1Size   = 20
	sha256Size = 32
)

// ObjectId is a content hash identifying a git object. Only the first
// Size() bytes of Hash are significant; the remainder is always zero so the
// struct can be compared with == and used as a map key.
type ObjectId struct {
	Hash     [32]byte
	HashAlgo int32
}

// ZeroObjectId is the null SHA-1 id.
var ZeroObjectId = ObjectId{HashAlgo: HashAlgoSHA1}

func (oid ObjectId) Size() int {
	if oid.HashAlgo == HashAlgoSHA256 {
		return sha256Size
	}
	return sha1Size
}

func (oid ObjectId) Bytes() []byte {
	return oid.Hash[:oid.Size()]
}

func (oid ObjectId) Hex() string {
	return hex.EncodeToString(oid.Bytes())
}

func (oid ObjectId) String() string {
	return oid.Hex()
}

func (oid ObjectId) IsZero() bool {
	return oid.Hash == [32]byte{}
}

// ToHash converts to the go-git representation. go-git only understands
// SHA-1 here, so SHA-256 ids are rejected.
func (oid ObjectId) ToHash() (plumbing.Hash, error) {
	if oid.HashAlgo == HashAlgoSHA256 {
		return plumbing.ZeroHash, errors.Newf("cannot convert sha256 object id %s", oid.Hex())
	}
	var h plumbing.Hash
	copy(h[:], oid.Hash[:sha1Size])
	return h, nil
}

func FromHash(h plumbing.Hash) ObjectId {
	oid := ObjectId{HashAlgo: HashAlgoSHA1}
	copy(oid.Hash[:], h[:])
	return oid
}

// ParseObjectId decodes a hex id, picking the hash algorithm from its length.
func ParseObjectId(s string) (ObjectId, error) {
	var oid ObjectId
	switch len(s) {
	case sha1Size * 2:
		oid.HashAlgo = HashAlgoSHA1
	case sha256Size * 2:
		oid.HashAlgo = HashAlgoSHA256
	default:
		return ObjectId{}, errors.Newf("invalid object id length %d: %q", len(s), s)
	}

	if _, err := hex.Decode(oid.Hash[:], []byte(s)); err != nil {
		return ObjectId{}, errors.Wrapf(err, "invalid object id %q", s)
	}
	return oid, nil
}

func MustParseObjectId(s string) ObjectId {
	oid, err := ParseObjectId(s)
	if err != nil {
		panic(err)
	}
	return oid
}
