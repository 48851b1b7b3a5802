package ipc

import (
	"bytes"

	"github.com/cockroachdb/errors"

	"github.com/vdye/git-odb-refs/internal/types"
)

type RequestSizeString [4]byte

type Key [16]byte

func NewKey(s string) Key {
	var k Key
	copy(k[:], s)
	return k
}

func (k *Key) ToString() string {
	return string(bytes.Trim(k[:], "\x00"))
}

type ObjectId = types.ObjectId

type ObjectType uint8

// RefNameSize bounds reference names carried on the wire.
const RefNameSize = 256

type RefName [RefNameSize]byte

// ErrRefNameTooLong is returned for names that do not fit a RefName with its
// terminating NUL.
var ErrRefNameTooLong = errors.Newf("reference name longer than %d bytes", RefNameSize-1)

func NewRefName(s string) (RefName, error) {
	var n RefName
	if len(s) >= RefNameSize {
		return n, errors.Wrapf(ErrRefNameTooLong, "%.64s... (%d bytes)", s, len(s))
	}
	copy(n[:], s)
	return n, nil
}

func MustRefName(s string) RefName {
	n, err := NewRefName(s)
	if err != nil {
		panic(err)
	}
	return n
}

// terminated reports whether n ends in NUL. A name filling every byte may
// have been cut short by the sender.
func (n *RefName) terminated() bool {
	return n[RefNameSize-1] == 0
}

func (n *RefName) ToString() string {
	return string(bytes.TrimRight(n[:], "\x00"))
}
