package storage

import (
	"github.com/cockroachdb/errors"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/klauspost/compress/zstd"
)

// Both are safe for concurrent EncodeAll/DecodeAll calls.
var (
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

// encodeObjectValue lays out a stored object as one type byte followed by
// the zstd-compressed object content.
func encodeObjectValue(objType plumbing.ObjectType, content []byte) []byte {
	out := make([]byte, 1, 1+len(content)/2)
	out[0] = byte(objType)
	return zstdEncoder.EncodeAll(content, out)
}

func decodeObjectValue(value []byte) (plumbing.ObjectType, []byte, error) {
	if len(value) < 1 {
		return plumbing.InvalidObject, nil, errors.New("empty object value")
	}

	objType := plumbing.ObjectType(value[0])
	if !objType.Valid() {
		return plumbing.InvalidObject, nil, errors.Newf("invalid stored object type %d", value[0])
	}

	content, err := zstdDecoder.DecodeAll(value[1:], nil)
	if err != nil {
		return plumbing.InvalidObject, nil, errors.Wrap(err, "decompress object")
	}
	return objType, content, nil
}
