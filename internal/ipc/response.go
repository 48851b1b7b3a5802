package ipc

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"
)

type IpcResponse interface {
	Key() string
}

type GetOidResponse struct {
	Oid          ObjectId
	DeltaBaseOid ObjectId
	DiskSize     int64
	Size         uint32
	Whence       uint16
	Type         ObjectType
}

func (*GetOidResponse) Key() string {
	return "oid"
}

// ContentResponse carries object content after a GetOidResponse.
type ContentResponse struct {
	Content []byte
}

func (*ContentResponse) Key() string {
	return "content"
}

type HashObjectResponse struct {
	Oid ObjectId
}

func (*HashObjectResponse) Key() string {
	return "hash-object"
}

// Reference kinds as sent on the wire.
const (
	RefKindReference      uint8 = 0
	RefKindBranch         uint8 = 1
	RefKindLightweightTag uint8 = 2
	RefKindAnnotatedTag   uint8 = 3
)

const (
	RefFlagLocal  uint8 = 1 << 0
	RefFlagRemote uint8 = 1 << 1
)

// RefResponse describes one classified reference. TagOid is set only for
// annotated tags.
type RefResponse struct {
	Kind      uint8
	Flags     uint8
	Oid       ObjectId
	TagOid    ObjectId
	LongName  RefName
	ShortName RefName
}

func (*RefResponse) Key() string {
	return "ref"
}

type ErrorResponse struct {
	Message [256]byte
}

func NewErrorResponse(err error) *ErrorResponse {
	resp := &ErrorResponse{}
	copy(resp.Message[:], err.Error())
	return resp
}

func (*ErrorResponse) Key() string {
	return "error"
}

func (r *ErrorResponse) Error() string {
	return string(bytes.TrimRight(r.Message[:], "\x00"))
}

// WriteResponse writes one response packet. A reply is a run of response
// packets terminated with WriteFlush.
func WriteResponse(w io.Writer, resp IpcResponse) error {
	key := NewKey(resp.Key())
	switch r := resp.(type) {
	case *ContentResponse:
		return writePacket(w, key, r.Content)
	case *GetOidResponse, *HashObjectResponse, *RefResponse, *ErrorResponse:
		return writePacket(w, key, r)
	default:
		return errors.Newf("cannot write response '%s'", resp.Key())
	}
}

// ReadResponse reads one response packet. It returns a FlushPacket at the
// end of a reply.
func ReadResponse(r io.Reader) (IpcResponse, error) {
	payload, err := readPacket(r)
	if err != nil {
		return nil, err
	} else if payload == nil {
		return &FlushPacket{}, nil
	}

	buf := bytes.NewBuffer(payload)
	var k Key
	if err := binary.Read(buf, binary.LittleEndian, &k); err != nil {
		return nil, err
	}

	var resp IpcResponse
	switch key := k.ToString(); key {
	case "oid":
		resp = &GetOidResponse{}
	case "hash-object":
		resp = &HashObjectResponse{}
	case "ref":
		resp = &RefResponse{}
	case "error":
		resp = &ErrorResponse{}
	case "content":
		return &ContentResponse{Content: buf.Bytes()}, nil
	default:
		return nil, errors.Newf("unrecognized response '%s'", key)
	}

	if err := binary.Read(buf, binary.LittleEndian, resp); err != nil {
		return nil, err
	}
	return resp, nil
}
