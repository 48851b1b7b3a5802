package ipc

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"
)

type IpcRequest interface {
	Key() string
}

type EOF struct{}

func (*EOF) Key() string {
	return "EOF"
}

type FlushPacket struct{}

func (*FlushPacket) Key() string {
	return "flush"
}

type GetOidRequest struct {
	ObjectId
	Flags       uint32
	WantContent uint8
}

func (*GetOidRequest) Key() string {
	return "oid"
}

type hashObjectRequestInternal struct {
	Type  int32
	Flags uint32
	Size  uint64
}

type HashObjectRequest struct {
	hashObjectRequestInternal
	Content []byte
}

func (*HashObjectRequest) Key() string {
	return "hash-object"
}

// GetRefRequest asks for a single reference by full name.
type GetRefRequest struct {
	Name RefName
}

func (*GetRefRequest) Key() string {
	return "ref"
}

// ListRefsRequest asks for every reference that can be classified.
type ListRefsRequest struct{}

func (*ListRefsRequest) Key() string {
	return "list-refs"
}

// readPacket reads one pkt-line. A nil payload with a nil error is a flush
// packet; io.EOF is returned untouched when the stream ends cleanly.
func readPacket(r io.Reader) ([]byte, error) {
	// First, read the size of the packet
	var pktLine RequestSizeString
	_, err := io.ReadFull(r, pktLine[:])
	if err != nil {
		return nil, err
	}

	size, err := parsePacketSize(pktLine)
	if err != nil {
		return nil, err
	}

	// Flush packet
	if size == 0 {
		return nil, nil
	}
	if size < 4 {
		return nil, errors.Newf("invalid packet size %d", size)
	}

	buf := make([]byte, size-4)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errors.Wrapf(err, "packet too small (expected %d bytes)", size-4)
	}
	return buf, nil
}

func readFlush(r io.Reader) error {
	pkt, err := readPacket(r)
	if err != nil {
		return errors.Wrap(err, "could not read flush packet")
	} else if pkt != nil {
		return errors.New("expected flush packet")
	}
	return nil
}

func ReadRequest(r io.Reader) (IpcRequest, error) {
	payload, err := readPacket(r)
	if err == io.EOF {
		return &EOF{}, nil
	} else if err != nil {
		return nil, err
	} else if payload == nil {
		return &FlushPacket{}, nil
	}

	// Every request is terminated by a flush packet
	if err := readFlush(r); err != nil {
		return nil, err
	}

	reqBuf := bytes.NewBuffer(payload)

	var k Key
	err = binary.Read(reqBuf, binary.LittleEndian, &k) // TODO: use system endianness
	if err != nil {
		return nil, err
	}

	switch key := k.ToString(); key {
	case "oid":
		var oidReq GetOidRequest
		err = binary.Read(reqBuf, binary.LittleEndian, &oidReq)
		if err != nil {
			return nil, err
		}
		return &oidReq, nil
	case "hash-object":
		var internalReq hashObjectRequestInternal

		// Read the fixed-size component of the buffer first
		err = binary.Read(reqBuf, binary.LittleEndian, &internalReq)
		if err != nil {
			return nil, err
		}
		if uint64(reqBuf.Len()) < internalReq.Size {
			return nil, errors.Newf("hash-object content too small (expected %d, received %d)", internalReq.Size, reqBuf.Len())
		}

		// Read the buffer to hash
		// TODO: stream it
		hashReq := &HashObjectRequest{
			hashObjectRequestInternal: internalReq,
		}
		hashReq.Content = reqBuf.Bytes()[(reqBuf.Len() - int(hashReq.Size)):]

		return hashReq, nil
	case "ref":
		var refReq GetRefRequest
		err = binary.Read(reqBuf, binary.LittleEndian, &refReq)
		if err != nil {
			return nil, err
		}
		if !refReq.Name.terminated() {
			return nil, ErrRefNameTooLong
		}
		return &refReq, nil
	case "list-refs":
		return &ListRefsRequest{}, nil
	default:
		return nil, errors.Newf("unrecognized request '%s'", key)
	}
}

// WriteRequest frames a request the way ReadRequest expects it.
func WriteRequest(w io.Writer, req IpcRequest) error {
	var body []interface{}
	switch r := req.(type) {
	case *GetOidRequest:
		body = []interface{}{r}
	case *HashObjectRequest:
		body = []interface{}{&r.hashObjectRequestInternal, r.Content}
	case *GetRefRequest:
		body = []interface{}{r}
	case *ListRefsRequest:
	default:
		return errors.Newf("cannot write request '%s'", req.Key())
	}

	if err := writePacket(w, NewKey(req.Key()), body...); err != nil {
		return err
	}
	return WriteFlush(w)
}

// NewHashObjectRequest builds a hash-object request for content.
func NewHashObjectRequest(objType int32, flags uint32, content []byte) *HashObjectRequest {
	return &HashObjectRequest{
		hashObjectRequestInternal: hashObjectRequestInternal{
			Type:  objType,
			Flags: flags,
			Size:  uint64(len(content)),
		},
		Content: content,
	}
}
