package ipc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	"github.com/cockroachdb/errors"
)

// maxPacketSize is the largest length a 4 hex-digit prefix can express.
const maxPacketSize = 0xffff

func parsePacketSize(pktLine RequestSizeString) (uint64, error) {
	size, err := strconv.ParseUint(string(pktLine[:]), 16, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid packet length %q", string(pktLine[:]))
	}
	return size, nil
}

// writePacket writes key followed by each part of body as one pkt-line.
// Byte slices are written raw, everything else little-endian.
func writePacket(w io.Writer, key Key, body ...interface{}) error {
	var payload bytes.Buffer
	payload.Write(key[:])
	for _, part := range body {
		if raw, ok := part.([]byte); ok {
			payload.Write(raw)
			continue
		}
		if err := binary.Write(&payload, binary.LittleEndian, part); err != nil {
			return err
		}
	}

	size := payload.Len() + 4
	if size > maxPacketSize {
		return errors.Newf("packet too large (%d bytes)", size)
	}

	if _, err := fmt.Fprintf(w, "%04x", size); err != nil {
		return err
	}
	_, err := w.Write(payload.Bytes())
	return err
}

func WriteFlush(w io.Writer) error {
	_, err := io.WriteString(w, "0000")
	return err
}
