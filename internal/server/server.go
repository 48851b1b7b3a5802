package server

import (
	"bufio"
	"context"
	"io"
	"net"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vdye/git-odb-refs/internal/db"
	"github.com/vdye/git-odb-refs/internal/ipc"
	"github.com/vdye/git-odb-refs/internal/refs"
	"github.com/vdye/git-odb-refs/internal/types"
)

// hashWriteObject is git's HASH_WRITE_OBJECT flag.
const hashWriteObject = 1 << 0

// contentChunkSize keeps content packets under the pkt-line limit.
const contentChunkSize = 0xff00

type Server struct {
	db     db.Database
	logger logrus.FieldLogger
}

func New(database db.Database, logger logrus.FieldLogger) *Server {
	return &Server{db: database, logger: logger}
}

// Serve accepts connections until ctx is done or the listener fails. Each
// connection is handled in its own goroutine; Serve waits for them before
// returning.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		// Accept an incoming connection.
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "accept")
		}

		// Handle the connection in a separate goroutine.
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.HandleConn(ctx, conn)
		}()
	}
}

// HandleConn serves requests on conn until the client hangs up, a request
// cannot be parsed, or ctx is done.
func (s *Server) HandleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	logger := s.logger.WithField("connection_id", uuid.New().String())
	logger.Debug("connection accepted")

	reader := bufio.NewReader(conn)
	writer := bufio.NewWriter(conn)

	for {
		req, err := ipc.ReadRequest(reader)
		if err != nil {
			logger.WithError(err).Warn("could not read request")
			_ = ipc.WriteResponse(writer, ipc.NewErrorResponse(err))
			_ = ipc.WriteFlush(writer)
			_ = writer.Flush()
			return
		}

		switch req.(type) {
		case *ipc.EOF:
			logger.Debug("connection closed by client")
			return
		case *ipc.FlushPacket:
			continue
		}

		logger.WithField("request", req.Key()).Debug("request read")
		if err := s.handleRequest(writer, req); err != nil {
			logger.WithError(err).WithField("request", req.Key()).Info("request failed")
			if err := ipc.WriteResponse(writer, ipc.NewErrorResponse(err)); err != nil {
				logger.WithError(err).Warn("could not write response")
				return
			}
		}

		if err := ipc.WriteFlush(writer); err != nil {
			return
		}
		if err := writer.Flush(); err != nil {
			logger.WithError(err).Warn("could not write response")
			return
		}
	}
}

func (s *Server) handleRequest(w io.Writer, req ipc.IpcRequest) error {
	switch r := req.(type) {
	case *ipc.GetOidRequest:
		return s.handleGetOid(w, r)
	case *ipc.HashObjectRequest:
		return s.handleHashObject(w, r)
	case *ipc.GetRefRequest:
		ref, err := s.db.Reference(r.Name.ToString())
		if err != nil {
			return err
		}
		resp, err := RefResponse(ref)
		if err != nil {
			return err
		}
		return ipc.WriteResponse(w, resp)
	case *ipc.ListRefsRequest:
		all, err := s.db.References()
		if err != nil {
			return err
		}
		for _, ref := range all {
			resp, err := RefResponse(ref)
			if err != nil {
				s.logger.WithError(err).WithField("ref", ref.LongName()).Warn("skipping reference in listing")
				continue
			}
			if err := ipc.WriteResponse(w, resp); err != nil {
				return err
			}
		}
		return nil
	default:
		return errors.Newf("unsupported request '%s'", req.Key())
	}
}

func (s *Server) handleGetOid(w io.Writer, req *ipc.GetOidRequest) error {
	info, err := s.db.ReadObject(req.ObjectId, req.WantContent != 0)
	if err != nil {
		return err
	}

	err = ipc.WriteResponse(w, &ipc.GetOidResponse{
		Oid:          info.Oid,
		DeltaBaseOid: info.DeltaBase,
		DiskSize:     info.Size,
		Size:         uint32(info.Size),
		Type:         ipc.ObjectType(info.Type.PlumbingType()),
	})
	if err != nil {
		return err
	}

	for content := info.Content; len(content) > 0; {
		n := len(content)
		if n > contentChunkSize {
			n = contentChunkSize
		}
		if err := ipc.WriteResponse(w, &ipc.ContentResponse{Content: content[:n]}); err != nil {
			return err
		}
		content = content[n:]
	}
	return nil
}

func (s *Server) handleHashObject(w io.Writer, req *ipc.HashObjectRequest) error {
	objType := plumbing.ObjectType(req.Type)
	if !objType.Valid() || objType > plumbing.TagObject {
		return errors.Newf("invalid object type %d", req.Type)
	}

	oid := plumbing.ComputeHash(objType, req.Content)

	if req.Flags&hashWriteObject != 0 {
		storage := s.db.Store().Storage()
		obj := storage.NewEncodedObject()
		obj.SetType(objType)
		obj.SetSize(int64(len(req.Content)))
		if err := writeContent(obj, req.Content); err != nil {
			return err
		}
		if _, err := storage.SetEncodedObject(obj); err != nil {
			return errors.Wrapf(err, "write object %s", oid)
		}
	}

	return ipc.WriteResponse(w, &ipc.HashObjectResponse{Oid: types.FromHash(oid)})
}

func writeContent(obj plumbing.EncodedObject, content []byte) error {
	w, err := obj.Writer()
	if err != nil {
		return err
	}
	if _, err := w.Write(content); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// RefResponse describes a classified reference on the wire. Names too long
// for the wire are an error rather than being cut short.
func RefResponse(ref refs.ReferenceType) (*ipc.RefResponse, error) {
	longName, err := ipc.NewRefName(ref.LongName())
	if err != nil {
		return nil, err
	}
	shortName, err := ipc.NewRefName(ref.ShortName())
	if err != nil {
		return nil, err
	}

	resp := &ipc.RefResponse{
		Oid:       ref.Oid(),
		LongName:  longName,
		ShortName: shortName,
	}

	switch r := ref.(type) {
	case refs.Branch:
		resp.Kind = ipc.RefKindBranch
		if r.IsLocal() {
			resp.Flags |= ipc.RefFlagLocal
		}
		if r.IsRemote() {
			resp.Flags |= ipc.RefFlagRemote
		}
	case refs.LightweightTag:
		resp.Kind = ipc.RefKindLightweightTag
	case refs.AnnotatedTag:
		resp.Kind = ipc.RefKindAnnotatedTag
		resp.TagOid = r.TagOid()
	default:
		resp.Kind = ipc.RefKindReference
	}
	return resp, nil
}
