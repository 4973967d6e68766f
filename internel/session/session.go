package session

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"

	"netdrive/internel/fs"
	. "netdrive/internel/log"
	"netdrive/internel/pb"
	. "netdrive/internel/shared"
	"netdrive/internel/transport"
)

// session is the per-connection state. Only the dispatch goroutine touches it;
// download workers see nothing but their own job.
type session struct {
	id   string
	srv  *Server
	conn *transport.Conn

	// user is nil until AUTH_REQUEST succeeds, then never changes.
	user *pb.User
	root string

	upload   *upload
	download *download
}

func newSession(srv *Server, conn *transport.Conn) *session {
	return &session{
		id:   ksuid.New().String(),
		srv:  srv,
		conn: conn,
	}
}

func (s *session) serve(ctx context.Context) error {
	for {
		select {
		case p, ok := <-s.conn.Inbound():
			if !ok {
				return nil
			}
			s.dispatch(p)
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *session) teardown() {
	_ = s.conn.Close()
	if s.download != nil {
		s.download.permit.Abort()
	}
	if s.upload != nil {
		Log.Infof("[%s] Discard unfinished upload %s", s.id, s.upload.name)
		s.upload.receiver.Discard()
	}
	Log.Infof("Disconnected: %s", s.id)
}

func (s *session) dispatch(p *pb.Payload) {
	defer func() {
		if r := recover(); r != nil {
			Log.Errorf("[%s] panic handling %s: %v", s.id, GetTypeName(p.GetType()), r)
			s.reply(&pb.Payload{Type: ERROR, Msg: Message(fmt.Errorf("%v", r))})
		}
	}()
	Log.Debugf("[%s] Incoming command: %s", s.id, GetTypeName(p.GetType()))

	if s.user == nil {
		if p.GetType() != AUTH_REQUEST {
			Log.Debugf("[%s] Drop %s before authentication", s.id, GetTypeName(p.GetType()))
			return
		}
		s.authenticate(p.GetUser())
		return
	}
	if !s.user.SameIdentity(p.GetUser()) {
		Log.Warnf("[%s] Drop %s for foreign identity %q", s.id, GetTypeName(p.GetType()), p.GetUser().GetEmail())
		return
	}

	var err error
	switch p.GetType() {
	case AUTH_REQUEST:
		Log.Debugf("[%s] Already authenticated", s.id)
	case CONTENT_REQUEST:
		err = s.handleContent(p.GetRequest())
	case CREATE_DIR:
		err = s.handleCreateDir(p.GetDir())
	case FILE_UPLOAD:
		s.handleUpload(p.GetUnit())
	case UPLOAD_ERROR:
		s.cancelUpload(p.GetMsg())
	case NEXT_PART:
		s.nextPart()
	case DOWNLOAD_ERROR:
		s.abortDownload(p.GetMsg())
	default:
		Log.Warnf("[%s] Unexpected command %s", s.id, GetTypeName(p.GetType()))
	}
	if err != nil {
		Log.Infof("[%s] %s failed: %v", s.id, GetTypeName(p.GetType()), err)
		s.reply(&pb.Payload{Type: ERROR, Msg: Message(err)})
	}
}

func (s *session) authenticate(u *pb.User) {
	if u == nil || !s.srv.provider.IsAuthorized(u) {
		Log.Infof("[%s] Bad credentials for %q", s.id, u.GetEmail())
		s.reply(&pb.Payload{Type: AUTH_NO})
		return
	}
	root, err := s.srv.provider.RootPath(u)
	if err != nil {
		Log.Errorf("[%s] Provision root for %s: %v", s.id, u.Email, err)
		s.reply(&pb.Payload{Type: ERROR, Msg: Message(err)})
		return
	}
	s.user = &pb.User{Id: u.Id, Email: u.Email}
	s.root = root
	Log.Infof("[%s] Authenticated %s", s.id, u.Email)

	s.reply(&pb.Payload{Type: AUTH_OK, User: s.user})
	if err := s.sendListing(Root, ""); err != nil {
		s.reply(&pb.Payload{Type: ERROR, Msg: Message(err)})
	}
}

func (s *session) handleContent(req *pb.ContentRequest) error {
	if req == nil {
		return errors.Wrap(ErrInvalidPath, "missing content request")
	}
	Log.Debugf("[%s] %s %s", s.id, GetActionName(req.Action), req.Path)
	switch req.Action {
	case OPEN:
		return s.sendListing(req.Path, "")
	case DOWNLOAD:
		s.startDownload(req.Path)
		return nil
	case DELETE:
		if err := fs.Delete(s.root, req.Path); err != nil {
			return err
		}
		Log.Infof("[%s] Deleted %s", s.id, req.Path)
		return s.sendListing(fs.Parent(req.Path), "")
	case RENAME:
		if err := fs.Rename(s.root, req.Path, req.NewName); err != nil {
			return err
		}
		Log.Infof("[%s] Renamed %s to %s", s.id, req.Path, req.NewName)
		return s.sendListing(fs.Parent(req.Path), "")
	default:
		return errors.Errorf("unknown content action %d", req.Action)
	}
}

func (s *session) handleCreateDir(d *pb.CreateDir) error {
	if d == nil {
		return errors.Wrap(ErrInvalidPath, "missing directory")
	}
	if err := fs.Mkdir(s.root, d.Path, d.Name); err != nil {
		return err
	}
	return s.sendListing(d.Path, "")
}

func (s *session) sendListing(logical, msg string) error {
	l, err := fs.List(s.root, logical)
	if err != nil {
		return err
	}
	s.reply(&pb.Payload{
		Type: CONTENT_RESPONSE,
		Msg:  msg,
		Data: &pb.Payload_Listing{Listing: l},
	})
	return nil
}

func (s *session) reply(p *pb.Payload) {
	if err := s.conn.Send(p); err != nil {
		Log.Debugf("[%s] Send %s: %v", s.id, GetTypeName(p.GetType()), err)
	}
}
