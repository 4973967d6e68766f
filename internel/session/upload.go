package session

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"netdrive/internel/fs"
	. "netdrive/internel/log"
	"netdrive/internel/pb"
	. "netdrive/internel/shared"
	"netdrive/internel/transfer"
)

type upload struct {
	dir      string
	name     string
	receiver *transfer.Receiver
}

func (s *session) handleUpload(u *pb.TransferUnit) {
	if u == nil {
		s.uploadError(errors.Wrap(ErrInvalidPath, "missing transfer unit"))
		return
	}
	switch {
	case u.IsStart:
		if s.upload != nil {
			Log.Warnf("[%s] Upload of %s superseded by %s", s.id, s.upload.name, u.Name)
			s.upload.receiver.Discard()
			s.upload = nil
		}
		up, err := s.beginUpload(u)
		if err != nil {
			s.uploadError(err)
			return
		}
		s.upload = up
	case s.upload == nil:
		// Without a start unit the target may be a file the user already had.
		s.uploadError(errors.Wrapf(ErrInvalidPath, "part %d of %s without a started upload", u.Part, u.Name))
		return
	case s.upload.dir != fs.Canonical(u.Path) || s.upload.name != u.Name:
		Log.Warnf("[%s] Part %d of %s does not belong to upload %s", s.id, u.Part, u.Name, s.upload.name)
		s.upload.receiver.Discard()
		s.upload = nil
		s.uploadError(errors.Wrapf(ErrInvalidPath, "part %d of %s without a started upload", u.Part, u.Name))
		return
	}

	up := s.upload
	done, err := up.receiver.Accept(u)
	if err != nil {
		s.upload = nil
		s.uploadError(err)
		return
	}
	if !done {
		Log.Debugf("[%s] Part %d of %s stored", s.id, u.Part, u.Name)
		s.reply(&pb.Payload{Type: NEXT_PART, User: s.user})
		return
	}

	s.upload = nil
	Log.Infof("[%s] Uploaded %s (%d bytes)", s.id, fs.Join(up.dir, up.name), up.receiver.Received)
	if err := s.sendListing(up.dir, "uploaded "+up.name); err != nil {
		s.reply(&pb.Payload{Type: ERROR, Msg: Message(err)})
	}
}

func (s *session) beginUpload(u *pb.TransferUnit) (*upload, error) {
	target, err := s.uploadTarget(u)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(target)
	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		return nil, errors.Wrapf(ErrNotFound, "directory %s", u.Path)
	case err != nil:
		return nil, errors.Wrapf(err, "stat %s", dir)
	case !info.IsDir():
		return nil, errors.Wrapf(ErrNotADirectory, "%s", u.Path)
	}
	if _, err := os.Lstat(target); err == nil {
		return nil, errors.Wrapf(ErrAlreadyExists, "%s", u.Name)
	}

	free, err := s.srv.opts.FreeSpace(dir)
	if err != nil {
		Log.Warnf("[%s] Free space check on %s: %v", s.id, dir, err)
	} else if uint64(max(u.FullSize, 0)) > free {
		return nil, errors.Wrapf(ErrInsufficientSpace, "need %d bytes, have %d", u.FullSize, free)
	}

	Log.Infof("[%s] Upload %s started, %d bytes", s.id, fs.Join(u.Path, u.Name), u.FullSize)
	return &upload{
		dir:      fs.Canonical(u.Path),
		name:     u.Name,
		receiver: &transfer.Receiver{Path: target},
	}, nil
}

func (s *session) uploadTarget(u *pb.TransferUnit) (string, error) {
	if err := fs.ValidateFileName(u.Name); err != nil {
		return "", err
	}
	dir, err := fs.Resolve(s.root, u.Path)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, u.Name), nil
}

// cancelUpload handles the client giving up on its upload.
func (s *session) cancelUpload(msg string) {
	if s.upload == nil {
		return
	}
	Log.Infof("[%s] Upload of %s cancelled by client: %s", s.id, s.upload.name, msg)
	s.upload.receiver.Discard()
	s.upload = nil
}

func (s *session) uploadError(err error) {
	Log.Infof("[%s] Upload failed: %v", s.id, err)
	s.reply(&pb.Payload{Type: UPLOAD_ERROR, Msg: Message(err)})
}
