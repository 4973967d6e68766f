package session

import (
	"context"
	"os"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"

	"netdrive/internel/fs"
	. "netdrive/internel/log"
	"netdrive/internel/pb"
	. "netdrive/internel/shared"
	"netdrive/internel/transfer"
)

type download struct {
	id     string
	permit *transfer.Permit
	done   chan struct{}
}

func (d *download) running() bool {
	select {
	case <-d.done:
		return false
	default:
		return true
	}
}

func (s *session) startDownload(logical string) {
	if s.download != nil && s.download.running() {
		s.downloadError(ErrTransferInProgress)
		return
	}
	abs, info, err := fs.Stat(s.root, logical)
	if err != nil {
		s.downloadError(err)
		return
	}

	d := &download{
		id:     ksuid.New().String(),
		permit: transfer.NewPermit(),
		done:   make(chan struct{}),
	}
	src := transfer.Source{
		Owner:     s.user,
		Path:      fs.Canonical(logical),
		Name:      info.Name(),
		Size:      info.Size(),
		ChunkSize: s.srv.opts.ChunkSize,
	}
	err = s.srv.pool.Submit(func() {
		defer close(d.done)
		s.runDownload(d, abs, src)
	})
	if err != nil {
		if errors.Is(err, ants.ErrPoolOverload) {
			err = errors.Wrap(ErrBusy, "download pool exhausted")
		}
		s.downloadError(err)
		return
	}
	s.download = d
}

// runDownload executes on the worker pool. It only reads fields of s that are
// fixed once the session is authenticated.
func (s *session) runDownload(d *download, abs string, src transfer.Source) {
	Log.Infof("[%s] Download %s (%s) started, %d bytes", s.id, src.Path, d.id, src.Size)
	f, err := os.Open(abs)
	if err != nil {
		s.downloadError(errors.Wrapf(err, "open %s", src.Path))
		return
	}
	defer f.Close()

	n, err := transfer.Send(context.Background(), f, src, d.permit, func(u *pb.TransferUnit) error {
		return s.conn.Send(&pb.Payload{
			Type: FILE_DOWNLOAD,
			User: s.user,
			Data: &pb.Payload_Unit{Unit: u},
		})
	})
	switch {
	case errors.Is(err, ErrAborted):
		Log.Infof("[%s] Download %s aborted after %d bytes", s.id, d.id, n)
	case errors.Is(err, ErrNotConnected):
		Log.Infof("[%s] Download %s dropped, peer gone", s.id, d.id)
	case err != nil:
		Log.Errorf("[%s] Download %s failed: %v", s.id, d.id, err)
		s.downloadError(err)
	default:
		Log.Infof("[%s] Download %s finished, %d bytes", s.id, d.id, n)
	}
}

func (s *session) nextPart() {
	if s.download == nil {
		Log.Debugf("[%s] NEXT_PART without a download", s.id)
		return
	}
	s.download.permit.Release()
}

func (s *session) abortDownload(msg string) {
	if s.download == nil {
		return
	}
	Log.Infof("[%s] Download %s aborted by client: %s", s.id, s.download.id, msg)
	s.download.permit.Abort()
	s.download = nil
}

func (s *session) downloadError(err error) {
	Log.Infof("[%s] Download failed: %v", s.id, err)
	s.reply(&pb.Payload{Type: DOWNLOAD_ERROR, Msg: Message(err)})
}
