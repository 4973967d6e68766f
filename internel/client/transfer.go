package client

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	. "netdrive/internel/log"
	"netdrive/internel/pb"
	. "netdrive/internel/shared"
	"netdrive/internel/transfer"
)

type uploadResult struct {
	listing *pb.Listing
	err     error
}

type upload struct {
	name   string
	permit *transfer.Permit
	result chan uploadResult
	once   sync.Once
}

func (u *upload) finish(l *pb.Listing, err error) {
	u.once.Do(func() {
		u.result <- uploadResult{listing: l, err: err}
	})
}

type download struct {
	mu       sync.Mutex
	receiver *transfer.Receiver
	stopped  bool
	// started is set once a unit created the local file.
	started bool
	result  chan error
	once    sync.Once
}

// fail ends a running download and removes what it wrote. A download that
// already stopped keeps its outcome.
func (d *download) fail(err error) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	if d.started {
		d.receiver.Discard()
	}
	d.mu.Unlock()
	d.finish(err)
}

func (d *download) finish(err error) {
	d.once.Do(func() {
		d.result <- err
	})
}

func (c *Client) currentUpload() *upload {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.upload
}

func (c *Client) currentDownload() *download {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.download
}

// Upload sends the local file into remoteDir and returns the directory listing
// the server answers with. Cancelling ctx tells the server to drop the partial
// file.
func (c *Client) Upload(ctx context.Context, local, remoteDir string) (*pb.Listing, error) {
	f, err := os.Open(local)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", local)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", local)
	}
	if info.IsDir() {
		return nil, errors.Wrapf(ErrIsADirectory, "%s", local)
	}

	up := &upload{
		name:   info.Name(),
		permit: transfer.NewPermit(),
		result: make(chan uploadResult, 1),
	}
	c.mu.Lock()
	if c.upload != nil {
		c.mu.Unlock()
		return nil, ErrTransferInProgress
	}
	c.upload = up
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.upload = nil
		c.mu.Unlock()
	}()

	Log.Infof("Upload %s to %s, %d bytes", local, remoteDir, info.Size())
	_, err = transfer.Send(ctx, f, transfer.Source{
		Owner:     c.user,
		Path:      remoteDir,
		Name:      up.name,
		Size:      info.Size(),
		ChunkSize: c.chunkSize,
	}, up.permit, func(u *pb.TransferUnit) error {
		return c.send(&pb.Payload{Type: FILE_UPLOAD, Data: &pb.Payload_Unit{Unit: u}})
	})
	switch {
	case errors.Is(err, ErrAborted):
		r := <-up.result
		return nil, r.err
	case ctx.Err() != nil:
		c.cancelUpload()
		return nil, ctx.Err()
	case err != nil:
		if c.conn.IsConnected() {
			_ = c.send(&pb.Payload{Type: UPLOAD_ERROR, Msg: "cancelled"})
		}
		return nil, err
	}

	select {
	case r := <-up.result:
		return r.listing, r.err
	case <-ctx.Done():
		c.cancelUpload()
		return nil, ctx.Err()
	}
}

func (c *Client) cancelUpload() {
	Log.Infoln("Upload cancelled")
	if err := c.send(&pb.Payload{Type: UPLOAD_ERROR, Msg: "cancelled"}); err != nil {
		Log.Debugln("Send cancel:", err)
	}
}

// Download fetches the remote file into local, replacing an existing file. A
// failed or cancelled download leaves nothing at local.
func (c *Client) Download(ctx context.Context, remote, local string) error {
	if dir := filepath.Dir(local); dir != "" {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return errors.Wrapf(ErrNotFound, "directory %s", dir)
		}
	}
	dl := &download{
		receiver: &transfer.Receiver{Path: local, Overwrite: true},
		result:   make(chan error, 1),
	}
	c.mu.Lock()
	if c.download != nil {
		c.mu.Unlock()
		return ErrTransferInProgress
	}
	c.download = dl
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.download = nil
		c.mu.Unlock()
	}()

	Log.Infof("Download %s to %s", remote, local)
	if err := c.request(DOWNLOAD, remote, ""); err != nil {
		return err
	}
	select {
	case err := <-dl.result:
		return err
	case <-ctx.Done():
		dl.mu.Lock()
		finished := dl.stopped
		dl.mu.Unlock()
		if finished {
			// The outcome raced the cancellation; report it.
			return <-dl.result
		}
		dl.fail(ctx.Err())
		if err := c.send(&pb.Payload{Type: DOWNLOAD_ERROR, Msg: "cancelled"}); err != nil {
			Log.Debugln("Send cancel:", err)
		}
		return ctx.Err()
	}
}

// receiveUnit runs on the router goroutine.
func (c *Client) receiveUnit(u *pb.TransferUnit) {
	dl := c.currentDownload()
	if dl == nil || u == nil {
		Log.Warnln("Drop download unit without a pending download")
		return
	}
	dl.mu.Lock()
	if dl.stopped {
		dl.mu.Unlock()
		return
	}
	done, err := dl.receiver.Accept(u)
	if err == nil {
		dl.started = true
	}
	// The receiver already removed a corrupt partial; a finished file stays.
	dl.stopped = err != nil || done
	dl.mu.Unlock()

	switch {
	case err != nil:
		Log.Errorf("Download of %s failed: %v", u.Name, err)
		_ = c.send(&pb.Payload{Type: DOWNLOAD_ERROR, Msg: err.Error()})
		dl.finish(err)
	case done:
		Log.Infof("Downloaded %s, %d bytes", u.Name, dl.receiver.Received)
		dl.finish(nil)
	default:
		if err := c.send(&pb.Payload{Type: NEXT_PART}); err != nil {
			dl.fail(err)
		}
	}
}
