package client

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	. "netdrive/internel/log"
	"netdrive/internel/pb"
	. "netdrive/internel/shared"
	"netdrive/internel/transport"
)

type Option func(*Client)

// WithChunkSize sets the upload chunk size. Values outside (0, MaxChunkSize]
// fall back to MaxChunkSize.
func WithChunkSize(n int) Option {
	return func(c *Client) {
		c.chunkSize = n
	}
}

// Client is one connection to the server. Commands the transfer engines do not
// consume are published on Events in arrival order.
type Client struct {
	conn      *transport.Conn
	user      *pb.User
	chunkSize int

	events chan *pb.Payload
	group  errgroup.Group

	mu       sync.Mutex
	upload   *upload
	download *download
}

// Connect dials the server and starts reading. It does not authenticate.
func Connect(ctx context.Context, params Params, opts ...Option) (*Client, error) {
	conn, err := transport.Dial(ctx, params.Server, params.SSL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		conn:      conn,
		user:      &pb.User{Email: params.Email, Password: params.Password},
		chunkSize: MaxChunkSize,
		events:    make(chan *pb.Payload, 64),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.group.Go(conn.Pump)
	c.group.Go(c.route)
	return c, nil
}

func (c *Client) Events() <-chan *pb.Payload {
	return c.events
}

func (c *Client) IsConnected() bool {
	return c.conn.IsConnected()
}

// Close disconnects and waits for the reader to stop. Running transfers fail
// with ErrNotConnected.
func (c *Client) Close() error {
	_ = c.conn.Close()
	return c.group.Wait()
}

// Authenticate sends the credentials and waits for the verdict. On success the
// root listing follows on Events.
func (c *Client) Authenticate(ctx context.Context) error {
	if err := c.send(&pb.Payload{Type: AUTH_REQUEST}); err != nil {
		return err
	}
	p, err := c.await(ctx, AUTH_OK, AUTH_NO, ERROR)
	if err != nil {
		return err
	}
	switch p.Type {
	case AUTH_OK:
		Log.Infof("Authenticated as %s", c.user.Email)
		return nil
	case AUTH_NO:
		return ErrAuth
	default:
		return FromMessage(p.Msg)
	}
}

func (c *Client) Open(path string) error {
	return c.request(OPEN, path, "")
}

func (c *Client) Delete(path string) error {
	return c.request(DELETE, path, "")
}

func (c *Client) Rename(path, newName string) error {
	return c.request(RENAME, path, newName)
}

func (c *Client) Mkdir(parent, name string) error {
	return c.send(&pb.Payload{
		Type: CREATE_DIR,
		Data: &pb.Payload_Dir{Dir: &pb.CreateDir{Path: parent, Name: name}},
	})
}

// Listing waits for the next listing, or the ERROR answering the last request.
func (c *Client) Listing(ctx context.Context) (*pb.Listing, error) {
	p, err := c.await(ctx, CONTENT_RESPONSE, ERROR)
	if err != nil {
		return nil, err
	}
	if p.Type == ERROR {
		return nil, FromMessage(p.Msg)
	}
	return p.GetListing(), nil
}

func (c *Client) request(action int32, path, newName string) error {
	return c.send(&pb.Payload{
		Type: CONTENT_REQUEST,
		Data: &pb.Payload_Request{Request: &pb.ContentRequest{Action: action, Path: path, NewName: newName}},
	})
}

func (c *Client) send(p *pb.Payload) error {
	p.User = c.user
	return c.conn.Send(p)
}

// await skips events until one of the given kinds arrives.
func (c *Client) await(ctx context.Context, kinds ...int32) (*pb.Payload, error) {
	for {
		select {
		case p, ok := <-c.events:
			if !ok {
				return nil, ErrNotConnected
			}
			for _, k := range kinds {
				if p.Type == k {
					return p, nil
				}
			}
			Log.Debugf("Skip %s while waiting", GetTypeName(p.Type))
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// route owns inbound dispatch. Transfer traffic goes to the engines, the rest
// to Events.
func (c *Client) route() error {
	defer close(c.events)
	defer c.failTransfers(ErrNotConnected)

	for p := range c.conn.Inbound() {
		Log.Debugf("Incoming command: %s", GetTypeName(p.Type))
		switch p.Type {
		case NEXT_PART:
			if up := c.currentUpload(); up != nil {
				up.permit.Release()
			}
		case UPLOAD_ERROR:
			if up := c.currentUpload(); up != nil {
				up.finish(nil, FromMessage(p.Msg))
				up.permit.Abort()
				continue
			}
			c.emit(p)
		case FILE_DOWNLOAD:
			c.receiveUnit(p.GetUnit())
		case DOWNLOAD_ERROR:
			if dl := c.currentDownload(); dl != nil {
				dl.fail(FromMessage(p.Msg))
				continue
			}
			c.emit(p)
		case CONTENT_RESPONSE:
			if up := c.currentUpload(); up != nil && p.Msg == "uploaded "+up.name {
				up.finish(p.GetListing(), nil)
				continue
			}
			c.emit(p)
		default:
			c.emit(p)
		}
	}
	return nil
}

func (c *Client) emit(p *pb.Payload) {
	select {
	case c.events <- p:
	case <-c.conn.Done():
	}
}

func (c *Client) failTransfers(err error) {
	if up := c.currentUpload(); up != nil {
		up.finish(nil, err)
		up.permit.Abort()
	}
	if dl := c.currentDownload(); dl != nil {
		dl.fail(err)
	}
}
