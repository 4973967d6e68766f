package transport

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/pkg/errors"

	. "netdrive/internel/log"
	"netdrive/internel/pb"
	"netdrive/internel/shared"
	"netdrive/internel/util"
)

// ReadLimit bounds one frame: a full chunk plus headroom for the envelope.
const ReadLimit = shared.MaxChunkSize + 1<<20

var Upgrader = ws.Upgrader{
	ReadBufferSize:  64 << 10,
	WriteBufferSize: 64 << 10,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Conn is one logical connection. Inbound payloads are delivered in order on
// Inbound() once Pump runs; Done() is closed when the connection goes away.
type Conn struct {
	c       *ws.Conn
	wmu     sync.Mutex
	inbound chan *pb.Payload
	done    chan struct{}
	once    sync.Once
}

func Wrap(c *ws.Conn) *Conn {
	c.SetReadLimit(ReadLimit)
	return &Conn{
		c:       c,
		inbound: make(chan *pb.Payload, 16),
		done:    make(chan struct{}),
	}
}

// Dial blocks until the websocket handshake finished or failed.
func Dial(ctx context.Context, server string, secure bool) (*Conn, error) {
	url := URL(server, secure)
	Log.Debugln("url:", url)
	c, _, err := ws.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, errors.Wrapf(shared.ErrConnection, "dial %s: %v", url, err)
	}
	return Wrap(c), nil
}

// URL turns a host[:port] (optionally with a scheme) into the endpoint URL.
func URL(server string, secure bool) string {
	addr := server
	for _, p := range []string{"https://", "http://", "wss://", "ws://"} {
		addr = strings.TrimPrefix(addr, p)
	}
	addr = strings.TrimSuffix(addr, "/")
	scheme := "ws://"
	if secure {
		scheme = "wss://"
	}
	return scheme + addr + shared.ApiPrefix
}

func (c *Conn) Send(p *pb.Payload) error {
	if !c.IsConnected() {
		return shared.ErrNotConnected
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if err := util.WriteProtoMessage(c.c, p); err != nil {
		c.shutdown()
		return errors.Wrapf(shared.ErrNotConnected, "write %s: %v", shared.GetTypeName(p.GetType()), err)
	}
	return nil
}

func (c *Conn) Inbound() <-chan *pb.Payload {
	return c.inbound
}

func (c *Conn) Done() <-chan struct{} {
	return c.done
}

func (c *Conn) IsConnected() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// Pump reads frames until the connection fails or is closed. It closes Inbound
// when it returns. A normal or abnormal close from the peer is not an error.
func (c *Conn) Pump() error {
	defer close(c.inbound)
	defer c.shutdown()
	for {
		p, err := util.ReadProtoMessage(c.c)
		if err != nil {
			if !c.IsConnected() || ws.IsCloseError(err, ws.CloseNormalClosure, ws.CloseGoingAway, ws.CloseAbnormalClosure) {
				return nil
			}
			return err
		}
		select {
		case c.inbound <- p:
		case <-c.done:
			return nil
		}
	}
}

// Close is safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		// WriteControl may run concurrently with a WriteMessage in Send.
		_ = c.c.WriteControl(
			ws.CloseMessage,
			ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
			time.Now().Add(time.Second*5),
		)
		err = c.c.Close()
	})
	return err
}

func (c *Conn) shutdown() {
	c.once.Do(func() {
		close(c.done)
		_ = c.c.Close()
	})
}
