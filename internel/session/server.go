package session

import (
	"context"
	"net/http"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/disk"
	"golang.org/x/sync/errgroup"

	"netdrive/internel/identity"
	. "netdrive/internel/log"
	"netdrive/internel/transport"
)

type Options struct {
	// Workers bounds the number of concurrent downloads across all connections.
	Workers int
	// ChunkSize is the download chunk size, shared.MaxChunkSize when zero.
	ChunkSize int
	// FreeSpace reports the free bytes on the volume holding dir.
	FreeSpace func(dir string) (uint64, error)
}

// Server accepts websocket connections and runs one session per connection.
type Server struct {
	provider identity.Provider
	pool     *ants.Pool
	opts     Options
}

func New(provider identity.Provider, opts Options) (*Server, error) {
	if opts.Workers <= 0 {
		opts.Workers = 256
	}
	if opts.FreeSpace == nil {
		opts.FreeSpace = diskFree
	}
	pool, err := ants.NewPool(opts.Workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, errors.Wrap(err, "create worker pool")
	}
	return &Server{provider: provider, pool: pool, opts: opts}, nil
}

func (s *Server) Close() {
	s.pool.Release()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := transport.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Errorln("Upgrade:", err)
		return
	}
	if err := s.HandleConnection(r.Context(), transport.Wrap(c)); err != nil {
		Log.Errorln("HandleConnection:", err)
	}
}

// HandleConnection serves conn until it closes. Reading and dispatching run on
// their own goroutines; dispatch is sequential for the connection.
func (s *Server) HandleConnection(ctx context.Context, conn *transport.Conn) error {
	sess := newSession(s, conn)
	Log.Infof("Connected: %s", sess.id)
	defer sess.teardown()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(conn.Pump)
	g.Go(func() error {
		return sess.serve(ctx)
	})
	return g.Wait()
}

func diskFree(dir string) (uint64, error) {
	u, err := disk.Usage(dir)
	if err != nil {
		return 0, err
	}
	return u.Free, nil
}
