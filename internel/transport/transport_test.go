package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"netdrive/internel/pb"
	"netdrive/internel/shared"
)

// echoServer upgrades every request and sends each inbound payload back.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn := Wrap(c)
		go func() {
			for p := range conn.Inbound() {
				if err := conn.Send(p); err != nil {
					return
				}
			}
		}()
		_ = conn.Pump()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSendDeliversInOrder(t *testing.T) {
	srv := echoServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := Dial(ctx, srv.URL, false)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	go conn.Pump()

	for i := 0; i < 20; i++ {
		if err := conn.Send(&pb.Payload{Type: shared.NEXT_PART, Msg: string(rune('a' + i))}); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}
	for i := 0; i < 20; i++ {
		select {
		case p := <-conn.Inbound():
			if p.Msg != string(rune('a'+i)) {
				t.Fatalf("message %d out of order: %q", i, p.Msg)
			}
		case <-ctx.Done():
			t.Fatal("timed out waiting for echo")
		}
	}
}

func TestSendAfterCloseFails(t *testing.T) {
	srv := echoServer(t)
	conn, err := Dial(context.Background(), srv.URL, false)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	go conn.Pump()
	if !conn.IsConnected() {
		t.Fatal("expected connected")
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if conn.IsConnected() {
		t.Fatal("expected disconnected")
	}
	if err := conn.Send(&pb.Payload{Type: shared.NEXT_PART}); !errors.Is(err, shared.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestPeerCloseSignalsDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = Wrap(c).Close()
	}))
	defer srv.Close()

	conn, err := Dial(context.Background(), srv.URL, false)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	go conn.Pump()
	select {
	case <-conn.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("disconnect was not signalled")
	}
	if _, ok := <-conn.Inbound(); ok {
		t.Fatal("inbound should be closed")
	}
}

func TestDialFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := Dial(ctx, "127.0.0.1:1", false); !errors.Is(err, shared.ErrConnection) {
		t.Fatalf("expected ErrConnection, got %v", err)
	}
}

func TestURL(t *testing.T) {
	tests := []struct {
		in     string
		secure bool
		want   string
	}{
		{"localhost:8189", false, "ws://localhost:8189/storage"},
		{"http://localhost:8189/", false, "ws://localhost:8189/storage"},
		{"https://example.org", true, "wss://example.org/storage"},
	}
	for _, tt := range tests {
		if got := URL(tt.in, tt.secure); got != tt.want {
			t.Errorf("URL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
