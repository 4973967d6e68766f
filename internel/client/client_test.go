package client

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"netdrive/internel/hash"
	"netdrive/internel/identity"
	"netdrive/internel/session"
	. "netdrive/internel/shared"
)

func startServer(t *testing.T) (string, string) {
	t.Helper()
	base := t.TempDir()
	users := identity.NewMemory(base, bcrypt.MinCost)
	if err := users.Add("12345@email.com", "12345", ""); err != nil {
		t.Fatal(err)
	}
	srv, err := session.New(users, session.Options{ChunkSize: 13})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(srv.Close)
	mux := http.NewServeMux()
	mux.Handle(ApiPrefix, srv)
	hs := httptest.NewServer(mux)
	t.Cleanup(hs.Close)
	return hs.URL, filepath.Join(base, "12345@email.com")
}

func connect(t *testing.T, url, password string) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := Connect(ctx, Params{Server: url, Email: "12345@email.com", Password: password}, WithChunkSize(10))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func login(t *testing.T) (*Client, string) {
	t.Helper()
	url, root := startServer(t)
	c := connect(t, url, "12345")
	ctx := testContext(t)
	if err := c.Authenticate(ctx); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if _, err := c.Listing(ctx); err != nil {
		t.Fatalf("root listing: %v", err)
	}
	return c, root
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestAuthenticateWrongPassword(t *testing.T) {
	url, _ := startServer(t)
	c := connect(t, url, "nope")
	if err := c.Authenticate(testContext(t)); !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	if !c.IsConnected() {
		t.Fatal("connection dropped after a failed login")
	}
}

func TestConnectFailure(t *testing.T) {
	ctx := testContext(t)
	_, err := Connect(ctx, Params{Server: "127.0.0.1:1"})
	if !errors.Is(err, ErrConnection) {
		t.Fatalf("expected ErrConnection, got %v", err)
	}
}

func TestDirectoryOperations(t *testing.T) {
	c, _ := login(t)
	ctx := testContext(t)

	if err := c.Mkdir(Root, "docs"); err != nil {
		t.Fatal(err)
	}
	l, err := c.Listing(ctx)
	if err != nil || len(l.Directories) != 1 || l.Directories[0] != "docs" {
		t.Fatalf("mkdir listing %+v, %v", l, err)
	}

	if err := c.Mkdir(Root, "docs"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Listing(ctx); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	if err := c.Mkdir(Root, "bad/name"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Listing(ctx); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}

	if err := c.Rename("/docs", "papers"); err != nil {
		t.Fatal(err)
	}
	if l, err := c.Listing(ctx); err != nil || len(l.Directories) != 1 || l.Directories[0] != "papers" {
		t.Fatalf("rename listing %+v, %v", l, err)
	}

	if err := c.Delete("/papers"); err != nil {
		t.Fatal(err)
	}
	if l, err := c.Listing(ctx); err != nil || len(l.Directories) != 0 {
		t.Fatalf("delete listing %+v, %v", l, err)
	}

	if err := c.Open("/papers"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Listing(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	c, root := login(t)
	ctx := testContext(t)

	tests := []struct {
		name string
		size int
	}{
		{"empty.bin", 0},
		{"one.bin", 1},
		{"exact.bin", 30},
		{"odd.bin", 97},
	}
	r := rand.New(rand.NewSource(1))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := make([]byte, tt.size)
			r.Read(content)
			local := filepath.Join(t.TempDir(), tt.name)
			if err := os.WriteFile(local, content, 0o644); err != nil {
				t.Fatal(err)
			}

			l, err := c.Upload(ctx, local, Root)
			if err != nil {
				t.Fatalf("upload: %v", err)
			}
			found := false
			for _, f := range l.Files {
				found = found || f == tt.name
			}
			if !found {
				t.Fatalf("%s missing from %v", tt.name, l.Files)
			}
			stored, err := os.ReadFile(filepath.Join(root, tt.name))
			if err != nil || !bytes.Equal(stored, content) {
				t.Fatalf("stored content differs: %v", err)
			}

			back := filepath.Join(t.TempDir(), "back")
			if err := c.Download(ctx, "/"+tt.name, back); err != nil {
				t.Fatalf("download: %v", err)
			}
			got, err := os.ReadFile(back)
			if err != nil {
				t.Fatal(err)
			}
			if hash.Checksum(got) != hash.Checksum(content) {
				t.Fatal("round trip checksum differs")
			}
		})
	}
}

func TestUploadExistingName(t *testing.T) {
	c, root := login(t)
	ctx := testContext(t)
	if err := os.WriteFile(filepath.Join(root, "taken.txt"), []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}
	local := filepath.Join(t.TempDir(), "taken.txt")
	if err := os.WriteFile(local, []byte("replacement content"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Upload(ctx, local, Root); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if got, _ := os.ReadFile(filepath.Join(root, "taken.txt")); string(got) != "keep" {
		t.Fatalf("existing file changed to %q", got)
	}

	// The connection stays usable.
	if _, err := c.Upload(ctx, local, "/missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDownloadMissing(t *testing.T) {
	c, _ := login(t)
	local := filepath.Join(t.TempDir(), "x")
	if err := c.Download(testContext(t), "/nothing", local); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := os.Stat(local); !os.IsNotExist(err) {
		t.Fatalf("local file created: %v", err)
	}
}

func TestUploadCancelled(t *testing.T) {
	c, root := login(t)
	local := filepath.Join(t.TempDir(), "big.bin")
	if err := os.WriteFile(local, bytes.Repeat([]byte("z"), 1000), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Upload(ctx, local, Root); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if err := c.Open(Root); err != nil {
		t.Fatal(err)
	}
	l, err := c.Listing(testContext(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(l.Files) != 0 {
		t.Fatalf("partial upload left behind: %v", l.Files)
	}
	if _, err := os.Stat(filepath.Join(root, "big.bin")); !os.IsNotExist(err) {
		t.Fatalf("partial upload on disk: %v", err)
	}
}

func TestCloseFailsLaterCalls(t *testing.T) {
	c, _ := login(t)
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if c.IsConnected() {
		t.Fatal("still connected after Close")
	}
	if err := c.Open(Root); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}
