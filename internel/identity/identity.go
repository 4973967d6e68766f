package identity

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"netdrive/internel/fs"
	. "netdrive/internel/log"
	"netdrive/internel/pb"
	"netdrive/internel/shared"
)

// Provider confirms credentials and hands out per-user storage roots.
type Provider interface {
	IsAuthorized(u *pb.User) bool
	RootPath(u *pb.User) (string, error)
}

type account struct {
	id   int64
	hash []byte
	root string
}

// Memory keeps bcrypt-hashed accounts in memory. Roots default to
// <base>/<email> and are created on first use.
type Memory struct {
	base string
	cost int

	mu    sync.RWMutex
	users map[string]*account
	next  int64
}

var _ Provider = (*Memory)(nil)

func NewMemory(base string, cost int) *Memory {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Memory{
		base:  base,
		cost:  cost,
		users: make(map[string]*account),
	}
}

// Add registers an account. root is optional and overrides the default location.
func (m *Memory) Add(email, password, root string) error {
	if err := fs.ValidateFileName(email); err != nil {
		return errors.Wrapf(err, "email %q", email)
	}
	if password == "" {
		return errors.Errorf("empty password for %s", email)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return errors.Wrapf(err, "hash password for %s", email)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[email]; ok {
		return errors.Wrapf(shared.ErrAlreadyExists, "user %s", email)
	}
	m.next++
	m.users[email] = &account{id: m.next, hash: h, root: root}
	return nil
}

// Lookup returns the stored identity without its credential.
func (m *Memory) Lookup(email string) (*pb.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.users[email]
	if !ok {
		return nil, false
	}
	return &pb.User{Id: a.id, Email: email, Root: a.root}, true
}

func (m *Memory) IsAuthorized(u *pb.User) bool {
	if u == nil {
		return false
	}
	m.mu.RLock()
	a, ok := m.users[u.Email]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword(a.hash, []byte(u.Password)) == nil
}

// RootPath never trusts a root sent by the client; only the stored override counts.
func (m *Memory) RootPath(u *pb.User) (string, error) {
	stored, ok := m.Lookup(u.GetEmail())
	if !ok {
		return "", errors.Wrapf(shared.ErrProvisioning, "unknown user %s", u.GetEmail())
	}
	root := stored.Root
	if root == "" {
		root = filepath.Join(m.base, stored.Email)
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return "", errors.Wrapf(shared.ErrProvisioning, "root for %s: %v", stored.Email, err)
	}
	info, err := os.Stat(root)
	switch {
	case err == nil && info.IsDir():
		return root, nil
	case err == nil:
		return "", errors.Wrapf(shared.ErrProvisioning, "%s is not a directory", root)
	case !os.IsNotExist(err):
		return "", errors.Wrapf(shared.ErrProvisioning, "stat %s: %v", root, err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		Log.Errorln("User folder create exception:", err)
		return "", errors.Wrapf(shared.ErrProvisioning, "create %s: %v", root, err)
	}
	Log.Infof("Folder for user %s created at %s", stored.Email, root)
	return root, nil
}
