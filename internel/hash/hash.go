package hash

import (
	"encoding/hex"
	"io"
	"os"
	"sync"

	md5simd "github.com/minio/md5-simd"
	"github.com/pkg/errors"

	. "netdrive/internel/log"
)

var (
	once sync.Once
	hs   md5simd.Server
)

// GetHash returns a hasher from the shared md5 server. The caller must Close it.
func GetHash() md5simd.Hasher {
	StartHash()
	return hs.NewHash()
}

func StartHash() {
	once.Do(func() {
		hs = md5simd.NewServer()
	})
}

func EndHash() {
	Log.Debugln("EndHash")
	if hs != nil {
		hs.Close()
	}
}

// Checksum returns the lowercase hex md5 of exactly b.
func Checksum(b []byte) string {
	h := GetHash()
	defer h.Close()
	_, _ = h.Write(b)
	return hex.EncodeToString(h.Sum(nil))
}

// FileChecksum hashes the whole file at p.
func FileChecksum(p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", errors.Wrapf(err, "open %s", p)
	}
	defer f.Close()

	h := GetHash()
	defer h.Close()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrapf(err, "read %s", p)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func Equal(a, b string) bool {
	return a == b
}
