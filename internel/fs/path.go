package fs

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	. "netdrive/internel/shared"
)

// Resolve maps a logical path onto the sandbox rooted at root. "root", "" and
// "/" name the root itself, and a leading "root" segment is accepted. Dot
// segments, backslashes and NUL are rejected rather than cleaned away.
func Resolve(root, logical string) (string, error) {
	cleanRoot := filepath.Clean(root)
	segs, err := split(logical)
	if err != nil {
		return "", err
	}
	if len(segs) == 0 {
		return cleanRoot, nil
	}
	return ensureWithinRoot(cleanRoot, filepath.Join(append([]string{cleanRoot}, segs...)...))
}

// Segments returns the logical path as a "root"-prefixed list of segments.
func Segments(logical string) []string {
	segs, _ := split(logical)
	return append([]string{Root}, segs...)
}

// Canonical rewrites a logical path into the "root" or "/a/b" form.
func Canonical(logical string) string {
	segs, _ := split(logical)
	if len(segs) == 0 {
		return Root
	}
	return "/" + strings.Join(segs, "/")
}

// Parent returns the logical parent directory.
func Parent(logical string) string {
	segs, _ := split(logical)
	if len(segs) <= 1 {
		return Root
	}
	return "/" + strings.Join(segs[:len(segs)-1], "/")
}

// Join appends name to a logical directory.
func Join(dir, name string) string {
	segs, _ := split(dir)
	return "/" + strings.Join(append(segs, name), "/")
}

// Base returns the last segment, or "root".
func Base(logical string) string {
	segs, _ := split(logical)
	if len(segs) == 0 {
		return Root
	}
	return segs[len(segs)-1]
}

func split(logical string) ([]string, error) {
	var segs []string
	for i, s := range strings.Split(logical, "/") {
		if s == "" {
			continue
		}
		if i <= 1 && len(segs) == 0 && s == Root {
			continue
		}
		if s == "." || s == ".." || strings.ContainsAny(s, "\\\x00") {
			return nil, errors.Wrapf(ErrInvalidPath, "segment %q", s)
		}
		segs = append(segs, s)
	}
	return segs, nil
}

func ensureWithinRoot(cleanRoot, p string) (string, error) {
	cleanP := filepath.Clean(p)
	rel, err := filepath.Rel(cleanRoot, cleanP)
	if err != nil {
		return "", errors.Wrap(ErrInvalidPath, err.Error())
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Wrap(ErrInvalidPath, "path escapes root")
	}
	return cleanP, nil
}

// ValidateName checks a new file or directory name chosen by a client.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.Wrap(ErrInvalidName, "name is empty")
	}
	if strings.EqualFold(name, Root) {
		return errors.Wrapf(ErrInvalidName, "%q is reserved", Root)
	}
	if name == "." || name == ".." {
		return errors.Wrapf(ErrInvalidName, "%q is not a name", name)
	}
	for _, ch := range Forbidden {
		if strings.ContainsRune(name, ch) {
			return errors.Wrapf(ErrInvalidName, "forbidden symbol %q", ch)
		}
	}
	if strings.ContainsRune(name, 0) {
		return errors.Wrap(ErrInvalidName, "forbidden symbol NUL")
	}
	return nil
}

// ValidateFileName is the looser check applied to uploaded file names, which
// come from the client's local file system: only separators, dot names, NUL
// and the reserved root name are refused.
func ValidateFileName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.Wrap(ErrInvalidName, "name is empty")
	}
	if strings.EqualFold(name, Root) || name == "." || name == ".." {
		return errors.Wrapf(ErrInvalidName, "%q is not allowed", name)
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return errors.Wrap(ErrInvalidName, "name contains a path separator")
	}
	return nil
}
