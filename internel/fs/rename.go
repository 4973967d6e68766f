package fs

import (
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	. "netdrive/internel/shared"
)

// Rename gives the node at logical a new name inside the same directory.
func Rename(root, logical, newName string) error {
	if err := ValidateName(newName); err != nil {
		return err
	}
	src, err := Resolve(root, logical)
	if err != nil {
		return err
	}
	if src == filepath.Clean(root) {
		return errors.Wrap(ErrInvalidPath, "cannot rename root")
	}
	srcInfo, err := os.Lstat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(ErrNotFound, "rename %s", logical)
		}
		return errors.Wrapf(err, "stat %s", src)
	}
	dst := filepath.Join(filepath.Dir(src), newName)
	if dstInfo, err := os.Lstat(dst); err == nil {
		// A case-only rename on a case-insensitive volume finds the source itself.
		if !os.SameFile(srcInfo, dstInfo) {
			return errors.Wrapf(ErrAlreadyExists, "rename to %s", newName)
		}
	} else if !os.IsNotExist(err) {
		return errors.Wrapf(err, "stat %s", dst)
	}

	err = os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !isCrossDevice(err) {
		return errors.Wrapf(err, "rename %s", src)
	}
	if srcInfo.IsDir() {
		return moveTree(src, dst)
	}
	return moveFile(src, dst)
}

func isCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}

// moveTree relocates a directory in two phases: first the complete new subtree
// is built, then the old one is deleted. A failure in the first phase removes
// whatever was built and leaves the source untouched; a failure in the second
// leaves both trees in place.
func moveTree(src, dst string) error {
	if err := copyTree(src, dst); err != nil {
		if _, statErr := os.Lstat(dst); statErr == nil {
			err = multierr.Append(err, RemoveTree(dst))
		}
		return errors.Wrapf(err, "build %s", dst)
	}
	if err := RemoveTree(src); err != nil {
		return errors.Wrapf(err, "delete %s after copy", src)
	}
	return nil
}

func moveFile(src, dst string) error {
	if err := copyFile(src, dst); err != nil {
		if _, statErr := os.Lstat(dst); statErr == nil {
			err = multierr.Append(err, os.Remove(dst))
		}
		return errors.Wrapf(err, "copy %s", src)
	}
	return errors.Wrapf(os.Remove(src), "remove %s after copy", src)
}

func copyTree(srcDir, dstDir string) error {
	info, err := os.Stat(srcDir)
	if err != nil {
		return err
	}
	if err := os.Mkdir(dstDir, info.Mode().Perm()); err != nil {
		return err
	}
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		src := filepath.Join(srcDir, e.Name())
		dst := filepath.Join(dstDir, e.Name())
		info, err := e.Info()
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return errors.Errorf("symlink not allowed: %s", src)
		}
		if info.IsDir() {
			if err := copyTree(src, dst); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(src, dst); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, out.Close())
	}()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	if fi, err := in.Stat(); err == nil {
		_ = os.Chtimes(dst, fi.ModTime(), fi.ModTime())
	}
	return nil
}
