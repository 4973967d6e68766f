package fs

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"netdrive/internel/pb"
	. "netdrive/internel/shared"
)

type el []Entry

var _ sort.Interface = (*el)(nil)

func (p el) Len() int {
	return len(p)
}

// Less puts directories first, then orders by name.
func (p el) Less(i, j int) bool {
	if p[i].Attr != p[j].Attr {
		return p[i].Attr > p[j].Attr
	}
	return p[i].Name < p[j].Name
}

func (p el) Swap(i, j int) {
	p[i], p[j] = p[j], p[i]
}

// CollectEntries lists the direct children of dir. Symlinks are classified by
// what they point to.
func CollectEntries(dir string) ([]Entry, error) {
	d, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	list := make([]Entry, 0, len(d))
	for _, e := range d {
		attr := int32(TFile)
		if e.IsDir() {
			attr = TDir
		} else if e.Type()&os.ModeSymlink != 0 {
			info, err := os.Stat(filepath.Join(dir, e.Name()))
			if err != nil {
				continue
			}
			if info.IsDir() {
				attr = TDir
			}
		}
		list = append(list, Entry{Name: e.Name(), Attr: attr})
	}
	sort.Sort(el(list))
	return list, nil
}

// List returns the depth-1 listing of a logical directory.
func List(root, logical string) (*pb.Listing, error) {
	abs, err := Resolve(root, logical)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotFound, "list %s", logical)
		}
		return nil, errors.Wrapf(err, "stat %s", abs)
	}
	if !info.IsDir() {
		return nil, errors.Wrapf(ErrNotADirectory, "list %s", logical)
	}
	entries, err := CollectEntries(abs)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", abs)
	}

	listing := &pb.Listing{
		Path:        Segments(logical),
		Directories: []string{},
		Files:       []string{},
	}
	for _, e := range entries {
		if e.Attr == TDir {
			listing.Directories = append(listing.Directories, e.Name)
		} else {
			listing.Files = append(listing.Files, e.Name)
		}
	}
	return listing, nil
}

// Stat resolves a logical path that must name an existing regular file.
func Stat(root, logical string) (string, os.FileInfo, error) {
	abs, err := Resolve(root, logical)
	if err != nil {
		return "", nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, errors.Wrapf(ErrNotFound, "stat %s", logical)
		}
		return "", nil, errors.Wrapf(err, "stat %s", abs)
	}
	if info.IsDir() {
		return "", nil, errors.Wrapf(ErrIsADirectory, "stat %s", logical)
	}
	return abs, info, nil
}

// Delete removes a file, or a directory bottom-up.
func Delete(root, logical string) error {
	abs, err := Resolve(root, logical)
	if err != nil {
		return err
	}
	if abs == filepath.Clean(root) {
		return errors.Wrap(ErrInvalidPath, "cannot delete root")
	}
	if _, err := os.Lstat(abs); err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(ErrNotFound, "delete %s", logical)
		}
		return errors.Wrapf(err, "stat %s", abs)
	}
	return RemoveTree(abs)
}

// RemoveTree deletes the children of a directory before the directory itself.
// Symlinks are removed, never followed.
func RemoveTree(p string) error {
	info, err := os.Lstat(p)
	if err != nil {
		return errors.Wrapf(err, "stat %s", p)
	}
	if info.IsDir() {
		d, err := os.ReadDir(p)
		if err != nil {
			return errors.Wrapf(err, "read %s", p)
		}
		for _, e := range d {
			if err := RemoveTree(filepath.Join(p, e.Name())); err != nil {
				return err
			}
		}
	}
	if err := os.Remove(p); err != nil {
		return errors.Wrapf(err, "remove %s", p)
	}
	return nil
}

// Mkdir creates name inside the logical directory parent.
func Mkdir(root, parent, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	pabs, err := Resolve(root, parent)
	if err != nil {
		return err
	}
	info, err := os.Stat(pabs)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(ErrNotFound, "mkdir in %s", parent)
		}
		return errors.Wrapf(err, "stat %s", pabs)
	}
	if !info.IsDir() {
		return errors.Wrapf(ErrNotADirectory, "mkdir in %s", parent)
	}
	if err := os.Mkdir(filepath.Join(pabs, name), 0o755); err != nil {
		if os.IsExist(err) {
			return errors.Wrapf(ErrAlreadyExists, "mkdir %s", name)
		}
		return errors.Wrapf(err, "mkdir %s", name)
	}
	return nil
}
