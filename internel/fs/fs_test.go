package fs

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	. "netdrive/internel/shared"
)

func mkfile(t *testing.T, p, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func count(list []string, name string) int {
	n := 0
	for _, s := range list {
		if s == name {
			n++
		}
	}
	return n
}

func TestResolve(t *testing.T) {
	root := t.TempDir()
	tests := []struct {
		logical string
		want    string
		err     error
	}{
		{"root", root, nil},
		{"", root, nil},
		{"/", root, nil},
		{"/a/b", filepath.Join(root, "a", "b"), nil},
		{"a//b/", filepath.Join(root, "a", "b"), nil},
		{"root/a", filepath.Join(root, "a"), nil},
		{"/root/a", filepath.Join(root, "a"), nil},
		{"/../etc", "", ErrInvalidPath},
		{"/a/../../etc", "", ErrInvalidPath},
		{"/a/./b", "", ErrInvalidPath},
		{`/a\..\b`, "", ErrInvalidPath},
	}
	for _, tt := range tests {
		got, err := Resolve(root, tt.logical)
		if tt.err != nil {
			if !errors.Is(err, tt.err) {
				t.Errorf("Resolve(%q) error = %v, want %v", tt.logical, err, tt.err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("Resolve(%q) = %q, %v; want %q", tt.logical, got, err, tt.want)
		}
	}
}

func TestLogicalHelpers(t *testing.T) {
	if got := Segments("/a/b"); !reflect.DeepEqual(got, []string{"root", "a", "b"}) {
		t.Errorf("Segments = %v", got)
	}
	if got := Segments("root"); !reflect.DeepEqual(got, []string{"root"}) {
		t.Errorf("Segments(root) = %v", got)
	}
	if got := Parent("/a/b"); got != "/a" {
		t.Errorf("Parent = %q", got)
	}
	if got := Parent("/a"); got != "root" {
		t.Errorf("Parent = %q", got)
	}
	if got := Join("root", "x"); got != "/x" {
		t.Errorf("Join = %q", got)
	}
	if got := Join("/a", "x"); got != "/a/x" {
		t.Errorf("Join = %q", got)
	}
	if got := Base("/a/x"); got != "x" {
		t.Errorf("Base = %q", got)
	}
	if got := Canonical("root/a/"); got != "/a" {
		t.Errorf("Canonical = %q", got)
	}
}

func TestValidateName(t *testing.T) {
	for _, ok := range []string{"docs", "report.pdf", "my dir", "Root2"} {
		if err := ValidateName(ok); err != nil {
			t.Errorf("ValidateName(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"", "   ", "root", "ROOT", ".", "..", "a/b", `a\b`, "a*", "a?", "a:b", "a|b", "a>b", "a<b", `a"b`, "a+b", "a%b", "a!b", "a'b", "a@b", "a~b"} {
		if err := ValidateName(bad); !errors.Is(err, ErrInvalidName) {
			t.Errorf("ValidateName(%q) = %v, want ErrInvalidName", bad, err)
		}
	}
	if err := ValidateFileName("photo@2x.png"); err != nil {
		t.Errorf("ValidateFileName rejected a plain file name: %v", err)
	}
	if err := ValidateFileName("../x"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("ValidateFileName accepted a path: %v", err)
	}
}

func TestListPartitionsAndSorts(t *testing.T) {
	root := t.TempDir()
	mkfile(t, filepath.Join(root, "docs", "b.txt"), "b")
	mkfile(t, filepath.Join(root, "docs", "a.txt"), "a")
	if err := os.MkdirAll(filepath.Join(root, "docs", "zdir", "deep"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(root, "docs", "adir"), 0o755); err != nil {
		t.Fatal(err)
	}

	l, err := List(root, "/docs")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(l.Path, []string{"root", "docs"}) {
		t.Errorf("path = %v", l.Path)
	}
	if !reflect.DeepEqual(l.Directories, []string{"adir", "zdir"}) {
		t.Errorf("directories = %v", l.Directories)
	}
	if !reflect.DeepEqual(l.Files, []string{"a.txt", "b.txt"}) {
		t.Errorf("files = %v", l.Files)
	}

	if _, err := List(root, "/missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := List(root, "/docs/a.txt"); !errors.Is(err, ErrNotADirectory) {
		t.Errorf("expected ErrNotADirectory, got %v", err)
	}
}

func TestMkdirTwice(t *testing.T) {
	root := t.TempDir()
	if err := Mkdir(root, "root", "X"); err != nil {
		t.Fatal(err)
	}
	l, err := List(root, "root")
	if err != nil {
		t.Fatal(err)
	}
	if count(l.Directories, "X") != 1 {
		t.Fatalf("X listed %d times", count(l.Directories, "X"))
	}
	if err := Mkdir(root, "root", "X"); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if err := Mkdir(root, "/nope", "Y"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := Mkdir(root, "root", "a:b"); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}

func TestDeleteNonEmptyDirectory(t *testing.T) {
	root := t.TempDir()
	mkfile(t, filepath.Join(root, "tree", "a", "b", "c.txt"), "c")
	mkfile(t, filepath.Join(root, "tree", "d.txt"), "d")

	if err := Delete(root, "/tree"); err != nil {
		t.Fatal(err)
	}
	l, err := List(root, "root")
	if err != nil {
		t.Fatal(err)
	}
	if count(l.Directories, "tree") != 0 {
		t.Fatal("tree still listed")
	}
	if _, err := os.Stat(filepath.Join(root, "tree")); !os.IsNotExist(err) {
		t.Fatalf("tree still on disk: %v", err)
	}
	if err := Delete(root, "/tree"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := Delete(root, "root"); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath, got %v", err)
	}
}

func TestRename(t *testing.T) {
	root := t.TempDir()
	mkfile(t, filepath.Join(root, "old", "inner", "f.txt"), "payload")
	mkfile(t, filepath.Join(root, "taken.txt"), "taken")
	mkfile(t, filepath.Join(root, "note.txt"), "note")

	if err := Rename(root, "/old", "new"); err != nil {
		t.Fatal(err)
	}
	l, _ := List(root, "root")
	if count(l.Directories, "old") != 0 || count(l.Directories, "new") != 1 {
		t.Fatalf("unexpected listing %+v", l)
	}
	b, err := os.ReadFile(filepath.Join(root, "new", "inner", "f.txt"))
	if err != nil || string(b) != "payload" {
		t.Fatalf("child not carried over: %q %v", b, err)
	}

	if err := Rename(root, "/note.txt", "taken.txt"); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	b, _ = os.ReadFile(filepath.Join(root, "taken.txt"))
	if string(b) != "taken" {
		t.Fatal("existing sibling was modified")
	}
	if _, err := os.Stat(filepath.Join(root, "note.txt")); err != nil {
		t.Fatal("source was modified")
	}

	if err := Rename(root, "/missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := Rename(root, "/note.txt", "root"); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
	if err := Rename(root, "/note.txt", ".."); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}

func TestMoveTreeTwoPhases(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	mkfile(t, filepath.Join(src, "a", "one.txt"), "1")
	mkfile(t, filepath.Join(src, "two.txt"), "2")
	if err := os.Mkdir(filepath.Join(src, "empty"), 0o755); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(root, "dst")
	if err := moveTree(src, dst); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatal("source tree survived phase two")
	}
	for p, want := range map[string]string{"a/one.txt": "1", "two.txt": "2"} {
		b, err := os.ReadFile(filepath.Join(dst, filepath.FromSlash(p)))
		if err != nil || string(b) != want {
			t.Fatalf("%s: %q %v", p, b, err)
		}
	}
	if info, err := os.Stat(filepath.Join(dst, "empty")); err != nil || !info.IsDir() {
		t.Fatal("empty directory not rebuilt")
	}
}

func TestMoveTreeFailedBuildLeavesSource(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	mkfile(t, filepath.Join(src, "f.txt"), "f")
	if err := os.Symlink(filepath.Join(src, "f.txt"), filepath.Join(src, "link")); err != nil {
		t.Skip("symlinks unavailable:", err)
	}

	dst := filepath.Join(root, "dst")
	err := moveTree(src, dst)
	if err == nil || !strings.Contains(err.Error(), "symlink") {
		t.Fatalf("expected symlink failure, got %v", err)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatal("partial destination left behind")
	}
	if _, err := os.Stat(filepath.Join(src, "f.txt")); err != nil {
		t.Fatal("source damaged by failed build")
	}
}
