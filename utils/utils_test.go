package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mini-maxit/executor/utils"
)

func TestCopyFileKeepsMode(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "solution")
	if err := os.WriteFile(src, []byte("\x7fELF"), 0o755); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Chmod(src, 0o755); err != nil {
		t.Fatalf("chmod: %v", err)
	}

	dst := filepath.Join(dir, "copy")
	if err := utils.CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}

	info, err := os.Stat(dst)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Fatalf("expected mode 0755, got %v", info.Mode().Perm())
	}
	data, _ := os.ReadFile(dst)
	if string(data) != "\x7fELF" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestCopyFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := utils.CopyFile(filepath.Join(dir, "nope"), filepath.Join(dir, "dst")); err == nil {
		t.Fatalf("expected error for missing source")
	}
}

func TestCopyDirFiles(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	for _, name := range []string{"Main.class", "Solution.class", "Main.java"} {
		if err := os.WriteFile(filepath.Join(src, name), []byte(name), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(src, "nested"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	err := utils.CopyDirFiles(src, dst, func(name string) bool { return name == "Main.java" })
	if err != nil {
		t.Fatalf("CopyDirFiles: %v", err)
	}

	entries, err := os.ReadDir(dst)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	got := map[string]bool{}
	for _, e := range entries {
		got[e.Name()] = true
	}
	if len(got) != 2 || !got["Main.class"] || !got["Solution.class"] {
		t.Fatalf("unexpected copied files %v", got)
	}
}

func TestContains(t *testing.T) {
	if !utils.Contains([]string{"a", "b"}, "b") {
		t.Fatalf("expected b to be found")
	}
	if utils.Contains([]int{1, 2}, 3) {
		t.Fatalf("did not expect 3 to be found")
	}
}

func TestRemoveIO(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pkg")
	if err := os.MkdirAll(filepath.Join(dir, "inner"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if err := utils.RemoveIO(dir, false, false); err == nil {
		t.Fatalf("expected non-recursive removal of a non-empty dir to fail")
	}
	if err := utils.RemoveIO(dir, true, false); err != nil {
		t.Fatalf("RemoveIO: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("expected dir to be gone, stat err: %v", err)
	}
	if err := utils.RemoveIO(dir, false, true); err != nil {
		t.Fatalf("ignored error was returned: %v", err)
	}
}
