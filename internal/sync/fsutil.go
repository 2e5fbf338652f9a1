package sync

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// filesEqual reports whether two files have byte-identical content.
// Currency is always decided by content, never by modification time.
func filesEqual(a, b string) (bool, error) {
	da, err := os.ReadFile(a)
	if err != nil {
		return false, err
	}
	db, err := os.ReadFile(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(da, db), nil
}

// dirsEqual reports whether two directory trees hold the same relative
// paths with byte-identical file content.
func dirsEqual(a, b string) (bool, error) {
	la, err := listTree(a)
	if err != nil {
		return false, err
	}
	lb, err := listTree(b)
	if err != nil {
		return false, err
	}
	if len(la) != len(lb) {
		return false, nil
	}
	for i := range la {
		if la[i] != lb[i] {
			return false, nil
		}
		eq, err := filesEqual(filepath.Join(a, la[i]), filepath.Join(b, lb[i]))
		if err != nil {
			return false, err
		}
		if !eq {
			return false, nil
		}
	}
	return true, nil
}

// listTree returns the sorted relative file paths under root.
func listTree(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// pathsEqual dispatches to file or directory comparison. Both paths must
// exist and be the same kind; mismatched kinds compare unequal.
func pathsEqual(a, b string) (bool, error) {
	ia, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	ib, err := os.Stat(b)
	if err != nil {
		return false, err
	}
	if ia.IsDir() != ib.IsDir() {
		return false, nil
	}
	if ia.IsDir() {
		return dirsEqual(a, b)
	}
	return filesEqual(a, b)
}

// copyFileAtomic copies src to dst via a sibling temp file and rename,
// preserving the source's executable bit, so an interrupted copy never
// leaves a half-written destination.
func copyFileAtomic(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(dst), err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", dst, err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp for %s: %w", dst, err)
	}

	perm := fs.FileMode(0o644)
	if info.Mode()&0o111 != 0 || strings.HasSuffix(dst, ".sh") {
		perm = 0o755
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod temp for %s: %w", dst, err)
	}

	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename to %s: %w", dst, err)
	}
	return nil
}

// copyTree recursively copies the src directory into dst (dst must not
// exist or be empty enough to receive the copy).
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(src, path)
		if relErr != nil {
			return relErr
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFileAtomic(path, target)
	})
}

// replaceTreeAtomic replaces dst with a copy of the src directory. The
// copy is staged into a sibling temp directory first so a cancellation
// mid-copy leaves either the old tree or the new one, never a mix.
func replaceTreeAtomic(src, dst string) error {
	parent := filepath.Dir(dst)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", parent, err)
	}

	stage, err := os.MkdirTemp(parent, "."+filepath.Base(dst)+".stage-*")
	if err != nil {
		return fmt.Errorf("stage dir for %s: %w", dst, err)
	}
	defer func() { _ = os.RemoveAll(stage) }()

	if err := copyTree(src, stage); err != nil {
		return err
	}

	if err := os.RemoveAll(dst); err != nil {
		return fmt.Errorf("remove %s: %w", dst, err)
	}
	if err := os.Rename(stage, dst); err != nil {
		return fmt.Errorf("rename stage to %s: %w", dst, err)
	}
	return nil
}

// copyPath copies a file or directory from src to dst using the atomic
// strategies above.
func copyPath(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}
	if info.IsDir() {
		return replaceTreeAtomic(src, dst)
	}
	return copyFileAtomic(src, dst)
}
