package mirror

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	shutil "github.com/termie/go-shutil"
)

// Native mirrors directory trees in-process.
type Native struct{}

// NewNative creates an in-process mirror.
func NewNative() *Native {
	return &Native{}
}

// Mirror copies new and changed entries from src to dst, then deletes
// entries of dst that src does not have.
func (n *Native) Mirror(ctx context.Context, src, dst string, exclude []string) error {
	for _, pattern := range exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern %q: %w", pattern, doublestar.ErrBadPattern)
		}
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}
	if err := n.copyTree(ctx, src, dst, exclude); err != nil {
		return fmt.Errorf("mirror %s to %s: %w", src, dst, err)
	}
	if err := n.purge(ctx, src, dst, exclude); err != nil {
		return fmt.Errorf("purge %s: %w", dst, err)
	}
	return nil
}

func (n *Native) copyTree(ctx context.Context, src, dst string, exclude []string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if excluded(exclude, rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		target := filepath.Join(dst, rel)
		info, err := os.Lstat(path)
		if err != nil {
			return err
		}

		if d.IsDir() {
			return ensureDir(target, info.Mode().Perm())
		}

		if !needsCopy(info, target) {
			return nil
		}
		if err := clearTarget(target); err != nil {
			return err
		}
		if _, err := shutil.Copy(path, target, false); err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink == 0 {
			return os.Chtimes(target, info.ModTime(), info.ModTime())
		}
		return nil
	})
}

func (n *Native) purge(ctx context.Context, src, dst string, exclude []string) error {
	return filepath.WalkDir(dst, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(dst, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if excluded(exclude, rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if _, err := os.Lstat(filepath.Join(src, rel)); err == nil {
			return nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}

		if err := os.RemoveAll(path); err != nil {
			return err
		}
		if d.IsDir() {
			return filepath.SkipDir
		}
		return nil
	})
}

// excluded matches patterns against both the entry's name and its
// slash-separated path relative to the tree root.
func excluded(patterns []string, rel string) bool {
	slashed := filepath.ToSlash(rel)
	name := filepath.Base(rel)
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, slashed); ok {
			return true
		}
	}
	return false
}

func needsCopy(src os.FileInfo, target string) bool {
	dst, err := os.Lstat(target)
	if err != nil {
		return true
	}
	if src.Mode().Type() != dst.Mode().Type() {
		return true
	}
	if src.Mode()&os.ModeSymlink != 0 {
		return true
	}
	return src.Size() != dst.Size() ||
		!src.ModTime().Equal(dst.ModTime()) ||
		src.Mode().Perm() != dst.Mode().Perm()
}

// ensureDir creates target as a directory, replacing a file of the same name.
func ensureDir(target string, perm os.FileMode) error {
	info, err := os.Lstat(target)
	switch {
	case err == nil && info.IsDir():
		return nil
	case err == nil:
		if err := os.Remove(target); err != nil {
			return err
		}
	case !errors.Is(err, fs.ErrNotExist):
		return err
	}
	return os.MkdirAll(target, perm|0o700)
}

// clearTarget removes whatever stands where a file is about to be copied.
func clearTarget(target string) error {
	if _, err := os.Lstat(target); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return os.RemoveAll(target)
}

// Compile-time interface conformance check.
var _ Mirrorer = (*Native)(nil)
