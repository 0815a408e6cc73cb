// Package fileutil provides atomic file write helpers.
//
// Streams are written to a hidden temporary sibling first and renamed into
// place only after a full, error-free copy, so the final path never holds
// partial content.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// TempPath returns the temporary sibling used while streaming toward dst.
// The temp file lives in the same directory so the final rename is atomic.
func TempPath(dst string) string {
	dir := filepath.Dir(dst)
	base := filepath.Base(dst)
	return filepath.Join(dir, "."+base+".part")
}

// WriteStreamAtomic streams r into dst via a temporary sibling. A leftover
// temp file from a prior aborted attempt is removed first. On any error the
// temp file is deleted and dst is left untouched.
func WriteStreamAtomic(dst string, r io.Reader) (int64, error) {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmpPath := TempPath(dst)
	if err := RemoveIfExists(tmpPath); err != nil {
		return 0, fmt.Errorf("remove stale temp file: %w", err)
	}

	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}

	written, err := io.Copy(tmp, r)
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return written, err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return written, fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return written, fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return written, fmt.Errorf("rename into place: %w", err)
	}
	return written, nil
}

// RemoveIfExists deletes path, treating absence as success.
func RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
