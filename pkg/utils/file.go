package utils

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// TempPattern is the name pattern of in-flight files created by WriteFileAtomic.
const TempPattern = ".tmp-*"

// WriteFileAtomic streams write into a temp file next to dst and renames it
// into place. dst either holds the complete content or is left untouched.
func WriteFileAtomic(dst string, write func(w io.Writer) error) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, TempPattern)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", dst, err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("rename into %s: %w", dst, err)
	}
	return nil
}

// WriteBytesAtomic is WriteFileAtomic for an in-memory body.
func WriteBytesAtomic(dst string, data []byte) error {
	return WriteFileAtomic(dst, func(w io.Writer) error {
		_, err := io.Copy(w, bytes.NewReader(data))
		return err
	})
}
