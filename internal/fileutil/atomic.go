package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// WriteFileAtomic replaces path with data. The data is written to a temp file
// in the same directory, synced and renamed over path, so readers see either
// the old or the new content.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	tmpName, err := writeTemp(path, data, perm)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			os.Remove(tmpName) //nolint:gosec // best-effort cleanup
		}
	}()

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming %q: %w", tmpName, err)
	}

	return nil
}

// WriteFileOnce creates path with data unless it already exists.
// It reports whether the file was created. An existing file is never touched,
// and a crash never leaves a partially written file at path.
func WriteFileOnce(path string, data []byte, perm os.FileMode) (bool, error) {
	tmpName, err := writeTemp(path, data, perm)
	if err != nil {
		return false, err
	}

	defer os.Remove(tmpName) //nolint:errcheck // the link keeps the data alive

	if err := os.Link(tmpName, path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}

		return false, fmt.Errorf("linking %q: %w", path, err)
	}

	return true, nil
}

// writeTemp writes data to a synced temp file next to path and returns its name.
func writeTemp(path string, data []byte, perm os.FileMode) (string, error) {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("creating temporary file: %w", err)
	}

	tmpName := tmpFile.Name()

	if err := writeAndClose(tmpFile, data, perm); err != nil {
		os.Remove(tmpName) //nolint:gosec // best-effort cleanup

		return "", err
	}

	return tmpName, nil
}

func writeAndClose(file *os.File, data []byte, perm os.FileMode) error {
	defer file.Close() //nolint:errcheck // closed explicitly below on success

	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("writing temporary file: %w", err)
	}

	if err := file.Chmod(perm); err != nil {
		return fmt.Errorf("setting file permissions: %w", err)
	}

	if err := file.Sync(); err != nil {
		return fmt.Errorf("syncing temporary file: %w", err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("closing temporary file: %w", err)
	}

	return nil
}
