// Package atomicfile persists files with write-to-temp-then-rename semantics.
//
// A reader of a path written through this package observes either the previous
// complete content or the new complete content, never a partial write. There is
// no locking: concurrent writers each stage into their own temporary file and the
// last rename wins. Staging files are named "<name>.<random>.tmp" next to the
// target rather than a fixed "<path>.tmp", so two writers never share one.
package atomicfile

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-realtime/pkg/errors"
)

// TempSuffix is the suffix of staging files. Leftovers from a crashed writer
// carry it and are never read back.
const TempSuffix = ".tmp"

// Write replaces the file at path with data.
//
// The content is written and fsynced to a sibling "<name>.<random>.tmp" file,
// then renamed over path. When any step fails the staging file is removed and
// the previous content of path is left untouched.
func Write(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to create directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*"+TempSuffix)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to create temporary file for %s", path)
	}

	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)

		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to write temporary file for %s", path)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)

		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to sync temporary file for %s", path)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)

		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to close temporary file for %s", path)
	}

	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)

		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to set permissions for %s", path)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)

		return errors.Wrapf(errors.ErrCodeRenameFailed, err, "failed to rename temporary file onto %s", path)
	}

	return nil
}

// Read returns the last fully written content of path, or None when the file
// does not exist.
func Read(path string) (optional.Option[[]byte], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return optional.None[[]byte](), nil
		}

		return optional.None[[]byte](), errors.Wrapf(errors.ErrCodeReadFailed, err, "failed to read %s", path)
	}

	return optional.Some(data), nil
}

// WriteJSON encodes v as indented JSON and writes it atomically.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(errors.ErrCodeEncodeFailed, err, "failed to encode %s", path)
	}

	return Write(path, append(data, '\n'))
}

// ReadJSON decodes the JSON file at path into v.
// It returns false with a nil error when the file does not exist.
func ReadJSON(path string, v any) (bool, error) {
	content, err := Read(path)
	if err != nil {
		return false, err
	}

	if content.IsNone() {
		return false, nil
	}

	if err := json.Unmarshal(content.Unwrap(), v); err != nil {
		return true, errors.Wrapf(errors.ErrCodeDecodeFailed, err, "failed to decode %s", path)
	}

	return true, nil
}
