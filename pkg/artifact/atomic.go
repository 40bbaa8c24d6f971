package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteAtomic writes data to path by creating "<dir>/.<base>.tmp", writing,
// fsyncing, then renaming onto path (spec.md §6 atomic file-write
// discipline). The parent directory is created if absent, mirroring the
// teacher's SaveCertToFile/SaveCACertToFile (pkg/security/certs.go), which
// always MkdirAll before WriteFile — generalized here to add the
// fsync-then-rename step those plain WriteFile calls don't need, since §6
// requires artifacts to never observe a half-written file.
func WriteAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("artifact: mkdir %s: %w", dir, err)
	}

	tmp := filepath.Join(dir, "."+filepath.Base(path)+".tmp")
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("artifact: create %s: %w", tmp, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("artifact: write %s: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("artifact: fsync %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("artifact: close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("artifact: rename %s to %s: %w", tmp, path, err)
	}
	return nil
}

// WriteJSONAtomic pretty-prints v and writes it atomically via WriteAtomic.
func WriteJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("artifact: marshal %s: %w", path, err)
	}
	data = append(data, '\n')
	return WriteAtomic(path, data, 0o644)
}

// ReadJSON reads and unmarshals path into v. A missing file surfaces the
// underlying *os.PathError unchanged so callers can test os.IsNotExist and
// apply their own missing-file default, the way pkg/artifact's workspace
// metadata helpers do.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("artifact: parse %s: %w", path, err)
	}
	return nil
}
