// Package cardfile is the atomic-ish file I/O layer for card files: the
// human-editable source of truth half of the dual-source consistency
// engine.
package cardfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/cardengine/cardengine/internal/cardapi"
)

// CardFile is the raw on-disk representation: the full bytes of a card
// file, split by the caller (via fmcodec) into front matter and body.
type CardFile struct {
	Path string
	Data []byte
}

// Read returns the raw bytes at path. A missing file is reported as
// cardapi.ErrCardNotFound.
func Read(path string) (*CardFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", cardapi.ErrCardNotFound, path)
		}
		return nil, fmt.Errorf("cardfile: read %s: %w", path, err)
	}
	return &CardFile{Path: path, Data: data}, nil
}

// Exists reports whether a file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Write creates the parent directory if needed and atomically overwrites
// path with data (temp file + rename, via natefinch/atomic).
func Write(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cardfile: mkdir %s: %w", dir, err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("cardfile: write %s: %w", path, err)
	}
	return nil
}

// Delete removes the file at path. An absent file is a no-op — the caller
// (cardops) interprets presence before calling Delete.
func Delete(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("cardfile: delete %s: %w", path, err)
	}
	return nil
}

// Move renames oldPath to newPath, creating newPath's parent directory if
// needed.
func Move(oldPath, newPath string) error {
	dir := filepath.Dir(newPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cardfile: mkdir %s: %w", dir, err)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("cardfile: move %s -> %s: %w", oldPath, newPath, err)
	}
	return nil
}
