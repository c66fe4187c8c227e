package cardfile

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const cardSuffix = ".card.md"

// ScanDir walks dir and returns the path of every *.card.md file, each
// joined onto dir (so relative when dir is relative).
// A missing directory propagates as an error.
func ScanDir(dir string) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("cardfile: scan dir %s: %w", dir, err)
	}
	var out []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), cardSuffix) {
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cardfile: scan dir %s: %w", dir, err)
	}
	return out, nil
}
