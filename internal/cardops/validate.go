package cardops

import (
	"context"
	"strings"

	"github.com/cardengine/cardengine/internal/cardfile"
	"github.com/cardengine/cardengine/internal/store"
)

// Validate produces a read-only diff of the filesystem against the card
// repository for dir (or the configured cards directory if dir is
// empty): stale rows (file gone), orphan files (no owning row), and key
// mismatches (row key disagrees with the filename-derived key). It never
// mutates either side. A missing directory propagates as an error.
func (e *Engine) Validate(ctx context.Context, dir string) (*ValidateReport, error) {
	scanDir := dir
	if scanDir == "" {
		scanDir = e.cardsDir
	}
	paths, err := cardfile.ScanDir(scanDir)
	if err != nil {
		return nil, err
	}
	onDisk := make(map[string]bool, len(paths))
	for _, p := range paths {
		onDisk[p] = true
	}

	rows, err := store.ListCards(e.store.Conn(), store.CardFilter{})
	if err != nil {
		return nil, err
	}

	report := &ValidateReport{
		StaleDBRows:   []string{},
		OrphanFiles:   []string{},
		KeyMismatches: []KeyMismatch{},
	}

	for _, row := range rows {
		if !cardfile.Exists(row.FilePath) {
			report.StaleDBRows = append(report.StaleDBRows, row.FilePath)
			continue
		}
		delete(onDisk, row.FilePath)
		if fileKey := derivedKeyForPath(scanDir, row.FilePath); fileKey != row.Key {
			report.KeyMismatches = append(report.KeyMismatches, KeyMismatch{
				FilePath:  row.FilePath,
				StoredKey: row.Key,
				FileKey:   fileKey,
			})
		}
	}

	for p := range onDisk {
		report.OrphanFiles = append(report.OrphanFiles, p)
	}

	return report, nil
}

// derivedKeyForPath strips dir and the .card.md suffix from path to
// recover the key its filename implies.
func derivedKeyForPath(dir, path string) string {
	rel := strings.TrimPrefix(path, strings.TrimSuffix(dir, "/")+"/")
	return strings.TrimSuffix(rel, ".card.md")
}
