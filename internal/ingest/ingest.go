package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoPDF is returned when a directory holds no PDF to convert.
var ErrNoPDF = errors.New("no pdf found")

// FileResult is the per-file discovery outcome.
type FileResult struct {
	Path         string
	HashHex      string
	Size         int64
	Deduplicated bool // same content already seen earlier in this scan
	Err          string
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// ScanDirectory walks root, skips hidden entries if requested and hashes every
// PDF. Files whose content was already seen in this walk are flagged Deduplicated.
func ScanDirectory(ctx context.Context, root string, skipHidden bool) ([]FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var results []FileResult
	var stats DirStats
	seen := map[string]struct{}{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, FileResult{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		sum, size, err := HashFile(path)
		if err != nil {
			results = append(results, FileResult{Path: path, Err: err.Error()})
			stats.Failed++
			return nil
		}
		_, dup := seen[sum]
		seen[sum] = struct{}{}
		results = append(results, FileResult{Path: path, HashHex: sum, Size: size, Deduplicated: dup})
		stats.Succeeded++
		if dup {
			stats.Deduplicated++
		}
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}

// FirstPDF returns the alphabetically first PDF directly inside dir.
func FirstPDF(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && AllowedExt(filepath.Ext(e.Name())) && !IsHidden(e.Name()) {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoPDF, dir)
	}
	sort.Strings(names)
	return filepath.Join(dir, names[0]), nil
}
