package indexer

import (
	"context"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/lexandro/docindex-mcp/ignore"
)

// candidate is an eligible file found during discovery.
type candidate struct {
	path    string
	size    int64
	modTime time.Time
}

// discover walks rootDir and returns every eligible file plus the number of
// regular files that were skipped as ineligible.
func discover(ctx context.Context, rootDir string, matcher *ignore.Matcher) ([]candidate, int, error) {
	var candidates []candidate
	skipped := 0

	err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == rootDir {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if path != rootDir && matcher.ShouldIgnoreDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			skipped++
			return nil
		}
		if !matcher.IsEligible(path, info.Size()) {
			skipped++
			return nil
		}
		candidates = append(candidates, candidate{path: path, size: info.Size(), modTime: info.ModTime()})
		return nil
	})
	return candidates, skipped, err
}
