package staging

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"contentengine/internal/logging"
)

// Entry describes one workspace directory found on disk.
type Entry struct {
	// Key is the sanitized source id taken from the directory name.
	Key     string
	Path    string
	ModTime time.Time
	Size    int64
}

// Failure pairs a workspace path with the error that kept it on disk.
type Failure struct {
	Path string
	Err  error
}

// CleanResult lists what CleanStale removed and what it could not.
type CleanResult struct {
	Removed []string
	Failed  []Failure
}

// scan yields the workspace directories under stagingDir. A blank or missing
// staging dir has no workspaces.
func scan(stagingDir string, visit func(Entry) bool) error {
	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return nil
	}
	entries, err := os.ReadDir(stagingDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, de := range entries {
		key, ok := strings.CutPrefix(de.Name(), DirPrefix)
		if !ok || !de.IsDir() {
			continue
		}
		entry := Entry{Key: key, Path: filepath.Join(stagingDir, de.Name())}
		if info, err := de.Info(); err == nil {
			entry.ModTime = info.ModTime()
		}
		if !visit(entry) {
			return nil
		}
	}
	return nil
}

// List returns the workspaces currently on disk with their total size.
func List(stagingDir string) ([]Entry, error) {
	var out []Entry
	err := scan(stagingDir, func(e Entry) bool {
		e.Size = treeSize(e.Path)
		out = append(out, e)
		return true
	})
	return out, err
}

// CleanStale removes workspaces last modified before now-maxAge; a zero
// maxAge removes all of them. Failures are logged and returned, never
// escalated, since a leftover directory only costs disk space.
func CleanStale(ctx context.Context, stagingDir string, maxAge time.Duration, logger *slog.Logger) CleanResult {
	var result CleanResult
	cutoff := time.Now().Add(-maxAge)
	err := scan(stagingDir, func(e Entry) bool {
		if ctx.Err() != nil {
			return false
		}
		if maxAge > 0 && !e.ModTime.Before(cutoff) {
			return true
		}
		if err := os.RemoveAll(e.Path); err != nil {
			result.Failed = append(result.Failed, Failure{Path: e.Path, Err: err})
			logging.WarnWithContext(logger, "failed to remove stale workspace", "staging_cleanup_failed",
				logging.String("path", e.Path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check staging_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			return true
		}
		result.Removed = append(result.Removed, e.Path)
		if logger != nil {
			logger.Info("removed stale workspace",
				logging.String("path", e.Path),
				logging.Duration("age", time.Since(e.ModTime)),
				logging.String(logging.FieldEventType, "staging_cleanup"),
			)
		}
		return true
	})
	if err != nil {
		result.Failed = append(result.Failed, Failure{Path: stagingDir, Err: err})
	}
	return result
}

func treeSize(root string) int64 {
	var size int64
	_ = filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	return size
}
