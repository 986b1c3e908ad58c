package staging

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"vidlingo/internal/logging"
)

// partialSuffixes mark files a killed download, mux or render leaves behind.
var partialSuffixes = []string{".part", ".filter", ".tmp", ".ytdl"}

// CleanResult contains the outcome of a media cleanup pass.
type CleanResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a file path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// FileInfo describes one file under the media directory.
type FileInfo struct {
	Path    string
	RelPath string
	ModTime time.Time
	Size    int64
	Partial bool
}

// CleanStale removes media files older than maxAge. Merged sources kept for
// reuse and renders from failed jobs age out this way. Call it only while no
// job is running.
func CleanStale(ctx context.Context, mediaDir string, maxAge time.Duration, logger *slog.Logger) CleanResult {
	cutoff := time.Now().Add(-maxAge)
	return clean(ctx, mediaDir, logger, "stale", func(f FileInfo) bool {
		return f.ModTime.Before(cutoff)
	})
}

// CleanPartials removes intermediates left by interrupted jobs regardless of
// age. Call it only while no job is running.
func CleanPartials(ctx context.Context, mediaDir string, logger *slog.Logger) CleanResult {
	return clean(ctx, mediaDir, logger, "partial", func(f FileInfo) bool {
		return f.Partial
	})
}

func clean(ctx context.Context, mediaDir string, logger *slog.Logger, reason string, match func(FileInfo) bool) CleanResult {
	result := CleanResult{}
	files, err := ListFiles(mediaDir)
	if err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: mediaDir, Error: err})
		return result
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	for _, f := range files {
		if ctx.Err() != nil {
			return result
		}
		if !match(f) {
			continue
		}
		if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: f.Path, Error: err})
			logger.Warn("failed to remove media file",
				logging.String("path", f.Path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "media_cleanup_failed"),
				logging.String(logging.FieldErrorHint, "check data_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, f.Path)
		logger.Info("removed media file",
			logging.String("path", f.Path),
			logging.String("reason", reason),
			logging.Duration("age", time.Since(f.ModTime)),
			logging.String(logging.FieldEventType, "media_cleanup"),
		)
	}
	return result
}

// ListFiles returns every regular file under mediaDir, including the
// per-language render directories, sorted by relative path. A missing
// directory yields no files.
func ListFiles(mediaDir string) ([]FileInfo, error) {
	mediaDir = strings.TrimSpace(mediaDir)
	if mediaDir == "" {
		return nil, nil
	}
	var files []FileInfo
	err := filepath.WalkDir(mediaDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == mediaDir {
				return fs.SkipAll
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, _ := filepath.Rel(mediaDir, path)
		files = append(files, FileInfo{
			Path:    path,
			RelPath: rel,
			ModTime: info.ModTime(),
			Size:    info.Size(),
			Partial: isPartial(path),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

func isPartial(path string) bool {
	for _, suffix := range partialSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}
