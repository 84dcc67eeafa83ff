// Package artifact tracks files the browser downloads into the scratch directory.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"dtc_dms_report/internal/wait"

	"github.com/rs/zerolog/log"
)

// Artifact is a downloaded file.
type Artifact struct {
	Path    string
	Name    string
	ModTime time.Time
	Size    int64
}

// partialSuffixes mark downloads the browser has not finished writing.
var partialSuffixes = []string{".crdownload", ".tmp", ".part", ".download"}

// Prepare makes sure dir exists.
func Prepare(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create scratch directory %s: %w", dir, err)
	}
	return nil
}

// Clear removes every entry in dir and returns the names it removed.
// A missing dir is treated as already clear.
func Clear(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list scratch directory %s: %w", dir, err)
	}

	var removed []string
	var errs []error
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", path, err))
			continue
		}
		removed = append(removed, entry.Name())
	}

	if len(removed) > 0 {
		log.Debug().
			Str("dir", dir).
			Strs("removed", removed).
			Msg("Cleared scratch directory")
	}
	return removed, errors.Join(errs...)
}

// IsCandidate reports whether name can be a finished download.
func IsCandidate(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	lower := strings.ToLower(name)
	for _, suffix := range partialSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return false
		}
	}
	return true
}

// MostRecent returns the newest finished file in dir.
// Ties on modification time are broken by name so the choice is stable.
func MostRecent(dir string) (Artifact, bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Artifact{}, false, fmt.Errorf("failed to list download directory %s: %w", dir, err)
	}

	var candidates []Artifact
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !IsCandidate(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Renamed or removed between listing and stat.
			continue
		}
		candidates = append(candidates, Artifact{
			Path:    filepath.Join(dir, entry.Name()),
			Name:    entry.Name(),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}
	if len(candidates) == 0 {
		return Artifact{}, false, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].ModTime.Equal(candidates[j].ModTime) {
			return candidates[i].Name > candidates[j].Name
		}
		return candidates[i].ModTime.After(candidates[j].ModTime)
	})
	return candidates[0], true, nil
}

// Await polls dir until a finished file appears and its size holds across two polls.
func Await(ctx context.Context, dir string, config wait.Config) (Artifact, error) {
	var last Artifact
	var seen bool

	err := wait.Until(ctx, config, func(ctx context.Context) (bool, error) {
		current, found, err := MostRecent(dir)
		if err != nil {
			return false, err
		}
		if !found {
			seen = false
			return false, nil
		}
		stable := seen && current.Path == last.Path && current.Size == last.Size
		last, seen = current, true
		return stable, nil
	})
	if err != nil {
		return Artifact{}, fmt.Errorf("no completed download in %s: %w", dir, err)
	}

	log.Info().
		Str("file", last.Name).
		Int64("bytes", last.Size).
		Time("modified", last.ModTime).
		Msg("Download complete")
	return last, nil
}
