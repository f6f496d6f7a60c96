package index

import (
	"errors"
	"io/fs"
	"path/filepath"
	"time"
)

// NeedsRebuild reports whether any regular file under sourceDir was
// modified after the cache was written. The cache timestamp is the
// maximum modification time over the directories under cacheDir:
// directory mtimes move when artifacts are written into them, and
// unlike file mtimes they survive artifact-level rewrites.
//
// The scan stops at the first newer file. A sourceDir with no regular
// files reports false. A missing or unreadable sourceDir is an error,
// never a silent answer.
func NeedsRebuild(cacheDir, sourceDir string) (bool, error) {
	cacheTime, err := maxDirModTime(cacheDir)
	if err != nil {
		return false, err
	}

	stale := false
	err = filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return classifyPathError(path, err)
		}

		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return classifyPathError(path, err)
		}

		if info.ModTime().After(cacheTime) {
			stale = true
			return fs.SkipAll
		}

		return nil
	})
	if err != nil {
		return false, err
	}

	return stale, nil
}

// maxDirModTime returns the newest modification time among cacheDir
// and every directory below it.
func maxDirModTime(cacheDir string) (time.Time, error) {
	var maxTime time.Time

	err := filepath.WalkDir(cacheDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return classifyPathError(path, err)
		}

		if !d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return classifyPathError(path, err)
		}

		if info.ModTime().After(maxTime) {
			maxTime = info.ModTime()
		}

		return nil
	})
	if err != nil {
		return time.Time{}, err
	}

	return maxTime, nil
}

func classifyPathError(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return NewNotFoundError(path, err)
	default:
		return NewAccessError(path, err)
	}
}
