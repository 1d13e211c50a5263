package converter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/src-d/enry/v2"
)

const pythonLanguage = "Python"

// Discover expands source arguments into the list of files to convert.
// Files given explicitly are taken as-is; directories are walked
// recursively, filtered by the glob pattern and confirmed as Python by
// language detection. A missing argument is a *ConfigError.
func (r *Runner) Discover(paths []string) ([]string, error) {
	var files []string

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, &ConfigError{Path: path, Err: ErrPathNotExists}
		}

		if !info.IsDir() {
			files = append(files, path)

			continue
		}

		found, err := r.walkDir(path)
		if err != nil {
			return nil, err
		}

		files = append(files, found...)
	}

	return files, nil
}

func (r *Runner) walkDir(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if isHiddenDir(filepath.Base(path)) {
				return filepath.SkipDir
			}

			return nil
		}

		if !r.selectFile(dir, path, info) {
			return nil
		}

		files = append(files, path)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}

	return files, nil
}

// selectFile applies the glob filter, the language check and the size
// guard to one walked file.
func (r *Runner) selectFile(root, path string, info os.FileInfo) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}

	if !matchFilter(r.opts.Filter, rel) {
		return false
	}

	if lang := enry.GetLanguage(filepath.Base(path), nil); lang != pythonLanguage {
		slog.Debug("skipping non-python file", "path", path, "language", lang)

		return false
	}

	if r.maxFileSize > 0 && uint64(info.Size()) > r.maxFileSize {
		slog.Debug("skipping oversized file", "path", path, "size", info.Size())

		return false
	}

	return true
}

// matchFilter matches a relative path against the filter glob. A
// `**/` prefix matches at any depth; otherwise the pattern must match
// the relative path or the base name.
func matchFilter(pattern, rel string) bool {
	base := filepath.Base(rel)

	if rest, ok := strings.CutPrefix(pattern, "**/"); ok {
		matched, err := filepath.Match(rest, base)

		return err == nil && matched
	}

	if matched, err := filepath.Match(pattern, rel); err == nil && matched {
		return true
	}

	matched, err := filepath.Match(pattern, base)

	return err == nil && matched
}

// isHiddenDir returns true for dot directories such as .git, except
// for "." and ".." which are filesystem navigation entries.
func isHiddenDir(name string) bool {
	return len(name) > 1 && name[0] == '.'
}
