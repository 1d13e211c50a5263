package converter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/dagshift/pkg/cst"
	"github.com/Sumatoshi-tech/dagshift/pkg/rules"
)

// outputSuffix is appended to the base name when not converting
// in place: dag.py becomes dag-dagshift.py.
const outputSuffix = "-dagshift"

// defaultFilter selects Python files at any depth.
const defaultFilter = "**/*.py"

// Options configure a Runner.
type Options struct {
	// CustomRules are additional rule files, loaded after built-ins.
	CustomRules []string

	// Filter is the glob applied to files found under directory
	// arguments. Defaults to "**/*.py".
	Filter string

	// InPlace overwrites sources instead of writing derived files.
	InPlace bool

	// Workers bounds batch concurrency. Values below 2 run
	// sequentially.
	Workers int

	// MaxFileSize skips larger files during discovery, in a
	// human-readable form such as "4 MB". Empty disables the guard.
	MaxFileSize string
}

// Result is the outcome of one conversion unit. A failed unit carries
// its error; other units in the same batch are unaffected.
type Result struct {
	Path    string
	Output  string
	Size    int64
	Changed bool
	Err     error
}

// Runner converts files with a shared, read-only rule catalog.
type Runner struct {
	opts        Options
	catalog     *rules.Catalog
	maxFileSize uint64
}

// NewRunner loads the rule catalog and validates the options. Any
// failure here is a *ConfigError: nothing has been converted yet.
func NewRunner(opts Options) (*Runner, error) {
	if opts.Filter == "" {
		opts.Filter = defaultFilter
	}

	for _, path := range opts.CustomRules {
		if _, err := os.Stat(path); err != nil {
			return nil, &ConfigError{Path: path, Err: rules.ErrRuleFileNotFound}
		}
	}

	catalog, err := rules.Load(opts.CustomRules)
	if err != nil {
		return nil, &ConfigError{Path: strings.Join(opts.CustomRules, ", "), Err: err}
	}

	runner := &Runner{opts: opts, catalog: catalog}

	if opts.MaxFileSize != "" {
		size, err := humanize.ParseBytes(opts.MaxFileSize)
		if err != nil {
			return nil, &ConfigError{Path: opts.MaxFileSize, Err: fmt.Errorf("invalid max file size: %w", err)}
		}

		runner.maxFileSize = size
	}

	return runner, nil
}

// Catalog returns the loaded rule catalog.
func (r *Runner) Catalog() *rules.Catalog {
	return r.catalog
}

// ConvertString converts one Python program held in memory.
func (r *Runner) ConvertString(source string) (string, error) {
	tree, err := cst.Parse(source)
	if err != nil {
		return "", err
	}

	rewritten, err := Apply(tree, r.catalog)
	if err != nil {
		return "", err
	}

	return cst.Serialize(rewritten), nil
}

// ConvertFile converts one file and writes the output, either over
// the source or next to it with the derived name.
func (r *Runner) ConvertFile(path string) Result {
	result := Result{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		result.Err = &ConfigError{Path: path, Err: ErrPathNotExists}

		return result
	}

	result.Size = info.Size()

	if r.maxFileSize > 0 && uint64(info.Size()) > r.maxFileSize {
		result.Err = fmt.Errorf("%s: %w", path, ErrFileTooLarge)

		return result
	}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Err = fmt.Errorf("reading %s: %w", path, err)

		return result
	}

	source := string(data)

	converted, err := r.ConvertString(source)
	if err != nil {
		result.Err = fmt.Errorf("converting %s: %w", path, err)

		return result
	}

	result.Changed = converted != source
	result.Output = r.outputPath(path)

	// In-place output keeps the original file mode.
	mode := info.Mode().Perm()
	if !r.opts.InPlace {
		mode = 0o644
	}

	if err := os.WriteFile(result.Output, []byte(converted), mode); err != nil {
		result.Err = fmt.Errorf("writing %s: %w", result.Output, err)

		return result
	}

	return result
}

func (r *Runner) outputPath(path string) string {
	if r.opts.InPlace {
		return path
	}

	ext := filepath.Ext(path)

	return strings.TrimSuffix(path, ext) + outputSuffix + ext
}

// ConvertFiles discovers and converts a batch of sources. Units fail
// independently; the returned error is ErrSomeFilesFailed when at
// least one did, with per-unit detail in the results.
func (r *Runner) ConvertFiles(paths []string) ([]Result, error) {
	files, err := r.Discover(paths)
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, nil
	}

	results := make([]Result, len(files))

	workers := r.opts.Workers
	if workers > len(files) {
		workers = len(files)
	}

	if workers <= 1 {
		for i, file := range files {
			results[i] = r.ConvertFile(file)
		}
	} else {
		r.convertParallel(files, results, workers)
	}

	for _, result := range results {
		if result.Err != nil {
			return results, ErrSomeFilesFailed
		}
	}

	return results, nil
}

type indexedFile struct {
	index int
	path  string
}

// convertParallel fans the batch out over a bounded worker pool. The
// catalog is shared read-only; each unit writes only its own slot.
func (r *Runner) convertParallel(files []string, results []Result, workers int) {
	fileCh := make(chan indexedFile, workers)

	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for item := range fileCh {
				results[item.index] = r.ConvertFile(item.path)
			}
		}()
	}

	for i, file := range files {
		fileCh <- indexedFile{index: i, path: file}
	}

	close(fileCh)
	wg.Wait()
}
