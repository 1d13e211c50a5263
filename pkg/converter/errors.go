package converter

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/dagshift/pkg/cst"
)

var (
	// ErrPathNotExists is returned for a source path that does not exist.
	ErrPathNotExists = errors.New("path does not exist")

	// ErrSomeFilesFailed is returned by a batch run in which at least
	// one unit failed. Successful units are still written.
	ErrSomeFilesFailed = errors.New("some files failed to convert")

	// ErrFileTooLarge marks a unit rejected by the max-file-size
	// guard. Directory walks skip oversized files during discovery;
	// a file named explicitly fails its unit with this sentinel.
	ErrFileTooLarge = errors.New("file exceeds max file size")
)

// ConfigError reports an invalid invocation: a missing input path, an
// unreadable or invalid custom rule file. It fails the whole run
// before any conversion starts.
type ConfigError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// RuleError reports a rule whose transform failed or changed the node
// variant. It aborts only the unit it occurred in.
type RuleError struct {
	Rule string
	Pos  cst.Position
	Err  error
}

// Error implements the error interface.
func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %s failed at line %d, column %d: %v", e.Rule, e.Pos.Line, e.Pos.Column, e.Err)
}

// Unwrap returns the underlying error.
func (e *RuleError) Unwrap() error {
	return e.Err
}
