package rules

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

//go:embed schema/rule-schema.json
var ruleSchema []byte

var (
	// ErrRuleFileNotFound is returned for an unreadable custom rule file.
	ErrRuleFileNotFound = errors.New("rule file not found")

	// ErrInvalidRuleFile is returned when a rule file fails schema
	// validation or compiles to an inconsistent rule.
	ErrInvalidRuleFile = errors.New("invalid rule file")

	// ErrUnknownNodeKind is returned for an unsupported rule node kind.
	ErrUnknownNodeKind = errors.New("unknown rule node kind")

	// ErrNodeVariant is returned when a transform receives or produces
	// an unexpected node variant.
	ErrNodeVariant = errors.New("unexpected node variant")
)

// BuiltinRuleFiles returns the embedded rule file names, sorted.
func BuiltinRuleFiles() []string {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}

	sort.Strings(names)

	return names
}

// Load builds a catalog from the embedded built-in rules followed by
// the given custom rule files, in argument order. Every file is
// validated against the rule schema before compilation; any failure
// aborts the load. Rules whose identity repeats an earlier one are
// skipped, so built-ins cannot be overridden.
func Load(customPaths []string) (*Catalog, error) {
	var compiled []*Rule

	seen := make(map[string]struct{})

	for _, name := range BuiltinRuleFiles() {
		data, err := builtinFS.ReadFile("builtin/" + name)
		if err != nil {
			return nil, fmt.Errorf("reading embedded rule file %s: %w", name, err)
		}

		compiled, err = appendRuleFile(compiled, seen, data, name)
		if err != nil {
			return nil, err
		}
	}

	for _, path := range customPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrRuleFileNotFound, path, err)
		}

		compiled, err = appendRuleFile(compiled, seen, data, sourceLabel(path))
		if err != nil {
			return nil, err
		}
	}

	return NewCatalog(compiled), nil
}

// sourceLabel keys rule identity by file base name, so the same file
// referenced via different paths dedupes to one load.
func sourceLabel(path string) string {
	return filepath.Base(path)
}

func appendRuleFile(compiled []*Rule, seen map[string]struct{}, data []byte, source string) ([]*Rule, error) {
	file, err := parseRuleFile(data, source)
	if err != nil {
		return nil, err
	}

	fileRules, err := compileFile(file, source)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", source, err)
	}

	for _, rule := range fileRules {
		identity := rule.Identity()
		if _, dup := seen[identity]; dup {
			slog.Debug("skipping duplicate rule", "identity", identity)

			continue
		}

		seen[identity] = struct{}{}
		compiled = append(compiled, rule)
	}

	return compiled, nil
}

func parseRuleFile(data []byte, source string) (File, error) {
	// Validate the raw document before giving it a typed shape, so
	// schema errors name the offending fields.
	var document any

	if err := yaml.Unmarshal(data, &document); err != nil {
		return File{}, fmt.Errorf("%w: %s: %w", ErrInvalidRuleFile, source, err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(ruleSchema),
		gojsonschema.NewGoLoader(document),
	)
	if err != nil {
		return File{}, fmt.Errorf("validating %s: %w", source, err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, verr := range result.Errors() {
			details = append(details, fmt.Sprintf("%s: %s", verr.Field(), verr.Description()))
		}

		return File{}, fmt.Errorf("%w: %s: %s", ErrInvalidRuleFile, source, strings.Join(details, "; "))
	}

	var file File

	if err := yaml.Unmarshal(data, &file); err != nil {
		return File{}, fmt.Errorf("%w: %s: %w", ErrInvalidRuleFile, source, err)
	}

	return file, nil
}
