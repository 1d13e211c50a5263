package rules

import (
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/dagshift/pkg/cst"
)

// wildcardComponent stands for one or more prefix components in a
// module pattern.
const wildcardComponent = "*"

// compileFile turns a validated rule file into compiled rules. source
// labels the rules for identity and error messages.
func compileFile(file File, source string) ([]*Rule, error) {
	compiled := make([]*Rule, 0, len(file.Rules))

	for _, spec := range file.Rules {
		rule, err := compileRule(spec, source, file.Description)
		if err != nil {
			return nil, err
		}

		compiled = append(compiled, rule)
	}

	return compiled, nil
}

func compileRule(spec RuleSpec, source, description string) (*Rule, error) {
	if spec.Node != "import" {
		return nil, fmt.Errorf("%w: rule %q: node %q", ErrUnknownNodeKind, spec.Name, spec.Node)
	}

	rule := &Rule{
		Name:        spec.Name,
		Source:      source,
		Description: description,
		Kind:        cst.KindImportFrom,
	}

	switch {
	case len(spec.Match.Module) > 0 && spec.Rewrite.Module != "":
		patterns := make([][]string, len(spec.Match.Module))
		for i, pattern := range spec.Match.Module {
			patterns[i] = strings.Split(pattern, ".")
		}

		replacement := spec.Rewrite.Module
		rule.Match = matchModule(patterns)
		rule.Transform = transformModule(replacement)
	case len(spec.Match.Names) > 0 && spec.Rewrite.Name != "":
		names := make(map[string]struct{}, len(spec.Match.Names))
		for _, name := range spec.Match.Names {
			names[name] = struct{}{}
		}

		replacement := spec.Rewrite.Name
		rule.Match = matchNames(names)
		rule.Transform = transformNames(names, replacement)
	default:
		return nil, fmt.Errorf("%w: rule %q: match and rewrite shapes do not pair", ErrInvalidRuleFile, spec.Name)
	}

	return rule, nil
}

// matchModule fires on absolute imports whose dotted module reference
// matches any of the patterns. Relative imports have no module
// reference to match and always pass through.
func matchModule(patterns [][]string) func(cst.SyntaxNode) bool {
	return func(n cst.SyntaxNode) bool {
		imp, ok := n.(*cst.ImportFrom)
		if !ok || imp.Relative() != "" || imp.Module() == nil {
			return false
		}

		components, ok := cst.DottedComponents(imp.Module())
		if !ok {
			return false
		}

		for _, pattern := range patterns {
			if matchComponents(components, pattern) {
				return true
			}
		}

		return false
	}
}

func matchComponents(components, pattern []string) bool {
	if pattern[0] == wildcardComponent {
		suffix := pattern[1:]
		if len(components) <= len(suffix) {
			return false
		}

		tail := components[len(components)-len(suffix):]

		return equalComponents(tail, suffix)
	}

	return equalComponents(components, pattern)
}

func equalComponents(components, pattern []string) bool {
	if len(components) != len(pattern) {
		return false
	}

	for i, component := range components {
		if component != pattern[i] {
			return false
		}
	}

	return true
}

func transformModule(replacement string) func(cst.SyntaxNode) (cst.SyntaxNode, error) {
	return func(n cst.SyntaxNode) (cst.SyntaxNode, error) {
		imp, ok := n.(*cst.ImportFrom)
		if !ok {
			return nil, fmt.Errorf("%w: expected import_from, got %s", ErrNodeVariant, n.Kind())
		}

		return imp.WithModule(cst.DottedNode(replacement)), nil
	}
}

// matchNames fires when any imported-name entry is a plain identifier
// in the set. Dotted entries, wildcard imports and relative imports
// never match: a name imported from a local package is not the
// Airflow symbol of the same spelling.
func matchNames(names map[string]struct{}) func(cst.SyntaxNode) bool {
	return func(n cst.SyntaxNode) bool {
		imp, ok := n.(*cst.ImportFrom)
		if !ok || imp.Wildcard() || imp.Relative() != "" {
			return false
		}

		for _, alias := range imp.Names() {
			if nameInSet(alias, names) {
				return true
			}
		}

		return false
	}
}

func nameInSet(alias *cst.ImportAlias, names map[string]struct{}) bool {
	name, ok := alias.Name.(*cst.Name)
	if !ok {
		return false
	}

	_, found := names[name.Value]

	return found
}

// transformNames rewrites every matching entry to the replacement
// identifier, keeping explicit `as` bindings intact.
func transformNames(names map[string]struct{}, replacement string) func(cst.SyntaxNode) (cst.SyntaxNode, error) {
	return func(n cst.SyntaxNode) (cst.SyntaxNode, error) {
		imp, ok := n.(*cst.ImportFrom)
		if !ok {
			return nil, fmt.Errorf("%w: expected import_from, got %s", ErrNodeVariant, n.Kind())
		}

		entries := imp.Names()
		for i, alias := range entries {
			if nameInSet(alias, names) {
				entries[i] = alias.WithName(&cst.Name{Value: replacement})
			}
		}

		return imp.WithNames(entries), nil
	}
}
