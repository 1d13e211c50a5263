// Package converter applies a rule catalog to Python source, file by
// file. The engine walks a parsed tree once; the runner handles
// discovery, batching and output placement.
package converter

import (
	"errors"

	"github.com/Sumatoshi-tech/dagshift/pkg/cst"
	"github.com/Sumatoshi-tech/dagshift/pkg/rules"
)

var errKindChanged = errors.New("transform changed the node variant")

// Apply rewrites the tree with every matching rule from the catalog in
// a single depth-first pass. At each node the rules for its kind run
// in catalog order against the current value of the node, so a later
// rule sees the effect of an earlier one. A transform that fails or
// changes the node's variant aborts with a *RuleError.
func Apply(tree *cst.Module, catalog *rules.Catalog) (*cst.Module, error) {
	rewritten, err := cst.Rewrite(tree, func(node cst.SyntaxNode) (cst.SyntaxNode, error) {
		return applyRules(node, catalog)
	})
	if err != nil {
		return nil, err
	}

	module, ok := rewritten.(*cst.Module)
	if !ok {
		return nil, &RuleError{Pos: tree.Pos(), Err: errKindChanged}
	}

	return module, nil
}

func applyRules(node cst.SyntaxNode, catalog *rules.Catalog) (cst.SyntaxNode, error) {
	current := node

	for _, rule := range catalog.ForKind(node.Kind()) {
		if !rule.Match(current) {
			continue
		}

		replaced, err := rule.Transform(current)
		if err != nil {
			return nil, &RuleError{Rule: rule.Identity(), Pos: current.Pos(), Err: err}
		}

		if replaced == nil || replaced.Kind() != current.Kind() {
			return nil, &RuleError{Rule: rule.Identity(), Pos: current.Pos(), Err: errKindChanged}
		}

		current = replaced
	}

	return current, nil
}
