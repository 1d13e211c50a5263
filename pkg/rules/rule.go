// Package rules loads declarative rewrite rules from YAML files and
// compiles them into matcher/transform pairs. Built-in rules ship
// embedded in the binary; custom files extend them at load time.
package rules

import (
	"github.com/Sumatoshi-tech/dagshift/pkg/cst"
)

// Rule is a compiled rewrite rule. Match and Transform are pure: a
// compiled rule holds no mutable state and is safe to share across
// goroutines.
type Rule struct {
	// Name is the rule name from its file.
	Name string

	// Source is the rule file the rule came from.
	Source string

	// Description is free-form text from the rule file.
	Description string

	// Kind is the node variant the rule applies to.
	Kind cst.Kind

	// Match reports whether the rule fires on the node.
	Match func(cst.SyntaxNode) bool

	// Transform returns a replacement node of the same variant.
	Transform func(cst.SyntaxNode) (cst.SyntaxNode, error)
}

// Identity uniquely names a rule across all loaded files.
func (r *Rule) Identity() string {
	return r.Source + "#" + r.Name
}

// Catalog is an ordered, immutable collection of compiled rules.
// Built-ins come first, customs after, in file order. Lookup by node
// kind preserves catalog order.
type Catalog struct {
	rules  []*Rule
	byKind map[cst.Kind][]*Rule
}

// NewCatalog indexes the given rules. Ordering is the caller's.
func NewCatalog(ruleList []*Rule) *Catalog {
	byKind := make(map[cst.Kind][]*Rule)

	for _, rule := range ruleList {
		byKind[rule.Kind] = append(byKind[rule.Kind], rule)
	}

	return &Catalog{rules: ruleList, byKind: byKind}
}

// ForKind returns the rules for a node kind in catalog order. The
// returned slice is shared; callers must not modify it.
func (c *Catalog) ForKind(kind cst.Kind) []*Rule {
	return c.byKind[kind]
}

// Rules returns a copy of all rules in catalog order.
func (c *Catalog) Rules() []*Rule {
	rules := make([]*Rule, len(c.rules))
	copy(rules, c.rules)

	return rules
}

// Len returns the number of rules in the catalog.
func (c *Catalog) Len() int {
	return len(c.rules)
}
