// Package cst provides a concrete syntax tree over Python source with
// byte-exact serialization. Parsing is backed by tree-sitter; the node
// model, replace-field operations and the Rewrite traversal are owned
// here. Nodes are immutable: every With* method returns a copy.
package cst

import (
	"strings"
)

// Kind tags the variant of a syntax node.
type Kind uint8

// Node variants.
const (
	KindModule Kind = iota
	KindBlock
	KindRaw
	KindName
	KindAttributeChain
	KindImportFrom
	KindImportAlias
	KindCall
	KindDecorator
)

// String returns the lowercase variant name.
func (k Kind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindBlock:
		return "block"
	case KindRaw:
		return "raw"
	case KindName:
		return "name"
	case KindAttributeChain:
		return "attribute_chain"
	case KindImportFrom:
		return "import_from"
	case KindImportAlias:
		return "import_alias"
	case KindCall:
		return "call"
	case KindDecorator:
		return "decorator"
	default:
		return "unknown"
	}
}

// Position locates a node in the original source. Line and Column are
// 1-based, Offset is the byte offset of the node start.
type Position struct {
	Line   int
	Column int
	Offset int
}

// SyntaxNode is the closed interface over all tree variants.
type SyntaxNode interface {
	Kind() Kind
	Pos() Position
	render(b *strings.Builder)
}

// Serialize renders a node back to source text. A tree whose nodes were
// never replaced serializes to the exact bytes it was parsed from.
func Serialize(n SyntaxNode) string {
	var b strings.Builder

	n.render(&b)

	return b.String()
}

// segmented holds children interleaved with the raw byte runs between
// them. The invariant len(gaps) == len(children)+1 makes serialization
// gaps[0] + child[0] + gaps[1] + ... + gaps[len(children)] and keeps
// every byte of the original source accounted for.
type segmented struct {
	pos      Position
	children []SyntaxNode
	gaps     []string
}

func (s *segmented) render(b *strings.Builder) {
	b.WriteString(s.gaps[0])

	for i, child := range s.children {
		child.render(b)
		b.WriteString(s.gaps[i+1])
	}
}

func (s *segmented) withChildren(children []SyntaxNode) (segmented, error) {
	if len(children) != len(s.children) {
		return segmented{}, errChildCount
	}

	return segmented{pos: s.pos, children: children, gaps: s.gaps}, nil
}

// Module is the root of a parsed file.
type Module struct {
	segmented
}

// Kind returns KindModule.
func (m *Module) Kind() Kind { return KindModule }

// Pos returns the node position.
func (m *Module) Pos() Position { return m.pos }

// Children returns the modeled statements of the module. Source bytes
// not covered by a child (comments, blank lines, unmodeled statements)
// live in the gaps between children and survive serialization.
func (m *Module) Children() []SyntaxNode { return m.children }

// WithChildren returns a copy of the module with the children replaced.
// The replacement must be position-for-position, same length.
func (m *Module) WithChildren(children []SyntaxNode) (*Module, error) {
	seg, err := m.withChildren(children)
	if err != nil {
		return nil, err
	}

	return &Module{segmented: seg}, nil
}

// Block is an interior container: a suite, an argument list or any
// other span that holds modeled nodes alongside raw text.
type Block struct {
	segmented
}

// Kind returns KindBlock.
func (bl *Block) Kind() Kind { return KindBlock }

// Pos returns the node position.
func (bl *Block) Pos() Position { return bl.pos }

// Children returns the modeled nodes inside the block.
func (bl *Block) Children() []SyntaxNode { return bl.children }

// WithChildren returns a copy of the block with the children replaced.
func (bl *Block) WithChildren(children []SyntaxNode) (*Block, error) {
	seg, err := bl.withChildren(children)
	if err != nil {
		return nil, err
	}

	return &Block{segmented: seg}, nil
}

// Raw is a leaf carrying an uninterpreted span of source, byte-exact.
type Raw struct {
	pos  Position
	Text string
}

// Kind returns KindRaw.
func (r *Raw) Kind() Kind { return KindRaw }

// Pos returns the node position.
func (r *Raw) Pos() Position { return r.pos }

func (r *Raw) render(b *strings.Builder) { b.WriteString(r.Text) }

// Name is a single identifier.
type Name struct {
	pos   Position
	Value string
}

// Kind returns KindName.
func (n *Name) Kind() Kind { return KindName }

// Pos returns the node position.
func (n *Name) Pos() Position { return n.pos }

func (n *Name) render(b *strings.Builder) { b.WriteString(n.Value) }

// AttributeChain is a dotted access a.b.c, left-folded: the outermost
// node holds the last component in Attr and everything before it in
// Value.
type AttributeChain struct {
	pos   Position
	Value SyntaxNode
	Attr  *Name
}

// Kind returns KindAttributeChain.
func (a *AttributeChain) Kind() Kind { return KindAttributeChain }

// Pos returns the node position.
func (a *AttributeChain) Pos() Position { return a.pos }

func (a *AttributeChain) render(b *strings.Builder) {
	a.Value.render(b)
	b.WriteByte('.')
	a.Attr.render(b)
}

// WithValue returns a copy with the receiver part replaced.
func (a *AttributeChain) WithValue(value SyntaxNode) *AttributeChain {
	return &AttributeChain{pos: a.pos, Value: value, Attr: a.Attr}
}

// WithAttr returns a copy with the final component replaced.
func (a *AttributeChain) WithAttr(attr *Name) *AttributeChain {
	return &AttributeChain{pos: a.pos, Value: a.Value, Attr: attr}
}

// ImportAlias is one entry of an import list: a name with an optional
// `as` binding. While src is set the entry serializes to its original
// bytes; WithName clears it.
type ImportAlias struct {
	pos  Position
	src  string
	Name SyntaxNode
	As   *Name
}

// Kind returns KindImportAlias.
func (ia *ImportAlias) Kind() Kind { return KindImportAlias }

// Pos returns the node position.
func (ia *ImportAlias) Pos() Position { return ia.pos }

func (ia *ImportAlias) render(b *strings.Builder) {
	if ia.src != "" {
		b.WriteString(ia.src)

		return
	}

	ia.Name.render(b)

	if ia.As != nil {
		b.WriteString(" as ")
		ia.As.render(b)
	}
}

// WithName returns a copy with the imported name replaced. The `as`
// binding, if any, is kept so downstream references stay valid.
func (ia *ImportAlias) WithName(name SyntaxNode) *ImportAlias {
	return &ImportAlias{pos: ia.pos, Name: name, As: ia.As}
}

// span is a byte range within an ImportFrom statement's source text.
type span struct {
	start int
	end   int
}

// ImportFrom is a `from X import a, b as c` statement. An untouched
// statement serializes to its original bytes. An edited one splices
// only the replaced spans back into those bytes, so parentheses,
// comments and layout inside the statement survive a rewrite. Only a
// statement built without source text renders canonically.
type ImportFrom struct {
	pos          Position
	src          string
	relative     string
	module       SyntaxNode
	moduleSpan   span
	moduleEdited bool
	names        []*ImportAlias
	nameSpans    []span
	namesEdited  bool
	wildcard     bool
}

// Kind returns KindImportFrom.
func (imp *ImportFrom) Kind() Kind { return KindImportFrom }

// Pos returns the node position.
func (imp *ImportFrom) Pos() Position { return imp.pos }

// Module returns the dotted module reference, nil for purely relative
// imports such as `from . import x`.
func (imp *ImportFrom) Module() SyntaxNode { return imp.module }

// Relative returns the leading dots of a relative import, empty for
// absolute imports.
func (imp *ImportFrom) Relative() string { return imp.relative }

// Names returns a copy of the imported-name entries.
func (imp *ImportFrom) Names() []*ImportAlias {
	names := make([]*ImportAlias, len(imp.names))
	copy(names, imp.names)

	return names
}

// Wildcard reports whether the statement imports `*`.
func (imp *ImportFrom) Wildcard() bool { return imp.wildcard }

// WithModule returns a copy with the module reference replaced.
func (imp *ImportFrom) WithModule(module SyntaxNode) *ImportFrom {
	out := *imp
	out.module = module
	out.moduleEdited = true

	return &out
}

// WithNames returns a copy with the imported-name entries replaced.
func (imp *ImportFrom) WithNames(names []*ImportAlias) *ImportFrom {
	copied := make([]*ImportAlias, len(names))
	copy(copied, names)

	out := *imp
	out.names = copied
	out.namesEdited = true

	return &out
}

func (imp *ImportFrom) render(b *strings.Builder) {
	switch {
	case imp.src == "" || len(imp.names) != len(imp.nameSpans):
		imp.renderCanonical(b)
	case !imp.moduleEdited && !imp.namesEdited:
		b.WriteString(imp.src)
	default:
		imp.renderSpliced(b)
	}
}

// renderSpliced writes the original statement bytes with only the
// edited spans replaced, keeping every other byte of the statement.
func (imp *ImportFrom) renderSpliced(b *strings.Builder) {
	cursor := 0

	if imp.moduleEdited && imp.module != nil {
		b.WriteString(imp.src[:imp.moduleSpan.start])
		b.WriteString(imp.relative)
		imp.module.render(b)
		cursor = imp.moduleSpan.end
	}

	for i, name := range imp.names {
		sp := imp.nameSpans[i]
		b.WriteString(imp.src[cursor:sp.start])
		name.render(b)
		cursor = sp.end
	}

	b.WriteString(imp.src[cursor:])
}

func (imp *ImportFrom) renderCanonical(b *strings.Builder) {
	b.WriteString("from ")
	b.WriteString(imp.relative)

	if imp.module != nil {
		imp.module.render(b)
	}

	b.WriteString(" import ")

	if imp.wildcard {
		b.WriteByte('*')

		return
	}

	for i, name := range imp.names {
		if i > 0 {
			b.WriteString(", ")
		}

		name.render(b)
	}
}

// Call is a function or constructor invocation. Fn is the callee
// expression, Args the parenthesized argument span.
type Call struct {
	pos  Position
	src  string
	fn   SyntaxNode
	args SyntaxNode
}

// Kind returns KindCall.
func (c *Call) Kind() Kind { return KindCall }

// Pos returns the node position.
func (c *Call) Pos() Position { return c.pos }

// Func returns the callee expression.
func (c *Call) Func() SyntaxNode { return c.fn }

// Args returns the argument list span, parentheses included.
func (c *Call) Args() SyntaxNode { return c.args }

// WithFunc returns a copy with the callee replaced.
func (c *Call) WithFunc(fn SyntaxNode) *Call {
	return &Call{pos: c.pos, fn: fn, args: c.args}
}

// WithArgs returns a copy with the argument span replaced.
func (c *Call) WithArgs(args SyntaxNode) *Call {
	return &Call{pos: c.pos, fn: c.fn, args: args}
}

func (c *Call) render(b *strings.Builder) {
	if c.src != "" {
		b.WriteString(c.src)

		return
	}

	c.fn.render(b)
	c.args.render(b)
}

// Decorator is an `@expr` line above a definition.
type Decorator struct {
	pos  Position
	src  string
	expr SyntaxNode
}

// Kind returns KindDecorator.
func (d *Decorator) Kind() Kind { return KindDecorator }

// Pos returns the node position.
func (d *Decorator) Pos() Position { return d.pos }

// Expr returns the decorated expression after the `@`.
func (d *Decorator) Expr() SyntaxNode { return d.expr }

// WithExpr returns a copy with the expression replaced.
func (d *Decorator) WithExpr(expr SyntaxNode) *Decorator {
	return &Decorator{pos: d.pos, expr: expr}
}

func (d *Decorator) render(b *strings.Builder) {
	if d.src != "" {
		b.WriteString(d.src)

		return
	}

	b.WriteByte('@')
	d.expr.render(b)
}

// DottedComponents flattens a Name or AttributeChain into its dotted
// components. The second result is false when the node is any other
// shape (a call, a subscript wrapped in Raw, and so on).
func DottedComponents(n SyntaxNode) ([]string, bool) {
	switch typed := n.(type) {
	case *Name:
		return []string{typed.Value}, true
	case *AttributeChain:
		prefix, ok := DottedComponents(typed.Value)
		if !ok {
			return nil, false
		}

		return append(prefix, typed.Attr.Value), true
	default:
		return nil, false
	}
}

// DottedNode builds a Name or AttributeChain from a dotted path such
// as "pydolphinscheduler.tasks.shell".
func DottedNode(path string) SyntaxNode {
	parts := strings.Split(path, ".")

	var node SyntaxNode = &Name{Value: parts[0]}

	for _, part := range parts[1:] {
		node = &AttributeChain{Value: node, Attr: &Name{Value: part}}
	}

	return node
}
