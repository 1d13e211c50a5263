package cst

import (
	"context"
	"fmt"
	"sync"

	forest "github.com/alexaandru/go-sitter-forest"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// nearContextLimit bounds the snippet attached to a SyntaxError.
const nearContextLimit = 20

//nolint:gochecknoglobals // process-wide grammar and parser reuse
var (
	pythonOnce sync.Once
	pythonLang *sitter.Language

	tsParserPool = sync.Pool{
		New: func() any {
			lang, err := pythonLanguage()
			if err != nil {
				return nil
			}

			tsParser := sitter.NewParser()
			tsParser.SetLanguage(lang)

			return tsParser
		},
	}
)

// pythonLanguage loads the embedded Python grammar once. GetLanguage
// panics for unknown names, hence the recover guard.
func pythonLanguage() (*sitter.Language, error) {
	pythonOnce.Do(func() {
		func() {
			defer func() {
				_ = recover() //nolint:errcheck // recover() returns any, not error
			}()

			pythonLang = forest.GetLanguage("python")
		}()
	})

	if pythonLang == nil {
		return nil, ErrLanguageUnavailable
	}

	return pythonLang, nil
}

// Parse builds a Module from Python source. Input that the grammar
// cannot parse yields a *SyntaxError locating the first bad node.
func Parse(source string) (*Module, error) {
	if _, err := pythonLanguage(); err != nil {
		return nil, err
	}

	tsParser, ok := tsParserPool.Get().(*sitter.Parser)
	if !ok || tsParser == nil {
		return nil, errPoolType
	}

	defer tsParserPool.Put(tsParser)

	tree, err := tsParser.ParseString(context.Background(), nil, []byte(source))
	if err != nil {
		return nil, fmt.Errorf("parsing python source: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return nil, errNoRootNode
	}

	bld := &treeBuilder{src: source}

	if root.HasError() {
		return nil, bld.syntaxError(root)
	}

	return bld.buildModule(root), nil
}

// treeBuilder converts tree-sitter nodes into owned CST nodes. All
// text is sliced from src, so nodes stay valid after tree.Close.
type treeBuilder struct {
	src string
}

func (bld *treeBuilder) text(n sitter.Node) string {
	return bld.src[n.StartByte():n.EndByte()]
}

func (bld *treeBuilder) position(n sitter.Node) Position {
	point := n.StartPoint()

	return Position{
		Line:   int(point.Row) + 1,
		Column: int(point.Column) + 1,
		Offset: int(n.StartByte()),
	}
}

// syntaxError locates the first ERROR or missing node under root.
func (bld *treeBuilder) syntaxError(root sitter.Node) *SyntaxError {
	bad, found := firstErrorNode(root)
	if !found {
		bad = root
	}

	near := bld.text(bad)
	if len(near) > nearContextLimit {
		near = near[:nearContextLimit]
	}

	return &SyntaxError{Pos: bld.position(bad), Near: near}
}

func firstErrorNode(n sitter.Node) (sitter.Node, bool) {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n, true
	}

	for i := range n.ChildCount() {
		child := n.Child(i)
		if !child.HasError() && !child.IsMissing() {
			continue
		}

		if bad, found := firstErrorNode(child); found {
			return bad, true
		}
	}

	return sitter.Node{}, false
}

// modeled node types get a typed CST variant; everything else is either
// a container (when it holds modeled descendants) or raw text.
func isModeled(nodeType string) bool {
	switch nodeType {
	case "import_from_statement", "decorator", "call":
		return true
	default:
		return false
	}
}

func containsModeled(n sitter.Node) bool {
	for i := range n.NamedChildCount() {
		child := n.NamedChild(i)
		if isModeled(child.Type()) || containsModeled(child) {
			return true
		}
	}

	return false
}

func (bld *treeBuilder) buildModule(root sitter.Node) *Module {
	// The root segment spans the whole source, not just the root node:
	// leading and trailing bytes outside the grammar's root span must
	// survive serialization too.
	seg := bld.buildSegmented(root, 0, len(bld.src))

	return &Module{segmented: seg}
}

func (bld *treeBuilder) buildBlock(n sitter.Node) *Block {
	seg := bld.buildSegmented(n, int(n.StartByte()), int(n.EndByte()))

	return &Block{segmented: seg}
}

// buildSegmented collects the modeled descendants directly under n and
// files every other byte of [start, end) into the gaps around them.
func (bld *treeBuilder) buildSegmented(n sitter.Node, start, end int) segmented {
	var (
		children []SyntaxNode
		gaps     []string
	)

	cursor := start

	for i := range n.NamedChildCount() {
		child := n.NamedChild(i)

		var built SyntaxNode

		switch {
		case isModeled(child.Type()):
			built = bld.build(child)
		case containsModeled(child):
			built = bld.buildBlock(child)
		default:
			continue
		}

		gaps = append(gaps, bld.src[cursor:child.StartByte()])
		children = append(children, built)
		cursor = int(child.EndByte())
	}

	gaps = append(gaps, bld.src[cursor:end])

	return segmented{pos: bld.position(n), children: children, gaps: gaps}
}

func (bld *treeBuilder) build(n sitter.Node) SyntaxNode {
	switch n.Type() {
	case "import_from_statement":
		return bld.buildImportFrom(n)
	case "decorator":
		return bld.buildDecorator(n)
	case "call":
		return bld.buildCall(n)
	case "identifier":
		return &Name{pos: bld.position(n), Value: bld.text(n)}
	case "attribute":
		return bld.buildAttribute(n)
	case "dotted_name":
		return bld.buildDotted(n)
	default:
		if containsModeled(n) {
			return bld.buildBlock(n)
		}

		return &Raw{pos: bld.position(n), Text: bld.text(n)}
	}
}

func (bld *treeBuilder) buildImportFrom(n sitter.Node) *ImportFrom {
	imp := &ImportFrom{pos: bld.position(n), src: bld.text(n)}

	stmtStart := int(n.StartByte())

	moduleNode := n.ChildByFieldName("module_name")
	moduleEnd := uint(0)

	if !moduleNode.IsNull() {
		moduleEnd = uint(moduleNode.EndByte())
		imp.moduleSpan = spanWithin(moduleNode, stmtStart)

		switch moduleNode.Type() {
		case "relative_import":
			imp.relative, imp.module = bld.buildRelative(moduleNode)
		default:
			imp.module = bld.buildDotted(moduleNode)
		}
	}

	for i := range n.NamedChildCount() {
		child := n.NamedChild(i)
		if uint(child.StartByte()) < moduleEnd {
			continue
		}

		switch child.Type() {
		case "dotted_name":
			imp.names = append(imp.names, &ImportAlias{
				pos:  bld.position(child),
				src:  bld.text(child),
				Name: bld.buildDotted(child),
			})
			imp.nameSpans = append(imp.nameSpans, spanWithin(child, stmtStart))
		case "aliased_import":
			imp.names = append(imp.names, bld.buildAliasedImport(child))
			imp.nameSpans = append(imp.nameSpans, spanWithin(child, stmtStart))
		case "wildcard_import":
			imp.wildcard = true
		}
	}

	return imp
}

// spanWithin is the byte range of a node relative to an enclosing
// statement start.
func spanWithin(n sitter.Node, base int) span {
	return span{start: int(n.StartByte()) - base, end: int(n.EndByte()) - base}
}

// buildRelative splits `from ..pkg import x` into the dot prefix and
// the optional dotted module after it.
func (bld *treeBuilder) buildRelative(n sitter.Node) (string, SyntaxNode) {
	for i := range n.NamedChildCount() {
		child := n.NamedChild(i)
		if child.Type() != "dotted_name" {
			continue
		}

		dots := bld.src[n.StartByte():child.StartByte()]

		return dots, bld.buildDotted(child)
	}

	return bld.text(n), nil
}

func (bld *treeBuilder) buildAliasedImport(n sitter.Node) *ImportAlias {
	alias := &ImportAlias{pos: bld.position(n), src: bld.text(n)}

	nameNode := n.ChildByFieldName("name")
	if !nameNode.IsNull() {
		alias.Name = bld.buildDotted(nameNode)
	}

	asNode := n.ChildByFieldName("alias")
	if !asNode.IsNull() {
		alias.As = &Name{pos: bld.position(asNode), Value: bld.text(asNode)}
	}

	return alias
}

// buildDotted folds a dotted_name's identifiers into a Name or an
// AttributeChain, left to right.
func (bld *treeBuilder) buildDotted(n sitter.Node) SyntaxNode {
	if n.Type() == "identifier" {
		return &Name{pos: bld.position(n), Value: bld.text(n)}
	}

	var node SyntaxNode

	for i := range n.NamedChildCount() {
		child := n.NamedChild(i)
		name := &Name{pos: bld.position(child), Value: bld.text(child)}

		if node == nil {
			node = name

			continue
		}

		node = &AttributeChain{pos: bld.position(n), Value: node, Attr: name}
	}

	if node == nil {
		return &Raw{pos: bld.position(n), Text: bld.text(n)}
	}

	return node
}

func (bld *treeBuilder) buildAttribute(n sitter.Node) SyntaxNode {
	object := n.ChildByFieldName("object")
	attr := n.ChildByFieldName("attribute")

	if object.IsNull() || attr.IsNull() {
		return &Raw{pos: bld.position(n), Text: bld.text(n)}
	}

	return &AttributeChain{
		pos:   bld.position(n),
		Value: bld.build(object),
		Attr:  &Name{pos: bld.position(attr), Value: bld.text(attr)},
	}
}

func (bld *treeBuilder) buildCall(n sitter.Node) SyntaxNode {
	fn := n.ChildByFieldName("function")
	args := n.ChildByFieldName("arguments")

	if fn.IsNull() || args.IsNull() {
		return &Raw{pos: bld.position(n), Text: bld.text(n)}
	}

	call := &Call{pos: bld.position(n), src: bld.text(n), fn: bld.build(fn)}

	if containsModeled(args) {
		call.args = bld.buildBlock(args)
	} else {
		call.args = &Raw{pos: bld.position(args), Text: bld.text(args)}
	}

	return call
}

func (bld *treeBuilder) buildDecorator(n sitter.Node) SyntaxNode {
	dec := &Decorator{pos: bld.position(n), src: bld.text(n)}

	if n.NamedChildCount() == 0 {
		return &Raw{pos: bld.position(n), Text: bld.text(n)}
	}

	dec.expr = bld.build(n.NamedChild(0))

	return dec
}
