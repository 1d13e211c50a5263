package cst

import (
	"errors"
)

// RewriteFunc maps a node to its replacement. Returning the input
// unchanged leaves the tree, and its serialization, untouched.
type RewriteFunc func(SyntaxNode) (SyntaxNode, error)

var (
	errAliasVariant = errors.New("import name entry must remain an import_alias")
	errAttrVariant  = errors.New("attribute component must remain a name")
)

// Rewrite applies fn in pre-order: the node itself first, then the
// children of whatever fn returned. Subtrees with no replacements are
// returned as-is, so untouched statements keep their original bytes.
func Rewrite(node SyntaxNode, fn RewriteFunc) (SyntaxNode, error) {
	replaced, err := fn(node)
	if err != nil {
		return nil, err
	}

	switch typed := replaced.(type) {
	case *Module:
		children, changed, err := rewriteChildren(typed.children, fn)
		if err != nil {
			return nil, err
		}

		if !changed {
			return typed, nil
		}

		return typed.WithChildren(children)
	case *Block:
		children, changed, err := rewriteChildren(typed.children, fn)
		if err != nil {
			return nil, err
		}

		if !changed {
			return typed, nil
		}

		return typed.WithChildren(children)
	case *ImportFrom:
		return rewriteImportFrom(typed, fn)
	case *AttributeChain:
		return rewriteAttributeChain(typed, fn)
	case *Call:
		return rewriteCall(typed, fn)
	case *Decorator:
		return rewriteDecorator(typed, fn)
	case *ImportAlias:
		name, err := Rewrite(typed.Name, fn)
		if err != nil {
			return nil, err
		}

		if name == typed.Name {
			return typed, nil
		}

		return typed.WithName(name), nil
	default:
		// Name and Raw are leaves.
		return replaced, nil
	}
}

func rewriteChildren(children []SyntaxNode, fn RewriteFunc) ([]SyntaxNode, bool, error) {
	replaced := make([]SyntaxNode, len(children))
	changed := false

	for i, child := range children {
		out, err := Rewrite(child, fn)
		if err != nil {
			return nil, false, err
		}

		if out != child {
			changed = true
		}

		replaced[i] = out
	}

	return replaced, changed, nil
}

// rewriteImportFrom descends into the module reference and the
// imported names. The `as` binding is a new local identifier, not a
// reference into the source module, so it is not visited.
func rewriteImportFrom(imp *ImportFrom, fn RewriteFunc) (SyntaxNode, error) {
	out := imp

	if imp.module != nil {
		module, err := Rewrite(imp.module, fn)
		if err != nil {
			return nil, err
		}

		if module != imp.module {
			out = out.WithModule(module)
		}
	}

	names := imp.names
	namesChanged := false
	replaced := make([]*ImportAlias, len(names))

	for i, alias := range names {
		rewritten, err := Rewrite(alias, fn)
		if err != nil {
			return nil, err
		}

		typed, ok := rewritten.(*ImportAlias)
		if !ok {
			return nil, errAliasVariant
		}

		if typed != alias {
			namesChanged = true
		}

		replaced[i] = typed
	}

	if namesChanged {
		out = out.WithNames(replaced)
	}

	return out, nil
}

func rewriteAttributeChain(chain *AttributeChain, fn RewriteFunc) (SyntaxNode, error) {
	out := chain

	value, err := Rewrite(chain.Value, fn)
	if err != nil {
		return nil, err
	}

	if value != chain.Value {
		out = out.WithValue(value)
	}

	attr, err := Rewrite(chain.Attr, fn)
	if err != nil {
		return nil, err
	}

	typed, ok := attr.(*Name)
	if !ok {
		return nil, errAttrVariant
	}

	if typed != chain.Attr {
		out = out.WithAttr(typed)
	}

	return out, nil
}

func rewriteCall(call *Call, fn RewriteFunc) (SyntaxNode, error) {
	out := call

	callee, err := Rewrite(call.fn, fn)
	if err != nil {
		return nil, err
	}

	if callee != call.fn {
		out = out.WithFunc(callee)
	}

	args, err := Rewrite(call.args, fn)
	if err != nil {
		return nil, err
	}

	if args != call.args {
		out = out.WithArgs(args)
	}

	return out, nil
}

func rewriteDecorator(dec *Decorator, fn RewriteFunc) (SyntaxNode, error) {
	if dec.expr == nil {
		return dec, nil
	}

	expr, err := Rewrite(dec.expr, fn)
	if err != nil {
		return nil, err
	}

	if expr == dec.expr {
		return dec, nil
	}

	return dec.WithExpr(expr), nil
}
