package cst_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/dagshift/pkg/cst"
)

func TestRewrite_IdentityKeepsTree(t *testing.T) {
	t.Parallel()

	tree, err := cst.Parse(tutorialDAG)
	require.NoError(t, err)

	out, err := cst.Rewrite(tree, func(n cst.SyntaxNode) (cst.SyntaxNode, error) {
		return n, nil
	})
	require.NoError(t, err)

	assert.Same(t, cst.SyntaxNode(tree), out)
	assert.Equal(t, tutorialDAG, cst.Serialize(out))
}

func TestRewrite_ReplaceImportedName(t *testing.T) {
	t.Parallel()

	tree, err := cst.Parse("from a import b\nx = 1  # untouched\n")
	require.NoError(t, err)

	out, err := cst.Rewrite(tree, func(n cst.SyntaxNode) (cst.SyntaxNode, error) {
		imp, ok := n.(*cst.ImportFrom)
		if !ok {
			return n, nil
		}

		names := imp.Names()
		for i, alias := range names {
			if name, isName := alias.Name.(*cst.Name); isName && name.Value == "b" {
				names[i] = alias.WithName(&cst.Name{Value: "c"})
			}
		}

		return imp.WithNames(names), nil
	})
	require.NoError(t, err)

	assert.Equal(t, "from a import c\nx = 1  # untouched\n", cst.Serialize(out))
}

func TestRewrite_ReplaceModuleReference(t *testing.T) {
	t.Parallel()

	tree, err := cst.Parse("from airflow.operators.bash import BashOperator\n")
	require.NoError(t, err)

	out, err := cst.Rewrite(tree, func(n cst.SyntaxNode) (cst.SyntaxNode, error) {
		imp, ok := n.(*cst.ImportFrom)
		if !ok {
			return n, nil
		}

		return imp.WithModule(cst.DottedNode("pydolphinscheduler.tasks.shell")), nil
	})
	require.NoError(t, err)

	assert.Equal(t, "from pydolphinscheduler.tasks.shell import BashOperator\n", cst.Serialize(out))
}

func TestRewrite_ParenthesizedImportKeepsTrivia(t *testing.T) {
	t.Parallel()

	source := "from airflow import (\n    DAG,  # the dag class\n    Variable,\n)\n"

	tree, err := cst.Parse(source)
	require.NoError(t, err)

	out, err := cst.Rewrite(tree, func(n cst.SyntaxNode) (cst.SyntaxNode, error) {
		imp, ok := n.(*cst.ImportFrom)
		if !ok {
			return n, nil
		}

		names := imp.Names()
		for i, alias := range names {
			if name, isName := alias.Name.(*cst.Name); isName && name.Value == "DAG" {
				names[i] = alias.WithName(&cst.Name{Value: "ProcessDefinition"})
			}
		}

		edited := imp.WithModule(cst.DottedNode("pydolphinscheduler.core.process_definition"))

		return edited.WithNames(names), nil
	})
	require.NoError(t, err)

	// Only the module reference and the matched entry change; the
	// parentheses, the comment and the untouched entry keep their bytes.
	want := "from pydolphinscheduler.core.process_definition import (\n    ProcessDefinition,  # the dag class\n    Variable,\n)\n"
	assert.Equal(t, want, cst.Serialize(out))
}

func TestRewrite_ModuleEditKeepsNameBytes(t *testing.T) {
	t.Parallel()

	source := "from airflow.operators.bash import BashOperator as bash_op\n"

	tree, err := cst.Parse(source)
	require.NoError(t, err)

	out, err := cst.Rewrite(tree, func(n cst.SyntaxNode) (cst.SyntaxNode, error) {
		imp, ok := n.(*cst.ImportFrom)
		if !ok {
			return n, nil
		}

		return imp.WithModule(cst.DottedNode("pydolphinscheduler.tasks.shell")), nil
	})
	require.NoError(t, err)

	assert.Equal(t, "from pydolphinscheduler.tasks.shell import BashOperator as bash_op\n", cst.Serialize(out))
}

func TestRewrite_ErrorPropagates(t *testing.T) {
	t.Parallel()

	tree, err := cst.Parse("from a import b\n")
	require.NoError(t, err)

	boom := errors.New("boom")

	_, err = cst.Rewrite(tree, func(n cst.SyntaxNode) (cst.SyntaxNode, error) {
		if _, ok := n.(*cst.ImportFrom); ok {
			return nil, boom
		}

		return n, nil
	})
	require.ErrorIs(t, err, boom)
}

func TestRewrite_AliasBindingNotVisited(t *testing.T) {
	t.Parallel()

	tree, err := cst.Parse("from a import b as keepme\n")
	require.NoError(t, err)

	out, err := cst.Rewrite(tree, func(n cst.SyntaxNode) (cst.SyntaxNode, error) {
		if name, ok := n.(*cst.Name); ok && name.Value == "keepme" {
			return &cst.Name{Value: "changed"}, nil
		}

		return n, nil
	})
	require.NoError(t, err)

	// The `as` binding is a fresh local identifier, not a rewrite target.
	assert.Equal(t, "from a import b as keepme\n", cst.Serialize(out))
}
