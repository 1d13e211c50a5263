package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadProgram_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dag.py")
	require.NoError(t, os.WriteFile(path, []byte("from airflow import DAG\n"), 0o644))

	source, err := readProgram(path)
	require.NoError(t, err)
	assert.Equal(t, "from airflow import DAG\n", source)
}

func TestReadProgram_LiteralSource(t *testing.T) {
	t.Parallel()

	source, err := readProgram("from airflow import DAG")
	require.NoError(t, err)
	assert.Equal(t, "from airflow import DAG", source)
}
