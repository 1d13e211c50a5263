package converter_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/dagshift/pkg/converter"
)

const (
	goodDAG = "from airflow import DAG\n"
	wantDAG = "from pydolphinscheduler.core.process_definition import ProcessDefinition\n"
	badDAG  = "def broken(:\n"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestConvertFile_WritesDerivedName(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "dag.py", goodDAG)

	runner, err := converter.NewRunner(converter.Options{})
	require.NoError(t, err)

	result := runner.ConvertFile(path)
	require.NoError(t, result.Err)
	assert.Equal(t, filepath.Join(dir, "dag-dagshift.py"), result.Output)
	assert.True(t, result.Changed)

	// Source untouched, output converted.
	source, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, goodDAG, string(source))

	output, err := os.ReadFile(result.Output)
	require.NoError(t, err)
	assert.Equal(t, wantDAG, string(output))
}

func TestConvertFile_InPlace(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "dag.py", goodDAG)
	require.NoError(t, os.Chmod(path, 0o600))

	runner, err := converter.NewRunner(converter.Options{InPlace: true})
	require.NoError(t, err)

	result := runner.ConvertFile(path)
	require.NoError(t, result.Err)
	assert.Equal(t, path, result.Output)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, wantDAG, string(content))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestConvertFiles_BatchIsolation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.py", goodDAG)
	writeFile(t, dir, "b.py", badDAG)
	writeFile(t, dir, "c.py", goodDAG)

	runner, err := converter.NewRunner(converter.Options{})
	require.NoError(t, err)

	results, err := runner.ConvertFiles([]string{dir})
	require.ErrorIs(t, err, converter.ErrSomeFilesFailed)
	require.Len(t, results, 3)

	var failed, succeeded int

	for _, result := range results {
		if result.Err != nil {
			failed++
			assert.Equal(t, filepath.Join(dir, "b.py"), result.Path)

			continue
		}

		succeeded++

		output, readErr := os.ReadFile(result.Output)
		require.NoError(t, readErr)
		assert.Equal(t, wantDAG, string(output))
	}

	assert.Equal(t, 1, failed)
	assert.Equal(t, 2, succeeded)

	// The failed unit produced no output file.
	_, statErr := os.Stat(filepath.Join(dir, "b-dagshift.py"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestConvertFiles_MissingPathIsConfigError(t *testing.T) {
	t.Parallel()

	runner, err := converter.NewRunner(converter.Options{})
	require.NoError(t, err)

	_, err = runner.ConvertFiles([]string{filepath.Join(t.TempDir(), "absent")})
	require.Error(t, err)

	var cfgErr *converter.ConfigError

	require.ErrorAs(t, err, &cfgErr)
	assert.ErrorIs(t, err, converter.ErrPathNotExists)
}

func TestDiscover_FilterAndHiddenDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.py", goodDAG)
	writeFile(t, dir, "notes.txt", "not python\n")
	writeFile(t, dir, "nested/d.py", goodDAG)
	writeFile(t, dir, ".git/c.py", goodDAG)

	runner, err := converter.NewRunner(converter.Options{})
	require.NoError(t, err)

	files, err := runner.Discover([]string{dir})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "a.py"),
		filepath.Join(dir, "nested", "d.py"),
	}, files)
}

func TestDiscover_CustomFilter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "tutorial_dag.py", goodDAG)
	writeFile(t, dir, "helpers.py", "x = 1\n")

	runner, err := converter.NewRunner(converter.Options{Filter: "**/*_dag.py"})
	require.NoError(t, err)

	files, err := runner.Discover([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "tutorial_dag.py")}, files)
}

func TestDiscover_ExplicitFileSkipsFilter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "whatever.py", goodDAG)

	runner, err := converter.NewRunner(converter.Options{Filter: "**/*_dag.py"})
	require.NoError(t, err)

	files, err := runner.Discover([]string{path})
	require.NoError(t, err)
	assert.Equal(t, []string{path}, files)
}

func TestDiscover_MaxFileSizeGuard(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "small.py", goodDAG)
	writeFile(t, dir, "big.py", goodDAG+string(make([]byte, 4096)))

	runner, err := converter.NewRunner(converter.Options{MaxFileSize: "1 KB"})
	require.NoError(t, err)

	files, err := runner.Discover([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "small.py")}, files)
}

func TestConvertFile_ExplicitOversizedFileFails(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "big.py", goodDAG+string(make([]byte, 4096)))

	runner, err := converter.NewRunner(converter.Options{MaxFileSize: "1 KB"})
	require.NoError(t, err)

	result := runner.ConvertFile(path)
	require.ErrorIs(t, result.Err, converter.ErrFileTooLarge)

	// No output is produced for the rejected unit.
	_, statErr := os.Stat(path[:len(path)-3] + "-dagshift.py")
	assert.True(t, os.IsNotExist(statErr))
}

func TestConvertFiles_ParallelMatchesSequential(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"a.py", "b.py", "c.py", "d.py", "e.py"} {
		writeFile(t, dir, name, goodDAG)
	}

	sequential, err := converter.NewRunner(converter.Options{Workers: 1})
	require.NoError(t, err)

	seqResults, err := sequential.ConvertFiles([]string{dir})
	require.NoError(t, err)

	parallelDir := t.TempDir()
	for _, name := range []string{"a.py", "b.py", "c.py", "d.py", "e.py"} {
		writeFile(t, parallelDir, name, goodDAG)
	}

	parallel, err := converter.NewRunner(converter.Options{Workers: 4})
	require.NoError(t, err)

	parResults, err := parallel.ConvertFiles([]string{parallelDir})
	require.NoError(t, err)
	require.Len(t, parResults, len(seqResults))

	for i := range parResults {
		require.NoError(t, parResults[i].Err)

		output, readErr := os.ReadFile(parResults[i].Output)
		require.NoError(t, readErr)
		assert.Equal(t, wantDAG, string(output))
	}
}

func TestNewRunner_MissingRuleFile(t *testing.T) {
	t.Parallel()

	_, err := converter.NewRunner(converter.Options{
		CustomRules: []string{filepath.Join(t.TempDir(), "absent.yaml")},
	})
	require.Error(t, err)

	var cfgErr *converter.ConfigError

	require.ErrorAs(t, err, &cfgErr)
}

func TestNewRunner_CustomRules(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "extra.yaml", `
name: extra
rules:
  - name: legacy-module
    node: import
    match:
      module:
        - "legacy.flows"
    rewrite:
      module: pydolphinscheduler.core.workflow
`)

	runner, err := converter.NewRunner(converter.Options{CustomRules: []string{path}})
	require.NoError(t, err)

	got, err := runner.ConvertString("from legacy.flows import Flow\n")
	require.NoError(t, err)
	assert.Equal(t, "from pydolphinscheduler.core.workflow import Flow\n", got)
}

func TestNewRunner_InvalidMaxFileSize(t *testing.T) {
	t.Parallel()

	_, err := converter.NewRunner(converter.Options{MaxFileSize: "a lot"})
	require.Error(t, err)

	var cfgErr *converter.ConfigError

	require.ErrorAs(t, err, &cfgErr)
}
