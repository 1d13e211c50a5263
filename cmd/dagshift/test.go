package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/dagshift/pkg/converter"
)

func testCmd() *cobra.Command {
	var (
		ruleFiles []string
		showDiff  bool
	)

	cmd := &cobra.Command{
		Use:   "test <file.py|source|->",
		Short: "Convert a single program and print the result",
		Long: `Convert one Python program and print the converted source to stdout
without writing any file. Useful for checking what a rule set does.
The argument is read as a file when it exists on disk, as literal
source text otherwise; - reads from standard input.

Examples:
  dagshift test dag.py
  dagshift test "from airflow import DAG"
  dagshift test - < dag.py
  dagshift test --diff dag.py
  dagshift test --rules extra.yaml dag.py
`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runTest(args[0], ruleFiles, showDiff)
		},
	}

	cmd.Flags().StringArrayVarP(&ruleFiles, "rules", "r", nil, "additional rule files")
	cmd.Flags().BoolVarP(&showDiff, "diff", "d", false, "print a diff instead of the converted source")

	return cmd
}

func runTest(inputPath string, ruleFiles []string, showDiff bool) error {
	source, err := readProgram(inputPath)
	if err != nil {
		return err
	}

	runner, err := converter.NewRunner(converter.Options{CustomRules: ruleFiles})
	if err != nil {
		return err
	}

	converted, err := runner.ConvertString(source)
	if err != nil {
		return err
	}

	if showDiff {
		diffs := converter.Diff(source, converted)
		fmt.Fprint(os.Stdout, converter.FormatDiff(diffs, true))

		return nil
	}

	fmt.Fprint(os.Stdout, converted)

	return nil
}

func readProgram(arg string) (string, error) {
	if arg == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}

		return string(data), nil
	}

	if _, err := os.Stat(arg); err == nil {
		data, readErr := os.ReadFile(arg)
		if readErr != nil {
			return "", fmt.Errorf("reading %s: %w", arg, readErr)
		}

		return string(data), nil
	}

	// Not a file on disk: the argument is the program itself.
	return arg, nil
}
