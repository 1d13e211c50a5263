package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/dagshift/pkg/converter"
	"github.com/Sumatoshi-tech/dagshift/pkg/rules"
)

func ruleCmd() *cobra.Command {
	var show bool

	cmd := &cobra.Command{
		Use:   "rule",
		Short: "Inspect the rule catalog",
		Long: `Inspect the built-in rule files and the compiled rule catalog.

Examples:
  dagshift rule --show
  dagshift rule --show --rules extra.yaml
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !show {
				return cmd.Help()
			}

			ruleFiles, err := cmd.Flags().GetStringArray("rules")
			if err != nil {
				return fmt.Errorf("reading rules flag: %w", err)
			}

			return runRuleShow(ruleFiles)
		},
	}

	cmd.Flags().BoolVarP(&show, "show", "s", false, "list rule files and compiled rules")
	cmd.Flags().StringArrayP("rules", "r", nil, "additional rule files")

	return cmd
}

func runRuleShow(ruleFiles []string) error {
	fmt.Fprintln(os.Stdout, "Built-in rule files:")

	for _, name := range rules.BuiltinRuleFiles() {
		fmt.Fprintf(os.Stdout, "  %s\n", name)
	}

	runner, err := converter.NewRunner(converter.Options{CustomRules: ruleFiles})
	if err != nil {
		return err
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Identity", "Node", "Source"})

	catalog := runner.Catalog()
	for _, rule := range catalog.Rules() {
		tbl.AppendRow(table.Row{rule.Identity(), rule.Kind.String(), rule.Source})
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d rules", catalog.Len())})

	fmt.Fprintf(os.Stdout, "\n%s\n", tbl.Render())

	return nil
}
