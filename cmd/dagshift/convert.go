package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/dagshift/internal/config"
	"github.com/Sumatoshi-tech/dagshift/pkg/converter"
)

func convertCmd() *cobra.Command {
	var (
		ruleFiles []string
		filter    string
		inPlace   bool
		workers   int
	)

	cmd := &cobra.Command{
		Use:   "convert <path>...",
		Short: "Convert files and directories of Airflow DAG definitions",
		Long: `Convert Python files to the pydolphinscheduler API. Arguments may be
files or directories; directories are walked recursively and filtered
by the glob pattern. Converted output is written next to each source
as <name>-dagshift.py, or over the source with --inplace.

Examples:
  dagshift convert dags/
  dagshift convert --inplace dag_a.py dag_b.py
  dagshift convert --filter "**/*_dag.py" --workers 4 dags/
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := convertOptions(cmd, ruleFiles, filter, inPlace, workers)
			if err != nil {
				return err
			}

			return runConvert(args, opts)
		},
	}

	cmd.Flags().StringArrayVarP(&ruleFiles, "rules", "r", nil, "additional rule files")
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "glob filter for files under directory arguments")
	cmd.Flags().BoolVarP(&inPlace, "inplace", "i", false, "overwrite sources instead of writing new files")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "number of concurrent conversions")

	return cmd
}

// convertOptions merges the config file with the command line; a flag
// set explicitly wins over its config key.
func convertOptions(cmd *cobra.Command, ruleFiles []string, filter string, inPlace bool, workers int) (converter.Options, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return converter.Options{}, err
	}

	configureLogging(cfg.Logging)

	opts := converter.Options{
		CustomRules: cfg.Convert.Rules,
		Filter:      cfg.Convert.Filter,
		InPlace:     cfg.Convert.InPlace,
		Workers:     cfg.Convert.Workers,
		MaxFileSize: cfg.Convert.MaxFileSize,
	}

	if len(ruleFiles) > 0 {
		opts.CustomRules = append(opts.CustomRules, ruleFiles...)
	}

	if cmd.Flags().Changed("filter") {
		opts.Filter = filter
	}

	if cmd.Flags().Changed("inplace") {
		opts.InPlace = inPlace
	}

	if cmd.Flags().Changed("workers") {
		opts.Workers = workers
	}

	return opts, nil
}

func runConvert(paths []string, opts converter.Options) error {
	runner, err := converter.NewRunner(opts)
	if err != nil {
		return err
	}

	started := time.Now()

	results, err := runner.ConvertFiles(paths)
	if err != nil && len(results) == 0 {
		return err
	}

	printResults(results)
	printSummary(results, time.Since(started))

	return err
}

func printResults(results []converter.Result) {
	for _, result := range results {
		switch {
		case result.Err != nil:
			color.New(color.FgRed).Fprintf(os.Stdout, "FAIL %s: %v\n", result.Path, result.Err)
		case result.Changed:
			color.New(color.FgGreen).Fprintf(os.Stdout, "OK   %s -> %s\n", result.Path, result.Output)
		default:
			fmt.Fprintf(os.Stdout, "SKIP %s (no rule matched)\n", result.Path)
		}
	}
}

func printSummary(results []converter.Result, elapsed time.Duration) {
	converted, unchanged, failed, bytes := summarize(results)

	fmt.Fprintf(os.Stdout, "\n%d converted, %d unchanged, %d failed, %s in %s\n",
		converted, unchanged, failed, humanize.Bytes(bytes), elapsed.Round(time.Millisecond))
}

// summarize tallies batch results: converted counts only units whose
// content changed, unchanged the units no rule touched.
func summarize(results []converter.Result) (converted, unchanged, failed int, bytes uint64) {
	for _, result := range results {
		switch {
		case result.Err != nil:
			failed++
		case result.Changed:
			converted++
			bytes += uint64(result.Size)
		default:
			unchanged++
			bytes += uint64(result.Size)
		}
	}

	return converted, unchanged, failed, bytes
}
