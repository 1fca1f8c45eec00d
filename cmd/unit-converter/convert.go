package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/unit-converter/internal/convert"
	"github.com/pdiddy/unit-converter/internal/pdfdoc"
	"github.com/pdiddy/unit-converter/internal/pipeline"
	"github.com/pdiddy/unit-converter/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert [files...]",
	Short: "Convert financial statements to the chosen unit",
	Long: `Convert rescales every monetary figure in the given spreadsheets and PDFs
and writes converted_<name>.xlsx into the output directory. Values at or
below the threshold are left as they are, so running convert again over
its own output does not divide twice.

Workbooks are edited in place, keeping formulas and formatting. Each PDF
table becomes its own sheet named Page_<p>_Table_<t>.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if noLLM, _ := cmd.Flags().GetBool("no-llm"); noLLM {
			cfg.Classifier.Enabled = false
		}
		noHistory, _ := cmd.Flags().GetBool("no-history")

		comp, err := newComponents(cfg, !noHistory)
		if err != nil {
			return err
		}
		defer comp.Close()

		var progress types.ProgressFunc
		if show, _ := cmd.Flags().GetBool("progress"); show {
			progress = func(ev types.ProgressEvent) {
				fmt.Fprintf(os.Stderr, "  %s: %d/%d cells\n", ev.Sheet, ev.Processed, ev.Total)
			}
		}

		tables := convert.NewTableConverter(comp.rewriter, cfg.Conversion, progress, logger)
		p := pipeline.New(cfg.Conversion, tables, pdfdoc.New(logger), logger)
		p.WriteReport, _ = cmd.Flags().GetBool("report")
		p.Force, _ = cmd.Flags().GetBool("force")
		if comp.store != nil {
			p.Recorder = comp.store
		}

		result := p.ConvertBatch(cmd.Context(), args, os.Stdout)
		if result.HasFailures() {
			return fmt.Errorf("%d of %d documents failed", result.Failed, result.Total())
		}
		return nil
	},
}

func init() {
	convertCmd.Flags().String("unit", types.DefaultUnit, "target unit: Hundred, Thousand, Lakhs, or Crore")
	convertCmd.Flags().Float64("threshold", types.DefaultThreshold, "leave values at or below this magnitude unchanged")
	convertCmd.Flags().String("out-dir", types.DefaultOutDir, "directory for converted workbooks")
	convertCmd.Flags().Int("workers", 0, "cells converted in parallel (0 = number of CPUs)")
	convertCmd.Flags().Int("sample-rows", types.DefaultSampleRows, "leading rows inspected for the unit label (0 = all)")
	convertCmd.Flags().Bool("report", false, "also write a YAML report next to each output")
	convertCmd.Flags().Bool("force", false, "convert even when the output already exists")
	convertCmd.Flags().Bool("progress", false, "print per-sheet progress to stderr")
	convertCmd.Flags().Bool("no-llm", false, "disable the language-model fallback")
	convertCmd.Flags().Bool("no-history", false, "do not record this run in the history database")

	_ = viper.BindPFlag("conversion.unit", convertCmd.Flags().Lookup("unit"))
	_ = viper.BindPFlag("conversion.threshold", convertCmd.Flags().Lookup("threshold"))
	_ = viper.BindPFlag("conversion.out_dir", convertCmd.Flags().Lookup("out-dir"))
	_ = viper.BindPFlag("conversion.workers", convertCmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("conversion.sample_rows", convertCmd.Flags().Lookup("sample-rows"))

	rootCmd.AddCommand(convertCmd)
}
