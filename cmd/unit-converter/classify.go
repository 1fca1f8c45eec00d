package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/unit-converter/internal/classify"
	"github.com/pdiddy/unit-converter/pkg/types"
)

// preview is what classify reports for one text.
type preview struct {
	Text    string         `json:"text"`
	Reason  string         `json:"reason,omitempty"`
	Numbers []types.Number `json:"numbers"`
	Result  any            `json:"result"`
	Outcome types.Outcome  `json:"outcome"`
}

var classifyCmd = &cobra.Command{
	Use:   "classify [text...]",
	Short: "Show how cell texts would be classified and converted",
	Long: `Classify runs each argument through the same rules convert applies to a
cell: it prints why a text is kept as is (date, year, identifier, ...),
which numbers were found, and the converted result.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("unit") {
			cfg.Conversion.Unit, _ = cmd.Flags().GetString("unit")
		}
		if cmd.Flags().Changed("threshold") {
			cfg.Conversion.Threshold, _ = cmd.Flags().GetFloat64("threshold")
		}
		if noLLM, _ := cmd.Flags().GetBool("no-llm"); noLLM {
			cfg.Classifier.Enabled = false
		}

		comp, err := newComponents(cfg, true)
		if err != nil {
			return err
		}
		defer comp.Close()

		ctx := cmd.Context()
		ex := comp.rewriter.Extractor()
		out := make([]preview, 0, len(args))
		for _, text := range args {
			res := comp.rewriter.Rewrite(ctx, types.Cell{Value: text})
			p := preview{
				Text:    text,
				Reason:  classify.Reason(text),
				Result:  res.Value,
				Outcome: res.Outcome,
			}
			if p.Reason == "" {
				p.Numbers = ex.FindNumbers(ctx, text)
			}
			out = append(out, p)
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}
		for _, p := range out {
			fmt.Printf("%q\n", p.Text)
			if p.Reason != "" {
				fmt.Printf("  kept:    %s\n", p.Reason)
			}
			for _, n := range p.Numbers {
				fmt.Printf("  number:  %s = %v\n", n.Literal, n.Value)
			}
			fmt.Printf("  result:  %v (%s)\n", p.Result, p.Outcome)
		}
		return nil
	},
}

func init() {
	classifyCmd.Flags().String("unit", types.DefaultUnit, "target unit: Hundred, Thousand, Lakhs, or Crore")
	classifyCmd.Flags().Float64("threshold", types.DefaultThreshold, "leave values at or below this magnitude unchanged")
	classifyCmd.Flags().Bool("no-llm", false, "disable the language-model fallback")
	classifyCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(classifyCmd)
}
