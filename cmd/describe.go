package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/plotloom/plotloom-cli/internal/dataset"
	"github.com/plotloom/plotloom-cli/internal/profile"
	"github.com/plotloom/plotloom-cli/internal/utils"
)

var (
	descGroupBy    []string
	descCorr       bool
	descSampleRows int
	descNoOutliers bool
	descJSON       bool
	descSheetName  string
	descSheetIndex int
	descMaxRows    int
	descDelimiter  string
)

var describeCmd = &cobra.Command{
	Use:   "describe <file>",
	Short: "Print the statistical summary of a dataset",
	Long: `Describe loads a CSV or XLSX file and prints the same markdown summary the
model receives: schema with inferred types and units, per-column statistics,
optional group-by aggregates and correlations, and sample rows.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := requireConfig()
		opt := datasetOptions(c)
		if descMaxRows > 0 {
			opt.MaxRows = descMaxRows
		}
		opt.SheetName = descSheetName
		if descSheetIndex > 0 {
			opt.SheetIndex = descSheetIndex
		}
		if descDelimiter != "" {
			opt.Delimiter = []rune(descDelimiter)[0]
		}
		f, err := dataset.Load(args[0], opt)
		if err != nil {
			return err
		}

		popt := profile.DefaultOptions()
		if descSampleRows > 0 {
			popt.SampleRows = descSampleRows
		} else if c.SampleRows > 0 {
			popt.SampleRows = c.SampleRows
		}
		popt.GroupBy = descGroupBy
		popt.Correlations = descCorr
		popt.Outliers = !descNoOutliers
		rep := profile.Profile(f, popt)

		if descJSON {
			b, err := utils.PrettyJSON(rep)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, string(b))
			return nil
		}
		fmt.Print(rep.Markdown())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().StringSliceVar(&descGroupBy, "group-by", nil, "compute per-group summaries for these columns")
	describeCmd.Flags().BoolVar(&descCorr, "correlations", false, "compute Pearson correlations among numeric columns")
	describeCmd.Flags().IntVar(&descSampleRows, "sample-rows", 0, "number of sample rows to include")
	describeCmd.Flags().BoolVar(&descNoOutliers, "no-outliers", false, "skip robust outlier detection")
	describeCmd.Flags().BoolVar(&descJSON, "json", false, "emit the report as JSON")
	describeCmd.Flags().StringVar(&descSheetName, "sheet", "", "XLSX sheet name (default first sheet)")
	describeCmd.Flags().IntVar(&descSheetIndex, "sheet-index", 0, "1-based XLSX sheet index")
	describeCmd.Flags().IntVar(&descMaxRows, "max-rows", 0, "cap rows read from the file (overrides config)")
	describeCmd.Flags().StringVar(&descDelimiter, "delimiter", "", "CSV field delimiter (default by extension)")
}
