package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/plotloom/plotloom-cli/internal/dataset"
	"github.com/plotloom/plotloom-cli/internal/session"
)

var (
	addSessionID  string
	addSheetName  string
	addSheetIndex int
	addMaxRows    int
	addDelimiter  string
)

var addCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Attach a CSV or XLSX dataset to a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if addSessionID == "" {
			return fmt.Errorf("--session is required")
		}
		c := requireConfig()

		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		opt := datasetOptions(c)
		if addMaxRows > 0 {
			opt.MaxRows = addMaxRows
		}
		opt.SheetName = addSheetName
		if addSheetIndex > 0 {
			opt.SheetIndex = addSheetIndex
		}
		if addDelimiter != "" {
			opt.Delimiter = []rune(addDelimiter)[0]
		}
		f, err := dataset.Load(path, opt)
		if err != nil {
			return err
		}

		store, err := openStore(c)
		if err != nil {
			return err
		}
		defer store.Close()

		sess, err := store.Get(cmd.Context(), addSessionID)
		if err != nil {
			return err
		}
		err = store.AddDataset(cmd.Context(), sess.ID, session.DatasetRef{
			Name:    f.Name,
			Path:    path,
			Rows:    f.Rows,
			Columns: len(f.Cols),
		})
		if err != nil {
			return err
		}
		fmt.Printf("✓ Dataset attached: %s (%d rows, %d columns)\n", f.Name, f.Rows, len(f.Cols))
		for _, w := range f.Warnings {
			fmt.Printf("⚠ %s\n", w)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&addSessionID, "session", "s", "", "session id or unique prefix")
	addCmd.Flags().StringVar(&addSheetName, "sheet", "", "XLSX sheet name (default first sheet)")
	addCmd.Flags().IntVar(&addSheetIndex, "sheet-index", 0, "1-based XLSX sheet index")
	addCmd.Flags().IntVar(&addMaxRows, "max-rows", 0, "cap rows read from the file (overrides config)")
	addCmd.Flags().StringVar(&addDelimiter, "delimiter", "", "CSV field delimiter (default by extension)")
}
