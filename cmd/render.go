package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/plotloom/plotloom-cli/internal/chartspec"
	"github.com/plotloom/plotloom-cli/internal/dataset"
	"github.com/plotloom/plotloom-cli/internal/render"
)

var (
	renderFiles  []string
	renderOut    string
	renderFormat string
	renderWidth  int
	renderHeight int
)

var renderCmd = &cobra.Command{
	Use:   "render <spec.json>",
	Short: "Render a chart definition against local datasets",
	Long: `Render reads a chart definition (the same JSON the model emits in chart
blocks), binds it against the given datasets, and writes the image. Useful for
tweaking a chart the model produced without another API call.`,
	Example: `  plotloom render chart.json -f sales.csv
  plotloom render chart.json -f sales.csv -o out/ --format svg`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(renderFiles) == 0 {
			return fmt.Errorf("at least one --file dataset is required")
		}
		c := requireConfig()

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read chart definition: %w", err)
		}
		spec, err := chartspec.ParseSpec(string(raw))
		if err != nil {
			return err
		}

		frames := map[string]*dataset.Frame{}
		for _, file := range renderFiles {
			f, err := dataset.Load(file, datasetOptions(c))
			if err != nil {
				return err
			}
			frames[f.Name] = f
		}
		bound, err := chartspec.Bind(spec, frames)
		if err != nil {
			return err
		}

		opt := renderOptions(c)
		if renderFormat != "" {
			opt.Format = renderFormat
		}
		if renderWidth > 0 {
			opt.Width = renderWidth
		}
		if renderHeight > 0 {
			opt.Height = renderHeight
		}
		dir := renderOut
		if dir == "" {
			dir = "."
		}
		dir, err = filepath.Abs(dir)
		if err != nil {
			return err
		}
		path, err := render.WriteArtifact(dir, 1, bound, opt)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Chart written: %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringSliceVarP(&renderFiles, "file", "f", nil, "dataset file to bind against (repeatable)")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "output directory (default current directory)")
	renderCmd.Flags().StringVar(&renderFormat, "format", "", "image format: png|svg")
	renderCmd.Flags().IntVar(&renderWidth, "width", 0, "image width in pixels")
	renderCmd.Flags().IntVar(&renderHeight, "height", 0, "image height in pixels")
}
