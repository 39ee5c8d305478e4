package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/plotloom/plotloom-cli/internal/dataset"
	"github.com/plotloom/plotloom-cli/internal/session"
	"github.com/plotloom/plotloom-cli/internal/tui"
)

var (
	chatSessionID  string
	chatFiles      []string
	chatModel      string
	chatMaxTokens  int
	chatChartsDir  string
	chatTimeoutSec int
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open an interactive chat over your datasets",
	Example: `  plotloom chat -s 1a2b3c4d
  plotloom chat -f sales.csv -f costs.xlsx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if chatSessionID == "" && len(chatFiles) == 0 {
			return fmt.Errorf("load data first: pass --session or at least one --file")
		}
		c := requireConfig()

		var store *session.Store
		var sess *session.Session
		var history []session.Message
		frames := map[string]*dataset.Frame{}

		if chatSessionID != "" {
			var err error
			store, err = openStore(c)
			if err != nil {
				return err
			}
			defer store.Close()
			sess, err = store.Get(cmd.Context(), chatSessionID)
			if err != nil {
				return err
			}
			frames, err = loadSessionFrames(sess, c)
			if err != nil {
				return err
			}
			history, err = store.Messages(cmd.Context(), sess.ID)
			if err != nil {
				return err
			}
		}
		for _, file := range chatFiles {
			f, err := dataset.Load(file, datasetOptions(c))
			if err != nil {
				return err
			}
			frames[f.Name] = f
		}
		if len(frames) == 0 {
			return fmt.Errorf("no datasets loaded; attach one with 'plotloom add' or pass --file")
		}

		model := chatModel
		if model == "" && sess != nil {
			model = sess.Model
		}
		if model == "" {
			model = c.DefaultModel
		}
		maxTokens := chatMaxTokens
		if maxTokens <= 0 {
			maxTokens = c.MaxTokens
		}
		if maxTokens <= 0 {
			maxTokens = 1024
		}

		chartsDir := chatChartsDir
		if chartsDir == "" {
			chartsDir = "."
		}
		chartsDir, err := filepath.Abs(chartsDir)
		if err != nil {
			return err
		}

		deps := tui.Deps{
			Client:      buildClient(c),
			Store:       store,
			Session:     sess,
			History:     history,
			Frames:      frames,
			Summaries:   summarize(frames, c),
			Model:       model,
			MaxTokens:   maxTokens,
			Temperature: c.Temperature,
			ChartsDir:   chartsDir,
			Render:      renderOptions(c),
			Timeout:     time.Duration(chatTimeoutSec) * time.Second,
		}
		return tui.Run(deps)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVarP(&chatSessionID, "session", "s", "", "session id or unique prefix")
	chatCmd.Flags().StringSliceVarP(&chatFiles, "file", "f", nil, "load a dataset for this chat only (repeatable)")
	chatCmd.Flags().StringVar(&chatModel, "model", "", "override model")
	chatCmd.Flags().IntVar(&chatMaxTokens, "max-tokens", 0, "max tokens per response")
	chatCmd.Flags().StringVar(&chatChartsDir, "charts-dir", "", "directory for chart images (default current directory)")
	chatCmd.Flags().IntVar(&chatTimeoutSec, "timeout-sec", 180, "request timeout in seconds")
}
