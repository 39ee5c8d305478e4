package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/plotloom/plotloom-cli/internal/ai"
	"github.com/plotloom/plotloom-cli/internal/dataset"
	"github.com/plotloom/plotloom-cli/internal/prompt"
	"github.com/plotloom/plotloom-cli/internal/reply"
	"github.com/plotloom/plotloom-cli/internal/session"
	"github.com/plotloom/plotloom-cli/internal/utils"
)

var (
	askSessionID   string
	askFiles       []string
	askModel       string
	askMaxTokens   int
	askTemp        float64
	askDryRun      bool
	askPrintPrompt bool
	askNoCharts    bool
	askChartsDir   string
	askStream      bool
	askTimeoutSec  int
	askPromptLimit int
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about the loaded datasets",
	Example: `  plotloom ask "which region grew fastest?" -s 1a2b3c4d
  plotloom ask "plot revenue by month" -f sales.csv
  plotloom ask "distribution of order sizes" -f orders.xlsx --dry-run`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.TrimSpace(strings.Join(args, " "))
		if askSessionID == "" && len(askFiles) == 0 {
			return fmt.Errorf("load data first: pass --session or at least one --file")
		}
		c := requireConfig()

		var store *session.Store
		var sess *session.Session
		frames := map[string]*dataset.Frame{}

		if askSessionID != "" {
			var err error
			store, err = openStore(c)
			if err != nil {
				return err
			}
			defer store.Close()
			sess, err = store.Get(cmd.Context(), askSessionID)
			if err != nil {
				return err
			}
			frames, err = loadSessionFrames(sess, c)
			if err != nil {
				return err
			}
		}
		for _, file := range askFiles {
			f, err := dataset.Load(file, datasetOptions(c))
			if err != nil {
				return err
			}
			frames[f.Name] = f
		}
		if len(frames) == 0 {
			return fmt.Errorf("no datasets loaded; attach one with 'plotloom add' or pass --file")
		}

		b := &prompt.Builder{
			Question:  question,
			Datasets:  summarize(frames, c),
			MaxTokens: askPromptLimit,
		}
		userMsg, tokens, err := b.Build()
		if err != nil {
			return err
		}

		model := askModel
		if model == "" && sess != nil {
			model = sess.Model
		}
		if model == "" {
			model = c.DefaultModel
		}
		maxTokens := askMaxTokens
		if maxTokens <= 0 {
			maxTokens = c.MaxTokens
		}
		if maxTokens <= 0 {
			maxTokens = 1024
		}
		temp := askTemp
		if temp == 0 {
			temp = c.Temperature
		}

		if mi, ok := ai.LookupModel(model); ok && tokens+maxTokens > mi.ContextTokens {
			fmt.Printf("⚠ Prompt (≈%d tokens) + max-tokens (%d) exceeds %s context window (~%d). Consider --prompt-limit or fewer datasets.\n",
				tokens, maxTokens, mi.Name, mi.ContextTokens)
		}

		if askDryRun {
			fmt.Println("--dry-run: no API call will be made. Prompt below --")
			fmt.Printf("[SYSTEM]\n%s\n\n%s", prompt.System, userMsg)
			fmt.Printf("\nTokens: ≈%d (+ system ≈%d)\n", tokens, utils.CountTokens(prompt.System))
			return nil
		}
		if askPrintPrompt {
			fmt.Println("--print-prompt: sending the following user message --")
			fmt.Println(userMsg)
		}

		client := buildClient(c)
		req := ai.GenerateRequest{
			Model: model,
			Messages: []ai.Message{
				{Role: "system", Content: prompt.System},
				{Role: "user", Content: userMsg},
			},
			MaxTokens:   maxTokens,
			Temperature: temp,
		}

		ctx, cancel := withTimeout(cmd.Context(), askTimeoutSec)
		defer cancel()

		fmt.Printf("⚙ Asking %s (prompt tokens≈%d) ...\n\n", model, tokens)

		var content string
		if askStream {
			var sb strings.Builder
			err = client.GenerateStream(ctx, req, func(delta string) {
				sb.WriteString(delta)
				fmt.Print(delta)
			})
			if err != nil {
				return hintError(err, model)
			}
			fmt.Println()
			content = sb.String()
		} else {
			resp, err := client.Generate(ctx, req)
			if err != nil {
				return hintError(err, model)
			}
			if debug && resp.RequestID != "" {
				fmt.Printf("Request ID: %s\n", resp.RequestID)
			}
			content = resp.Content()
			if content == "" {
				return fmt.Errorf("no content returned from model")
			}
		}

		parsed := reply.Parse(content)
		if !askStream {
			fmt.Println(parsed.Prose())
		}

		var chartPaths []string
		if !askNoCharts && len(parsed.Charts()) > 0 {
			dir := askChartsDir
			if dir == "" {
				dir = "."
			}
			dir, err = filepath.Abs(dir)
			if err != nil {
				return err
			}
			results := renderReplyCharts(parsed, frames, dir, renderOptions(c))
			fmt.Println()
			for _, r := range results {
				if r.Err != nil {
					fmt.Fprintf(os.Stderr, "⚠ Chart %d skipped: %v\n", r.Index, r.Err)
					continue
				}
				fmt.Printf("✓ Chart %d (%s): %s\n", r.Index, r.Title, r.Path)
				chartPaths = append(chartPaths, r.Path)
			}
		}

		if store != nil && sess != nil {
			if _, err := store.Append(cmd.Context(), sess.ID, session.Message{Role: "user", Content: question}); err != nil {
				return err
			}
			if _, err := store.Append(cmd.Context(), sess.ID, session.Message{Role: "assistant", Content: content, Charts: chartPaths}); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askSessionID, "session", "s", "", "session id or unique prefix")
	askCmd.Flags().StringSliceVarP(&askFiles, "file", "f", nil, "load a dataset for this question only (repeatable)")
	askCmd.Flags().StringVar(&askModel, "model", "", "override model")
	askCmd.Flags().IntVar(&askMaxTokens, "max-tokens", 0, "max tokens for the response")
	askCmd.Flags().Float64Var(&askTemp, "temperature", 0, "sampling temperature")
	askCmd.Flags().BoolVar(&askDryRun, "dry-run", false, "build the prompt and print it without calling the API")
	askCmd.Flags().BoolVar(&askPrintPrompt, "print-prompt", false, "print the prompt being sent")
	askCmd.Flags().BoolVar(&askNoCharts, "no-charts", false, "skip chart rendering")
	askCmd.Flags().StringVar(&askChartsDir, "charts-dir", "", "directory for chart images (default current directory)")
	askCmd.Flags().BoolVar(&askStream, "stream", false, "stream the reply as it is generated")
	askCmd.Flags().IntVar(&askTimeoutSec, "timeout-sec", 180, "request timeout in seconds")
	askCmd.Flags().IntVar(&askPromptLimit, "prompt-limit", 0, "truncate dataset summaries to fit this prompt token budget")
}
