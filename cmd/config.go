package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	cfgpkg "github.com/plotloom/plotloom-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := requireConfig()
		apiKey := "(not set)"
		if c.APIKey != "" {
			apiKey = maskKey(c.APIKey)
		}
		fmt.Printf("api_key:             %s\n", apiKey)
		fmt.Printf("base_url:            %s\n", c.BaseURL)
		fmt.Printf("default_model:       %s\n", c.DefaultModel)
		fmt.Printf("max_tokens:          %d\n", c.MaxTokens)
		fmt.Printf("temperature:         %.2f\n", c.Temperature)
		fmt.Printf("sessions_dir:        %s\n", c.SessionsDir)
		fmt.Printf("max_rows:            %d\n", c.MaxRows)
		fmt.Printf("sample_rows:         %d\n", c.SampleRows)
		fmt.Printf("chart_width:         %d\n", c.ChartWidth)
		fmt.Printf("chart_height:        %d\n", c.ChartHeight)
		fmt.Printf("chart_format:        %s\n", c.ChartFormat)
		fmt.Printf("http_timeout_sec:    %d\n", c.HTTPTimeoutSec)
		fmt.Printf("retry_max_attempts:  %d\n", c.RetryMaxAttempts)
		fmt.Printf("retry_base_delay_ms: %d\n", c.RetryBaseDelayMs)
		fmt.Printf("retry_max_delay_ms:  %d\n", c.RetryMaxDelayMs)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value and save it",
	Example: `  plotloom config set default_model llama-3.3-70b-versatile
  plotloom config set chart_format svg
  plotloom config set max_rows 50000`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := requireConfig()
		key, val := args[0], args[1]
		if err := applyConfigValue(c, key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Printf("✓ Config updated: %s = %s\n", key, val)
		return nil
	},
}

func applyConfigValue(c *cfgpkg.Global, key, val string) error {
	atoi := func() (int, error) {
		n, err := strconv.Atoi(val)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("%s must be a positive integer", key)
		}
		return n, nil
	}
	switch key {
	case "api_key":
		c.APIKey = val
	case "base_url":
		c.BaseURL = val
	case "default_model":
		c.DefaultModel = val
	case "sessions_dir":
		c.SessionsDir = val
	case "chart_format":
		if val != "png" && val != "svg" {
			return fmt.Errorf("chart_format must be png or svg")
		}
		c.ChartFormat = val
	case "temperature":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 || f > 2 {
			return fmt.Errorf("temperature must be a number between 0 and 2")
		}
		c.Temperature = f
	case "max_tokens":
		n, err := atoi()
		if err != nil {
			return err
		}
		c.MaxTokens = n
	case "max_rows":
		n, err := atoi()
		if err != nil {
			return err
		}
		c.MaxRows = n
	case "sample_rows":
		n, err := atoi()
		if err != nil {
			return err
		}
		c.SampleRows = n
	case "chart_width":
		n, err := atoi()
		if err != nil {
			return err
		}
		c.ChartWidth = n
	case "chart_height":
		n, err := atoi()
		if err != nil {
			return err
		}
		c.ChartHeight = n
	case "http_timeout_sec":
		n, err := atoi()
		if err != nil {
			return err
		}
		c.HTTPTimeoutSec = n
	case "retry_max_attempts":
		n, err := atoi()
		if err != nil {
			return err
		}
		c.RetryMaxAttempts = n
	case "retry_base_delay_ms":
		n, err := atoi()
		if err != nil {
			return err
		}
		c.RetryBaseDelayMs = n
	case "retry_max_delay_ms":
		n, err := atoi()
		if err != nil {
			return err
		}
		c.RetryMaxDelayMs = n
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
