package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/plotloom/plotloom-cli/internal/ai"
	"github.com/plotloom/plotloom-cli/internal/chartspec"
	cfgpkg "github.com/plotloom/plotloom-cli/internal/config"
	"github.com/plotloom/plotloom-cli/internal/dataset"
	"github.com/plotloom/plotloom-cli/internal/keyring"
	"github.com/plotloom/plotloom-cli/internal/profile"
	"github.com/plotloom/plotloom-cli/internal/prompt"
	"github.com/plotloom/plotloom-cli/internal/render"
	"github.com/plotloom/plotloom-cli/internal/reply"
	"github.com/plotloom/plotloom-cli/internal/session"
	"github.com/plotloom/plotloom-cli/internal/utils"
)

// requireConfig returns the loaded config or a usable fallback when loading
// failed at startup.
func requireConfig() *cfgpkg.Global {
	if cfg != nil {
		return cfg
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return &cfgpkg.Global{}
	}
	return c
}

// resolveAPIKey finds the API key: config/env first, then the encrypted
// keyring when a passphrase is available.
func resolveAPIKey(c *cfgpkg.Global) string {
	if c.APIKey != "" {
		return c.APIKey
	}
	pass := os.Getenv("PLOTLOOM_PASSPHRASE")
	if pass == "" {
		return ""
	}
	dir, err := cfgpkg.Dir()
	if err != nil {
		return ""
	}
	key, err := keyring.Get(dir, pass)
	if err != nil {
		if debug && !errors.Is(err, keyring.ErrNoKey) {
			fmt.Fprintf(os.Stderr, "⚠ Warning: keyring: %v\n", err)
		}
		return ""
	}
	return key
}

// buildClient constructs the API client from config and flag overrides.
func buildClient(c *cfgpkg.Global) *ai.Client {
	return ai.NewClientWithBaseURL(
		resolveAPIKey(c),
		time.Duration(c.HTTPTimeoutSec)*time.Second,
		c.RetryMaxAttempts,
		time.Duration(c.RetryBaseDelayMs)*time.Millisecond,
		time.Duration(c.RetryMaxDelayMs)*time.Millisecond,
		c.BaseURL,
	)
}

// openStore opens the session database under the configured sessions dir.
func openStore(c *cfgpkg.Global) (*session.Store, error) {
	dir := c.SessionsDir
	if dir == "" {
		base, err := cfgpkg.Dir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "sessions")
	}
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create sessions dir: %w", err)
	}
	return session.Open(filepath.Join(dir, "sessions.ldb"))
}

func datasetOptions(c *cfgpkg.Global) dataset.Options {
	opt := dataset.DefaultOptions()
	if c.MaxRows > 0 {
		opt.MaxRows = c.MaxRows
	}
	return opt
}

func renderOptions(c *cfgpkg.Global) render.Options {
	opt := render.DefaultOptions()
	if c.ChartWidth > 0 {
		opt.Width = c.ChartWidth
	}
	if c.ChartHeight > 0 {
		opt.Height = c.ChartHeight
	}
	if c.ChartFormat != "" {
		opt.Format = c.ChartFormat
	}
	return opt
}

// loadSessionFrames loads every dataset attached to the session from disk.
func loadSessionFrames(sess *session.Session, c *cfgpkg.Global) (map[string]*dataset.Frame, error) {
	frames := make(map[string]*dataset.Frame, len(sess.Datasets))
	for _, ref := range sess.Datasets {
		f, err := dataset.Load(ref.Path, datasetOptions(c))
		if err != nil {
			return nil, fmt.Errorf("reload dataset %s: %w", ref.Name, err)
		}
		frames[ref.Name] = f
	}
	return frames, nil
}

// summarize profiles every frame into a prompt-ready dataset summary.
func summarize(frames map[string]*dataset.Frame, c *cfgpkg.Global) []prompt.Dataset {
	opt := profile.DefaultOptions()
	if c.SampleRows > 0 {
		opt.SampleRows = c.SampleRows
	}
	opt.Correlations = true
	out := make([]prompt.Dataset, 0, len(frames))
	for name, f := range frames {
		out = append(out, prompt.Dataset{Name: name, Summary: profile.Profile(f, opt).Markdown()})
	}
	return out
}

// chartResult is one rendered (or failed) chart block from a reply.
type chartResult struct {
	Index int
	Path  string
	Title string
	Err   error
}

// renderReplyCharts binds and renders every chart block in a parsed reply.
// Failures are contained per block so one bad definition does not drop the
// others.
func renderReplyCharts(parsed *reply.Parsed, frames map[string]*dataset.Frame, chartsDir string, opt render.Options) []chartResult {
	var results []chartResult
	for i, raw := range parsed.Charts() {
		n := i + 1
		spec, err := chartspec.ParseSpec(raw)
		if err != nil {
			results = append(results, chartResult{Index: n, Err: err})
			continue
		}
		bound, err := chartspec.Bind(spec, frames)
		if err != nil {
			results = append(results, chartResult{Index: n, Err: err})
			continue
		}
		path, err := render.WriteArtifact(chartsDir, n, bound, opt)
		if err != nil {
			results = append(results, chartResult{Index: n, Err: err})
			continue
		}
		results = append(results, chartResult{Index: n, Path: path, Title: bound.Title})
	}
	return results
}

// hintError maps typed API errors to actionable messages.
func hintError(err error, model string) error {
	var (
		authErr *ai.AuthError
		rlErr   *ai.RateLimitError
		nfErr   *ai.ModelNotFoundError
		brErr   *ai.BadRequestError
		qErr    *ai.QuotaExceededError
		sErr    *ai.ServerError
	)
	switch {
	case errors.As(err, &authErr):
		return fmt.Errorf("authentication failed: set PLOTLOOM_API_KEY or GROQ_API_KEY, or store a key with 'plotloom key set': %w", err)
	case errors.As(err, &rlErr):
		if rlErr.RetryAfter > 0 {
			return fmt.Errorf("rate limited, try again in ~%ds: %w", int(rlErr.RetryAfter.Seconds()), err)
		}
		return fmt.Errorf("rate limited by provider, please retry: %w", err)
	case errors.As(err, &nfErr):
		return fmt.Errorf("model not found or decommissioned (%s). See 'plotloom models list' for known models: %w", model, err)
	case errors.As(err, &brErr):
		return fmt.Errorf("request invalid. Try fewer datasets, a smaller --max-rows, or a lower --max-tokens: %w", err)
	case errors.As(err, &qErr):
		return fmt.Errorf("quota/billing issue. Check your provider account: %w", err)
	case errors.As(err, &sErr):
		return fmt.Errorf("provider appears unavailable (server error). Please retry later: %w", err)
	default:
		return err
	}
}

// withTimeout wraps a command context with the request timeout.
func withTimeout(parent context.Context, timeoutSec int) (context.Context, context.CancelFunc) {
	if timeoutSec <= 0 {
		timeoutSec = 180
	}
	return context.WithTimeout(parent, time.Duration(timeoutSec)*time.Second)
}
