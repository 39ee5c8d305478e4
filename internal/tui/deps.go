package tui

import (
	"time"

	"github.com/plotloom/plotloom-cli/internal/ai"
	"github.com/plotloom/plotloom-cli/internal/dataset"
	"github.com/plotloom/plotloom-cli/internal/prompt"
	"github.com/plotloom/plotloom-cli/internal/render"
	"github.com/plotloom/plotloom-cli/internal/session"
)

// Deps carries everything the chat screen needs. Store and Session are nil
// when chatting over ad-hoc files without a saved session.
type Deps struct {
	Client    *ai.Client
	Store     *session.Store
	Session   *session.Session
	History   []session.Message
	Frames    map[string]*dataset.Frame
	Summaries []prompt.Dataset

	Model       string
	MaxTokens   int
	Temperature float64
	PromptLimit int

	ChartsDir string
	Render    render.Options
	Timeout   time.Duration
}
