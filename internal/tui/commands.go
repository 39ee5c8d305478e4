package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/plotloom/plotloom-cli/internal/ai"
	"github.com/plotloom/plotloom-cli/internal/chartspec"
	"github.com/plotloom/plotloom-cli/internal/prompt"
	"github.com/plotloom/plotloom-cli/internal/render"
	"github.com/plotloom/plotloom-cli/internal/reply"
	"github.com/plotloom/plotloom-cli/internal/session"
)

// listenStream pulls the next event off the generation channel. It re-arms
// itself from Update until a done event arrives.
func listenStream(ch <-chan streamEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return streamDoneMsg{err: errors.New("generation channel closed")}
		}
		if ev.done {
			return streamDoneMsg{content: ev.content, err: ev.err}
		}
		return streamDeltaMsg{text: ev.delta}
	}
}

// startAskAsync builds the prompt and streams the reply in a goroutine,
// feeding deltas through a channel so the UI stays responsive.
func startAskAsync(deps Deps, question string) (chan streamEvent, tea.Cmd) {
	ch := make(chan streamEvent, 64)

	go func() {
		defer close(ch)

		b := &prompt.Builder{
			Question:  question,
			Datasets:  deps.Summaries,
			MaxTokens: deps.PromptLimit,
		}
		userMsg, _, err := b.Build()
		if err != nil {
			ch <- streamEvent{done: true, err: err}
			return
		}

		req := ai.GenerateRequest{
			Model: deps.Model,
			Messages: []ai.Message{
				{Role: "system", Content: prompt.System},
				{Role: "user", Content: userMsg},
			},
			MaxTokens:   deps.MaxTokens,
			Temperature: deps.Temperature,
		}

		timeout := deps.Timeout
		if timeout <= 0 {
			timeout = 180 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var sb strings.Builder
		err = deps.Client.GenerateStream(ctx, req, func(delta string) {
			sb.WriteString(delta)
			ch <- streamEvent{delta: delta}
		})
		ch <- streamEvent{done: true, content: sb.String(), err: err}
	}()

	return ch, listenStream(ch)
}

// cmdRenderCharts binds and renders every chart block found in the reply.
func cmdRenderCharts(deps Deps, content string) tea.Cmd {
	return func() tea.Msg {
		parsed := reply.Parse(content)
		blocks := parsed.Charts()
		if len(blocks) == 0 {
			return chartsDoneMsg{content: content}
		}

		dir := deps.ChartsDir
		if dir == "" {
			dir = "."
		}
		opt := deps.Render
		if opt.Width <= 0 {
			opt = render.DefaultOptions()
		}

		var results []chartOutcome
		for i, raw := range blocks {
			n := i + 1
			spec, err := chartspec.ParseSpec(raw)
			if err != nil {
				results = append(results, chartOutcome{index: n, err: err})
				continue
			}
			bound, err := chartspec.Bind(spec, deps.Frames)
			if err != nil {
				results = append(results, chartOutcome{index: n, err: err})
				continue
			}
			path, err := render.WriteArtifact(dir, n, bound, opt)
			if err != nil {
				results = append(results, chartOutcome{index: n, err: err})
				continue
			}
			results = append(results, chartOutcome{index: n, path: path, title: bound.Title})
		}
		return chartsDoneMsg{content: content, results: results}
	}
}

// cmdPersist appends the exchange to the session store when one is attached.
func cmdPersist(deps Deps, question, content string, chartPaths []string) tea.Cmd {
	return func() tea.Msg {
		if deps.Store == nil || deps.Session == nil {
			return persistDoneMsg{}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if _, err := deps.Store.Append(ctx, deps.Session.ID, session.Message{Role: "user", Content: question}); err != nil {
			return persistDoneMsg{err: err}
		}
		_, err := deps.Store.Append(ctx, deps.Session.ID, session.Message{Role: "assistant", Content: content, Charts: chartPaths})
		return persistDoneMsg{err: err}
	}
}
