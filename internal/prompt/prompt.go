// Package prompt assembles the system and user messages sent to the model.
package prompt

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/plotloom/plotloom-cli/internal/utils"
)

// System is the fixed system message. It pins the analyst persona and the
// chart block contract so replies can be parsed deterministically.
const System = `You are a careful data analyst. You are given summaries of one or more
tabular datasets and a question from the user. Answer concisely and ground every claim
in the summaries: cite column names, counts, and statistics rather than guessing.

When a chart would help, emit one or more fenced code blocks with the language tag
"chart", each containing a single JSON object:

` + "```chart" + `
{
  "type": "line" | "bar" | "scatter" | "histogram" | "pie",
  "dataset": "<dataset name as given in the summaries>",
  "x": "<column name>",
  "y": ["<numeric column>", ...],
  "group_by": "<optional categorical column>",
  "aggregate": "mean" | "sum" | "count" | "min" | "max",
  "bins": 10,
  "title": "<short title>",
  "top_n": 0
}
` + "```" + `

Rules:
- Use only dataset and column names that appear in the summaries, spelled exactly.
- "histogram" needs "x" (numeric) and optionally "bins"; it ignores "y".
- "pie" needs a categorical "x" and uses "aggregate" over "y" or row counts.
- Omit keys you do not need. Never invent columns.
- Keep prose outside the chart blocks. Do not emit any other code.`

// Dataset is one dataset summary to include in the user message.
type Dataset struct {
	Name    string
	Summary string // markdown produced by the profile package
}

// Builder assembles the user message for a single question.
type Builder struct {
	Question string
	Datasets []Dataset
	// MaxTokens bounds the estimated size of the user message; dataset
	// summaries are truncated evenly to fit. Zero means no limit.
	MaxTokens int
}

// Build assembles the user message and returns it with a token estimate.
func (b *Builder) Build() (string, int, error) {
	if strings.TrimSpace(b.Question) == "" {
		return "", 0, errors.New("question is empty")
	}
	if len(b.Datasets) == 0 {
		return "", 0, errors.New("no datasets loaded")
	}

	datasets := make([]Dataset, len(b.Datasets))
	copy(datasets, b.Datasets)
	sort.SliceStable(datasets, func(i, j int) bool { return datasets[i].Name < datasets[j].Name })

	overhead := b.frameText(datasets, true)
	if b.MaxTokens > 0 {
		fixed := utils.CountTokens(overhead)
		budget := b.MaxTokens - fixed
		if budget < len(datasets) {
			return "", 0, fmt.Errorf("token budget %d too small for %d dataset summaries", b.MaxTokens, len(datasets))
		}
		per := budget / len(datasets)
		for i := range datasets {
			cut := utils.TruncateToTokenLimit(datasets[i].Summary, per)
			if len(cut) < len(datasets[i].Summary) {
				cut += "\n[truncated]"
			}
			datasets[i].Summary = cut
		}
	}

	text := b.frameText(datasets, false)
	return text, utils.CountTokens(text), nil
}

// frameText renders the message skeleton. With empty=true the summaries are
// omitted so the remaining text measures the fixed overhead.
func (b *Builder) frameText(datasets []Dataset, empty bool) string {
	var sb strings.Builder
	sb.WriteString("[DATASETS]\n")
	for _, d := range datasets {
		sb.WriteString("--- Dataset: ")
		sb.WriteString(d.Name)
		sb.WriteString(" ---\n")
		if !empty {
			sb.WriteString(d.Summary)
		}
		sb.WriteString("\n\n")
	}
	sb.WriteString("[QUESTION]\n")
	sb.WriteString(strings.TrimSpace(b.Question))
	sb.WriteString("\n")
	return sb.String()
}
