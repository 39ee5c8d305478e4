package ai

import "sort"

// Model metadata for context-window warnings and `plotloom models`.

type ModelInfo struct {
	Name          string
	ContextTokens int // approximate context window
	Notes         string
}

var models = map[string]ModelInfo{
	"llama3-70b-8192": {
		Name:          "llama3-70b-8192",
		ContextTokens: 8192,
		Notes:         "default; strongest analysis quality of the Llama 3 pair",
	},
	"llama3-8b-8192": {
		Name:          "llama3-8b-8192",
		ContextTokens: 8192,
		Notes:         "fast, cheaper; fine for small datasets",
	},
	"llama-3.1-8b-instant": {
		Name:          "llama-3.1-8b-instant",
		ContextTokens: 131072,
		Notes:         "large context; use for wide datasets",
	},
	"llama-3.3-70b-versatile": {
		Name:          "llama-3.3-70b-versatile",
		ContextTokens: 131072,
		Notes:         "large context, high quality",
	},
	"mixtral-8x7b-32768": {
		Name:          "mixtral-8x7b-32768",
		ContextTokens: 32768,
	},
	"gemma2-9b-it": {
		Name:          "gemma2-9b-it",
		ContextTokens: 8192,
	},
}

// LookupModel returns metadata for a known model name.
func LookupModel(name string) (ModelInfo, bool) {
	mi, ok := models[name]
	return mi, ok
}

// ListModels returns known models sorted by name.
func ListModels() []ModelInfo {
	out := make([]ModelInfo, 0, len(models))
	for _, mi := range models {
		out = append(out, mi)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// MergeCatalog adds or replaces entries in the model catalog.
func MergeCatalog(extra map[string]ModelInfo) {
	for k, v := range extra {
		if v.Name == "" {
			v.Name = k
		}
		models[k] = v
	}
}
