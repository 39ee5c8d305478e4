// Package chartspec parses, validates, and binds the chart definitions the
// model emits in fenced blocks. A definition is declarative: it names a
// dataset, columns, and an aggregation, and binding resolves it against the
// loaded frames into plottable series.
package chartspec

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	TypeLine      = "line"
	TypeBar       = "bar"
	TypeScatter   = "scatter"
	TypeHistogram = "histogram"
	TypePie       = "pie"
)

const (
	AggMean  = "mean"
	AggSum   = "sum"
	AggCount = "count"
	AggMin   = "min"
	AggMax   = "max"
)

const (
	DefaultBins = 10
	MaxBins     = 100
)

// Spec is one chart definition as emitted by the model.
type Spec struct {
	Type      string   `json:"type"`
	Dataset   string   `json:"dataset"`
	X         string   `json:"x"`
	Y         []string `json:"y"`
	GroupBy   string   `json:"group_by"`
	Aggregate string   `json:"aggregate"`
	Bins      int      `json:"bins"`
	Title     string   `json:"title"`
	TopN      int      `json:"top_n"`
}

// UnmarshalJSON accepts "y" as either a string or an array of strings, since
// models emit both forms.
func (s *Spec) UnmarshalJSON(data []byte) error {
	type alias Spec
	aux := struct {
		*alias
		Y json.RawMessage `json:"y"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Y) == 0 || string(aux.Y) == "null" {
		return nil
	}
	var one string
	if err := json.Unmarshal(aux.Y, &one); err == nil {
		s.Y = []string{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(aux.Y, &many); err != nil {
		return fmt.Errorf("field y: expected string or array of strings")
	}
	s.Y = many
	return nil
}

// ParseSpec decodes a single JSON chart definition.
func ParseSpec(raw string) (*Spec, error) {
	var s Spec
	dec := json.NewDecoder(strings.NewReader(raw))
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("invalid chart JSON: %w", err)
	}
	s.Type = strings.ToLower(strings.TrimSpace(s.Type))
	s.Aggregate = strings.ToLower(strings.TrimSpace(s.Aggregate))
	s.Dataset = strings.TrimSpace(s.Dataset)
	s.X = strings.TrimSpace(s.X)
	s.GroupBy = strings.TrimSpace(s.GroupBy)
	for i := range s.Y {
		s.Y[i] = strings.TrimSpace(s.Y[i])
	}
	return &s, nil
}

// Validate checks the definition for structural problems. All problems are
// reported at once so the model's mistake is visible in full.
func (s *Spec) Validate() error {
	var probs []string

	switch s.Type {
	case TypeLine, TypeBar, TypeScatter, TypeHistogram, TypePie:
	case "":
		probs = append(probs, "missing chart type")
	default:
		probs = append(probs, fmt.Sprintf("unknown chart type %q (want line, bar, scatter, histogram, or pie)", s.Type))
	}

	if s.X == "" {
		probs = append(probs, "missing x column")
	}

	switch s.Type {
	case TypeLine, TypeScatter:
		if len(s.Y) == 0 {
			probs = append(probs, "line and scatter charts need at least one y column")
		}
		if s.GroupBy != "" && len(s.Y) > 1 {
			probs = append(probs, "group_by supports a single y column")
		}
	case TypeHistogram:
		if s.Bins < 0 || s.Bins > MaxBins {
			probs = append(probs, fmt.Sprintf("bins must be between 1 and %d", MaxBins))
		}
	}

	switch s.Aggregate {
	case "", AggMean, AggSum, AggCount, AggMin, AggMax:
	default:
		probs = append(probs, fmt.Sprintf("unknown aggregate %q (want mean, sum, count, min, or max)", s.Aggregate))
	}

	if s.TopN < 0 {
		probs = append(probs, "top_n must not be negative")
	}

	if len(probs) > 0 {
		return fmt.Errorf("chart definition: %s", strings.Join(probs, "; "))
	}
	return nil
}
