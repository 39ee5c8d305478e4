// Package reply splits a model response into prose and chart blocks.
//
// The model is asked to put chart definitions in fenced code blocks tagged
// "chart". Models drift, so untagged and "json" fences are sniffed too: any
// fenced JSON object carrying "type" and "dataset" keys counts as a chart.
package reply

import (
	"strings"

	"github.com/tidwall/gjson"
)

type SegmentKind int

const (
	KindProse SegmentKind = iota
	KindChart
)

// Segment is one piece of the reply, in document order.
type Segment struct {
	Kind SegmentKind
	// Text holds prose for KindProse and the raw JSON body for KindChart.
	Text string
	// Lang is the fence tag the block arrived with ("chart", "json", "").
	Lang string
}

// Parsed is the segmented reply.
type Parsed struct {
	Segments []Segment
}

// Charts returns the raw JSON bodies of all chart segments, in order.
func (p *Parsed) Charts() []string {
	var out []string
	for _, s := range p.Segments {
		if s.Kind == KindChart {
			out = append(out, s.Text)
		}
	}
	return out
}

// Prose returns the reply with chart blocks removed.
func (p *Parsed) Prose() string {
	var sb strings.Builder
	for _, s := range p.Segments {
		if s.Kind != KindProse {
			continue
		}
		t := strings.TrimSpace(s.Text)
		if t == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(t)
	}
	return sb.String()
}

// Parse segments a markdown reply. It never fails: unparseable content stays
// prose so the user always sees what the model said.
func Parse(markdown string) *Parsed {
	p := &Parsed{}
	lines := strings.Split(markdown, "\n")

	var prose []string
	flushProse := func() {
		if len(prose) == 0 {
			return
		}
		p.Segments = append(p.Segments, Segment{Kind: KindProse, Text: strings.Join(prose, "\n")})
		prose = nil
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		fence, lang, ok := openFence(line)
		if !ok {
			prose = append(prose, line)
			continue
		}
		var body []string
		closed := false
		j := i + 1
		for ; j < len(lines); j++ {
			if isCloseFence(lines[j], fence) {
				closed = true
				break
			}
			body = append(body, lines[j])
		}
		if !closed {
			// Unterminated fence, treat the rest literally.
			prose = append(prose, lines[i:]...)
			break
		}
		text := strings.Join(body, "\n")
		if isChartBody(lang, text) {
			flushProse()
			p.Segments = append(p.Segments, Segment{Kind: KindChart, Text: text, Lang: lang})
		} else {
			// Non-chart code stays visible as prose, fence included.
			prose = append(prose, lines[i:j+1]...)
		}
		i = j
	}
	flushProse()
	return p
}

// isChartBody reports whether a fenced block should be treated as a chart
// definition. "chart" fences always qualify; other fences only when the body
// is a JSON object that names a chart type and a dataset.
func isChartBody(lang, body string) bool {
	lang = strings.ToLower(lang)
	if lang == "chart" {
		return true
	}
	if lang != "" && lang != "json" {
		return false
	}
	body = strings.TrimSpace(body)
	if !strings.HasPrefix(body, "{") || !gjson.Valid(body) {
		return false
	}
	return gjson.Get(body, "type").Exists() && gjson.Get(body, "dataset").Exists()
}

// openFence matches ``` or ~~~ fences with an optional language tag.
func openFence(line string) (fence, lang string, ok bool) {
	t := strings.TrimSpace(line)
	for _, f := range []string{"```", "~~~"} {
		if strings.HasPrefix(t, f) {
			rest := strings.TrimSpace(strings.TrimPrefix(t, f))
			if strings.ContainsAny(rest, "`~") {
				return "", "", false // inline code span, not a fence
			}
			return f, rest, true
		}
	}
	return "", "", false
}

func isCloseFence(line, fence string) bool {
	t := strings.TrimSpace(line)
	return t == fence
}
