package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/plotloom/plotloom-cli/internal/reply"
)

type entryKind int

const (
	entryUser entryKind = iota
	entryAssistant
	entryChart
	entryError
)

type chatEntry struct {
	kind entryKind
	text string
}

type model struct {
	theme Theme
	deps  Deps

	vp    viewport.Model
	ta    textarea.Model
	spin  spinner.Model
	ready bool

	entries []chatEntry
	pending string
	waiting bool

	question  string
	ch        chan streamEvent
	statusErr error
}

// Run starts the interactive chat screen and blocks until the user quits.
func Run(deps Deps) error {
	p := tea.NewProgram(newModel(deps), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func newModel(deps Deps) model {
	t := DefaultTheme()

	ta := textarea.New()
	ta.Placeholder = "Ask about your data..."
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.CharLimit = 4000
	ta.Focus()

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(t.Title),
	)

	m := model{
		theme: t,
		deps:  deps,
		ta:    ta,
		spin:  sp,
	}
	for _, msg := range deps.History {
		if msg.Role == "user" {
			m.entries = append(m.entries, chatEntry{kind: entryUser, text: msg.Content})
			continue
		}
		m.entries = append(m.entries, chatEntry{kind: entryAssistant, text: reply.Parse(msg.Content).Prose()})
		for _, p := range msg.Charts {
			m.entries = append(m.entries, chatEntry{kind: entryChart, text: p})
		}
	}
	return m
}

func (m model) Init() tea.Cmd { return textarea.Blink }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		headerH := lipgloss.Height(m.headerView())
		inputH := m.ta.Height() + 3
		if !m.ready {
			m.vp = viewport.New(msg.Width-2, msg.Height-headerH-inputH)
			m.ready = true
		} else {
			m.vp.Width = msg.Width - 2
			m.vp.Height = msg.Height - headerH - inputH
		}
		m.ta.SetWidth(msg.Width - 4)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			if m.waiting {
				return m, nil
			}
			q := strings.TrimSpace(m.ta.Value())
			if q == "" {
				return m, nil
			}
			m.question = q
			m.ta.Reset()
			m.entries = append(m.entries, chatEntry{kind: entryUser, text: q})
			m.pending = ""
			m.waiting = true
			m.statusErr = nil
			m.refresh()
			var listen tea.Cmd
			m.ch, listen = startAskAsync(m.deps, q)
			return m, tea.Batch(listen, m.spin.Tick)
		}

	case streamDeltaMsg:
		m.pending += msg.text
		m.refresh()
		return m, listenStream(m.ch)

	case streamDoneMsg:
		m.waiting = false
		content := msg.content
		m.pending = ""
		if msg.err != nil {
			m.entries = append(m.entries, chatEntry{kind: entryError, text: msg.err.Error()})
			m.refresh()
			return m, nil
		}
		m.entries = append(m.entries, chatEntry{kind: entryAssistant, text: reply.Parse(content).Prose()})
		m.refresh()
		return m, cmdRenderCharts(m.deps, content)

	case chartsDoneMsg:
		var paths []string
		for _, r := range msg.results {
			if r.err != nil {
				m.entries = append(m.entries, chatEntry{kind: entryError, text: fmt.Sprintf("chart %d skipped: %v", r.index, r.err)})
				continue
			}
			m.entries = append(m.entries, chatEntry{kind: entryChart, text: r.path})
			paths = append(paths, r.path)
		}
		m.refresh()
		return m, cmdPersist(m.deps, m.question, msg.content, paths)

	case persistDoneMsg:
		if msg.err != nil {
			m.statusErr = msg.err
		}
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var taCmd, vpCmd tea.Cmd
	m.ta, taCmd = m.ta.Update(msg)
	m.vp, vpCmd = m.vp.Update(msg)
	return m, tea.Batch(taCmd, vpCmd)
}

func (m *model) refresh() {
	if !m.ready {
		return
	}
	wrap := lipgloss.NewStyle().Width(m.vp.Width)

	var b strings.Builder
	for _, e := range m.entries {
		switch e.kind {
		case entryUser:
			b.WriteString(m.theme.User.Render("you › ") + e.text)
		case entryAssistant:
			b.WriteString(m.theme.Assistant.Render(e.text))
		case entryChart:
			b.WriteString(m.theme.Chart.Render("↳ chart: " + e.text))
		case entryError:
			b.WriteString(m.theme.Error.Render("✗ " + e.text))
		}
		b.WriteString("\n\n")
	}
	if m.waiting && m.pending != "" {
		b.WriteString(m.theme.Assistant.Render(m.pending))
		b.WriteString("\n")
	}
	m.vp.SetContent(wrap.Render(b.String()))
	m.vp.GotoBottom()
}

func (m model) headerView() string {
	title := "plotloom"
	if m.deps.Session != nil {
		title = m.deps.Session.Title
	}
	names := make([]string, 0, len(m.deps.Frames))
	for name := range m.deps.Frames {
		names = append(names, name)
	}
	sort.Strings(names)
	sub := fmt.Sprintf("model %s · datasets: %s", m.deps.Model, strings.Join(names, ", "))
	return m.theme.Title.Render(title) + "\n" + m.theme.Subtitle.Render(sub) + "\n"
}

func (m model) View() string {
	if !m.ready {
		return "loading..."
	}
	status := m.theme.Help.Render("enter send • esc quit • ↑/↓ scroll")
	if m.waiting {
		status = m.spin.View() + m.theme.Help.Render(" thinking...")
	}
	if m.statusErr != nil {
		status = m.theme.Error.Render("⚠ save failed: " + m.statusErr.Error())
	}
	return m.headerView() +
		m.vp.View() + "\n" +
		m.theme.Card.Render(m.ta.View()) + "\n" +
		status
}
