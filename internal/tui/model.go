// Package tui provides an interactive terminal UI for querying the code
// search index.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"coderag/internal/domain"
)

// SearchPort is the TUI-facing subset of the search service.
type SearchPort interface {
	Search(ctx context.Context, query string, topK int, repoFilter string) ([]domain.SearchResult, error)
}

// Model is the Bubble Tea model for the interactive search session.
type Model struct {
	service    SearchPort
	repoFilter string
	topK       int
	input      textinput.Model
	viewport   viewport.Model
	results    []domain.SearchResult
	status     string
	cursor     int
	ready      bool
}

// New creates a new TUI model. An empty repoFilter searches every indexed
// repository.
func New(service SearchPort, repoFilter string, topK int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type query and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	scope := "all repositories"
	if repoFilter != "" {
		scope = repoFilter
	}
	return Model{
		service:    service,
		repoFilter: repoFilter,
		topK:       topK,
		input:      ti,
		viewport:   vp,
		status:     "Searching " + scope + ". Type to search.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around result and query boxes
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header + status + query box + spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderCurrentResult())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				res, err := m.service.Search(context.Background(), q, m.topK, m.repoFilter)
				if err != nil {
					m.status = "Error: " + err.Error()
					m.results = nil
				} else if len(res) == 0 {
					m.status = fmt.Sprintf("No matches for %q", q)
					m.results = nil
				} else {
					m.status = fmt.Sprintf("%d results for %q", len(res), q)
					m.results = res
					m.cursor = 0
				}
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "down":
			if len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "up":
			if len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout and current result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Code Search")
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderCurrentResult() string {
	if len(m.results) == 0 {
		return "No results yet."
	}
	r := m.results[m.cursor]
	title := titleStyle.Render(fmt.Sprintf("Result %d/%d  %s (%s)  score=%.3f",
		m.cursor+1, len(m.results), r.Meta.File, r.Meta.Repo, r.Score))
	lang := r.Meta.Language
	if lang == "" {
		lang = "text"
	}
	return title + "\n\n" + fmt.Sprintf("```%s\n%s\n```", lang, r.Meta.Code)
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)
