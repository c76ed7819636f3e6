package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docrag/internal/domain"
)

// Pipeline is the TUI-facing subset of the document service.
type Pipeline interface {
	Search(ctx context.Context, docID, query string) ([]domain.SearchResult, error)
	Answer(ctx context.Context, question, docID string, contextChunks []string) (string, error)
}

type mode int

const (
	modeSearch mode = iota
	modeAsk
)

// Model is the Bubble Tea model for the interactive session.
type Model struct {
	service  Pipeline
	docID    string
	filename string
	summary  string
	input    textinput.Model
	viewport viewport.Model
	results  []domain.SearchResult
	answer   string
	mode     mode
	cursor   int
	ready    bool
	status   string
}

// New creates a TUI session over one ingested document.
func New(service Pipeline, docID, filename, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a search query and press Enter (Tab switches to ask mode)"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		service:  service,
		docID:    docID,
		filename: filename,
		summary:  summary,
		input:    ti,
		viewport: vp,
		status:   "Document loaded. Type to search.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 3 + qh + 1 // header, summary, status, query box, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderBody())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "tab":
			if m.mode == modeSearch {
				m.mode = modeAsk
				m.input.Placeholder = "Ask a question about the document (Tab switches to search mode)"
			} else {
				m.mode = modeSearch
				m.input.Placeholder = "Type a search query and press Enter (Tab switches to ask mode)"
			}
			return m, nil
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				return m, nil
			}
			if m.mode == modeAsk {
				m.runAsk(q)
			} else {
				m.runSearch(q)
			}
			m.viewport.SetContent(m.renderBody())
			return m, nil
		case "down":
			if m.mode == modeSearch && len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.renderBody())
				return m, nil
			}
		case "up":
			if m.mode == modeSearch && len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.renderBody())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) runSearch(query string) {
	res, err := m.service.Search(context.Background(), m.docID, query)
	if err != nil {
		m.status = "Error: " + err.Error()
		m.results = nil
		return
	}
	m.status = fmt.Sprintf("Results for %q", query)
	m.results = res
	m.cursor = 0
	m.answer = ""
}

func (m *Model) runAsk(question string) {
	answer, err := m.service.Answer(context.Background(), question, m.docID, nil)
	if err != nil {
		m.status = "Error: " + err.Error()
		m.answer = ""
		return
	}
	m.status = fmt.Sprintf("Answer for %q", question)
	m.answer = answer
	m.results = nil
}

// View renders the TUI layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("docrag — " + m.filename)
	summary := summaryStyle.Render(m.summary)
	body := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + summary + "\n" + body + "\n" + input + "\n" + status
}

func (m Model) renderBody() string {
	if m.answer != "" {
		return m.answer
	}
	if len(m.results) == 0 {
		return "No results yet."
	}
	r := m.results[m.cursor]
	title := fmt.Sprintf("Result %d/%d  score=%.3f", m.cursor+1, len(m.results), r.Score)
	meta := metadataStyle.Render(r.Metadata)
	return title + "\n" + meta + "\n\n" + r.Chunk
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	summaryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	metadataStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Italic(true)
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
