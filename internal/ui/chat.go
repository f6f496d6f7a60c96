package ui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// QueryFunc answers a single question.
type QueryFunc func(ctx context.Context, question string) (string, error)

type chatEntry struct {
	question string
	answer   string
	failed   bool
}

type answerMsg struct {
	answer string
}

type answerErrMsg struct {
	err error
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3B82F6"))
	questionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	hintStyle     = lipgloss.NewStyle().Faint(true)
	inputStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
)

// ChatModel is an interactive question loop over a loaded index.
type ChatModel struct {
	queryFn QueryFunc

	width    int
	height   int
	input    string
	history  []chatEntry
	waiting  bool
	quitting bool
	ready    bool
}

// NewChatModel creates a chat model backed by queryFn.
func NewChatModel(queryFn QueryFunc) *ChatModel {
	return &ChatModel{queryFn: queryFn}
}

// Init initializes the chat model
func (m *ChatModel) Init() tea.Cmd {
	return tea.EnterAltScreen
}

// Update handles messages
func (m *ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case tea.KeyMsg:
		return m.handleKey(msg)

	case answerMsg:
		m.waiting = false
		if len(m.history) > 0 {
			m.history[len(m.history)-1].answer = msg.answer
		}

	case answerErrMsg:
		m.waiting = false
		if len(m.history) > 0 {
			m.history[len(m.history)-1].answer = msg.err.Error()
			m.history[len(m.history)-1].failed = true
		}
	}

	return m, nil
}

func (m *ChatModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.quitting = true
		return m, tea.Quit

	case tea.KeyEnter:
		question := strings.TrimSpace(m.input)
		if question == "" || m.waiting {
			return m, nil
		}
		m.history = append(m.history, chatEntry{question: question})
		m.input = ""
		m.waiting = true
		return m, m.ask(question)

	case tea.KeyBackspace:
		if len(m.input) > 0 {
			runes := []rune(m.input)
			m.input = string(runes[:len(runes)-1])
		}

	case tea.KeySpace:
		m.input += " "

	case tea.KeyRunes:
		m.input += string(msg.Runes)
	}

	return m, nil
}

func (m *ChatModel) ask(question string) tea.Cmd {
	return func() tea.Msg {
		answer, err := m.queryFn(context.Background(), question)
		if err != nil {
			return answerErrMsg{err: err}
		}
		return answerMsg{answer: answer}
	}
}

// View renders the chat model
func (m *ChatModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.quitting {
		return "Bye!\n"
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("doclama chat"))
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("Ask about your documents. Esc or Ctrl+C to quit."))
	b.WriteString("\n\n")

	for _, entry := range m.history {
		b.WriteString(questionStyle.Render("? " + entry.question))
		b.WriteString("\n")

		switch {
		case entry.answer == "":
			b.WriteString(hintStyle.Render("thinking..."))
		case entry.failed:
			b.WriteString(errorStyle.Render(entry.answer))
		default:
			b.WriteString(entry.answer)
		}
		b.WriteString("\n\n")
	}

	prompt := "> " + m.input
	if !m.waiting {
		prompt += "_"
	}
	b.WriteString(inputStyle.Render(prompt))
	b.WriteString("\n")

	return b.String()
}

// RunChat runs the interactive chat loop.
func RunChat(queryFn QueryFunc) error {
	model := NewChatModel(queryFn)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
