package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docchat/internal/chat"
	"docchat/internal/models"
)

// SessionPort is the TUI-facing subset of the session controller.
type SessionPort interface {
	StartSession(ctx context.Context, documentText string) (string, error)
	ResetSession(id string) error
	SubmitQuery(ctx context.Context, id, query string) (chat.Answer, error)
	History(id string) ([]models.Turn, error)
	IndexSize(id string) (int, error)
}

// Model is the Bubble Tea model for the chat transcript view.
type Model struct {
	controller SessionPort
	sessionID  string
	docText    string
	docName    string
	input      textinput.Model
	viewport   viewport.Model
	status     string
	thinking   bool
	ready      bool
}

type answerMsg struct {
	answer chat.Answer
	err    error
}

type resetMsg struct {
	sessionID string
	err       error
}

// New creates the chat view over an already started session. docText is
// kept so ctrl+r can rebuild a fresh session from the same document.
func New(controller SessionPort, sessionID, docName, docText string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about the document and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		controller: controller,
		sessionID:  sessionID,
		docText:    docText,
		docName:    docName,
		input:      ti,
		viewport:   vp,
		status:     "Ready. Type a question, ctrl+r resets the session, ctrl+c quits.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptStyle.GetFrameSize()
		_, qh := inputStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1
		vh := msg.Height - reserved - th
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderTranscript())
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.thinking {
				return m, nil
			}
			m.thinking = true
			m.status = "Thinking..."
			m.input.Reset()
			return m, m.submitCmd(q)
		case "ctrl+r":
			if m.thinking {
				return m, nil
			}
			m.status = "Resetting session..."
			return m, m.resetCmd()
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}

	case answerMsg:
		m.thinking = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else if len(msg.answer.Sources) > 0 {
			top := msg.answer.Sources[0]
			m.status = fmt.Sprintf("Answered from %d passages (best score %.3f)", len(msg.answer.Sources), top.Score)
		} else {
			m.status = "Answered without document context"
		}
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case resetMsg:
		if msg.err != nil {
			m.status = "Reset failed: " + msg.err.Error()
			return m, nil
		}
		m.sessionID = msg.sessionID
		m.status = "Session reset. Fresh index built."
		m.viewport.SetContent(m.renderTranscript())
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	size, _ := m.controller.IndexSize(m.sessionID)
	header := headerStyle.Render("docchat")
	info := infoStyle.Render(infoLine(m.docName, size))
	transcript := transcriptStyle.Render(m.viewport.View())
	input := inputStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + info + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) submitCmd(query string) tea.Cmd {
	controller, id := m.controller, m.sessionID
	return func() tea.Msg {
		answer, err := controller.SubmitQuery(context.Background(), id, query)
		return answerMsg{answer: answer, err: err}
	}
}

func (m Model) resetCmd() tea.Cmd {
	controller, id, text := m.controller, m.sessionID, m.docText
	return func() tea.Msg {
		if err := controller.ResetSession(id); err != nil {
			return resetMsg{err: err}
		}
		fresh, err := controller.StartSession(context.Background(), text)
		return resetMsg{sessionID: fresh, err: err}
	}
}

func infoLine(docName string, chunks int) string {
	return fmt.Sprintf("%s - %d chunks indexed", docName, chunks)
}

func (m Model) renderTranscript() string {
	history, err := m.controller.History(m.sessionID)
	if err != nil {
		return "Session unavailable: " + err.Error()
	}
	if len(history) == 0 {
		return "No messages yet."
	}
	var b strings.Builder
	for _, turn := range history {
		switch turn.Role {
		case models.RoleUser:
			b.WriteString(userStyle.Render("You: ") + turn.Text)
		case models.RoleAssistant:
			b.WriteString(assistantStyle.Render("Assistant: ") + turn.Text)
		case models.RoleError:
			b.WriteString(errorStyle.Render("Error: " + turn.Text))
		}
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

var (
	headerStyle     = lipgloss.NewStyle().Bold(true)
	infoStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	userStyle       = lipgloss.NewStyle().Bold(true)
	assistantStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)
