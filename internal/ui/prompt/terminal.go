// File: internal/ui/prompt/terminal.go
package prompt

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	messageStyle = lipgloss.NewStyle().Bold(true)
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
)

// TerminalPrompter asks for confirmation through an inline text input
type TerminalPrompter struct {
	reader io.Reader
	writer io.Writer
}

func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{reader: in, writer: out}
}

func (p *TerminalPrompter) Confirm(message string, expectedValue string) (bool, error) {
	if expectedValue == "" {
		return false, fmt.Errorf("expected confirmation value cannot be empty")
	}

	program := tea.NewProgram(newConfirmModel(message, expectedValue), tea.WithInput(p.reader), tea.WithOutput(p.writer))
	final, err := program.Run()
	if err != nil {
		return false, fmt.Errorf("error running confirmation prompt: %w", err)
	}

	m, ok := final.(confirmModel)
	if !ok {
		return false, fmt.Errorf("unexpected prompt model %T", final)
	}
	return m.confirmed, nil
}

type confirmModel struct {
	message   string
	expected  string
	input     textinput.Model
	done      bool
	confirmed bool
}

func newConfirmModel(message, expected string) confirmModel {
	ti := textinput.New()
	ti.Placeholder = expected
	ti.Prompt = "> "
	ti.CharLimit = 64
	ti.Focus()

	return confirmModel{message: message, expected: expected, input: ti}
}

// Init implements tea.Model.
func (m confirmModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			m.done = true
			m.confirmed = strings.TrimSpace(m.input.Value()) == m.expected
			return m, tea.Quit
		case "ctrl+c", "esc":
			m.done = true
			m.confirmed = false
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m confirmModel) View() string {
	if m.done {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(messageStyle.Render(m.message))
	sb.WriteString("\n")
	sb.WriteString(hintStyle.Render(fmt.Sprintf("Only '%s' will be accepted to approve. Esc cancels.", m.expected)))
	sb.WriteString("\n\n")
	sb.WriteString(m.input.View())
	sb.WriteString("\n")
	return sb.String()
}
