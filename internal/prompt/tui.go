package prompt

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	optionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	indexStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// ErrAborted is returned when the operator cancels a prompt.
var ErrAborted = errors.New("prompt aborted")

// TUIPrompter renders prompts with bubbletea when a terminal is
// attached, falling back to line input when the TUI cannot start.
// Answers keep the same semantics as the LinePrompter: a typed 1-based
// index for selections, y/n for confirmations.
type TUIPrompter struct {
	fallback *LinePrompter
}

// Confirm asks a yes/no question.
func (t *TUIPrompter) Confirm(question string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}

	value, canceled, err := runInput(newInputModel(question, nil, "answer "+hint+", enter to accept"))
	if err != nil {
		return t.fallback.Confirm(question, def)
	}
	if canceled {
		return false, ErrAborted
	}
	return parseYesNo(value, def), nil
}

// Select presents a numbered list and reads a 1-based index.
func (t *TUIPrompter) Select(title string, options []string) (int, error) {
	hint := fmt.Sprintf("type a number 1-%d, enter to accept", len(options))
	value, canceled, err := runInput(newInputModel(title, options, hint))
	if err != nil {
		return t.fallback.Select(title, options)
	}
	if canceled {
		return 0, ErrAborted
	}
	return parseSelection(value, len(options))
}

type inputModel struct {
	title    string
	options  []string
	hint     string
	input    textinput.Model
	value    string
	canceled bool
}

func newInputModel(title string, options []string, hint string) inputModel {
	ti := textinput.New()
	ti.Width = 8
	ti.Focus()

	return inputModel{
		title:   title,
		options: options,
		hint:    hint,
		input:   ti,
	}
}

// Init implements tea.Model
func (m inputModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.value = m.input.Value()
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.canceled = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model
func (m inputModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")

	if len(m.options) > 0 {
		b.WriteString("\n")
		for i, option := range m.options {
			index := indexStyle.Render(fmt.Sprintf("%d)", i+1))
			b.WriteString(fmt.Sprintf("  %s %s\n", index, optionStyle.Render(option)))
		}
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.hint))
	b.WriteString("\n")

	return b.String()
}

// runInput runs the prompt on the status stream and returns the typed
// answer.
func runInput(m inputModel) (string, bool, error) {
	p := tea.NewProgram(m, tea.WithOutput(os.Stderr))
	res, err := p.Run()
	if err != nil {
		return "", false, err
	}

	final, ok := res.(inputModel)
	if !ok {
		return "", false, errors.New("unexpected prompt model")
	}
	return final.value, final.canceled, nil
}
