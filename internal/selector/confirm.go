package selector

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// ConfirmModel is a single yes/no question.
type ConfirmModel struct {
	prompt    string
	value     bool
	answered  bool
	cancelled bool
}

// NewConfirmModel returns a prompt preselected to def.
func NewConfirmModel(prompt string, def bool) ConfirmModel {
	return ConfirmModel{prompt: prompt, value: def}
}

func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "esc", "q":
		m.cancelled = true
		return m, tea.Quit
	case "y", "Y":
		m.value = true
		m.answered = true
		return m, tea.Quit
	case "n", "N":
		m.value = false
		m.answered = true
		return m, tea.Quit
	case "left", "right", "h", "l", "tab":
		m.value = !m.value
	case "enter":
		m.answered = true
		return m, tea.Quit
	}
	return m, nil
}

func (m ConfirmModel) View() string {
	if m.answered || m.cancelled {
		return ""
	}

	yes, no := Muted.Render("yes"), Muted.Render("no")
	if m.value {
		yes = Success.Render("yes")
	} else {
		no = Error.Render("no")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s / %s\n", Title.Render(m.prompt), yes, no)
	return b.String()
}

// Answer returns the chosen value and whether the user answered.
func (m ConfirmModel) Answer() (value, ok bool) {
	return m.value, m.answered
}

// Confirm asks a yes/no question and blocks until answered.
func Confirm(prompt string, def bool, opts ...tea.ProgramOption) (bool, error) {
	final, err := tea.NewProgram(NewConfirmModel(prompt, def), opts...).Run()
	if err != nil {
		return false, fmt.Errorf("failed to run confirmation prompt: %w", err)
	}

	value, ok := final.(ConfirmModel).Answer()
	if !ok {
		return false, ErrCancelled
	}
	return value, nil
}
