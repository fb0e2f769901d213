// Package selector implements the interactive terminal prompts used by the
// configure command: picking a capture device and yes/no confirmation.
package selector

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/smazurov/tyncan/internal/inventory"
)

// ErrCancelled is returned when the user quits a prompt without answering.
var ErrCancelled = errors.New("selection cancelled")

// ErrNoDevices is returned by Select and First for an empty inventory.
var ErrNoDevices = errors.New("no capture devices to select from")

// Model is the Bubble Tea model for the device list.
type Model struct {
	title     string
	devices   []inventory.CaptureDevice
	cursor    int
	chosen    bool
	cancelled bool
}

// NewModel returns a list model with the cursor on the first device.
func NewModel(title string, devices []inventory.CaptureDevice) Model {
	return Model{title: title, devices: devices}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "q", "esc", "ctrl+c":
		m.cancelled = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.devices)-1 {
			m.cursor++
		}

	case "home", "g":
		m.cursor = 0

	case "end", "G":
		m.cursor = len(m.devices) - 1

	case "enter", " ":
		m.chosen = true
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) View() string {
	if m.chosen || m.cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(Title.Render(m.title))
	b.WriteString("\n\n")

	for i, dev := range m.devices {
		if i == m.cursor {
			fmt.Fprintf(&b, "  %s %s\n", Cursor.Render(">"), Text.Bold(true).Render(dev.String()))
		} else {
			fmt.Fprintf(&b, "    %s\n", Muted.Render(dev.String()))
		}
	}

	b.WriteString(HelpBar.Render(
		HelpKey.Render("j/k") + " navigate  " +
			HelpKey.Render("enter") + " select  " +
			HelpKey.Render("q") + " quit",
	))
	b.WriteString("\n")
	return b.String()
}

// Selected reports the device under the cursor and whether it was chosen.
func (m Model) Selected() (inventory.CaptureDevice, bool) {
	if !m.chosen || len(m.devices) == 0 {
		return inventory.CaptureDevice{}, false
	}
	return m.devices[m.cursor], true
}

// Select shows the device list and blocks until the user picks one.
func Select(devices []inventory.CaptureDevice, opts ...tea.ProgramOption) (inventory.CaptureDevice, error) {
	if len(devices) == 0 {
		return inventory.CaptureDevice{}, ErrNoDevices
	}

	final, err := tea.NewProgram(NewModel("Select an audio capture device", devices), opts...).Run()
	if err != nil {
		return inventory.CaptureDevice{}, fmt.Errorf("failed to run device selector: %w", err)
	}

	dev, ok := final.(Model).Selected()
	if !ok {
		return inventory.CaptureDevice{}, ErrCancelled
	}
	return dev, nil
}

// First is the non-interactive counterpart of Select used by --auto.
func First(devices []inventory.CaptureDevice) (inventory.CaptureDevice, error) {
	if len(devices) == 0 {
		return inventory.CaptureDevice{}, ErrNoDevices
	}
	return devices[0], nil
}
