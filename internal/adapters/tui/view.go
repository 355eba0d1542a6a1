package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/pareto/internal/ui/style"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Background(style.Iris).
			Foreground(style.White)

	countStyle = lipgloss.NewStyle().
			Foreground(style.Slate)

	admittedStyle = lipgloss.NewStyle().
			Foreground(style.Green)

	rejectedStyle = lipgloss.NewStyle().
			Foreground(style.Slate).
			Faint(true)

	failedStyle = lipgloss.NewStyle().
			Foreground(style.Red)
)

// View renders the current state of the model as a string.
func (m *Model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("OPTIMIZING"))
	s.WriteString(countStyle.Render(fmt.Sprintf(" %d/%d variants", m.Completed, len(m.Units))))
	s.WriteString("\n\n")

	for _, u := range m.window() {
		var line string
		switch u.Status {
		case StatusAdmitted:
			line = admittedStyle.Render(style.Check + " " + u.Label)
		case StatusRejected:
			line = rejectedStyle.Render(style.Tilde + " " + u.Label)
		case StatusFailed:
			line = failedStyle.Render(style.Cross + " " + u.Label)
			if u.Err != nil {
				line += countStyle.Render(": " + u.Err.Error())
			}
		default:
			line = m.spinner.View() + " " + u.Label
		}
		s.WriteString(line + "\n")
	}

	return s.String()
}
