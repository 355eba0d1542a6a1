// Package style provides shared colors, icons and lipgloss styles so that
// logs, progress lines and result tables look alike.
package style

import "github.com/charmbracelet/lipgloss"

// Brand Colors.
var (
	Iris   = lipgloss.Color("#8B5CF6")
	Slate  = lipgloss.Color("#667085")
	White  = lipgloss.Color("#FFFFFF")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Tilde   = "~"
	Dot     = "●"
	Circle  = "○"
)

// Table styles.
var (
	Header = lipgloss.NewStyle().Bold(true).Foreground(Iris).Padding(0, 1)
	Cell   = lipgloss.NewStyle().Padding(0, 1)
	Number = Cell.Align(lipgloss.Right)
	Border = lipgloss.NewStyle().Foreground(Slate)
)
