// Package tui renders live optimization progress in an interactive terminal.
package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/pareto/internal/ui/style"
)

// headerLines is the number of lines View spends above the variant list.
const headerLines = 2

// UnitStatus represents the current state of a strategy variant.
type UnitStatus string

const (
	// StatusPending indicates the variant has not reported yet.
	StatusPending UnitStatus = "Pending"
	// StatusAdmitted indicates the variant's schedule joined the frontier.
	StatusAdmitted UnitStatus = "Admitted"
	// StatusRejected indicates the variant's schedule was dominated or a duplicate.
	StatusRejected UnitStatus = "Rejected"
	// StatusFailed indicates the variant produced no schedule.
	StatusFailed UnitStatus = "Failed"
)

// MsgPlan initializes the variant list.
type MsgPlan struct {
	Units []string
}

// MsgUnitComplete reports the outcome of one variant.
type MsgUnitComplete struct {
	Unit    string
	Outcome string
	Err     error
}

// UnitNode represents a single strategy variant in the UI list.
type UnitNode struct {
	Label  string
	Status UnitStatus
	Err    error
}

// Model represents the progress view state.
type Model struct {
	Units       []*UnitNode
	Completed   int
	Height      int
	Interrupted bool

	index   map[string]*UnitNode
	spinner spinner.Model
}

// NewModel creates a new progress model.
func NewModel() *Model {
	return &Model{
		index: make(map[string]*UnitNode),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(style.Iris)),
		),
	}
}

// Init starts the spinner.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.Interrupted = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Height = msg.Height

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case MsgPlan:
		m.Units = make([]*UnitNode, len(msg.Units))
		m.index = make(map[string]*UnitNode, len(msg.Units))
		m.Completed = 0
		for i, label := range msg.Units {
			m.Units[i] = &UnitNode{Label: label, Status: StatusPending}
			m.index[label] = m.Units[i]
		}

	case MsgUnitComplete:
		node, ok := m.index[msg.Unit]
		if !ok || node.Status != StatusPending {
			return m, nil
		}
		node.Status = statusFor(msg.Outcome, msg.Err)
		node.Err = msg.Err
		m.Completed++
	}

	return m, nil
}

func statusFor(outcome string, err error) UnitStatus {
	switch {
	case err != nil || outcome == "failed":
		return StatusFailed
	case outcome == "admitted":
		return StatusAdmitted
	default:
		return StatusRejected
	}
}

// window returns the slice of Units that fits the terminal, keeping the
// boundary between finished and pending variants in view.
func (m *Model) window() []*UnitNode {
	visible := m.Height - headerLines
	if visible <= 0 || len(m.Units) <= visible {
		return m.Units
	}
	start := m.Completed - visible/2
	start = max(0, min(start, len(m.Units)-visible))
	return m.Units[start : start+visible]
}
