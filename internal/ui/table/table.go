// Package table renders optimization results as lipgloss tables.
package table

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"go.trai.ch/pareto/internal/core/domain"
	"go.trai.ch/pareto/internal/ui/style"
)

// Frontier renders one row per frontier schedule with its score vector.
func Frontier(result *domain.Result) string {
	headers := append([]string{"#", "schedule", "strategy", "span"}, result.Objectives...)

	rows := make([][]string, 0, len(result.Frontier))
	for i, s := range result.Frontier {
		row := []string{
			strconv.Itoa(i + 1),
			ShortID(s),
			s.Strategy,
			strconv.FormatInt(s.Span, 10),
		}
		for _, v := range s.Scores() {
			row = append(row, FormatScore(v))
		}
		rows = append(rows, row)
	}

	return render(headers, rows, func(col int) bool {
		return col == 0 || col >= 3
	})
}

// Assignments renders the placement of every task in s.
func Assignments(s *domain.Schedule) string {
	headers := []string{"task", "category", "start", "finish", "track"}
	rows := make([][]string, 0, len(s.Assignments))
	for _, a := range s.Assignments {
		rows = append(rows, []string{
			a.TaskID.String(),
			string(a.Category),
			strconv.FormatInt(a.Start, 10),
			strconv.FormatInt(a.Finish(), 10),
			strconv.Itoa(a.Track),
		})
	}
	return render(headers, rows, func(col int) bool {
		return col >= 2
	})
}

// ShortID abbreviates a schedule ID for display.
func ShortID(s *domain.Schedule) string {
	return s.ID.String()[:8]
}

// FormatScore prints the shortest representation of a score.
// Negative zero, produced by minimized objectives, prints as 0.
func FormatScore(v float64) string {
	if v == 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func render(headers []string, rows [][]string, numeric func(col int) bool) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(style.Border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return style.Header
			case numeric(col):
				return style.Number
			default:
				return style.Cell
			}
		})
	return t.String()
}
