// Package detector selects how results are presented for the current environment.
package detector

import (
	"os"
	"strings"

	"go.trai.ch/pareto/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/term"
)

// Format is how a run result is written to stdout.
type Format int

const (
	// FormatAuto defers to DetectEnvironment.
	FormatAuto Format = iota
	// FormatTable draws lipgloss tables for interactive terminals.
	FormatTable
	// FormatText writes plain line-oriented output for pipes and CI.
	FormatText
	// FormatJSON writes the result document as JSON.
	FormatJSON
)

// String returns the flag spelling of the format.
func (f Format) String() string {
	switch f {
	case FormatTable:
		return "table"
	case FormatText:
		return "text"
	case FormatJSON:
		return "json"
	default:
		return "auto"
	}
}

// DetectEnvironment returns the recommended format based on the environment.
// It checks if stdout is a TTY and if CI environment variables are set.
func DetectEnvironment() Format {
	isTTY := term.IsTerminal(int(os.Stdout.Fd())) //nolint:gosec // Fd fits in int on supported platforms

	ci := os.Getenv("CI")
	isCI := ci == "true" || ci == "1"

	if !isTTY || isCI {
		return FormatText
	}
	return FormatTable
}

// ParseFormat converts a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "table", "tui":
		return FormatTable, nil
	case "text", "linear", "ci":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatAuto, zerr.With(zerr.Wrap(domain.ErrInvalidInput, "unknown output format"), "format", s)
	}
}

// ResolveFormat applies the user's choice to the detected format.
func ResolveFormat(detected, requested Format) Format {
	if requested == FormatAuto {
		return detected
	}
	return requested
}
