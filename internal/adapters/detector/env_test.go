package detector_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trai.ch/pareto/internal/adapters/detector"
	"go.trai.ch/pareto/internal/core/domain"
)

func TestDetectEnvironment_CI(t *testing.T) {
	for _, ci := range []string{"true", "1"} {
		t.Run("CI="+ci, func(t *testing.T) {
			t.Setenv("CI", ci)
			assert.Equal(t, detector.FormatText, detector.DetectEnvironment())
		})
	}
}

func TestDetectEnvironment_NotATerminal(t *testing.T) {
	t.Setenv("CI", "")
	// go test never runs with a terminal on stdout.
	assert.Equal(t, detector.FormatText, detector.DetectEnvironment())
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want detector.Format
	}{
		{in: "", want: detector.FormatAuto},
		{in: "auto", want: detector.FormatAuto},
		{in: "table", want: detector.FormatTable},
		{in: "tui", want: detector.FormatTable},
		{in: "TEXT", want: detector.FormatText},
		{in: "ci", want: detector.FormatText},
		{in: " json ", want: detector.FormatJSON},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := detector.ParseFormat(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := detector.ParseFormat("yaml")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, "yaml", domain.Metadata(err)["format"])
}

func TestResolveFormat(t *testing.T) {
	assert.Equal(t, detector.FormatTable, detector.ResolveFormat(detector.FormatTable, detector.FormatAuto))
	assert.Equal(t, detector.FormatJSON, detector.ResolveFormat(detector.FormatTable, detector.FormatJSON))
	assert.Equal(t, detector.FormatText, detector.ResolveFormat(detector.FormatTable, detector.FormatText))
}

func TestFormat_String(t *testing.T) {
	assert.Equal(t, "auto", detector.FormatAuto.String())
	assert.Equal(t, "table", detector.FormatTable.String())
	assert.Equal(t, "text", detector.FormatText.String())
	assert.Equal(t, "json", detector.FormatJSON.String())
}
