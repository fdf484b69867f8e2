package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/nconklindev/tabula/internal/chart"

	"github.com/charmbracelet/lipgloss"
)

// barPalette colors one numeric column each, cycling when there are more.
var barPalette = []lipgloss.Color{colorAccent, colorAccentSoft, "#4ECDC4", "#A78BFA", "#F472B6", "#60A5FA"}

const (
	minBarWidth   = 10
	maxLabelWidth = 16
)

// RenderChart draws series as horizontal bars fitting width. Pie series
// are drawn as share-of-total bars with percentages.
func RenderChart(series *chart.Series, width int) string {
	if series == nil || series.Empty() {
		return SubtitleStyle.Render("No chartable data. Charts need a text column and a numeric column.")
	}

	switch series.Mode {
	case chart.ModePie:
		return renderSlices(series, width)
	default:
		return renderBars(series, width)
	}
}

func renderBars(series *chart.Series, width int) string {
	var s strings.Builder

	labels := make([]string, len(series.Bars))
	for i, p := range series.Bars {
		labels[i] = p.Name
	}
	labelWidth := labelColumnWidth(labels)
	barWidth := barSpace(width, labelWidth)

	var peak float64
	for _, p := range series.Bars {
		for _, col := range series.NumericColumns {
			peak = math.Max(peak, p.Value(col))
		}
	}

	// Legend
	legend := make([]string, len(series.NumericColumns))
	for i, col := range series.NumericColumns {
		legend[i] = lipgloss.NewStyle().Foreground(barColor(i)).Render("■ " + col)
	}
	s.WriteString(strings.Join(legend, "  "))
	s.WriteString("\n\n")

	for i, p := range series.Bars {
		for j, col := range series.NumericColumns {
			label := ""
			if j == 0 {
				label = labels[i]
			}
			value := p.Value(col)
			s.WriteString(fmt.Sprintf("%-*s ", labelWidth, fitLabel(label, labelWidth)))
			s.WriteString(lipgloss.NewStyle().Foreground(barColor(j)).Render(bar(value, peak, barWidth)))
			s.WriteString(" " + formatNumber(value))
			s.WriteString("\n")
		}
	}

	return strings.TrimRight(s.String(), "\n")
}

func renderSlices(series *chart.Series, width int) string {
	var s strings.Builder

	labels := make([]string, len(series.Slices))
	var total, peak float64
	for i, slice := range series.Slices {
		labels[i] = slice.Name
		total += slice.Value
		peak = math.Max(peak, slice.Value)
	}
	labelWidth := labelColumnWidth(labels)
	barWidth := barSpace(width, labelWidth)

	s.WriteString(SubtitleStyle.Render(fmt.Sprintf("%s by %s", series.NumericColumns[0], series.CategoryColumn)))
	s.WriteString("\n")

	for i, slice := range series.Slices {
		share := 0.0
		if total != 0 {
			share = slice.Value / total * 100
		}
		s.WriteString(fmt.Sprintf("%-*s ", labelWidth, fitLabel(labels[i], labelWidth)))
		s.WriteString(lipgloss.NewStyle().Foreground(barColor(i)).Render(bar(slice.Value, peak, barWidth)))
		s.WriteString(fmt.Sprintf(" %5.1f%% (%s)", share, formatNumber(slice.Value)))
		s.WriteString("\n")
	}

	return strings.TrimRight(s.String(), "\n")
}

// bar returns a run of blocks proportional to value/peak. Non-positive
// values draw nothing.
func bar(value, peak float64, width int) string {
	if value <= 0 || peak <= 0 {
		return ""
	}
	n := int(math.Round(value / peak * float64(width)))
	if n == 0 {
		n = 1
	}
	return strings.Repeat("█", n)
}

func barColor(i int) lipgloss.Color {
	return barPalette[i%len(barPalette)]
}

func labelColumnWidth(labels []string) int {
	w := 0
	for _, l := range labels {
		w = max(w, lipgloss.Width(l))
	}
	return min(w, maxLabelWidth)
}

func barSpace(width, labelWidth int) int {
	// label, spaces, and room for the value suffix
	return max(width-labelWidth-24, minBarWidth)
}

func fitLabel(label string, width int) string {
	runes := []rune(label)
	if len(runes) <= width {
		return label
	}
	return string(runes[:width-1]) + "…"
}

func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
