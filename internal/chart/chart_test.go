package chart

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/nconklindev/tabula/internal/types"
)

func newTable(rows ...[][2]any) *types.Table {
	table := &types.Table{}
	for _, pairs := range rows {
		rec := types.NewRecord()
		for _, p := range pairs {
			rec.Set(p[0].(string), p[1])
		}
		table.Rows = append(table.Rows, rec)
	}
	return table
}

func TestIsNumeric(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"Integer", "10", true},
		{"Decimal", "1.5", true},
		{"Negative", "-3", true},
		{"Padded", " 7 ", true},
		{"Empty string", "", false},
		{"Whitespace", "   ", false},
		{"Text", "east", false},
		{"NaN", "NaN", false},
		{"Inf", "Inf", false},
		{"Mixed", "1.5h", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNumeric(tt.input); got != tt.expected {
				t.Errorf("IsNumeric(%q) = %v; want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	table := newTable(
		[][2]any{{"region", "east"}, {"sales", 10.0}, {"units", "5"}, {"active", true}, {"note", nil}},
	)

	cols := Classify(table)
	if fmt.Sprint(cols.Numeric) != "[sales units]" {
		t.Errorf("Numeric = %v; want [sales units]", cols.Numeric)
	}
	if fmt.Sprint(cols.Categorical) != "[region]" {
		t.Errorf("Categorical = %v; want [region]", cols.Categorical)
	}
}

func TestClassify_FirstRowOnly(t *testing.T) {
	// The second row would make "code" categorical, but only the first row
	// is sampled.
	table := newTable(
		[][2]any{{"code", "100"}, {"label", "a"}},
		[][2]any{{"code", "A-7"}, {"label", "b"}},
	)

	cols := Classify(table)
	if len(cols.Numeric) != 1 || cols.Numeric[0] != "code" {
		t.Errorf("Expected code to be numeric from the first row, got %v", cols.Numeric)
	}

	series := Project(table, ModeBar)
	if got := series.Bars[1].Value("code"); got != 0 {
		t.Errorf("Expected non-numeric later value to cast to 0, got %f", got)
	}
}

func TestProject_Bar(t *testing.T) {
	table := newTable(
		[][2]any{{"region", "east"}, {"sales", 10.0}},
		[][2]any{{"region", "west"}, {"sales", 20.0}},
	)

	series := Project(table, ModeBar)
	if len(series.Bars) != 2 {
		t.Fatalf("Expected 2 bars, got %d", len(series.Bars))
	}

	out, err := json.Marshal(series.Bars)
	if err != nil {
		t.Fatal(err)
	}
	expected := `[{"name":"east","sales":10},{"name":"west","sales":20}]`
	if string(out) != expected {
		t.Errorf("Bars = %s; want %s", out, expected)
	}
}

func TestProject_BarSynthesizedLabelsAndCap(t *testing.T) {
	table := &types.Table{}
	for i := 0; i < 15; i++ {
		rec := types.NewRecord()
		rec.Set("a", float64(i))
		table.Rows = append(table.Rows, rec)
	}

	series := Project(table, ModeBar)
	if len(series.Bars) != BarRowLimit {
		t.Fatalf("Expected %d bars, got %d", BarRowLimit, len(series.Bars))
	}
	if series.Bars[0].Name != "Row 1" || series.Bars[9].Name != "Row 10" {
		t.Errorf("Unexpected labels %s, %s", series.Bars[0].Name, series.Bars[9].Name)
	}
	if series.Bars[9].Value("a") != 9 {
		t.Errorf("Expected 9, got %f", series.Bars[9].Value("a"))
	}
}

func TestProject_Pie(t *testing.T) {
	table := newTable(
		[][2]any{{"region", "east"}, {"sales", 10.0}},
		[][2]any{{"region", "east"}, {"sales", 5.0}},
		[][2]any{{"region", "west"}, {"sales", 20.0}},
	)

	series := Project(table, ModePie)
	out, err := json.Marshal(series.Slices)
	if err != nil {
		t.Fatal(err)
	}
	expected := `[{"name":"east","value":15},{"name":"west","value":20}]`
	if string(out) != expected {
		t.Errorf("Slices = %s; want %s", out, expected)
	}
}

func TestProject_PieAggregatesAllRows(t *testing.T) {
	table := &types.Table{}
	for i := 0; i < 25; i++ {
		rec := types.NewRecord()
		rec.Set("team", "blue")
		rec.Set("points", "2")
		table.Rows = append(table.Rows, rec)
	}
	last := types.NewRecord()
	last.Set("team", "")
	last.Set("points", "3")
	table.Rows = append(table.Rows, last)

	series := Project(table, ModePie)
	if len(series.Slices) != 2 {
		t.Fatalf("Expected 2 slices, got %d", len(series.Slices))
	}
	if series.Slices[0].Value != 50 {
		t.Errorf("Expected 50, got %f", series.Slices[0].Value)
	}
	if series.Slices[1].Name != UnknownCategory || series.Slices[1].Value != 3 {
		t.Errorf("Unexpected slice %+v", series.Slices[1])
	}
}

func TestProject_Unsuitable(t *testing.T) {
	tests := []struct {
		name  string
		table *types.Table
		mode  Mode
	}{
		{"Empty table", &types.Table{}, ModeBar},
		{"No numeric columns", newTable([][2]any{{"a", "x"}, {"b", "y"}}), ModeBar},
		{"Pie without categories", newTable([][2]any{{"a", 1.0}, {"b", 2.0}}), ModePie},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series := Project(tt.table, tt.mode)
			if !series.Empty() {
				t.Errorf("Expected empty series, got %+v", series)
			}
		})
	}
}

func TestToNumber(t *testing.T) {
	tests := []struct {
		input    any
		expected float64
	}{
		{12.5, 12.5},
		{"3", 3},
		{"abc", 0},
		{"", 0},
		{true, 1},
		{nil, 0},
		{[]any{1}, 0},
	}

	for _, tt := range tests {
		if got := ToNumber(tt.input); got != tt.expected {
			t.Errorf("ToNumber(%v) = %f; want %f", tt.input, got, tt.expected)
		}
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("PIE"); err != nil || m != ModePie {
		t.Errorf("ParseMode(PIE) = %s, %v", m, err)
	}
	if _, err := ParseMode("line"); err == nil {
		t.Errorf("Expected error for unknown mode")
	}
}
