package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nconklindev/tabula/internal/chart"
	"github.com/nconklindev/tabula/internal/converter"
	"github.com/nconklindev/tabula/internal/storage"
	"github.com/nconklindev/tabula/internal/types"

	tea "github.com/charmbracelet/bubbletea"
)

const salesCSV = "region,sales\nNorth,10\nSouth,5\nNorth,2\n"

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func loadedModel(t *testing.T, opts Options) Model {
	t.Helper()

	decoded, err := converter.Decode("sales.csv", []byte(salesCSV))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	m := InitialModel(opts)
	m.selectedFile = "sales.csv"
	return update(t, m, fileLoadedMsg{data: []byte(salesCSV), decoded: decoded})
}

func TestFileLoaded(t *testing.T) {
	m := loadedModel(t, Options{})

	if m.state != statePreview {
		t.Fatalf("state = %v, want preview", m.state)
	}
	if m.target != types.FormatJSON {
		t.Errorf("target = %q, want json", m.target)
	}
	if got := len(m.preview.Rows()); got != 3 {
		t.Errorf("preview rows = %d, want 3", got)
	}
	if !strings.Contains(m.View(), "detected csv") {
		t.Error("preview view does not show the detected format")
	}
}

func TestFileLoaded_Error(t *testing.T) {
	m := update(t, InitialModel(Options{}), fileLoadedMsg{err: converter.ErrUnknownFormat})

	if m.state != stateError {
		t.Fatalf("state = %v, want error", m.state)
	}
	if !strings.Contains(m.View(), "determine file format") {
		t.Errorf("error view = %q", m.View())
	}
}

func TestTargetCycling(t *testing.T) {
	m := loadedModel(t, Options{})

	tests := []struct {
		key  string
		want types.Format
	}{
		{"tab", types.FormatXLSX},
		{"tab", types.FormatCSV},
		{"shift+tab", types.FormatXLSX},
		{"h", types.FormatJSON},
	}

	for _, tt := range tests {
		m = update(t, m, key(tt.key))
		if m.target != tt.want {
			t.Fatalf("after %q target = %q, want %q", tt.key, m.target, tt.want)
		}
	}
}

func TestChartToggle(t *testing.T) {
	m := loadedModel(t, Options{})

	m = update(t, m, key("c"))
	if m.state != stateChart {
		t.Fatalf("state = %v, want chart", m.state)
	}
	if m.series.Mode != chart.ModeBar || len(m.series.Bars) != 3 {
		t.Errorf("series = %+v, want 3 bars", m.series)
	}

	m = update(t, m, key("m"))
	if m.series.Mode != chart.ModePie || len(m.series.Slices) != 2 {
		t.Errorf("series = %+v, want 2 slices", m.series)
	}

	m = update(t, m, key("esc"))
	if m.state != statePreview {
		t.Errorf("state = %v, want preview", m.state)
	}
}

func TestConversionComplete(t *testing.T) {
	m := loadedModel(t, Options{})
	m.state = stateProcessing

	result, err := converter.Convert(converter.Request{Name: "sales.csv", Data: []byte(salesCSV), Target: types.FormatJSON}, nil)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	m = update(t, m, conversionCompleteMsg{result: result, path: "out/sales_converted.json"})
	if m.state != stateComplete {
		t.Fatalf("state = %v, want complete", m.state)
	}

	view := m.View()
	if !strings.Contains(view, "sales_converted.json") {
		t.Error("complete view does not show the output path")
	}
	if !strings.Contains(view, "TABULA_USER") {
		t.Error("complete view should explain that saving is disabled")
	}
}

func TestConversionComplete_Error(t *testing.T) {
	m := loadedModel(t, Options{})
	m.state = stateProcessing

	m = update(t, m, conversionCompleteMsg{err: errors.New("disk full")})
	if m.state != stateError {
		t.Errorf("state = %v, want error", m.state)
	}
}

type fakeSaver struct {
	meta storage.Metadata
}

func (f *fakeSaver) Put(_ context.Context, _ []byte, _ string, meta storage.Metadata) (string, error) {
	f.meta = meta
	return "file-1", nil
}

func TestSave(t *testing.T) {
	saver := &fakeSaver{}
	m := loadedModel(t, Options{UserID: "alice", Saver: saver})

	result, err := converter.Convert(converter.Request{Name: "sales.csv", Data: []byte(salesCSV), Target: types.FormatCSV}, nil)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	m = update(t, m, conversionCompleteMsg{result: result, path: "sales_converted.csv"})

	_, cmd := m.Update(key("s"))
	if cmd == nil {
		t.Fatal("expected a save command")
	}
	msg := cmd()
	saved, ok := msg.(savedMsg)
	if !ok {
		t.Fatalf("msg = %T, want savedMsg", msg)
	}
	if saved.err != nil || saved.id != "file-1" {
		t.Fatalf("saved = %+v", saved)
	}
	if saver.meta.UserID != "alice" || saver.meta.ConversionType != "csv to csv" {
		t.Errorf("meta = %+v", saver.meta)
	}

	m = update(t, m, saved)
	if !strings.Contains(m.View(), "file-1") {
		t.Error("complete view does not show the saved id")
	}
}

func TestSave_DisabledWithoutUser(t *testing.T) {
	m := loadedModel(t, Options{Saver: &fakeSaver{}})
	m.state = stateComplete

	if _, cmd := m.Update(key("s")); cmd != nil {
		t.Error("save should be disabled without a user")
	}
}

func TestWaitForProgress(t *testing.T) {
	progressChan := make(chan float64, 1)
	resultChan := make(chan conversionResultMsg, 1)

	progressChan <- 0.5
	close(progressChan)
	resultChan <- conversionResultMsg{path: "out.csv"}
	close(resultChan)

	cmd := waitForProgress(progressChan, resultChan)
	if got := cmd(); got != progressMsg(0.5) {
		t.Fatalf("first msg = %v, want progress 0.5", got)
	}

	got, ok := cmd().(conversionCompleteMsg)
	if !ok || got.path != "out.csv" {
		t.Errorf("second msg = %+v, want completion", got)
	}
}

func TestCycleFormat(t *testing.T) {
	tests := []struct {
		current types.Format
		step    int
		want    types.Format
	}{
		{types.FormatCSV, 1, types.FormatJSON},
		{types.FormatXLSX, 1, types.FormatCSV},
		{types.FormatCSV, -1, types.FormatXLSX},
		{types.FormatUnknown, 1, types.FormatJSON},
	}

	for _, tt := range tests {
		if got := cycleFormat(tt.current, tt.step); got != tt.want {
			t.Errorf("cycleFormat(%q, %d) = %q, want %q", tt.current, tt.step, got, tt.want)
		}
	}
}
