package ui

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nconklindev/tabula/internal/chart"
	"github.com/nconklindev/tabula/internal/converter"
	"github.com/nconklindev/tabula/internal/types"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type state int

const (
	stateFilePicker state = iota
	statePreview
	stateProcessing
	stateComplete
	stateChart
	stateError
)

// Options configure the terminal UI.
type Options struct {
	// UserID enables saving to storage when set.
	UserID string
	Saver  converter.Saver

	// OutDir receives converted files. Empty writes next to the input.
	OutDir string

	PreviewRows int
}

type Model struct {
	opts         Options
	state        state
	filepicker   filepicker.Model
	selectedFile string
	data         []byte
	decoded      *converter.ReadResult
	preview      table.Model
	target       types.Format
	chartMode    chart.Mode
	series       *chart.Series
	result       *types.ConversionResult
	outputPath   string
	savedID      string
	saveErr      error
	err          error
	width        int
	height       int
	progress     progress.Model
	progressChan chan float64
	resultChan   chan conversionResultMsg
}

type conversionResultMsg struct {
	result *types.ConversionResult
	path   string
	err    error
}

type fileLoadedMsg struct {
	data    []byte
	decoded *converter.ReadResult
	err     error
}

type conversionCompleteMsg struct {
	result *types.ConversionResult
	path   string
	err    error
}

type savedMsg struct {
	id  string
	err error
}

type progressMsg float64

type waitForProgressMsg struct{}

func InitialModel(opts Options) Model {
	fp := filepicker.New()
	fp.AllowedTypes = []string{".csv", ".json", ".xlsx", ".xls"}
	fp.CurrentDirectory, _ = os.Getwd()
	fp.Styles = filePickerStyles()

	prog := progress.New(progress.WithGradient(string(colorAccent), colorGradientTo))

	if opts.PreviewRows <= 0 {
		opts.PreviewRows = 10
	}

	return Model{
		opts:       opts,
		state:      stateFilePicker,
		filepicker: fp,
		chartMode:  chart.ModeBar,
		progress:   prog,
	}
}

func (m Model) Init() tea.Cmd {
	return m.filepicker.Init()
}

func (m Model) canSave() bool {
	return m.opts.UserID != "" && m.opts.Saver != nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Leave room for the title, subtitle, help text and padding
		height := msg.Height - 14
		if height < 5 {
			height = 5
		}

		m.filepicker.SetHeight(height)
		m.progress.Width = max(msg.Width-20, 20)

		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case stateFilePicker:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			}

		case statePreview:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "esc":
				m.state = stateFilePicker
				return m, nil
			case "tab", "right", "l":
				m.target = cycleFormat(m.target, 1)
				return m, nil
			case "shift+tab", "left", "h":
				m.target = cycleFormat(m.target, -1)
				return m, nil
			case "c":
				m.series = chart.Project(m.decoded.Table, m.chartMode)
				m.state = stateChart
				return m, nil
			case "enter":
				m.state = stateProcessing
				return m.convertFile()
			}
			var cmd tea.Cmd
			m.preview, cmd = m.preview.Update(msg)
			return m, cmd

		case stateChart:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "m", "tab":
				if m.chartMode == chart.ModeBar {
					m.chartMode = chart.ModePie
				} else {
					m.chartMode = chart.ModeBar
				}
				m.series = chart.Project(m.decoded.Table, m.chartMode)
			case "esc", "c":
				m.state = statePreview
			}
			return m, nil

		case stateComplete:
			switch msg.String() {
			case "s":
				if m.canSave() && m.savedID == "" {
					return m, m.save()
				}
			case "ctrl+c", "q", "enter", "esc":
				return m, tea.Quit
			}

		case stateError:
			switch msg.String() {
			case "ctrl+c", "q", "enter", "esc":
				return m, tea.Quit
			}
		}

	case fileLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.data = msg.data
		m.decoded = msg.decoded
		m.target = defaultTarget(msg.decoded.Format)
		m.preview = newPreviewTable(converter.Preview(msg.decoded.Table, m.opts.PreviewRows))
		m.state = statePreview

		slog.Info("file loaded",
			"file", m.selectedFile,
			"format", msg.decoded.Format,
			"rows", msg.decoded.Table.Len(),
			"recovered", msg.decoded.Recovered(),
		)
		return m, nil

	case conversionCompleteMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.result = msg.result
		m.outputPath = msg.path
		m.state = stateComplete

		slog.Info("conversion complete",
			"input", msg.result.InputFile,
			"output", msg.path,
			"type", converter.ConversionType(msg.result.SourceFormat, msg.result.TargetFormat),
			"rows", msg.result.RowsProcessed,
		)
		return m, nil

	case savedMsg:
		m.savedID = msg.id
		m.saveErr = msg.err
		if msg.err != nil {
			slog.Error("save failed", "file", m.selectedFile, "error", msg.err)
		}
		return m, nil

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case progressMsg:
		if m.state == stateProcessing {
			cmd := m.progress.SetPercent(float64(msg))
			return m, tea.Batch(cmd, waitForProgress(m.progressChan, m.resultChan))
		}
		return m, nil

	case waitForProgressMsg:
		return m, waitForProgress(m.progressChan, m.resultChan)
	}

	if m.state == stateFilePicker {
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)

		if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
			m.selectedFile = path
			return m, m.loadFile(path)
		}

		return m, cmd
	}

	return m, nil
}

func (m Model) loadFile(path string) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return fileLoadedMsg{err: fmt.Errorf("failed to open file: %w", err)}
		}
		decoded, err := converter.Decode(path, data)
		return fileLoadedMsg{data: data, decoded: decoded, err: err}
	}
}

func (m Model) convertFile() (Model, tea.Cmd) {
	m.progressChan = make(chan float64, 100)
	m.resultChan = make(chan conversionResultMsg, 1)

	// Capture for the goroutine
	progressChan := m.progressChan
	resultChan := m.resultChan
	req := converter.Request{Name: m.selectedFile, Data: m.data, Target: m.target}
	outputPath := converter.OutputPath(m.selectedFile, m.target)
	if m.opts.OutDir != "" {
		outputPath = filepath.Join(m.opts.OutDir, filepath.Base(outputPath))
	}

	cmd := tea.Batch(
		func() tea.Msg {
			go func() {
				result, err := converter.Convert(req, progressChan)

				var path string
				if err == nil {
					d := &converter.DirDeliverer{Dir: filepath.Dir(outputPath)}
					err = d.Deliver(result.Data, filepath.Base(outputPath), result.MimeType)
					path = d.LastPath
				}

				resultChan <- conversionResultMsg{result: result, path: path, err: err}

				close(progressChan)
				close(resultChan)
			}()

			return waitForProgressMsg{}
		},
		m.progress.Init(),
	)

	return m, cmd
}

func (m Model) save() tea.Cmd {
	saver := m.opts.Saver
	userID := m.opts.UserID
	result := m.result
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		id, err := converter.Save(ctx, saver, userID, result, time.Now())
		return savedMsg{id: id, err: err}
	}
}

func waitForProgress(progressChan chan float64, resultChan chan conversionResultMsg) tea.Cmd {
	return func() tea.Msg {
		if progressChan == nil {
			return nil
		}

		p, ok := <-progressChan
		if !ok {
			// Progress channel closed, check result
			res, ok := <-resultChan
			if ok {
				return conversionCompleteMsg(res)
			}
			return nil
		}

		return progressMsg(p)
	}
}

// defaultTarget picks the first format other than the source.
func defaultTarget(source types.Format) types.Format {
	for _, f := range types.Formats {
		if f != source {
			return f
		}
	}
	return types.FormatCSV
}

func cycleFormat(current types.Format, step int) types.Format {
	n := len(types.Formats)
	idx := 0
	for i, f := range types.Formats {
		if f == current {
			idx = i
			break
		}
	}
	return types.Formats[((idx+step)%n+n)%n]
}

func newPreviewTable(p converter.TablePreview) table.Model {
	columns := make([]table.Column, len(p.Columns))
	for i, title := range p.Columns {
		width := lipgloss.Width(title)
		for _, row := range p.Rows {
			width = max(width, lipgloss.Width(row[i]))
		}
		columns[i] = table.Column{Title: title, Width: min(max(width, 4), 24)}
	}

	rows := make([]table.Row, len(p.Rows))
	for i, row := range p.Rows {
		rows[i] = table.Row(row)
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(min(max(len(rows), 1), 10)+1),
	)
	t.SetStyles(previewTableStyles())

	return t
}

func (m Model) View() string {
	switch m.state {
	case stateFilePicker:
		return m.viewFilePicker()
	case statePreview:
		return m.viewPreview()
	case stateProcessing:
		return m.viewProcessing()
	case stateComplete:
		return m.viewComplete()
	case stateChart:
		return m.viewChart()
	case stateError:
		return m.viewError()
	}
	return ""
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	title := TitleStyle.Render("▦ Tabula - Table Format Converter")

	authorSpan := SubtitleStyle.Render("by Nick Conklin • ")
	githubSpan := LinkStyle.Render("https://github.com/nconklindev/tabula")
	byLine := lipgloss.JoinHorizontal(lipgloss.Top, authorSpan, githubSpan)

	s.WriteString(lipgloss.JoinVertical(lipgloss.Left, title, byLine))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render("Select a CSV, JSON or Excel file to convert"))
	s.WriteString("\n\n")
	s.WriteString(m.filepicker.View())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("Press q to quit"))

	return s.String()
}

func (m Model) viewPreview() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("▦ Preview"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render(fmt.Sprintf("File: %s • detected %s • %d row(s)",
		filepath.Base(m.selectedFile), m.decoded.Format, m.decoded.Table.Len())))
	s.WriteString("\n")

	for _, w := range m.decoded.Warnings {
		s.WriteString(WarningStyle.Render("! " + string(w)))
		s.WriteString("\n")
	}
	s.WriteString("\n")

	if m.decoded.Table.Len() == 0 {
		s.WriteString(SubtitleStyle.Render("The file has no rows."))
	} else {
		s.WriteString(m.preview.View())
	}
	s.WriteString("\n\n")

	s.WriteString("Convert to: ")
	for i, f := range types.Formats {
		if i > 0 {
			s.WriteString("  ")
		}
		label := strings.ToUpper(string(f))
		if f == m.target {
			s.WriteString(SelectedStyle.Render("[" + label + "]"))
		} else {
			s.WriteString(UnselectedStyle.Render(" " + label + " "))
		}
	}
	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("←/→: target format • ↑/↓: scroll • c: chart • enter: convert • esc: back • q: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewProcessing() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("▦ Processing..."))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("Converting %s to %s...", m.decoded.Format, m.target))
	s.WriteString("\n\n")
	s.WriteString(m.progress.View())

	return BoxStyle.Render(s.String())
}

func (m Model) viewComplete() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("✓ Conversion Complete!"))
	s.WriteString("\n\n")

	for _, w := range m.result.Warnings {
		s.WriteString(WarningStyle.Render("! " + w))
		s.WriteString("\n\n")
	}

	// Truncate paths if they're too long
	maxPathLen := m.width - 20
	if maxPathLen < 30 {
		maxPathLen = 30
	}

	s.WriteString(fmt.Sprintf("Input:  %s\n", shortenPath(m.result.InputFile, maxPathLen)))
	s.WriteString(SuccessStyle.Render(fmt.Sprintf("Output: %s\n", shortenPath(m.outputPath, maxPathLen))))
	s.WriteString("\n")
	s.WriteString(fmt.Sprintf("Columns: %s\n", strings.Join(m.result.ColumnsFound, ", ")))
	s.WriteString(fmt.Sprintf("Rows processed: %d\n", m.result.RowsProcessed))

	if m.result.TargetFormat != types.FormatXLSX {
		s.WriteString("\n")
		s.WriteString(SubtitleStyle.Render(converter.TruncateText(m.result.Data)))
	}
	s.WriteString("\n")

	help := "enter/q: exit"
	switch {
	case m.savedID != "":
		s.WriteString(SuccessStyle.Render(fmt.Sprintf("Saved to storage as %s", m.savedID)))
		s.WriteString("\n")
	case m.saveErr != nil:
		s.WriteString(ErrorStyle.Render(fmt.Sprintf("Save failed: %v", m.saveErr)))
		s.WriteString("\n")
		help = "s: retry save • " + help
	case m.canSave():
		help = "s: save to storage • " + help
	default:
		s.WriteString(SubtitleStyle.Render("Set TABULA_USER to enable saving"))
		s.WriteString("\n")
	}
	s.WriteString(HelpStyle.Render(help))

	return BoxStyle.Render(s.String())
}

func (m Model) viewChart() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render(fmt.Sprintf("▦ %s chart", strings.ToUpper(string(m.chartMode)))))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render(filepath.Base(m.selectedFile)))
	s.WriteString("\n\n")
	s.WriteString(RenderChart(m.series, m.width-8))
	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("m: bar/pie • esc: back • q: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewError() string {
	var s strings.Builder

	s.WriteString(ErrorStyle.Render("✗ Error"))
	s.WriteString("\n\n")
	s.WriteString(m.err.Error())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("Press enter or q to exit"))

	return BoxStyle.Render(s.String())
}

func shortenPath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	return "..." + path[len(path)-maxLen+3:]
}
