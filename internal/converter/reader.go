package converter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nconklindev/tabula/internal/types"

	"github.com/xuri/excelize/v2"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var errNotObject = errors.New("value is not an object")

// ReadResult is a decoded table plus any warnings raised while decoding it.
type ReadResult struct {
	Format   types.Format
	Table    *types.Table
	Warnings []Warning
}

// Recovered reports whether the source needed recovery to be read.
func (r *ReadResult) Recovered() bool {
	for _, w := range r.Warnings {
		if w == WarningTrailingData {
			return true
		}
	}
	return false
}

// Decode detects the format of name and reads data accordingly.
func Decode(name string, data []byte) (*ReadResult, error) {
	format := Detect(name)
	if format == types.FormatUnknown {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}
	return Read(data, format)
}

// Read decodes data in the given format into a table.
func Read(data []byte, format types.Format) (*ReadResult, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	var (
		table    *types.Table
		warnings []Warning
		err      error
	)
	switch format {
	case types.FormatCSV:
		table, err = readCSV(data)
	case types.FormatJSON:
		table, warnings, err = readJSON(data)
	case types.FormatXLSX:
		table, err = readXLSX(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, err
	}

	return &ReadResult{
		Format:   format,
		Table:    table,
		Warnings: warnings,
	}, nil
}

// readCSV parses header-plus-rows text. Rows shorter than the header yield
// nil for the missing fields and extra fields are dropped.
func readCSV(data []byte) (*types.Table, error) {
	if line, ok := unclosedQuote(data); ok {
		return nil, newParseError(types.FormatCSV, ReasonMalformedCSV,
			fmt.Errorf("quoted field starting on line %d is never closed", line))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, newParseError(types.FormatCSV, ReasonMalformedCSV, err)
	}

	table := &types.Table{}
	if len(records) == 0 {
		return table, nil
	}

	headers := uniqueHeaders(records[0], nil)
	for _, fields := range records[1:] {
		if len(fields) == 1 && fields[0] == "" {
			continue
		}

		rec := types.NewRecord()
		for i, header := range headers {
			if i < len(fields) {
				rec.Set(header, fields[i])
			} else {
				rec.Set(header, nil)
			}
		}
		table.Rows = append(table.Rows, rec)
	}

	return table, nil
}

// unclosedQuote finds a quoted field that runs to the end of the input.
// Stray quotes elsewhere are kept as literal text, so this is the one
// escaping error that cannot be recovered. A quote inside a quoted field
// only closes it when followed by a delimiter, a line break or the end.
func unclosedQuote(data []byte) (int, bool) {
	line, start := 1, 0
	inQuotes, fieldStart := false, true

	for i := 0; i < len(data); i++ {
		c := data[i]
		if c == '\n' {
			line++
		}

		if inQuotes {
			if c != '"' {
				continue
			}
			if i+1 < len(data) && data[i+1] == '"' {
				i++
				continue
			}
			if i+1 == len(data) || data[i+1] == ',' || data[i+1] == '\n' || data[i+1] == '\r' {
				inQuotes = false
			}
			continue
		}

		switch {
		case c == '"' && fieldStart:
			inQuotes, start = true, line
			fieldStart = false
		case c == ',' || c == '\n':
			fieldStart = true
		default:
			fieldStart = false
		}
	}

	return start, inQuotes
}

// readJSON parses the whole text as one value, falling back to Recover when
// strict parsing fails.
func readJSON(data []byte) (*types.Table, []Warning, error) {
	var warnings []Warning

	var probe json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		recovered, ok := Recover(data)
		if !ok {
			return nil, nil, newParseError(types.FormatJSON, ReasonUnrecoverable, err)
		}
		data = recovered
		warnings = append(warnings, WarningTrailingData)
	}

	table, err := decodeTable(bytes.TrimSpace(data))
	if err != nil {
		return nil, nil, newParseError(types.FormatJSON, ReasonNotTabular, err)
	}

	return table, warnings, nil
}

// decodeTable turns an array of objects, or a single object, into rows.
func decodeTable(data []byte) (*types.Table, error) {
	table := &types.Table{}
	if len(data) == 0 {
		return nil, errNotObject
	}

	switch data[0] {
	case '{':
		rec, err := decodeRecord(data)
		if err != nil {
			return nil, err
		}
		table.Rows = append(table.Rows, rec)
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, err
		}
		for i, item := range items {
			rec, err := decodeRecord(item)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			table.Rows = append(table.Rows, rec)
		}
	default:
		return nil, errNotObject
	}

	return table, nil
}

func decodeRecord(data []byte) (*types.Record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, errNotObject
	}

	rec := types.NewRecord()
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// readXLSX reads the first sheet of a workbook. The first row names the
// columns; a grid with fewer than two rows yields an empty table.
func readXLSX(data []byte) (*types.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, newParseError(types.FormatXLSX, ReasonUnreadableXLSX, err)
	}
	defer f.Close()

	table := &types.Table{}

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return table, nil
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, newParseError(types.FormatXLSX, ReasonUnreadableXLSX, err)
	}

	if len(rows) <= 1 {
		return table, nil
	}

	headers := uniqueHeaders(rows[0], func(i int) string {
		name, _ := excelize.ColumnNumberToName(i + 1)
		return name
	})

	for rowIdx := 1; rowIdx < len(rows); rowIdx++ {
		row := rows[rowIdx]
		if isBlankRow(row) {
			continue
		}

		rec := types.NewRecord()
		for colIdx, header := range headers {
			var value any
			if colIdx < len(row) {
				value = cellValue(f, sheetName, colIdx, rowIdx, row[colIdx])
			}
			rec.Set(header, value)
		}
		table.Rows = append(table.Rows, rec)
	}

	return table, nil
}

// cellValue types a raw cell string using the cell's stored type.
func cellValue(f *excelize.File, sheet string, colIdx, rowIdx int, raw string) any {
	if raw == "" {
		return nil
	}

	cellName, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
	if err != nil {
		return raw
	}

	cellType, err := f.GetCellType(sheet, cellName)
	if err != nil {
		return raw
	}

	switch cellType {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true")
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return n
		}
	}
	return raw
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// uniqueHeaders makes header names usable as record keys. Empty names are
// replaced by fallback (when set) and repeated names get a numeric suffix.
func uniqueHeaders(raw []string, fallback func(i int) string) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]int, len(raw))

	for i, name := range raw {
		if name == "" && fallback != nil {
			name = fallback(i)
		}

		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			candidate := fmt.Sprintf("%s_%d", name, n)
			for seen[candidate] > 0 {
				n++
				candidate = fmt.Sprintf("%s_%d", name, n)
			}
			name = candidate
		}
		seen[name]++
		headers[i] = name
	}

	return headers
}
