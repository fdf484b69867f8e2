package converter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/nconklindev/tabula/internal/types"

	"github.com/xuri/excelize/v2"
)

// DefaultSheetName is the sheet written into generated workbooks.
const DefaultSheetName = "Sheet1"

// Write serializes table in the target format. The header is the first
// row's columns; keys that appear only in later rows are not written to
// csv or xlsx output.
func Write(table *types.Table, target types.Format) ([]byte, error) {
	if table == nil {
		table = &types.Table{}
	}

	switch target {
	case types.FormatCSV:
		return writeCSV(table)
	case types.FormatJSON:
		return writeJSON(table)
	case types.FormatXLSX:
		return writeXLSX(table)
	default:
		return nil, &TargetError{Name: string(target)}
	}
}

func writeCSV(table *types.Table) ([]byte, error) {
	var buf bytes.Buffer

	// Rows without columns have no delimited form, so they write as empty
	// text like an empty table does.
	columns := table.Columns()
	if len(columns) == 0 {
		return buf.Bytes(), nil
	}

	records := make([][]string, 0, table.Len()+1)
	records = append(records, columns)

	for _, row := range table.Rows {
		fields := make([]string, len(columns))
		for i, col := range columns {
			value, _ := row.Get(col)
			fields[i] = FormatValue(value)
		}
		records = append(records, fields)
	}

	writer := csv.NewWriter(&buf)
	if err := writer.WriteAll(records); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}

	return buf.Bytes(), nil
}

func writeJSON(table *types.Table) ([]byte, error) {
	rows := table.Rows
	if rows == nil {
		rows = []*types.Record{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return nil, fmt.Errorf("write json: %w", err)
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func writeXLSX(table *types.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	columns := table.Columns()
	if len(columns) > 0 {
		header := make([]any, len(columns))
		for i, col := range columns {
			header[i] = col
		}
		if err := f.SetSheetRow(DefaultSheetName, "A1", &header); err != nil {
			return nil, fmt.Errorf("write xlsx header: %w", err)
		}

		for rowIdx, row := range table.Rows {
			values := make([]any, len(columns))
			for i, col := range columns {
				value, _ := row.Get(col)
				values[i] = sheetValue(value)
			}

			cell, err := excelize.CoordinatesToCellName(1, rowIdx+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetSheetRow(DefaultSheetName, cell, &values); err != nil {
				return nil, fmt.Errorf("write xlsx row %d: %w", rowIdx+1, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// sheetValue keeps scalars typed and flattens nested values to JSON text.
func sheetValue(value any) any {
	switch value.(type) {
	case nil, string, float64, bool:
		return value
	default:
		return FormatValue(value)
	}
}

// FormatValue renders a cell value as text. Nil becomes the empty string and
// nested values are rendered as compact JSON.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	case fmt.Stringer:
		return v.String()
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}
