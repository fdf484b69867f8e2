package types

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Format identifies one of the tabular file formats the converter handles.
type Format string

const (
	FormatUnknown Format = ""
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatXLSX    Format = "xlsx"
)

// Formats lists the supported formats in display order.
var Formats = []Format{FormatCSV, FormatJSON, FormatXLSX}

// Extension returns the file extension for f, including the leading dot.
func (f Format) Extension() string {
	if f == FormatUnknown {
		return ""
	}
	return "." + string(f)
}

// MimeType returns the content type used when delivering output in f.
func (f Format) MimeType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

// Record is one row of a table. Keys keep the column order of the source.
type Record = orderedmap.OrderedMap[string, any]

// NewRecord returns an empty record.
func NewRecord() *Record {
	return orderedmap.New[string, any]()
}

// Table is the normalized row-oriented form every reader produces and every
// writer and chart projection consumes. Rows are never reordered.
type Table struct {
	Rows []*Record
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Columns returns the keys of the first row in order. Keys that only appear
// in later rows are not columns.
func (t *Table) Columns() []string {
	if t.Len() == 0 {
		return nil
	}
	first := t.Rows[0]
	cols := make([]string, 0, first.Len())
	for pair := first.Oldest(); pair != nil; pair = pair.Next() {
		cols = append(cols, pair.Key)
	}
	return cols
}

type ConversionResult struct {
	InputFile     string
	OutputFile    string
	SourceFormat  Format
	TargetFormat  Format
	ColumnsFound  []string
	RowsProcessed int
	Data          []byte
	MimeType      string
	Warnings      []string
}
