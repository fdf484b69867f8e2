package converter

import (
	"github.com/nconklindev/tabula/internal/types"
)

// PreviewLimit caps the characters shown when previewing text output.
const PreviewLimit = 1000

// TablePreview is a stringified view of the first rows of a table.
type TablePreview struct {
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	TotalRows int        `json:"totalRows"`
}

// Preview renders up to n rows of table using its first row's columns.
func Preview(table *types.Table, n int) TablePreview {
	columns := table.Columns()
	preview := TablePreview{
		Columns:   columns,
		Rows:      [][]string{},
		TotalRows: table.Len(),
	}
	if columns == nil {
		preview.Columns = []string{}
	}

	for i := 0; i < table.Len() && i < n; i++ {
		row := make([]string, len(columns))
		for j, col := range columns {
			value, _ := table.Rows[i].Get(col)
			row[j] = FormatValue(value)
		}
		preview.Rows = append(preview.Rows, row)
	}

	return preview
}

// TruncateText shortens converted text output for display.
func TruncateText(data []byte) string {
	runes := []rune(string(data))
	if len(runes) <= PreviewLimit {
		return string(runes)
	}
	return string(runes[:PreviewLimit]) + "..."
}
