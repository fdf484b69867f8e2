// Package chart derives chart-ready series from a normalized table.
//
// Columns are classified by looking at the first row only: a column whose
// first value is a number, or a string that parses as one, is numeric; a
// column whose first value is any other string is categorical. Later rows
// are not sampled, so a column that changes kind after the first row is
// still classified by that first value.
package chart

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nconklindev/tabula/internal/types"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Mode selects how rows are projected into a series.
type Mode string

const (
	// ModeBar maps each row to a category with every numeric column.
	ModeBar Mode = "bar"
	// ModePie sums the first numeric column per category over all rows.
	ModePie Mode = "pie"
)

// BarRowLimit is the number of rows shown in bar mode.
const BarRowLimit = 10

// UnknownCategory labels pie slices whose category value is empty.
const UnknownCategory = "Unknown"

// ParseMode validates a mode name.
func ParseMode(name string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(name))); m {
	case ModeBar, ModePie:
		return m, nil
	default:
		return "", fmt.Errorf("invalid chart mode: %s (must be bar or pie)", name)
	}
}

// BarPoint is one category with a value per numeric column.
type BarPoint struct {
	Name   string
	Values *orderedmap.OrderedMap[string, float64]
}

// Value returns the value for column, or 0 when the column is absent.
func (p BarPoint) Value(column string) float64 {
	if p.Values == nil {
		return 0
	}
	v, _ := p.Values.Get(column)
	return v
}

// MarshalJSON flattens the point to {"name": ..., "<column>": value, ...}.
func (p BarPoint) MarshalJSON() ([]byte, error) {
	out := orderedmap.New[string, any]()
	out.Set("name", p.Name)
	if p.Values != nil {
		for pair := p.Values.Oldest(); pair != nil; pair = pair.Next() {
			out.Set(pair.Key, pair.Value)
		}
	}
	return json.Marshal(out)
}

// Slice is one aggregated pie category.
type Slice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Series is the projection of a table for one chart mode. Exactly one of
// Bars or Slices is populated; both are empty when the table has nothing
// to chart.
type Series struct {
	Mode           Mode       `json:"mode"`
	CategoryColumn string     `json:"categoryColumn,omitempty"`
	NumericColumns []string   `json:"numericColumns"`
	Bars           []BarPoint `json:"bars,omitempty"`
	Slices         []Slice    `json:"slices,omitempty"`
}

// Empty reports whether there is no data to render.
func (s *Series) Empty() bool {
	return len(s.Bars) == 0 && len(s.Slices) == 0
}

// Columns is the result of classifying a table's columns.
type Columns struct {
	Numeric     []string
	Categorical []string
}

// Classify sorts the first row's columns into numeric and categorical.
// Columns whose first value is neither (nil, booleans, nested values) are
// left out.
func Classify(table *types.Table) Columns {
	var cols Columns
	if table.Len() == 0 {
		return cols
	}

	for pair := table.Rows[0].Oldest(); pair != nil; pair = pair.Next() {
		switch v := pair.Value.(type) {
		case float64, float32, int, int64, json.Number:
			cols.Numeric = append(cols.Numeric, pair.Key)
		case string:
			if IsNumeric(v) {
				cols.Numeric = append(cols.Numeric, pair.Key)
			} else {
				cols.Categorical = append(cols.Categorical, pair.Key)
			}
		}
	}

	return cols
}

// IsNumeric checks if a string looks like a finite number.
func IsNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}

	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return false
	}
	return !math.IsNaN(val) && !math.IsInf(val, 0)
}

// Project builds the series for mode. It never fails: a table without a
// numeric column, or a pie request without a categorical column, yields an
// empty series.
func Project(table *types.Table, mode Mode) *Series {
	cols := Classify(table)
	series := &Series{
		Mode:           mode,
		NumericColumns: cols.Numeric,
	}
	if len(cols.Numeric) == 0 {
		series.NumericColumns = []string{}
		return series
	}

	var categoryCol string
	if len(cols.Categorical) > 0 {
		categoryCol = cols.Categorical[0]
	}
	series.CategoryColumn = categoryCol

	switch mode {
	case ModeBar:
		series.Bars = projectBars(table, categoryCol, cols.Numeric)
	case ModePie:
		if categoryCol == "" {
			return series
		}
		series.Slices = projectSlices(table, categoryCol, cols.Numeric[0])
	}

	return series
}

func projectBars(table *types.Table, categoryCol string, numeric []string) []BarPoint {
	limit := table.Len()
	if limit > BarRowLimit {
		limit = BarRowLimit
	}

	points := make([]BarPoint, 0, limit)
	for i := 0; i < limit; i++ {
		row := table.Rows[i]

		name := fmt.Sprintf("Row %d", i+1)
		if categoryCol != "" {
			value, _ := row.Get(categoryCol)
			name = label(value)
		}

		values := orderedmap.New[string, float64]()
		for _, col := range numeric {
			value, _ := row.Get(col)
			values.Set(col, ToNumber(value))
		}

		points = append(points, BarPoint{Name: name, Values: values})
	}

	return points
}

// projectSlices aggregates valueCol per category across every row, keeping
// categories in order of first appearance.
func projectSlices(table *types.Table, categoryCol, valueCol string) []Slice {
	index := make(map[string]int)
	var slices []Slice

	for _, row := range table.Rows {
		category, _ := row.Get(categoryCol)
		name := label(category)
		if name == "" {
			name = UnknownCategory
		}

		value, _ := row.Get(valueCol)

		idx, ok := index[name]
		if !ok {
			idx = len(slices)
			index[name] = idx
			slices = append(slices, Slice{Name: name})
		}
		slices[idx].Value += ToNumber(value)
	}

	return slices
}

// ToNumber casts a cell value to a number, defaulting to 0 when it cannot.
func ToNumber(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return f
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		if IsNumeric(v) {
			f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
			return f
		}
		return 0
	default:
		return 0
	}
}

func label(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
