package converter

import (
	"strings"

	"github.com/nconklindev/tabula/internal/types"
)

// Detect maps a file name to its format using the text after the last dot.
// The extension is authoritative: content is never sniffed.
func Detect(filename string) types.Format {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return types.FormatUnknown
	}

	switch strings.ToLower(filename[idx+1:]) {
	case "csv":
		return types.FormatCSV
	case "json":
		return types.FormatJSON
	case "xlsx", "xls":
		return types.FormatXLSX
	default:
		return types.FormatUnknown
	}
}

// ParseTarget validates a user supplied output format name.
func ParseTarget(name string) (types.Format, error) {
	switch f := types.Format(strings.ToLower(strings.TrimSpace(name))); f {
	case types.FormatCSV, types.FormatJSON, types.FormatXLSX:
		return f, nil
	default:
		return types.FormatUnknown, &TargetError{Name: name}
	}
}
