package converter

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/nconklindev/tabula/internal/types"
)

// Request is one conversion: a named source file and the format to produce.
type Request struct {
	Name   string
	Data   []byte
	Target types.Format
}

// Convert detects the source format from the request name, reads the data
// and writes it out in the target format. It either completes or fails as a
// whole. Stage progress is sent on progressChan without blocking.
func Convert(req Request, progressChan chan<- float64) (*types.ConversionResult, error) {
	reportProgress := func(p float64) {
		if progressChan != nil {
			select {
			case progressChan <- p:
			default:
			}
		}
	}

	target, err := ParseTarget(string(req.Target))
	if err != nil {
		return nil, err
	}

	source := Detect(req.Name)
	if source == types.FormatUnknown {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, req.Name)
	}
	reportProgress(0.1)

	decoded, err := Read(req.Data, source)
	if err != nil {
		return nil, err
	}
	reportProgress(0.6)

	out, err := Write(decoded.Table, target)
	if err != nil {
		return nil, err
	}
	reportProgress(1)

	warnings := make([]string, 0, len(decoded.Warnings))
	for _, w := range decoded.Warnings {
		warnings = append(warnings, string(w))
	}

	return &types.ConversionResult{
		InputFile:     req.Name,
		OutputFile:    OutputName(target),
		SourceFormat:  source,
		TargetFormat:  target,
		ColumnsFound:  decoded.Table.Columns(),
		RowsProcessed: decoded.Table.Len(),
		Data:          out,
		MimeType:      target.MimeType(),
		Warnings:      warnings,
	}, nil
}

// OutputName is the file name offered when delivering converted output.
func OutputName(target types.Format) string {
	return "converted" + target.Extension()
}

// SaveName is the object name used when saving converted output to storage.
func SaveName(target types.Format, now time.Time) string {
	return fmt.Sprintf("converted_%d%s", now.UnixMilli(), target.Extension())
}

// ConversionType describes a conversion as "<source> to <target>".
func ConversionType(source, target types.Format) string {
	return fmt.Sprintf("%s to %s", source, target)
}

// OutputPath places converted output next to inputFile as
// "<base>_converted<ext>".
func OutputPath(inputFile string, target types.Format) string {
	base := strings.TrimSuffix(inputFile, filepath.Ext(inputFile))
	return base + "_converted" + target.Extension()
}
