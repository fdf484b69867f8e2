package server

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nconklindev/tabula/internal/chart"
	"github.com/nconklindev/tabula/internal/converter"
	"github.com/nconklindev/tabula/internal/logging"
	"github.com/nconklindev/tabula/internal/storage"
	"github.com/nconklindev/tabula/internal/types"
)

// WarningHeader carries conversion warnings alongside delivered output.
const WarningHeader = "X-Conversion-Warning"

// DetectResponse is the reply of POST /api/detect.
type DetectResponse struct {
	Name   string       `json:"name"`
	Format types.Format `json:"format"`
}

// PreviewResponse is the reply of POST /api/preview.
type PreviewResponse struct {
	Format   types.Format           `json:"format"`
	Preview  converter.TablePreview `json:"preview"`
	Warnings []string               `json:"warnings"`
}

// ChartResponse is the reply of POST /api/chart.
type ChartResponse struct {
	Series   *chart.Series `json:"series"`
	Message  string        `json:"message,omitempty"`
	Warnings []string      `json:"warnings"`
}

// SaveResponse is the reply of POST /api/files.
type SaveResponse struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Warnings []string `json:"warnings"`
}

var errNoStore = errors.New("storage is not configured")

// multipartOverhead is the room allowed for boundaries and part headers on
// top of the file size limit.
const multipartOverhead = 16 << 10

// readUpload returns the name and bytes of the multipart "file" field. The
// size limit applies to the file itself, not the whole request body.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	maxSize := s.cfg.Convert.MaxFileSize
	tooLarge := func() {
		writeError(w, http.StatusRequestEntityTooLarge, CodeBadRequest,
			fmt.Sprintf("file exceeds the %d byte limit", maxSize))
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			tooLarge()
			return "", nil, false
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "expected a multipart form with a file field")
		return "", nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "missing file field")
		return "", nil, false
	}
	defer file.Close()

	if header.Size > maxSize {
		tooLarge()
		return "", nil, false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, r, fmt.Errorf("read upload: %w", err))
		return "", nil, false
	}

	return header.Filename, data, true
}

// target reads the requested output format from the query or the form.
func target(r *http.Request) types.Format {
	name := r.URL.Query().Get("to")
	if name == "" {
		name = r.FormValue("to")
	}
	return types.Format(strings.ToLower(strings.TrimSpace(name)))
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	name, _, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	format := converter.Detect(name)
	if format == types.FormatUnknown {
		respondError(w, r, fmt.Errorf("%w: %s", converter.ErrUnknownFormat, name))
		return
	}

	writeJSON(w, http.StatusOK, DetectResponse{Name: name, Format: format})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	name, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	result, err := converter.Convert(converter.Request{Name: name, Data: data, Target: target(r)}, nil)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("conversion complete",
		"input", name,
		"type", converter.ConversionType(result.SourceFormat, result.TargetFormat),
		"rows", result.RowsProcessed,
		"warnings", len(result.Warnings),
	)

	for _, warning := range result.Warnings {
		w.Header().Add(WarningHeader, warning)
	}

	deliver := converter.DeliverFunc(func(data []byte, filename, mimeType string) error {
		w.Header().Set("Content-Type", mimeType)
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		_, err := w.Write(data)
		return err
	})
	if err := deliver.Deliver(result.Data, result.OutputFile, result.MimeType); err != nil {
		logging.FromContext(r.Context()).Error("deliver output", "error", err)
	}
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	name, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	decoded, err := converter.Decode(name, data)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, PreviewResponse{
		Format:   decoded.Format,
		Preview:  converter.Preview(decoded.Table, s.cfg.Convert.PreviewRows),
		Warnings: warningStrings(decoded.Warnings),
	})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	modeName := r.URL.Query().Get("mode")
	if modeName == "" {
		modeName = string(chart.ModeBar)
	}
	mode, err := chart.ParseMode(modeName)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	decoded, err := converter.Decode(name, data)
	if err != nil {
		respondError(w, r, err)
		return
	}

	series := chart.Project(decoded.Table, mode)
	resp := ChartResponse{Series: series, Warnings: warningStrings(decoded.Warnings)}
	if series.Empty() {
		resp.Message = "No chartable data. Charts need a text column and a numeric column."
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSaveFile(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, r, errNoStore)
		return
	}

	name, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	result, err := converter.Convert(converter.Request{Name: name, Data: data, Target: target(r)}, nil)
	if err != nil {
		respondError(w, r, err)
		return
	}

	userID, _ := UserFromContext(r.Context())
	now := s.now()
	id, err := converter.Save(r.Context(), s.store, userID, result, now)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logging.WithFields(r.Context(), "user_id", userID, "file_id", id).Info("conversion saved")

	writeJSON(w, http.StatusCreated, SaveResponse{
		ID:       id,
		Name:     converter.SaveName(result.TargetFormat, now),
		Warnings: nonNil(result.Warnings),
	})
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, r, errNoStore)
		return
	}

	userID, _ := UserFromContext(r.Context())
	files, err := s.store.List(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if files == nil {
		files = []storage.File{}
	}

	writeJSON(w, http.StatusOK, files)
}

func (s *Server) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, r, errNoStore)
		return
	}

	file, data, err := s.store.Get(r.Context(), chi.URLParam(r, "fileID"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	userID, _ := UserFromContext(r.Context())
	if file.Metadata.UserID != userID {
		respondError(w, r, storage.ErrForbidden)
		return
	}

	w.Header().Set("Content-Type", file.MimeType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, r, errNoStore)
		return
	}

	userID, _ := UserFromContext(r.Context())
	if err := s.store.Delete(r.Context(), userID, chi.URLParam(r, "fileID")); err != nil {
		respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func warningStrings(warnings []converter.Warning) []string {
	out := make([]string, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, string(w))
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
