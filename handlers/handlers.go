// Package handlers exposes the conversion service over HTTP.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/akila/convert-api/models"
	"github.com/akila/convert-api/storage"
)

const (
	// multipartSlack covers multipart framing and form fields on top of the file.
	multipartSlack   = 1 << 20
	maxMemory        = 8 << 20
	defaultHistory   = 20
	maxHistory       = 200
	serviceName      = "File Conversion API"
	serviceVersion   = "1.0.0"
	defaultPageImage = "png"
)

// pageFormats are the image formats a PDF page can be rendered to.
var pageFormats = []string{"png", "jpg", "jpeg"}

// Converter runs one conversion.
type Converter interface {
	Convert(ctx context.Context, req models.ConversionRequest) error
}

// History stores conversion metadata. It is optional.
type History interface {
	Record(ctx context.Context, rec models.ConversionRecord) error
	Recent(ctx context.Context, limit int) ([]models.ConversionRecord, error)
}

// Inspector describes an uploaded file.
type Inspector func(path, format string) (*models.FileInfo, error)

type ConversionHandler struct {
	converter Converter
	registry  models.FormatRegistry
	files     *storage.Manager
	inspect   Inspector
	history   History
	logger    zerolog.Logger
}

func NewConversionHandler(converter Converter, registry models.FormatRegistry, files *storage.Manager,
	inspect Inspector, history History, logger zerolog.Logger) *ConversionHandler {
	return &ConversionHandler{
		converter: converter,
		registry:  registry,
		files:     files,
		inspect:   inspect,
		history:   history,
		logger:    logger.With().Str("component", "handlers").Logger(),
	}
}

// conversion describes one upload-and-convert endpoint.
type conversion struct {
	allowed []string
	// target picks the output format from the request; nil means fixed.
	target func(r *http.Request) (string, error)
	fixed  string
	page   bool
}

func (h *ConversionHandler) ConvertImage(w http.ResponseWriter, r *http.Request) {
	images := h.registry.Formats(models.CategoryImages)
	h.handleConversion(w, r, conversion{
		allowed: images,
		target:  formatField("to_format", "", images),
	})
}

func (h *ConversionHandler) PDFToWord(w http.ResponseWriter, r *http.Request) {
	h.handleConversion(w, r, conversion{allowed: []string{"pdf"}, fixed: "docx"})
}

func (h *ConversionHandler) WordToPDF(w http.ResponseWriter, r *http.Request) {
	h.handleConversion(w, r, conversion{allowed: []string{"docx", "doc"}, fixed: "pdf"})
}

func (h *ConversionHandler) PDFToExcel(w http.ResponseWriter, r *http.Request) {
	h.handleConversion(w, r, conversion{allowed: []string{"pdf"}, fixed: "xlsx"})
}

func (h *ConversionHandler) ExcelToPDF(w http.ResponseWriter, r *http.Request) {
	h.handleConversion(w, r, conversion{allowed: []string{"xlsx", "xls"}, fixed: "pdf"})
}

func (h *ConversionHandler) PDFToImage(w http.ResponseWriter, r *http.Request) {
	h.handleConversion(w, r, conversion{
		allowed: []string{"pdf"},
		target:  formatField("to_format", defaultPageImage, pageFormats),
		page:    true,
	})
}

// formatField reads an output format from a form field and checks it against supported.
func formatField(field, fallback string, supported []string) func(*http.Request) (string, error) {
	return func(r *http.Request) (string, error) {
		to := models.NormalizeFormat(r.FormValue(field))
		if to == "" {
			to = fallback
		}
		if to == "" {
			return "", models.Errorf(models.KindInvalidRequest, "No output format specified")
		}
		for _, s := range supported {
			if s == to {
				return to, nil
			}
		}
		return "", models.Errorf(models.KindUnsupportedFormat, "Unsupported output format: %s", to)
	}
}

func (h *ConversionHandler) handleConversion(w http.ResponseWriter, r *http.Request, c conversion) {
	scope := h.files.NewScope()
	defer scope.Release()

	log := h.logger.With().Str("request_id", middleware.GetReqID(r.Context())).Str("path", r.URL.Path).Logger()

	upload, err := h.readUpload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	if upload == nil {
		writeError(w, models.Errorf(models.KindNoFile, "No file provided"))
		return
	}
	defer closeUpload(upload)

	to := c.fixed
	if c.target != nil {
		if to, err = c.target(r); err != nil {
			var supported []string
			if models.KindOf(err) == models.KindUnsupportedFormat {
				supported = formatsFor(c)
			}
			writeError(w, err, supported...)
			return
		}
	}

	page := 0
	if c.page {
		if page, err = pageField(r); err != nil {
			writeError(w, err)
			return
		}
	}

	stored, err := h.files.SaveUpload(upload, c.allowed)
	if err != nil {
		writeError(w, err)
		return
	}
	scope.Track(stored.Path)

	out := scope.Track(h.files.OutputPath(stored.OriginalName, to))
	req := models.ConversionRequest{
		InputPath:    stored.Path,
		OutputPath:   out,
		InputFormat:  stored.Extension,
		OutputFormat: to,
		Page:         page,
	}

	start := time.Now()
	err = h.converter.Convert(r.Context(), req)
	h.record(r.Context(), stored, req, start, err)
	if err != nil {
		log.Warn().Err(err).Str("kind", string(models.KindOf(err))).Msg("conversion rejected")
		writeError(w, err)
		return
	}

	h.sendFile(w, out, stored.BaseName()+"."+to, log)
}

func formatsFor(c conversion) []string {
	if c.page {
		return pageFormats
	}
	return c.allowed
}

func pageField(r *http.Request) (int, error) {
	raw := r.FormValue("page")
	if raw == "" {
		return 0, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, models.Errorf(models.KindInvalidRequest, "Invalid page: %s", raw)
	}
	return page, nil
}

// readUpload parses the multipart body and returns the "file" part, or nil
// when the request carries none. mime/multipart reads a part with an empty
// filename as a plain form value, so that case surfaces as NoFile here.
func (h *ConversionHandler) readUpload(w http.ResponseWriter, r *http.Request) (*storage.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.files.MaxSize()+multipartSlack)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, h.files.TooLarge()
		}
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, nil
		}
		return nil, models.NewError(models.KindInvalidRequest, "Invalid multipart form", err)
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewError(models.KindInvalidRequest, "Invalid file part", err)
	}
	return &storage.Upload{Filename: header.Filename, Content: file}, nil
}

func closeUpload(u *storage.Upload) {
	if c, ok := u.Content.(io.Closer); ok {
		c.Close()
	}
}

func (h *ConversionHandler) sendFile(w http.ResponseWriter, path, filename string, log zerolog.Logger) {
	f, err := h.files.Open(path)
	if err != nil {
		writeError(w, models.ConversionFailed("opening result", err))
		return
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		writeError(w, models.ConversionFailed("opening result", err))
		return
	}

	contentType := "application/octet-stream"
	if mt, err := mimetype.DetectReader(f); err == nil {
		contentType = mt.String()
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		writeError(w, models.ConversionFailed("reading result", err))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.FormatInt(st.Size(), 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, f); err != nil {
		log.Warn().Err(err).Msg("streaming result")
	}
}

func (h *ConversionHandler) record(ctx context.Context, in *models.StoredFile, req models.ConversionRequest, start time.Time, convErr error) {
	if h.history == nil {
		return
	}
	rec := models.ConversionRecord{
		ID:           uuid.NewString(),
		OriginalName: in.OriginalName,
		InputFormat:  req.InputFormat,
		OutputFormat: req.OutputFormat,
		InputSize:    in.Size,
		Status:       models.StatusDone,
		Duration:     time.Since(start),
		CreatedAt:    start.UTC(),
	}
	if convErr != nil {
		rec.Status = models.StatusFailed
		rec.Error = convErr.Error()
	} else if f, err := h.files.Open(req.OutputPath); err == nil {
		if st, err := f.Stat(); err == nil {
			rec.OutputSize = st.Size()
		}
		f.Close()
	}
	if err := h.history.Record(ctx, rec); err != nil {
		h.logger.Warn().Err(err).Msg("recording history")
	}
}

// Inspect describes an uploaded file without converting it.
func (h *ConversionHandler) Inspect(w http.ResponseWriter, r *http.Request) {
	scope := h.files.NewScope()
	defer scope.Release()

	upload, err := h.readUpload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	if upload == nil {
		writeError(w, models.Errorf(models.KindNoFile, "No file provided"))
		return
	}
	defer closeUpload(upload)
	stored, err := h.files.SaveUpload(upload, h.registry.All())
	if err != nil {
		writeError(w, err)
		return
	}
	scope.Track(stored.Path)

	info, err := h.inspect(stored.Path, stored.Extension)
	if err != nil {
		writeError(w, models.ConversionFailed("inspection failed", err))
		return
	}
	info.Size = stored.Size
	writeJSON(w, http.StatusOK, info)
}

func (h *ConversionHandler) Formats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.Map())
}

func (h *ConversionHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// Conversions lists recent history, newest first.
func (h *ConversionHandler) Conversions(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "History is not enabled", Kind: "NotFound"})
		return
	}
	limit := defaultHistory
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, models.Errorf(models.KindInvalidRequest, "Invalid limit: %s", raw))
			return
		}
		limit = min(n, maxHistory)
	}
	recs, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("listing history")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "History unavailable", Kind: "HistoryUnavailable"})
		return
	}
	if recs == nil {
		recs = []models.ConversionRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversions": recs})
}
