package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// NewRouter wires the conversion endpoints and global middleware.
func NewRouter(h *ConversionHandler, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(accessLog(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(securityHeaders)
	r.Use(corsHandler())

	r.Get("/health", h.Health)
	r.Get("/formats", h.Formats)
	r.Get("/conversions", h.Conversions)
	r.Post("/inspect", h.Inspect)

	r.Route("/convert", func(r chi.Router) {
		r.Post("/image", h.ConvertImage)
		r.Post("/pdf-to-word", h.PDFToWord)
		r.Post("/word-to-pdf", h.WordToPDF)
		r.Post("/pdf-to-excel", h.PDFToExcel)
		r.Post("/excel-to-pdf", h.ExcelToPDF)
		r.Post("/pdf-to-image", h.PDFToImage)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Endpoint not found", Kind: "NotFound"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed", Kind: "MethodNotAllowed"})
	})

	return r
}
