package models

import (
	"path/filepath"
	"strings"
	"time"
)

// ConversionRequest describes one conversion. It lives for a single HTTP call.
type ConversionRequest struct {
	InputPath    string `json:"input_path"`
	OutputPath   string `json:"output_path"`
	InputFormat  string `json:"from"`
	OutputFormat string `json:"to"`
	// Page selects the PDF page for page rendering, 1-based. Zero means the first page.
	Page int `json:"page,omitempty"`
}

// StoredFile is a file materialized on local storage for the duration of one request.
type StoredFile struct {
	Path         string `json:"path"`
	OriginalName string `json:"original_name"`
	Extension    string `json:"extension"`
	Size         int64  `json:"size"`
}

// BaseName returns the original name without its extension.
func (f *StoredFile) BaseName() string {
	return strings.TrimSuffix(f.OriginalName, filepath.Ext(f.OriginalName))
}

// FileInfo is the result of inspecting an uploaded file.
type FileInfo struct {
	Format     string   `json:"format"`
	MimeType   string   `json:"mime_type"`
	Size       int64    `json:"size"`
	Width      int      `json:"width,omitempty"`
	Height     int      `json:"height,omitempty"`
	ColorModel string   `json:"mode,omitempty"`
	Pages      int      `json:"pages,omitempty"`
	Sheets     []string `json:"sheets,omitempty"`
	SheetCount int      `json:"sheet_count,omitempty"`
	Paragraphs int      `json:"paragraphs,omitempty"`
	Tables     int      `json:"tables,omitempty"`
}

// ConversionRecord is one row of the conversion history.
type ConversionRecord struct {
	ID           string        `json:"id"`
	OriginalName string        `json:"original_name"`
	InputFormat  string        `json:"from"`
	OutputFormat string        `json:"to"`
	InputSize    int64         `json:"input_size"`
	OutputSize   int64         `json:"output_size"`
	Status       string        `json:"status"`
	Error        string        `json:"error,omitempty"`
	Duration     time.Duration `json:"duration_ns"`
	CreatedAt    time.Time     `json:"created_at"`
}

const (
	StatusDone   = "done"
	StatusFailed = "failed"
)

// NormalizeFormat lower-cases a format and strips whitespace and a leading dot.
func NormalizeFormat(format string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(format)), ".")
}
