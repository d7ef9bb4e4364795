// Package storage owns the temporary files a conversion request creates: uploads
// are saved under generated names, outputs get collision-free paths, and every
// file is removed once the request is over.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/akila/convert-api/models"
)

// Upload is an incoming file. A nil *Upload means the client sent no file.
type Upload struct {
	Filename string
	Content  io.Reader
}

// Manager creates and removes request-scoped files.
type Manager struct {
	fs        afero.Fs
	uploadDir string
	outputDir string
	maxSize   int64
	logger    zerolog.Logger
}

// NewManager returns a Manager rooted at the given directories.
func NewManager(fs afero.Fs, uploadDir, outputDir string, maxSize int64, logger zerolog.Logger) *Manager {
	return &Manager{
		fs:        fs,
		uploadDir: uploadDir,
		outputDir: outputDir,
		maxSize:   maxSize,
		logger:    logger.With().Str("component", "storage").Logger(),
	}
}

// MaxSize is the upload ceiling in bytes.
func (m *Manager) MaxSize() int64 {
	return m.maxSize
}

// SaveUpload validates and persists an upload under a generated name.
func (m *Manager) SaveUpload(upload *Upload, allowed []string) (*models.StoredFile, error) {
	if upload == nil || upload.Content == nil {
		return nil, models.Errorf(models.KindNoFile, "No file provided")
	}
	if strings.TrimSpace(upload.Filename) == "" {
		return nil, models.Errorf(models.KindEmptyFilename, "Empty filename")
	}

	ext, ok := allowedExtension(upload.Filename, allowed)
	if !ok {
		return nil, models.Errorf(models.KindDisallowedType,
			"File type not allowed. Allowed: %s", strings.Join(allowed, ", "))
	}

	original := Sanitize(upload.Filename)
	if !strings.HasSuffix(strings.ToLower(original), "."+ext) || len(original) == len(ext)+1 {
		original = "upload." + ext
	}

	if err := m.fs.MkdirAll(m.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	path := filepath.Join(m.uploadDir, uuid.NewString()+"."+ext)

	f, err := m.fs.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating upload file: %w", err)
	}
	// Read one byte past the ceiling so an oversized upload is detectable.
	n, copyErr := io.Copy(f, io.LimitReader(upload.Content, m.maxSize+1))
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		m.Cleanup(path)
		return nil, fmt.Errorf("writing upload: %w", err)
	}

	if n > m.maxSize {
		m.Cleanup(path)
		return nil, m.TooLarge()
	}

	m.logger.Debug().Str("path", path).Str("original", original).Int64("size", n).Msg("upload saved")
	return &models.StoredFile{
		Path:         path,
		OriginalName: original,
		Extension:    ext,
		Size:         n,
	}, nil
}

// TooLarge is the error returned for uploads over the ceiling.
func (m *Manager) TooLarge() error {
	return models.Errorf(models.KindFileTooLarge,
		"File too large. Max size: %s", humanize.IBytes(uint64(m.maxSize)))
}

// OutputPath returns a fresh path for a converted file. The file is not created.
func (m *Manager) OutputPath(originalFilename, ext string) string {
	clean := Sanitize(originalFilename)
	base := strings.TrimSuffix(clean, filepath.Ext(clean))
	if base == "" {
		base = "output"
	}
	if err := m.fs.MkdirAll(m.outputDir, 0o755); err != nil {
		m.logger.Warn().Err(err).Str("dir", m.outputDir).Msg("creating output dir")
	}
	name := fmt.Sprintf("%s_%s.%s", base, uuid.NewString(), models.NormalizeFormat(ext))
	return filepath.Join(m.outputDir, name)
}

// Cleanup removes path. A missing file is not an error; other failures are logged.
func (m *Manager) Cleanup(path string) {
	if path == "" {
		return
	}
	err := m.fs.Remove(path)
	if err == nil {
		m.logger.Debug().Str("path", path).Msg("removed")
		return
	}
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	m.logger.Warn().Err(err).Str("path", path).Msg("cleanup failed")
}

// Sweep removes files older than maxAge left in the upload and output
// directories, e.g. by a process that was killed mid-request.
func (m *Manager) Sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, dir := range []string{m.uploadDir, m.outputDir} {
		entries, err := afero.ReadDir(m.fs, dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || e.ModTime().After(cutoff) {
				continue
			}
			path := filepath.Join(dir, e.Name())
			if err := m.fs.Remove(path); err != nil {
				m.logger.Warn().Err(err).Str("path", path).Msg("sweep failed")
				continue
			}
			removed++
		}
	}
	return removed
}

// Open opens a stored file for reading.
func (m *Manager) Open(path string) (afero.File, error) {
	return m.fs.Open(path)
}

func allowedExtension(filename string, allowed []string) (string, bool) {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return "", false
	}
	ext := strings.ToLower(filename[i+1:])
	for _, a := range allowed {
		if models.NormalizeFormat(a) == ext {
			return ext, true
		}
	}
	return "", false
}
