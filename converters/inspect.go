package converters

import (
	"fmt"
	"image"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"

	"github.com/akila/convert-api/models"
)

// Inspect reports what can be learned about the file at path without
// converting it. format is the file's extension.
func Inspect(path, format string) (*models.FileInfo, error) {
	format = models.NormalizeFormat(format)
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("inspecting file: %w", err)
	}
	info := &models.FileInfo{Format: format, Size: st.Size()}

	if mt, err := mimetype.DetectFile(path); err == nil {
		info.MimeType = mt.String()
	}

	switch format {
	case "png", "jpg", "jpeg", "gif", "bmp", "webp", "avif":
		err = inspectImage(path, info)
	case "pdf":
		info.Pages, err = pdfPageCount(path)
	case "xlsx", "xls":
		var sheets []sheet
		if sheets, err = readSheets(path, format); err == nil {
			for _, s := range sheets {
				info.Sheets = append(info.Sheets, s.Name)
			}
			info.SheetCount = len(sheets)
		}
	case "docx":
		var doc *wordDocument
		if doc, err = readDocx(path); err == nil {
			info.Paragraphs, info.Tables = doc.counts()
		}
	}
	if err != nil {
		return nil, err
	}
	return info, nil
}

func inspectImage(path string, info *models.FileInfo) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return fmt.Errorf("decoding image header: %w", err)
	}
	info.Width, info.Height = cfg.Width, cfg.Height
	info.ColorModel = colorModelName(cfg.ColorModel)
	return nil
}

func pdfPageCount(path string) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reading pdf: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()
	return r.NumPage(), nil
}
