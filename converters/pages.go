package converters

import (
	"fmt"

	"github.com/gen2brain/go-fitz"
)

// pageDPI is the resolution pages are rasterized at.
const pageDPI = 150.0

// RenderPage rasterizes one page of a PDF to png or jpeg. page is 1-based;
// zero selects the first page.
func RenderPage(inputPath, outputPath, format string, page int) error {
	doc, err := fitz.New(inputPath)
	if err != nil {
		return fmt.Errorf("opening pdf: %w", err)
	}
	defer doc.Close()

	if page == 0 {
		page = 1
	}
	if n := doc.NumPage(); page < 1 || page > n {
		return fmt.Errorf("page %d out of range, document has %d pages", page, n)
	}

	img, err := doc.ImageDPI(page-1, pageDPI)
	if err != nil {
		return fmt.Errorf("rendering page %d: %w", page, err)
	}
	if flattenedFormats[format] {
		return writeImage(outputPath, flattenOnWhite(img), format)
	}
	return writeImage(outputPath, img, format)
}
