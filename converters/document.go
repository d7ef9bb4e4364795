package converters

import (
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

// Letter page layout for rendered Word documents, in points.
const (
	docMargin        = 72.0
	headingSize      = 16.0
	headingAfter     = 12.0
	bodySize         = 11.0
	bodyAfter        = 6.0
	paragraphSpacer  = 7.2
	tableSpacer      = 14.4
	lineHeightFactor = 1.2
)

// RenderDocx lays out the paragraphs and tables of a .docx as a PDF.
func RenderDocx(inputPath, outputPath string) error {
	doc, err := readDocx(inputPath)
	if err != nil {
		return err
	}

	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(docMargin, docMargin, docMargin)
	pdf.SetAutoPageBreak(true, docMargin)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, b := range doc.Blocks {
		switch b.Kind {
		case blockParagraph:
			text := strings.TrimSpace(b.Text)
			if text == "" {
				continue
			}
			if b.Heading {
				writeParagraph(pdf, tr(text), "B", headingSize, headingAfter)
			} else {
				writeParagraph(pdf, tr(text), "", bodySize, bodyAfter)
			}
			pdf.Ln(paragraphSpacer)
		case blockTable:
			for _, row := range b.Rows {
				line := joinRow(row)
				if line == "" {
					continue
				}
				writeParagraph(pdf, tr(line), "", bodySize, bodyAfter)
			}
			pdf.Ln(tableSpacer)
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("rendering pdf: %w", err)
	}
	return pdf.OutputFileAndClose(outputPath)
}

func writeParagraph(pdf *fpdf.Fpdf, text, style string, size, after float64) {
	pdf.SetFont("Helvetica", style, size)
	pdf.MultiCell(0, size*lineHeightFactor, strings.ReplaceAll(text, "\t", "    "), "", "L", false)
	pdf.Ln(after)
}

// joinRow joins the cells of a table row with " | ". A row whose cells are all
// blank yields "".
func joinRow(row []string) string {
	cells := make([]string, len(row))
	blank := true
	for i, c := range row {
		cells[i] = strings.Join(strings.Fields(c), " ")
		if cells[i] != "" {
			blank = false
		}
	}
	if blank {
		return ""
	}
	return strings.Join(cells, " | ")
}
