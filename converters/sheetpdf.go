package converters

import (
	"fmt"

	"github.com/go-pdf/fpdf"
)

// A4 layout for rendered workbooks, in points.
const (
	sheetMargin     = 30.0
	sheetTitleSize  = 14.0
	sheetTitleAfter = 12.0
	titleSpacer     = 14.4
	headerFontSize  = 10.0
	bodyFontSize    = 9.0
	headerRowHeight = 22.0
	bodyRowHeight   = 16.0
	cellPadding     = 6.0
	gridWidth       = 0.5
	boxWidth        = 1.0
)

type rgb struct{ r, g, b int }

var (
	headerFill = rgb{0x44, 0x72, 0xC4}
	headerText = rgb{245, 245, 245} // whitesmoke
	titleText  = rgb{0x1a, 0x1a, 0x1a}
	rowFills   = []rgb{{255, 255, 255}, {211, 211, 211}} // white, lightgrey
	gridColor  = rgb{128, 128, 128}
)

// RenderWorkbook renders every sheet of an xlsx or xls workbook as a styled
// table. Each sheet starts a new page.
func RenderWorkbook(inputPath, outputPath, format string) error {
	sheets, err := readSheets(inputPath, format)
	if err != nil {
		return err
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(sheetMargin, sheetMargin, sheetMargin)
	pdf.SetAutoPageBreak(false, sheetMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, sh := range sheets {
		pdf.AddPage()
		if len(sheets) > 1 {
			pdf.SetFont("Helvetica", "B", sheetTitleSize)
			pdf.SetTextColor(titleText.r, titleText.g, titleText.b)
			pdf.CellFormat(0, sheetTitleSize*1.2, tr("Sheet: "+sh.Name), "", 1, "L", false, 0, "")
			pdf.Ln(sheetTitleAfter + titleSpacer)
		}
		drawSheetTable(pdf, tr, sh.Rows)
	}
	if pdf.PageCount() == 0 {
		pdf.AddPage()
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("rendering pdf: %w", err)
	}
	return pdf.OutputFileAndClose(outputPath)
}

// drawSheetTable draws rows as a grid, header first, continuing on new pages
// when the page fills up.
func drawSheetTable(pdf *fpdf.Fpdf, tr func(string) string, rows [][]string) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}
	pageW, pageH := pdf.GetPageSize()
	widths := columnWidths(pdf, tr, rows, pageW-2*sheetMargin)
	total := 0.0
	for _, w := range widths {
		total += w
	}
	left := sheetMargin + (pageW-2*sheetMargin-total)/2
	bottom := pageH - sheetMargin

	segmentTop := pdf.GetY()
	closeBox := func() {
		pdf.SetDrawColor(0, 0, 0)
		pdf.SetLineWidth(boxWidth)
		pdf.Rect(left, segmentTop, total, pdf.GetY()-segmentTop, "D")
	}

	for i, row := range rows {
		h := bodyRowHeight
		if i == 0 {
			h = headerRowHeight
		}
		if pdf.GetY()+h > bottom && pdf.GetY() > segmentTop {
			closeBox()
			pdf.AddPage()
			segmentTop = pdf.GetY()
		}

		pdf.SetX(left)
		pdf.SetDrawColor(gridColor.r, gridColor.g, gridColor.b)
		pdf.SetLineWidth(gridWidth)
		if i == 0 {
			pdf.SetFont("Helvetica", "B", headerFontSize)
			pdf.SetFillColor(headerFill.r, headerFill.g, headerFill.b)
			pdf.SetTextColor(headerText.r, headerText.g, headerText.b)
		} else {
			fill := rowFills[(i-1)%len(rowFills)]
			pdf.SetFont("Helvetica", "", bodyFontSize)
			pdf.SetFillColor(fill.r, fill.g, fill.b)
			pdf.SetTextColor(0, 0, 0)
		}
		align := "LM"
		if i == 0 {
			align = "CM"
		}
		for c, w := range widths {
			text := ""
			if c < len(row) {
				text = fitText(pdf, tr(row[c]), w-cellPadding)
			}
			pdf.CellFormat(w, h, text, "1", 0, align, true, 0, "")
		}
		pdf.Ln(h)
	}
	closeBox()
}

// columnWidths sizes columns to their widest cell and scales them down
// proportionally when the table is wider than avail.
func columnWidths(pdf *fpdf.Fpdf, tr func(string) string, rows [][]string, avail float64) []float64 {
	widths := make([]float64, len(rows[0]))
	for i, row := range rows {
		if i == 0 {
			pdf.SetFont("Helvetica", "B", headerFontSize)
		} else {
			pdf.SetFont("Helvetica", "", bodyFontSize)
		}
		for c := range widths {
			if c < len(row) {
				widths[c] = max(widths[c], pdf.GetStringWidth(tr(row[c]))+2*cellPadding)
			}
		}
	}

	total := 0.0
	for c := range widths {
		widths[c] = max(widths[c], 2*cellPadding)
		total += widths[c]
	}
	if total > avail {
		scale := avail / total
		for c := range widths {
			widths[c] *= scale
		}
	}
	return widths
}

// fitText truncates s with "..." so it fits in width at the current font.
func fitText(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	const ellipsis = "..."
	b := []byte(s)
	for len(b) > 0 {
		b = b[:len(b)-1]
		if pdf.GetStringWidth(string(b)+ellipsis) <= width {
			return string(b) + ellipsis
		}
	}
	return ""
}
