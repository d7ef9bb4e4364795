package converters

import (
	"fmt"
	"unicode/utf8"

	"github.com/extrame/xls"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/akila/convert-api/models"
)

const (
	maxSheetName   = 31
	maxColumnWidth = 50
)

// sheetFormatter styles a written sheet. Replaced in tests.
var sheetFormatter = formatSheet

// PDFToWorkbook extracts the tables of a PDF into an xlsx workbook, one sheet
// per table.
func PDFToWorkbook(inputPath, outputPath string, logger zerolog.Logger) error {
	tables, err := ExtractTables(inputPath)
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		return models.Errorf(models.KindNoTablesFound,
			"No tables found in PDF. The PDF may not contain tabular data.")
	}
	return WriteWorkbook(outputPath, tables, logger)
}

// WriteWorkbook writes each non-empty table to a sheet named Table_<n>, where n
// is the table's position in tables. Formatting problems are logged and leave
// the sheet unformatted.
func WriteWorkbook(path string, tables []Table, logger zerolog.Logger) error {
	f := excelize.NewFile()
	defer f.Close()

	written := 0
	for i, t := range tables {
		if len(t.Rows) == 0 {
			continue
		}
		name := fmt.Sprintf("Table_%d", i+1)
		if len(name) > maxSheetName {
			name = name[:maxSheetName]
		}
		if written == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return fmt.Errorf("naming sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", name, err)
		}

		for r, row := range t.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return err
			}
			values := make([]interface{}, len(row))
			for c, v := range row {
				values[c] = v
			}
			if err := f.SetSheetRow(name, cell, &values); err != nil {
				return fmt.Errorf("writing %s!%s: %w", name, cell, err)
			}
		}

		if err := sheetFormatter(f, name, t.Rows); err != nil {
			logger.Warn().Err(err).Str("sheet", name).Msg("formatting skipped")
		}
		written++
	}
	if written == 0 {
		return models.Errorf(models.KindNoTablesFound,
			"No tables found in PDF. The PDF may not contain tabular data.")
	}

	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

// formatSheet bolds and centres the header row and sizes each column to its
// longest value plus two, capped at 50.
func formatSheet(f *excelize.File, sheet string, rows [][]string) error {
	cols := 0
	for _, row := range rows {
		cols = max(cols, len(row))
	}
	if cols == 0 {
		return nil
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(cols, 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, header); err != nil {
		return err
	}

	for c := 0; c < cols; c++ {
		longest := 0
		for _, row := range rows {
			if c < len(row) {
				longest = max(longest, utf8.RuneCountInString(row[c]))
			}
		}
		name, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		width := float64(min(longest+2, maxColumnWidth))
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return err
		}
	}
	return nil
}

// sheet is the cell text of one worksheet, first row being the header.
type sheet struct {
	Name string
	Rows [][]string
}

// readSheets loads every worksheet of an xlsx or xls workbook.
func readSheets(path, format string) ([]sheet, error) {
	if format == "xls" {
		return readXLS(path)
	}
	return readXLSX(path)
}

func readXLSX(path string) ([]sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	var out []sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %s: %w", name, err)
		}
		out = append(out, sheet{Name: name, Rows: padRows(rows)})
	}
	return out, nil
}

func readXLS(path string) (out []sheet, err error) {
	// The xls reader panics on some corrupt files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reading xls: %v", r)
		}
	}()

	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	for i := 0; i < wb.NumSheets(); i++ {
		ws := wb.GetSheet(i)
		if ws == nil {
			continue
		}
		var rows [][]string
		for r := 0; r <= int(ws.MaxRow); r++ {
			row := ws.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]string, row.LastCol())
			for c := row.FirstCol(); c < row.LastCol(); c++ {
				cells[c] = row.Col(c)
			}
			rows = append(rows, cells)
		}
		out = append(out, sheet{Name: ws.Name, Rows: padRows(trimTrailingEmpty(rows))})
	}
	return out, nil
}

// padRows makes every row as wide as the widest one.
func padRows(rows [][]string) [][]string {
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	for i, r := range rows {
		if len(r) < width {
			rows[i] = append(r, make([]string, width-len(r))...)
		}
	}
	return rows
}

func trimTrailingEmpty(rows [][]string) [][]string {
	for len(rows) > 0 {
		last := rows[len(rows)-1]
		empty := true
		for _, c := range last {
			if c != "" {
				empty = false
				break
			}
		}
		if !empty {
			break
		}
		rows = rows[:len(rows)-1]
	}
	return rows
}
