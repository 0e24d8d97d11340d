package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/web3-frozen/daily-report/internal/report"
)

const noDataRow = "No data"

var sheetNameCleaner = strings.NewReplacer(":", "-", `\`, "-", "/", "-", "?", "", "*", "", "[", "(", "]", ")")

func sheetName(t report.Table) string {
	name := sheetNameCleaner.Replace(t.Title)
	if name == "" {
		name = string(t.Category)
	}
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	return name
}

type sheetStyles struct {
	header, up, down, currency, link int
}

func newSheetStyles(f *excelize.File) (sheetStyles, error) {
	var s sheetStyles
	var err error
	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&s.header, &excelize.Style{
			Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"111827"}},
		}},
		{&s.up, &excelize.Style{Font: &excelize.Font{Bold: true, Color: "15803D"}}},
		{&s.down, &excelize.Style{Font: &excelize.Font{Bold: true, Color: "B91C1C"}}},
		{&s.currency, &excelize.Style{Alignment: &excelize.Alignment{Horizontal: "right"}}},
		{&s.link, &excelize.Style{Font: &excelize.Font{Color: "1D4ED8", Underline: "single"}}},
	}
	for _, d := range defs {
		if *d.dst, err = f.NewStyle(d.style); err != nil {
			return s, fmt.Errorf("create style: %w", err)
		}
	}
	return s, nil
}

// XLSX writes one sheet per category with a fixed column order. An empty
// category gets a single placeholder row.
func XLSX(w io.Writer, b *report.Bundle) error {
	f := excelize.NewFile()
	defer f.Close()

	styles, err := newSheetStyles(f)
	if err != nil {
		return err
	}

	for i, t := range b.Tables {
		name := sheetName(t)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("new sheet %q: %w", name, err)
		}
		if err := writeSheet(f, name, t, styles); err != nil {
			return fmt.Errorf("sheet %q: %w", name, err)
		}
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, t report.Table, st sheetStyles) error {
	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(max(len(t.Columns), 1), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, st.header); err != nil {
		return err
	}

	if len(t.Rows) == 0 {
		return f.SetCellValue(sheet, "A2", noDataRow)
	}

	for r, row := range t.Rows {
		for c, cell := range row {
			ref, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, ref, cell.Value); err != nil {
				return err
			}
			style := 0
			switch cell.Tag {
			case report.TagPercentPositive:
				style = st.up
			case report.TagPercentNegative:
				style = st.down
			case report.TagCurrency:
				style = st.currency
			case report.TagLink:
				style = st.link
				if err := f.SetCellHyperLink(sheet, ref, cell.Value, "External"); err != nil {
					return err
				}
			}
			if style != 0 {
				if err := f.SetCellStyle(sheet, ref, ref, style); err != nil {
					return err
				}
			}
		}
	}

	lastCol, err := excelize.ColumnNumberToName(max(len(t.Columns), 1))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", lastCol, 18)
}

// XLSXBytes renders the workbook into memory.
func XLSXBytes(b *report.Bundle) ([]byte, error) {
	var buf bytes.Buffer
	if err := XLSX(&buf, b); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
