package report

import (
	"fmt"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Заявки"

// RenderXLSX writes the table into an in-memory workbook.
func RenderXLSX(t Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	grid := t.Grid()
	widths := make([]int, len(Header))
	for i, row := range grid {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
		// The title and total span several columns and do not size them.
		if i+1 == titleRow || i == len(grid)-1 {
			continue
		}
		for j, v := range row {
			if j < len(widths) {
				widths[j] = max(widths[j], utf8.RuneCountInString(fmt.Sprint(v)))
			}
		}
	}

	if err := styleTitle(f); err != nil {
		return nil, err
	}
	if err := styleHeader(f); err != nil {
		return nil, err
	}
	if err := styleTotal(f, len(grid)); err != nil {
		return nil, err
	}
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheetName, col, col, float64(w+2)*1.2); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func styleTitle(f *excelize.File) error {
	last, _ := excelize.ColumnNumberToName(len(Header))
	if err := f.MergeCell(sheetName, "A1", fmt.Sprintf("%s%d", last, titleRow)); err != nil {
		return fmt.Errorf("merge title: %w", err)
	}
	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("title style: %w", err)
	}
	return f.SetCellStyle(sheetName, "A1", "A1", style)
}

func styleHeader(f *excelize.File) error {
	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, _ := excelize.ColumnNumberToName(len(Header))
	return f.SetCellStyle(sheetName, fmt.Sprintf("A%d", headerRow), fmt.Sprintf("%s%d", last, headerRow), style)
}

func styleTotal(f *excelize.File, row int) error {
	if err := f.MergeCell(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("D%d", row)); err != nil {
		return fmt.Errorf("merge total: %w", err)
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("total style: %w", err)
	}
	cell := fmt.Sprintf("A%d", row)
	return f.SetCellStyle(sheetName, cell, cell, style)
}
