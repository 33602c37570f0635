package matrix

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Cross-Sell Matrix"

// WriteXLSX renders the grid as a workbook: one row per client, one column per
// service, cells holding the status label.
func WriteXLSX(m Matrix, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	activeStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#C6EFCE"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create active style: %w", err)
	}

	if err := f.SetCellValue(sheetName, "A1", "Client"); err != nil {
		return err
	}
	for i, s := range m.Services {
		cell, _ := excelize.CoordinatesToCellName(i+2, 1)
		label := s.Name
		if s.BusinessUnit != "" {
			label = fmt.Sprintf("%s (%s)", s.Name, s.BusinessUnit)
		}
		if err := f.SetCellValue(sheetName, cell, label); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(m.Services)+1, 1)
	if err := f.SetCellStyle(sheetName, "A1", last, headerStyle); err != nil {
		return err
	}

	for r, c := range m.Clients {
		rowNum := r + 2
		nameCell, _ := excelize.CoordinatesToCellName(1, rowNum)
		if err := f.SetCellValue(sheetName, nameCell, c.Name); err != nil {
			return err
		}
		for i, s := range m.Services {
			cell, ok := m.Cell(c.ID, s.ID)
			if !ok {
				continue
			}
			ref, _ := excelize.CoordinatesToCellName(i+2, rowNum)
			if err := f.SetCellValue(sheetName, ref, cell.Status); err != nil {
				return err
			}
			if cell.Status == CellStatusActive {
				if err := f.SetCellStyle(sheetName, ref, ref, activeStyle); err != nil {
					return err
				}
			}
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 30)
	if len(m.Services) > 0 {
		first, _ := excelize.ColumnNumberToName(2)
		lastCol, _ := excelize.ColumnNumberToName(len(m.Services) + 1)
		_ = f.SetColWidth(sheetName, first, lastCol, 18)
	}
	_ = f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		XSplit:      1,
		YSplit:      1,
		TopLeftCell: "B2",
		ActivePane:  "bottomRight",
	})

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
