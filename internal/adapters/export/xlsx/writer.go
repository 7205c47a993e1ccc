// Package xlsx exporta los diagnósticos a una planilla Excel.
package xlsx

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const SheetName = "diagnosticos"

// Write arma un libro con una hoja: header en la fila 1 y una fila por registro.
func Write(w io.Writer, header []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return err
		}
	}

	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return err
			}
		}
	}

	if len(header) > 0 {
		last, err := excelize.CoordinatesToCellName(len(header), 1)
		if err != nil {
			return err
		}
		if err := f.AutoFilter(SheetName, "A1:"+last, nil); err != nil {
			return fmt.Errorf("autofilter: %w", err)
		}
		if err := f.SetColWidth(SheetName, "A", "A", 20); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
