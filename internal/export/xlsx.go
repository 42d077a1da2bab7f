package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"milklog/internal/model"
)

const sheetName = "Records"

// WriteXLSX renders records as a single-sheet workbook with the shared header
// layout. Numeric columns keep their native type so spreadsheet formulas work.
func WriteXLSX(w io.Writer, recs []model.MilkRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	for col, name := range Header {
		cell, cerr := excelize.CoordinatesToCellName(col+1, 1)
		if cerr != nil {
			return cerr
		}
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return err
		}
	}

	for i, r := range recs {
		rowIdx := i + 2
		cells := []any{
			r.ID, r.CowTag, r.Litres, r.RecordDate, string(r.Session), r.Note, r.Tags,
		}
		if r.PricePerLitre != nil {
			cells = append(cells, *r.PricePerLitre)
		} else {
			cells = append(cells, "")
		}
		cells = append(cells, r.CreatedAt.UTC())
		for col, v := range cells {
			cell, cerr := excelize.CoordinatesToCellName(col+1, rowIdx)
			if cerr != nil {
				return cerr
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("row %d: %w", rowIdx, err)
			}
		}
	}

	if err := f.SetColWidth(sheetName, "A", "I", 14); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}
