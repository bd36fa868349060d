package reports

import (
	"context"
	"fmt"
	"io"

	"github.com/mkitchen-fabworks/production_backend/models"
	"github.com/xuri/excelize/v2"
)

// WriteLowStockExcel writes the low-stock report for all tracked kinds as an
// xlsx workbook.
func WriteLowStockExcel(ctx context.Context, w io.Writer) error {

	entries, err := models.GetAllLowStock(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	_, err = f.NewSheet("Sheet1")
	if err != nil {
		return err
	}

	// Add headers
	f.SetCellValue("Sheet1", "A1", "Kind")
	f.SetCellValue("Sheet1", "B1", "Name")
	f.SetCellValue("Sheet1", "C1", "Unit")
	f.SetCellValue("Sheet1", "D1", "Current")
	f.SetCellValue("Sheet1", "E1", "Minimum")
	f.SetCellValue("Sheet1", "F1", "SuggestedReplenishment")

	// Add data
	for i, entry := range entries {
		row := fmt.Sprint(i + 2)
		f.SetCellValue("Sheet1", "A"+row, string(entry.TargetKind))
		f.SetCellValue("Sheet1", "B"+row, entry.Name)
		f.SetCellValue("Sheet1", "C"+row, entry.Unit)
		f.SetCellValue("Sheet1", "D"+row, entry.Current.String())
		f.SetCellValue("Sheet1", "E"+row, entry.Min.String())
		f.SetCellValue("Sheet1", "F"+row, entry.Suggested)
	}

	return f.Write(w)
}
