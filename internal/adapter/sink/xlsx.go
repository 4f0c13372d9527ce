package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const sheetName = "observacoes"

// ErrTooManyRows reports a partition larger than one worksheet can hold.
var ErrTooManyRows = errors.New("partition exceeds the xlsx sheet row limit")

// maxSheetRows counts the header row.
var maxSheetRows = excelize.TotalRows

// XLSXWriter writes a single-sheet workbook through excelize's streaming
// writer, so rows are not held twice in memory.
type XLSXWriter struct{}

func (XLSXWriter) Format() string { return "xlsx" }

func (XLSXWriter) Write(ctx context.Context, path string, t Table) error {
	if t.Len()+1 > maxSheetRows {
		return fmt.Errorf("%w: %d rows, at most %d fit; partition by month or day", ErrTooManyRows, t.Len(), maxSheetRows-1)
	}
	if err := prepare(path); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("create stream writer: %w", err)
	}

	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := 0; i < t.Len(); i++ {
		if i%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, t.Row(i)); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
