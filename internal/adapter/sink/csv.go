package sink

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"os"
)

// CSVWriter writes comma-separated UTF-8 text with a header row. Decimals
// use a point; missing values are empty fields.
type CSVWriter struct{}

func (CSVWriter) Format() string { return "csv" }

func (CSVWriter) Write(ctx context.Context, path string, t Table) (err error) {
	if err := prepare(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	bw := bufio.NewWriter(f)
	w := csv.NewWriter(bw)
	if err := w.Write(t.Names()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(t.Columns))
	for i := 0; i < t.Len(); i++ {
		if i%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		for j, cell := range t.Row(i) {
			record[j] = formatCell(cell)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return bw.Flush()
}
