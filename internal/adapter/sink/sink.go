package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Writer persists one partition table to path.
type Writer interface {
	// Format is the output format name, also used as the file extension.
	Format() string
	Write(ctx context.Context, path string, t Table) error
}

// New returns the writer for format: "csv", "xlsx", "sqlite" or "parquet".
func New(format string) (Writer, error) {
	switch format {
	case "csv":
		return CSVWriter{}, nil
	case "xlsx":
		return XLSXWriter{}, nil
	case "sqlite":
		return SQLiteWriter{}, nil
	case "parquet":
		return ParquetWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}

// prepare creates the parent directory of path and removes a previous file
// so every write starts from scratch.
func prepare(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove previous output: %w", err)
	}
	return nil
}
