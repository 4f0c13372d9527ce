package sink

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// parquetParallelism is the number of goroutines marshaling row groups.
const parquetParallelism = 4

var unsafeColumnChars = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// ParquetWriter writes a Snappy-compressed Parquet file. Every column is
// OPTIONAL so missing readings stay null; measurements are DOUBLE and the
// rest UTF8 strings.
type ParquetWriter struct{}

func (ParquetWriter) Format() string { return "parquet" }

func (ParquetWriter) Write(ctx context.Context, path string, t Table) (err error) {
	if err := prepare(path); err != nil {
		return err
	}

	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := fw.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	pw, err := writer.NewCSVWriter(ParquetSchema(t), fw, parquetParallelism)
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := 0; i < t.Len(); i++ {
		if i%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := pw.Write(t.Row(i)); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finish parquet: %w", err)
	}
	return nil
}

// ParquetSchema renders the column metadata in parquet-go tag syntax. Raw
// passthrough headers may hold commas or accents, which the tag syntax
// cannot carry, so names are reduced to [A-Za-z0-9_] and de-duplicated.
func ParquetSchema(t Table) []string {
	md := make([]string, len(t.Columns))
	seen := make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		name := ParquetColumnName(c.Name)
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name += "_" + strconv.Itoa(n+1)
		} else {
			seen[name] = 1
		}

		typ := "type=BYTE_ARRAY, convertedtype=UTF8"
		if c.Kind == KindReal {
			typ = "type=DOUBLE"
		}
		md[i] = fmt.Sprintf("name=%s, %s, repetitiontype=OPTIONAL", name, typ)
	}
	return md
}

// ParquetColumnName maps a column name to the characters Parquet tags accept.
func ParquetColumnName(name string) string {
	s := unsafeColumnChars.ReplaceAllString(name, "_")
	if s == "" || s == "_" {
		return "coluna"
	}
	return s
}
