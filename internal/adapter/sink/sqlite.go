package sink

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// TableName is the table each SQLite partition file holds.
const TableName = "observacoes"

// SQLiteWriter writes each partition to its own SQLite database file.
type SQLiteWriter struct{}

func (SQLiteWriter) Format() string { return "sqlite" }

func (SQLiteWriter) Write(ctx context.Context, path string, t Table) (err error) {
	if err := prepare(path); err != nil {
		return err
	}

	db, err := sql.Open("sqlite3", sqliteDSN(path))
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("db close: %w", cerr)
		}
	}()

	if _, err := db.ExecContext(ctx, createTableSQL(t)); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insertSQL(t))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < t.Len(); i++ {
		if _, err = stmt.ExecContext(ctx, t.Row(i)...); err != nil {
			return fmt.Errorf("insert row %d: %w", i+1, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// sqliteDSN builds a file URI for path. The path is escaped so "?" and "#"
// in directory or file names are not read as the query or fragment.
func sqliteDSN(path string) string {
	q := url.Values{}
	q.Set("_busy_timeout", "5000")
	q.Set("_journal_mode", "OFF")
	return (&url.URL{Scheme: "file", Opaque: url.PathEscape(path), RawQuery: q.Encode()}).String()
}

func createTableSQL(t Table) string {
	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		typ := "TEXT"
		if c.Kind == KindReal {
			typ = "REAL"
		}
		defs[i] = quoteIdent(c.Name) + " " + typ
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(TableName), strings.Join(defs, ", "))
}

func insertSQL(t Table) string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = quoteIdent(c.Name)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.Columns)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(TableName), strings.Join(names, ", "), placeholders)
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
