package extractors

import (
	"context"
	"database/sql"
	"fmt"

	"xtd/internal/db"
	"xtd/internal/introspect"
	"xtd/internal/logger"
)

// sqliteExtractor implements Extractor for SQLite.
type sqliteExtractor struct{}

// This is the extractor for SQLite
func (sqliteExtractor) Extract(ctx context.Context, dbConn *sql.DB) (introspect.Schema, error) {
	s := newSchema()

	tr, err := dbConn.QueryContext(ctx, `
	    SELECT name
		FROM sqlite_master
		WHERE type = 'table'
		  AND name NOT LIKE 'sqlite_%'
		ORDER BY rowid`)
	if err != nil {
		return s, fmt.Errorf("query tables: %w", err)
	}
	for tr.Next() {
		var tab introspect.Table
		if err := tr.Scan(&tab.Name); err != nil {
			tr.Close()
			return s, fmt.Errorf("scan table row: %w", err)
		}
		s.Tables = append(s.Tables, tab)
	}
	tr.Close()

	for i := range s.Tables {
		t := &s.Tables[i]
		pr, err := dbConn.QueryContext(ctx, `SELECT name, type, pk FROM pragma_table_info(?) ORDER BY cid`, t.Name)
		if err != nil {
			return s, fmt.Errorf("query columns for %s: %w", t.Name, err)
		}
		for pr.Next() {
			var col introspect.Column
			var pk int
			if err := pr.Scan(&col.Name, &col.Type, &pk); err != nil {
				pr.Close()
				return s, fmt.Errorf("scan column for %s: %w", t.Name, err)
			}
			col.PK = pk != 0
			t.Columns = append(t.Columns, col)
		}
		pr.Close()

		fkRows, err := dbConn.QueryContext(ctx, `SELECT ?, "from", "table", "to" FROM pragma_foreign_key_list(?)`, t.Name, t.Name)
		if err != nil {
			logger.Error("query foreign key: %v", err)
			continue
		}
		scanForeignKeys(&s, fkRows)
	}

	return s, nil
}

func init() {
	db.Register("sqlite3", sqliteExtractor{})
	db.Register("sqlite", sqliteExtractor{})
}
