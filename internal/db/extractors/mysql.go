package extractors

import (
	"context"
	"database/sql"
	"fmt"

	"xtd/internal/db"
	"xtd/internal/introspect"
	"xtd/internal/logger"
)

// myExtractor implements Extractor for MySQL (information_schema).
type myExtractor struct{}

// This is the extractor for MySQL. It reads the tables of the connected database.
func (myExtractor) Extract(ctx context.Context, dbConn *sql.DB) (introspect.Schema, error) {
	s := newSchema()

	tr, err := dbConn.QueryContext(ctx, `
        SELECT table_schema, table_name
        FROM information_schema.tables
        WHERE table_type = 'BASE TABLE'
          AND table_schema = DATABASE()
        ORDER BY table_name`)
	if err != nil {
		return s, fmt.Errorf("query tables: %w", err)
	}
	for tr.Next() {
		var tab introspect.Table
		if err := tr.Scan(&tab.Schema, &tab.Name); err != nil {
			tr.Close()
			return s, fmt.Errorf("scan table row: %w", err)
		}
		s.Tables = append(s.Tables, tab)
	}
	tr.Close()

	for i := range s.Tables {
		t := &s.Tables[i]
		// column_type keeps the length, so BIT(1) and TINYINT(1) stay apart from INT
		cr, err := dbConn.QueryContext(ctx, `
            SELECT column_name, column_type
            FROM information_schema.columns
            WHERE table_schema = ? AND table_name = ?
            ORDER BY ordinal_position`, t.Schema, t.Name)
		if err != nil {
			return s, fmt.Errorf("query columns for %s.%s: %w", t.Schema, t.Name, err)
		}
		if err := scanColumns(t, cr); err != nil {
			return s, err
		}

		pkr, err := dbConn.QueryContext(ctx, `
            SELECT k.COLUMN_NAME
            FROM information_schema.key_column_usage k
            JOIN information_schema.table_constraints tc
              ON k.constraint_name = tc.constraint_name
             AND k.table_schema = tc.table_schema
             AND k.table_name = tc.table_name
            WHERE tc.constraint_type = 'PRIMARY KEY' AND k.table_schema = ? AND k.table_name = ?`, t.Schema, t.Name)
		if err != nil {
			logger.Error("query primary key: %v", err)
			continue
		}
		markPrimaryKeys(t, pkr)
	}

	fkr, err := dbConn.QueryContext(ctx, `
        SELECT table_name, column_name, referenced_table_name, referenced_column_name
        FROM information_schema.key_column_usage
        WHERE referenced_table_name IS NOT NULL AND table_schema = DATABASE()
        ORDER BY table_name, ordinal_position`)
	if err != nil {
		logger.Error("query foreign key: %v", err)
		return s, nil
	}
	scanForeignKeys(&s, fkr)
	return s, nil
}

func init() {
	db.Register("mysql", myExtractor{})
	db.Register("mariadb", myExtractor{})
}
