package extractors

import (
	"context"
	"database/sql"
	"fmt"

	"xtd/internal/db"
	"xtd/internal/introspect"
	"xtd/internal/logger"
)

// pgExtractor implements Extractor using information_schema + pg_catalog queries.
type pgExtractor struct{}

// This is the extractor for PostgreSQL. It reads the tables of the current schema.
func (pgExtractor) Extract(ctx context.Context, dbConn *sql.DB) (introspect.Schema, error) {
	s := newSchema()

	tr, err := dbConn.QueryContext(ctx, `
        SELECT table_schema, table_name
        FROM information_schema.tables
        WHERE table_type = 'BASE TABLE'
          AND table_schema = current_schema()
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
		cr, err := dbConn.QueryContext(ctx, `
            SELECT column_name, data_type
            FROM information_schema.columns
            WHERE table_schema = $1 AND table_name = $2
            ORDER BY ordinal_position`, t.Schema, t.Name)
		if err != nil {
			return s, fmt.Errorf("query columns for %s.%s: %w", t.Schema, t.Name, err)
		}
		if err := scanColumns(t, cr); err != nil {
			return s, err
		}

		pkr, err := dbConn.QueryContext(ctx, `
            SELECT a.attname
            FROM pg_index i
            JOIN pg_class c ON i.indrelid = c.oid
            JOIN pg_namespace ns ON c.relnamespace = ns.oid
            JOIN pg_attribute a ON a.attrelid = c.oid AND a.attnum = ANY(i.indkey)
            WHERE ns.nspname = $1 AND c.relname = $2 AND i.indisprimary`, t.Schema, t.Name)
		if err != nil {
			logger.Error("query primary key: %v", err)
			continue
		}
		markPrimaryKeys(t, pkr)
	}

	fkr, err := dbConn.QueryContext(ctx, `
        SELECT kcu.table_name, kcu.column_name, rkcu.table_name, rkcu.column_name
        FROM information_schema.table_constraints tc
        JOIN information_schema.key_column_usage kcu
          ON tc.constraint_name = kcu.constraint_name
         AND tc.constraint_schema = kcu.constraint_schema
        JOIN information_schema.referential_constraints rc
          ON tc.constraint_name = rc.constraint_name
         AND tc.constraint_schema = rc.constraint_schema
        JOIN information_schema.key_column_usage rkcu
          ON rc.unique_constraint_name = rkcu.constraint_name
         AND rc.unique_constraint_schema = rkcu.constraint_schema
         AND kcu.ordinal_position = rkcu.ordinal_position
        WHERE tc.constraint_type = 'FOREIGN KEY'
          AND tc.table_schema = current_schema()
        ORDER BY kcu.table_name, kcu.ordinal_position`)
	if err != nil {
		logger.Error("query foreign key: %v", err)
		return s, nil
	}
	scanForeignKeys(&s, fkr)
	return s, nil
}

func init() {
	db.Register("postgres", pgExtractor{})
	db.Register("postgresql", pgExtractor{})
}
