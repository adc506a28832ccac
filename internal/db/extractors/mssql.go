package extractors

import (
	"context"
	"database/sql"
	"fmt"

	"xtd/internal/db"
	"xtd/internal/introspect"
	"xtd/internal/logger"
)

// mssqlExtractor implements Extractor for Microsoft SQL Server.
type mssqlExtractor struct{}

// This is the extractor for Microsoft SQL Server. It reads the tables of the
// caller's default schema.
func (mssqlExtractor) Extract(ctx context.Context, dbConn *sql.DB) (introspect.Schema, error) {
	s := newSchema()

	tr, err := dbConn.QueryContext(ctx, `
        SELECT TABLE_SCHEMA, TABLE_NAME
        FROM INFORMATION_SCHEMA.TABLES
        WHERE TABLE_TYPE = 'BASE TABLE'
          AND TABLE_SCHEMA = SCHEMA_NAME()
        ORDER BY TABLE_NAME`)
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

		// nvarchar(max) reports a length of -1
		cr, err := dbConn.QueryContext(ctx, `
            SELECT COLUMN_NAME,
                   CASE WHEN CHARACTER_MAXIMUM_LENGTH = -1 THEN DATA_TYPE + '(max)' ELSE DATA_TYPE END
            FROM INFORMATION_SCHEMA.COLUMNS
            WHERE TABLE_SCHEMA = @schema AND TABLE_NAME = @table
            ORDER BY ORDINAL_POSITION`, sql.Named("schema", t.Schema), sql.Named("table", t.Name))
		if err != nil {
			return s, fmt.Errorf("query columns for %s.%s: %w", t.Schema, t.Name, err)
		}
		if err := scanColumns(t, cr); err != nil {
			return s, err
		}

		pkr, err := dbConn.QueryContext(ctx, `
            SELECT k.COLUMN_NAME
            FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS t
            JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE k ON t.CONSTRAINT_NAME = k.CONSTRAINT_NAME AND t.TABLE_SCHEMA = k.TABLE_SCHEMA
            WHERE t.CONSTRAINT_TYPE = 'PRIMARY KEY' AND k.TABLE_SCHEMA = @schema AND k.TABLE_NAME = @table`,
			sql.Named("schema", t.Schema), sql.Named("table", t.Name))
		if err != nil {
			logger.Error("query primary key: %v", err)
			continue
		}
		markPrimaryKeys(t, pkr)
	}

	fkr, err := dbConn.QueryContext(ctx, `
        SELECT
            OBJECT_NAME(fkc.parent_object_id),
            c.name,
            OBJECT_NAME(fkc.referenced_object_id),
            rc.name
        FROM sys.foreign_key_columns fkc
        JOIN sys.columns c ON fkc.parent_object_id = c.object_id AND fkc.parent_column_id = c.column_id
        JOIN sys.columns rc ON fkc.referenced_object_id = rc.object_id AND fkc.referenced_column_id = rc.column_id
        WHERE OBJECT_SCHEMA_NAME(fkc.parent_object_id) = SCHEMA_NAME()`)
	if err != nil {
		logger.Error("query foreign key: %v", err)
		return s, nil
	}
	scanForeignKeys(&s, fkr)
	return s, nil
}

func init() {
	db.Register("sqlserver", mssqlExtractor{})
	db.Register("mssql", mssqlExtractor{})
}
