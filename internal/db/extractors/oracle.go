//go:build oracle
// +build oracle

package extractors

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/godror/godror"

	"xtd/internal/db"
	"xtd/internal/introspect"
	"xtd/internal/logger"
)

// oracleExtractor implements Extractor for Oracle.
type oracleExtractor struct{}

// This is the extractor for Oracle. It reads the tables owned by the connected user.
func (oracleExtractor) Extract(ctx context.Context, dbConn *sql.DB) (introspect.Schema, error) {
	s := newSchema()

	tr, err := dbConn.QueryContext(ctx, `
	    SELECT table_name
	    FROM user_tables
	    ORDER BY table_name`)
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
		// NUMBER(1) and NUMBER(10) only differ by precision
		cr, err := dbConn.QueryContext(ctx, `
            SELECT column_name,
                   CASE WHEN data_type = 'NUMBER' AND data_precision IS NOT NULL
                        THEN data_type || '(' || data_precision || ')'
                        ELSE data_type END
            FROM user_tab_columns
            WHERE table_name = :1
            ORDER BY column_id`, t.Name)
		if err != nil {
			return s, fmt.Errorf("query columns for %s: %w", t.Name, err)
		}
		if err := scanColumns(t, cr); err != nil {
			return s, err
		}

		pkr, err := dbConn.QueryContext(ctx, `
            SELECT ucc.column_name
            FROM user_cons_columns ucc
            JOIN user_constraints uc ON ucc.constraint_name = uc.constraint_name
            WHERE uc.constraint_type = 'P' AND ucc.table_name = :1`, t.Name)
		if err != nil {
			logger.Error("query primary key: %v", err)
			continue
		}
		markPrimaryKeys(t, pkr)
	}

	fkr, err := dbConn.QueryContext(ctx, `
        SELECT a.table_name, acc.column_name, rcc.table_name, rcc.column_name
        FROM user_constraints a
        JOIN user_cons_columns acc
          ON a.constraint_name = acc.constraint_name
        JOIN all_cons_columns rcc
          ON a.r_owner = rcc.owner
         AND a.r_constraint_name = rcc.constraint_name
         AND nvl(acc.position, 0) = nvl(rcc.position, 0)
        WHERE a.constraint_type = 'R'
        ORDER BY a.table_name, acc.position`)
	if err != nil {
		logger.Error("query foreign key: %v", err)
		return s, nil
	}
	scanForeignKeys(&s, fkr)
	return s, nil
}

func init() {
	db.Register("godror", oracleExtractor{})
	db.Register("oracle", oracleExtractor{})
}
