package extractors

import (
	"database/sql"
	"fmt"

	"xtd/internal/introspect"
	"xtd/internal/logger"
)

// scanColumns appends (name, type) rows to t.
func scanColumns(t *introspect.Table, cr *sql.Rows) error {
	defer cr.Close()
	for cr.Next() {
		var col introspect.Column
		if err := cr.Scan(&col.Name, &col.Type); err != nil {
			return fmt.Errorf("scan column for %s: %w", t.Name, err)
		}
		t.Columns = append(t.Columns, col)
	}
	return cr.Err()
}

// markPrimaryKeys flags the columns named by the single-column rows of pkr.
func markPrimaryKeys(t *introspect.Table, pkr *sql.Rows) {
	defer pkr.Close()
	for pkr.Next() {
		var pkcol string
		if err := pkr.Scan(&pkcol); err != nil {
			logger.Error("scan primary key: %v", err)
			continue
		}
		for j := range t.Columns {
			if t.Columns[j].Name == pkcol {
				t.Columns[j].PK = true
			}
		}
	}
}

// scanForeignKeys reads (from_table, from_column, to_table, to_column) rows
// into s and flags the referencing columns.
func scanForeignKeys(s *introspect.Schema, fkr *sql.Rows) {
	defer fkr.Close()
	for fkr.Next() {
		var fk introspect.ForeignKey
		var to sql.NullString
		if err := fkr.Scan(&fk.FromTable, &fk.FromColumn, &fk.ToTable, &to); err != nil {
			logger.Error("scan foreign key: %v", err)
			continue
		}
		fk.ToColumn = to.String
		s.ForeignKeys = append(s.ForeignKeys, fk)
		markForeignKey(s, fk)
	}
}

func markForeignKey(s *introspect.Schema, fk introspect.ForeignKey) {
	for i := range s.Tables {
		if s.Tables[i].Name != fk.FromTable {
			continue
		}
		for j := range s.Tables[i].Columns {
			if s.Tables[i].Columns[j].Name == fk.FromColumn {
				s.Tables[i].Columns[j].FK = true
			}
		}
	}
}

func newSchema() introspect.Schema {
	return introspect.Schema{Tables: []introspect.Table{}, ForeignKeys: []introspect.ForeignKey{}}
}
