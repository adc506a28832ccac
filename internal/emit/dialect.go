package emit

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"xtd/internal/introspect"
	"xtd/pkg/config"
)

type dialect struct {
	quote func(string) string
	types map[string]string
}

func doubleQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

var dialects = map[string]dialect{
	"sqlite": {
		quote: doubleQuote,
		types: map[string]string{},
	},
	"postgres": {
		quote: doubleQuote,
		types: map[string]string{
			"INT":      "INTEGER",
			"BIT":      "BIT",
			"FLOAT":    "DOUBLE PRECISION",
			"NVARCHAR": "VARCHAR",
			"NTEXT":    "TEXT",
		},
	},
	"mysql": {
		quote: func(s string) string { return "`" + strings.ReplaceAll(s, "`", "``") + "`" },
		types: map[string]string{
			"INT":      "INT",
			"BIT":      "BIT",
			"FLOAT":    "DOUBLE",
			"NVARCHAR": "VARCHAR(255)",
			"NTEXT":    "LONGTEXT",
		},
	},
	"sqlserver": {
		quote: func(s string) string { return "[" + strings.ReplaceAll(s, "]", "]]") + "]" },
		types: map[string]string{
			"INT":      "INT",
			"BIT":      "BIT",
			"FLOAT":    "FLOAT",
			"NVARCHAR": "NVARCHAR(4000)",
			"NTEXT":    "NVARCHAR(MAX)",
		},
	},
	"godror": {
		quote: doubleQuote,
		types: map[string]string{
			"INT":      "NUMBER(10)",
			"BIT":      "NUMBER(1)",
			"FLOAT":    "BINARY_DOUBLE",
			"NVARCHAR": "NVARCHAR2(2000)",
			"NTEXT":    "NCLOB",
		},
	},
}

// Dialects lists the dialect names Statements accepts.
func Dialects() []string {
	return []string{"sqlite", "postgres", "mysql", "sqlserver", "godror"}
}

// Statements renders one CREATE TABLE statement per table for the given
// database dialect, with quoted identifiers and dialect column types.
func Statements(s introspect.Schema, driver string) ([]string, error) {
	d, ok := dialects[config.NormalizeDriver(driver)]
	if !ok {
		return nil, fmt.Errorf("no DDL dialect for driver %q (available: %v)", driver, Dialects())
	}
	stmts := make([]string, 0, len(s.Tables))
	for _, t := range s.Tables {
		cols := make([]string, 0, len(t.Columns))
		for _, c := range t.Columns {
			typ := c.Type
			if mapped, ok := d.types[typ]; ok {
				typ = mapped
			}
			col := d.quote(c.Name) + " " + typ
			if c.PK {
				col += " PRIMARY KEY"
			}
			cols = append(cols, col)
		}
		stmts = append(stmts, fmt.Sprintf("CREATE TABLE %s (%s)", d.quote(t.Name), strings.Join(cols, ", ")))
	}
	return stmts, nil
}

// DialectDDL writes the statements of Statements, one per line, each
// terminated by a semicolon.
func DialectDDL(out io.Writer, s introspect.Schema, driver, header string) error {
	stmts, err := Statements(s, driver)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(out)
	writeHeader(w, header)
	for _, stmt := range stmts {
		w.WriteString(stmt + ";\n")
	}
	return w.Flush()
}
