// Package emit renders an inferred schema as a DDL block, as per-dialect
// CREATE TABLE statements, as an XML relation report or as JSON.
package emit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"xtd/internal/introspect"
)

func writeHeader(w *bufio.Writer, header string) {
	if header != "" {
		fmt.Fprintf(w, "--%s\n\n", header)
	}
}

// DDL writes one CREATE TABLE block per table in the generic column types.
func DDL(out io.Writer, s introspect.Schema, header string) error {
	w := bufio.NewWriter(out)
	writeHeader(w, header)
	for _, t := range s.Tables {
		cols := make([]string, 0, len(t.Columns))
		for _, c := range t.Columns {
			col := "  " + c.Name + " " + c.Type
			if c.PK {
				col += " PRIMARY KEY"
			}
			cols = append(cols, col)
		}
		fmt.Fprintf(w, "CREATE TABLE %s(\n%s\n);\n\n", t.Name, strings.Join(cols, ",\n"))
	}
	return w.Flush()
}

// Relations writes the relation report: one <table> per table listing the
// cardinality of every relation leaving it.
func Relations(out io.Writer, s introspect.Schema, header string) error {
	w := bufio.NewWriter(out)
	writeHeader(w, header)
	w.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<tables>\n")
	byTable := map[string][]introspect.Relation{}
	for _, r := range s.Relations {
		byTable[r.From] = append(byTable[r.From], r)
	}
	for _, t := range s.Tables {
		fmt.Fprintf(w, "    <table name=\"%s\">\n", t.Name)
		for _, r := range byTable[t.Name] {
			fmt.Fprintf(w, "        <relation to=\"%s\" relation_type=\"%s\" />\n", r.To, r.Type)
		}
		w.WriteString("    </table>\n")
	}
	w.WriteString("</tables>\n")
	return w.Flush()
}

// JSON writes the schema, relations included, as indented JSON.
func JSON(out io.Writer, s introspect.Schema) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
