package introspect

import (
	"strings"

	"xtd/internal/schema"
)

// Column represents a table column.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
	PK   bool   `json:"pk"`
	FK   bool   `json:"fk,omitempty"`
}

// ForeignKey represents a foreign key relationship.
type ForeignKey struct {
	FromTable  string `json:"from_table"`
	FromColumn string `json:"from_column"`
	ToTable    string `json:"to_table"`
	ToColumn   string `json:"to_column,omitempty"`
}

// Relation is the cardinality between two tables, as reported by the relation engine.
type Relation struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"relation_type"`
}

// Table represents a database table and its columns.
type Table struct {
	Schema  string   `json:"schema,omitempty"`
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Schema is the full schema handed to the emitters.
type Schema struct {
	Tables      []Table      `json:"tables"`
	ForeignKeys []ForeignKey `json:"foreign_keys"`
	Relations   []Relation   `json:"relations,omitempty"`
}

// StripNamespace removes the "{uri}" prefix ns from name.
func StripNamespace(name, ns string) string {
	if ns != "" && strings.HasPrefix(name, strings.ToLower(ns)) {
		return name[len(ns):]
	}
	return name
}

// FromRegistry lays out an inferred registry as tables of columns: the
// primary key first, then one INT column per foreign key, then attributes.
// The namespace prefix ns is stripped from every name.
func FromRegistry(reg *schema.Registry, ns string) Schema {
	s := Schema{Tables: []Table{}, ForeignKeys: []ForeignKey{}}
	for _, t := range reg.Tables() {
		name := StripNamespace(t.Name, ns)
		tab := Table{Name: name}
		tab.Columns = append(tab.Columns, Column{Name: schema.PrimaryKeyColumn(name), Type: schema.Int.String(), PK: true})
		for _, ref := range t.ForeignKeys() {
			ref = StripNamespace(ref, ns)
			col := schema.ForeignKeyColumn(ref)
			tab.Columns = append(tab.Columns, Column{Name: col, Type: schema.Int.String(), FK: true})
			s.ForeignKeys = append(s.ForeignKeys, ForeignKey{FromTable: name, FromColumn: col, ToTable: ref})
		}
		for _, attr := range t.Attributes() {
			typ, _ := t.Attribute(attr)
			tab.Columns = append(tab.Columns, Column{Name: StripNamespace(attr, ns), Type: typ.String()})
		}
		s.Tables = append(s.Tables, tab)
	}
	return s
}

// WithRelations returns s with the relations of g attached, namespace stripped.
func (s Schema) WithRelations(g *schema.Graph, ns string) Schema {
	s.Relations = []Relation{}
	for _, from := range g.Nodes() {
		for _, e := range g.Edges(from) {
			s.Relations = append(s.Relations, Relation{
				From: StripNamespace(e.From, ns),
				To:   StripNamespace(e.To, ns),
				Type: e.Label(),
			})
		}
	}
	return s
}

// ToRegistry rebuilds a reference registry from a schema read out of a
// database. Columns named "<x>_id" other than the primary key become
// foreign keys to x; every other column becomes an attribute whose type is
// mapped back onto the scalar type lattice.
func ToRegistry(s Schema) *schema.Registry {
	reg := schema.NewRegistry()
	for _, t := range s.Tables {
		tab := reg.Ensure(t.Name)
		for _, c := range t.Columns {
			name := strings.ToLower(c.Name)
			if c.PK {
				continue
			}
			if ref, ok := strings.CutSuffix(name, "_id"); ok && ref != "" && (c.FK || ScalarTypeOf(c.Type) == schema.Int) {
				tab.MergeForeignKey(ref, 1)
				continue
			}
			tab.Widen(name, ScalarTypeOf(c.Type))
		}
	}
	for _, fk := range s.ForeignKeys {
		if tab, ok := reg.Table(fk.FromTable); ok {
			if ref, ok := strings.CutSuffix(strings.ToLower(fk.FromColumn), "_id"); ok {
				tab.MergeForeignKey(ref, 1)
			}
		}
	}
	return reg
}

// ScalarTypeOf maps a database column type onto the scalar type lattice.
// Unknown types map to NTEXT, the widest type.
func ScalarTypeOf(dbType string) schema.ScalarType {
	t := strings.ToLower(strings.TrimSpace(dbType))
	if typ, ok := schema.ParseScalarType(t); ok && typ != schema.Str {
		return typ
	}
	base, _, _ := strings.Cut(t, "(")
	base = strings.TrimSpace(base)
	switch {
	case base == "bit" || base == "bool" || base == "boolean" || t == "number(1)" || t == "tinyint(1)":
		return schema.Bit
	case strings.HasSuffix(base, "int") || base == "integer" || base == "number":
		return schema.Int
	case base == "float" || base == "real" || base == "double" || base == "double precision" ||
		base == "binary_double" || base == "numeric" || base == "decimal":
		return schema.Float
	case strings.Contains(t, "max") || strings.HasSuffix(base, "text") || strings.HasSuffix(base, "clob"):
		return schema.NText
	case strings.Contains(base, "char"):
		return schema.NVarchar
	}
	return schema.NText
}
