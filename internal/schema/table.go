package schema

import "strings"

// ValueColumn is the synthetic attribute holding the type of an element's own text.
const ValueColumn = "value"

// columns is an insertion-ordered name -> V mapping.
type columns[V any] struct {
	names []string
	vals  map[string]V
}

func newColumns[V any]() columns[V] {
	return columns[V]{vals: map[string]V{}}
}

func (c *columns[V]) get(name string) (V, bool) {
	v, ok := c.vals[name]
	return v, ok
}

func (c *columns[V]) set(name string, v V) {
	if _, ok := c.vals[name]; !ok {
		c.names = append(c.names, name)
	}
	c.vals[name] = v
}

func (c *columns[V]) delete(name string) {
	if _, ok := c.vals[name]; !ok {
		return
	}
	delete(c.vals, name)
	for i, n := range c.names {
		if n == name {
			c.names = append(c.names[:i:i], c.names[i+1:]...)
			break
		}
	}
}

func (c *columns[V]) len() int {
	return len(c.names)
}

func (c *columns[V]) keys() []string {
	return append([]string(nil), c.names...)
}

func (c *columns[V]) clone() columns[V] {
	out := columns[V]{names: append([]string(nil), c.names...), vals: make(map[string]V, len(c.vals))}
	for k, v := range c.vals {
		out.vals[k] = v
	}
	return out
}

// Table is the inferred relational entity for one element tag.
type Table struct {
	Name        string
	attributes  columns[ScalarType]
	foreignKeys columns[int]
}

func newTable(name string) *Table {
	return &Table{
		Name:        name,
		attributes:  newColumns[ScalarType](),
		foreignKeys: newColumns[int](),
	}
}

// Widen records typ for the attribute, keeping the wider of the old and new types.
func (t *Table) Widen(attr string, typ ScalarType) {
	if old, ok := t.attributes.get(attr); ok && old >= typ {
		return
	}
	t.attributes.set(attr, typ)
}

// MergeForeignKey records count occurrences of ref, keeping the maximum observed.
func (t *Table) MergeForeignKey(ref string, count int) {
	if old, ok := t.foreignKeys.get(ref); ok && old >= count {
		return
	}
	t.foreignKeys.set(ref, count)
}

// RemoveForeignKey drops the foreign key to ref.
func (t *Table) RemoveForeignKey(ref string) {
	t.foreignKeys.delete(ref)
}

// Attribute returns the type recorded for attr.
func (t *Table) Attribute(attr string) (ScalarType, bool) {
	return t.attributes.get(attr)
}

// ForeignKey returns the occurrence count recorded for ref.
func (t *Table) ForeignKey(ref string) (int, bool) {
	return t.foreignKeys.get(ref)
}

// Attributes returns the attribute names in first-seen order.
func (t *Table) Attributes() []string {
	return t.attributes.keys()
}

// ForeignKeys returns the referenced table names in first-seen order.
func (t *Table) ForeignKeys() []string {
	return t.foreignKeys.keys()
}

func (t *Table) clone() *Table {
	return &Table{
		Name:        t.Name,
		attributes:  t.attributes.clone(),
		foreignKeys: t.foreignKeys.clone(),
	}
}

// Registry owns the tables of one inferred schema, keyed by lower-cased tag.
// Passes mutate it one after another; it is not safe for concurrent use.
type Registry struct {
	tables columns[*Table]
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{tables: newColumns[*Table]()}
}

// Ensure returns the table for name, creating it on first use.
func (r *Registry) Ensure(name string) *Table {
	name = strings.ToLower(name)
	if t, ok := r.tables.get(name); ok {
		return t
	}
	t := newTable(name)
	r.tables.set(name, t)
	return t
}

// Table looks up a table by name.
func (r *Registry) Table(name string) (*Table, bool) {
	return r.tables.get(strings.ToLower(name))
}

// Names returns table names in first-seen order.
func (r *Registry) Names() []string {
	return r.tables.keys()
}

// Tables returns the tables in first-seen order.
func (r *Registry) Tables() []*Table {
	out := make([]*Table, 0, len(r.tables.names))
	for _, n := range r.tables.names {
		out = append(out, r.tables.vals[n])
	}
	return out
}

// Len reports the number of tables.
func (r *Registry) Len() int {
	return r.tables.len()
}

// Clone returns a deep, independent copy of the registry.
func (r *Registry) Clone() *Registry {
	out := NewRegistry()
	for _, t := range r.Tables() {
		out.tables.set(t.Name, t.clone())
	}
	return out
}
