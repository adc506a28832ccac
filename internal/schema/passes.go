package schema

import "strconv"

// InvertArity replaces every foreign key referenced more than threshold times
// per instance with a reverse foreign key of count 0 on the referenced table.
func InvertArity(reg *Registry, threshold int) error {
	for _, t := range reg.Tables() {
		var inverted []string
		for _, ref := range t.ForeignKeys() {
			count, _ := t.ForeignKey(ref)
			if count <= threshold {
				continue
			}
			target := reg.Ensure(ref)
			if _, ok := target.ForeignKey(t.Name); ok {
				return &RelationConflictError{Table: t.Name, Ref: ref}
			}
			target.MergeForeignKey(t.Name, 0)
			inverted = append(inverted, ref)
		}
		for _, ref := range inverted {
			t.RemoveForeignKey(ref)
		}
	}
	return nil
}

// Disambiguate splits every foreign key with count N > 1 into N foreign keys
// named ref1..refN, skipping numbers whose name is already taken in the table.
// It returns a deep copy of the registry as it was before the split.
func Disambiguate(reg *Registry) *Registry {
	snapshot := reg.Clone()
	for _, t := range reg.Tables() {
		taken := map[string]bool{}
		for _, ref := range t.ForeignKeys() {
			taken[ref] = true
		}
		var split []string
		for _, ref := range t.ForeignKeys() {
			count, _ := t.ForeignKey(ref)
			if count <= 1 {
				continue
			}
			for i, made := 1, 0; made < count; i++ {
				name := ref + strconv.Itoa(i)
				if taken[name] {
					continue
				}
				taken[name] = true
				t.MergeForeignKey(name, 1)
				made++
			}
			split = append(split, ref)
		}
		for _, ref := range split {
			t.RemoveForeignKey(ref)
		}
	}
	return snapshot
}

// PrimaryKeyColumn is the primary key column emitted for table.
func PrimaryKeyColumn(table string) string {
	return "prk_" + table + "_id"
}

// ForeignKeyColumn is the column emitted for a foreign key to ref.
func ForeignKeyColumn(ref string) string {
	return ref + "_id"
}

// reservedPrimaryKeys lists the column names a table reserves for its primary key.
func reservedPrimaryKeys(table string) []string {
	return []string{PrimaryKeyColumn(table), "pkr_" + table + "_id"}
}

// Inspect checks that no attribute, foreign key or primary key column of a
// table would be emitted under the same name.
func Inspect(reg *Registry) error {
	for _, t := range reg.Tables() {
		reserved := reservedPrimaryKeys(t.Name)
		for _, ref := range t.ForeignKeys() {
			col := ForeignKeyColumn(ref)
			for _, pk := range reserved {
				if col == pk {
					return &NamingCollisionError{Kind: PrimaryForeignCollision, Table: t.Name, Column: col}
				}
			}
			for _, attr := range t.Attributes() {
				if attr == col {
					return &NamingCollisionError{Kind: AttributeForeignCollision, Table: t.Name, Column: attr}
				}
			}
		}
		for _, attr := range t.Attributes() {
			for _, pk := range reserved {
				if attr == pk {
					return &NamingCollisionError{Kind: AttributePrimaryCollision, Table: t.Name, Column: attr}
				}
			}
		}
	}
	return nil
}
