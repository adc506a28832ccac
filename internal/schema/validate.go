package schema

import "xtd/internal/xmltree"

// ValidateOptions mirrors the options the reference schema was inferred with.
type ValidateOptions struct {
	SuppressAttributes bool
	Disambiguate       bool
}

// Validate infers the schema of doc into a fresh registry and checks that it
// fits into reference. The candidate registry is returned for inspection.
func Validate(doc *xmltree.Node, reference *Registry, opts ValidateOptions) (*Registry, error) {
	candidate := NewRegistry()
	Walk(doc, candidate, WalkOptions{SuppressAttributes: opts.SuppressAttributes})
	if opts.Disambiguate {
		Disambiguate(candidate)
	}
	return candidate, Compare(candidate, reference)
}

// Compare checks that every reference table exists in candidate and that the
// candidate's matching table adds no foreign key or attribute and widens no
// attribute type beyond the reference.
func Compare(candidate, reference *Registry) error {
	for _, ref := range reference.Tables() {
		cand, ok := candidate.Table(ref.Name)
		if !ok {
			return &SchemaValidationError{Kind: MissingTable, Table: ref.Name}
		}
		for _, fk := range cand.ForeignKeys() {
			if _, ok := ref.ForeignKey(fk); !ok {
				return &SchemaValidationError{Kind: UnknownForeignKey, Table: ref.Name, Column: fk}
			}
		}
		for _, attr := range cand.Attributes() {
			want, ok := ref.Attribute(attr)
			if !ok {
				return &SchemaValidationError{Kind: UnknownAttribute, Table: ref.Name, Column: attr}
			}
			got, _ := cand.Attribute(attr)
			if got > want {
				return &SchemaValidationError{
					Kind:      IncompatibleType,
					Table:     ref.Name,
					Column:    attr,
					Candidate: got,
					Reference: want,
				}
			}
		}
	}
	return nil
}
