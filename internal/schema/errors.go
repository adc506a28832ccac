package schema

import "fmt"

// CollisionKind names which two generated column names clash.
type CollisionKind int

const (
	PrimaryForeignCollision CollisionKind = iota + 1
	AttributeForeignCollision
	AttributePrimaryCollision
)

func (k CollisionKind) String() string {
	switch k {
	case PrimaryForeignCollision:
		return "primary key and foreign key"
	case AttributeForeignCollision:
		return "attribute and foreign key"
	case AttributePrimaryCollision:
		return "attribute and primary key"
	}
	return "unknown"
}

// NamingCollisionError reports two columns of one table that would share a name.
type NamingCollisionError struct {
	Kind   CollisionKind
	Table  string
	Column string
}

func (e *NamingCollisionError) Error() string {
	return fmt.Sprintf("name conflict between %s in table %q: column %q", e.Kind, e.Table, e.Column)
}

// RelationConflictError reports a foreign key that cannot be inverted because
// the referenced table already points back at its owner.
type RelationConflictError struct {
	Table string
	Ref   string
}

func (e *RelationConflictError) Error() string {
	return fmt.Sprintf("foreign key name conflict while inverting %q -> %q: %q already references %q",
		e.Table, e.Ref, e.Ref, e.Table)
}

// ValidationKind classifies a schema validation failure.
type ValidationKind int

const (
	// MissingTable means the two schemas disagree at table level.
	MissingTable ValidationKind = iota + 1
	UnknownForeignKey
	UnknownAttribute
	IncompatibleType
)

// SchemaValidationError reports a candidate schema that does not fit into a reference schema.
type SchemaValidationError struct {
	Kind      ValidationKind
	Table     string
	Column    string
	Candidate ScalarType
	Reference ScalarType
}

func (e *SchemaValidationError) Error() string {
	switch e.Kind {
	case MissingTable:
		return fmt.Sprintf("schemas are structurally incompatible: table %q is missing from the validated document", e.Table)
	case UnknownForeignKey:
		return fmt.Sprintf("foreign key %q of table %q does not exist in the reference schema", e.Column, e.Table)
	case UnknownAttribute:
		return fmt.Sprintf("attribute %q of table %q does not exist in the reference schema", e.Column, e.Table)
	case IncompatibleType:
		return fmt.Sprintf("attribute %q of table %q has type %s, wider than the reference type %s",
			e.Column, e.Table, e.Candidate, e.Reference)
	}
	return "schema validation failed"
}
