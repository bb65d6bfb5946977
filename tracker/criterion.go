package tracker

import (
	"fmt"

	"github.com/roach88/svctrack/registry"
)

// Criterion is the fixed selection rule a tracker is built with: exactly one
// of a single reference, a type name, or a filter expression. The zero
// Criterion is invalid.
type Criterion struct {
	ref       registry.Reference
	typeName  string
	filter    string
	hasFilter bool
}

// ByReference selects exactly one registration, identified by its reference.
func ByReference(ref registry.Reference) Criterion {
	return Criterion{ref: ref}
}

// ByType selects every registration of the named capability type.
func ByType(typeName string) Criterion {
	return Criterion{typeName: typeName}
}

// ByFilter selects registrations matching a caller-supplied filter
// expression. The expression is validated against the registry's filter
// language when the tracker is constructed.
func ByFilter(expr string) Criterion {
	return Criterion{filter: expr, hasFilter: true}
}

// String describes the criterion for logs.
func (c Criterion) String() string {
	switch {
	case c.ref != nil:
		return fmt.Sprintf("reference(%d)", registry.ID(c.ref))
	case c.typeName != "":
		return fmt.Sprintf("type(%s)", c.typeName)
	case c.hasFilter:
		return fmt.Sprintf("filter(%s)", c.filter)
	default:
		return "invalid"
	}
}

// expr produces the registry-subscription parameter: an identity-equality
// filter for a reference criterion, a type-equality filter for a type
// criterion, or the caller's filter verbatim.
func (c Criterion) expr() (string, error) {
	switch {
	case c.ref != nil:
		return fmt.Sprintf("(%s=%d)", registry.KeyID, registry.ID(c.ref)), nil
	case c.typeName != "":
		return fmt.Sprintf("(%s=%s)", registry.KeyType, c.typeName), nil
	case c.hasFilter:
		if c.filter == "" {
			return "", fmt.Errorf("%w: empty filter expression", ErrInvalidCriterion)
		}
		return c.filter, nil
	default:
		return "", fmt.Errorf("%w: no reference, type, or filter", ErrInvalidCriterion)
	}
}

// initialReferences queries the registrations matching the criterion at open
// time. The reference criterion skips the query entirely: the tracked set is
// at most that one reference.
func (c Criterion) initialReferences(client registry.Client, expr string) ([]registry.Reference, error) {
	switch {
	case c.ref != nil:
		return []registry.Reference{c.ref}, nil
	case c.typeName != "":
		return client.References(c.typeName, "")
	default:
		return client.References("", expr)
	}
}
