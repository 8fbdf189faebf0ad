// Package filterexpr compiles list filters written in a small CEL subset and
// order_by clauses into SQL predicates for the ent SQL builder.
//
// A filter is a conjunction of atomic comparisons against whitelisted
// fields, for example:
//
//	difficulty == "Hard" && bucket >= 2 && title.startsWith("Two")
package filterexpr

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// ErrInvalid wraps every filter or order_by rejection.
var ErrInvalid = errors.New("invalid list expression")

// ValueKind describes the kind of literal value a field accepts.
type ValueKind string

const (
	KindString    ValueKind = "string"
	KindNumber    ValueKind = "number"
	KindTimestamp ValueKind = "timestamp"
)

// Op represents a supported comparison operation.
type Op string

const (
	OpEQ  Op = "=="
	OpGTE Op = ">="
	OpLTE Op = "<="
	OpSW  Op = "startsWith"
	OpIN  Op = "in"
)

// Field maps a filter identifier to a column and the operators it allows.
type Field struct {
	Column string
	Kind   ValueKind
	Ops    []Op
}

// OrderField maps an order key to a column. NullsFirst places NULL values
// ahead of everything else regardless of direction and dialect.
type OrderField struct {
	Column     string
	NullsFirst bool
}

// OrderSchema whitelists order keys and names the default ordering. Tiebreak
// is always appended so pages are stable.
type OrderSchema struct {
	Fields      map[string]OrderField
	Default     string
	DefaultDesc bool
	Tiebreak    string
}

// Schema aggregates filtering and ordering rules for a resource.
type Schema struct {
	Fields map[string]Field
	Order  OrderSchema
}

// Predicate is one compiled comparison.
type Predicate struct {
	Field  string
	Column string
	Op     Op
	Value  any
}

// OrderTerm is one compiled ordering key.
type OrderTerm struct {
	Column     string
	Desc       bool
	NullsFirst bool
}

// Query is a compiled filter and order_by pair.
type Query struct {
	Predicates []Predicate
	Order      []OrderTerm
}

// Compile parses filter and orderBy against schema. Empty inputs yield no
// predicates and the schema's default ordering.
func Compile(filter, orderBy string, schema Schema) (*Query, error) {
	preds, err := compileFilter(filter, schema.Fields)
	if err != nil {
		return nil, fmt.Errorf("%w: filter: %w", ErrInvalid, err)
	}
	order, err := compileOrder(orderBy, schema.Order)
	if err != nil {
		return nil, fmt.Errorf("%w: order_by: %w", ErrInvalid, err)
	}
	return &Query{Predicates: preds, Order: order}, nil
}

func compileFilter(filter string, fields map[string]Field) ([]Predicate, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return nil, nil
	}
	if len(fields) == 0 {
		return nil, errors.New("no filterable fields")
	}

	atoms, err := parseConjunction(filter, fields)
	if err != nil {
		return nil, err
	}

	preds := make([]Predicate, 0, len(atoms))
	for _, atom := range atoms {
		field, ok := fields[atom.Field]
		if !ok {
			return nil, fmt.Errorf("field %q is not allowed", atom.Field)
		}
		if !slices.Contains(field.Ops, atom.Op) {
			return nil, fmt.Errorf("operator %q is not allowed for field %q", string(atom.Op), atom.Field)
		}
		value, err := checkLiteral(field.Kind, atom.Op, atom.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", atom.Field, err)
		}
		preds = append(preds, Predicate{Field: atom.Field, Column: field.Column, Op: atom.Op, Value: value})
	}
	return preds, nil
}

// checkLiteral validates a literal against the field kind and narrows
// integral numbers to int64 so integer columns compare cleanly.
func checkLiteral(kind ValueKind, op Op, value any) (any, error) {
	switch kind {
	case KindString:
		if op == OpIN {
			list, ok := value.([]string)
			if !ok {
				return nil, errors.New("expected list of string literals")
			}
			if len(list) == 0 {
				return nil, errors.New("list literal must not be empty")
			}
			return list, nil
		}
		if _, ok := value.(string); !ok {
			return nil, errors.New("expected string literal")
		}
		return value, nil
	case KindNumber:
		switch v := value.(type) {
		case int64:
			return v, nil
		case float64:
			if v == float64(int64(v)) {
				return int64(v), nil
			}
			return v, nil
		}
		return nil, errors.New("expected number literal")
	case KindTimestamp:
		if _, ok := value.(time.Time); !ok {
			return nil, errors.New("expected timestamp() literal")
		}
		return value, nil
	default:
		return nil, fmt.Errorf("unsupported field kind %s", kind)
	}
}
