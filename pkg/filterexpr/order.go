package filterexpr

import (
	"errors"
	"fmt"
	"strings"
)

// compileOrder parses "key [asc|desc], ..." into order terms. The tiebreak
// key is appended unless the caller already ordered by it.
func compileOrder(raw string, schema OrderSchema) ([]OrderTerm, error) {
	if _, ok := schema.Fields[schema.Default]; !ok {
		return nil, fmt.Errorf("default order key %q missing from schema", schema.Default)
	}
	tiebreak, ok := schema.Fields[schema.Tiebreak]
	if !ok {
		return nil, fmt.Errorf("tiebreak order key %q missing from schema", schema.Tiebreak)
	}

	var terms []OrderTerm
	seen := make(map[string]struct{})
	for _, seg := range strings.Split(raw, ",") {
		parts := strings.Fields(seg)
		if len(parts) == 0 {
			continue
		}
		key := parts[0]
		field, ok := schema.Fields[key]
		if !ok {
			return nil, fmt.Errorf("field %q cannot be used for ordering", key)
		}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("duplicate order key %q", key)
		}
		seen[key] = struct{}{}

		var desc bool
		switch len(parts) {
		case 1:
		case 2:
			switch strings.ToLower(parts[1]) {
			case "asc":
			case "desc":
				desc = true
			default:
				return nil, fmt.Errorf("invalid direction %q for field %q", parts[1], key)
			}
		default:
			return nil, fmt.Errorf("invalid order segment %q", strings.TrimSpace(seg))
		}
		terms = append(terms, OrderTerm{Column: field.Column, Desc: desc, NullsFirst: field.NullsFirst})
	}
	if len(terms) > 3 {
		return nil, errors.New("order_by supports at most three keys")
	}

	if len(terms) == 0 {
		def := schema.Fields[schema.Default]
		terms = append(terms, OrderTerm{Column: def.Column, Desc: schema.DefaultDesc, NullsFirst: def.NullsFirst})
		seen[schema.Default] = struct{}{}
	}
	if _, ok := seen[schema.Tiebreak]; !ok {
		terms = append(terms, OrderTerm{Column: tiebreak.Column})
	}
	return terms, nil
}
