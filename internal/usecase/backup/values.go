package backup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	"github.com/eslsoft/dsasheet/internal/infrastructure/database/migrate"
)

// encodeValue turns a scanned column value into its JSON form. Times are
// written as RFC 3339 in UTC and JSON columns are embedded as-is.
func encodeValue(col *schema.Column, value any) (any, error) {
	if col == nil {
		return nil, fmt.Errorf("unknown column")
	}
	if value == nil {
		return nil, nil
	}

	switch v := value.(type) {
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano), nil
	case []byte:
		if col.Type == field.TypeJSON {
			return json.RawMessage(bytes.Clone(v)), nil
		}
		value = string(v)
	}

	switch col.Type {
	case field.TypeJSON:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("unsupported json value %T", value)
		}
		return json.RawMessage(s), nil
	case field.TypeInt, field.TypeInt32, field.TypeInt64:
		return toInt64(value)
	case field.TypeTime:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("unsupported time value %T", value)
		}
		return s, nil
	default:
		return value, nil
	}
}

func decodePayload(table *schema.Table, payload json.RawMessage) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	result := make(map[string]any, len(raw))
	for key, val := range raw {
		col := migrate.Column(table, key)
		if col == nil {
			return nil, fmt.Errorf("column %s not found in table %s", key, table.Name)
		}
		converted, err := decodeValue(col, val)
		if err != nil {
			return nil, fmt.Errorf("convert %s.%s: %w", table.Name, key, err)
		}
		result[key] = converted
	}
	return result, nil
}

func decodeValue(col *schema.Column, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch col.Type {
	case field.TypeInt, field.TypeInt32, field.TypeInt64:
		return toInt64(value)
	case field.TypeTime:
		s, ok := value.(string)
		if !ok || s == "" {
			return nil, fmt.Errorf("expected RFC 3339 string, got %v", value)
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, err
		}
		return t.UTC(), nil
	case field.TypeJSON:
		// sent as text so postgres jsonb and sqlite json both accept it
		b, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case field.TypeString:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", value)
		}
		return s, nil
	default:
		return value, nil
	}
}

func toInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unsupported int type %T", value)
	}
}
