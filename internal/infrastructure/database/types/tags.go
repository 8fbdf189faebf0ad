package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Tags is a problem's tag list stored as a JSON array.
type Tags []string

// Scan implements sql.Scanner
func (t *Tags) Scan(src any) error {
	if src == nil {
		*t = nil
		return nil
	}
	switch data := src.(type) {
	case []byte:
		return t.unmarshal(data)
	case string:
		return t.unmarshal([]byte(data))
	default:
		return fmt.Errorf("Tags: unsupported src type %T", src)
	}
}

func (t *Tags) unmarshal(data []byte) error {
	if len(data) == 0 {
		*t = nil
		return nil
	}
	return json.Unmarshal(data, (*[]string)(t))
}

// Value implements driver.Valuer. The JSON is sent as text so both jsonb
// and sqlite json columns accept it.
func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
