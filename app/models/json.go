package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// scanJSON decodes a JSON column value into dest. NULL leaves dest untouched.
func scanJSON(value interface{}, dest interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported JSON column type %T", value)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}

func valueJSON(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// IDList is a JSON array of row ids.
type IDList []uint

func (l *IDList) Scan(value interface{}) error {
	var ids []uint
	if err := scanJSON(value, &ids); err != nil {
		return err
	}
	*l = ids
	return nil
}

func (l IDList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return valueJSON([]uint(l))
}

func (IDList) GormDataType() string {
	return "json"
}

// JSONMap is a free-form JSON object column.
type JSONMap map[string]interface{}

func (m *JSONMap) Scan(value interface{}) error {
	out := map[string]interface{}{}
	if err := scanJSON(value, &out); err != nil {
		return err
	}
	*m = out
	return nil
}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return valueJSON(map[string]interface{}(m))
}

func (JSONMap) GormDataType() string {
	return "json"
}
