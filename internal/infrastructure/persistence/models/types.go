package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap stores a JSON object column (jsonb on PostgreSQL)
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *JSONMap) Scan(src interface{}) error {
	raw, err := jsonBytes(src)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		*m = JSONMap{}
		return nil
	}
	out := JSONMap{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan JSONMap: %w", err)
	}
	*m = out
	return nil
}

// StringList stores a JSON array of strings
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src interface{}) error {
	raw, err := jsonBytes(src)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		*l = StringList{}
		return nil
	}
	out := []string{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan StringList: %w", err)
	}
	*l = out
	return nil
}

func jsonBytes(src interface{}) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported JSON column type %T", src)
	}
}
