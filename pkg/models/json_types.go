package models

import (
	"database/sql/driver"
	"fmt"

	json "github.com/goccy/go-json"
)

// JSONStringArray stores a []string as a JSON text column.
// Implements sql.Scanner and driver.Valuer for use in GORM models.
type JSONStringArray []string

// Value serializes the array to JSON for storage.
func (a JSONStringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan deserializes a JSON text column into the array.
// NULL and empty values scan as an empty array.
func (a *JSONStringArray) Scan(value interface{}) error {
	if value == nil {
		*a = JSONStringArray{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into JSONStringArray", value)
	}

	if len(data) == 0 {
		*a = JSONStringArray{}
		return nil
	}

	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("unmarshal JSONStringArray: %w", err)
	}
	*a = out
	return nil
}
