package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap stores an arbitrary JSON object inside a JSONB column.
type JSONMap map[string]any

// Value serializes the map to JSON.
func (j *JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan decodes JSONB into the map.
func (j *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	var decoded JSONMap
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*j = decoded
	return nil
}

func asJSON(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported JSONB source type %T", value)
	}
}
