package capability

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// decodeRecord rebinds a whole params object onto a typed record via a JSON
// round trip. This is the "single structured argument" convention creators
// use: the model's params object is the record.
func decodeRecord(params map[string]any, v any) error {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("params do not match the expected record shape: %w", err)
	}
	return nil
}

// stringParam reads one named string argument.
func stringParam(params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", fmt.Errorf("missing parameter: %s", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("parameter %s must be a string", key)
	}
	return s, nil
}

// intParam reads one named integer argument, tolerating the float64 and
// string forms JSON decoding produces.
func intParam(params map[string]any, key string, def int) (int, error) {
	v, ok := params[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("parameter %s must be a number", key)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("parameter %s must be a number", key)
	}
}

// mapParam reads one named object argument.
func mapParam(params map[string]any, key string) (map[string]any, error) {
	v, ok := params[key]
	if !ok {
		return nil, fmt.Errorf("missing parameter: %s", key)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("parameter %s must be an object", key)
	}
	return m, nil
}
