package update

import (
	"encoding/json"
	"reflect"
	"strconv"
)

// Trace captures provenance for a single applied update: what sat at the
// addressed path before, and what the update left there.
type Trace struct {
	Path   string `json:"path"`
	Op     Op     `json:"op"`
	Before any    `json:"before,omitempty"`
	After  any    `json:"after,omitempty"`
	Found  bool   `json:"found"`
}

// ToJSON serialises the trace for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a payload previously produced via ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}

// Lookup walks source along path and returns the value found there. The
// second result reports whether every key on the path resolved.
func Lookup(source any, path Path) (any, bool) {
	current := source
	for _, key := range path {
		if current == nil {
			return nil, false
		}
		if m, ok := current.(map[string]any); ok {
			value, ok := m[key]
			if !ok {
				return nil, false
			}
			current = value
			continue
		}
		rv := reflect.ValueOf(current)
		switch rv.Kind() {
		case reflect.Map:
			if rv.Type().Key().Kind() != reflect.String {
				return nil, false
			}
			value := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
			if !value.IsValid() {
				return nil, false
			}
			current = value.Interface()
		case reflect.Slice, reflect.Array:
			index, err := strconv.Atoi(key)
			if err != nil || index < 0 || index >= rv.Len() {
				return nil, false
			}
			current = rv.Index(index).Interface()
		default:
			return nil, false
		}
	}
	return current, true
}
