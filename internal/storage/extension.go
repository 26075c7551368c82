package storage

import (
	"encoding/json"
	"fmt"
)

// ExtensionState holds loosely typed side data on a record, keyed by
// feature name, so features can grow without changing the record's shape.
type ExtensionState map[string]json.RawMessage

// Set stores v under key after marshalling it to JSON.
func (e *ExtensionState) Set(k string, v any) error {
	if *e == nil {
		*e = ExtensionState{}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal extension %q: %w", k, err)
	}

	(*e)[k] = json.RawMessage(b)
	return nil
}

// Get unmarshals the value at key into out. It reports false with a nil
// error when the key is absent.
func (e ExtensionState) Get(key string, out any) (bool, error) {
	raw, ok := e[key]
	if !ok || len(raw) == 0 {
		return false, nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("unmarshal extension %q: %w", key, err)
	}
	return true, nil
}

func (e ExtensionState) Delete(key string) {
	delete(e, key)
}

// Extension is a typed key into an ExtensionState.
type Extension[T any] string

// Load returns the value stored under the key, or the zero value.
func (k Extension[T]) Load(e ExtensionState) (T, error) {
	var v T
	_, err := e.Get(string(k), &v)
	return v, err
}

// Update loads the value, applies fn and stores the result.
func (k Extension[T]) Update(e *ExtensionState, fn func(*T)) error {
	v, err := k.Load(*e)
	if err != nil {
		return err
	}
	fn(&v)
	return e.Set(string(k), v)
}
