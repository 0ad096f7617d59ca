package openai

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Decode converts a GenerateJSON result into a typed value. Unknown fields are rejected
// so a response that drifts from the schema surfaces as an error.
func Decode(obj map[string]any, out any) error {
	raw, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("re-encode model JSON: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode model JSON: %w", err)
	}
	return nil
}
