package decoder

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeMap converts a decoded JSON object into T. Keys T does not declare are
// ignored, which is what the server documents (schemas, pagers) need since they
// carry many more fields than the client reads.
func DecodeMap[T any](m map[string]any) (T, error) {
	return decodeMap[T](m, false)
}

// DecodeMapStrict is DecodeMap but fails on keys T does not declare.
func DecodeMapStrict[T any](m map[string]any) (T, error) {
	return decodeMap[T](m, true)
}

func decodeMap[T any](m map[string]any, strict bool) (T, error) {
	var out T

	b, err := json.Marshal(m)
	if err != nil {
		return out, fmt.Errorf("failed to marshal map: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	if strict {
		dec.DisallowUnknownFields()
	}

	if err := dec.Decode(&out); err != nil {
		return out, fmt.Errorf("failed to decode map: %w", err)
	}

	return out, nil
}

// DecodeSlice decodes each element of a JSON array of objects into T. Elements that
// are not objects are an error.
func DecodeSlice[T any](items []any) ([]T, error) {
	out := make([]T, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("element %d is %T, not an object", i, item)
		}

		v, err := DecodeMap[T](m)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, v)
	}

	return out, nil
}
