package model

import (
	"github.com/nagyist/d2/pkg/obj"
	"github.com/nagyist/d2/pkg/schema"
	"github.com/nagyist/d2/pkg/typemap"
)

const attributeValuesKey = "attributeValues"

// compileAttribute builds a descriptor that reads and writes the entry for attr in
// a model's attributeValues list:
//
//	{"attributeValues": [{"value": "x", "attribute": {"id": "UjOMJe8hoXV"}}]}
func compileAttribute(attr schema.Attribute, types *typemap.Registry) *Descriptor {
	var coerce typemap.CoerceFunc
	if info, ok := types.Lookup(attr.ValueType); ok {
		coerce = info.Coerce
	}

	return &Descriptor{
		key: attr.Name,
		get: func(m *Model) any {
			if i := findAttributeValue(m.dataValues[attributeValuesKey], attr.ID); i >= 0 {
				entry := m.dataValues[attributeValuesKey].([]any)[i].(map[string]any)
				return entry["value"]
			}
			return nil
		},
		set: func(m *Model, v any) error {
			if coerce != nil {
				var err error
				if v, err = coerce(v); err != nil {
					return err
				}
			}

			current, _ := m.dataValues[attributeValuesKey].([]any)
			i := findAttributeValue(current, attr.ID)
			switch {
			case i >= 0 && obj.SameValue(current[i].(map[string]any)["value"], v):
				return nil
			case i < 0 && v == nil:
				return nil
			}

			// A new list so identity based dirty checks on attributeValues notice.
			values := append([]any(nil), current...)
			entry := map[string]any{
				"value":     v,
				"attribute": map[string]any{"id": attr.ID},
			}
			if i >= 0 {
				values[i] = entry
			} else {
				values = append(values, entry)
			}

			m.dataValues[attributeValuesKey] = values
			m.markDirty(attr.Name)
			m.markDirty(attributeValuesKey)
			return nil
		},
	}
}

// findAttributeValue returns the index of the entry for attribute id, or -1.
func findAttributeValue(list any, id string) int {
	values, ok := list.([]any)
	if !ok {
		return -1
	}

	for i, v := range values {
		entry, ok := v.(map[string]any)
		if !ok {
			continue
		}

		attribute, ok := entry["attribute"].(map[string]any)
		if ok && attribute["id"] == id {
			return i
		}
	}

	return -1
}
