package model

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/nagyist/d2/pkg/obj"
	"github.com/nagyist/d2/pkg/typemap"
	"github.com/spf13/cast"
)

// Model is one record of a type. It is not safe for concurrent mutation.
type Model struct {
	def         Definition
	dataValues  map[string]any
	dirty       bool
	dirtyFields map[string]struct{}
}

func newModel(def Definition, values map[string]any) *Model {
	dataValues := make(map[string]any, len(values))
	for k, v := range values {
		dataValues[k] = v
	}

	return &Model{
		def:         def,
		dataValues:  dataValues,
		dirtyFields: make(map[string]struct{}),
	}
}

func (m *Model) Definition() Definition {
	return m.def
}

func (m *Model) descriptor(key string) (*Descriptor, error) {
	if d, ok := m.def.ModelProperties().Get(key); ok {
		return d, nil
	}

	if d, ok := m.def.AttributeProperties().Get(key); ok {
		return d, nil
	}

	return nil, fmt.Errorf("%w: %s has no property %s", ErrUnknownProperty, m.def.Name(), key)
}

// Get returns the current value of a model or attribute property.
func (m *Model) Get(key string) (any, error) {
	d, err := m.descriptor(key)
	if err != nil {
		return nil, err
	}
	return d.Get(m), nil
}

// Value is Get for callers that treat unknown properties as unset.
func (m *Model) Value(key string) any {
	v, _ := m.Get(key)
	return v
}

// Set stores v when it differs from the current value, marking the model and the
// field dirty. Maps and slices are compared by identity.
func (m *Model) Set(key string, v any) error {
	d, err := m.descriptor(key)
	if err != nil {
		return err
	}
	return d.Set(m, v)
}

func (m *Model) markDirty(key string) {
	m.dirty = true
	m.dirtyFields[key] = struct{}{}
}

func (m *Model) IsDirty() bool {
	return m.dirty
}

// DirtyFields returns the sorted keys of the fields changed since load or the last
// ResetDirty.
func (m *Model) DirtyFields() []string {
	return sortedKeys(m.dirtyFields)
}

func (m *Model) ResetDirty() {
	m.dirty = false
	m.dirtyFields = make(map[string]struct{})
}

func (m *Model) ID() string {
	return m.stringValue("id")
}

// Href is the model's own location on the server.
func (m *Model) Href() string {
	return m.stringValue("href")
}

func (m *Model) stringValue(key string) string {
	v, ok := m.dataValues[key]
	if !ok || v == nil {
		return ""
	}
	return cast.ToString(v)
}

// DataValues returns a shallow copy of the model's values.
func (m *Model) DataValues() map[string]any {
	values := make(map[string]any, len(m.dataValues))
	for k, v := range m.dataValues {
		values[k] = v
	}
	return values
}

// Save saves the model through its definition and clears the dirty state when the
// server accepts it.
func (m *Model) Save(ctx context.Context) (map[string]any, error) {
	body, err := m.def.Save(ctx, m)
	if err != nil {
		return nil, err
	}

	m.ResetDirty()
	return body, nil
}

func (m *Model) Delete(ctx context.Context) error {
	return m.def.Delete(ctx, m)
}

// Validate checks the owned properties against their validation records. All
// violations are returned joined.
func (m *Model) Validate() error {
	validations := m.def.ModelValidations()

	var errs []error
	for _, key := range m.def.OwnedPropertyNames() {
		rec, _ := validations.Get(key)
		if err := validateValue(key, rec, m.dataValues[key]); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func validateValue(key string, rec Validation, v any) error {
	if obj.IsNil(v) || v == "" {
		if rec.Required {
			return &ValidationError{Field: key, Reason: "is required"}
		}
		return nil
	}

	switch rec.Type {
	case typemap.Number, typemap.Integer:
		n, err := cast.ToFloat64E(v)
		if err != nil {
			return &ValidationError{Field: key, Reason: "is not a number"}
		}
		return checkRange(key, rec, n, "")
	case typemap.Constant:
		if len(rec.Constants) == 0 {
			return nil
		}
		s := cast.ToString(v)
		for _, c := range rec.Constants {
			if c == s {
				return nil
			}
		}
		return &ValidationError{Field: key, Reason: fmt.Sprintf("must be one of %v", rec.Constants)}
	}

	if s, ok := v.(string); ok {
		return checkRange(key, rec, float64(utf8.RuneCountInString(s)), " characters")
	}

	return nil
}

func checkRange(key string, rec Validation, n float64, unit string) error {
	if rec.Min != nil && n < *rec.Min {
		return &ValidationError{Field: key, Reason: fmt.Sprintf("must be at least %v%s", *rec.Min, unit)}
	}

	if rec.Max != nil && n > *rec.Max {
		return &ValidationError{Field: key, Reason: fmt.Sprintf("must be at most %v%s", *rec.Max, unit)}
	}

	return nil
}
