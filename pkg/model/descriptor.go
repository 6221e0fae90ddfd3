package model

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nagyist/d2/pkg/obj"
	"github.com/nagyist/d2/pkg/schema"
	"github.com/nagyist/d2/pkg/typemap"
)

// Validation is the constraint record compiled for one property.
type Validation struct {
	Type      string
	Owner     bool
	Persisted bool
	Required  bool
	Min       *float64
	Max       *float64
	Constants []string
	// ReferenceType is the singular type name a reference (or a collection of
	// references) points at. Empty for every other property.
	ReferenceType string
}

func (v Validation) clone() Validation {
	v.Min = copyFloat(v.Min)
	v.Max = copyFloat(v.Max)

	if v.Constants != nil {
		v.Constants = append([]string(nil), v.Constants...)
	}

	return v
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	c := *f
	return &c
}

type (
	getFunc func(m *Model) any
	setFunc func(m *Model, v any) error
)

// Descriptor is the accessor pair compiled for one property. Read-only properties
// have no setter.
type Descriptor struct {
	key string
	get getFunc
	set setFunc
}

func (d *Descriptor) Key() string {
	return d.key
}

func (d *Descriptor) Writable() bool {
	return d.set != nil
}

func (d *Descriptor) Get(m *Model) any {
	return d.get(m)
}

func (d *Descriptor) Set(m *Model, v any) error {
	if d.set == nil {
		return fmt.Errorf("%w: %s", ErrReadOnlyProperty, d.key)
	}
	return d.set(m, v)
}

// Properties is a read-only view of a definition's descriptors.
type Properties struct {
	m map[string]*Descriptor
}

func (p Properties) Get(key string) (*Descriptor, bool) {
	d, ok := p.m[key]
	return d, ok
}

func (p Properties) Has(key string) bool {
	_, ok := p.m[key]
	return ok
}

func (p Properties) Len() int {
	return len(p.m)
}

// Keys returns the property keys in sorted order. The slice is a copy.
func (p Properties) Keys() []string {
	return sortedKeys(p.m)
}

// Validations is a read-only view of a definition's validation records.
type Validations struct {
	m map[string]Validation
}

// Get returns a copy of the record for key.
func (v Validations) Get(key string) (Validation, bool) {
	rec, ok := v.m[key]
	if !ok {
		return Validation{}, false
	}
	return rec.clone(), true
}

func (v Validations) Len() int {
	return len(v.m)
}

func (v Validations) Keys() []string {
	return sortedKeys(v.m)
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// compileProperty builds the descriptor and validation record for one schema
// property.
func compileProperty(p schema.Property, types *typemap.Registry) (*Descriptor, Validation, error) {
	info, ok := types.Lookup(p.PropertyType)
	if !ok {
		return nil, Validation{}, &TypeMappingError{Property: p.Name, Type: p.PropertyType}
	}

	validation := Validation{
		Type:      info.Tag,
		Owner:     p.Owner,
		Persisted: p.Persisted,
		Required:  p.Required,
		Min:       copyFloat(p.Min),
		Max:       copyFloat(p.Max),
	}

	if info.Tag == typemap.Constant && len(p.Constants) > 0 {
		validation.Constants = append([]string(nil), p.Constants...)
	}

	if isReference(p, info.Tag) {
		validation.ReferenceType = referenceName(p.ReferenceTargetType)
	}

	key := p.Key()
	d := &Descriptor{key: key, get: valueGetter(key)}
	if info.Writable && p.IsWritable() {
		d.set = valueSetter(key, info.Coerce)
	}

	return d, validation, nil
}

// isReference is true for single references and for collections of identifiable
// references. Collections of embedded objects have no reference type.
func isReference(p schema.Property, tag string) bool {
	if p.ReferenceTargetType == "" {
		return false
	}

	if p.IsCollection {
		return strings.EqualFold(p.ItemPropertyType, typemap.Reference)
	}

	return tag == typemap.Reference
}

// referenceName turns "org.hisp.dhis.indicator.Indicator" into "indicator". Names
// that are already singular type names are kept as they are.
func referenceName(target string) string {
	if i := strings.LastIndex(target, "."); i >= 0 {
		target = target[i+1:]
	}

	r, size := utf8.DecodeRuneInString(target)
	if r == utf8.RuneError {
		return target
	}
	return string(unicode.ToLower(r)) + target[size:]
}

func valueGetter(key string) getFunc {
	return func(m *Model) any {
		return m.dataValues[key]
	}
}

func valueSetter(key string, coerce typemap.CoerceFunc) setFunc {
	return func(m *Model, v any) error {
		if coerce != nil {
			var err error
			if v, err = coerce(v); err != nil {
				return err
			}
		}

		if obj.SameValue(m.dataValues[key], v) {
			return nil
		}

		m.dataValues[key] = v
		m.markDirty(key)
		return nil
	}
}
