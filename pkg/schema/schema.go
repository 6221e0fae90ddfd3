// Package schema holds the server-declared type metadata model definitions are
// compiled from, and the sources it can be read from.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/nagyist/d2/pkg/decoder"
)

// Schema describes one server type.
type Schema struct {
	Name       string      `json:"name"`
	Plural     string      `json:"plural"`
	Metadata   bool        `json:"metadata"`
	Klass      string      `json:"klass,omitempty"`
	Properties []Property  `json:"properties"`
	Attributes []Attribute `json:"attributes,omitempty"`
}

// Property describes one field of a type.
type Property struct {
	Name string `json:"name"`
	// CollectionName is the plural key a to-many property is exposed under.
	CollectionName   string `json:"collectionName,omitempty"`
	PropertyType     string `json:"propertyType"`
	ItemPropertyType string `json:"itemPropertyType,omitempty"`
	Persisted        bool   `json:"persisted"`
	Required         bool   `json:"required"`
	Owner            bool   `json:"owner"`
	// Writable is nil when the server does not say; nil means writable.
	Writable            *bool    `json:"writable,omitempty"`
	Min                 *float64 `json:"min,omitempty"`
	Max                 *float64 `json:"max,omitempty"`
	Constants           []string `json:"constants,omitempty"`
	IsCollection        bool     `json:"isCollection"`
	ReferenceTargetType string   `json:"referenceTargetType,omitempty"`
}

// UnmarshalJSON also accepts the names the server itself emits: "collection" for
// isCollection, and "klass"/"itemKlass" as the reference target of reference
// properties.
func (p *Property) UnmarshalJSON(data []byte) error {
	type property Property
	var aux struct {
		property
		Collection *bool  `json:"collection"`
		Klass      string `json:"klass"`
		ItemKlass  string `json:"itemKlass"`
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*p = Property(aux.property)
	if aux.Collection != nil && *aux.Collection {
		p.IsCollection = true
	}

	if p.ReferenceTargetType == "" {
		switch {
		case p.IsCollection && p.ItemPropertyType == "REFERENCE":
			p.ReferenceTargetType = aux.ItemKlass
		case !p.IsCollection && p.PropertyType == "REFERENCE":
			p.ReferenceTargetType = aux.Klass
		}
	}

	return nil
}

// Key is the name a property is exposed under on a model: the collection name for
// to-many properties, the property name otherwise.
func (p Property) Key() string {
	if p.IsCollection && p.CollectionName != "" {
		return p.CollectionName
	}
	return p.Name
}

// IsWritable reports whether the server allows the property to be written.
func (p Property) IsWritable() bool {
	return p.Writable == nil || *p.Writable
}

// Attribute is a user defined attribute that may be attached to metadata objects.
type Attribute struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Code      string `json:"code,omitempty"`
	ValueType string `json:"valueType,omitempty"`
	Mandatory bool   `json:"mandatory"`
	Unique    bool   `json:"unique"`
}

// TypeError is returned when a schema field holds a value of the wrong JSON type.
type TypeError struct {
	Value    any
	Expected string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("Expected %v to have type %s", e.Value, e.Expected)
}

// Decode parses a schema document.
func Decode(data []byte) (*Schema, error) {
	var probe map[string]any
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	return FromMap(probe)
}

// FromMap builds a schema from a decoded JSON object, as returned by a Gateway.
func FromMap(m map[string]any) (*Schema, error) {
	for _, key := range []string{"name", "plural"} {
		if err := checkString(m[key]); err != nil {
			return nil, err
		}
	}

	s, err := decoder.DecodeMap[Schema](m)
	if err != nil {
		return nil, err
	}

	return &s, nil
}

func checkString(v any) error {
	switch v.(type) {
	case nil, string:
		return nil
	default:
		return &TypeError{Value: v, Expected: "string"}
	}
}
