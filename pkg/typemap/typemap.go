// Package typemap maps the property type tokens servers declare in their schemas
// onto the validation tags the model layer understands.
package typemap

import (
	"fmt"
	"strings"
	"sync"
)

// Validation type tags.
const (
	Identifier  = "IDENTIFIER"
	Text        = "TEXT"
	Email       = "EMAIL"
	Password    = "PASSWORD"
	URL         = "URL"
	PhoneNumber = "PHONENUMBER"
	Geolocation = "GEOLOCATION"
	Color       = "COLOR"
	Number      = "NUMBER"
	Integer     = "INTEGER"
	Boolean     = "BOOLEAN"
	Date        = "DATE"
	Constant    = "CONSTANT"
	Collection  = "COLLECTION"
	Reference   = "REFERENCE"
	Complex     = "COMPLEX"
)

// CoerceFunc normalises a value before it is stored on a model.
type CoerceFunc func(v any) (any, error)

// TypeInfo is what the registry knows about one type token.
type TypeInfo struct {
	Tag      string
	Writable bool
	Coerce   CoerceFunc
}

// Registry resolves type tokens. Lookups are case sensitive for dotted class names
// and case insensitive for bare tags.
type Registry struct {
	mu    sync.RWMutex
	types map[string]TypeInfo
}

func NewRegistry() *Registry {
	return &Registry{types: make(map[string]TypeInfo)}
}

// Register adds or replaces the mapping for token.
func (r *Registry) Register(token string, info TypeInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[token] = info
}

// Lookup resolves token. Bare tags ("text", "Boolean") resolve to their upper-case
// form when the exact token is unknown.
func (r *Registry) Lookup(token string) (TypeInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if info, ok := r.types[token]; ok {
		return info, true
	}

	if !strings.Contains(token, ".") {
		info, ok := r.types[strings.ToUpper(token)]
		return info, ok
	}

	return TypeInfo{}, false
}

// Len returns the number of registered tokens.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}

// CoercionError is returned when a value cannot be turned into a property's type.
type CoercionError struct {
	Tag   string
	Value any
	Err   error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("cannot use %v (%T) as %s: %s", e.Value, e.Value, e.Tag, e.Err)
}

func (e *CoercionError) Unwrap() error {
	return e.Err
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the process wide registry preloaded with the DHIS2 property types
// and the Java class names older schema documents use.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewDefaultRegistry()
	})
	return defaultRegistry
}

// NewDefaultRegistry builds a fresh registry with the built-in mappings.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()

	for _, tag := range []string{Identifier, Text, Email, Password, URL, PhoneNumber, Color} {
		r.Register(tag, writable(tag, coerceText(tag)))
	}
	r.Register(Geolocation, writable(Geolocation, passThrough))
	r.Register(Number, writable(Number, coerceNumber(Number)))
	r.Register(Integer, writable(Integer, coerceInteger))
	r.Register(Boolean, writable(Boolean, coerceBoolean))
	r.Register(Date, writable(Date, coerceDate))
	r.Register(Constant, writable(Constant, coerceText(Constant)))
	r.Register(Collection, writable(Collection, passThrough))
	r.Register(Reference, writable(Reference, passThrough))
	r.Register(Complex, writable(Complex, passThrough))

	aliases := map[string]string{
		"java.lang.String":     Text,
		"java.lang.Boolean":    Boolean,
		"boolean":              Boolean,
		"java.util.Date":       Date,
		"java.lang.Integer":    Integer,
		"int":                  Integer,
		"java.lang.Long":       Integer,
		"java.lang.Double":     Number,
		"double":               Number,
		"java.lang.Float":      Number,
		"java.util.Set":        Collection,
		"java.util.List":       Collection,
		"java.util.Map":        Complex,
		"java.lang.Object":     Complex,
		"java.lang.Enum":       Constant,
		"java.util.Collection": Collection,
	}
	for token, tag := range aliases {
		info, _ := r.Lookup(tag)
		r.Register(token, info)
	}

	// Computed server side, never sent back.
	r.Register("org.hisp.dhis.common.DimensionType", TypeInfo{Tag: Constant, Writable: false, Coerce: coerceText(Constant)})

	return r
}

func writable(tag string, coerce CoerceFunc) TypeInfo {
	return TypeInfo{Tag: tag, Writable: true, Coerce: coerce}
}
