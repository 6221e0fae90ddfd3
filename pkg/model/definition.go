// Package model compiles server schemas into model definitions and runs the CRUD
// calls for the records of each type.
package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/apex/log"
	"github.com/nagyist/d2/pkg/api"
	"github.com/nagyist/d2/pkg/obj"
	"github.com/nagyist/d2/pkg/schema"
	"github.com/nagyist/d2/pkg/typemap"
)

const allFields = ":all"

// Definition is the operation set every model definition supports. Specialized
// definitions embed *ModelDefinition and override individual operations.
type Definition interface {
	Name() string
	Plural() string
	IsMetaData() bool
	APIEndpoint() string

	ModelProperties() Properties
	ModelValidations() Validations
	AttributeProperties() Properties
	OwnedPropertyNames() []string
	Filters() []string

	Create(values map[string]any) *Model
	Get(ctx context.Context, id string) (*Model, error)
	GetMany(ctx context.Context, ids []string) (*Collection, error)
	List(ctx context.Context) (*Collection, error)
	ListPage(ctx context.Context, page int) (*Collection, error)
	Save(ctx context.Context, m *Model) (map[string]any, error)
	Delete(ctx context.Context, m *Model) error

	Filter() *Filter
	Clone() Definition

	modelDefinition() *ModelDefinition
}

// ModelDefinition is the generic definition of one server type.
type ModelDefinition struct {
	name        string
	plural      string
	isMetaData  bool
	apiEndpoint string

	properties          map[string]*Descriptor
	validations         map[string]Validation
	attributeProperties map[string]*Descriptor
	owned               []string

	filters []string
	gw      api.Gateway

	// variant is the specialized definition wrapping this one, when there is one.
	// Models and clones are bound to it so overrides keep applying.
	variant Definition
}

// Factory builds model definitions that share one gateway.
type Factory struct {
	gw              api.Gateway
	types           *typemap.Registry
	specializations *Specializations
}

type Option func(*Factory)

func WithTypeRegistry(r *typemap.Registry) Option {
	return func(f *Factory) {
		f.types = r
	}
}

// WithSpecializations replaces the default registry. A nil registry disables
// specialization.
func WithSpecializations(s *Specializations) Option {
	return func(f *Factory) {
		if s == nil {
			s = NewSpecializations()
		}
		f.specializations = s
	}
}

func NewFactory(gw api.Gateway, opts ...Option) *Factory {
	f := &Factory{
		gw:              gw,
		types:           typemap.Default(),
		specializations: DefaultSpecializations,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

func (f *Factory) Gateway() api.Gateway {
	return f.gw
}

// NewModelDefinition returns an empty, non metadata definition.
func (f *Factory) NewModelDefinition(name, plural string) (*ModelDefinition, error) {
	if name == "" {
		return nil, ErrValueRequired
	}

	if plural == "" {
		return nil, ErrPluralRequired
	}

	return &ModelDefinition{
		name:                name,
		plural:              plural,
		properties:          map[string]*Descriptor{},
		validations:         map[string]Validation{},
		attributeProperties: map[string]*Descriptor{},
		gw:                  f.gw,
	}, nil
}

// CreateFromSchema compiles s into a definition. When a specialization is registered
// for the schema name the specialized definition is returned.
func (f *Factory) CreateFromSchema(s *schema.Schema, attributes []schema.Attribute) (Definition, error) {
	if s == nil {
		return nil, ErrSchemaRequired
	}

	d, err := f.NewModelDefinition(s.Name, s.Plural)
	if err != nil {
		return nil, err
	}

	d.isMetaData = s.Metadata
	if d.isMetaData {
		d.apiEndpoint = "/" + s.Plural
	}

	for _, p := range s.Properties {
		desc, validation, err := compileProperty(p, f.types)
		if err != nil {
			return nil, err
		}

		d.properties[desc.key] = desc
		d.validations[desc.key] = validation
		if validation.Owner {
			d.owned = append(d.owned, desc.key)
		}
	}
	d.owned = sortedKeys(toSet(d.owned))

	if attributes == nil {
		attributes = s.Attributes
	}
	for _, attr := range attributes {
		if attr.Name == "" {
			continue
		}
		d.attributeProperties[attr.Name] = compileAttribute(attr, f.types)
	}

	log.WithFields(log.Fields{
		"schema":     s.Name,
		"properties": len(d.properties),
		"attributes": len(d.attributeProperties),
	}).Debug("compiled model definition")

	if special, ok := f.specializations.Lookup(s.Name); ok {
		return special(d), nil
	}

	return d, nil
}

// CreateFromSource fetches the schema called name and the attribute list from src
// and compiles them.
func (f *Factory) CreateFromSource(ctx context.Context, src schema.Source, name string) (Definition, error) {
	s, err := src.Schema(ctx, name)
	if err != nil {
		return nil, err
	}

	attributes, err := src.Attributes(ctx)
	if err != nil {
		return nil, err
	}

	return f.CreateFromSchema(s, attributes)
}

func toSet(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

func (d *ModelDefinition) Name() string {
	return d.name
}

func (d *ModelDefinition) Plural() string {
	return d.plural
}

func (d *ModelDefinition) IsMetaData() bool {
	return d.isMetaData
}

// APIEndpoint is "/<plural>" for metadata types and empty otherwise.
func (d *ModelDefinition) APIEndpoint() string {
	return d.apiEndpoint
}

func (d *ModelDefinition) ModelProperties() Properties {
	return Properties{m: d.properties}
}

func (d *ModelDefinition) ModelValidations() Validations {
	return Validations{m: d.validations}
}

func (d *ModelDefinition) AttributeProperties() Properties {
	return Properties{m: d.attributeProperties}
}

// OwnedPropertyNames returns the sorted keys of the properties this type owns.
// Only those are sent when saving.
func (d *ModelDefinition) OwnedPropertyNames() []string {
	return append([]string(nil), d.owned...)
}

func (d *ModelDefinition) Filters() []string {
	return append([]string(nil), d.filters...)
}

func (d *ModelDefinition) modelDefinition() *ModelDefinition {
	return d
}

func (d *ModelDefinition) self() Definition {
	if d.variant != nil {
		return d.variant
	}
	return d
}

// path joins the endpoint with parts. Types without an endpoint fall back to their
// plural.
func (d *ModelDefinition) path(parts ...string) string {
	endpoint := d.apiEndpoint
	if endpoint == "" {
		endpoint = "/" + d.plural
	}
	return strings.Join(append([]string{endpoint}, parts...), "/")
}

// Create returns a clean model holding a copy of values.
func (d *ModelDefinition) Create(values map[string]any) *Model {
	return newModel(d.self(), values)
}

func (d *ModelDefinition) Get(ctx context.Context, id string) (*Model, error) {
	return d.get(ctx, id, allFields)
}

func (d *ModelDefinition) get(ctx context.Context, id, fields string) (*Model, error) {
	if id == "" {
		return nil, ErrIdentifierRequired
	}

	path := d.path(id)
	log.WithFields(log.Fields{"path": path, "fields": fields}).Debug("get")

	body, err := d.gw.Get(ctx, path, api.Params{Fields: fields})
	if err != nil {
		return nil, toRequestError(err)
	}

	return newModel(d.self(), body), nil
}

func (d *ModelDefinition) GetMany(ctx context.Context, ids []string) (*Collection, error) {
	if len(ids) == 0 {
		return nil, ErrIdentifierRequired
	}

	for _, id := range ids {
		if id == "" {
			return nil, ErrIdentifierRequired
		}
	}

	params := api.Params{
		Fields: allFields,
		Filter: []string{clause("id", opIn, ids)},
	}
	return d.list(ctx, params)
}

func (d *ModelDefinition) List(ctx context.Context) (*Collection, error) {
	return d.list(ctx, api.Params{Fields: allFields, Filter: d.Filters()})
}

// ListPage is List for one page of the result.
func (d *ModelDefinition) ListPage(ctx context.Context, page int) (*Collection, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: %d", ErrNoPage, page)
	}

	return d.list(ctx, api.Params{Fields: allFields, Filter: d.Filters(), Page: page})
}

func (d *ModelDefinition) list(ctx context.Context, params api.Params) (*Collection, error) {
	if len(params.Filter) == 0 {
		params.Filter = nil
	}

	path := d.path()
	log.WithFields(log.Fields{"path": path, "filter": params.Filter, "page": params.Page}).Debug("list")

	body, err := d.gw.Get(ctx, path, params)
	if err != nil {
		return nil, toRequestError(err)
	}

	return newCollection(d.self(), params, body)
}

// Save creates the model when it has no id and updates it at its href otherwise.
// The payload holds every owned property with a non nil value.
func (d *ModelDefinition) Save(ctx context.Context, m *Model) (map[string]any, error) {
	if m == nil {
		return nil, ErrModelRequired
	}

	payload := d.payload(m)

	var (
		body map[string]any
		err  error
	)

	if m.ID() == "" {
		log.WithField("path", d.path()).Debug("create")
		body, err = d.gw.Post(ctx, d.path(), payload)
	} else {
		href := m.Href()
		if href == "" {
			return nil, fmt.Errorf("%w: %s %s", ErrMissingHref, d.name, m.ID())
		}
		log.WithField("path", href).Debug("update")
		body, err = d.gw.Update(ctx, href, payload)
	}

	if err != nil {
		return nil, toRequestError(err)
	}

	return body, nil
}

func (d *ModelDefinition) payload(m *Model) map[string]any {
	payload := make(map[string]any, len(d.owned))
	for _, key := range d.owned {
		if v := m.dataValues[key]; !obj.IsNil(v) {
			payload[key] = v
		}
	}
	return payload
}

func (d *ModelDefinition) Delete(ctx context.Context, m *Model) error {
	if m == nil {
		return ErrModelRequired
	}

	href := m.Href()
	if href == "" {
		return fmt.Errorf("%w: %s %s", ErrMissingHref, d.name, m.ID())
	}

	log.WithField("path", href).Debug("delete")
	return toRequestError(d.gw.Delete(ctx, href))
}

// Filter starts a filter clause on a clone of d.
func (d *ModelDefinition) Filter() *Filter {
	return newFilter(d.self().Clone())
}

// Clone returns a definition sharing d's compiled properties with its own copy of
// the filter chain.
func (d *ModelDefinition) Clone() Definition {
	return d.clone()
}

func (d *ModelDefinition) clone() *ModelDefinition {
	c := *d
	c.filters = d.Filters()
	c.variant = nil
	return &c
}
