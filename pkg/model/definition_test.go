package model

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"testing"

	"github.com/nagyist/d2/pkg/api"
	"github.com/nagyist/d2/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelDefinition(t *testing.T) {
	f, _ := newTestFactory()

	tests := []struct {
		name    string
		defName string
		plural  string
		wantErr error
	}{
		{name: "valid", defName: "dataElement", plural: "dataElements"},
		{name: "no name", defName: "", plural: "dataElements", wantErr: ErrValueRequired},
		{name: "no plural", defName: "dataElement", plural: "", wantErr: ErrPluralRequired},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			def, err := f.NewModelDefinition(test.defName, test.plural)
			if test.wantErr != nil {
				assert.ErrorIs(t, err, test.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "dataElement", def.Name())
			assert.Equal(t, "dataElements", def.Plural())
			assert.False(t, def.IsMetaData())
			assert.Empty(t, def.APIEndpoint())
			assert.Zero(t, def.ModelProperties().Len())
		})
	}

	_, err := f.NewModelDefinition("", "")
	assert.EqualError(t, err, "Value should be provided")
	_, err = f.NewModelDefinition("dataElement", "")
	assert.EqualError(t, err, "Plural should be provided")
}

func TestCreateFromSchema(t *testing.T) {
	f, _ := newTestFactory()
	def := loadDefinition(t, f, "dataElement")

	t.Run("basics", func(t *testing.T) {
		assert.Equal(t, "dataElement", def.Name())
		assert.Equal(t, "dataElements", def.Plural())
		assert.True(t, def.IsMetaData())
		assert.Equal(t, "/dataElements", def.APIEndpoint())
		assert.IsType(t, &ModelDefinition{}, def)
	})

	t.Run("one property per schema property", func(t *testing.T) {
		props := def.ModelProperties()
		assert.Equal(t, 39, props.Len())
		assert.Equal(t, 39, def.ModelValidations().Len())

		keys := props.Keys()
		_ = append(keys, "fortieth")
		keys[0] = "changed"
		assert.Equal(t, 39, props.Len())
		assert.False(t, props.Has("fortieth"))
		assert.False(t, props.Has("changed"))
	})

	t.Run("collections are keyed by collection name", func(t *testing.T) {
		props := def.ModelProperties()
		assert.True(t, props.Has("dataElementGroups"))
		assert.True(t, props.Has("aggregationLevels"))
		assert.False(t, props.Has("dataElementGroup"))
	})

	t.Run("validations", func(t *testing.T) {
		validations := def.ModelValidations()

		id, ok := validations.Get("id")
		require.True(t, ok)
		require.NotNil(t, id.Max)
		assert.Equal(t, float64(11), *id.Max)
		assert.Equal(t, "IDENTIFIER", id.Type)

		externalAccess, _ := validations.Get("externalAccess")
		assert.Equal(t, "BOOLEAN", externalAccess.Type)
		assert.False(t, externalAccess.Owner)

		created, _ := validations.Get("created")
		assert.Equal(t, Validation{Type: "DATE", Owner: true, Persisted: true}, created)

		name, _ := validations.Get("name")
		assert.True(t, name.Required)
		assert.True(t, name.Persisted)
		assert.True(t, name.Owner)
		assert.Equal(t, "TEXT", name.Type)

		domainType, _ := validations.Get("domainType")
		assert.Equal(t, []string{"AGGREGATE", "TRACKER"}, domainType.Constants)

		optionSet, _ := validations.Get("optionSet")
		assert.Equal(t, "optionSet", optionSet.ReferenceType)
		commentOptionSet, _ := validations.Get("commentOptionSet")
		assert.Equal(t, "optionSet", commentOptionSet.ReferenceType)
		groups, _ := validations.Get("dataElementGroups")
		assert.Equal(t, "dataElementGroup", groups.ReferenceType)
		accesses, _ := validations.Get("userGroupAccesses")
		assert.Empty(t, accesses.ReferenceType)
		assert.Equal(t, "COLLECTION", accesses.Type)
	})

	t.Run("validation records are copies", func(t *testing.T) {
		domainType, _ := def.ModelValidations().Get("domainType")
		domainType.Constants[0] = "CHANGED"

		again, _ := def.ModelValidations().Get("domainType")
		assert.Equal(t, "AGGREGATE", again.Constants[0])

		id, _ := def.ModelValidations().Get("id")
		*id.Max = 0
		id, _ = def.ModelValidations().Get("id")
		assert.Equal(t, float64(11), *id.Max)
	})

	t.Run("read only properties have no setter", func(t *testing.T) {
		dimensionType, ok := def.ModelProperties().Get("dimensionType")
		require.True(t, ok)
		assert.False(t, dimensionType.Writable())

		href, _ := def.ModelProperties().Get("href")
		assert.False(t, href.Writable())

		name, _ := def.ModelProperties().Get("name")
		assert.True(t, name.Writable())
	})

	t.Run("owner validations have descriptors", func(t *testing.T) {
		for _, key := range def.ModelValidations().Keys() {
			validation, _ := def.ModelValidations().Get(key)
			if validation.Owner {
				assert.True(t, def.ModelProperties().Has(key), key)
			}
		}
	})

	t.Run("attribute properties", func(t *testing.T) {
		attributes := def.AttributeProperties()
		assert.Equal(t, []string{"alternativeName", "classification", "name"}, attributes.Keys())
		assert.Equal(t, 39, def.ModelProperties().Len())
	})

	t.Run("owned property names", func(t *testing.T) {
		want := []string{
			"lastUpdated", "code", "id", "created", "name", "formName", "legendSet",
			"shortName", "zeroIsSignificant", "publicAccess", "commentOptionSet",
			"aggregationOperator", "type", "url", "numberType", "optionSet", "domainType",
			"description", "categoryCombo", "user", "textType", "aggregationLevels",
			"attributeValues", "userGroupAccesses",
		}
		sort.Strings(want)
		assert.Equal(t, want, def.OwnedPropertyNames())
	})

	t.Run("same schema same definition", func(t *testing.T) {
		other := loadDefinition(t, f, "dataElement")
		assert.Equal(t, def.Name(), other.Name())
		assert.Equal(t, def.Plural(), other.Plural())
		assert.Equal(t, def.IsMetaData(), other.IsMetaData())
		assert.Equal(t, def.APIEndpoint(), other.APIEndpoint())
		assert.Equal(t, def.ModelProperties().Keys(), other.ModelProperties().Keys())
		assert.Equal(t, def.ModelValidations(), other.ModelValidations())
	})
}

func TestCreateFromSchemaServerNames(t *testing.T) {
	f, _ := newTestFactory()
	def := loadDefinition(t, f, "indicatorGroup")

	validations := def.ModelValidations()
	indicators, ok := validations.Get("indicators")
	require.True(t, ok)
	assert.Equal(t, "indicator", indicators.ReferenceType)

	user, _ := validations.Get("user")
	assert.Equal(t, "user", user.ReferenceType)

	created, _ := validations.Get("created")
	assert.Equal(t, "DATE", created.Type)

	accesses, _ := validations.Get("userGroupAccesses")
	assert.Empty(t, accesses.ReferenceType)
}

func TestCreateFromSchemaErrors(t *testing.T) {
	f, _ := newTestFactory()

	t.Run("no schema", func(t *testing.T) {
		_, err := f.CreateFromSchema(nil, nil)
		assert.EqualError(t, err, "Schema should be provided")
	})

	t.Run("unknown type", func(t *testing.T) {
		s := &schema.Schema{
			Name:   "dataElement",
			Plural: "dataElements",
			Properties: []schema.Property{
				{Name: "name", PropertyType: "TEXT"},
				{Name: "weird", PropertyType: "uio.some.unknown.type"},
			},
		}

		_, err := f.CreateFromSchema(s, nil)
		assert.EqualError(t, err, `Type from schema "uio.some.unknown.type" not found available type list.`)

		var mappingErr *TypeMappingError
		require.True(t, errors.As(err, &mappingErr))
		assert.Equal(t, "weird", mappingErr.Property)
	})

	t.Run("missing plural", func(t *testing.T) {
		_, err := f.CreateFromSchema(&schema.Schema{Name: "dataElement"}, nil)
		assert.ErrorIs(t, err, ErrPluralRequired)
	})

	t.Run("not metadata", func(t *testing.T) {
		def, err := f.CreateFromSchema(&schema.Schema{Name: "dataValue", Plural: "dataValues"}, nil)
		require.NoError(t, err)
		assert.False(t, def.IsMetaData())
		assert.Empty(t, def.APIEndpoint())
	})
}

func TestDefinitionGet(t *testing.T) {
	ctx := context.Background()

	t.Run("single id", func(t *testing.T) {
		f, gw := newTestFactory()
		gw.SetResponse(http.MethodGet, "/dataElements/abc", map[string]any{"id": "abc", "name": "ANC 1st visit"})
		def := loadDefinition(t, f, "dataElement")

		m, err := def.Get(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, "abc", m.ID())
		assert.Equal(t, "ANC 1st visit", m.Value("name"))
		assert.False(t, m.IsDirty())
		assert.Same(t, def, m.Definition())

		call, _ := gw.LastCall()
		assert.Equal(t, api.Call{Method: http.MethodGet, Path: "/dataElements/abc", Params: api.Params{Fields: ":all"}}, call)
	})

	t.Run("empty id", func(t *testing.T) {
		f, gw := newTestFactory()
		def := loadDefinition(t, f, "dataElement")

		_, err := def.Get(ctx, "")
		assert.EqualError(t, err, "Identifier should be provided")
		assert.Empty(t, gw.Calls())
	})

	t.Run("server error", func(t *testing.T) {
		f, gw := newTestFactory()
		def := loadDefinition(t, f, "dataElement")
		gw.Err(&api.ResponseError{
			HTTPStatusCode: http.StatusNotFound,
			HTTPStatus:     "Not Found",
			Status:         "ERROR",
			Message:        "DataElement with id abc could not be found.",
		})

		_, err := def.Get(ctx, "abc")
		assert.EqualError(t, err, "DataElement with id abc could not be found.")

		var reqErr *RequestError
		require.True(t, errors.As(err, &reqErr))
		assert.ErrorIs(t, err, api.ErrAPI)
	})

	t.Run("transport error", func(t *testing.T) {
		f, gw := newTestFactory()
		def := loadDefinition(t, f, "dataElement")
		cause := errors.New("connection refused")
		gw.Err(cause)

		_, err := def.Get(ctx, "abc")
		assert.EqualError(t, err, "connection refused")
		assert.ErrorIs(t, err, cause)
	})
}

func TestDefinitionGetMany(t *testing.T) {
	ctx := context.Background()
	f, gw := newTestFactory()
	def := loadDefinition(t, f, "dataElement")
	gw.SetResponse(http.MethodGet, "/dataElements", readFixture(t, "dataElements.json"))

	c, err := def.GetMany(ctx, []string{"id1", "id2"})
	require.NoError(t, err)
	assert.Equal(t, 5, c.Len())

	call, _ := gw.LastCall()
	assert.Equal(t, "/dataElements", call.Path)
	assert.Equal(t, api.Params{Fields: ":all", Filter: []string{"id:in:[id1,id2]"}}, call.Params)

	for _, ids := range [][]string{nil, {}, {"id1", ""}} {
		_, err := def.GetMany(ctx, ids)
		assert.ErrorIs(t, err, ErrIdentifierRequired)
	}
	assert.Len(t, gw.Calls(), 1)

	assert.Empty(t, def.Filters())
}

func TestDefinitionSave(t *testing.T) {
	ctx := context.Background()

	t.Run("create without id", func(t *testing.T) {
		f, gw := newTestFactory()
		def := loadDefinition(t, f, "dataElement")
		gw.SetResponse(http.MethodPost, "/dataElements", map[string]any{"status": "OK"})

		m := def.Create(map[string]any{
			"name":              "ANC 1st visit",
			"shortName":         "ANC 1",
			"zeroIsSignificant": false,
			"code":              "",
			"description":       nil,
			"displayName":       "ANC 1st visit",
		})

		body, err := def.Save(ctx, m)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"status": "OK"}, body)

		call, _ := gw.LastCall()
		assert.Equal(t, http.MethodPost, call.Method)
		assert.Equal(t, "/dataElements", call.Path)
		assert.Equal(t, map[string]any{
			"name":              "ANC 1st visit",
			"shortName":         "ANC 1",
			"zeroIsSignificant": false,
			"code":              "",
		}, call.Body)
	})

	t.Run("update at href", func(t *testing.T) {
		f, gw := newTestFactory()
		def := loadDefinition(t, f, "user")
		m := def.Create(readFixture(t, "user_all_fields.json"))

		_, err := def.Save(ctx, m)
		require.NoError(t, err)

		call, _ := gw.LastCall()
		assert.Equal(t, http.MethodPut, call.Method)
		assert.Equal(t, "https://play.dhis2.org/demo/api/users/awtnYWiVEd5", call.Path)
		assert.Equal(t, readFixture(t, "user_owner_fields.json"), call.Body)
	})

	t.Run("id without href", func(t *testing.T) {
		f, gw := newTestFactory()
		def := loadDefinition(t, f, "dataElement")

		_, err := def.Save(ctx, def.Create(map[string]any{"id": "abc"}))
		assert.ErrorIs(t, err, ErrMissingHref)
		assert.Empty(t, gw.Calls())
	})

	t.Run("server error", func(t *testing.T) {
		f, gw := newTestFactory()
		def := loadDefinition(t, f, "dataElement")
		gw.Err(&api.ResponseError{HTTPStatusCode: http.StatusConflict, Message: "Property `shortName` is required"})

		_, err := def.Save(ctx, def.Create(nil))
		assert.EqualError(t, err, "Property `shortName` is required")
	})

	t.Run("nil model", func(t *testing.T) {
		f, gw := newTestFactory()
		def := loadDefinition(t, f, "dataElement")

		_, err := def.Save(ctx, nil)
		assert.ErrorIs(t, err, ErrModelRequired)
		assert.Empty(t, gw.Calls())
	})
}

func TestDefinitionDelete(t *testing.T) {
	ctx := context.Background()
	f, gw := newTestFactory()
	def := loadDefinition(t, f, "dataElement")

	m := def.Create(map[string]any{"id": "abc", "href": "https://play.dhis2.org/demo/api/dataElements/abc"})
	require.NoError(t, def.Delete(ctx, m))

	call, _ := gw.LastCall()
	assert.Equal(t, api.Call{Method: http.MethodDelete, Path: "https://play.dhis2.org/demo/api/dataElements/abc"}, call)

	assert.ErrorIs(t, def.Delete(ctx, def.Create(nil)), ErrMissingHref)
	assert.ErrorIs(t, def.Delete(ctx, nil), ErrModelRequired)
	assert.Len(t, gw.Calls(), 1)
}

func TestDefinitionPathFallback(t *testing.T) {
	f, gw := newTestFactory()
	def, err := f.NewModelDefinition("dataValue", "dataValues")
	require.NoError(t, err)

	_, err = def.List(context.Background())
	require.NoError(t, err)

	call, _ := gw.LastCall()
	assert.Equal(t, "/dataValues", call.Path)
}
