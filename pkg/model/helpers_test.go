package model

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/nagyist/d2/pkg/api"
	"github.com/nagyist/d2/pkg/schema"
	"github.com/stretchr/testify/require"
)

var testSource = schema.NewDirSource(filepath.Join("testdata", "schemas"))

func newTestFactory() (*Factory, *api.MockGateway) {
	gw := api.NewMockGateway()
	return NewFactory(gw), gw
}

func loadSchema(t *testing.T, name string) *schema.Schema {
	t.Helper()
	s, err := testSource.Schema(context.Background(), name)
	require.NoError(t, err)
	return s
}

func loadAttributes(t *testing.T) []schema.Attribute {
	t.Helper()
	attributes, err := testSource.Attributes(context.Background())
	require.NoError(t, err)
	return attributes
}

func loadDefinition(t *testing.T, f *Factory, name string) Definition {
	t.Helper()
	def, err := f.CreateFromSchema(loadSchema(t, name), loadAttributes(t))
	require.NoError(t, err)
	return def
}

func readFixture(t *testing.T, name string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}
