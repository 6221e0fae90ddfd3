package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/mitchellh/go-homedir"
	"github.com/nagyist/d2/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureDir = "../../../pkg/model/testdata"

// fakeServer serves dataElements, schemas and attributes from the model fixtures
// and records what it was asked.
type fakeServer struct {
	*httptest.Server

	mu      sync.Mutex
	filters []string
	page    string
	deleted []string
}

func (s *fakeServer) lastFilters() ([]string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters, s.page
}

func readFixtureJSON(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(fixtureDir, path))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func newFakeServer(t *testing.T) *fakeServer {
	s := &fakeServer{}
	dataElements := readFixtureJSON(t, "dataElements.json")
	attributes := readFixtureJSON(t, "schemas/attributes.json")
	var schemas []any
	for _, name := range []string{"dataElement", "indicatorGroup", "user"} {
		schemas = append(schemas, readFixtureJSON(t, "schemas/"+name+".json"))
	}

	e := echo.New()
	e.HideBanner = true

	g := e.Group("/api")
	g.GET("/schemas", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{"schemas": schemas})
	})
	g.GET("/attributes", func(c echo.Context) error {
		return c.JSON(http.StatusOK, attributes)
	})
	g.GET("/dataElements", func(c echo.Context) error {
		s.mu.Lock()
		s.filters = c.QueryParams()["filter"]
		s.page = c.QueryParam("page")
		s.mu.Unlock()
		return c.JSON(http.StatusOK, dataElements)
	})
	g.GET("/dataElements/:id", func(c echo.Context) error {
		id := c.Param("id")
		if id == "missing" {
			return c.JSON(http.StatusNotFound, map[string]any{
				"httpStatus":     "Not Found",
				"httpStatusCode": http.StatusNotFound,
				"status":         "ERROR",
				"message":        "DataElement with id missing could not be found.",
			})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"id":            id,
			"name":          "ANC 1st visit",
			"href":          s.URL + "/api/dataElements/" + id,
			"categoryCombo": map[string]any{"id": "bjDvmb4bfuf"},
		})
	})
	g.DELETE("/dataElements/:id", func(c echo.Context) error {
		s.mu.Lock()
		s.deleted = append(s.deleted, c.Param("id"))
		s.mu.Unlock()
		return c.NoContent(http.StatusNoContent)
	})

	s.Server = httptest.NewServer(e)
	t.Cleanup(s.Close)
	return s
}

func newTestEnv(t *testing.T, s *fakeServer, format string, extra map[string]string) (*env, *bytes.Buffer) {
	t.Helper()

	values := map[string]string{
		config.BaseURLKey:   s.URL + "/api",
		config.SchemaDirKey: filepath.Join(fixtureDir, "schemas"),
	}
	for k, v := range extra {
		values[k] = v
	}

	var buf bytes.Buffer
	e, err := newEnv(config.NewMapConfig(values), &buf, format)
	require.NoError(t, err)
	return e, &buf
}

func TestRunList(t *testing.T) {
	ctx := context.Background()
	s := newFakeServer(t)

	t.Run("table with filters", func(t *testing.T) {
		e, buf := newTestEnv(t, s, formatTable, nil)
		opts := listOptions{filters: []string{"name:like:ANC", "code:null"}, columns: defaultColumns}

		require.NoError(t, runList(ctx, e, "dataElement", opts))
		assert.Contains(t, buf.String(), "FTRrcoaog83")
		assert.Contains(t, buf.String(), "WO8yRIZb7nb")

		filters, page := s.lastFilters()
		assert.Equal(t, []string{"name:like:ANC", "code:null"}, filters)
		assert.Empty(t, page)
	})

	t.Run("json page", func(t *testing.T) {
		e, buf := newTestEnv(t, s, formatJSON, nil)

		require.NoError(t, runList(ctx, e, "dataElement", listOptions{page: 3}))

		var out struct {
			Pager        map[string]any   `json:"pager"`
			DataElements []map[string]any `json:"dataElements"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
		assert.Len(t, out.DataElements, 5)
		assert.Equal(t, float64(1821), out.Pager["total"])

		filters, page := s.lastFilters()
		assert.Empty(t, filters)
		assert.Equal(t, "3", page)
	})

	t.Run("bad filter", func(t *testing.T) {
		e, _ := newTestEnv(t, s, formatTable, nil)
		err := runList(ctx, e, "dataElement", listOptions{filters: []string{"name:sounds:ANC"}})
		assert.ErrorContains(t, err, "unknown filter operator")
	})

	t.Run("unknown type", func(t *testing.T) {
		e, _ := newTestEnv(t, s, formatTable, nil)
		err := runList(ctx, e, "organisationUnit", listOptions{})
		assert.ErrorContains(t, err, "unable to load the organisationUnit schema")
	})
}

func TestRunGet(t *testing.T) {
	ctx := context.Background()
	s := newFakeServer(t)

	t.Run("one id as yaml", func(t *testing.T) {
		e, buf := newTestEnv(t, s, formatYAML, nil)

		require.NoError(t, runGet(ctx, e, "dataElement", []string{"fbfJHSPpUQD"}, nil))
		assert.Contains(t, buf.String(), "name: ANC 1st visit")
		assert.Contains(t, buf.String(), "id: fbfJHSPpUQD")
	})

	t.Run("one id as table", func(t *testing.T) {
		e, buf := newTestEnv(t, s, formatTable, nil)

		require.NoError(t, runGet(ctx, e, "dataElement", []string{"fbfJHSPpUQD"}, nil))
		assert.Contains(t, buf.String(), "ANC 1st visit")
		assert.Contains(t, buf.String(), "bjDvmb4bfuf")
	})

	t.Run("several ids", func(t *testing.T) {
		e, _ := newTestEnv(t, s, formatTable, nil)

		require.NoError(t, runGet(ctx, e, "dataElement", []string{"a", "b"}, defaultColumns))
		filters, _ := s.lastFilters()
		assert.Equal(t, []string{"id:in:[a,b]"}, filters)
	})

	t.Run("not found", func(t *testing.T) {
		e, _ := newTestEnv(t, s, formatTable, nil)

		err := runGet(ctx, e, "dataElement", []string{"missing"}, nil)
		assert.EqualError(t, err, "DataElement with id missing could not be found.")
	})
}

func TestRunDelete(t *testing.T) {
	s := newFakeServer(t)
	e, buf := newTestEnv(t, s, formatTable, nil)

	require.NoError(t, runDelete(context.Background(), e, "dataElement", "fbfJHSPpUQD"))
	assert.Equal(t, "deleted dataElement fbfJHSPpUQD\n", buf.String())
	assert.Equal(t, []string{"fbfJHSPpUQD"}, s.deleted)
}

func TestSchemasSyncAndShow(t *testing.T) {
	ctx := context.Background()
	s := newFakeServer(t)
	dbPath := filepath.Join(t.TempDir(), "schemas.db")
	snapshot := map[string]string{config.SchemaDirKey: "", config.SchemaDBKey: dbPath}

	e, buf := newTestEnv(t, s, formatTable, snapshot)
	require.NoError(t, runSchemasSync(ctx, e, dbPath))
	assert.Equal(t, "3 schemas written to "+dbPath+"\n", buf.String())

	e, buf = newTestEnv(t, s, formatTable, snapshot)
	require.NoError(t, runSchemasShow(ctx, e, "dataElement"))
	assert.Contains(t, buf.String(), "dimensionType")
	assert.Contains(t, buf.String(), "AGGREGATE|TRACKER")

	e, buf = newTestEnv(t, s, formatJSON, snapshot)
	require.NoError(t, runSchemasList(ctx, e))

	var summaries []definitionSummary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &summaries))
	require.Len(t, summaries, 3)
	assert.Equal(t, definitionSummary{
		Name:       "dataElement",
		Plural:     "dataElements",
		Endpoint:   "/dataElements",
		Properties: 39,
		Attributes: 3,
	}, summaries[0])

	e, _ = newTestEnv(t, s, formatTable, nil)
	assert.Error(t, runSchemasSync(ctx, e, ""))
}

func TestNewEnv(t *testing.T) {
	_, err := newEnv(config.NewMapConfig(nil), &bytes.Buffer{}, formatTable)
	assert.ErrorContains(t, err, config.BaseURLKey)

	c := config.NewMapConfig(map[string]string{config.BaseURLKey: "http://localhost:8080/api"})
	_, err = newEnv(c, &bytes.Buffer{}, "xml")
	assert.ErrorContains(t, err, `unknown output format "xml"`)
}

func TestApplyFilters(t *testing.T) {
	s := newFakeServer(t)
	e, _ := newTestEnv(t, s, formatTable, nil)
	def, err := e.definition(context.Background(), "dataElement")
	require.NoError(t, err)

	tests := []struct {
		expr    string
		want    string
		wantErr bool
	}{
		{expr: "name:eq:ANC", want: "name:eq:ANC"},
		{expr: "name:$like:ANC", want: "name:$like:ANC"},
		{expr: "id:in:[a,b]", want: "id:in:[a,b]"},
		{expr: "id:!in:a,b", want: "id:!in:[a,b]"},
		{expr: "href:url:with:colons", wantErr: true},
		{expr: "name:like:a:b", want: "name:like:a:b"},
		{expr: "code:!null", want: "code:!null"},
		{expr: "code:eq", wantErr: true},
		{expr: "name", wantErr: true},
		{expr: ":eq:x", wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.expr, func(t *testing.T) {
			filtered, err := applyFilters(def, []string{test.expr})
			if test.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, []string{test.want}, filtered.Filters())
			assert.Empty(t, def.Filters())
		})
	}
}

func TestColumnHeader(t *testing.T) {
	assert.Equal(t, "Display Name", columnHeader("displayName"))
	assert.Equal(t, "Id", columnHeader("id"))
	assert.Equal(t, "Category Combo Id", columnHeader("categoryComboId"))
}

func TestCellValue(t *testing.T) {
	assert.Equal(t, "", cellValue(nil))
	assert.Equal(t, "bjDvmb4bfuf", cellValue(map[string]any{"id": "bjDvmb4bfuf"}))
	assert.Equal(t, "a, b", cellValue([]any{map[string]any{"id": "a"}, "b"}))
	assert.Equal(t, `{"read":true}`, cellValue(map[string]any{"read": true}))
	assert.Equal(t, "50", cellValue(float64(50)))
	assert.Equal(t, "false", cellValue(false))
}

func TestLoadConfig(t *testing.T) {
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })

	dir := t.TempDir()
	t.Setenv("HOME", dir)

	t.Run("config file", func(t *testing.T) {
		t.Setenv(config.BaseURLKey, "")
		path := filepath.Join(dir, "d2.yaml")
		require.NoError(t, os.WriteFile(path, []byte("D2_BASE_URL: http://localhost:8080/api\n"), 0644))

		c, err := loadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080/api", c.GetKey(config.BaseURLKey))
	})

	t.Run("missing config file", func(t *testing.T) {
		_, err := loadConfig(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("dotenv", func(t *testing.T) {
		const key = "D2_LOAD_CONFIG_TEST"
		path := filepath.Join(dir, ".env")
		require.NoError(t, os.WriteFile(path, []byte(key+"=from-dotenv\n"), 0644))
		t.Setenv(config.DotenvPathKey, path)
		t.Cleanup(func() { _ = os.Unsetenv(key) })

		c, err := loadConfig("")
		require.NoError(t, err)
		assert.Equal(t, "from-dotenv", c.GetKey(key))
	})
}
