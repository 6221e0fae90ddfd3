package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/nagyist/d2/pkg/model"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

var defaultColumns = []string{"id", "displayName"}

func checkFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return nil
	default:
		return errors.Errorf("unknown output format %q, expected table, json or yaml", format)
	}
}

// writeDocument writes v as json or yaml.
func writeDocument(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return errors.Errorf("%s cannot be written as a document", format)
	}
}

func writeModel(w io.Writer, format string, m *model.Model) error {
	if format != formatTable {
		return writeDocument(w, format, m.DataValues())
	}

	values := m.DataValues()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, cellValue(values[k])})
	}
	return writeTable(w, []string{"property", "value"}, rows, "")
}

func writeCollection(w io.Writer, format string, c *model.Collection, columns []string) error {
	if format != formatTable {
		items := make([]map[string]any, 0, c.Len())
		for _, m := range c.Models() {
			items = append(items, m.DataValues())
		}
		return writeDocument(w, format, map[string]any{
			"pager":                 c.Pager(),
			c.Definition().Plural(): items,
		})
	}

	if len(columns) == 0 {
		columns = defaultColumns
	}

	rows := make([][]string, 0, c.Len())
	for _, m := range c.Models() {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = cellValue(m.DataValues()[col])
		}
		rows = append(rows, row)
	}

	footer := fmt.Sprintf("%d of %d", c.Len(), c.Pager().Total)
	if p := c.Pager(); p.PageCount > 0 {
		footer = fmt.Sprintf("%s, page %d of %d", footer, p.Page, p.PageCount)
	}
	return writeTable(w, columns, rows, footer)
}

func writeTable(w io.Writer, columns []string, rows [][]string, footer string) error {
	table := tablewriter.NewWriter(w)
	defer table.Close()

	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = columnHeader(col)
	}
	table.Header(headers)

	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}

	if footer != "" {
		cells := make([]string, len(columns))
		cells[0] = footer
		table.Footer(cells)
	}

	return table.Render()
}

// columnHeader turns "displayName" into "Display Name".
func columnHeader(col string) string {
	var words []string
	start := 0
	for i, r := range col {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, col[start:i])
			start = i
		}
	}
	words = append(words, col[start:])

	title := cases.Title(language.English)
	for i, word := range words {
		words[i] = title.String(strings.ToLower(word))
	}

	return strings.Join(words, " ")
}

// cellValue renders v for a table cell. References show their id.
func cellValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case map[string]any:
		if id, ok := t["id"]; ok {
			return cast.ToString(id)
		}
		b, _ := json.Marshal(t)
		return string(b)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, cellValue(item))
		}
		return strings.Join(parts, ", ")
	default:
		return cast.ToString(v)
	}
}
