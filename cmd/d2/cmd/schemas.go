package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/nagyist/d2/pkg/config"
	"github.com/nagyist/d2/pkg/model"
	"github.com/nagyist/d2/pkg/schema"
	"github.com/nagyist/d2/pkg/schema/stor"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

var schemasCmd = &cobra.Command{
	Use:   "schemas",
	Short: "Inspect and snapshot the schemas model definitions are compiled from",
}

var schemasSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Copy every schema and the attribute list from the server into D2_SCHEMA_DB",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := commandEnv(cmd)
		if err != nil {
			return err
		}
		return runSchemasSync(cmd.Context(), e, config.GetKey(config.SchemaDBKey))
	},
}

var schemasListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the types the schema source knows about",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := commandEnv(cmd)
		if err != nil {
			return err
		}
		return runSchemasList(cmd.Context(), e)
	},
}

var schemasShowCmd = &cobra.Command{
	Use:   "show <type>",
	Short: "Show the compiled properties and validations of a type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := commandEnv(cmd)
		if err != nil {
			return err
		}
		return runSchemasShow(cmd.Context(), e, args[0])
	},
}

func init() {
	schemasCmd.AddCommand(schemasSyncCmd, schemasListCmd, schemasShowCmd)
	rootCmd.AddCommand(schemasCmd)
}

func runSchemasSync(ctx context.Context, e *env, dbPath string) error {
	if dbPath == "" {
		return errors.Errorf("%s is not set", config.SchemaDBKey)
	}

	db, err := stor.OpenSQLite(dbPath)
	if err != nil {
		return errors.Wrapf(err, "unable to open schema snapshot %s", dbPath)
	}

	n, err := schema.Sync(ctx, schema.NewAPISource(e.gw), stor.NewGormSchemaStor(db))
	if err != nil {
		return errors.Wrap(err, "schema sync failed")
	}

	_, err = fmt.Fprintf(e.out, "%d schemas written to %s\n", n, dbPath)
	return err
}

type definitionSummary struct {
	Name       string `json:"name" yaml:"name"`
	Plural     string `json:"plural" yaml:"plural"`
	Endpoint   string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Properties int    `json:"properties" yaml:"properties"`
	Attributes int    `json:"attributes" yaml:"attributes"`
}

func runSchemasList(ctx context.Context, e *env) error {
	defs, err := model.LoadDefinitions(ctx, e.factory, e.source)
	if err != nil {
		return err
	}

	summaries := make([]definitionSummary, 0, defs.Len())
	for _, name := range defs.Names() {
		def, _ := defs.Get(name)
		summaries = append(summaries, definitionSummary{
			Name:       def.Name(),
			Plural:     def.Plural(),
			Endpoint:   def.APIEndpoint(),
			Properties: def.ModelProperties().Len(),
			Attributes: def.AttributeProperties().Len(),
		})
	}

	if e.format != formatTable {
		return writeDocument(e.out, e.format, summaries)
	}

	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{s.Name, s.Plural, s.Endpoint, cast.ToString(s.Properties), cast.ToString(s.Attributes)})
	}
	return writeTable(e.out, []string{"name", "plural", "endpoint", "properties", "attributes"}, rows, "")
}

type propertySummary struct {
	Key       string   `json:"key" yaml:"key"`
	Type      string   `json:"type" yaml:"type"`
	Owner     bool     `json:"owner" yaml:"owner"`
	Persisted bool     `json:"persisted" yaml:"persisted"`
	Required  bool     `json:"required" yaml:"required"`
	Writable  bool     `json:"writable" yaml:"writable"`
	Min       *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max       *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Constants []string `json:"constants,omitempty" yaml:"constants,omitempty"`
	Reference string   `json:"referenceType,omitempty" yaml:"referenceType,omitempty"`
}

func describeProperties(def model.Definition) []propertySummary {
	props := def.ModelProperties()
	validations := def.ModelValidations()

	summaries := make([]propertySummary, 0, props.Len())
	for _, key := range props.Keys() {
		d, _ := props.Get(key)
		v, _ := validations.Get(key)
		summaries = append(summaries, propertySummary{
			Key:       key,
			Type:      v.Type,
			Owner:     v.Owner,
			Persisted: v.Persisted,
			Required:  v.Required,
			Writable:  d.Writable(),
			Min:       v.Min,
			Max:       v.Max,
			Constants: v.Constants,
			Reference: v.ReferenceType,
		})
	}

	return summaries
}

func runSchemasShow(ctx context.Context, e *env, typeName string) error {
	def, err := e.definition(ctx, typeName)
	if err != nil {
		return err
	}

	props := describeProperties(def)
	if e.format != formatTable {
		return writeDocument(e.out, e.format, map[string]any{
			"name":       def.Name(),
			"plural":     def.Plural(),
			"endpoint":   def.APIEndpoint(),
			"metadata":   def.IsMetaData(),
			"properties": props,
			"attributes": def.AttributeProperties().Keys(),
		})
	}

	rows := make([][]string, 0, len(props))
	for _, p := range props {
		rows = append(rows, []string{
			p.Key,
			p.Type,
			cast.ToString(p.Owner),
			cast.ToString(p.Required),
			cast.ToString(p.Writable),
			p.Reference,
			constraints(p),
		})
	}

	footer := fmt.Sprintf("%d properties, %d owned", len(props), len(def.OwnedPropertyNames()))
	return writeTable(e.out, []string{"key", "type", "owner", "required", "writable", "reference", "constraints"}, rows, footer)
}

func constraints(p propertySummary) string {
	var parts []string
	if p.Min != nil {
		parts = append(parts, "min="+cast.ToString(*p.Min))
	}

	if p.Max != nil {
		parts = append(parts, "max="+cast.ToString(*p.Max))
	}

	if len(p.Constants) > 0 {
		parts = append(parts, strings.Join(p.Constants, "|"))
	}

	return strings.Join(parts, " ")
}
