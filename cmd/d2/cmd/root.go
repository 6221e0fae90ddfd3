package cmd

import (
	"context"
	"io"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/nagyist/d2/pkg/api"
	"github.com/nagyist/d2/pkg/clog"
	"github.com/nagyist/d2/pkg/config"
	"github.com/nagyist/d2/pkg/model"
	"github.com/nagyist/d2/pkg/schema"
	"github.com/nagyist/d2/pkg/schema/stor"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	cfgFile      string
	outputFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "d2",
	Short: "Work with the metadata of a DHIS2 server",
	Long: `d2 compiles the schemas a DHIS2 server publishes into model definitions and
uses them to list, fetch and delete metadata objects.

Connection settings come from a config file (--config, default ~/.d2/config.yaml)
or from the environment, optionally loaded from the dotenv file D2_DOTENV_PATH
points at. Schemas are read from the sqlite snapshot in D2_SCHEMA_DB, the JSON files
in D2_SCHEMA_DIR, or the server itself, in that order.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(cfgFile)
		if err != nil {
			return err
		}

		config.SetConfig(c)
		_, err = clog.SetupFromConfig(cmd.ErrOrStderr(), c)
		return err
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is "+config.DefaultConfigPath+")")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", formatTable, "output format: table, json or yaml")
}

// loadConfig reads path with viper. Without a path the default config file is
// used when it exists, and the environment otherwise.
func loadConfig(path string) (config.Configer, error) {
	if path == "" {
		defaultPath, err := homedir.Expand(config.DefaultConfigPath)
		if err == nil {
			if _, err := os.Stat(defaultPath); err == nil {
				path = defaultPath
			}
		}
	}

	if path != "" {
		c := config.NewViperConfig(path)
		if err := c.Load(); err != nil {
			return nil, errors.Wrapf(err, "unable to read config %s", path)
		}
		return c, nil
	}

	c := config.NewDotenvConfig(os.Getenv(config.DotenvPathKey))
	if err := c.Load(); err != nil {
		return nil, errors.Wrapf(err, "unable to read dotenv file %s", c.DotenvPath)
	}
	return c, nil
}

// env is what the subcommands need to talk to the server.
type env struct {
	gw      api.Gateway
	source  schema.Source
	factory *model.Factory
	out     io.Writer
	format  string
}

func newEnv(c config.Configer, out io.Writer, format string) (*env, error) {
	if c.GetKey(config.BaseURLKey) == "" {
		return nil, errors.Errorf("%s is not set", config.BaseURLKey)
	}

	if err := checkFormat(format); err != nil {
		return nil, err
	}

	gw := api.NewRestyGatewayFromConfig(c)
	source, err := newSource(c, gw)
	if err != nil {
		return nil, err
	}

	return &env{
		gw:      gw,
		source:  source,
		factory: model.NewFactory(gw),
		out:     out,
		format:  format,
	}, nil
}

func newSource(c config.Configer, gw api.Gateway) (schema.Source, error) {
	if path := c.GetKey(config.SchemaDBKey); path != "" {
		db, err := stor.OpenSQLite(path)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to open schema snapshot %s", path)
		}
		return schema.NewStorSource(stor.NewGormSchemaStor(db)), nil
	}

	if dir := c.GetKey(config.SchemaDirKey); dir != "" {
		return schema.NewDirSource(dir), nil
	}

	return schema.NewAPISource(gw), nil
}

func (e *env) definition(ctx context.Context, typeName string) (model.Definition, error) {
	def, err := e.factory.CreateFromSource(ctx, e.source, typeName)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to load the %s schema", typeName)
	}
	return def, nil
}

// commandEnv builds the env for cmd from the installed config.
func commandEnv(cmd *cobra.Command) (*env, error) {
	return newEnv(config.GetConfig(), cmd.OutOrStdout(), outputFormat)
}
