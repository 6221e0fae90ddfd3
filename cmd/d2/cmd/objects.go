package cmd

import (
	"context"
	"fmt"

	"github.com/nagyist/d2/pkg/model"
	"github.com/spf13/cobra"
)

type listOptions struct {
	filters []string
	page    int
	columns []string
}

var listOpts listOptions

var listCmd = &cobra.Command{
	Use:   "list <type>",
	Short: "List the objects of a type",
	Example: `  d2 list dataElement --filter name:like:ANC --filter domainType:eq:AGGREGATE
  d2 list user --page 2 --columns id,firstName,surname -o yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := commandEnv(cmd)
		if err != nil {
			return err
		}
		return runList(cmd.Context(), e, args[0], listOpts)
	},
}

var getColumns []string

var getCmd = &cobra.Command{
	Use:   "get <type> <id>...",
	Short: "Fetch objects by id",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := commandEnv(cmd)
		if err != nil {
			return err
		}
		return runGet(cmd.Context(), e, args[0], args[1:], getColumns)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <type> <id>",
	Short: "Delete one object",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := commandEnv(cmd)
		if err != nil {
			return err
		}
		return runDelete(cmd.Context(), e, args[0], args[1])
	},
}

func init() {
	listCmd.Flags().StringArrayVarP(&listOpts.filters, "filter", "f", nil, "filter as field:operator:value, repeatable")
	listCmd.Flags().IntVar(&listOpts.page, "page", 0, "page to list")
	listCmd.Flags().StringSliceVar(&listOpts.columns, "columns", defaultColumns, "table columns")
	getCmd.Flags().StringSliceVar(&getColumns, "columns", defaultColumns, "table columns when fetching several ids")

	rootCmd.AddCommand(listCmd, getCmd, deleteCmd)
}

func runList(ctx context.Context, e *env, typeName string, opts listOptions) error {
	def, err := e.definition(ctx, typeName)
	if err != nil {
		return err
	}

	def, err = applyFilters(def, opts.filters)
	if err != nil {
		return err
	}

	var c *model.Collection
	if opts.page > 0 {
		c, err = def.ListPage(ctx, opts.page)
	} else {
		c, err = def.List(ctx)
	}
	if err != nil {
		return err
	}

	return writeCollection(e.out, e.format, c, opts.columns)
}

func runGet(ctx context.Context, e *env, typeName string, ids []string, columns []string) error {
	def, err := e.definition(ctx, typeName)
	if err != nil {
		return err
	}

	if len(ids) == 1 {
		m, err := def.Get(ctx, ids[0])
		if err != nil {
			return err
		}
		return writeModel(e.out, e.format, m)
	}

	c, err := def.GetMany(ctx, ids)
	if err != nil {
		return err
	}
	return writeCollection(e.out, e.format, c, columns)
}

// runDelete fetches the object first; it is deleted at the href the server reports.
func runDelete(ctx context.Context, e *env, typeName, id string) error {
	def, err := e.definition(ctx, typeName)
	if err != nil {
		return err
	}

	m, err := def.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := m.Delete(ctx); err != nil {
		return err
	}

	_, err = fmt.Fprintf(e.out, "deleted %s %s\n", def.Name(), id)
	return err
}
