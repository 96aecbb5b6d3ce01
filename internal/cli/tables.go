package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pglens/internal/database"
	"pglens/internal/services"
)

func newTablesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables <connection>",
		Short: "List the tables of a connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(opts)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			conn, err := s.connect(cmd.Context(), args[0], opts.refresh)
			if err != nil {
				return err
			}

			snap := conn.Snapshot()
			cols := []string{"schema", "table", "columns"}
			var rows []database.Row
			for _, t := range snap.Tables {
				rows = append(rows, database.NewRow(cols, []any{
					t.Schema, t.Name, len(snap.TableColumns(t.Schema, t.Name)),
				}))
			}
			return renderRows(cmd.OutOrStdout(), opts.output, cols, rows)
		},
	}
}

func newBrowseCommand(opts *rootOptions) *cobra.Command {
	var noFK, strict, showSQL bool

	cmd := &cobra.Command{
		Use:   "browse <connection> <[schema.]table>",
		Short: "Show the first rows of a table",
		Long: fmt.Sprintf(`Show the first %d rows of a table.

Each foreign key column is followed by a column holding a readable value of
the referenced row, taken from its name, text or type column when it has one.
The schema defaults to public.`, services.BrowseRowLimit),
		Example: `  # Browse with foreign keys resolved
  pglens browse shop orders

  # Plain rows, printing the generated statement
  pglens browse shop sales.orders --no-fk --show-sql`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, table := splitTableName(args[1])

			s, err := newSession(opts)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			if _, err := s.connect(cmd.Context(), args[0], opts.refresh); err != nil {
				return err
			}

			tableOpts := services.DefaultTableQueryOptions()
			tableOpts.ResolveForeignKeys = !noFK
			tableOpts.StrictQuoting = strict

			data, err := services.NewTableService(s.apps).Browse(cmd.Context(), args[0], schema, table, tableOpts)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if showSQL {
				_, _ = fmt.Fprintln(w, data.SQL)
			}
			if opts.output == "json" {
				return renderJSON(w, data)
			}
			return renderTable(w, columnNames(data.Query.Columns), data.Rows)
		},
	}

	cmd.Flags().BoolVar(&noFK, "no-fk", false, "Do not resolve foreign keys")
	cmd.Flags().BoolVar(&strict, "strict-quoting", false, "Quote every identifier in the generated statement")
	cmd.Flags().BoolVar(&showSQL, "show-sql", false, "Print the generated statement")

	return cmd
}

func splitTableName(name string) (schema, table string) {
	if schema, table, ok := strings.Cut(name, "."); ok {
		return schema, table
	}
	return "public", name
}
