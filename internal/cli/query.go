package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pglens/internal/database"
	"pglens/internal/services"
)

func newQueryCommand(opts *rootOptions) *cobra.Command {
	var saved string

	cmd := &cobra.Command{
		Use:   "query <connection> [sql] [params...]",
		Short: "Run a SQL statement",
		Long: `Run a SQL statement against a connection and print its rows.

Positional values after the statement are bound to $1, $2 and so on. With
--saved the statement is taken from the connection's saved queries and every
positional value is a parameter.`,
		Example: `  pglens query shop "SELECT * FROM orders WHERE customer_id = $1" 42
  pglens query shop --saved monthly-revenue`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(opts)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			conn, err := s.apps.Get(args[0])
			if err != nil {
				return err
			}

			var sql string
			var rest []string
			switch {
			case saved != "":
				q, ok := conn.Query(saved)
				if !ok {
					return fmt.Errorf("%w: %s", services.ErrQueryNotFound, saved)
				}
				sql, rest = q.Query, args[1:]
			case len(args) < 2:
				return errors.New("a statement or --saved is required")
			default:
				sql, rest = args[1], args[2:]
			}

			params := make([]any, len(rest))
			for i, p := range rest {
				params[i] = p
			}

			exec, err := services.NewQueryService(s.apps, s.history, s.logger).Execute(cmd.Context(), args[0], &services.ExecuteQueryRequest{
				SQL:    sql,
				Params: params,
			})
			if err != nil {
				return err
			}

			if opts.output == "json" {
				return renderJSON(cmd.OutOrStdout(), exec)
			}
			if err := renderTable(cmd.OutOrStdout(), columnNames(exec.Result.Columns), exec.Result.Rows); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Time: %dms\n", exec.ExecutionTimeMs)
			return nil
		},
	}

	cmd.Flags().StringVar(&saved, "saved", "", "Run the saved query with this id")

	return cmd
}

func newHistoryCommand(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <connection>",
		Short: "Show recently executed statements",
		Long: `Show statements run on a connection, newest first.

History survives across invocations only when HISTORY_DATABASE_URL is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative, got %d", limit)
			}

			s, err := newSession(opts)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			entries, err := services.NewQueryService(s.apps, s.history, s.logger).History(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}

			cols := []string{"executed_at", "status", "rows", "ms", "query"}
			var rows []database.Row
			for _, e := range entries {
				rows = append(rows, database.NewRow(cols, []any{
					e.ExecutedAt.Format(time.DateTime), e.Status, e.RowCount, e.ExecutionTimeMs, oneLine(e.QueryText),
				}))
			}
			return renderRows(cmd.OutOrStdout(), opts.output, cols, rows)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries")

	return cmd
}
