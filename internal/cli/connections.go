package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pglens/internal/database"
)

func newConnectionsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "connections",
		Aliases: []string{"ls"},
		Short:   "List configured connections",
		Long: `List the connections in the connection file, in display order.

No database is contacted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(opts)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			cols := []string{"id", "name", "target", "queries"}
			var rows []database.Row
			for _, conn := range s.apps.List() {
				args := conn.Args()
				rows = append(rows, database.NewRow(cols, []any{
					conn.ID(),
					conn.Name(),
					fmt.Sprintf("%s@%s:%d/%s", args.User, args.Host, args.Port, args.Database),
					len(conn.Queries()),
				}))
			}
			return renderRows(cmd.OutOrStdout(), opts.output, cols, rows)
		},
	}
}

func newQueriesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "queries <connection>",
		Short: "List the saved queries of a connection",
		Example: `  # Show saved queries
  pglens queries shop`,
		Args: cobra.ExactArgs(1),
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

			cols := []string{"id", "name", "tags", "query"}
			var rows []database.Row
			for _, q := range conn.Queries() {
				var tags []string
				for _, id := range q.TagIDs {
					if tag, ok := conn.Tag(id); ok {
						tags = append(tags, tag.Name)
					} else {
						tags = append(tags, id)
					}
				}
				rows = append(rows, database.NewRow(cols, []any{
					q.ID, q.Name, strings.Join(tags, ","), oneLine(q.Query),
				}))
			}
			return renderRows(cmd.OutOrStdout(), opts.output, cols, rows)
		},
	}
}

func oneLine(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}
