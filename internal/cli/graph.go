package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"pglens/internal/services"
)

func newGraphCommand(opts *rootOptions) *cobra.Command {
	var schema string

	cmd := &cobra.Command{
		Use:   "graph <connection>",
		Short: "Print the foreign key graph of a schema",
		Long: `Print the tables of a schema and the foreign keys between them as a
Mermaid ER diagram. With --output json the node and edge lists are printed
instead.`,
		Example: `  pglens graph shop --schema sales > sales.mmd`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(opts)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			if _, err := s.connect(cmd.Context(), args[0], opts.refresh); err != nil {
				return err
			}

			schemas := services.NewSchemaService(s.apps)
			if opts.output == "json" {
				graph, err := schemas.Graph(args[0], schema)
				if err != nil {
					return err
				}
				return renderJSON(cmd.OutOrStdout(), graph)
			}

			diagram, err := schemas.VisualizeSchema(args[0], schema)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), diagram)
			return nil
		},
	}

	cmd.Flags().StringVar(&schema, "schema", "public", "Schema to draw")

	return cmd
}
