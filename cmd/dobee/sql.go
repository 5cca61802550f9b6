package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/airagroup/dobee/query"
	"github.com/airagroup/dobee/relation"
)

func newSQLCmd(g *globals) *cobra.Command {
	var (
		options string
		file    string
		pk      string
	)
	cmd := &cobra.Command{
		Use:   "sql <entity>",
		Short: "Print the fetch statement of an entity",
		Long: `Renders the select statement a fetch of the entity issues, with its
parameters and their placeholder types. Options are given as YAML or JSON,
inline or from a file.`,
		Example: `  dobee sql item --options '{where: [{property: this.price, operator: ">", value: 5}]}'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, prefix, err := g.load()
			if err != nil {
				return err
			}
			raw := []byte(options)
			if file != "" {
				if raw, err = os.ReadFile(file); err != nil {
					return fmt.Errorf("reading options: %w", err)
				}
			}
			var opts query.Options
			if len(raw) > 0 {
				if err := yaml.Unmarshal(raw, &opts); err != nil {
					return fmt.Errorf("parsing options: %w", err)
				}
			}
			b := query.NewBuilder(relation.NewResolver(m, prefix))
			var st *query.Statement
			if pk != "" {
				st, err = b.FetchOne(args[0], pk, &opts)
			} else {
				st, err = b.Fetch(args[0], &opts)
			}
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, st.SQL)
			if len(st.Params) > 0 {
				fmt.Fprintf(w, "-- types: %s\n", st.Params.Types())
				for i, a := range st.Args() {
					fmt.Fprintf(w, "-- %d: %#v\n", i+1, a)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&options, "options", "o", "", "Fetch options as YAML or JSON")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read fetch options from a file")
	cmd.Flags().StringVar(&pk, "pk", "", "Render the single-row fetch of this primary key")
	return cmd
}
