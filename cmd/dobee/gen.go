package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/airagroup/dobee/gen"
)

func newGenCmd(g *globals) *cobra.Command {
	cfg := gen.Config{}
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate Go entity types for the model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := g.load()
			if err != nil {
				return err
			}
			paths, err := gen.Generate(cmd.Context(), m, cfg)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.Target, "out", "model", "Output directory")
	cmd.Flags().StringVar(&cfg.Package, "package", "model", "Package name of the generated files")
	cmd.Flags().IntVar(&cfg.Workers, "workers", 0, "Files rendered in parallel, 0 for GOMAXPROCS")
	return cmd
}
