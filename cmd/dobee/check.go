package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/airagroup/dobee/relation"
	"github.com/airagroup/dobee/schema"
)

func newCheckCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the model and summarize it",
		Long:  "Loads and validates the model, then lists every entity with its table, properties, relations and link tables.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, prefix, err := g.load()
			if err != nil {
				return err
			}
			printModel(cmd.OutOrStdout(), m, relation.NewResolver(m, prefix))
			return nil
		},
	}
}

func printModel(w io.Writer, m *schema.Model, r *relation.Resolver) {
	names := m.Names()
	fmt.Fprintf(w, "%d entities\n", len(names))
	for _, name := range names {
		var flags []string
		if m.IsAbstract(name) {
			flags = append(flags, "abstract")
		}
		if parent := m.Parent(name); parent != "" {
			flags = append(flags, "extends "+parent)
		}
		if m.IsLoggable(name) {
			flags = append(flags, "loggable")
		}
		if m.IsSoftDeletable(name) {
			flags = append(flags, "soft-deletable")
		}
		if b := m.Blameable(name); b != nil {
			flags = append(flags, "blameable "+b.Property)
		}
		fmt.Fprintf(w, "\n%s (%s)", name, r.Table(name))
		if len(flags) > 0 {
			fmt.Fprintf(w, " [%s]", strings.Join(flags, ", "))
		}
		fmt.Fprintln(w)

		props, _ := m.Properties(name)
		pk := m.PrimaryKey(name)
		for _, p := range props {
			mark := ""
			if p.Name == pk {
				mark = " pk"
			}
			fmt.Fprintf(w, "  %s %s%s\n", p.Name, p.Type, mark)
		}
		for _, rel := range m.Relations(name, false, false) {
			fmt.Fprintf(w, "  -> %s %s\n", rel.Target, rel.Cardinality)
		}
		for _, plan := range r.LinkPlans(name) {
			fmt.Fprintf(w, "  link %s (%s, %s)\n", plan.Table, plan.OwnerColumn, plan.RelatedColumn)
		}
	}
}
