package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newTablesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tables [name]",
		Short: "List classification tables or print one as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				highlight := color.New(color.FgGreen, color.Bold)
				for _, name := range e.catalog.Names() {
					if name == e.cfg.Tables.Default {
						fmt.Fprintf(out, "* %s\n", highlight.Sprint(name))
						continue
					}
					fmt.Fprintf(out, "  %s\n", name)
				}
				return nil
			}

			tbl, err := e.catalog.Get(args[0])
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(tbl); err != nil {
				return fmt.Errorf("failed to encode table: %w", err)
			}
			return enc.Close()
		},
	}
}
