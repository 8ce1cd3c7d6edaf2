package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/kylerisse/upsgraph/pkg/panel"
)

func newPanelsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "panels",
		Short: "Print the built panels as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			tbl, panels, err := opts.build(e, cmd.InOrStdin())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Table  string        `json:"table"`
				Host   string        `json:"host"`
				Panels []panel.Panel `json:"panels"`
			}{tbl.Name, opts.host, panels})
		},
	}
}
