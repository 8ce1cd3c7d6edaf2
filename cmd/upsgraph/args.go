package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kylerisse/upsgraph/pkg/rrd"
)

func newArgsCmd(opts *options) *cobra.Command {
	var graphOpts rrd.Options

	cmd := &cobra.Command{
		Use:   "args",
		Short: "Print one rrdtool command line per panel",
		Long: `args prints a shell-quoted "rrdtool graph" command for every panel,
preceded by a comment naming the panel. Empty panels are printed as a
comment only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			_, panels, err := opts.build(e, cmd.InOrStdin())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, p := range panels {
				fmt.Fprintf(out, "# %d %s\n", p.ID, p.Title)
				if len(p.Directives) == 0 {
					continue
				}
				args := rrd.GraphArgs(p, graphOpts)
				quoted := make([]string, 0, len(args)+1)
				quoted = append(quoted, "rrdtool")
				for _, a := range args {
					quoted = append(quoted, shellQuote(a))
				}
				fmt.Fprintln(out, strings.Join(quoted, " "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&graphOpts.Output, "output", "o", "-", "image path written by rrdtool")
	cmd.Flags().StringVarP(&graphOpts.TimeLength, "range", "r", rrd.DefaultTimeLength, "graph range ending now")
	cmd.Flags().IntVar(&graphOpts.Width, "width", rrd.DefaultWidth, "canvas width in pixels")
	cmd.Flags().IntVar(&graphOpts.Height, "height", rrd.DefaultHeight, "canvas height in pixels")
	return cmd
}

// shellQuote wraps s in single quotes unless it consists only of
// characters that are safe unquoted in a POSIX shell.
func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./=:+,", r))
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
