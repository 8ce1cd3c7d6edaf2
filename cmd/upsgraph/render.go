package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kylerisse/upsgraph/pkg/rrd"
)

func newRenderCmd(opts *options) *cobra.Command {
	var (
		graphDir string
		ranges   []string
		width    int
		height   int
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Draw every panel with rrdtool",
		Long: `render runs "rrdtool graph" for every non-empty panel and every
requested range, writing {graph-dir}/imgs/{host}/{host}_{panel}_{range}.png.`,
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

			var drawn int
			for _, p := range panels {
				for _, tl := range ranges {
					out := rrd.FileName(graphDir, opts.host, p, tl)
					err := rrd.Draw(cmd.Context(), p, rrd.Options{
						Output:     out,
						TimeLength: tl,
						Width:      width,
						Height:     height,
					}, e.logger)
					if err != nil {
						return fmt.Errorf("panel %d (%s): %w", p.ID, p.Title, err)
					}
					if len(p.Directives) > 0 {
						fmt.Fprintln(cmd.OutOrStdout(), out)
						drawn++
					}
				}
			}
			e.logger.Infof("Drew %d graph(s) for host %s.", drawn, opts.host)
			return nil
		},
	}

	cmd.Flags().StringVarP(&graphDir, "graph-dir", "g", "graphs", "output directory for images")
	cmd.Flags().StringSliceVarP(&ranges, "range", "r", []string{"1d", "1w", "31d", "1y"}, "graph ranges ending now")
	cmd.Flags().IntVar(&width, "width", rrd.DefaultWidth, "canvas width in pixels")
	cmd.Flags().IntVar(&height, "height", rrd.DefaultHeight, "canvas height in pixels")
	return cmd
}
