package rrd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/kylerisse/upsgraph/pkg/panel"
	"github.com/sirupsen/logrus"
)

// Draw renders p with rrdtool into opts.Output, creating its directory.
// Panels without directives are skipped since rrdtool refuses to draw an
// empty graph.
func Draw(ctx context.Context, p panel.Panel, opts Options, logger *logrus.Logger) error {
	if len(p.Directives) == 0 {
		logger.Debugf("Skipping panel %d (%s): no series defined.", p.ID, p.Title)
		return nil
	}

	opts = opts.withDefaults()
	if opts.Output != "-" {
		dir := filepath.Dir(opts.Output)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	args := GraphArgs(p, opts)
	cmd := exec.CommandContext(ctx, "rrdtool", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("rrdtool graph failed for %s: %w\nOutput: %s", opts.Output, err, string(output))
	}

	logger.Debugf("Graph drawn successfully: %s", opts.Output)
	return nil
}
