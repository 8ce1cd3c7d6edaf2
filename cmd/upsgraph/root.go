package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kylerisse/upsgraph/pkg/config"
	"github.com/kylerisse/upsgraph/pkg/panel"
	"github.com/kylerisse/upsgraph/pkg/perfdata"
)

// options holds the flags shared by every subcommand.
type options struct {
	configPath  string
	tablesDir   string
	tableName   string
	host        string
	perfdata    string
	samplesFile string
	rrdFile     string
	logLevel    string
	noColor     bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "upsgraph",
		Short: "Build UPS graph panels from monitoring samples",
		Long: `upsgraph classifies UPS metric samples into graph panels and
turns them into rrdtool graph directives.

Samples are read from a JSON file (--samples) or from Nagios performance
data (--perfdata). Pass "-" to either flag to read from stdin.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "path to the YAML configuration file")
	pf.StringVar(&opts.tablesDir, "tables-dir", "", "directory with additional classification tables")
	pf.StringVarP(&opts.tableName, "table", "t", "", "classification table (default from config)")
	pf.StringVar(&opts.host, "host", "", "host label used in chart titles and image paths")
	pf.StringVarP(&opts.perfdata, "perfdata", "p", "", "Nagios performance data")
	pf.StringVarP(&opts.samplesFile, "samples", "s", "", "JSON file with an array of samples")
	pf.StringVar(&opts.rrdFile, "rrd-file", "", "RRD file or directory backing perfdata samples")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level (default from config)")
	pf.BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newPanelsCmd(opts),
		newArgsCmd(opts),
		newRenderCmd(opts),
		newTablesCmd(opts),
	)
	return root
}

// env is the state a subcommand runs with once flags are resolved.
type env struct {
	cfg     *config.Config
	catalog *panel.Catalog
	logger  *logrus.Logger
}

// setup loads configuration, applies flag overrides and builds the catalog.
func (o *options) setup(stderr io.Writer) (*env, error) {
	if o.noColor {
		color.NoColor = true
	}

	cfg := config.DefaultConfig()
	if o.configPath != "" {
		var err error
		cfg, err = config.LoadConfig(o.configPath)
		if err != nil {
			return nil, err
		}
	}
	if err := config.ApplyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if o.tablesDir != "" {
		cfg.Tables.Dir = o.tablesDir
	}
	if o.tableName != "" {
		cfg.Tables.Default = o.tableName
	}
	if o.rrdFile != "" {
		cfg.RRD.Path = o.rrdFile
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, err
	}
	logger.SetOutput(stderr)

	catalog, err := panel.NewBuiltinCatalog()
	if err != nil {
		return nil, err
	}
	if cfg.Tables.Dir != "" {
		if err := catalog.LoadDir(cfg.Tables.Dir, logger); err != nil {
			return nil, err
		}
	}

	return &env{cfg: cfg, catalog: catalog, logger: logger}, nil
}

// build reads the input samples and classifies them against the selected table.
func (o *options) build(e *env, stdin io.Reader) (*panel.Table, []panel.Panel, error) {
	if o.host == "" {
		return nil, nil, fmt.Errorf("--host is required")
	}

	tbl, err := e.catalog.Get(e.cfg.Tables.Default)
	if err != nil {
		return nil, nil, err
	}

	samples, err := o.readSamples(e, stdin)
	if err != nil {
		return nil, nil, err
	}

	panels := panel.Build(samples, o.host, tbl)
	e.logger.Debugf("Built %d panel(s) for host %s with table %s from %d sample(s).", len(panels), o.host, tbl.Name, len(samples))
	return tbl, panels, nil
}

func (o *options) readSamples(e *env, stdin io.Reader) ([]panel.Sample, error) {
	switch {
	case o.perfdata != "" && o.samplesFile != "":
		return nil, fmt.Errorf("--perfdata and --samples are mutually exclusive")

	case o.perfdata != "":
		raw := o.perfdata
		if raw == "-" {
			data, err := io.ReadAll(stdin)
			if err != nil {
				return nil, fmt.Errorf("failed to read perfdata from stdin: %w", err)
			}
			raw = string(data)
		}
		data, err := perfdata.Parse(raw)
		if err != nil {
			return nil, err
		}
		if e.cfg.RRD.Path == "" {
			return nil, fmt.Errorf("--rrd-file is required with --perfdata")
		}
		return perfdata.Samples(data, e.cfg.Resolver("")), nil

	case o.samplesFile != "":
		return loadSamples(o.samplesFile, stdin)

	default:
		return nil, fmt.Errorf("one of --perfdata or --samples is required")
	}
}

// loadSamples decodes a JSON array of samples from path, or stdin for "-".
func loadSamples(path string, stdin io.Reader) ([]panel.Sample, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open samples file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var samples []panel.Sample
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&samples); err != nil {
		return nil, fmt.Errorf("failed to decode samples: %w", err)
	}
	return samples, nil
}
