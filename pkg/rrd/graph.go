// Package rrd translates panel directives into rrdtool graph invocations.
//
// GraphArgs produces the argument vector for "rrdtool graph" from a built
// panel.Panel; Draw runs rrdtool with it. Only directives present in the
// panel are emitted, so the argument list never refers to a variable
// without a DEF.
package rrd

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kylerisse/upsgraph/pkg/panel"
)

const (
	// DefaultTimeLength is the graph range when Options.TimeLength is empty.
	DefaultTimeLength = "1d"

	// DefaultWidth and DefaultHeight size the canvas in pixels.
	DefaultWidth  = 800
	DefaultHeight = 200

	// DefaultGradientSteps is the number of bands a gradient is drawn with.
	DefaultGradientSteps = 20

	defaultCF = "AVERAGE"
)

// Options controls the parts of an rrdtool invocation that are not decided
// by the panel itself.
type Options struct {
	// Output is the image path. "-" writes to stdout.
	Output string

	// TimeLength is the range ending now, e.g. "4h" or "1w".
	TimeLength string

	Width         int
	Height        int
	GradientSteps int
}

func (o Options) withDefaults() Options {
	if o.Output == "" {
		o.Output = "-"
	}
	if o.TimeLength == "" {
		o.TimeLength = DefaultTimeLength
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.GradientSteps <= 0 {
		o.GradientSteps = DefaultGradientSteps
	}
	return o
}

// FileName returns the image path for a panel of host over timeLength:
// {graphDir}/imgs/{host}/{host}_{panel}_{timeLength}.png.
func FileName(graphDir, host string, p panel.Panel, timeLength string) string {
	slug := strings.ToLower(vname(strings.ReplaceAll(strings.TrimSpace(p.Title), " ", "_")))
	if slug == "" {
		slug = strconv.Itoa(p.ID)
	}
	return filepath.Join(graphDir, "imgs", host, fmt.Sprintf("%s_%s_%s.png", host, slug, timeLength))
}

// GraphArgs builds the "rrdtool graph" argument vector for p.
func GraphArgs(p panel.Panel, opts Options) []string {
	opts = opts.withDefaults()

	args := []string{
		"graph", opts.Output,
		"--title", p.Axis.ChartTitle,
		"--vertical-label", p.Axis.VerticalLabel,
		"--upper-limit", formatLimit(p.Axis.UpperLimit),
		"--lower-limit", formatLimit(p.Axis.LowerLimit),
		"--start", fmt.Sprintf("now-%s", opts.TimeLength),
		"--end", "now",
		"--width", strconv.Itoa(opts.Width),
		"--height", strconv.Itoa(opts.Height),
	}

	names := newVarNames(p.Directives)
	for _, d := range p.Directives {
		args = append(args, directiveArgs(d, opts, names)...)
	}

	comment := fmt.Sprintf("%s over the last %s", rrdEscape(p.Title), expandTimeLength(opts.TimeLength))
	args = append(args,
		"COMMENT:\\n",
		fmt.Sprintf("COMMENT:%s", comment),
	)
	return args
}

// varNames hands out rrdtool variable names. Series keep their sanitized
// metric name where possible; a name already taken, by another series or by
// a derived VDEF/CDEF, gets a numeric suffix.
type varNames struct {
	taken  map[string]bool
	series map[string]string
}

// newVarNames reserves the names of every defined series up front so that
// derived variables can never shadow a DEF.
func newVarNames(directives []panel.Directive) *varNames {
	n := &varNames{
		taken:  make(map[string]bool),
		series: make(map[string]string),
	}
	for _, d := range directives {
		if d.Kind == panel.KindDef {
			n.of(d.Series)
		}
	}
	return n
}

// of returns the variable name of series, allocating it on first use.
func (n *varNames) of(series string) string {
	if v, ok := n.series[series]; ok {
		return v
	}
	v := n.alloc(vname(series))
	n.series[series] = v
	return v
}

// alloc returns base, or base_2, base_3, ... when base is taken.
func (n *varNames) alloc(base string) string {
	v := base
	for i := 2; n.taken[v]; i++ {
		v = fmt.Sprintf("%s_%d", base, i)
	}
	n.taken[v] = true
	return v
}

// directiveArgs renders one directive as rrdtool graph elements.
func directiveArgs(d panel.Directive, opts Options, names *varNames) []string {
	v := names.of(d.Series)

	switch d.Kind {
	case panel.KindDef:
		src := panel.Source{}
		if d.Source != nil {
			src = *d.Source
		}
		cf := src.CF
		if cf == "" {
			cf = defaultCF
		}
		return []string{fmt.Sprintf("DEF:%s=%s:%s:%s", v, escapeColons(src.File), src.DS, cf)}

	case panel.KindLine:
		return []string{fmt.Sprintf("LINE1:%s#%s:%s", v, color(d.Color), rrdEscape(d.Label))}

	case panel.KindGradient:
		return gradientArgs(v, d, opts.GradientSteps, names)

	case panel.KindGPrint:
		vdef := names.alloc(fmt.Sprintf("%s_%s", v, strings.ToLower(string(d.Stat))))
		return []string{
			fmt.Sprintf("VDEF:%s=%s,%s", vdef, v, d.Stat),
			fmt.Sprintf("GPRINT:%s:%s", vdef, escapeColons(d.Format)),
		}
	}
	return nil
}

// gradientArgs draws v as steps stacked areas, from the full value in the
// end color down to the smallest band in the start color. The label goes
// on the outermost band.
func gradientArgs(v string, d panel.Directive, steps int, names *varNames) []string {
	bands := make([]string, steps+1)
	args := make([]string, 0, steps*2)
	for i := steps; i > 0; i-- {
		bands[i] = names.alloc(fmt.Sprintf("%s_g%d", v, i))
		args = append(args, fmt.Sprintf("CDEF:%s=%s,%d,/,%d,*", bands[i], v, steps, i))
	}
	for i := steps; i > 0; i-- {
		c := blend(d.Color, d.ColorEnd, float64(i)/float64(steps))
		area := fmt.Sprintf("AREA:%s#%s", bands[i], c)
		if i == steps && d.Label != "" {
			area += ":" + rrdEscape(d.Label)
		}
		args = append(args, area)
	}
	return args
}
