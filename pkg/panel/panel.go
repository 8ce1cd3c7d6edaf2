// Package panel classifies named UPS metric samples into graph panels and
// builds the ordered rendering directives for each panel.
//
// A Table declares which metrics belong to which panel, how each series is
// styled and which series are conditional (only drawn when the sample has a
// known last value). Build is a pure function of its inputs: it never errors,
// ignores metrics the table does not know, and always emits every declared
// panel in id order, even when a panel ends up without any series.
package panel

import (
	"sort"
	"strings"
)

// HostPlaceholder is replaced by the host label in a panel's chart title.
const HostPlaceholder = "{host}"

// Source references the stored time series backing a sample.
type Source struct {
	// File is the path of the RRD file.
	File string `json:"file" yaml:"file"`

	// DS is the data source name inside File.
	DS string `json:"ds" yaml:"ds"`

	// CF is the consolidation function to read. Empty means AVERAGE.
	CF string `json:"cf,omitempty" yaml:"cf,omitempty"`
}

// Sample is one named metric handed in by the monitoring system.
type Sample struct {
	// Name is the canonical metric name (e.g. "input_voltage").
	Name string `json:"name"`

	// Source points at the series data for this metric.
	Source Source `json:"source"`

	// Last is the most recent recorded value. Nil means unknown.
	Last *float64 `json:"last"`
}

// Known reports whether the sample carries a valid last value.
func (s Sample) Known() bool {
	return s.Last != nil
}

// AxisConfig holds the static axis settings of a panel.
type AxisConfig struct {
	UpperLimit    float64 `json:"upper_limit"`
	LowerLimit    float64 `json:"lower_limit"`
	VerticalLabel string  `json:"vertical_label"`
	ChartTitle    string  `json:"chart_title"`
}

// Panel is one chart: its axis settings and the directives that draw it.
type Panel struct {
	ID         int         `json:"id"`
	Title      string      `json:"title"`
	Axis       AxisConfig  `json:"axis"`
	Directives []Directive `json:"directives"`

	// Absent lists conditional metrics that were present in the input
	// without a known value and were therefore left out.
	Absent []string `json:"absent,omitempty"`
}

// Series returns the names of the series defined in the panel, in
// definition order.
func (p Panel) Series() []string {
	var names []string
	for _, d := range p.Directives {
		if d.Kind == KindDef {
			names = append(names, d.Series)
		}
	}
	return names
}

// accumulator collects the state of one panel during a Build pass.
type accumulator struct {
	def     *PanelDef
	defines []Directive
	defined map[string]bool
	absent  []string
}

// owner is the panel a metric is classified into.
type owner struct {
	acc         *accumulator
	conditional bool
}

// Build classifies samples against table and returns one Panel per declared
// panel, ordered by panel id.
//
// Samples are processed in order and the first sample seen for a metric name
// wins; later duplicates are ignored. Unknown metric names are dropped.
// Conditional series whose sample has no known value get no directives.
// Styling and statistic annotations follow the definitions, in the order the
// table declares the series.
//
// table is expected to have passed Validate. An unvalidated table with a
// repeated panel id still yields one independent panel per definition, and
// a metric listed twice belongs to its first definition in id order.
func Build(samples []Sample, hostLabel string, table *Table) []Panel {
	if table == nil {
		return []Panel{}
	}

	defs := table.sortedPanels()
	accs := make([]*accumulator, len(defs))
	owners := make(map[string]owner)
	for i := range defs {
		accs[i] = &accumulator{
			def:     &defs[i],
			defined: make(map[string]bool),
		}
		for _, series := range defs[i].Series {
			if _, ok := owners[series.Metric]; !ok {
				owners[series.Metric] = owner{acc: accs[i], conditional: series.Conditional}
			}
		}
	}

	seen := make(map[string]bool, len(samples))
	for _, s := range samples {
		if seen[s.Name] {
			continue
		}
		o, ok := owners[s.Name]
		if !ok {
			continue
		}
		seen[s.Name] = true

		acc := o.acc
		if o.conditional && !s.Known() {
			acc.absent = append(acc.absent, s.Name)
			continue
		}
		acc.defines = append(acc.defines, SeriesDefine(s.Name, s.Source))
		acc.defined[s.Name] = true
	}

	panels := make([]Panel, 0, len(defs))
	for _, acc := range accs {
		directives := make([]Directive, 0, len(acc.defines)*5)
		directives = append(directives, acc.defines...)
		for _, series := range acc.def.Series {
			if !acc.defined[series.Metric] {
				continue
			}
			directives = append(directives, styleDirectives(series)...)
		}

		panels = append(panels, Panel{
			ID:    acc.def.ID,
			Title: acc.def.Title,
			Axis: AxisConfig{
				UpperLimit:    acc.def.UpperLimit,
				LowerLimit:    acc.def.LowerLimit,
				VerticalLabel: acc.def.VerticalLabel,
				ChartTitle:    chartTitle(acc.def.ChartTitle, hostLabel),
			},
			Directives: directives,
			Absent:     acc.absent,
		})
	}
	return panels
}

// styleDirectives returns the style directive followed by the AVERAGE, MAX
// and LAST annotations for a defined series.
func styleDirectives(s SeriesDef) []Directive {
	var style Directive
	if s.Style == StyleGradient {
		style = GradientStyle(s.Metric, s.Color, s.ColorEnd, s.Label)
	} else {
		style = LineStyle(s.Metric, s.Color, s.Label)
	}

	unit := strings.ReplaceAll(s.Unit, "%", "%%")
	return []Directive{
		style,
		StatAnnotation(s.Metric, Average, statFormat("Average", s.Format, unit, false)),
		StatAnnotation(s.Metric, Max, statFormat("Max", s.Format, unit, false)),
		StatAnnotation(s.Metric, Last, statFormat("Last", s.Format, unit, true)),
	}
}

// statFormat builds a printf-style annotation format such as
// "Average %5.1lf V". The LAST annotation ends the legend line.
func statFormat(prefix, valueFormat, unit string, endLine bool) string {
	if valueFormat == "" {
		valueFormat = DefaultValueFormat
	}
	f := prefix + " " + valueFormat
	if unit != "" {
		f += " " + unit
	}
	if endLine {
		f += `\n`
	}
	return f
}

func chartTitle(tmpl, hostLabel string) string {
	if tmpl == "" {
		return hostLabel
	}
	return strings.ReplaceAll(tmpl, HostPlaceholder, hostLabel)
}

// sortedPanels returns a copy of the panel definitions ordered by id.
func (t *Table) sortedPanels() []PanelDef {
	defs := make([]PanelDef, len(t.Panels))
	copy(defs, t.Panels)
	sort.SliceStable(defs, func(i, j int) bool {
		return defs[i].ID < defs[j].ID
	})
	return defs
}
