package panel

import (
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Style selects how a series is drawn.
type Style string

const (
	StyleLine     Style = "line"
	StyleGradient Style = "gradient"
)

// DefaultValueFormat is the printf-style value format used in statistic
// annotations when a series does not set its own.
const DefaultValueFormat = "%5.1lf"

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// SeriesDef declares how one metric is drawn inside its panel.
type SeriesDef struct {
	// Metric is the canonical metric name this series is built from.
	Metric string `json:"metric" yaml:"metric"`

	// Label is the legend text. Defaults to Metric.
	Label string `json:"label,omitempty" yaml:"label,omitempty"`

	// Color is a hex RGB triple such as "#21db2a". For gradients it is
	// the start color.
	Color string `json:"color" yaml:"color"`

	// ColorEnd is the gradient end color. Required for gradients only.
	ColorEnd string `json:"color_end,omitempty" yaml:"color_end,omitempty"`

	// Style is "line" (default) or "gradient".
	Style Style `json:"style,omitempty" yaml:"style,omitempty"`

	// Unit is appended to the statistic annotations (e.g. "V", "%").
	Unit string `json:"unit,omitempty" yaml:"unit,omitempty"`

	// Format is the printf-style value format. Defaults to DefaultValueFormat.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`

	// Conditional series are only drawn when their sample has a known value.
	Conditional bool `json:"conditional,omitempty" yaml:"conditional,omitempty"`
}

// PanelDef declares one panel of a Table.
type PanelDef struct {
	ID            int         `json:"id" yaml:"id"`
	Title         string      `json:"title" yaml:"title"`
	UpperLimit    float64     `json:"upper_limit" yaml:"upper_limit"`
	LowerLimit    float64     `json:"lower_limit" yaml:"lower_limit"`
	VerticalLabel string      `json:"vertical_label" yaml:"vertical_label"`
	ChartTitle    string      `json:"chart_title,omitempty" yaml:"chart_title,omitempty"`
	Series        []SeriesDef `json:"series" yaml:"series"`
}

// Table is a classification table: which metric goes to which panel and how
// it is drawn there.
type Table struct {
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Panels      []PanelDef `json:"panels" yaml:"panels"`
}

// ParseTable decodes a YAML table document, fills defaults and validates it.
func ParseTable(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate fills defaults and checks the table invariants: a name, at least
// one panel, unique panel ids, well formed colors, and every metric mapped to
// exactly one panel.
func (t *Table) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("table: name must not be empty")
	}
	if len(t.Panels) == 0 {
		return fmt.Errorf("table %q: at least one panel is required", t.Name)
	}

	panelIDs := make(map[int]bool, len(t.Panels))
	owner := make(map[string]int)

	for pi := range t.Panels {
		p := &t.Panels[pi]
		if panelIDs[p.ID] {
			return fmt.Errorf("table %q: duplicate panel id %d", t.Name, p.ID)
		}
		panelIDs[p.ID] = true

		if p.ChartTitle == "" {
			p.ChartTitle = HostPlaceholder
		}
		if p.UpperLimit < p.LowerLimit {
			return fmt.Errorf("table %q panel %d: upper limit %v is below lower limit %v", t.Name, p.ID, p.UpperLimit, p.LowerLimit)
		}

		for si := range p.Series {
			s := &p.Series[si]
			if s.Metric == "" {
				return fmt.Errorf("table %q panel %d: series %d has no metric", t.Name, p.ID, si)
			}
			if prev, ok := owner[s.Metric]; ok {
				return fmt.Errorf("table %q: metric %q is mapped to panels %d and %d", t.Name, s.Metric, prev, p.ID)
			}
			owner[s.Metric] = p.ID

			if err := s.applyDefaults(); err != nil {
				return fmt.Errorf("table %q panel %d: %w", t.Name, p.ID, err)
			}
		}
	}
	return nil
}

func (s *SeriesDef) applyDefaults() error {
	if s.Label == "" {
		s.Label = s.Metric
	}
	if s.Format == "" {
		s.Format = DefaultValueFormat
	}
	if s.Style == "" {
		s.Style = StyleLine
	}
	if !colorPattern.MatchString(s.Color) {
		return fmt.Errorf("series %q: invalid color %q", s.Metric, s.Color)
	}
	switch s.Style {
	case StyleLine:
	case StyleGradient:
		if !colorPattern.MatchString(s.ColorEnd) {
			return fmt.Errorf("series %q: gradient needs a valid end color, got %q", s.Metric, s.ColorEnd)
		}
	default:
		return fmt.Errorf("series %q: unknown style %q", s.Metric, s.Style)
	}
	return nil
}

// Lookup returns the panel id and series definition for metric.
func (t *Table) Lookup(metric string) (int, SeriesDef, bool) {
	for _, p := range t.Panels {
		for _, s := range p.Series {
			if s.Metric == metric {
				return p.ID, s, true
			}
		}
	}
	return 0, SeriesDef{}, false
}

// Metrics returns every metric name the table maps, in declaration order.
func (t *Table) Metrics() []string {
	var names []string
	for _, p := range t.Panels {
		for _, s := range p.Series {
			names = append(names, s.Metric)
		}
	}
	return names
}

// Conditional returns the names of the conditional metrics in declaration
// order.
func (t *Table) Conditional() []string {
	var names []string
	for _, p := range t.Panels {
		for _, s := range p.Series {
			if s.Conditional {
				names = append(names, s.Metric)
			}
		}
	}
	return names
}
