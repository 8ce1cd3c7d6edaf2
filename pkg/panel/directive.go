package panel

// Kind identifies the variant of a Directive.
type Kind string

const (
	// KindDef defines a series from its source.
	KindDef Kind = "def"
	// KindLine draws a series as a line.
	KindLine Kind = "line"
	// KindGradient draws a series as a gradient filled area.
	KindGradient Kind = "gradient"
	// KindGPrint prints a summary statistic of a series.
	KindGPrint Kind = "gprint"
)

// Statistic is the aggregate printed by a statistic annotation.
type Statistic string

const (
	Average Statistic = "AVERAGE"
	Max     Statistic = "MAX"
	Last    Statistic = "LAST"
)

// Directive is a single drawing or annotation instruction within a panel.
// Which fields are set depends on Kind:
//
//   - KindDef: Series, Source
//   - KindLine: Series, Color, Label
//   - KindGradient: Series, Color, ColorEnd, Label (optional)
//   - KindGPrint: Series, Stat, Format
type Directive struct {
	Kind     Kind      `json:"kind"`
	Series   string    `json:"series"`
	Source   *Source   `json:"source,omitempty"`
	Color    string    `json:"color,omitempty"`
	ColorEnd string    `json:"color_end,omitempty"`
	Label    string    `json:"label,omitempty"`
	Stat     Statistic `json:"stat,omitempty"`
	Format   string    `json:"format,omitempty"`
}

// SeriesDefine returns a directive defining series name from src.
func SeriesDefine(name string, src Source) Directive {
	return Directive{Kind: KindDef, Series: name, Source: &src}
}

// LineStyle returns a directive drawing name as a line.
func LineStyle(name, color, label string) Directive {
	return Directive{Kind: KindLine, Series: name, Color: color, Label: label}
}

// GradientStyle returns a directive drawing name as an area fading from
// colorStart to colorEnd. label may be empty.
func GradientStyle(name, colorStart, colorEnd, label string) Directive {
	return Directive{Kind: KindGradient, Series: name, Color: colorStart, ColorEnd: colorEnd, Label: label}
}

// StatAnnotation returns a directive printing stat of name with format.
func StatAnnotation(name string, stat Statistic, format string) Directive {
	return Directive{Kind: KindGPrint, Series: name, Stat: stat, Format: format}
}
