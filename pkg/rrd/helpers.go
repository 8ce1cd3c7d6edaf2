package rrd

import (
	"fmt"
	"strconv"
	"strings"
)

func expandTimeLength(timeLength string) string {
	switch timeLength {
	case "15m":
		return "fifteen minutes"
	case "1h":
		return "one hour"
	case "4h":
		return "four hours"
	case "8h":
		return "eight hours"
	case "1d":
		return "one day"
	case "4d":
		return "four days"
	case "1w":
		return "week"
	case "31d":
		return "month"
	case "93d":
		return "quarter"
	case "1y":
		return "year"
	}
	return timeLength
}

// rrdEscape escapes a string for use in rrdtool graph labels and comments.
// rrdtool uses colons as field delimiters, so literal colons must be escaped
// as \: in label text. Backslashes must also be escaped.
func rrdEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `:`, `\:`)
	return s
}

// escapeColons escapes colons only, keeping rrdtool's own backslash
// sequences such as \n intact.
func escapeColons(s string) string {
	return strings.ReplaceAll(s, `:`, `\:`)
}

// vname turns a metric name into a valid rrdtool variable name.
func vname(metric string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, metric)
}

// color strips the leading '#' from a hex RGB triple.
func color(c string) string {
	return strings.TrimPrefix(c, "#")
}

// parseColor decodes a "#RRGGBB" or "RRGGBB" triple.
func parseColor(c string) (r, g, b uint8, err error) {
	c = color(c)
	if len(c) != 6 {
		return 0, 0, 0, fmt.Errorf("invalid color %q", c)
	}
	v, err := strconv.ParseUint(c, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid color %q: %w", c, err)
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), nil
}

// blend returns the color factor of the way from start to end, rounded to
// the nearest channel value, as "RRGGBB".
func blend(start, end string, factor float64) string {
	r1, g1, b1, err := parseColor(start)
	if err != nil {
		return color(end)
	}
	r2, g2, b2, err := parseColor(end)
	if err != nil {
		return color(start)
	}
	mix := func(a, b uint8) uint8 {
		return uint8(float64(a) + (float64(b)-float64(a))*factor + 0.5)
	}
	return fmt.Sprintf("%02X%02X%02X", mix(r1, r2), mix(g1, g2), mix(b1, b2))
}

func formatLimit(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
