// Package perfdata parses Nagios plugin performance data and turns it into
// panel samples.
//
// A performance data string is a space separated list of
//
//	'label'=value[UOM];[warn];[crit];[min];[max]
//
// where the label may be single quoted (to allow spaces, with '' escaping a
// literal quote) and value may be "U" when the plugin could not determine it.
package perfdata

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kylerisse/upsgraph/pkg/panel"
)

// Unknown is the value plugins report for a metric they could not read.
const Unknown = "U"

// Datum is one parsed performance data entry.
type Datum struct {
	Label string
	// Value is nil when the plugin reported "U".
	Value *float64
	UOM   string
	Warn  string
	Crit  string
	Min   string
	Max   string
}

// Parse splits s into performance data entries, preserving their order.
// An empty string yields no entries and no error.
func Parse(s string) ([]Datum, error) {
	tokens, err := tokenize(s)
	if err != nil {
		return nil, err
	}

	data := make([]Datum, 0, len(tokens))
	for _, tok := range tokens {
		d, err := parseToken(tok)
		if err != nil {
			return nil, err
		}
		data = append(data, d)
	}
	return data, nil
}

// tokenize splits on unquoted whitespace. Quotes are kept in the tokens.
func tokenize(s string) ([]string, error) {
	var tokens []string
	var cur strings.Builder
	inQuote := false

	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\'':
			if inQuote && i+1 < len(runes) && runes[i+1] == '\'' {
				cur.WriteString("''")
				i++
				continue
			}
			inQuote = !inQuote
			cur.WriteRune(r)
		case (r == ' ' || r == '\t' || r == '\n') && !inQuote:
			if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("perfdata: unterminated quote in %q", s)
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens, nil
}

func parseToken(tok string) (Datum, error) {
	var d Datum

	eq := strings.LastIndex(tok, "=")
	if eq <= 0 {
		return d, fmt.Errorf("perfdata: malformed entry %q: missing label or '='", tok)
	}

	label := tok[:eq]
	if strings.HasPrefix(label, "'") {
		if len(label) < 2 || !strings.HasSuffix(label, "'") {
			return d, fmt.Errorf("perfdata: malformed label in %q", tok)
		}
		label = strings.ReplaceAll(label[1:len(label)-1], "''", "'")
	}
	if label == "" {
		return d, fmt.Errorf("perfdata: empty label in %q", tok)
	}
	d.Label = label

	fields := strings.Split(tok[eq+1:], ";")
	value, uom, err := splitValue(fields[0])
	if err != nil {
		return d, fmt.Errorf("perfdata: entry %q: %w", tok, err)
	}
	d.Value = value
	d.UOM = uom

	thresholds := []*string{&d.Warn, &d.Crit, &d.Min, &d.Max}
	for i, f := range fields[1:] {
		if i >= len(thresholds) {
			break
		}
		*thresholds[i] = f
	}
	return d, nil
}

// splitValue separates the numeric part of a value from its unit of measure.
func splitValue(raw string) (*float64, string, error) {
	if raw == "" || raw == Unknown {
		return nil, "", nil
	}

	end := 0
	for end < len(raw) && strings.ContainsRune("0123456789.-+eE", rune(raw[end])) {
		end++
	}
	// A trailing exponent marker belongs to the unit (e.g. no "1e" numbers).
	for end > 0 && (raw[end-1] == 'e' || raw[end-1] == 'E') {
		end--
	}
	if end == 0 {
		return nil, "", fmt.Errorf("value %q is not numeric", raw)
	}

	v, err := strconv.ParseFloat(raw[:end], 64)
	if err != nil {
		return nil, "", fmt.Errorf("value %q is not numeric: %w", raw, err)
	}
	return &v, raw[end:], nil
}

// Resolver maps a performance data entry at position index (0 based) to the
// RRD source holding its history.
type Resolver interface {
	Resolve(index int, label string) panel.Source
}

// SingleFile stores every metric of a service in one RRD file, with data
// sources named by their 1 based position.
type SingleFile string

// Resolve implements Resolver.
func (f SingleFile) Resolve(index int, _ string) panel.Source {
	return panel.Source{File: string(f), DS: strconv.Itoa(index + 1)}
}

// PerMetric stores each metric in its own RRD file named
// {Dir}/{Prefix}_{label}.rrd with a single data source "1".
type PerMetric struct {
	Dir    string
	Prefix string
}

// Resolve implements Resolver.
func (p PerMetric) Resolve(_ int, label string) panel.Source {
	name := sanitizeLabel(label) + ".rrd"
	if p.Prefix != "" {
		name = p.Prefix + "_" + name
	}
	return panel.Source{File: filepath.Join(p.Dir, name), DS: "1"}
}

// sanitizeLabel replaces characters that are unsafe in file names.
func sanitizeLabel(label string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, label)
}

// Samples converts parsed entries to panel samples in their original order.
func Samples(data []Datum, resolver Resolver) []panel.Sample {
	samples := make([]panel.Sample, len(data))
	for i, d := range data {
		samples[i] = panel.Sample{
			Name:   d.Label,
			Source: resolver.Resolve(i, d.Label),
			Last:   d.Value,
		}
	}
	return samples
}
