package perfdata

import (
	"reflect"
	"testing"

	"github.com/kylerisse/upsgraph/pkg/panel"
)

// pluginOutput is shaped like the APC UPS plugin's performance data with
// the first external sensor missing.
const pluginOutput = "uio_temp1=U uio_temp2=21 battery_capacity=100.0;70:100;50:100 " +
	"battery_temperature=24.0;15:30;10:40 input_voltage=231.0;215:240;210:245 " +
	"output_load=17.0%;0:70;0:85"

func TestParse_PluginOutput(t *testing.T) {
	data, err := Parse(pluginOutput)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(data) != 6 {
		t.Fatalf("expected 6 entries, got %d", len(data))
	}

	if data[0].Label != "uio_temp1" || data[0].Value != nil {
		t.Errorf("expected uio_temp1 to be unknown, got %+v", data[0])
	}
	if data[1].Value == nil || *data[1].Value != 21 {
		t.Errorf("expected uio_temp2=21, got %+v", data[1])
	}
	if data[4].Warn != "215:240" || data[4].Crit != "210:245" {
		t.Errorf("unexpected thresholds %+v", data[4])
	}
	if data[5].UOM != "%" || *data[5].Value != 17 {
		t.Errorf("expected output_load 17%%, got %+v", data[5])
	}
}

func TestParse_Values(t *testing.T) {
	tests := []struct {
		input   string
		label   string
		value   *float64
		uom     string
		wantErr bool
	}{
		{"input_voltage=230.5V", "input_voltage", ptr(230.5), "V", false},
		{"load=12%;70;85;0;100", "load", ptr(12), "%", false},
		{"neg=-3.5", "neg", ptr(-3.5), "", false},
		{"exp=1.5e3", "exp", ptr(1500), "", false},
		{"unknown=U", "unknown", nil, "", false},
		{"empty=", "empty", nil, "", false},
		{"'quoted label'=5s", "quoted label", ptr(5), "s", false},
		{"'it''s'=1", "it's", ptr(1), "", false},
		{"=5", "", nil, "", true},
		{"novalue", "", nil, "", true},
		{"bad=abc", "", nil, "", true},
		{"''=1", "", nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			data, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q, got %+v", tt.input, data)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(data) != 1 {
				t.Fatalf("expected 1 entry, got %d", len(data))
			}
			d := data[0]
			if d.Label != tt.label {
				t.Errorf("expected label %q, got %q", tt.label, d.Label)
			}
			if !reflect.DeepEqual(d.Value, tt.value) {
				t.Errorf("expected value %v, got %v", deref(tt.value), deref(d.Value))
			}
			if d.UOM != tt.uom {
				t.Errorf("expected uom %q, got %q", tt.uom, d.UOM)
			}
		})
	}
}

func TestParse_Empty(t *testing.T) {
	data, err := Parse("   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("expected no entries, got %d", len(data))
	}
}

func TestParse_UnterminatedQuote(t *testing.T) {
	if _, err := Parse("'broken=1"); err == nil {
		t.Error("expected error for unterminated quote")
	}
}

func TestParse_QuotedLabelWithSpaces(t *testing.T) {
	data, err := Parse("'ext temp 1'=20 'ext temp 2'=U")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(data) != 2 || data[0].Label != "ext temp 1" || data[1].Label != "ext temp 2" {
		t.Errorf("unexpected entries %+v", data)
	}
}

func TestSingleFile_Resolve(t *testing.T) {
	r := SingleFile("/var/lib/pnp4nagios/ups1/UPS.rrd")
	got := r.Resolve(2, "battery_capacity")
	want := panel.Source{File: "/var/lib/pnp4nagios/ups1/UPS.rrd", DS: "3"}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestPerMetric_Resolve(t *testing.T) {
	tests := []struct {
		name   string
		r      PerMetric
		label  string
		wantFn string
	}{
		{"with prefix", PerMetric{Dir: "/rrd/ups1", Prefix: "UPS"}, "input_voltage", "/rrd/ups1/UPS_input_voltage.rrd"},
		{"without prefix", PerMetric{Dir: "/rrd/ups1"}, "input_voltage", "/rrd/ups1/input_voltage.rrd"},
		{"unsafe label", PerMetric{Dir: "/rrd"}, "ext temp/1", "/rrd/ext_temp_1.rrd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.r.Resolve(0, tt.label)
			if got.File != tt.wantFn || got.DS != "1" {
				t.Errorf("expected %s:1, got %s:%s", tt.wantFn, got.File, got.DS)
			}
		})
	}
}

func TestSamples_FeedsBuild(t *testing.T) {
	data, err := Parse(pluginOutput)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	samples := Samples(data, SingleFile("ups.rrd"))

	if len(samples) != len(data) {
		t.Fatalf("expected %d samples, got %d", len(data), len(samples))
	}
	if samples[0].Known() {
		t.Error("expected uio_temp1 sample to be unknown")
	}
	if samples[3].Source.DS != "4" {
		t.Errorf("expected battery_temperature at DS 4, got %q", samples[3].Source.DS)
	}

	c, err := panel.NewBuiltinCatalog()
	if err != nil {
		t.Fatalf("NewBuiltinCatalog failed: %v", err)
	}
	tbl, _ := c.Get("temperature")
	panels := panel.Build(samples, "ups1", tbl)

	temp := panels[3]
	if !reflect.DeepEqual(temp.Series(), []string{"uio_temp2", "battery_temperature"}) {
		t.Errorf("unexpected temperature series %v", temp.Series())
	}
	if !reflect.DeepEqual(temp.Absent, []string{"uio_temp1"}) {
		t.Errorf("expected uio_temp1 absent, got %v", temp.Absent)
	}
}

func ptr(v float64) *float64 { return &v }

func deref(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
