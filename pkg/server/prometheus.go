package server

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/kylerisse/upsgraph/pkg/panel"
)

// buildStats counts classification passes per table, how often each
// conditional metric was left out for lack of data, and responses by
// status code.
type buildStats struct {
	mu        sync.Mutex
	builds    map[string]uint64
	absent    map[string]map[string]uint64
	responses map[string]uint64
}

func newBuildStats() *buildStats {
	return &buildStats{
		builds:    make(map[string]uint64),
		absent:    make(map[string]map[string]uint64),
		responses: make(map[string]uint64),
	}
}

func (b *buildStats) recordResponse(code int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.responses[strconv.Itoa(code)]++
}

func (b *buildStats) record(table string, panels []panel.Panel) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.builds[table]++
	for _, p := range panels {
		for _, metric := range p.Absent {
			if b.absent[table] == nil {
				b.absent[table] = make(map[string]uint64)
			}
			b.absent[table][metric]++
		}
	}
}

// handlePrometheus writes Prometheus-formatted build counters.
func (s *Server) handlePrometheus(w http.ResponseWriter, _ *http.Request) {
	s.stats.mu.Lock()
	defer s.stats.mu.Unlock()

	w.Header().Set("Content-Type", "text/plain")

	w.Write([]byte("# HELP upsgraph_builds_total Panel builds served per classification table.\n"))
	w.Write([]byte("# TYPE upsgraph_builds_total counter\n"))
	for _, table := range sortedKeys(s.stats.builds) {
		w.Write(fmt.Appendf([]byte{},
			"upsgraph_builds_total{table=\"%s\"} %d\n",
			sanitizePrometheusLabel(table),
			s.stats.builds[table],
		))
	}

	w.Write([]byte("# HELP upsgraph_absent_series_total Conditional series omitted for lack of data.\n"))
	w.Write([]byte("# TYPE upsgraph_absent_series_total counter\n"))
	for _, table := range sortedKeys(s.stats.absent) {
		metrics := s.stats.absent[table]
		for _, metric := range sortedKeys(metrics) {
			w.Write(fmt.Appendf([]byte{},
				"upsgraph_absent_series_total{table=\"%s\", metric=\"%s\"} %d\n",
				sanitizePrometheusLabel(table),
				sanitizePrometheusLabel(metric),
				metrics[metric],
			))
		}
	}

	w.Write([]byte("# HELP upsgraph_http_responses_total HTTP responses by status code.\n"))
	w.Write([]byte("# TYPE upsgraph_http_responses_total counter\n"))
	for _, code := range sortedKeys(s.stats.responses) {
		w.Write(fmt.Appendf([]byte{},
			"upsgraph_http_responses_total{code=\"%s\"} %d\n",
			code,
			s.stats.responses[code],
		))
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sanitizePrometheusLabel escapes backslash, double-quote, and newline
// characters in a Prometheus label value.
func sanitizePrometheusLabel(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}
