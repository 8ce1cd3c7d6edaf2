package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/kylerisse/upsgraph/pkg/panel"
	"github.com/kylerisse/upsgraph/pkg/perfdata"
	"github.com/kylerisse/upsgraph/pkg/rrd"
)

// PanelsRequest is the body of POST /api/panels and POST /api/rrdtool.
// Exactly one of Samples and Perfdata must be set.
type PanelsRequest struct {
	Host     string         `json:"host"`
	Table    string         `json:"table,omitempty"`
	Samples  []panel.Sample `json:"samples,omitempty"`
	Perfdata string         `json:"perfdata,omitempty"`
	// RRDFile overrides the configured RRD path for perfdata input.
	RRDFile string `json:"rrd_file,omitempty"`
}

// PanelsResponse is returned by POST /api/panels.
type PanelsResponse struct {
	Table  string        `json:"table"`
	Host   string        `json:"host"`
	Panels []panel.Panel `json:"panels"`
}

// GraphCommand is the rrdtool argument vector for one panel.
type GraphCommand struct {
	ID    int      `json:"id"`
	Title string   `json:"title"`
	Args  []string `json:"args"`
}

// RRDToolResponse is returned by POST /api/rrdtool.
type RRDToolResponse struct {
	Table  string         `json:"table"`
	Host   string         `json:"host"`
	Graphs []GraphCommand `json:"graphs"`
}

// badRequestError marks errors caused by the client's input.
type badRequestError struct{ err error }

func (e badRequestError) Error() string { return e.err.Error() }
func (e badRequestError) Unwrap() error { return e.err }

func badRequest(format string, args ...any) error {
	return badRequestError{fmt.Errorf(format, args...)}
}

func (s *Server) handlePanels(w http.ResponseWriter, r *http.Request) {
	req, tbl, panels, err := s.build(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, s, PanelsResponse{
		Table:  tbl.Name,
		Host:   req.Host,
		Panels: panels,
	})
}

func (s *Server) handleRRDTool(w http.ResponseWriter, r *http.Request) {
	req, tbl, panels, err := s.build(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := rrd.Options{TimeLength: r.URL.Query().Get("range")}
	graphs := make([]GraphCommand, 0, len(panels))
	for _, p := range panels {
		graphs = append(graphs, GraphCommand{
			ID:    p.ID,
			Title: p.Title,
			Args:  rrd.GraphArgs(p, opts),
		})
	}

	writeJSON(w, s, RRDToolResponse{
		Table:  tbl.Name,
		Host:   req.Host,
		Graphs: graphs,
	})
}

func (s *Server) handleTables(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s, s.catalog.Names())
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	tbl, err := s.catalog.Get(name)
	if err != nil {
		http.Error(w, fmt.Sprintf("Table %q not found", name), http.StatusNotFound)
		return
	}
	writeJSON(w, s, tbl)
}

// build decodes the request, selects the table and runs the classifier.
func (s *Server) build(w http.ResponseWriter, r *http.Request) (*PanelsRequest, *panel.Table, []panel.Panel, error) {
	var req PanelsRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, nil, nil, badRequest("invalid request body: %w", err)
	}

	if req.Host == "" {
		return nil, nil, nil, badRequest("host must not be empty")
	}
	if len(req.Samples) > 0 && req.Perfdata != "" {
		return nil, nil, nil, badRequest("samples and perfdata are mutually exclusive")
	}

	tableName := req.Table
	if tableName == "" {
		tableName = s.defaultTable
	}
	tbl, err := s.catalog.Get(tableName)
	if err != nil {
		return nil, nil, nil, badRequest("%w", err)
	}

	samples := req.Samples
	if req.Perfdata != "" {
		if req.RRDFile == "" && s.rrdPath == "" {
			return nil, nil, nil, badRequest("rrd_file is required for perfdata when no rrd path is configured")
		}
		data, err := perfdata.Parse(req.Perfdata)
		if err != nil {
			return nil, nil, nil, badRequest("%w", err)
		}
		samples = perfdata.Samples(data, s.resolver(req.RRDFile))
	}

	panels := panel.Build(samples, req.Host, tbl)
	s.stats.record(tbl.Name, panels)
	s.logger.Debugf("Built %d panel(s) for host %s with table %s from %d sample(s).", len(panels), req.Host, tbl.Name, len(samples))
	return &req, tbl, panels, nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var bad badRequestError
	if errors.As(err, &bad) {
		s.logger.Debugf("Rejected %s %s: %v", r.Method, r.URL.Path, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.logger.Errorf("Failed to handle %s %s: %v", r.Method, r.URL.Path, err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, s *Server, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Errorf("Failed to encode response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
