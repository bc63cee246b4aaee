package exporter

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"

	"github.com/prometheus/common/expfmt"

	"github.com/skelstat/skelstat/agent/internal/compute"
)

// Handler serves /metrics and the /api/v1/* JSON endpoints from a Store.
type Handler struct {
	store *Store
	mux   *http.ServeMux
}

// New creates a Handler wired to st and registers all routes.
func New(st *Store) http.Handler {
	h := &Handler{store: st, mux: http.NewServeMux()}

	h.mux.HandleFunc("/metrics", h.metrics)
	h.mux.HandleFunc("/api/v1/units", h.units)
	h.mux.HandleFunc("/api/v1/containers", h.containers)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// metrics returns GET /metrics in the format negotiated from Accept.
func (h *Handler) metrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	format := expfmt.Negotiate(r.Header)
	w.Header().Set("Content-Type", string(format))
	enc := expfmt.NewEncoder(w, format)
	for _, mf := range Families(h.store) {
		if err := enc.Encode(mf); err != nil {
			slog.Error("exporter: encode metric family", "family", mf.GetName(), "err", err)
			return
		}
	}
	if c, ok := enc.(expfmt.Closer); ok {
		if err := c.Close(); err != nil {
			slog.Error("exporter: finish exposition", "err", err)
		}
	}
}

// units returns GET /api/v1/units: the latest outcome of every unit.
func (h *Handler) units(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	entries := h.store.Units()
	out := make([]UnitResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toUnitResponse(e))
	}
	jsonResp(w, http.StatusOK, out)
}

// containers returns GET /api/v1/containers: running totals per container.
func (h *Handler) containers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	entries := h.store.Containers()
	out := make([]ContainerResponse, 0, len(entries))
	for _, e := range entries {
		t := e.Totals
		out = append(out, ContainerResponse{
			Container:   e.Container,
			Units:       t.Units,
			Missing:     t.Missing,
			Failed:      t.Failed,
			RowsSummed:  t.RowsSummed,
			RowsSkipped: t.RowsSkipped,
			Ratio:       finite(t.Ratio),
			UpdatedAt:   e.UpdatedAt,
		})
	}
	jsonResp(w, http.StatusOK, out)
}

// --- helpers ----------------------------------------------------------------

func toUnitResponse(e UnitEntry) UnitResponse {
	r := UnitResponse{
		Container: e.Container,
		Unit:      e.Unit,
		Error:     e.Err,
		UpdatedAt: e.UpdatedAt,
	}
	switch {
	case e.Err != "":
		r.State = "failed"
	case e.Result.Missing:
		r.State = "missing"
	default:
		s := e.Result.Sums
		r.State = "aggregated"
		r.Ratio = finite(e.Result.Ratio)
		r.RatioText = compute.FormatResult(s.MetricA, e.Result.Ratio)
		r.RowsSummed = s.Rows
		r.RowsSkipped = s.Skipped
	}
	return r
}

// finite returns nil for NaN and infinities, which JSON cannot carry.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
