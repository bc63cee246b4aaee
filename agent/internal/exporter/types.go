package exporter

import "time"

// UnitResponse is one entry in GET /api/v1/units.
type UnitResponse struct {
	Container   string    `json:"container"`
	Unit        string    `json:"unit"`
	State       string    `json:"state"` // aggregated | missing | failed
	Ratio       *float64  `json:"ratio,omitempty"`
	RatioText   string    `json:"ratio_text,omitempty"` // as written to the summary
	RowsSummed  int       `json:"rows_summed"`
	RowsSkipped int       `json:"rows_skipped"`
	Error       string    `json:"error,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ContainerResponse is one entry in GET /api/v1/containers.
type ContainerResponse struct {
	Container   string    `json:"container"`
	Units       int       `json:"units"`
	Missing     int       `json:"missing"`
	Failed      int       `json:"failed"`
	RowsSummed  int       `json:"rows_summed"`
	RowsSkipped int       `json:"rows_skipped"`
	Ratio       *float64  `json:"ratio,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}
