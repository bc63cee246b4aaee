// Package exporter publishes aggregation outcomes for scraping and inspection.
//
// Store keeps the latest outcome per unit and the running totals per
// container. The watcher records into it after every unit; the HTTP handler
// and the textfile writer read from it concurrently.
//
// Families(store) renders the store as Prometheus metric families:
//
//	skelstat_unit_integrity_ratio{container,unit}           gauge
//	skelstat_unit_rows{container,unit,outcome}              gauge   outcome=summed|skipped
//	skelstat_container_integrity_ratio{container}           gauge   pooled over all units
//	skelstat_units_total{container,outcome}                 counter outcome=aggregated|missing|failed
//
// New(store) returns an http.Handler that serves:
//
//	GET /metrics             : exposition in the negotiated format
//	GET /api/v1/units        : []UnitResponse
//	GET /api/v1/containers   : []ContainerResponse
//
// WriteTextfile(path, store) writes the text exposition atomically for the
// node-exporter textfile collector.
package exporter
