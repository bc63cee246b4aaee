package exporter

import (
	dto "github.com/prometheus/client_model/go"
	"google.golang.org/protobuf/proto"
)

// Exported metric names.
const (
	metricUnitRatio      = "skelstat_unit_integrity_ratio"
	metricUnitRows       = "skelstat_unit_rows"
	metricContainerRatio = "skelstat_container_integrity_ratio"
	metricUnitsTotal     = "skelstat_units_total"
)

// Families renders the store as metric families in a stable order.
// Units that were missing or failed have no ratio or row samples.
func Families(st *Store) []*dto.MetricFamily {
	unitRatio := family(metricUnitRatio,
		"Junction/branch ratio of the latest aggregation of each unit.", dto.MetricType_GAUGE)
	unitRows := family(metricUnitRows,
		"Data rows in the unit's results file by outcome.", dto.MetricType_GAUGE)
	contRatio := family(metricContainerRatio,
		"Junction/branch ratio pooled over every aggregated unit of the container.", dto.MetricType_GAUGE)
	unitsTotal := family(metricUnitsTotal,
		"Units processed per container by outcome.", dto.MetricType_COUNTER)

	for _, u := range st.Units() {
		if u.Err != "" || u.Result.Missing {
			continue
		}
		unitRatio.Metric = append(unitRatio.Metric,
			gauge(u.Result.Ratio, "container", u.Container, "unit", u.Unit))
		unitRows.Metric = append(unitRows.Metric,
			gauge(float64(u.Result.Sums.Rows), "container", u.Container, "outcome", "summed", "unit", u.Unit),
			gauge(float64(u.Result.Sums.Skipped), "container", u.Container, "outcome", "skipped", "unit", u.Unit),
		)
	}

	for _, c := range st.Containers() {
		t := c.Totals
		contRatio.Metric = append(contRatio.Metric, gauge(t.Ratio, "container", c.Container))
		unitsTotal.Metric = append(unitsTotal.Metric,
			counter(float64(t.Units), "container", c.Container, "outcome", "aggregated"),
			counter(float64(t.Failed), "container", c.Container, "outcome", "failed"),
			counter(float64(t.Missing), "container", c.Container, "outcome", "missing"),
		)
	}

	out := make([]*dto.MetricFamily, 0, 4)
	for _, mf := range []*dto.MetricFamily{contRatio, unitRatio, unitRows, unitsTotal} {
		if len(mf.Metric) > 0 {
			out = append(out, mf)
		}
	}
	return out
}

func family(name, help string, typ dto.MetricType) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: typ.Enum(),
	}
}

func gauge(v float64, labels ...string) *dto.Metric {
	return &dto.Metric{Label: labelPairs(labels), Gauge: &dto.Gauge{Value: proto.Float64(v)}}
}

func counter(v float64, labels ...string) *dto.Metric {
	return &dto.Metric{Label: labelPairs(labels), Counter: &dto.Counter{Value: proto.Float64(v)}}
}

// labelPairs turns name/value pairs into DTO label pairs. Callers pass names
// in sorted order.
func labelPairs(kv []string) []*dto.LabelPair {
	out := make([]*dto.LabelPair, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, &dto.LabelPair{Name: proto.String(kv[i]), Value: proto.String(kv[i+1])})
	}
	return out
}
