package metrics

import (
	"encoding/json"
	"net/http"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Summary is the JSON response of the summary endpoint.
type Summary struct {
	HTTP     httpSummary     `json:"http"`
	Store    storeSummary    `json:"store"`
	Activity activitySummary `json:"activity"`
	Server   serverSummary   `json:"server"`
}

type httpSummary struct {
	TotalRequests float64 `json:"totalRequests"`
	ErrorRate     float64 `json:"errorRate"`
}

type storeSummary struct {
	Operations float64 `json:"operations"`
	Errors     float64 `json:"errors"`
}

type activitySummary struct {
	ClockIns        float64            `json:"clockIns"`
	ClockOuts       float64            `json:"clockOuts"`
	SwapTransitions map[string]float64 `json:"swapTransitions"`
	Logins          map[string]float64 `json:"logins"`
}

type serverSummary struct {
	StartTime     float64 `json:"startTime"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
}

// SummaryHandler serves a JSON digest of the registry for dashboards that do
// not speak the Prometheus format.
func (m *Metrics) SummaryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := m.Summarize()
		if err != nil {
			http.Error(w, "failed to gather metrics", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache, no-store")
		_ = json.NewEncoder(w).Encode(summary)
	}
}

// Summarize gathers the registry into a Summary.
func (m *Metrics) Summarize() (Summary, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return Summary{}, err
	}
	fam := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		fam[f.GetName()] = f
	}

	start := gaugeValue(fam[namespace+"_server_start_time_seconds"])
	return Summary{
		HTTP: httpSummary{
			TotalRequests: sumCounter(fam[namespace+"_http_requests_total"]),
			ErrorRate:     errorRate(fam[namespace+"_http_requests_total"]),
		},
		Store: storeSummary{
			Operations: histogramCount(fam[namespace+"_store_operation_duration_seconds"]),
			Errors:     sumCounter(fam[namespace+"_store_errors_total"]),
		},
		Activity: activitySummary{
			ClockIns:        counterWithLabel(fam[namespace+"_clock_events_total"], "event", "clock_in"),
			ClockOuts:       counterWithLabel(fam[namespace+"_clock_events_total"], "event", "clock_out"),
			SwapTransitions: countersByLabel(fam[namespace+"_swap_transitions_total"], "status"),
			Logins:          countersByLabel(fam[namespace+"_logins_total"], "outcome"),
		},
		Server: serverSummary{
			StartTime:     start,
			UptimeSeconds: float64(time.Now().Unix()) - start,
		},
	}, nil
}

func sumCounter(f *dto.MetricFamily) float64 {
	if f == nil {
		return 0
	}
	var total float64
	for _, m := range f.GetMetric() {
		total += m.GetCounter().GetValue()
	}
	return total
}

func gaugeValue(f *dto.MetricFamily) float64 {
	if f == nil || len(f.GetMetric()) == 0 {
		return 0
	}
	return f.GetMetric()[0].GetGauge().GetValue()
}

func histogramCount(f *dto.MetricFamily) float64 {
	if f == nil {
		return 0
	}
	var total uint64
	for _, m := range f.GetMetric() {
		total += m.GetHistogram().GetSampleCount()
	}
	return float64(total)
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func counterWithLabel(f *dto.MetricFamily, name, value string) float64 {
	if f == nil {
		return 0
	}
	var total float64
	for _, m := range f.GetMetric() {
		if labelValue(m, name) == value {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func countersByLabel(f *dto.MetricFamily, name string) map[string]float64 {
	out := map[string]float64{}
	if f == nil {
		return out
	}
	for _, m := range f.GetMetric() {
		out[labelValue(m, name)] += m.GetCounter().GetValue()
	}
	return out
}

func errorRate(f *dto.MetricFamily) float64 {
	if f == nil {
		return 0
	}
	var total, failed float64
	for _, m := range f.GetMetric() {
		v := m.GetCounter().GetValue()
		total += v
		if code := labelValue(m, "status_code"); len(code) > 0 && code[0] >= '4' {
			failed += v
		}
	}
	if total == 0 {
		return 0
	}
	return failed / total
}
