// Package metrics exposes the latest analysis result as Prometheus gauges
// for long-running watch sessions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dshills/csfgap/internal/gap"
)

const namespace = "csfgap"

// Run results recorded by ObserveFailure and Observe.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// Recorder holds the gauges for one assessed subject. It owns a private
// registry so tests and multiple recorders do not collide.
type Recorder struct {
	reg *prometheus.Registry

	runs      *prometheus.CounterVec
	gaps      *prometheus.GaugeVec
	urgency   *prometheus.GaugeVec
	functions *prometheus.GaugeVec
	overall   prometheus.Gauge
	weighted  prometheus.Gauge
	impact    prometheus.Gauge
	lastRun   prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_runs_total",
			Help:      "Analyses run, by result.",
		}, []string{"result"}),
		gaps: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gaps",
			Help:      "Gaps in the latest analysis, by priority.",
		}, []string{"priority"}),
		urgency: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gaps_by_urgency",
			Help:      "Gaps in the latest analysis, by remediation urgency.",
		}, []string{"urgency"}),
		functions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "function_score",
			Help:      "Mean raw score per function in the latest analysis.",
		}, []string{"function"}),
		overall: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "overall_maturity",
			Help:      "Unweighted mean of all assessed scores.",
		}),
		weighted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "weighted_maturity",
			Help:      "Weighted mean of the function scores.",
		}),
		impact: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "remediation_impact",
			Help:      "Total potential score uplift from remediating every gap.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the latest successful analysis.",
		}),
	}
	r.reg.MustRegister(r.runs, r.gaps, r.urgency, r.functions, r.overall, r.weighted, r.impact, r.lastRun)
	return r
}

// Observe records a successful analysis. Function gauges are reset so that
// functions dropped from the taxonomy disappear.
func (r *Recorder) Observe(sum gap.Summary, impact gap.Impact, unixTime float64) {
	r.runs.WithLabelValues(ResultOK).Inc()

	counts := map[gap.Priority]int{
		gap.PriorityCritical: sum.CriticalCount,
		gap.PriorityHigh:     sum.HighCount,
		gap.PriorityMedium:   sum.MediumCount,
		gap.PriorityLow:      sum.LowCount,
	}
	for _, p := range gap.Priorities {
		r.gaps.WithLabelValues(string(p)).Set(float64(counts[p]))
	}
	for _, u := range gap.Urgencies {
		r.urgency.WithLabelValues(string(u)).Set(float64(sum.ByUrgency[u]))
	}

	r.functions.Reset()
	for fn, score := range sum.FunctionScores {
		r.functions.WithLabelValues(fn).Set(score)
	}
	r.overall.Set(sum.OverallMaturity)
	r.weighted.Set(sum.WeightedOverall)
	r.impact.Set(impact.Total)
	r.lastRun.Set(unixTime)
}

// ObserveFailure counts a failed analysis. The gauges keep their last values.
func (r *Recorder) ObserveFailure() {
	r.runs.WithLabelValues(ResultFailed).Inc()
}

// Handler serves the recorder's metrics in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
