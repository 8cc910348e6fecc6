package updater

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricNamespace = "prsync_updater"

const skipReasonLabel = "reason"

type metricCollector struct {
	processedEvents prometheus.Counter
	prsSeen         prometheus.Counter
	branchesUpdated prometheus.Counter
	prsSkipped      *prometheus.CounterVec
	mergeConflicts  prometheus.Counter
	mergeRetries    prometheus.Counter
}

var metrics = newMetricCollector()

func newMetricCollector() *metricCollector {
	return &metricCollector{
		processedEvents: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      "processed_events_total",
				Help:      "count of processed trigger events",
			},
		),
		prsSeen: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      "pull_requests_seen_total",
				Help:      "count of pull requests evaluated for updates",
			},
		),
		branchesUpdated: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      "branches_updated_total",
				Help:      "count of pull request branches updated with their base branch",
			},
		),
		prsSkipped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      "skipped_pull_requests_total",
				Help:      "count of pull requests skipped per guard",
			},
			[]string{skipReasonLabel},
		),
		mergeConflicts: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      "merge_conflicts_total",
				Help:      "count of merge attempts that failed with a conflict",
			},
		),
		mergeRetries: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      "merge_retries_total",
				Help:      "count of retried merge attempts",
			},
		),
	}
}

func (m *metricCollector) ProcessedEventsInc() {
	m.processedEvents.Inc()
}

func (m *metricCollector) PullRequestsSeenInc() {
	m.prsSeen.Inc()
}

func (m *metricCollector) BranchesUpdatedInc() {
	m.branchesUpdated.Inc()
}

func (m *metricCollector) SkipsInc(guardName string) {
	m.prsSkipped.With(prometheus.Labels{skipReasonLabel: guardName}).Inc()
}

func (m *metricCollector) MergeConflictsInc() {
	m.mergeConflicts.Inc()
}

func (m *metricCollector) MergeRetriesInc() {
	m.mergeRetries.Inc()
}
