package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Commits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listkeeper_commits_total",
		Help: "The total number of committed list param changes",
	}, []string{"resource", "action"})
	Superseded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listkeeper_filter_superseded_total",
		Help: "Pending filter changes replaced or cancelled before they committed",
	}, []string{"resource"})
	CommitErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listkeeper_commit_errors_total",
		Help: "Debounced filter commits that failed",
	}, []string{"resource"})
	ActiveLists = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "listkeeper_active_lists",
		Help: "Lists with a live controller",
	})
	Evictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "listkeeper_evictions_total",
		Help: "Controllers evicted after being idle",
	})
)
