// Package metrics holds the prometheus collectors shared by the bridge.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Frames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glovelink_frames_total",
			Help: "Frames read from the glove, by result.",
		},
		[]string{"result"},
	)
	SinkFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "glovelink_sink_failures_total",
		Help: "Samples that could not be delivered to a sink.",
	})
	ReadErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "glovelink_read_errors_total",
		Help: "Fatal serial read errors.",
	})
	Commits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glovelink_commits_total",
			Help: "Recording commits, by result.",
		},
		[]string{"result"},
	)
	CommitDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "glovelink_commit_duration_seconds",
		Help: "Duration of recording commits.",
	})
)

func init() {
	prometheus.MustRegister(Frames, SinkFailures, ReadErrors, Commits, CommitDuration)
}
