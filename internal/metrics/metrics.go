package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	Snapshots          *prometheus.CounterVec
	SubscriptionErrors *prometheus.CounterVec
	CollectionSize     *prometheus.GaugeVec

	AlertsRaised     *prometheus.CounterVec
	AlertsSuppressed *prometheus.CounterVec
	AudioCues        *prometheus.CounterVec

	CheckoutCommits   *prometheus.CounterVec
	CheckoutLatency   prometheus.Histogram
	StatusTransitions *prometheus.CounterVec
	ChangesPublished  *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	snapshots := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_snapshots_total",
		Help: "Snapshots delivered per collection.",
	}, []string{"collection"})
	subErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_subscription_errors_total",
		Help: "Failed snapshot materializations per collection.",
	}, []string{"collection"})
	size := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "atelier_collection_size",
		Help: "Documents in the latest snapshot.",
	}, []string{"collection"})

	raised := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_alerts_raised_total",
	}, []string{"kind"})
	suppressed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_alerts_suppressed_total",
		Help: "Alerts not raised because the identical message is displayed.",
	}, []string{"kind"})
	cues := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_audio_cues_total",
	}, []string{"kind"})

	commits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_checkout_commits_total",
	}, []string{"outcome"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "atelier_checkout_commit_seconds",
		Buckets: prometheus.DefBuckets,
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_status_transitions_total",
	}, []string{"to", "outcome"})
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_changes_published_total",
	}, []string{"collection", "outcome"})

	r.MustRegister(snapshots, subErrors, size, raised, suppressed, cues, commits, latency, transitions, published)
	return &Registry{
		reg:                r,
		Snapshots:          snapshots,
		SubscriptionErrors: subErrors,
		CollectionSize:     size,
		AlertsRaised:       raised,
		AlertsSuppressed:   suppressed,
		AudioCues:          cues,
		CheckoutCommits:    commits,
		CheckoutLatency:    latency,
		StatusTransitions:  transitions,
		ChangesPublished:   published,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
