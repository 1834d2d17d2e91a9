// Package metrics provides Prometheus instrumentation for ranking calls
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/pkg/core/matcher"
)

// Cache lookup outcomes
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

var (
	RankingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "volunteer_match_rankings_total",
			Help: "Total number of ranking calls",
		},
		[]string{"outcome"}, // outcome = "ok", "error"
	)

	RankingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "volunteer_match_ranking_duration_seconds",
			Help:    "Duration of ranking calls in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	CandidatesConsidered = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "volunteer_match_candidates_considered",
			Help:    "Number of well-formed opportunities considered per ranking call",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	CandidatesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "volunteer_match_candidates_rejected_total",
			Help: "Total number of opportunities filtered out, by failing gate",
		},
		[]string{"gate"},
	)

	MalformedOpportunities = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "volunteer_match_malformed_opportunities_total",
			Help: "Total number of opportunities skipped because their data was malformed",
		},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "volunteer_match_cache_lookups_total",
			Help: "Total number of ranking cache lookups",
		},
		[]string{"result"},
	)
)

// ObserveRanking records a completed ranking call. A nil outcome counts as an error.
func ObserveRanking(outcome *matcher.RankOutcome, elapsed time.Duration) {
	RankingDuration.Observe(elapsed.Seconds())

	if outcome == nil {
		RankingsTotal.WithLabelValues("error").Inc()
		return
	}

	RankingsTotal.WithLabelValues("ok").Inc()
	CandidatesConsidered.Observe(float64(outcome.Considered))
	MalformedOpportunities.Add(float64(len(outcome.Warnings)))
	for gate, n := range outcome.Rejections {
		CandidatesRejected.WithLabelValues(string(gate)).Add(float64(n))
	}
}

// ObserveCacheLookup records a cache lookup by result
func ObserveCacheLookup(result string) {
	CacheLookups.WithLabelValues(result).Inc()
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartServer serves /metrics on addr in the background.
// The caller shuts the returned server down.
func StartServer(addr string, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", zap.Error(err))
		}
	}()

	logger.Debug("Serving metrics", zap.String("addr", addr))
	return srv
}
