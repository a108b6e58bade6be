package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkraft_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inkraft_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// CommentsCreated counts new comments by their initial moderation status.
	CommentsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkraft_comments_created_total",
		Help: "Total number of comments created by initial moderation status",
	}, []string{"status"})

	// CommentsModerated counts admin moderation decisions.
	CommentsModerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkraft_comments_moderated_total",
		Help: "Total number of comment moderation decisions",
	}, []string{"decision"})

	// RateLimitRejections counts comment attempts rejected by the quota, by quota size.
	RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkraft_rate_limit_rejections_total",
		Help: "Total number of comment attempts rejected by the trust-tiered quota",
	}, []string{"quota"})

	// VotesCast counts vote changes by direction and resulting action.
	VotesCast = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkraft_votes_total",
		Help: "Total number of vote changes by direction and action",
	}, []string{"direction", "action"})

	// AlertsResolved counts resolved admin alerts by resolution action.
	AlertsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkraft_alerts_resolved_total",
		Help: "Total number of admin alerts resolved by action",
	}, []string{"action"})

	// ViewsRecorded counts analytics view events by store.
	ViewsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkraft_views_recorded_total",
		Help: "Total number of post view events recorded",
	}, []string{"store"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
