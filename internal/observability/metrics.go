package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "social_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// CacheLookups counts cache-aside lookups by cache name and result (hit, miss).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "social_cache_lookups_total",
		Help: "Cache-aside lookups by cache name and result",
	}, []string{"cache", "result"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "social_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// DatabaseOpenConnections exposes the size of the SQL connection pool.
	DatabaseOpenConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "social_database_open_connections",
		Help: "Open connections in the SQL pool",
	})

	// EntitiesCreated counts created resources by kind (post, comment, like, chat, message, tag, user).
	EntitiesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "social_entities_created_total",
		Help: "Resources created through the API by kind",
	}, []string{"kind"})

	// AuthorizationDenials counts rule engine denials by resource and action.
	AuthorizationDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "social_authorization_denials_total",
		Help: "Authorization denials by resource and action",
	}, []string{"resource", "action"})

	// TokensIssued counts issued JWTs by type (access, refresh).
	TokensIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "social_tokens_issued_total",
		Help: "JWTs issued by token type",
	}, []string{"type"})

	// EventsPublished counts domain events published to Redis by event type and outcome.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "social_events_published_total",
		Help: "Domain events published to Redis by type and outcome",
	}, []string{"event", "outcome"})
)

// DatabaseMetrics wraps DB access for recording query latency.
type DatabaseMetrics struct {
	db *gorm.DB
}

// NewDatabaseMetrics returns a new DatabaseMetrics instance.
func NewDatabaseMetrics(db *gorm.DB) *DatabaseMetrics {
	return &DatabaseMetrics{db: db}
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// SamplePool copies the current pool statistics into the connection gauge.
func (m *DatabaseMetrics) SamplePool() {
	if m == nil || m.db == nil {
		return
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return
	}
	DatabaseOpenConnections.Set(float64(sqlDB.Stats().OpenConnections))
}
