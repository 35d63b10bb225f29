package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts failed Redis commands by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goyfeed_redis_errors_total",
		Help: "Total number of Redis command errors",
	}, []string{"command"})

	// GraphQLOperations counts executed GraphQL operations by name and outcome.
	GraphQLOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goyfeed_graphql_operations_total",
		Help: "Total GraphQL operations by operation name and outcome",
	}, []string{"operation", "outcome"})

	// GraphQLDuration observes GraphQL execution latency.
	GraphQLDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "goyfeed_graphql_duration_seconds",
		Help:    "GraphQL execution latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// LikeToggles counts toggleLike results.
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goyfeed_like_toggles_total",
		Help: "Total toggleLike calls by resulting state",
	}, []string{"state"})

	// FollowChanges counts follow graph mutations.
	FollowChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goyfeed_follow_changes_total",
		Help: "Total follow and unfollow operations by result",
	}, []string{"action", "result"})
)

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// InitMetrics returns the process-wide HTTP metrics collector. The collector
// registers with the default registry, so it is created once.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.New(serviceName)
	})
	return prom
}

// MetricsMiddleware records request count and latency for every route.
func MetricsMiddleware(p *fiberprometheus.FiberPrometheus) fiber.Handler {
	return p.Middleware
}
