package monitoring

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	settlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlements_total",
			Help: "Settlement webhook outcomes",
		},
		[]string{"outcome"},
	)

	settlementDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "settlement_duration_seconds",
			Help:    "Time spent handling a settlement notification",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	webhookAuthFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_auth_failures_total",
			Help: "Webhook deliveries rejected for a bad signature",
		},
	)

	oversellRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "oversell_rejections_total",
			Help: "Settlements aborted because seats ran out",
		},
	)

	purchaseInitiations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchase_initiations_total",
			Help: "Purchases started, by kind",
		},
		[]string{"kind"},
	)

	goroutineCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_goroutines_total",
			Help: "Current number of active goroutines",
		},
	)

	redisUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "redis_up",
			Help: "Whether the redis connection is healthy",
		},
	)
)

func ObserveSettlement(outcome string, d time.Duration) {
	settlementsTotal.WithLabelValues(outcome).Inc()
	settlementDuration.Observe(d.Seconds())
}

func WebhookAuthFailure() {
	webhookAuthFailures.Inc()
}

func OversellRejection() {
	oversellRejections.Inc()
}

func PurchaseInitiated(kind string) {
	purchaseInitiations.WithLabelValues(kind).Inc()
}

type Monitor struct {
	redis *redis.Client
}

func NewMonitor(redisClient *redis.Client) *Monitor {
	return &Monitor{redis: redisClient}
}

// Start refreshes process-level gauges until the context is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			goroutineCount.Set(float64(runtime.NumGoroutine()))

			if err := m.redis.Ping(ctx).Err(); err != nil {
				redisUp.Set(0)
			} else {
				redisUp.Set(1)
			}
		}
	}
}
