package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "foodvlog"

var (
	PromotionsPurchased = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "promotions_purchased_total",
		Help:      "Promotions created, by package.",
	}, []string{"package"})

	PromotionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "promotion_transitions_total",
		Help:      "Promotion status transitions, by target status.",
	}, []string{"status"})

	PostsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sponsored_posts_submitted_total",
		Help:      "Sponsored posts submitted for moderation.",
	})

	PostsReviewed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sponsored_posts_reviewed_total",
		Help:      "Sponsored post reviews, by decision.",
	}, []string{"decision"})

	// DerivedWriteFailures counts best-effort writes that failed after a
	// committed primary transition.
	DerivedWriteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "derived_write_failures_total",
		Help:      "Failed best-effort writes following a committed transition.",
	}, []string{"kind"})

	FeaturedReconciled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "featured_reconciled_total",
		Help:      "Vendor featured-state recomputations, by result.",
	}, []string{"result"})

	LinkChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sponsored_post_link_checks_total",
		Help:      "Approved post URL checks, by result.",
	}, []string{"result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Derived write kinds
const (
	DerivedFeaturedState = "featured_state"
	DerivedAudit         = "audit"
	DerivedEvent         = "event"
)

func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		HTTPRequestDuration.WithLabelValues(
			c.Method(),
			c.Route().Path,
			strconv.Itoa(c.Response().StatusCode()),
		).Observe(time.Since(start).Seconds())

		return err
	}
}
