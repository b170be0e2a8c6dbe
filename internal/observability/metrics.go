// Package observability provides domain metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// FavoriteOps counts favorite mutations by operation (add, remove).
	FavoriteOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realestate_favorites_total",
		Help: "Total number of favorite mutations by operation",
	}, []string{"op"})

	// FavoriteConflicts counts rejected favorite creates by reason
	// (duplicate, self_reference, race).
	FavoriteConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realestate_favorite_conflicts_total",
		Help: "Total number of rejected favorite creates by reason",
	}, []string{"reason"})

	// InquiriesSubmitted counts inquiries by sender kind (anonymous, user).
	InquiriesSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realestate_inquiries_total",
		Help: "Total number of submitted inquiries by sender kind",
	}, []string{"sender"})

	// AuthorizationDenials counts resolver denials by resource and reason.
	AuthorizationDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realestate_authorization_denials_total",
		Help: "Total number of denied authorization decisions",
	}, []string{"resource", "reason"})

	// NotificationsPublished counts owner notifications by outcome.
	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realestate_notifications_total",
		Help: "Total number of owner notifications by outcome",
	}, []string{"outcome"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "realestate_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

const queryStartKey = "observability:query_start"

// RegisterDBMetrics installs GORM callbacks that feed DatabaseQueryLatency.
func RegisterDBMetrics(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			table := tx.Statement.Table
			if table == "" {
				table = "unknown"
			}
			DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
		}
	}

	cb := db.Callback()
	if err := cb.Create().Before("gorm:create").Register("metrics:before_create", before); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("metrics:after_create", after("create")); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("metrics:before_query", before); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("metrics:after_query", after("query")); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("metrics:before_update", before); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("metrics:after_update", after("update")); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("metrics:before_delete", before); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("metrics:after_delete", after("delete")); err != nil {
		return err
	}
	if err := cb.Raw().Before("gorm:raw").Register("metrics:before_raw", before); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register("metrics:after_raw", after("raw"))
}
