package metrics

import (
	"database/sql"
	"log"

	"github.com/prometheus/client_golang/prometheus"
)

func registerDBMetrics(db *sql.DB, logger *log.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "billings_draft",
			Help: "Billing records in DRAFT status",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM billings WHERE status = 'DRAFT'")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "billings_generated",
			Help: "Billing records in GENERATED status",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM billings WHERE status = 'GENERATED'")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "companies_total",
			Help: "Registered companies",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM companies")
		},
	))
}

func queryCount(db *sql.DB, logger *log.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.Printf("metrics query failed: %v", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
