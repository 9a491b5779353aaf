package monitor

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ReportSubmissions counts successful final submissions.
	ReportSubmissions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pfe_report_submissions_total",
		Help: "Number of reports submitted for validation.",
	})

	// ReportDecisions counts recorded reviewer decisions by outcome.
	ReportDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pfe_report_decisions_total",
		Help: "Number of reviewer decisions recorded, by decision type.",
	}, []string{"decision"})

	// NotificationsDispatched counts notifications written by the dispatcher.
	NotificationsDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pfe_notifications_dispatched_total",
		Help: "Number of in-app notifications created.",
	})
)

// RegisterMetricsEndpoint exposes the Prometheus registry on /metrics.
func RegisterMetricsEndpoint(router *gin.Engine) {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
