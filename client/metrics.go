package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "echomobile_client",
			Name:      "requests_total",
			Help:      "API requests issued, by endpoint path.",
		},
		[]string{"path"},
	)

	reportsGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "echomobile_client",
			Name:      "reports_generated_total",
			Help:      "Report generation requests accepted by the server, by report type.",
		},
		[]string{"type"},
	)

	pollCyclesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "echomobile_client",
			Name:      "report_poll_cycles_total",
			Help:      "Background-task status checks performed while awaiting reports.",
		},
	)

	tasksDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "echomobile_client",
			Name:      "background_tasks_deleted_total",
			Help:      "Background tasks confirmed deleted server-side.",
		},
	)
)
