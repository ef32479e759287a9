package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	persistTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pacservice_persist_total",
			Help: "Registry writes by outcome (renamed, copied, failed).",
		},
		[]string{"result"},
	)

	persistRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pacservice_persist_rename_retries_total",
			Help: "Rename attempts retried after a busy or permission error.",
		},
	)

	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pacservice_mutations_total",
			Help: "Registry mutations by operation and result (ok, rejected, failed).",
		},
		[]string{"op", "result"},
	)
)
