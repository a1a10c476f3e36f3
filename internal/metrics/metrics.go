package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecordsRead = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_decode_records_read",
		Help: "The total number of log records read by the decode command",
	})

	EventsDecoded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_events_decoded",
		Help: "The total number of decoded events per event name",
	}, []string{"eventName"})

	RecordsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_decode_records_skipped",
		Help: "The total number of log records with a foreign topic0",
	})

	DecodeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_decode_failures",
		Help: "The total number of decode failures per error kind",
	}, []string{"kind"})

	EventsEncoded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_events_encoded",
		Help: "The total number of re-encoded events per event name",
	}, []string{"eventName"})

	DBInserts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_db_inserts",
		Help: "The total number of DB inserts per table",
	}, []string{"table"})

	DBErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_db_errors",
		Help: "The total number of DB errors per table",
	}, []string{"table"})
)
