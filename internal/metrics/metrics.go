// Package metrics holds the Prometheus collectors shared by the processor,
// the exporters and the status server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PassesTotal counts processing passes by outcome (ok/failed).
	PassesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fileripper_passes_total",
		Help: "Total number of processing passes",
	}, []string{"status"})

	PassDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fileripper_pass_duration_seconds",
		Help:    "Duration of a processing pass in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// FilesProcessed counts input files by definition mask and outcome.
	FilesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fileripper_files_processed_total",
		Help: "Total number of input files processed",
	}, []string{"file_mask", "status"})

	RecordsExtracted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fileripper_records_extracted_total",
		Help: "Total number of records extracted from input files",
	}, []string{"file_mask"})

	BytesRead = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fileripper_bytes_read_total",
		Help: "Total number of raw input bytes read",
	}, []string{"file_mask"})

	// DefinitionFailures counts definitions whose run stopped, labelled with the
	// support code of the failure.
	DefinitionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fileripper_definition_failures_total",
		Help: "Total number of definition runs stopped by an error",
	}, []string{"file_mask", "code"})

	ExportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fileripper_export_duration_seconds",
		Help:    "Duration of a single export in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"export_type"})

	// LastPassTimestamp is the unix time the most recent pass finished.
	LastPassTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fileripper_last_pass_timestamp_seconds",
		Help: "Unix time the most recent processing pass finished",
	})
)
