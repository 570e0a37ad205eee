package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsSucceeded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docsplit_operations_succeeded_total",
		Help: "Operations that ran to completion.",
	})
	operationsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docsplit_operations_failed_total",
		Help: "Operations that ended in failure.",
	})
	operationsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docsplit_operations_cancelled_total",
		Help: "Operations cancelled before or during processing.",
	})
	pagesExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docsplit_pages_extracted_total",
		Help: "Pages run through field extraction.",
	})
	documentsProduced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docsplit_documents_produced_total",
		Help: "Logical documents assembled and uploaded.",
	})
)
