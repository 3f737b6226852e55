package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sangkips/shopbill-api/pkg/apperror"
)

var (
	BillsCommittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bills_committed_total",
			Help: "Bills written, by commit path",
		},
		[]string{"path"}, // create, edit, conversion
	)

	BillPaymentsRecordedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bill_payments_recorded_total",
			Help: "Ledger entries appended, by source",
		},
		[]string{"source"}, // initial, payment, adjustment
	)

	BillCommitFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bill_commit_failures_total",
			Help: "Rejected or failed bill commits, by reason",
		},
		[]string{"reason"},
	)
)

// InitMetrics registers the billing collectors with the default registry
func InitMetrics() {
	prometheus.MustRegister(BillsCommittedTotal, BillPaymentsRecordedTotal, BillCommitFailuresTotal)
}

func failureReason(err error) string {
	switch {
	case apperror.IsValidation(err):
		return "validation"
	case apperror.IsNotFound(err):
		return "not_found"
	case apperror.IsConflict(err):
		return "conflict"
	default:
		return "persistence"
	}
}
