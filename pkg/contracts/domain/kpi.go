package domain

import (
	"time"
)

// Metric identifies one of the five practice KPIs.
type Metric string

const (
	MetricProductionTotal      Metric = "production_total"
	MetricCollectionRate       Metric = "collection_rate"
	MetricNewPatients          Metric = "new_patients"
	MetricCaseAcceptance       Metric = "case_acceptance"
	MetricHygieneReappointment Metric = "hygiene_reappointment"
)

// AllMetrics lists every KPI in presentation order.
var AllMetrics = []Metric{
	MetricProductionTotal,
	MetricCollectionRate,
	MetricNewPatients,
	MetricCaseAcceptance,
	MetricHygieneReappointment,
}

// Valid reports whether m names a known metric.
func (m Metric) Valid() bool {
	switch m {
	case MetricProductionTotal, MetricCollectionRate, MetricNewPatients,
		MetricCaseAcceptance, MetricHygieneReappointment:
		return true
	}
	return false
}

// DataType declares how a metric's values are formatted for presentation.
type DataType string

const (
	DataTypeCurrency   DataType = "currency"
	DataTypePercentage DataType = "percentage"
	DataTypeCount      DataType = "count"
)

// DataTypeOf returns the presentation data type for a metric.
func DataTypeOf(m Metric) DataType {
	switch m {
	case MetricProductionTotal:
		return DataTypeCurrency
	case MetricNewPatients:
		return DataTypeCount
	default:
		return DataTypePercentage
	}
}

// Rate reports whether the metric is a ratio. Rate metrics combine across
// locations by denominator-weighted average and aggregate across days by
// recomputing the ratio from summed components; absolute metrics sum.
func (m Metric) Rate() bool {
	switch m {
	case MetricCollectionRate, MetricCaseAcceptance, MetricHygieneReappointment:
		return true
	}
	return false
}

// Reason explains why a KPIValue is unavailable.
type Reason string

const (
	ReasonMissingInput    Reason = "missing_input"
	ReasonZeroDenominator Reason = "zero_denominator"
	ReasonNoData          Reason = "no_data"
	ReasonSourceFailure   Reason = "source_failure"
	ReasonTimeout         Reason = "timeout"
)

// KPIValue is one computed indicator. Available is false exactly when Value
// carries no meaning; Reason is set only in that case. Unavailability is a
// data condition, not an error.
type KPIValue struct {
	Value     float64 `json:"value"`
	Available bool    `json:"available"`
	Reason    Reason  `json:"reason,omitempty"`
}

// Available wraps v as an available KPIValue.
func Available(v float64) KPIValue {
	return KPIValue{Value: v, Available: true}
}

// Unavailable returns an unavailable KPIValue carrying the reason.
func Unavailable(r Reason) KPIValue {
	return KPIValue{Available: false, Reason: r}
}

// Severity grades a ValidationIssue.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// ValidationIssue is an advisory data-quality flag attached to a computed
// value. Issues never alter or suppress the value they describe.
type ValidationIssue struct {
	Severity Severity `json:"severity"`
	Metric   Metric   `json:"metric"`
	Message  string   `json:"message"`
}

// KPIResponse bundles the five KPI slots for one location (or a combined
// view) on one reporting day. DataDate is the calendar day the values
// describe, which on a non-operational day differs from the wall clock.
type KPIResponse struct {
	ID          string    `json:"id"`
	Location    string    `json:"location" validate:"required"`
	DataDate    time.Time `json:"data_date"`
	GeneratedAt time.Time `json:"generated_at"`

	ProductionTotal      KPIValue `json:"production_total"`
	CollectionRate       KPIValue `json:"collection_rate"`
	NewPatients          KPIValue `json:"new_patients"`
	CaseAcceptance       KPIValue `json:"case_acceptance"`
	HygieneReappointment KPIValue `json:"hygiene_reappointment"`

	Issues []ValidationIssue `json:"issues,omitempty"`
}

// Get returns the slot for the named metric.
func (r *KPIResponse) Get(m Metric) KPIValue {
	switch m {
	case MetricProductionTotal:
		return r.ProductionTotal
	case MetricCollectionRate:
		return r.CollectionRate
	case MetricNewPatients:
		return r.NewPatients
	case MetricCaseAcceptance:
		return r.CaseAcceptance
	case MetricHygieneReappointment:
		return r.HygieneReappointment
	}
	return Unavailable(ReasonNoData)
}

// Set stores v into the slot for the named metric.
func (r *KPIResponse) Set(m Metric, v KPIValue) {
	switch m {
	case MetricProductionTotal:
		r.ProductionTotal = v
	case MetricCollectionRate:
		r.CollectionRate = v
	case MetricNewPatients:
		r.NewPatients = v
	case MetricCaseAcceptance:
		r.CaseAcceptance = v
	case MetricHygieneReappointment:
		r.HygieneReappointment = v
	}
}
