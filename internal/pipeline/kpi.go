package pipeline

import (
	"practicepulse/pkg/contracts/domain"
)

// ProductionTotal is gross production plus adjustments and write-offs.
// Adjustments and write-offs are typically negative on the form, so the sum
// is net production. Only a missing production figure makes the result
// unavailable; missing adjustments or write-offs count as zero.
func ProductionTotal(rec domain.NumericRecord) domain.KPIValue {
	if !rec.Production.Present {
		return domain.Unavailable(domain.ReasonMissingInput)
	}
	return domain.Available(rec.Production.Value + rec.Adjustments.Or(0) + rec.WriteOffs.Or(0))
}

// AdjustedProduction is gross production minus absolute adjustments and
// write-offs: the denominator for collection rate. Absent when production is
// absent.
func AdjustedProduction(rec domain.NumericRecord) domain.Field {
	if !rec.Production.Present {
		return domain.None()
	}
	return domain.Some(rec.Production.Value - rec.Adjustments.Abs().Or(0) - rec.WriteOffs.Abs().Or(0))
}

// Collections is patient plus insurance plus unearned income. Absent income
// components count as zero so a partially filled form still produces a rate.
func Collections(rec domain.NumericRecord) domain.Field {
	return domain.Some(rec.PatientIncome.Or(0) + rec.InsuranceIncome.Or(0) + rec.UnearnedIncome.Or(0))
}

// CollectionRate is collections over adjusted production, as a percent.
func CollectionRate(rec domain.NumericRecord) domain.KPIValue {
	adjusted := AdjustedProduction(rec)
	if !adjusted.Present {
		return domain.Unavailable(domain.ReasonMissingInput)
	}
	if adjusted.Value == 0 {
		return domain.Unavailable(domain.ReasonZeroDenominator)
	}
	return domain.Available(Collections(rec).Value / adjusted.Value * 100)
}

// NewPatients derives the daily new-patient count from the month-to-date
// cumulative figure. The daily value is the forward difference against the
// prior operational day. When the cumulative drops (the form resets at month
// start) the raw cumulative itself is the daily value; the first record of a
// series is handled the same way. Negative differences never survive.
func NewPatients(rec domain.NumericRecord, prev *domain.NumericRecord) domain.KPIValue {
	if !rec.NewPatientsMTD.Present {
		return domain.Unavailable(domain.ReasonMissingInput)
	}
	cur := rec.NewPatientsMTD.Value
	if prev == nil || !prev.NewPatientsMTD.Present {
		return domain.Available(cur)
	}
	delta := cur - prev.NewPatientsMTD.Value
	if delta < 0 {
		// Month rollover: the cumulative restarted below the prior value.
		return domain.Available(cur)
	}
	return domain.Available(delta)
}

// CaseAcceptance is scheduled plus same-day treatment dollars over presented
// dollars, as a percent. Same-day treatment can legitimately push the ratio
// past 100%; it is not clamped.
func CaseAcceptance(rec domain.NumericRecord) domain.KPIValue {
	if !rec.PresentedDollars.Present {
		return domain.Unavailable(domain.ReasonMissingInput)
	}
	if rec.PresentedDollars.Value == 0 {
		return domain.Unavailable(domain.ReasonZeroDenominator)
	}
	accepted := rec.ScheduledDollars.Or(0) + rec.SameDayDollars.Or(0)
	return domain.Available(accepted / rec.PresentedDollars.Value * 100)
}

// HygieneReappointment is the share of hygiene appointments that left with a
// next appointment on the books, as a percent.
func HygieneReappointment(rec domain.NumericRecord) domain.KPIValue {
	if !rec.TotalHygiene.Present {
		return domain.Unavailable(domain.ReasonMissingInput)
	}
	if rec.TotalHygiene.Value == 0 {
		return domain.Unavailable(domain.ReasonZeroDenominator)
	}
	reappointed := rec.TotalHygiene.Value - rec.HygieneNotReappointed.Or(0)
	return domain.Available(reappointed / rec.TotalHygiene.Value * 100)
}

// Calculate dispatches to the metric's formula. prev is the prior
// operational day's record, needed only for new patients; nil is valid.
func Calculate(m domain.Metric, rec domain.NumericRecord, prev *domain.NumericRecord) domain.KPIValue {
	switch m {
	case domain.MetricProductionTotal:
		return ProductionTotal(rec)
	case domain.MetricCollectionRate:
		return CollectionRate(rec)
	case domain.MetricNewPatients:
		return NewPatients(rec, prev)
	case domain.MetricCaseAcceptance:
		return CaseAcceptance(rec)
	case domain.MetricHygieneReappointment:
		return HygieneReappointment(rec)
	}
	return domain.Unavailable(domain.ReasonNoData)
}

// RateComponents returns the numerator and denominator underlying a rate
// metric for one record. Aggregation and multi-location combination recompute
// ratios from summed components instead of averaging daily percentages, so
// zero-denominator days drop out instead of skewing the result.
func RateComponents(m domain.Metric, rec domain.NumericRecord) (num, den domain.Field) {
	switch m {
	case domain.MetricCollectionRate:
		adjusted := AdjustedProduction(rec)
		if !adjusted.Present {
			return domain.None(), domain.None()
		}
		return Collections(rec), adjusted
	case domain.MetricCaseAcceptance:
		if !rec.PresentedDollars.Present {
			return domain.None(), domain.None()
		}
		return domain.Some(rec.ScheduledDollars.Or(0) + rec.SameDayDollars.Or(0)), rec.PresentedDollars
	case domain.MetricHygieneReappointment:
		if !rec.TotalHygiene.Present {
			return domain.None(), domain.None()
		}
		return domain.Some(rec.TotalHygiene.Value - rec.HygieneNotReappointed.Or(0)), rec.TotalHygiene
	}
	return domain.None(), domain.None()
}

// CalculateAll computes every KPI slot for the record, filling resp in
// place. Individual formulas fail independently, so partially filled forms
// yield partial results.
func CalculateAll(resp *domain.KPIResponse, rec domain.NumericRecord, prev *domain.NumericRecord) {
	for _, m := range domain.AllMetrics {
		resp.Set(m, Calculate(m, rec, prev))
	}
}
