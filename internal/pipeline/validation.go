package pipeline

import (
	"fmt"

	"practicepulse/pkg/contracts/domain"
)

// CollectionRateThresholds holds the band edges for collection-rate quality
// flags, in whole percentage points. Kept as data rather than inline
// constants so locations can tune them later.
type CollectionRateThresholds struct {
	Anomaly      float64 `yaml:"anomaly" json:"anomaly"`
	Critical     float64 `yaml:"critical" json:"critical"`
	BelowAverage float64 `yaml:"below_average" json:"below_average"`
	Excellent    float64 `yaml:"excellent" json:"excellent"`
}

// DefaultCollectionRateThresholds returns the stock bands: above 200% is a
// data-entry anomaly, below 50% is critical, 50-90% below average, 98% and
// up excellent.
func DefaultCollectionRateThresholds() CollectionRateThresholds {
	return CollectionRateThresholds{
		Anomaly:      200,
		Critical:     50,
		BelowAverage: 90,
		Excellent:    98,
	}
}

// IsValid reports whether the band edges are ordered sensibly.
func (t CollectionRateThresholds) IsValid() bool {
	return t.Critical > 0 &&
		t.Critical < t.BelowAverage &&
		t.BelowAverage < t.Excellent &&
		t.Excellent < t.Anomaly
}

// Rules evaluates post-hoc quality flags over a computed KPIResponse. Flags
// are advisory: they never change a value or its availability.
type Rules struct {
	collectionRate CollectionRateThresholds
}

// NewRules builds a rule set. Invalid thresholds fall back to the defaults.
func NewRules(collectionRate CollectionRateThresholds) *Rules {
	if !collectionRate.IsValid() {
		collectionRate = DefaultCollectionRateThresholds()
	}
	return &Rules{collectionRate: collectionRate}
}

// Evaluate returns the quality issues for the response. Unavailable slots
// produce no issues; absence already carries its own reason.
func (r *Rules) Evaluate(resp *domain.KPIResponse) []domain.ValidationIssue {
	var issues []domain.ValidationIssue

	if cr := resp.CollectionRate; cr.Available {
		t := r.collectionRate
		switch {
		case cr.Value > t.Anomaly:
			issues = append(issues, domain.ValidationIssue{
				Severity: domain.SeverityWarning,
				Metric:   domain.MetricCollectionRate,
				Message:  fmt.Sprintf("collection rate %.1f%% exceeds %.0f%%, check data entry", cr.Value, t.Anomaly),
			})
		case cr.Value < t.Critical:
			issues = append(issues, domain.ValidationIssue{
				Severity: domain.SeverityCritical,
				Metric:   domain.MetricCollectionRate,
				Message:  fmt.Sprintf("collection rate %.1f%% is critically low", cr.Value),
			})
		case cr.Value <= t.BelowAverage:
			issues = append(issues, domain.ValidationIssue{
				Severity: domain.SeverityWarning,
				Metric:   domain.MetricCollectionRate,
				Message:  fmt.Sprintf("collection rate %.1f%% is below average", cr.Value),
			})
		case cr.Value >= t.Excellent:
			issues = append(issues, domain.ValidationIssue{
				Severity: domain.SeverityInfo,
				Metric:   domain.MetricCollectionRate,
				Message:  fmt.Sprintf("collection rate %.1f%% is excellent", cr.Value),
			})
		}
	}

	return issues
}
