package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"practicepulse/pkg/contracts/domain"
)

func TestCollectionRateThresholdsIsValid(t *testing.T) {
	assert.True(t, DefaultCollectionRateThresholds().IsValid())
	assert.False(t, CollectionRateThresholds{}.IsValid())
	assert.False(t, CollectionRateThresholds{Anomaly: 50, Critical: 90, BelowAverage: 98, Excellent: 200}.IsValid())
}

func TestRulesEvaluate(t *testing.T) {
	rules := NewRules(DefaultCollectionRateThresholds())

	tests := []struct {
		name         string
		rate         domain.KPIValue
		wantIssues   int
		wantSeverity domain.Severity
	}{
		{"anomaly above 200", domain.Available(250), 1, domain.SeverityWarning},
		{"critical below 50", domain.Available(42), 1, domain.SeverityCritical},
		{"below average band", domain.Available(75), 1, domain.SeverityWarning},
		{"average band is quiet", domain.Available(95), 0, ""},
		{"excellent", domain.Available(99.2), 1, domain.SeverityInfo},
		{"exactly 100", domain.Available(100), 1, domain.SeverityInfo},
		{"unavailable produces nothing", domain.Unavailable(domain.ReasonZeroDenominator), 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &domain.KPIResponse{Location: "midtown", CollectionRate: tt.rate}
			issues := rules.Evaluate(resp)
			require.Len(t, issues, tt.wantIssues)
			if tt.wantIssues > 0 {
				assert.Equal(t, tt.wantSeverity, issues[0].Severity)
				assert.Equal(t, domain.MetricCollectionRate, issues[0].Metric)
			}
		})
	}
}

func TestRulesNeverMutateValues(t *testing.T) {
	rules := NewRules(DefaultCollectionRateThresholds())
	resp := &domain.KPIResponse{Location: "midtown", CollectionRate: domain.Available(250)}

	_ = rules.Evaluate(resp)

	assert.True(t, resp.CollectionRate.Available)
	assert.InDelta(t, 250, resp.CollectionRate.Value, 1e-9)
}

func TestNewRulesFallsBackOnInvalidThresholds(t *testing.T) {
	rules := NewRules(CollectionRateThresholds{Anomaly: -1})
	resp := &domain.KPIResponse{CollectionRate: domain.Available(250)}
	issues := rules.Evaluate(resp)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "check data entry")
}
