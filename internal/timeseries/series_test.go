package timeseries

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"practicepulse/internal/pipeline"
	"practicepulse/pkg/contracts/domain"
)

func day(d int) time.Time {
	return time.Date(2025, time.June, d, 0, 0, 0, 0, time.UTC)
}

func productionRecord(d int, production float64) domain.NumericRecord {
	return domain.NumericRecord{
		Location:   "midtown",
		Date:       day(d),
		Production: domain.Some(production),
	}
}

func TestBuildOrdersPointsAndSkipsGaps(t *testing.T) {
	b := NewBuilder(nil, 0)

	records := []domain.NumericRecord{
		productionRecord(13, 5000),
		{Location: "midtown", Date: day(12)}, // production absent: must be a gap
		productionRecord(10, 4000),
	}

	series := b.Build("midtown", domain.MetricProductionTotal, records)

	require.Len(t, series.Points, 2, "absent days are omitted, not zero-filled")
	assert.Equal(t, domain.AggregationDaily, series.AggregationLevel)
	assert.Equal(t, day(10), series.Points[0].Date)
	assert.Equal(t, day(13), series.Points[1].Date)
	assert.InDelta(t, 4000, series.Points[0].Value, 1e-9)
}

func TestBuildNewPatientsUsesPriorRecord(t *testing.T) {
	b := NewBuilder(nil, 0)

	records := []domain.NumericRecord{
		{Location: "midtown", Date: day(10), NewPatientsMTD: domain.Some(52)},
		{Location: "midtown", Date: day(11), NewPatientsMTD: domain.Some(55)},
		{Location: "midtown", Date: day(12), NewPatientsMTD: domain.Some(60)},
	}

	series := b.Build("midtown", domain.MetricNewPatients, records)

	require.Len(t, series.Points, 3)
	assert.InDelta(t, 52, series.Points[0].Value, 1e-9)
	assert.InDelta(t, 3, series.Points[1].Value, 1e-9)
	assert.InDelta(t, 5, series.Points[2].Value, 1e-9)
}

func TestBuildAllCoversEveryMetric(t *testing.T) {
	b := NewBuilder(nil, 0)
	all := b.BuildAll("midtown", []domain.NumericRecord{productionRecord(13, 5000)})

	require.Len(t, all, len(domain.AllMetrics))
	for _, m := range domain.AllMetrics {
		require.NotNil(t, all[m], "metric %s", m)
		assert.Equal(t, m, all[m].MetricName)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		dataType domain.DataType
		value    float64
		want     string
	}{
		{domain.DataTypeCurrency, 1234.5, "$1,234.50"},
		{domain.DataTypeCurrency, 1234567.89, "$1,234,567.89"},
		{domain.DataTypeCurrency, -500, "-$500.00"},
		{domain.DataTypeCurrency, 0, "$0.00"},
		{domain.DataTypePercentage, 98.25, "98.2%"},
		{domain.DataTypePercentage, 140, "140.0%"},
		{domain.DataTypeCount, 12, "12"},
		{domain.DataTypeCount, 12.4, "12"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(tt.dataType, tt.value))
		})
	}
}

func TestFormatValueRoundTrip(t *testing.T) {
	// Formatted currency and percent values must re-parse to the original
	// within rounding tolerance.
	for _, v := range []float64{0, 42.5, 999.99, 1234.56, 1234567.89, -750.25} {
		formatted := FormatValue(domain.DataTypeCurrency, v)
		parsed := pipeline.ParseCurrency(formatted)
		require.True(t, parsed.Present, "formatted=%q", formatted)
		assert.InDelta(t, v, parsed.Value, 0.005, "formatted=%q", formatted)
	}

	for _, v := range []float64{0, 50, 98.3, 140.7} {
		formatted := FormatValue(domain.DataTypePercentage, v)
		parsed := pipeline.ParsePercent(formatted)
		require.True(t, parsed.Present, "formatted=%q", formatted)
		assert.InDelta(t, v, parsed.Value, 0.05, "formatted=%q", formatted)
	}
}

func TestComputeStatistics(t *testing.T) {
	points := []domain.ChartDataPoint{
		{Date: day(10), Value: 10},
		{Date: day(11), Value: 20},
		{Date: day(12), Value: 30},
		{Date: day(13), Value: 40},
	}

	stats := ComputeStatistics(points, DefaultTrendDeadband)
	assert.InDelta(t, 25, stats.Mean, 1e-9)
	assert.InDelta(t, 25, stats.Median, 1e-9)
	assert.InDelta(t, 10, stats.Min, 1e-9)
	assert.InDelta(t, 40, stats.Max, 1e-9)
	assert.Equal(t, domain.TrendIncreasing, stats.Trend)
}

func TestComputeStatisticsEmpty(t *testing.T) {
	stats := ComputeStatistics(nil, DefaultTrendDeadband)
	assert.Equal(t, domain.TrendStable, stats.Trend)
	assert.Zero(t, stats.Mean)
}

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   domain.Trend
	}{
		{"increasing", []float64{10, 12, 14, 18, 22, 26}, domain.TrendIncreasing},
		{"decreasing", []float64{26, 22, 18, 14, 12, 10}, domain.TrendDecreasing},
		{"flat", []float64{100, 100, 100, 100, 100, 100}, domain.TrendStable},
		{"noise within deadband", []float64{100, 102, 99, 101, 100, 103}, domain.TrendStable},
		{"too few points", []float64{5, 500}, domain.TrendStable},
		{"all zeros", []float64{0, 0, 0, 0}, domain.TrendStable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyTrend(tt.values, DefaultTrendDeadband))
		})
	}
}

func TestClassifyTrendDeadbandConfigurable(t *testing.T) {
	values := []float64{100, 100, 110, 110}
	assert.Equal(t, domain.TrendIncreasing, classifyTrend(values, 0.05))
	assert.Equal(t, domain.TrendStable, classifyTrend(values, 0.25))
}
