// Package timeseries builds date-ordered chart series with summary
// statistics and re-buckets daily series into weekly or monthly rollups.
package timeseries

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"practicepulse/internal/pipeline"
	"practicepulse/pkg/contracts/domain"
)

// DefaultTrendDeadband is the relative deadband for trend classification:
// first-third and last-third means within 5% of each other are stable.
const DefaultTrendDeadband = 0.05

// Builder assembles daily TimeSeriesData from numeric records.
type Builder struct {
	logger        *slog.Logger
	trendDeadband float64
}

// NewBuilder builds a series builder. A non-positive deadband falls back to
// DefaultTrendDeadband; a nil logger to slog.Default.
func NewBuilder(logger *slog.Logger, trendDeadband float64) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	if trendDeadband <= 0 {
		trendDeadband = DefaultTrendDeadband
	}
	return &Builder{
		logger:        logger.With(slog.String("component", "series_builder")),
		trendDeadband: trendDeadband,
	}
}

// Build produces the daily series for one metric over the given records.
// Days whose formula reports unavailable are omitted entirely; charts show
// real gaps rather than synthesized zeros.
func (b *Builder) Build(location string, metric domain.Metric, records []domain.NumericRecord) *domain.TimeSeriesData {
	sorted := make([]domain.NumericRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	dataType := domain.DataTypeOf(metric)
	series := &domain.TimeSeriesData{
		MetricName:       metric,
		Location:         location,
		ChartType:        chartTypeOf(metric),
		DataType:         dataType,
		AggregationLevel: domain.AggregationDaily,
	}

	var prev *domain.NumericRecord
	for i := range sorted {
		rec := sorted[i]
		v := pipeline.Calculate(metric, rec, prev)
		prev = &sorted[i]
		if !v.Available {
			continue
		}
		series.Points = append(series.Points, domain.ChartDataPoint{
			Date:           rec.Date,
			Value:          v.Value,
			FormattedValue: FormatValue(dataType, v.Value),
		})
	}

	series.Statistics = ComputeStatistics(series.Points, b.trendDeadband)

	b.logger.Debug("built daily series",
		slog.String("location", location),
		slog.String("metric", string(metric)),
		slog.Int("records", len(records)),
		slog.Int("points", len(series.Points)))

	return series
}

// BuildAll produces the daily series for every metric.
func (b *Builder) BuildAll(location string, records []domain.NumericRecord) map[domain.Metric]*domain.TimeSeriesData {
	out := make(map[domain.Metric]*domain.TimeSeriesData, len(domain.AllMetrics))
	for _, m := range domain.AllMetrics {
		out[m] = b.Build(location, m, records)
	}
	return out
}

func chartTypeOf(metric domain.Metric) domain.ChartType {
	if metric.Rate() {
		return domain.ChartLine
	}
	return domain.ChartBar
}

// FormatValue renders a numeric value per the metric's data type: currency
// with symbol and thousands separators, whole-number percentages with one
// decimal, counts as integers.
func FormatValue(dataType domain.DataType, v float64) string {
	switch dataType {
	case domain.DataTypeCurrency:
		if v < 0 {
			return "-$" + groupThousands(fmt.Sprintf("%.2f", -v))
		}
		return "$" + groupThousands(fmt.Sprintf("%.2f", v))
	case domain.DataTypePercentage:
		return fmt.Sprintf("%.1f%%", v)
	default:
		return strconv.FormatInt(int64(math.Round(v)), 10)
	}
}

// groupThousands inserts comma separators into the integer part of a
// formatted decimal.
func groupThousands(s string) string {
	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i:]
	}
	if len(intPart) <= 3 {
		return intPart + fracPart
	}
	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return b.String() + fracPart
}

// ComputeStatistics summarizes a point list. Empty input yields the zero
// Statistics with a stable trend.
func ComputeStatistics(points []domain.ChartDataPoint, trendDeadband float64) domain.Statistics {
	if len(points) == 0 {
		return domain.Statistics{Trend: domain.TrendStable}
	}

	values := make([]float64, len(points))
	sum := 0.0
	min := points[0].Value
	max := points[0].Value
	for i, p := range points {
		values[i] = p.Value
		sum += p.Value
		if p.Value < min {
			min = p.Value
		}
		if p.Value > max {
			max = p.Value
		}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	var median float64
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		median = sorted[mid]
	}

	return domain.Statistics{
		Mean:   sum / float64(len(values)),
		Median: median,
		Min:    min,
		Max:    max,
		Trend:  classifyTrend(values, trendDeadband),
	}
}

// classifyTrend compares the mean of the first third of values to the mean
// of the last third. Differences inside the relative deadband are stable,
// so day-to-day noise does not flip the direction.
func classifyTrend(values []float64, deadband float64) domain.Trend {
	if len(values) < 3 {
		return domain.TrendStable
	}

	third := len(values) / 3
	first := mean(values[:third])
	last := mean(values[len(values)-third:])

	scale := math.Abs(first)
	if scale == 0 {
		scale = math.Abs(last)
	}
	if scale == 0 {
		return domain.TrendStable
	}

	diff := (last - first) / scale
	switch {
	case diff > deadband:
		return domain.TrendIncreasing
	case diff < -deadband:
		return domain.TrendDecreasing
	default:
		return domain.TrendStable
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
