package timeseries

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"practicepulse/internal/calendar"
	"practicepulse/internal/pipeline"
	"practicepulse/pkg/contracts/domain"
)

// ErrAlreadyAggregated is returned when the input series is not daily.
// Re-aggregating a rollup is a caller bug, not a data condition.
var ErrAlreadyAggregated = errors.New("timeseries: input series is not daily")

// ErrInvalidLevel is returned for a target level the aggregator cannot
// produce.
var ErrInvalidLevel = errors.New("timeseries: invalid target aggregation level")

// Aggregator re-buckets daily series into weekly or monthly rollups. The
// input series is never modified; aggregation is a pure transform.
type Aggregator struct {
	calendar      *calendar.Calendar
	logger        *slog.Logger
	trendDeadband float64
}

// NewAggregator builds an aggregator sharing the builder's trend deadband
// semantics.
func NewAggregator(cal *calendar.Calendar, logger *slog.Logger, trendDeadband float64) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if trendDeadband <= 0 {
		trendDeadband = DefaultTrendDeadband
	}
	return &Aggregator{
		calendar:      cal,
		logger:        logger.With(slog.String("component", "aggregator")),
		trendDeadband: trendDeadband,
	}
}

// AggregateOptions tunes one aggregation pass.
type AggregateOptions struct {
	// BusinessDaysOnly excludes days that fail the business calendar before
	// summation, so closed-day zero rows cannot deflate a bucket.
	BusinessDaysOnly bool
}

// Aggregate produces a new series at the target level from a daily series.
// Absolute metrics sum their grouped daily values. Rate metrics recompute
// the ratio from summed numerator and denominator components taken from the
// source records; buckets whose summed denominator is zero are omitted.
func (a *Aggregator) Aggregate(
	daily *domain.TimeSeriesData,
	records []domain.NumericRecord,
	level domain.AggregationLevel,
	opts AggregateOptions,
) (*domain.TimeSeriesData, error) {
	if daily.AggregationLevel != domain.AggregationDaily {
		return nil, fmt.Errorf("%w: got %q", ErrAlreadyAggregated, daily.AggregationLevel)
	}
	if level != domain.AggregationWeekly && level != domain.AggregationMonthly {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLevel, level)
	}

	out := &domain.TimeSeriesData{
		MetricName:       daily.MetricName,
		Location:         daily.Location,
		ChartType:        daily.ChartType,
		DataType:         daily.DataType,
		AggregationLevel: level,
	}

	if daily.MetricName.Rate() {
		out.Points = a.aggregateRate(daily, records, level, opts)
	} else {
		out.Points = a.aggregateAbsolute(daily, level, opts)
	}

	sort.Slice(out.Points, func(i, j int) bool { return out.Points[i].Date.Before(out.Points[j].Date) })
	out.Statistics = ComputeStatistics(out.Points, a.trendDeadband)

	a.logger.Debug("aggregated series",
		slog.String("metric", string(daily.MetricName)),
		slog.String("level", string(level)),
		slog.Int("daily_points", len(daily.Points)),
		slog.Int("points", len(out.Points)))

	return out, nil
}

// aggregateAbsolute sums the grouped daily point values.
func (a *Aggregator) aggregateAbsolute(daily *domain.TimeSeriesData, level domain.AggregationLevel, opts AggregateOptions) []domain.ChartDataPoint {
	sums := make(map[time.Time]float64)
	for _, p := range daily.Points {
		if opts.BusinessDaysOnly && !a.calendar.IsBusinessDay(p.Date, daily.Location) {
			continue
		}
		sums[bucketStart(p.Date, level)] += p.Value
	}

	points := make([]domain.ChartDataPoint, 0, len(sums))
	for start, sum := range sums {
		points = append(points, domain.ChartDataPoint{
			Date:           start,
			Value:          sum,
			FormattedValue: FormatValue(daily.DataType, sum),
		})
	}
	return points
}

// aggregateRate recomputes each bucket's ratio from summed components. A
// record contributes only when its denominator is present; zero-denominator
// days therefore drop out instead of dragging the bucket toward zero.
func (a *Aggregator) aggregateRate(daily *domain.TimeSeriesData, records []domain.NumericRecord, level domain.AggregationLevel, opts AggregateOptions) []domain.ChartDataPoint {
	type bucket struct {
		num float64
		den float64
	}
	buckets := make(map[time.Time]*bucket)

	for _, rec := range records {
		if opts.BusinessDaysOnly && !a.calendar.IsBusinessDay(rec.Date, daily.Location) {
			continue
		}
		num, den := pipeline.RateComponents(daily.MetricName, rec)
		if !num.Present || !den.Present {
			continue
		}
		start := bucketStart(rec.Date, level)
		b, ok := buckets[start]
		if !ok {
			b = &bucket{}
			buckets[start] = b
		}
		b.num += num.Value
		b.den += den.Value
	}

	points := make([]domain.ChartDataPoint, 0, len(buckets))
	for start, b := range buckets {
		if b.den == 0 {
			continue
		}
		v := b.num / b.den * 100
		points = append(points, domain.ChartDataPoint{
			Date:           start,
			Value:          v,
			FormattedValue: FormatValue(daily.DataType, v),
		})
	}
	return points
}

// bucketStart maps a date onto its bucket's first day: the Monday of the
// ISO week, or the first of the calendar month.
func bucketStart(date time.Time, level domain.AggregationLevel) time.Time {
	switch level {
	case domain.AggregationWeekly:
		offset := (int(date.Weekday()) + 6) % 7 // Monday-based weekday index
		return time.Date(date.Year(), date.Month(), date.Day()-offset, 0, 0, 0, 0, time.UTC)
	case domain.AggregationMonthly:
		return time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return date
}
