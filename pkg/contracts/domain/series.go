package domain

import (
	"time"
)

// AggregationLevel is the time resolution of a series.
type AggregationLevel string

const (
	AggregationDaily   AggregationLevel = "daily"
	AggregationWeekly  AggregationLevel = "weekly"
	AggregationMonthly AggregationLevel = "monthly"
)

// Valid reports whether l names a known level.
func (l AggregationLevel) Valid() bool {
	switch l {
	case AggregationDaily, AggregationWeekly, AggregationMonthly:
		return true
	}
	return false
}

// ChartType hints how the series should be drawn.
type ChartType string

const (
	ChartLine ChartType = "line"
	ChartBar  ChartType = "bar"
)

// Trend is the three-way direction classification of a series.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// ChartDataPoint is one plotted value. FormattedValue is the
// presentation-ready rendering per the metric's data type.
type ChartDataPoint struct {
	Date           time.Time `json:"date"`
	Value          float64   `json:"value"`
	FormattedValue string    `json:"formatted_value"`
}

// Statistics summarizes a point list. It is recomputed whenever the point
// list changes, in particular after aggregation.
type Statistics struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Trend  Trend   `json:"trend"`
}

// TimeSeriesData is a date-ordered series for one metric. Points are sorted
// ascending with no duplicate dates, and AggregationLevel always matches how
// the points were actually produced.
type TimeSeriesData struct {
	MetricName       Metric           `json:"metric_name" validate:"required"`
	Location         string           `json:"location"`
	ChartType        ChartType        `json:"chart_type"`
	DataType         DataType         `json:"data_type"`
	AggregationLevel AggregationLevel `json:"aggregation_level" validate:"required,oneof=daily weekly monthly"`
	Points           []ChartDataPoint `json:"points"`
	Statistics       Statistics       `json:"statistics"`
}

// ChartCollection is the full chart bundle for one location: one series per
// metric plus collection-level metadata.
type ChartCollection struct {
	Location    string                     `json:"location"`
	Timeframe   AggregationLevel           `json:"timeframe"`
	GeneratedAt time.Time                  `json:"generated_at"`
	Series      map[Metric]*TimeSeriesData `json:"series"`
	// Availability marks which metrics produced at least one point.
	Availability map[Metric]bool `json:"availability"`
}
