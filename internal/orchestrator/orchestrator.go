// Package orchestrator runs the full KPI pipeline per configured location
// and merges results for multi-location views. It is the boundary that
// converts collaborator failures into per-location unavailability.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"practicepulse/internal/calendar"
	"practicepulse/internal/config"
	apperrors "practicepulse/internal/errors"
	"practicepulse/internal/metrics"
	"practicepulse/internal/pipeline"
	"practicepulse/internal/source"
	"practicepulse/internal/timeseries"
	"practicepulse/pkg/contracts/domain"
)

// CombinedLocation is the location name on merged multi-location responses.
const CombinedLocation = "combined"

// ErrUnknownLocation is returned when a requested location is not
// configured.
var ErrUnknownLocation = errors.New("orchestrator: unknown location")

// Orchestrator fans out the pipeline per location and merges results.
type Orchestrator struct {
	cfg        *config.Config
	src        source.DataSource
	cal        *calendar.Calendar
	builder    *timeseries.Builder
	aggregator *timeseries.Aggregator
	logger     *slog.Logger
	metrics    *metrics.Metrics

	now func() time.Time
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New builds an orchestrator over the given source. A nil logger falls back
// to slog.Default.
func New(cfg *config.Config, src source.DataSource, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	cal := cfg.Calendar()
	o := &Orchestrator{
		cfg:        cfg,
		src:        src,
		cal:        cal,
		builder:    timeseries.NewBuilder(logger, cfg.Pipeline.TrendDeadband),
		aggregator: timeseries.NewAggregator(cal, logger, cfg.Pipeline.TrendDeadband),
		logger:     logger.With(slog.String("component", "orchestrator")),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// locationResult is one location's pipeline output. The current and prior
// records ride along so combined views can re-derive rate components.
type locationResult struct {
	resp *domain.KPIResponse
	rec  *domain.NumericRecord
	prev *domain.NumericRecord
}

// GetKPIs computes the five KPIs for one location's current operational
// day. Fetch failures and timeouts degrade to an all-unavailable response;
// only an unconfigured location is an error.
func (o *Orchestrator) GetKPIs(ctx context.Context, location string) (*domain.KPIResponse, error) {
	result, err := o.runLocation(ctx, location)
	if err != nil {
		return nil, err
	}
	return result.resp, nil
}

// runLocation executes fetch → transform → calculate → validate for one
// location under the configured per-location timeout.
func (o *Orchestrator) runLocation(ctx context.Context, location string) (*locationResult, error) {
	loc, ok := o.cfg.Location(location)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLocation, location)
	}

	start := o.now()
	fetchCtx, cancel := context.WithTimeout(ctx, o.cfg.Pipeline.FetchTimeout)
	defer cancel()

	snapshot, err := o.src.Fetch(fetchCtx, loc.Alias)
	if err != nil {
		reason := domain.ReasonSourceFailure
		kind := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = domain.ReasonTimeout
			kind = "timeout"
		}
		o.logger.WarnContext(ctx, "source fetch failed",
			slog.String("location", location),
			slog.String("alias", loc.Alias),
			slog.String("error", err.Error()))
		o.metrics.CountFetchFailure(loc.Alias, kind)
		o.metrics.ObservePipeline(location, "fetch_failed", o.now().Sub(start))
		return &locationResult{resp: o.unavailableResponse(location, reason)}, nil
	}

	transformer := pipeline.NewTransformer(o.cal, o.logger)
	transformer.SetBusinessDaysOnly(o.cfg.Pipeline.BusinessDaysOnly)
	records := transformer.Transform(location, snapshot)
	if len(records) == 0 {
		o.metrics.ObservePipeline(location, "no_data", o.now().Sub(start))
		return &locationResult{resp: o.unavailableResponse(location, domain.ReasonNoData)}, nil
	}

	cutoff := o.cal.LatestBusinessDay(o.today(), location)
	rec, ok := pipeline.LatestRecord(records, cutoff)
	if !ok {
		o.metrics.ObservePipeline(location, "no_data", o.now().Sub(start))
		return &locationResult{resp: o.unavailableResponse(location, domain.ReasonNoData)}, nil
	}
	prev := priorRecord(records, rec.Date)

	resp := &domain.KPIResponse{
		ID:          uuid.NewString(),
		Location:    location,
		DataDate:    rec.Date,
		GeneratedAt: o.now(),
	}
	pipeline.CalculateAll(resp, rec, prev)
	resp.Issues = pipeline.NewRules(loc.Thresholds).Evaluate(resp)

	o.metrics.ObservePipeline(location, "ok", o.now().Sub(start))
	o.logger.InfoContext(ctx, "computed kpis",
		slog.String("location", location),
		slog.String("data_date", rec.Date.Format("2006-01-02")),
		slog.Int("issues", len(resp.Issues)))

	return &locationResult{resp: resp, rec: &rec, prev: prev}, nil
}

// GetCombinedKPIs merges per-location KPIs. Locations run concurrently;
// each carries its own timeout so one slow alias cannot stall the rest. An
// unavailable location is skipped with an advisory issue, never propagated
// as a fault.
func (o *Orchestrator) GetCombinedKPIs(ctx context.Context, locations []string) (*domain.KPIResponse, error) {
	if len(locations) == 0 {
		locations = o.cfg.LocationNames()
	}

	results := make([]*locationResult, len(locations))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, location := range locations {
		g.Go(func() error {
			result, err := o.runLocation(gctx, location)
			if err != nil {
				return err
			}
			mu.Lock()
			results[i] = result
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return o.combine(locations, results), nil
}

// combine merges location results metric by metric: sums for absolute
// metrics, denominator-weighted ratios for rate metrics.
func (o *Orchestrator) combine(locations []string, results []*locationResult) *domain.KPIResponse {
	combined := &domain.KPIResponse{
		ID:          uuid.NewString(),
		Location:    CombinedLocation,
		GeneratedAt: o.now(),
	}

	for i, result := range results {
		resp := result.resp
		if resp.DataDate.After(combined.DataDate) {
			combined.DataDate = resp.DataDate
		}
		if !anyAvailable(resp) {
			combined.Issues = append(combined.Issues, domain.ValidationIssue{
				Severity: domain.SeverityInfo,
				Message:  fmt.Sprintf("location %q data unavailable, excluded from combined view", locations[i]),
			})
		}
	}

	for _, m := range domain.AllMetrics {
		if m.Rate() {
			combined.Set(m, combineRate(m, results))
		} else {
			combined.Set(m, combineSum(m, results))
		}
	}
	return combined
}

func combineSum(m domain.Metric, results []*locationResult) domain.KPIValue {
	sum := 0.0
	n := 0
	for _, result := range results {
		v := result.resp.Get(m)
		if !v.Available {
			continue
		}
		sum += v.Value
		n++
	}
	if n == 0 {
		return domain.Unavailable(domain.ReasonNoData)
	}
	return domain.Available(sum)
}

// combineRate weights each location by its own denominator: summed
// numerators over summed denominators, not a flat average of percentages.
func combineRate(m domain.Metric, results []*locationResult) domain.KPIValue {
	num := 0.0
	den := 0.0
	n := 0
	for _, result := range results {
		if !result.resp.Get(m).Available || result.rec == nil {
			continue
		}
		rn, rd := pipeline.RateComponents(m, *result.rec)
		if !rn.Present || !rd.Present {
			continue
		}
		num += rn.Value
		den += rd.Value
		n++
	}
	if n == 0 {
		return domain.Unavailable(domain.ReasonNoData)
	}
	if den == 0 {
		return domain.Unavailable(domain.ReasonZeroDenominator)
	}
	return domain.Available(num / den * 100)
}

// GetChartData builds the series for one metric at the requested timeframe.
// Fetch failures yield an empty series; the caller sees a gap, not an error.
func (o *Orchestrator) GetChartData(ctx context.Context, location string, metric domain.Metric, timeframe domain.AggregationLevel) (*domain.TimeSeriesData, error) {
	if !metric.Valid() {
		return nil, apperrors.ContractError(fmt.Sprintf("unknown metric %q", metric), nil)
	}
	if !timeframe.Valid() {
		return nil, apperrors.ContractError(fmt.Sprintf("unknown timeframe %q", timeframe), nil)
	}

	records, err := o.historyRecords(ctx, location)
	if err != nil {
		return nil, err
	}

	daily := o.builder.Build(location, metric, records)
	if timeframe == domain.AggregationDaily {
		return daily, nil
	}

	return o.aggregator.Aggregate(daily, records, timeframe, timeseries.AggregateOptions{
		BusinessDaysOnly: o.cfg.Pipeline.BusinessDaysOnly,
	})
}

// GetAllChartData builds every metric's series for one location, with
// collection-level metadata.
func (o *Orchestrator) GetAllChartData(ctx context.Context, location string, timeframe domain.AggregationLevel) (*domain.ChartCollection, error) {
	if !timeframe.Valid() {
		return nil, apperrors.ContractError(fmt.Sprintf("unknown timeframe %q", timeframe), nil)
	}

	records, err := o.historyRecords(ctx, location)
	if err != nil {
		return nil, err
	}

	collection := &domain.ChartCollection{
		Location:     location,
		Timeframe:    timeframe,
		GeneratedAt:  o.now(),
		Series:       make(map[domain.Metric]*domain.TimeSeriesData, len(domain.AllMetrics)),
		Availability: make(map[domain.Metric]bool, len(domain.AllMetrics)),
	}

	for _, m := range domain.AllMetrics {
		daily := o.builder.Build(location, m, records)
		series := daily
		if timeframe != domain.AggregationDaily {
			series, err = o.aggregator.Aggregate(daily, records, timeframe, timeseries.AggregateOptions{
				BusinessDaysOnly: o.cfg.Pipeline.BusinessDaysOnly,
			})
			if err != nil {
				return nil, err
			}
		}
		collection.Series[m] = series
		collection.Availability[m] = len(series.Points) > 0
	}
	return collection, nil
}

// historyRecords fetches and transforms the location's history window,
// sorted ascending. Fetch failures return an empty slice.
func (o *Orchestrator) historyRecords(ctx context.Context, location string) ([]domain.NumericRecord, error) {
	loc, ok := o.cfg.Location(location)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLocation, location)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, o.cfg.Pipeline.FetchTimeout)
	defer cancel()

	snapshot, err := o.src.Fetch(fetchCtx, loc.Alias)
	if err != nil {
		o.logger.WarnContext(ctx, "source fetch failed for chart history",
			slog.String("location", location),
			slog.String("alias", loc.Alias),
			slog.String("error", err.Error()))
		o.metrics.CountFetchFailure(loc.Alias, "error")
		return nil, nil
	}

	transformer := pipeline.NewTransformer(o.cal, o.logger)
	transformer.SetBusinessDaysOnly(o.cfg.Pipeline.BusinessDaysOnly)
	all := pipeline.SortRecords(transformer.Transform(location, snapshot))

	from := o.today().AddDate(0, 0, -o.cfg.Pipeline.HistoryDays)
	records := all[:0:0]
	for _, rec := range all {
		if rec.Date.Before(from) {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// SourceAvailability probes every configured alias.
func (o *Orchestrator) SourceAvailability(ctx context.Context) map[string]bool {
	out := make(map[string]bool, len(o.cfg.Locations))
	for _, loc := range o.cfg.Locations {
		out[loc.Name] = o.src.Validate(ctx, loc.Alias)
	}
	return out
}

// unavailableResponse fills every KPI slot with the same reason.
func (o *Orchestrator) unavailableResponse(location string, reason domain.Reason) *domain.KPIResponse {
	resp := &domain.KPIResponse{
		ID:          uuid.NewString(),
		Location:    location,
		DataDate:    o.cal.LatestBusinessDay(o.today(), location),
		GeneratedAt: o.now(),
	}
	for _, m := range domain.AllMetrics {
		resp.Set(m, domain.Unavailable(reason))
	}
	return resp
}

// today is the wall-clock date truncated to UTC midnight.
func (o *Orchestrator) today() time.Time {
	n := o.now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

// priorRecord returns the latest record strictly before date.
func priorRecord(records map[string]domain.NumericRecord, date time.Time) *domain.NumericRecord {
	var best *domain.NumericRecord
	for key := range records {
		rec := records[key]
		if !rec.Date.Before(date) {
			continue
		}
		if best == nil || rec.Date.After(best.Date) {
			best = &rec
		}
	}
	return best
}

func anyAvailable(resp *domain.KPIResponse) bool {
	for _, m := range domain.AllMetrics {
		if resp.Get(m).Available {
			return true
		}
	}
	return false
}
